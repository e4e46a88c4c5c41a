package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"coffeehub/internal/domain"
	applog "coffeehub/internal/log"
	"coffeehub/internal/repos"
	"coffeehub/internal/services"
	"coffeehub/internal/validate"
)

type CheckoutHandler struct {
	Cart      *services.CartService
	Checkout  *services.CheckoutService
	Orders    *services.OrderService
	Users     *repos.UserRepo
	Sessions  *repos.SessionRepo
	PublicKey string
}

// Show renders the checkout page with a live payment intent.
func (h *CheckoutHandler) Show(c *fiber.Ctx) error {
	id := identity(c)
	view, err := h.Cart.View(id)
	if err != nil {
		applog.Error(c, "checkout.load.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not load your cart"})
	}

	page, err := h.Checkout.Prepare(c.UserContext(), id, view, false)
	if errors.Is(err, domain.ErrEmptyCart) {
		return render(c, "cart", fiber.Map{"Cart": view, "Msg": "There's nothing in your cart at the moment"})
	}
	if err != nil {
		applog.Error(c, "checkout.intent.fail", err, nil)
		return c.Status(fiber.StatusBadGateway).Render("notfound", fiber.Map{"Message": "Payments are unavailable right now. Please try again."})
	}

	data := fiber.Map{
		"Cart":            view,
		"StripePublicKey": h.PublicKey,
		"ClientSecret":    page.ClientSecret,
	}
	if id.Authenticated() {
		if profile, err := h.Users.Profile(id.UserID); err == nil {
			data["Profile"] = profile
		}
	}
	return render(c, "checkout", data)
}

// Cache re-attaches the final cart snapshot and save-info flag to the
// intent right before the client confirms the payment.
func (h *CheckoutHandler) Cache(c *fiber.Ctx) error {
	id := identity(c)
	view, err := h.Cart.View(id)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false})
	}
	saveInfo := c.FormValue("save_info") == "true"
	if err := h.Checkout.CacheCheckoutData(c.UserContext(), id, view, saveInfo); err != nil {
		applog.Error(c, "checkout.cache.fail", err, nil)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false})
	}
	return c.JSON(fiber.Map{"success": true})
}

// Complete is the synchronous commit trigger: the shopper's browser
// confirmed the payment and submitted the order form.
func (h *CheckoutHandler) Complete(c *fiber.Ctx) error {
	id := identity(c)

	contact, ok := contactFromForm(c)
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"form": "checkout"})
		return c.Status(fiber.StatusBadRequest).SendString("please check the highlighted fields")
	}

	cs, err := h.Sessions.CheckoutSession(id.SID)
	if err != nil || cs == nil {
		applog.Error(c, "checkout.complete.nointent", err, nil)
		return c.Redirect("/checkout")
	}

	view, err := h.Cart.View(id)
	if err != nil {
		applog.Error(c, "checkout.complete.load.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not load your cart"})
	}

	order, created, err := h.Orders.Commit(services.CommitRequest{
		PaymentRef: cs.IntentID,
		Identity:   id,
		Contact:    contact,
		Lines:      services.CommitLinesFromView(view),
		SaveInfo:   c.FormValue("save_info") == "true",
	})
	if err != nil {
		applog.Error(c, "checkout.commit.fail", err, nil)
		return c.Status(fiber.StatusBadRequest).Render("notfound", fiber.Map{"Message": "We could not complete your order. Your cart is unchanged — please try again."})
	}

	applog.Audit(c, "order.commit", map[string]any{
		"order_number": order.OrderNumber,
		"created":      created,
		"total":        order.Total.StringFixed(2),
	})
	return c.Redirect("/order/" + order.OrderNumber)
}

func contactFromForm(c *fiber.Ctx) (domain.ShippingContact, bool) {
	name, okName := validate.Name(c.FormValue("full_name"))
	email, okEmail := validate.Email(c.FormValue("email"))
	phone, okPhone := validate.Phone(c.FormValue("phone_number"))
	country, okCountry := validate.Country(c.FormValue("country"))
	city, okCity := validate.Required(c.FormValue("town_or_city"), 40)
	street1, okStreet := validate.Required(c.FormValue("street_address1"), 80)
	postcode, okPost := validate.Optional(c.FormValue("postcode"), 20)
	street2, okStreet2 := validate.Optional(c.FormValue("street_address2"), 80)
	county, okCounty := validate.Optional(c.FormValue("county"), 80)

	if !okName || !okEmail || !okPhone || !okCountry || !okCity || !okStreet || !okPost || !okStreet2 || !okCounty {
		return domain.ShippingContact{}, false
	}
	return domain.ShippingContact{
		FullName:       name,
		Email:          email,
		PhoneNumber:    phone,
		Country:        country,
		Postcode:       postcode,
		TownOrCity:     city,
		StreetAddress1: street1,
		StreetAddress2: street2,
		County:         county,
	}, true
}
