package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"coffeehub/internal/domain"
	applog "coffeehub/internal/log"
	"coffeehub/internal/services"
	"coffeehub/internal/validate"
)

type CartHandler struct {
	Cart      *services.CartService
	Reconcile *services.ReconcileService
}

// View renders the cart page, surfacing any stock clamps as warnings.
func (h *CartHandler) View(c *fiber.Ctx) error {
	id := identity(c)
	view, err := h.Cart.View(id)
	if err != nil {
		applog.Error(c, "cart.view.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not load your cart"})
	}
	return render(c, "cart", fiber.Map{"Cart": view})
}

// Add handles the add-to-cart form and redirects back to the cart.
func (h *CartHandler) Add(c *fiber.Ctx) error {
	productID, okID := validate.ID(c.FormValue("productId"))
	size, okSize := validate.Size(c.FormValue("size"))
	qty, okQty := validate.Quantity(c.FormValue("qty"))
	if !okID || !okSize || !okQty {
		applog.Security(c, "validation.fail", map[string]any{"form": "cart.add"})
		return c.Status(fiber.StatusBadRequest).SendString("invalid product, size or quantity")
	}

	if err := h.Cart.Add(identity(c), productID, size, qty); err != nil {
		return cartError(c, "cart.add.fail", err)
	}
	return c.Redirect("/cart")
}

// Update sets an absolute quantity; used by the cart page controls.
func (h *CartHandler) Update(c *fiber.Ctx) error {
	productID, okID := validate.ID(c.FormValue("productId"))
	size, okSize := validate.Size(c.FormValue("size"))
	qty, okQty := validate.Quantity(c.FormValue("qty"))
	if !okID || !okSize || !okQty {
		applog.Security(c, "validation.fail", map[string]any{"form": "cart.update"})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "invalid input"})
	}

	if err := h.Cart.Update(identity(c), productID, size, qty); err != nil {
		return cartError(c, "cart.update.fail", err)
	}
	return c.JSON(fiber.Map{"success": true, "message": "Cart updated successfully."})
}

func (h *CartHandler) Remove(c *fiber.Ctx) error {
	productID, okID := validate.ID(c.FormValue("productId"))
	size, okSize := validate.Size(c.FormValue("size"))
	if !okID || !okSize {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "invalid input"})
	}

	if err := h.Cart.Remove(identity(c), productID, size); err != nil {
		return cartError(c, "cart.remove.fail", err)
	}
	return c.JSON(fiber.Map{"success": true, "message": "Item removed from cart."})
}

// ChoiceForm shows the three-way merge choice after a login found items
// in both carts.
func (h *CartHandler) ChoiceForm(c *fiber.Ctx) error {
	id := identity(c)
	if !id.Authenticated() {
		return c.Redirect("/login")
	}
	sessionView, err := h.Cart.View(domain.Identity{SID: id.SID})
	if err != nil {
		return err
	}
	accountView, err := h.Cart.View(id)
	if err != nil {
		return err
	}
	return render(c, "cart_choice", fiber.Map{"SessionCart": sessionView, "AccountCart": accountView})
}

// Choose consumes the one-shot pending choice.
func (h *CartHandler) Choose(c *fiber.Ctx) error {
	id := identity(c)
	if !id.Authenticated() {
		return c.Redirect("/login")
	}
	choice := c.FormValue("choice")
	if err := h.Reconcile.Resolve(id.SID, id.UserID, choice); err != nil {
		if domain.IsValidation(err) {
			return c.Status(fiber.StatusBadRequest).SendString(err.Error())
		}
		applog.Error(c, "cart.choice.fail", err, map[string]any{"choice": choice})
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not resolve your carts"})
	}
	applog.Audit(c, "cart.choice", map[string]any{"choice": choice})
	return c.Redirect("/cart")
}

// cartError maps service errors onto the JSON shape the cart widgets use.
func cartError(c *fiber.Ctx, action string, err error) error {
	switch {
	case domain.IsValidation(err):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": err.Error()})
	case errors.Is(err, domain.ErrVariantNotFound), errors.Is(err, domain.ErrLineNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "error": err.Error()})
	default:
		applog.Error(c, action, err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": "something went wrong"})
	}
}
