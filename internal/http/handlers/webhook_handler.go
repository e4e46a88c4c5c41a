package handlers

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/webhook"

	"coffeehub/internal/domain"
	applog "coffeehub/internal/log"
	"coffeehub/internal/payments"
	"coffeehub/internal/services"
)

// WebhookHandler consumes asynchronous payment events. It always answers
// with a definite accept/reject: unrecognized event types get a 200 so
// the processor stops retrying them, processing failures get a 500 so it
// retries delivery.
type WebhookHandler struct {
	Secret   string
	Orders   *services.OrderService
	Payments payments.Client
}

func (h *WebhookHandler) Handle(c *fiber.Ctx) error {
	event, err := webhook.ConstructEventWithOptions(
		c.Body(),
		c.Get("Stripe-Signature"),
		h.Secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
	)
	if err != nil {
		applog.Security(c, "webhook.verify.fail", map[string]any{"err": err.Error()})
		return c.SendStatus(fiber.StatusBadRequest)
	}

	switch string(event.Type) {
	case "payment_intent.succeeded":
		return h.paymentSucceeded(c, event)
	case "payment_intent.payment_failed":
		applog.Info(c, "webhook.payment_failed", map[string]any{"event": event.ID})
		return c.SendStatus(fiber.StatusOK)
	default:
		applog.Info(c, "webhook.unhandled", map[string]any{"type": string(event.Type)})
		return c.SendStatus(fiber.StatusOK)
	}
}

func (h *WebhookHandler) paymentSucceeded(c *fiber.Ctx, event stripe.Event) error {
	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		applog.Security(c, "webhook.payload.fail", map[string]any{"err": err.Error()})
		return c.SendStatus(fiber.StatusBadRequest)
	}

	lines, err := services.ParseCommittedCart(intent.Metadata["cart"])
	if err != nil {
		applog.Error(c, "webhook.cart.fail", err, map[string]any{"intent": intent.ID})
		return c.SendStatus(fiber.StatusBadRequest)
	}

	contact := contactFromIntent(&intent)
	if contact.Email == "" && intent.LatestCharge != nil {
		if email, err := h.Payments.BillingEmail(c.UserContext(), intent.LatestCharge.ID); err == nil {
			contact.Email = email
		} else {
			applog.Error(c, "webhook.charge.fail", err, map[string]any{"intent": intent.ID})
		}
	}

	order, created, err := h.Orders.CommitFromWebhook(services.CommitRequest{
		PaymentRef: intent.ID,
		Identity: domain.Identity{
			SID:    intent.Metadata["sid"],
			UserID: intent.Metadata["user_id"],
		},
		Contact:  contact,
		Lines:    lines,
		SaveInfo: intent.Metadata["save_info"] == "true",
	})
	if err != nil {
		// Never let a commit failure escape; a 500 asks the processor to
		// redeliver under its own retry policy.
		applog.Error(c, "webhook.commit.fail", err, map[string]any{"intent": intent.ID})
		return c.Status(fiber.StatusInternalServerError).SendString("commit failed")
	}

	applog.Audit(c, "webhook.commit", map[string]any{
		"intent":       intent.ID,
		"order_number": order.OrderNumber,
		"created":      created,
	})
	if created {
		return c.Status(fiber.StatusOK).SendString("order created from webhook")
	}
	return c.Status(fiber.StatusOK).SendString("order already committed")
}

func contactFromIntent(intent *stripe.PaymentIntent) domain.ShippingContact {
	contact := domain.ShippingContact{Email: intent.ReceiptEmail}
	if intent.Shipping == nil {
		return contact
	}
	contact.FullName = intent.Shipping.Name
	contact.PhoneNumber = intent.Shipping.Phone
	if addr := intent.Shipping.Address; addr != nil {
		contact.Country = addr.Country
		contact.Postcode = addr.PostalCode
		contact.TownOrCity = addr.City
		contact.StreetAddress1 = addr.Line1
		contact.StreetAddress2 = addr.Line2
		contact.County = addr.State
	}
	return contact
}
