package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"coffeehub/internal/domain"
)

func render(c *fiber.Ctx, tmpl string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	if u := c.Locals("user"); u != nil {
		data["User"] = u
	}
	if tok, _ := c.Locals("CSRFToken").(string); tok != "" {
		data["CSRFToken"] = tok
	} else if cookTok := c.Cookies("csrf_"); cookTok != "" {
		data["CSRFToken"] = cookTok
	}
	return c.Render(tmpl, data)
}

func ensureSID(c *fiber.Ctx) string {
	sid := c.Cookies("sid")
	if sid == "" {
		sid = uuid.NewString()
		c.Cookie(&fiber.Cookie{
			Name:     "sid",
			Value:    sid,
			Path:     "/",
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
			Secure:   false, // enable behind TLS
		})
	}
	return sid
}

// identity resolves the cart-owning party for this request.
func identity(c *fiber.Ctx) domain.Identity {
	id := domain.Identity{SID: ensureSID(c)}
	if u, ok := c.Locals("user").(*domain.User); ok && u != nil {
		id.UserID = u.ID
	}
	return id
}
