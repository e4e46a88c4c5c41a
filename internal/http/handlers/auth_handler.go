package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	applog "coffeehub/internal/log"
	"coffeehub/internal/services"
	"coffeehub/internal/validate"
)

type AuthHandler struct {
	Auth *services.AuthService
}

func (h *AuthHandler) LoginForm(c *fiber.Ctx) error {
	ensureSID(c)
	return render(c, "login", fiber.Map{})
}

// Login authenticates and routes through cart reconciliation: if the
// login left items in both carts, the user decides before shopping on.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	sid := ensureSID(c)

	email, okEmail := validate.Email(c.FormValue("email"))
	password := c.FormValue("password")
	if !okEmail || !validate.Password(password) {
		applog.Security(c, "login.fail", map[string]any{"reason": "validation"})
		return c.Status(fiber.StatusBadRequest).Render("login", fiber.Map{"Error": "Invalid email or password"})
	}

	u, pending, err := h.Auth.Login(sid, email, password)
	if errors.Is(err, services.ErrBadCreds) {
		applog.Security(c, "login.fail", map[string]any{"email": email})
		return c.Status(fiber.StatusUnauthorized).Render("login", fiber.Map{"Error": "Invalid email or password"})
	}
	if err != nil {
		applog.Error(c, "login.error", err, nil)
		return c.Status(fiber.StatusInternalServerError).Render("login", fiber.Map{"Error": "Something went wrong, please try again"})
	}

	applog.Audit(c, "login.ok", map[string]any{"user_id": u.ID})
	if pending {
		return c.Redirect("/cart/choice")
	}
	return c.Redirect("/")
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	sid := c.Cookies("sid")
	if sid != "" {
		if err := h.Auth.Logout(sid); err != nil {
			applog.Error(c, "logout.fail", err, nil)
		}
	}
	c.Cookie(&fiber.Cookie{
		Name:     "sid",
		Value:    "",
		Path:     "/",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	applog.Audit(c, "logout.ok", nil)
	return c.Redirect("/")
}
