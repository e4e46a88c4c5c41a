package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "coffeehub/internal/log"
	"coffeehub/internal/services"
)

// Capability names an admin-surface action. Permissions are a single
// role -> capability table rather than per-call role predicates.
type Capability string

const (
	CapManageOrders    Capability = "orders.manage"
	CapManageInventory Capability = "inventory.manage"
	CapViewDashboard   Capability = "dashboard.view"
)

var rolePolicy = map[string]map[Capability]bool{
	"ADMIN": {
		CapManageOrders:    true,
		CapManageInventory: true,
		CapViewDashboard:   true,
	},
	"USER": {},
}

func Can(role string, cap Capability) bool {
	return rolePolicy[role][cap]
}

// RequireCapability resolves the user once and checks the policy table.
func RequireCapability(auth *services.AuthService, cap Capability) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := c.Cookies("sid")
		if sid == "" {
			return c.Redirect("/login")
		}
		u, err := auth.CurrentUser(sid)
		if err != nil || u == nil || !Can(u.Role, cap) {
			applog.Security(c, "access.denied", map[string]any{"capability": string(cap)})
			return c.Status(fiber.StatusForbidden).Render("notfound", fiber.Map{"Message": "Access denied"})
		}
		c.Locals("user", u)
		return c.Next()
	}
}

// RequireUser enforces that a user is logged in; otherwise redirect to login.
func RequireUser(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := c.Cookies("sid")
		if sid == "" {
			return c.Redirect("/login")
		}
		u, err := auth.CurrentUser(sid)
		if err != nil || u == nil {
			return c.Redirect("/login")
		}
		c.Locals("user", u)
		return c.Next()
	}
}
