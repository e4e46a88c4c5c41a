package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"coffeehub/internal/domain"
	applog "coffeehub/internal/log"
	"coffeehub/internal/repos"
	"coffeehub/internal/validate"
)

type OrderHandler struct {
	Orders *repos.OrderRepo
}

// View shows a single order confirmation/detail page.
// Ownership check: the session that placed the order, the account that
// owns it, and admins may see it; everyone else gets a 404.
func (h *OrderHandler) View(c *fiber.Ctx) error {
	number, ok := validate.ID(c.Params("number"))
	if !ok {
		return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "Order not found"})
	}

	order, err := h.Orders.ByNumber(number)
	if errors.Is(err, domain.ErrOrderNotFound) {
		return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "Order not found"})
	}
	if err != nil {
		applog.Error(c, "order.view.fail", err, map[string]any{"order_number": number})
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not load the order"})
	}

	id := identity(c)
	u, _ := c.Locals("user").(*domain.User)
	isOwner := order.SessionID == id.SID || (id.Authenticated() && order.UserID == id.UserID)
	isAdmin := u != nil && Can(u.Role, CapManageOrders)
	if !isOwner && !isAdmin {
		applog.Security(c, "order.view.denied", map[string]any{"order_number": number})
		return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "Order not found"})
	}

	return render(c, "order", fiber.Map{"Order": order})
}

// History lists the logged-in user's orders, newest first.
func (h *OrderHandler) History(c *fiber.Ctx) error {
	u, _ := c.Locals("user").(*domain.User)
	if u == nil {
		return c.Redirect("/login")
	}
	orders, err := h.Orders.ListByUser(u.ID)
	if err != nil {
		applog.Error(c, "order.history.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not load your orders"})
	}
	return render(c, "order_history", fiber.Map{"Orders": orders})
}
