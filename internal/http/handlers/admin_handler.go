package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"coffeehub/internal/domain"
	applog "coffeehub/internal/log"
	"coffeehub/internal/repos"
	"coffeehub/internal/validate"
)

type AdminHandler struct {
	Orders   *repos.OrderRepo
	Variants *repos.VariantRepo
}

func (h *AdminHandler) Dashboard(c *fiber.Ctx) error {
	orders, err := h.Orders.ListLatest(10)
	if err != nil {
		applog.Error(c, "admin.dashboard.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not load the dashboard"})
	}
	return render(c, "admin_dashboard", fiber.Map{"RecentOrders": orders})
}

func (h *AdminHandler) OrdersPage(c *fiber.Ctx) error {
	orders, err := h.Orders.ListLatest(100)
	if err != nil {
		applog.Error(c, "admin.orders.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not load orders"})
	}
	return render(c, "admin_orders", fiber.Map{"Orders": orders})
}

func (h *AdminHandler) UpdateOrderStatus(c *fiber.Ctx) error {
	number, okNum := validate.ID(c.FormValue("order_number"))
	status, okStatus := validate.OrderStatus(c.FormValue("status"))
	if !okNum || !okStatus {
		applog.Security(c, "validation.fail", map[string]any{"form": "admin.order_status"})
		return c.Status(fiber.StatusBadRequest).SendString("invalid order number or status")
	}

	if err := h.Orders.UpdateStatus(number, status); err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			return c.Status(fiber.StatusNotFound).SendString("order not found")
		}
		applog.Error(c, "admin.order_status.fail", err, map[string]any{"order_number": number})
		return c.Status(fiber.StatusInternalServerError).SendString("could not update the order")
	}

	applog.Audit(c, "admin.order_status", map[string]any{"order_number": number, "status": status})
	return c.Redirect("/admin/orders")
}

func (h *AdminHandler) Inventory(c *fiber.Ctx) error {
	rows, err := h.Variants.ListAll()
	if err != nil {
		applog.Error(c, "admin.inventory.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not load inventory"})
	}
	return render(c, "admin_inventory", fiber.Map{"Rows": rows})
}

// UpdateVariant sets price, stock and active for one (product, size).
func (h *AdminHandler) UpdateVariant(c *fiber.Ctx) error {
	productID, okID := validate.ID(c.FormValue("productId"))
	size, okSize := validate.Size(c.FormValue("size"))
	stock, okStock := validate.Quantity(c.FormValue("stock"))
	price, priceErr := decimal.NewFromString(c.FormValue("price"))
	if !okID || !okSize || !okStock || priceErr != nil || price.IsNegative() {
		applog.Security(c, "validation.fail", map[string]any{"form": "admin.variant"})
		return c.Status(fiber.StatusBadRequest).SendString("invalid variant fields")
	}
	active := c.FormValue("active") == "true" || c.FormValue("active") == "on"

	if err := h.Variants.Upsert(productID, size, price, stock, active); err != nil {
		applog.Error(c, "admin.variant.fail", err, map[string]any{"product_id": productID, "size": size})
		return c.Status(fiber.StatusInternalServerError).SendString("could not update the variant")
	}

	applog.Audit(c, "admin.variant", map[string]any{
		"product_id": productID,
		"size":       size,
		"price":      price.StringFixed(2),
		"stock":      stock,
		"active":     active,
	})
	return c.Redirect("/admin/inventory")
}
