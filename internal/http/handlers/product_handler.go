package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"coffeehub/internal/domain"
	applog "coffeehub/internal/log"
	"coffeehub/internal/services"
	"coffeehub/internal/validate"
)

type ProductHandler struct {
	Catalog *services.CatalogService
}

func (h *ProductHandler) List(c *fiber.Ctx) error {
	ensureSID(c)
	products, err := h.Catalog.ListProducts(false)
	if err != nil {
		applog.Error(c, "product.list.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not load the catalog"})
	}
	return render(c, "home", fiber.Map{"Products": products})
}

func (h *ProductHandler) Detail(c *fiber.Ctx) error {
	ensureSID(c)
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "Product not found"})
	}
	page, err := h.Catalog.GetProduct(id, false)
	if errors.Is(err, domain.ErrProductNotFound) {
		return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "Product not found"})
	}
	if err != nil {
		applog.Error(c, "product.detail.fail", err, map[string]any{"product_id": id})
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not load the product"})
	}
	return render(c, "product", fiber.Map{"Product": page.Product, "Variants": page.Variants})
}

// Availability backs the stock badge on the product page.
func (h *ProductHandler) Availability(c *fiber.Ctx) error {
	productID, okID := validate.ID(c.Query("productId"))
	size, okSize := validate.Size(c.Query("size"))
	if !okID || !okSize {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid product or size"})
	}
	av, err := h.Catalog.CheckAvailability(productID, size)
	if err != nil {
		applog.Error(c, "availability.fail", err, map[string]any{"product_id": productID, "size": size})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "availability lookup failed"})
	}
	return c.JSON(fiber.Map{"status": av.Status, "qty": av.Qty})
}
