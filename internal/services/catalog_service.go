package services

import (
	"errors"

	"coffeehub/internal/domain"
	"coffeehub/internal/repos"
)

type CatalogService struct {
	Products *repos.ProductRepo
	Variants *repos.VariantRepo
}

func NewCatalogService(products *repos.ProductRepo, variants *repos.VariantRepo) *CatalogService {
	return &CatalogService{Products: products, Variants: variants}
}

// ProductPage is a product plus its purchasable variants.
type ProductPage struct {
	Product  domain.Product
	Variants []domain.Variant
}

// ListProducts returns what the requesting role may see: shoppers get
// active products only, admins get everything.
func (s *CatalogService) ListProducts(includeInactive bool) ([]domain.Product, error) {
	return s.Products.List(includeInactive)
}

func (s *CatalogService) GetProduct(id string, includeInactive bool) (ProductPage, error) {
	p, err := s.Products.Get(id)
	if err != nil {
		return ProductPage{}, err
	}
	if !p.Active && !includeInactive {
		return ProductPage{}, domain.ErrProductNotFound
	}
	variants, err := s.Variants.ListByProduct(p.ID, includeInactive)
	if err != nil {
		return ProductPage{}, err
	}
	return ProductPage{Product: p, Variants: variants}, nil
}

// CheckAvailability converts live stock into IN_STOCK / LOW_STOCK /
// OUT_OF_STOCK for the storefront widget.
func (s *CatalogService) CheckAvailability(productID, size string) (domain.Availability, error) {
	v, err := s.Variants.Purchasable(productID, size)
	if errors.Is(err, domain.ErrVariantNotFound) {
		return domain.Availability{Status: "OUT_OF_STOCK", Qty: 0}, nil
	}
	if err != nil {
		return domain.Availability{}, err
	}

	status := "OUT_OF_STOCK"
	switch {
	case v.StockCount >= 5:
		status = "IN_STOCK"
	case v.StockCount > 0:
		status = "LOW_STOCK"
	}
	return domain.Availability{Status: status, Qty: v.StockCount}, nil
}
