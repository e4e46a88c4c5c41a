package services

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"coffeehub/internal/domain"
	"coffeehub/internal/repos"
)

// CartService is the single implementation of cart behavior for both
// backings: the repository is picked by identity kind, the logic is not
// duplicated.
type CartService struct {
	Session    repos.CartRepository
	Persistent repos.CartRepository
	Variants   *repos.VariantRepo
}

func NewCartService(session, persistent repos.CartRepository, variants *repos.VariantRepo) *CartService {
	return &CartService{Session: session, Persistent: persistent, Variants: variants}
}

func (s *CartService) repo(id domain.Identity) repos.CartRepository {
	if id.Authenticated() {
		return s.Persistent
	}
	return s.Session
}

type ViewLine struct {
	ProductID   string
	ProductName string
	Slug        string
	Size        string
	UnitPrice   decimal.Decimal
	Quantity    int
	Stock       int
	LineTotal   decimal.Decimal
}

// Adjustment records a stock clamp the shopper should be warned about.
type Adjustment struct {
	ProductName string
	Size        string
	OldQuantity int
	NewQuantity int
}

type CartView struct {
	Lines       []ViewLine
	Total       decimal.Decimal
	Adjustments []Adjustment
}

// View reads the identity's cart, self-healing as it goes: quantities
// above live stock are clamped and written back so the next read is
// already consistent, clamped-to-zero lines are deleted, and lines whose
// product or variant vanished (or went inactive) are dropped without an
// adjustment.
func (s *CartService) View(id domain.Identity) (CartView, error) {
	repo := s.repo(id)
	lines, err := repo.Lines(id.Ref())
	if err != nil {
		return CartView{}, err
	}

	view := CartView{Total: decimal.Zero}
	for _, line := range lines {
		v, err := s.Variants.Purchasable(line.ProductID, line.Size)
		if errors.Is(err, domain.ErrVariantNotFound) {
			if _, err := repo.Remove(id.Ref(), line.ProductID, line.Size); err != nil {
				return CartView{}, err
			}
			continue
		}
		if err != nil {
			return CartView{}, err
		}

		qty := line.Quantity
		if qty > v.StockCount {
			view.Adjustments = append(view.Adjustments, Adjustment{
				ProductName: v.ProductName,
				Size:        line.Size,
				OldQuantity: qty,
				NewQuantity: v.StockCount,
			})
			qty = v.StockCount
			if err := repo.SetQuantity(id.Ref(), line.ProductID, line.Size, qty); err != nil {
				return CartView{}, err
			}
		}
		if qty <= 0 {
			continue
		}

		lineTotal := v.UnitPrice.Mul(decimal.NewFromInt(int64(qty)))
		view.Total = view.Total.Add(lineTotal)
		view.Lines = append(view.Lines, ViewLine{
			ProductID:   v.ProductID,
			ProductName: v.ProductName,
			Slug:        v.Slug,
			Size:        line.Size,
			UnitPrice:   v.UnitPrice,
			Quantity:    qty,
			Stock:       v.StockCount,
			LineTotal:   lineTotal,
		})
	}
	return view, nil
}

// Add increments the line by qty. The new total is validated against
// live stock; on rejection the stored quantity is left untouched.
func (s *CartService) Add(id domain.Identity, productID, size string, qty int) error {
	if qty <= 0 {
		return domain.Invalid("quantity must be positive")
	}
	v, err := s.Variants.Purchasable(productID, size)
	if err != nil {
		return err
	}
	if qty > v.StockCount {
		return domain.Invalid(fmt.Sprintf("only %d items are available", v.StockCount))
	}

	repo := s.repo(id)
	existing, err := repo.Quantity(id.Ref(), productID, size)
	if err != nil {
		return err
	}
	if existing+qty > v.StockCount {
		return domain.Invalid(fmt.Sprintf("adding %d exceeds available stock of %d", qty, v.StockCount))
	}
	return repo.SetQuantity(id.Ref(), productID, size, existing+qty)
}

// Update sets an absolute quantity; zero deletes the line. Updating an
// absent line is a not-found, not an insert.
func (s *CartService) Update(id domain.Identity, productID, size string, qty int) error {
	if qty < 0 {
		return domain.Invalid("quantity must not be negative")
	}
	v, err := s.Variants.Purchasable(productID, size)
	if err != nil {
		return err
	}
	if qty > v.StockCount {
		return domain.Invalid(fmt.Sprintf("only %d items are available", v.StockCount))
	}

	repo := s.repo(id)
	existing, err := repo.Quantity(id.Ref(), productID, size)
	if err != nil {
		return err
	}
	if existing == 0 {
		return domain.ErrLineNotFound
	}
	return repo.SetQuantity(id.Ref(), productID, size, qty)
}

// Remove deletes the line; removing an absent line reports not-found
// rather than failing hard.
func (s *CartService) Remove(id domain.Identity, productID, size string) error {
	found, err := s.repo(id).Remove(id.Ref(), productID, size)
	if err != nil {
		return err
	}
	if !found {
		return domain.ErrLineNotFound
	}
	return nil
}

func (s *CartService) Clear(id domain.Identity) error {
	return s.repo(id).Clear(id.Ref())
}
