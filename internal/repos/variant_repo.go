package repos

import (
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"coffeehub/internal/domain"
)

type VariantRepo struct{ db *sqlx.DB }

func NewVariantRepo(db *sqlx.DB) *VariantRepo { return &VariantRepo{db: db} }

// PurchasableVariant is a variant joined with its product, restricted to
// what a shopper is allowed to buy.
type PurchasableVariant struct {
	ProductID   string          `db:"product_id"`
	ProductName string          `db:"product_name"`
	Slug        string          `db:"slug"`
	Size        string          `db:"size"`
	UnitPrice   decimal.Decimal `db:"unit_price"`
	StockCount  int             `db:"stock_count"`
}

// Purchasable resolves (product, size) for shopper-facing paths. Inactive
// products and variants behave exactly like missing ones here.
func (r *VariantRepo) Purchasable(productID, size string) (PurchasableVariant, error) {
	var v PurchasableVariant
	err := r.db.Get(&v, `
	  SELECT v.product_id, p.name AS product_name, p.slug, v.size, v.unit_price, v.stock_count
	  FROM variants v
	  JOIN products p ON p.id = v.product_id
	  WHERE v.product_id = ? AND v.size = ? AND v.active = 1 AND p.active = 1
	`, productID, size)
	if errors.Is(err, sql.ErrNoRows) {
		return PurchasableVariant{}, domain.ErrVariantNotFound
	}
	return v, err
}

// Get resolves a variant regardless of active flags (admin paths).
func (r *VariantRepo) Get(productID, size string) (domain.Variant, error) {
	var v domain.Variant
	err := r.db.Get(&v, `
	  SELECT product_id, size, unit_price, stock_count, active,
	         COALESCE(updated_at,'') AS updated_at
	  FROM variants
	  WHERE product_id = ? AND size = ?
	`, productID, size)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Variant{}, domain.ErrVariantNotFound
	}
	return v, err
}

func (r *VariantRepo) ListByProduct(productID string, includeInactive bool) ([]domain.Variant, error) {
	q := `
	  SELECT product_id, size, unit_price, stock_count, active,
	         COALESCE(updated_at,'') AS updated_at
	  FROM variants
	  WHERE product_id = ?`
	if !includeInactive {
		q += ` AND active = 1`
	}
	q += ` ORDER BY unit_price`

	var out []domain.Variant
	err := r.db.Select(&out, q, productID)
	return out, err
}

// Row used by the admin inventory page.
type InventoryRow struct {
	ProductID   string          `db:"product_id"`
	ProductName string          `db:"product_name"`
	Size        string          `db:"size"`
	UnitPrice   decimal.Decimal `db:"unit_price"`
	StockCount  int             `db:"stock_count"`
	Active      bool            `db:"active"`
}

func (r *VariantRepo) ListAll() ([]InventoryRow, error) {
	var rows []InventoryRow
	err := r.db.Select(&rows, `
	  SELECT v.product_id, p.name AS product_name, v.size, v.unit_price, v.stock_count, v.active
	  FROM variants v
	  JOIN products p ON p.id = v.product_id
	  ORDER BY p.name, v.unit_price
	`)
	return rows, err
}

// Decrement subtracts committed units with a floor at zero. Commit-time
// stock is best effort, not a reservation.
func (r *VariantRepo) Decrement(productID, size string, by int) error {
	_, err := r.db.Exec(`
	  UPDATE variants
	  SET stock_count = MAX(stock_count - ?, 0), updated_at = CURRENT_TIMESTAMP
	  WHERE product_id = ? AND size = ?
	`, by, productID, size)
	return err
}

// Upsert sets price/stock/active for (product, size), creating the row if
// needed. Admin-only.
func (r *VariantRepo) Upsert(productID, size string, price decimal.Decimal, stock int, active bool) error {
	_, err := r.db.Exec(`
	  INSERT INTO variants(product_id, size, unit_price, stock_count, active, updated_at)
	  VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	  ON CONFLICT(product_id, size) DO UPDATE SET
	    unit_price = excluded.unit_price,
	    stock_count = excluded.stock_count,
	    active = excluded.active,
	    updated_at = CURRENT_TIMESTAMP
	`, productID, size, price, stock, active)
	return err
}

func (r *VariantRepo) Stock(productID, size string) (int, error) {
	var n int
	err := r.db.Get(&n, `SELECT stock_count FROM variants WHERE product_id = ? AND size = ?`, productID, size)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, domain.ErrVariantNotFound
	}
	return n, err
}
