package repos

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"coffeehub/internal/domain"
)

type OrderRepo struct{ db *sqlx.DB }

func NewOrderRepo(db *sqlx.DB) *OrderRepo { return &OrderRepo{db: db} }

const orderColumns = `
  id, order_number, COALESCE(user_id,'') AS user_id, session_id, status,
  full_name, email, phone_number, country, postcode, town_or_city,
  street_address1, street_address2, county, total,
  COALESCE(payment_ref,'') AS payment_ref, created_at`

// CreateHeader inserts the order row. A second insert for the same
// payment reference fails the unique index and comes back as
// ErrDuplicatePaymentRef so commit can fall through to the idempotent path.
func (r *OrderRepo) CreateHeader(o *domain.Order) error {
	_, err := r.db.Exec(`
	  INSERT INTO orders
	    (id, order_number, user_id, session_id, status,
	     full_name, email, phone_number, country, postcode, town_or_city,
	     street_address1, street_address2, county, total, payment_ref)
	  VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
	`, o.ID, o.OrderNumber, nullable(o.UserID), o.SessionID, o.Status,
		o.FullName, o.Email, o.PhoneNumber, o.Country, o.Postcode, o.TownOrCity,
		o.Street1, o.Street2, o.County, o.Total, nullable(o.PaymentRef))
	if isUniqueViolation(err) {
		return domain.ErrDuplicatePaymentRef
	}
	return err
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func (r *OrderRepo) InsertLine(l domain.OrderLine) error {
	_, err := r.db.Exec(`
	  INSERT INTO order_lines(order_id, product_id, product_name, size, quantity, unit_price, line_total)
	  VALUES (?,?,?,?,?,?,?)
	`, l.OrderID, l.ProductID, l.ProductName, l.Size, l.Quantity, l.UnitPrice, l.LineTotal)
	return err
}

// RecomputeTotal re-derives the order total from its lines (zero when
// none remain), mirroring the invariant total == sum(line_total).
func (r *OrderRepo) RecomputeTotal(orderID string) error {
	_, err := r.db.Exec(`
	  UPDATE orders SET total = (
	    SELECT COALESCE(SUM(line_total), 0) FROM order_lines WHERE order_id = ?
	  ) WHERE id = ?
	`, orderID, orderID)
	return err
}

// Delete is the compensating rollback for a half-built order; lines
// cascade.
func (r *OrderRepo) Delete(orderID string) error {
	_, err := r.db.Exec(`DELETE FROM orders WHERE id = ?`, orderID)
	return err
}

func (r *OrderRepo) ByPaymentRef(ref string) (*domain.Order, error) {
	if ref == "" {
		return nil, domain.ErrOrderNotFound
	}
	var o domain.Order
	err := r.db.Get(&o, `SELECT `+orderColumns+` FROM orders WHERE payment_ref = ?`, ref)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return r.withLines(&o)
}

func (r *OrderRepo) ByNumber(number string) (*domain.Order, error) {
	var o domain.Order
	err := r.db.Get(&o, `SELECT `+orderColumns+` FROM orders WHERE order_number = ?`, number)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return r.withLines(&o)
}

func (r *OrderRepo) withLines(o *domain.Order) (*domain.Order, error) {
	err := r.db.Select(&o.Lines, `
	  SELECT order_id, product_id, product_name, size, quantity, unit_price, line_total
	  FROM order_lines
	  WHERE order_id = ?
	  ORDER BY product_name, size
	`, o.ID)
	if err != nil {
		return nil, fmt.Errorf("load order lines: %w", err)
	}
	return o, nil
}

type OrderSummary struct {
	OrderNumber string          `db:"order_number"`
	FullName    string          `db:"full_name"`
	Email       string          `db:"email"`
	Status      string          `db:"status"`
	Total       decimal.Decimal `db:"total"`
	CreatedAt   string          `db:"created_at"`
}

func (r *OrderRepo) ListByUser(userID string) ([]OrderSummary, error) {
	var out []OrderSummary
	err := r.db.Select(&out, `
	  SELECT order_number, full_name, email, status, total, created_at
	  FROM orders
	  WHERE user_id = ?
	  ORDER BY datetime(created_at) DESC
	`, userID)
	return out, err
}

func (r *OrderRepo) ListLatest(limit int) ([]OrderSummary, error) {
	if limit <= 0 {
		limit = 100
	}
	var out []OrderSummary
	err := r.db.Select(&out, `
	  SELECT order_number, full_name, email, status, total, created_at
	  FROM orders
	  ORDER BY datetime(created_at) DESC
	  LIMIT ?
	`, limit)
	return out, err
}

func (r *OrderRepo) UpdateStatus(number, status string) error {
	res, err := r.db.Exec(`UPDATE orders SET status = ? WHERE order_number = ?`, status, number)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}
