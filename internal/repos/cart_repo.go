package repos

import (
	"github.com/jmoiron/sqlx"

	"coffeehub/internal/domain"
)

// CartRepository abstracts the two cart backings (anonymous session JSON
// and per-user rows) so cart logic is written once. ref is the owning
// key: a session id for the anonymous store, a user id for the
// persistent one.
type CartRepository interface {
	Lines(ref string) ([]domain.CartLine, error)
	// Quantity returns 0 for an absent line.
	Quantity(ref, productID, size string) (int, error)
	// SetQuantity stores an absolute quantity; 0 deletes the line.
	SetQuantity(ref, productID, size string, qty int) error
	// Remove deletes a line, reporting whether it existed.
	Remove(ref, productID, size string) (bool, error)
	Clear(ref string) error
}

// PersistentCartRepo stores cart lines as cart_entries rows keyed by
// (user, product, size).
type PersistentCartRepo struct{ db *sqlx.DB }

func NewPersistentCartRepo(db *sqlx.DB) *PersistentCartRepo { return &PersistentCartRepo{db: db} }

func (r *PersistentCartRepo) Lines(userID string) ([]domain.CartLine, error) {
	lines := []domain.CartLine{}
	err := r.db.Select(&lines, `
	  SELECT product_id, size, quantity
	  FROM cart_entries
	  WHERE user_id = ?
	  ORDER BY created_at, product_id, size
	`, userID)
	return lines, err
}

func (r *PersistentCartRepo) Quantity(userID, productID, size string) (int, error) {
	var qty int
	err := r.db.Get(&qty, `
	  SELECT COALESCE(SUM(quantity),0) FROM cart_entries
	  WHERE user_id = ? AND product_id = ? AND size = ?
	`, userID, productID, size)
	return qty, err
}

func (r *PersistentCartRepo) SetQuantity(userID, productID, size string, qty int) error {
	if qty <= 0 {
		_, err := r.db.Exec(`DELETE FROM cart_entries WHERE user_id = ? AND product_id = ? AND size = ?`,
			userID, productID, size)
		return err
	}
	_, err := r.db.Exec(`
	  INSERT INTO cart_entries(user_id, product_id, size, quantity)
	  VALUES (?, ?, ?, ?)
	  ON CONFLICT(user_id, product_id, size) DO UPDATE SET
	    quantity = excluded.quantity,
	    updated_at = CURRENT_TIMESTAMP
	`, userID, productID, size, qty)
	return err
}

func (r *PersistentCartRepo) Remove(userID, productID, size string) (bool, error) {
	res, err := r.db.Exec(`DELETE FROM cart_entries WHERE user_id = ? AND product_id = ? AND size = ?`,
		userID, productID, size)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *PersistentCartRepo) Clear(userID string) error {
	_, err := r.db.Exec(`DELETE FROM cart_entries WHERE user_id = ?`, userID)
	return err
}
