package repos

import (
	"database/sql"
	"encoding/json"
	"errors"
	"sort"

	"github.com/jmoiron/sqlx"

	"coffeehub/internal/domain"
)

// SessionRepo owns the sessions table: user binding lives in UserRepo,
// everything cart/checkout-shaped lives here.
type SessionRepo struct{ db *sqlx.DB }

func NewSessionRepo(db *sqlx.DB) *SessionRepo { return &SessionRepo{db: db} }

// Ensure creates the session row for a fresh sid cookie.
func (r *SessionRepo) Ensure(sid string) error {
	_, err := r.db.Exec(`
	  INSERT INTO sessions(id, last_seen) VALUES(?, CURRENT_TIMESTAMP)
	  ON CONFLICT(id) DO UPDATE SET last_seen = CURRENT_TIMESTAMP
	`, sid)
	return err
}

func (r *SessionRepo) PendingChoice(sid string) (bool, error) {
	var pending bool
	err := r.db.Get(&pending, `SELECT pending_choice FROM sessions WHERE id = ?`, sid)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return pending, err
}

func (r *SessionRepo) SetPendingChoice(sid string, pending bool) error {
	_, err := r.db.Exec(`UPDATE sessions SET pending_choice = ? WHERE id = ?`, pending, sid)
	return err
}

// ---------- checkout session record ----------

// CheckoutSession is the one live payment intent a session may hold.
// Created at checkout entry, replaced when the cart total drifts,
// consumed at commit.
type CheckoutSession struct {
	SessionID    string `db:"session_id"`
	IntentID     string `db:"intent_id"`
	ClientSecret string `db:"client_secret"`
	AmountCents  int64  `db:"amount_cents"`
	CreatedAt    string `db:"created_at"`
}

func (r *SessionRepo) CheckoutSession(sid string) (*CheckoutSession, error) {
	var cs CheckoutSession
	err := r.db.Get(&cs, `
	  SELECT session_id, intent_id, client_secret, amount_cents, created_at
	  FROM checkout_sessions WHERE session_id = ?
	`, sid)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cs, nil
}

func (r *SessionRepo) SaveCheckoutSession(cs CheckoutSession) error {
	_, err := r.db.Exec(`
	  INSERT INTO checkout_sessions(session_id, intent_id, client_secret, amount_cents)
	  VALUES (?, ?, ?, ?)
	  ON CONFLICT(session_id) DO UPDATE SET
	    intent_id = excluded.intent_id,
	    client_secret = excluded.client_secret,
	    amount_cents = excluded.amount_cents,
	    created_at = CURRENT_TIMESTAMP
	`, cs.SessionID, cs.IntentID, cs.ClientSecret, cs.AmountCents)
	return err
}

func (r *SessionRepo) DeleteCheckoutSession(sid string) error {
	_, err := r.db.Exec(`DELETE FROM checkout_sessions WHERE session_id = ?`, sid)
	return err
}

// ---------- session-backed cart ----------

// SessionCartRepo implements CartRepository over the cart_json column:
// a nested mapping {product_id: {size: quantity}}.
type SessionCartRepo struct{ db *sqlx.DB }

func NewSessionCartRepo(db *sqlx.DB) *SessionCartRepo { return &SessionCartRepo{db: db} }

func (r *SessionCartRepo) load(sid string) (map[string]map[string]int, error) {
	var raw string
	err := r.db.Get(&raw, `SELECT cart_json FROM sessions WHERE id = ?`, sid)
	if errors.Is(err, sql.ErrNoRows) {
		return map[string]map[string]int{}, nil
	}
	if err != nil {
		return nil, err
	}
	cart := map[string]map[string]int{}
	// A corrupt blob resets to an empty cart rather than poisoning the session.
	if err := json.Unmarshal([]byte(raw), &cart); err != nil {
		return map[string]map[string]int{}, nil
	}
	return cart, nil
}

func (r *SessionCartRepo) store(sid string, cart map[string]map[string]int) error {
	b, err := json.Marshal(cart)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(`
	  INSERT INTO sessions(id, cart_json, last_seen) VALUES(?, ?, CURRENT_TIMESTAMP)
	  ON CONFLICT(id) DO UPDATE SET cart_json = excluded.cart_json, last_seen = CURRENT_TIMESTAMP
	`, sid, string(b))
	return err
}

func (r *SessionCartRepo) Lines(sid string) ([]domain.CartLine, error) {
	cart, err := r.load(sid)
	if err != nil {
		return nil, err
	}
	lines := []domain.CartLine{}
	pids := make([]string, 0, len(cart))
	for pid := range cart {
		pids = append(pids, pid)
	}
	sort.Strings(pids)
	for _, pid := range pids {
		sizes := make([]string, 0, len(cart[pid]))
		for size := range cart[pid] {
			sizes = append(sizes, size)
		}
		sort.Strings(sizes)
		for _, size := range sizes {
			if qty := cart[pid][size]; qty > 0 {
				lines = append(lines, domain.CartLine{ProductID: pid, Size: size, Quantity: qty})
			}
		}
	}
	return lines, nil
}

func (r *SessionCartRepo) Quantity(sid, productID, size string) (int, error) {
	cart, err := r.load(sid)
	if err != nil {
		return 0, err
	}
	return cart[productID][size], nil
}

func (r *SessionCartRepo) SetQuantity(sid, productID, size string, qty int) error {
	cart, err := r.load(sid)
	if err != nil {
		return err
	}
	if qty <= 0 {
		delete(cart[productID], size)
		if len(cart[productID]) == 0 {
			delete(cart, productID)
		}
		return r.store(sid, cart)
	}
	if cart[productID] == nil {
		cart[productID] = map[string]int{}
	}
	cart[productID][size] = qty
	return r.store(sid, cart)
}

func (r *SessionCartRepo) Remove(sid, productID, size string) (bool, error) {
	cart, err := r.load(sid)
	if err != nil {
		return false, err
	}
	if _, ok := cart[productID][size]; !ok {
		return false, nil
	}
	delete(cart[productID], size)
	if len(cart[productID]) == 0 {
		delete(cart, productID)
	}
	return true, r.store(sid, cart)
}

func (r *SessionCartRepo) Clear(sid string) error {
	return r.store(sid, map[string]map[string]int{})
}
