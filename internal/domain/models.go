package domain

import "github.com/shopspring/decimal"

type Product struct {
	ID          string `db:"id"`
	Name        string `db:"name"`
	Slug        string `db:"slug"`
	Description string `db:"description"`
	Roast       string `db:"roast"` // LIGHT | MEDIUM | DARK
	Origin      string `db:"origin"`
	Active      bool   `db:"active"`
	CreatedAt   string `db:"created_at"`
	UpdatedAt   string `db:"updated_at"`
}

// Variant is a purchasable size of a product. (product_id, size) is unique.
type Variant struct {
	ProductID  string          `db:"product_id"`
	Size       string          `db:"size"`
	UnitPrice  decimal.Decimal `db:"unit_price"`
	StockCount int             `db:"stock_count"`
	Active     bool            `db:"active"`
	UpdatedAt  string          `db:"updated_at"`
}

// CartLine is one (product, size) entry of either cart backing store.
type CartLine struct {
	ProductID string `db:"product_id"`
	Size      string `db:"size"`
	Quantity  int    `db:"quantity"`
}

// Identity is the cart-owning party of a request: always a session,
// sometimes a user on top of it.
type Identity struct {
	SID    string
	UserID string
}

func (id Identity) Authenticated() bool { return id.UserID != "" }

// Ref is the key the selected cart repository stores lines under.
func (id Identity) Ref() string {
	if id.Authenticated() {
		return id.UserID
	}
	return id.SID
}

const (
	OrderStatusProcessing = "processing"
	OrderStatusPaid       = "paid"
	OrderStatusShipped    = "shipped"
	OrderStatusCancelled  = "cancelled"
)

// ShippingContact is the checkout form snapshot captured onto an order.
// It is decoupled from any live profile row on purpose.
type ShippingContact struct {
	FullName       string `db:"full_name"`
	Email          string `db:"email"`
	PhoneNumber    string `db:"phone_number"`
	Country        string `db:"country"`
	Postcode       string `db:"postcode"`
	TownOrCity     string `db:"town_or_city"`
	StreetAddress1 string `db:"street_address1"`
	StreetAddress2 string `db:"street_address2"`
	County         string `db:"county"`
}

type Order struct {
	ID          string          `db:"id"`
	OrderNumber string          `db:"order_number"`
	UserID      string          `db:"user_id"`
	SessionID   string          `db:"session_id"`
	Status      string          `db:"status"`
	FullName    string          `db:"full_name"`
	Email       string          `db:"email"`
	PhoneNumber string          `db:"phone_number"`
	Country     string          `db:"country"`
	Postcode    string          `db:"postcode"`
	TownOrCity  string          `db:"town_or_city"`
	Street1     string          `db:"street_address1"`
	Street2     string          `db:"street_address2"`
	County      string          `db:"county"`
	Total       decimal.Decimal `db:"total"`
	PaymentRef  string          `db:"payment_ref"`
	CreatedAt   string          `db:"created_at"`
	Lines       []OrderLine     `db:"-"`
}

// OrderLine snapshots name and price at commit time so later catalog
// edits never alter historical orders.
type OrderLine struct {
	OrderID     string          `db:"order_id"`
	ProductID   string          `db:"product_id"`
	ProductName string          `db:"product_name"`
	Size        string          `db:"size"`
	Quantity    int             `db:"quantity"`
	UnitPrice   decimal.Decimal `db:"unit_price"`
	LineTotal   decimal.Decimal `db:"line_total"`
}

type User struct {
	ID    string `db:"id"`
	Email string `db:"email"`
	Name  string `db:"name"`
	Hash  string `db:"password_hash"`
	Role  string `db:"role"` // USER | ADMIN
}

// Profile holds a user's saved shipping defaults, written when an order
// commits with the save-info flag set.
type Profile struct {
	UserID         string `db:"user_id"`
	PhoneNumber    string `db:"phone_number"`
	Country        string `db:"country"`
	Postcode       string `db:"postcode"`
	TownOrCity     string `db:"town_or_city"`
	StreetAddress1 string `db:"street_address1"`
	StreetAddress2 string `db:"street_address2"`
	County         string `db:"county"`
}

type Availability struct {
	Status string `json:"status"` // IN_STOCK | LOW_STOCK | OUT_OF_STOCK
	Qty    int    `json:"qty,omitempty"`
}
