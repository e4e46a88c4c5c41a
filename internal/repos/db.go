package repos

import (
	"log"
	"strings"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"
)

func OpenDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}

	if err := EnsureSchema(db); err != nil {
		return nil, err
	}
	// Seed baseline catalog if the DB is empty, then make sure the demo
	// users exist (both idempotent; safe to run every start).
	if err := seedIfEmpty(db); err != nil {
		return nil, err
	}
	if err := seedUsers(db); err != nil {
		return nil, err
	}

	return db, nil
}

func EnsureSchema(db *sqlx.DB) error {
	schema := `
PRAGMA foreign_keys = ON;

-- Products
CREATE TABLE IF NOT EXISTS products(
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  slug TEXT NOT NULL UNIQUE,
  description TEXT DEFAULT '',
  roast TEXT NOT NULL CHECK (roast IN ('LIGHT','MEDIUM','DARK')),
  origin TEXT DEFAULT '',
  active INTEGER NOT NULL DEFAULT 1,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_products_name ON products(LOWER(name));

-- Variants: one row per purchasable size
CREATE TABLE IF NOT EXISTS variants(
  product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
  size TEXT NOT NULL,
  unit_price NUMERIC NOT NULL CHECK (unit_price >= 0),
  stock_count INTEGER NOT NULL DEFAULT 0 CHECK (stock_count >= 0),
  active INTEGER NOT NULL DEFAULT 1,
  updated_at TEXT DEFAULT '',
  PRIMARY KEY (product_id, size)
);

-- Users & sessions
CREATE TABLE IF NOT EXISTS users(
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL CHECK (role IN ('USER','ADMIN')),
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT DEFAULT ''
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(LOWER(email));

CREATE TABLE IF NOT EXISTS user_profiles(
  user_id TEXT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
  phone_number TEXT DEFAULT '',
  country TEXT DEFAULT '',
  postcode TEXT DEFAULT '',
  town_or_city TEXT DEFAULT '',
  street_address1 TEXT DEFAULT '',
  street_address2 TEXT DEFAULT '',
  county TEXT DEFAULT '',
  updated_at TEXT DEFAULT ''
);

-- Sessions carry the anonymous cart as a JSON mapping
-- {product_id: {size: quantity}} plus the one-shot reconcile flag.
CREATE TABLE IF NOT EXISTS sessions(
  id TEXT PRIMARY KEY,
  user_id TEXT NULL REFERENCES users(id) ON DELETE SET NULL,
  cart_json TEXT NOT NULL DEFAULT '{}',
  pending_choice INTEGER NOT NULL DEFAULT 0,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  last_seen TEXT DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id);

-- Live payment intent per session (checkout orchestration record)
CREATE TABLE IF NOT EXISTS checkout_sessions(
  session_id TEXT PRIMARY KEY REFERENCES sessions(id) ON DELETE CASCADE,
  intent_id TEXT NOT NULL,
  client_secret TEXT NOT NULL,
  amount_cents INTEGER NOT NULL,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);

-- Persistent cart for authenticated users
CREATE TABLE IF NOT EXISTS cart_entries(
  user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
  size TEXT NOT NULL,
  quantity INTEGER NOT NULL CHECK (quantity >= 1),
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT DEFAULT '',
  PRIMARY KEY (user_id, product_id, size)
);

-- Orders are append-only; payment_ref uniqueness is the idempotency guard.
CREATE TABLE IF NOT EXISTS orders(
  id TEXT PRIMARY KEY,
  order_number TEXT NOT NULL UNIQUE,
  user_id TEXT NULL REFERENCES users(id) ON DELETE SET NULL,
  session_id TEXT DEFAULT '',
  status TEXT NOT NULL DEFAULT 'paid'
    CHECK (status IN ('processing','paid','shipped','cancelled')),
  full_name TEXT NOT NULL,
  email TEXT NOT NULL,
  phone_number TEXT DEFAULT '',
  country TEXT DEFAULT '',
  postcode TEXT DEFAULT '',
  town_or_city TEXT DEFAULT '',
  street_address1 TEXT DEFAULT '',
  street_address2 TEXT DEFAULT '',
  county TEXT DEFAULT '',
  total NUMERIC NOT NULL DEFAULT 0,
  payment_ref TEXT UNIQUE,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at);

CREATE TABLE IF NOT EXISTS order_lines(
  order_id TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
  product_id TEXT NOT NULL,
  product_name TEXT NOT NULL,
  size TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  unit_price NUMERIC NOT NULL,
  line_total NUMERIC NOT NULL,
  PRIMARY KEY (order_id, product_id, size)
);
`
	_, err := db.Exec(schema)
	return err
}

// isUniqueViolation reports whether err is a sqlite unique-constraint
// failure. modernc.org/sqlite exposes no typed error for it.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func seedIfEmpty(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM products`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	log.Println("[seed] inserting demo catalog")

	tx := db.MustBegin()
	tx.MustExec(`INSERT INTO products(id,name,slug,description,roast,origin) VALUES
	  ('house-blend','House Blend','house-blend','Our everyday blend. Chocolate and hazelnut notes.','MEDIUM','Brazil / Colombia'),
	  ('yirgacheffe','Ethiopia Yirgacheffe','ethiopia-yirgacheffe','Washed heirloom lot. Floral, bergamot, stone fruit.','LIGHT','Ethiopia'),
	  ('colombia-supremo','Colombia Supremo','colombia-supremo','Single origin from Huila. Caramel sweetness.','MEDIUM','Colombia'),
	  ('midnight-decaf','Midnight Decaf','midnight-decaf','Swiss water decaf. Cocoa and brown sugar.','DARK','Peru')`)

	tx.MustExec(`INSERT INTO variants(product_id,size,unit_price,stock_count) VALUES
	  ('house-blend','250g',10.50,40),
	  ('house-blend','500g',19.00,25),
	  ('house-blend','1kg',35.00,10),
	  ('yirgacheffe','250g',14.00,18),
	  ('yirgacheffe','500g',26.50,6),
	  ('colombia-supremo','250g',12.00,30),
	  ('colombia-supremo','1kg',42.00,4),
	  ('midnight-decaf','250g',11.50,0),
	  ('midnight-decaf','500g',21.00,12)`)

	return tx.Commit()
}

// seedUsers ensures two USERs and one ADMIN exist (idempotent).
func seedUsers(db *sqlx.DB) error {
	type u struct {
		ID, Email, Name, Role, Hash string
	}
	mk := func(id, email, name, role, raw string) u {
		h, _ := bcrypt.GenerateFromPassword([]byte(raw), 12)
		return u{ID: id, Email: email, Name: name, Role: role, Hash: string(h)}
	}

	users := []u{
		mk("u-maya", "maya@coffeehub.test", "Maya", "USER", "Passw0rd!"),
		mk("u-theo", "theo@coffeehub.test", "Theo", "USER", "Passw0rd!"),
		mk("u-admin", "admin@coffeehub.test", "Admin", "ADMIN", "Passw0rd!"),
	}

	tx := db.MustBegin()
	defer func() { _ = tx.Rollback() }()

	for _, x := range users {
		if _, err := tx.Exec(`
			INSERT INTO users(id,email,name,password_hash,role)
			VALUES(?,?,?,?,?)
			ON CONFLICT(email) DO NOTHING
		`, x.ID, x.Email, x.Name, x.Hash, x.Role); err != nil {
			return err
		}
	}

	return tx.Commit()
}
