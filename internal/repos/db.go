package repos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	applog "storefront/internal/log"
)

// tsLayout is fixed-width so stored timestamps compare correctly as text.
const tsLayout = "2006-01-02 15:04:05.000000-07:00"

func ts(t time.Time) string { return t.UTC().Format(tsLayout) }

func OpenDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// One connection: SQLite allows a single writer, and ":memory:" databases
	// are per-connection. Write transactions queue on the pool instead of
	// failing with SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	if err = db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func ensureSchema(db *sqlx.DB) error {
	schema := `
PRAGMA foreign_keys = ON;

-- Money columns are TEXT so decimal strings are stored exactly; SQLite
-- NUMERIC affinity would turn them into REAL.

-- Products
CREATE TABLE IF NOT EXISTS products(
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL CHECK (length(trim(title)) > 0),
  description TEXT NOT NULL DEFAULT '',
  price TEXT NOT NULL CHECK (CAST(price AS REAL) >= 0),
  images_json TEXT NOT NULL DEFAULT '[]',
  stock INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0),
  category TEXT NOT NULL,
  sales_count INTEGER NOT NULL DEFAULT 0 CHECK (sales_count >= 0),
  created_at DATETIME NOT NULL,
  updated_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_products_category    ON products(category);
CREATE INDEX IF NOT EXISTS idx_products_sales_count ON products(sales_count DESC);
CREATE INDEX IF NOT EXISTS idx_products_created_at  ON products(created_at);
CREATE INDEX IF NOT EXISTS idx_products_stock       ON products(stock);

-- Orders (immutable once written)
CREATE TABLE IF NOT EXISTS orders(
  id TEXT PRIMARY KEY,
  payment_reference TEXT NOT NULL,
  total TEXT NOT NULL CHECK (CAST(total AS REAL) >= 0),
  customer_email TEXT NOT NULL,
  customer_name TEXT NOT NULL DEFAULT '',
  payment_status TEXT NOT NULL CHECK (payment_status IN ('pending','succeeded','failed')),
  created_at DATETIME NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_orders_payment_reference ON orders(payment_reference);
CREATE INDEX IF NOT EXISTS idx_orders_created_at     ON orders(created_at);
CREATE INDEX IF NOT EXISTS idx_orders_payment_status ON orders(payment_status);
CREATE INDEX IF NOT EXISTS idx_orders_customer_email ON orders(customer_email);

CREATE TABLE IF NOT EXISTS order_items(
  order_id   TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
  line       INTEGER NOT NULL,
  product_id TEXT NOT NULL,
  title      TEXT NOT NULL,
  price      TEXT NOT NULL CHECK (CAST(price AS REAL) >= 0),
  quantity   INTEGER NOT NULL CHECK (quantity >= 1),
  image      TEXT NOT NULL DEFAULT '',
  PRIMARY KEY (order_id, line)
);

-- Admins & bearer sessions
CREATE TABLE IF NOT EXISTS admins(
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL CHECK (role IN ('admin','superadmin')),
  created_at DATETIME NOT NULL,
  updated_at DATETIME NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_admins_email ON admins(email);

CREATE TABLE IF NOT EXISTS admin_sessions(
  token      TEXT PRIMARY KEY,
  admin_id   TEXT NOT NULL REFERENCES admins(id) ON DELETE CASCADE,
  created_at DATETIME NOT NULL,
  expires_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_admin_sessions_admin ON admin_sessions(admin_id);
`
	_, err := db.Exec(schema)
	return err
}

// SeedDemo inserts a small catalog when the products table is empty.
func SeedDemo(ctx context.Context, db *sqlx.DB) error {
	var n int
	if err := db.GetContext(ctx, &n, `SELECT COUNT(*) FROM products`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	applog.Logger().Info().Msg("[seed] inserting demo products")

	demo := []struct {
		id, title, desc, price, category, image string
		stock                                   int
	}{
		{"p-headphones", "Wireless Headphones", "Over-ear noise cancelling headphones", "129.99", "electronics", "/images/headphones.jpg", 25},
		{"p-keyboard", "Mechanical Keyboard", "Hot-swappable 75% keyboard", "89.00", "electronics", "/images/keyboard.jpg", 8},
		{"p-mug", "Ceramic Mug", "Stoneware mug, 350ml", "14.50", "home", "/images/mug.jpg", 40},
		{"p-lamp", "Desk Lamp", "Dimmable LED desk lamp", "39.90", "home", "/images/lamp.jpg", 3},
		{"p-tee", "Cotton T-Shirt", "Organic cotton crew neck", "19.99", "clothing", "/images/tee.jpg", 60},
	}

	now := ts(time.Now())
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	for _, d := range demo {
		price, err := decimal.NewFromString(d.price)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO products(id,title,description,price,images_json,stock,category,sales_count,created_at,updated_at)
			VALUES(?,?,?,?,?,?,?,0,?,?)
			ON CONFLICT(id) DO NOTHING
		`, d.id, d.title, d.desc, price, `["`+d.image+`"]`, d.stock, d.category, now, now); err != nil {
			return err
		}
	}
	return tx.Commit()
}
