package repos

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"

	"neurocart/internal/domain"
)

// tsLayout is fixed width so TEXT timestamps sort and compare lexically.
const tsLayout = "2006-01-02T15:04:05.000000000Z"

func ts(t time.Time) string { return t.UTC().Format(tsLayout) }

func parseTS(s string) time.Time {
	t, err := time.Parse(tsLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// OpenDB connects with the given driver ("sqlite" or "postgres") and ensures the schema.
func OpenDB(driver, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	switch driver {
	case "sqlite":
		// one connection: :memory: databases are per-connection and writes serialize anyway
		db.SetMaxOpenConns(1)
	case "postgres":
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	default:
		_ = db.Close()
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}

	for attempt := 1; ; attempt++ {
		if err = db.Ping(); err == nil {
			break
		}
		if driver == "sqlite" || attempt == 5 {
			_ = db.Close()
			return nil, err
		}
		log.Printf("[db] ping failed (attempt %d): %v", attempt, err)
		time.Sleep(2 * time.Second)
	}

	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func ensureSchema(db *sqlx.DB) error {
	schema := sqliteSchema
	if db.DriverName() == "postgres" {
		schema = postgresSchema
	}
	_, err := db.Exec(schema)
	return err
}

const sqliteSchema = `
PRAGMA foreign_keys = ON;

CREATE TABLE IF NOT EXISTS users(
  id TEXT PRIMARY KEY,
  username TEXT NOT NULL UNIQUE,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL CHECK (role IN ('USER','ADMIN')),
  created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS sessions(
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  created_at TEXT NOT NULL,
  expires_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id);

CREATE TABLE IF NOT EXISTS products(
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  price TEXT NOT NULL,
  quantity INTEGER NOT NULL DEFAULT 0 CHECK (quantity >= 0),
  category TEXT NOT NULL CHECK (category IN ('electronics','gaming','digital_goods','diy','other')),
  description TEXT NOT NULL DEFAULT '',
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_products_category ON products(category);

CREATE TABLE IF NOT EXISTS reviews(
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
  user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  rate INTEGER NOT NULL CHECK (rate BETWEEN 1 AND 5),
  comment TEXT NOT NULL DEFAULT '',
  created_at TEXT NOT NULL,
  UNIQUE(product_id, user_id)
);

CREATE TABLE IF NOT EXISTS coupons(
  id TEXT PRIMARY KEY,
  user_id TEXT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
  code TEXT NOT NULL UNIQUE,
  amount TEXT NOT NULL,
  expires_at TEXT NOT NULL,
  is_active BOOLEAN NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_coupons_expiry ON coupons(is_active, expires_at);

CREATE TABLE IF NOT EXISTS orders(
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL REFERENCES users(id),
  amount TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_orders_user ON orders(user_id, created_at);

CREATE TABLE IF NOT EXISTS order_items(
  order_id TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
  position INTEGER NOT NULL,
  product_id TEXT NOT NULL REFERENCES products(id),
  product_name TEXT NOT NULL,
  unit_price TEXT NOT NULL,
  quantity INTEGER NOT NULL CHECK (quantity >= 1),
  PRIMARY KEY (order_id, position)
);

CREATE TABLE IF NOT EXISTS checkouts(
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL REFERENCES users(id),
  first_name TEXT NOT NULL,
  last_name TEXT NOT NULL,
  email TEXT NOT NULL,
  address TEXT NOT NULL,
  apartment TEXT NOT NULL DEFAULT '',
  country TEXT NOT NULL,
  state TEXT NOT NULL,
  zip_code TEXT NOT NULL,
  card_name TEXT NOT NULL,
  card_last4 TEXT NOT NULL,
  expiration TEXT NOT NULL,
  coupon_code TEXT NOT NULL DEFAULT '',
  created_at TEXT NOT NULL,
  order_id TEXT NULL UNIQUE REFERENCES orders(id)
);
CREATE INDEX IF NOT EXISTS idx_checkouts_user ON checkouts(user_id, created_at);

CREATE TABLE IF NOT EXISTS checkout_items(
  checkout_id TEXT NOT NULL REFERENCES checkouts(id) ON DELETE CASCADE,
  position INTEGER NOT NULL,
  product_id TEXT NOT NULL REFERENCES products(id),
  quantity INTEGER NOT NULL CHECK (quantity >= 1),
  PRIMARY KEY (checkout_id, position)
);
`

const postgresSchema = `
CREATE TABLE IF NOT EXISTS users(
  id TEXT PRIMARY KEY,
  username TEXT NOT NULL UNIQUE,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL CHECK (role IN ('USER','ADMIN')),
  created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS sessions(
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  created_at TEXT NOT NULL,
  expires_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id);

CREATE TABLE IF NOT EXISTS products(
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  price NUMERIC(12,2) NOT NULL,
  quantity INTEGER NOT NULL DEFAULT 0 CHECK (quantity >= 0),
  category TEXT NOT NULL CHECK (category IN ('electronics','gaming','digital_goods','diy','other')),
  description TEXT NOT NULL DEFAULT '',
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_products_category ON products(category);

CREATE TABLE IF NOT EXISTS reviews(
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
  user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  rate INTEGER NOT NULL CHECK (rate BETWEEN 1 AND 5),
  comment TEXT NOT NULL DEFAULT '',
  created_at TEXT NOT NULL,
  UNIQUE(product_id, user_id)
);

CREATE TABLE IF NOT EXISTS coupons(
  id TEXT PRIMARY KEY,
  user_id TEXT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
  code TEXT NOT NULL UNIQUE,
  amount NUMERIC(12,2) NOT NULL,
  expires_at TEXT NOT NULL,
  is_active BOOLEAN NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_coupons_expiry ON coupons(is_active, expires_at);

CREATE TABLE IF NOT EXISTS orders(
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL REFERENCES users(id),
  amount NUMERIC(12,2) NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_orders_user ON orders(user_id, created_at);

CREATE TABLE IF NOT EXISTS order_items(
  order_id TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
  position INTEGER NOT NULL,
  product_id TEXT NOT NULL REFERENCES products(id),
  product_name TEXT NOT NULL,
  unit_price NUMERIC(12,2) NOT NULL,
  quantity INTEGER NOT NULL CHECK (quantity >= 1),
  PRIMARY KEY (order_id, position)
);

CREATE TABLE IF NOT EXISTS checkouts(
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL REFERENCES users(id),
  first_name TEXT NOT NULL,
  last_name TEXT NOT NULL,
  email TEXT NOT NULL,
  address TEXT NOT NULL,
  apartment TEXT NOT NULL DEFAULT '',
  country TEXT NOT NULL,
  state TEXT NOT NULL,
  zip_code TEXT NOT NULL,
  card_name TEXT NOT NULL,
  card_last4 TEXT NOT NULL,
  expiration TEXT NOT NULL,
  coupon_code TEXT NOT NULL DEFAULT '',
  created_at TEXT NOT NULL,
  order_id TEXT NULL UNIQUE REFERENCES orders(id)
);
CREATE INDEX IF NOT EXISTS idx_checkouts_user ON checkouts(user_id, created_at);

CREATE TABLE IF NOT EXISTS checkout_items(
  checkout_id TEXT NOT NULL REFERENCES checkouts(id) ON DELETE CASCADE,
  position INTEGER NOT NULL,
  product_id TEXT NOT NULL REFERENCES products(id),
  quantity INTEGER NOT NULL CHECK (quantity >= 1),
  PRIMARY KEY (checkout_id, position)
);
`

// WithTx runs fn inside a transaction and commits when fn returns nil.
func WithTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

type SeedOptions struct {
	AdminEmail    string
	AdminPassword string
	DemoProducts  bool
}

// Seed inserts the admin account and a handful of products. Safe to run on every start.
func Seed(ctx context.Context, db *sqlx.DB, opt SeedOptions) error {
	return WithTx(ctx, db, func(tx *sqlx.Tx) error {
		now := ts(time.Now())
		if opt.AdminEmail != "" && opt.AdminPassword != "" {
			h, err := bcrypt.GenerateFromPassword([]byte(opt.AdminPassword), 12)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, tx.Rebind(`
				INSERT INTO users(id,username,email,password_hash,role,created_at)
				VALUES(?,?,?,?,?,?)
				ON CONFLICT DO NOTHING
			`), uuid.NewString(), "admin", opt.AdminEmail, string(h), domain.RoleAdmin, now); err != nil {
				return err
			}
		}
		if !opt.DemoProducts {
			return nil
		}

		log.Println("[seed] ensuring demo products")
		demo := []struct {
			id, name, price string
			qty             int
			cat             domain.Category
			desc            string
		}{
			{"p-ssd-1tb", "NVMe SSD 1TB", "89.99", 40, domain.CategoryElectronics, "PCIe 4.0 M.2 drive"},
			{"p-pad-pro", "Wireless Gamepad", "59.00", 25, domain.CategoryGaming, "Bluetooth controller with rumble"},
			{"p-ide-key", "IDE License Key", "129.00", 1000, domain.CategoryDigital, "One year personal license"},
			{"p-solder-kit", "Soldering Kit", "34.50", 15, domain.CategoryDIY, "60W iron, stand and tips"},
		}
		for _, p := range demo {
			if _, err := tx.ExecContext(ctx, tx.Rebind(`
				INSERT INTO products(id,name,price,quantity,category,description,created_at,updated_at)
				VALUES(?,?,?,?,?,?,?,?)
				ON CONFLICT DO NOTHING
			`), p.id, p.name, p.price, p.qty, string(p.cat), p.desc, now, now); err != nil {
				return err
			}
		}
		return nil
	})
}
