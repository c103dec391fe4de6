package repos

import (
	"log"

	"github.com/jmoiron/sqlx"
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

	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	// Seed the demo catalog if the DB is empty (idempotent).
	if err := seedIfEmpty(db); err != nil {
		return nil, err
	}

	return db, nil
}

func ensureSchema(db *sqlx.DB) error {
	schema := `
PRAGMA foreign_keys = ON;

-- Catalog
CREATE TABLE IF NOT EXISTS products(
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT,
  image_url TEXT,
  price_cents INTEGER NOT NULL CHECK (price_cents > 0),
  stock INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0),
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_products_created_at ON products(created_at);

-- Customers (one row per transaction, immutable after creation)
CREATE TABLE IF NOT EXISTS customers(
  id TEXT PRIMARY KEY,
  full_name TEXT NOT NULL,
  email TEXT NOT NULL,
  phone TEXT,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS deliveries(
  id TEXT PRIMARY KEY,
  customer_id TEXT NOT NULL REFERENCES customers(id) ON DELETE CASCADE,
  address_line1 TEXT NOT NULL,
  city TEXT NOT NULL,
  state TEXT,
  postal_code TEXT,
  notes TEXT,
  fee_cents INTEGER NOT NULL DEFAULT 0 CHECK (fee_cents >= 0),
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);

-- Transactions
CREATE TABLE IF NOT EXISTS transactions(
  id TEXT PRIMARY KEY,
  reference TEXT NOT NULL UNIQUE,
  status TEXT NOT NULL CHECK (status IN ('PENDING','APPROVED','DECLINED','ERROR')),
  product_id TEXT NOT NULL REFERENCES products(id),
  amount_cents INTEGER NOT NULL CHECK (amount_cents > 0),
  base_fee_cents INTEGER NOT NULL DEFAULT 0 CHECK (base_fee_cents >= 0),
  provider TEXT,
  provider_tx_id TEXT,
  card_brand TEXT,
  card_last4 TEXT,
  customer_id TEXT NOT NULL REFERENCES customers(id),
  delivery_id TEXT NOT NULL REFERENCES deliveries(id),
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_transactions_created_at ON transactions(created_at);
CREATE INDEX IF NOT EXISTS idx_transactions_reference  ON transactions(reference);

CREATE TABLE IF NOT EXISTS transaction_items(
  transaction_id TEXT NOT NULL REFERENCES transactions(id) ON DELETE CASCADE,
  product_id TEXT NOT NULL REFERENCES products(id),
  name TEXT NOT NULL,
  image_url TEXT,
  price_cents INTEGER NOT NULL,
  quantity INTEGER NOT NULL CHECK (quantity >= 1),
  PRIMARY KEY (transaction_id, product_id)
);
`
	_, err := db.Exec(schema)
	return err
}

func seedIfEmpty(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM products`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	log.Println("[seed] inserting demo products")

	tx := db.MustBegin()
	tx.MustExec(`INSERT INTO products(id,name,description,image_url,price_cents,stock) VALUES
	  ('prod-headphones','Auriculares Bluetooth','Cancelación de ruido, 40h batería.','https://picsum.photos/seed/headphones/640/480',199900,8),
	  ('prod-keyboard','Teclado Mecánico','Switches lineales, RGB, hot-swap.','https://picsum.photos/seed/keyboard/640/480',299900,5),
	  ('prod-mouse','Mouse Inalámbrico','Baja latencia, sensor 26K DPI.','https://picsum.photos/seed/mouse/640/480',149900,10)`)

	return tx.Commit()
}
