package repository

import (
	"database/sql"
	"fmt"
	"log"

	_ "modernc.org/sqlite" // Pure Go SQLite driver - no CGO required
)

// OpenSQLiteStore opens (or creates) the SQLite primary store and bootstraps
// its schema. dbPath is the path to the database file.
func OpenSQLiteStore(dbPath string) (*sql.DB, error) {
	// WAL mode for concurrent readers alongside the single writer
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite: %w", err)
	}

	// SQLite only supports 1 writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := createSQLiteTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	log.Printf("[SQLiteStore] Initialized with database: %s", dbPath)
	return db, nil
}

func createSQLiteTables(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS cart_items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_email TEXT NOT NULL,
		product_type TEXT NOT NULL DEFAULT 'predefined',
		product_id TEXT NOT NULL DEFAULT '',
		product_data TEXT,
		quantity INTEGER NOT NULL DEFAULT 1,
		added_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_cart_owner ON cart_items(user_email);
	CREATE INDEX IF NOT EXISTS idx_cart_owner_product ON cart_items(user_email, product_id, product_type);

	CREATE TABLE IF NOT EXISTS predefined_products (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		description TEXT,
		container_type_id TEXT,
		price REAL NOT NULL,
		image_url TEXT,
		is_customizable INTEGER NOT NULL DEFAULT 1,
		is_internal INTEGER NOT NULL DEFAULT 0,
		categories TEXT,
		quantity_per_category INTEGER NOT NULL DEFAULT 1,
		initial_stock INTEGER NOT NULL DEFAULT 0,
		current_stock INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL DEFAULT (datetime('now'))
	);
	CREATE INDEX IF NOT EXISTS idx_product_name ON predefined_products(name);

	CREATE TABLE IF NOT EXISTS container_types (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		base_price REAL NOT NULL,
		max_products INTEGER NOT NULL,
		allowed_categories TEXT,
		image_url TEXT
	);

	CREATE TABLE IF NOT EXISTS containers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		container_type_id TEXT NOT NULL,
		price REAL NOT NULL,
		description TEXT,
		image_url TEXT
	);

	CREATE TABLE IF NOT EXISTS container_products (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		container_id INTEGER NOT NULL,
		product_id INTEGER NOT NULL,
		quantity INTEGER NOT NULL DEFAULT 1
	);
	CREATE INDEX IF NOT EXISTS idx_container_products ON container_products(container_id);

	CREATE TABLE IF NOT EXISTS product_categories (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT
	);

	CREATE TABLE IF NOT EXISTS orders (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_email TEXT NOT NULL,
		total_price REAL NOT NULL,
		payment_method TEXT,
		delivery_address TEXT,
		status TEXT NOT NULL DEFAULT 'pending',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_orders_owner ON orders(user_email);

	CREATE TABLE IF NOT EXISTS order_items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		order_id INTEGER NOT NULL,
		product_id TEXT,
		product_name TEXT,
		product_image TEXT,
		product_data TEXT,
		quantity INTEGER NOT NULL DEFAULT 1,
		price REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_order_items ON order_items(order_id);

	CREATE TABLE IF NOT EXISTS favorites (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_email TEXT NOT NULL,
		product_type TEXT NOT NULL DEFAULT 'predefined',
		product_id TEXT NOT NULL DEFAULT '',
		product_data TEXT,
		added_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_favorites_owner ON favorites(user_email);
	`
	_, err := db.Exec(query)
	return err
}
