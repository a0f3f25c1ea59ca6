package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// Schema versions:
// v1: collections, artworks, artwork_sizes
// v2: orders, order_items
// v3: cart_snapshots
// v4: orders.cart_cleared_at
var migrations = []string{
	`
	CREATE TABLE IF NOT EXISTS collections (
		id TEXT PRIMARY KEY,
		slug TEXT NOT NULL UNIQUE,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS artworks (
		id TEXT PRIMARY KEY,
		slug TEXT NOT NULL UNIQUE,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		collection_id TEXT REFERENCES collections(id) ON DELETE SET NULL,
		editions_limit INTEGER NOT NULL DEFAULT 0,
		editions_sold INTEGER NOT NULL DEFAULT 0,
		images TEXT NOT NULL DEFAULT '[]',
		published INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_artworks_collection ON artworks(collection_id);
	CREATE TABLE IF NOT EXISTS artwork_sizes (
		artwork_id TEXT NOT NULL REFERENCES artworks(id) ON DELETE CASCADE,
		label TEXT NOT NULL,
		price_cents INTEGER NOT NULL,
		position INTEGER NOT NULL,
		PRIMARY KEY (artwork_id, label)
	);
	`,
	`
	CREATE TABLE IF NOT EXISTS orders (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		payment_session_id TEXT NOT NULL UNIQUE,
		status TEXT NOT NULL,
		currency TEXT NOT NULL,
		subtotal_amount INTEGER NOT NULL,
		total_amount INTEGER NOT NULL,
		customer_email TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS order_items (
		id TEXT PRIMARY KEY,
		order_id TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		artwork_id TEXT NOT NULL,
		size TEXT NOT NULL,
		title TEXT NOT NULL,
		unit_amount INTEGER NOT NULL,
		quantity INTEGER NOT NULL,
		line_total_amount INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_id);
	`,
	`
	CREATE TABLE IF NOT EXISTS cart_snapshots (
		key TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`,
	`
	ALTER TABLE orders ADD COLUMN cart_cleared_at INTEGER;
	`,
}

// CurrentSchemaVersion is the version Migrate brings a database to.
var CurrentSchemaVersion = len(migrations)

// Migrate applies every migration newer than the stored schema version and
// returns the resulting version.
func Migrate(ctx context.Context, db *sql.DB) (int, error) {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`); err != nil {
		return 0, fmt.Errorf("create schema_version: %w", err)
	}

	var version int
	err := db.QueryRowContext(ctx, `SELECT version FROM schema_version LIMIT 1`).Scan(&version)
	switch {
	case err == sql.ErrNoRows:
		if _, err := db.ExecContext(ctx, `INSERT INTO schema_version (version) VALUES (0)`); err != nil {
			return 0, fmt.Errorf("seed schema_version: %w", err)
		}
	case err != nil:
		return 0, fmt.Errorf("read schema_version: %w", err)
	}

	for v := version; v < len(migrations); v++ {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return v, err
		}
		if _, err := tx.ExecContext(ctx, migrations[v]); err != nil {
			tx.Rollback()
			return v, fmt.Errorf("migration v%d: %w", v+1, err)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE schema_version SET version = ?`, v+1); err != nil {
			tx.Rollback()
			return v, fmt.Errorf("bump schema_version to %d: %w", v+1, err)
		}
		if err := tx.Commit(); err != nil {
			return v, err
		}
	}

	return len(migrations), nil
}
