package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS products (
		product_id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		price NUMERIC(12,2) NOT NULL DEFAULT 0,
		unit_cost NUMERIC(12,2) NOT NULL DEFAULT 0,
		min_replenish_time INTEGER NOT NULL DEFAULT 0 CHECK (min_replenish_time >= 0),
		base_safety_stock DOUBLE PRECISION NOT NULL DEFAULT 0,
		supplier_category_reliability DOUBLE PRECISION NOT NULL DEFAULT 1
	)`,
	`CREATE TABLE IF NOT EXISTS stores (
		store_id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		region TEXT NOT NULL DEFAULT '',
		latitude DOUBLE PRECISION NOT NULL DEFAULT 0,
		longitude DOUBLE PRECISION NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS inventory (
		store_id TEXT NOT NULL,
		product_id TEXT NOT NULL,
		current_stock BIGINT NOT NULL CHECK (current_stock >= 0),
		daily_sales_baseline DOUBLE PRECISION NOT NULL DEFAULT 0,
		last_updated TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (store_id, product_id)
	)`,
	`CREATE TABLE IF NOT EXISTS inventory_deltas (
		idempotency_key TEXT PRIMARY KEY,
		store_id TEXT NOT NULL,
		product_id TEXT NOT NULL,
		quantity BIGINT NOT NULL,
		result_stock BIGINT,
		result_baseline DOUBLE PRECISION,
		result_updated TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS transfer_history (
		source_store_id TEXT NOT NULL,
		target_store_id TEXT NOT NULL,
		product_id TEXT NOT NULL DEFAULT '',
		transfers INTEGER NOT NULL DEFAULT 0,
		resolved INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (source_store_id, target_store_id, product_id)
	)`,
}

// EnsureSchema creates missing tables. It is safe to run repeatedly.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "ensure schema")
		}
	}
	return nil
}
