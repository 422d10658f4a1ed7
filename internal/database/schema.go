package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema is the stock ledger DDL: a product table joined to a stock
// table, plus order history for reporting. stock_level is constrained
// non-negative so a racing decrement can never drive it below zero.
const Schema = `
	CREATE SEQUENCE IF NOT EXISTS order_no_seq START 1;

	CREATE TABLE IF NOT EXISTS products (
		product_no  VARCHAR(20) PRIMARY KEY,
		description VARCHAR(255) NOT NULL,
		price       DECIMAL(10, 2) NOT NULL CHECK (price >= 0),
		image_key   VARCHAR(255) NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS stock (
		product_no  VARCHAR(20) PRIMARY KEY REFERENCES products(product_no),
		stock_level INTEGER NOT NULL CHECK (stock_level >= 0)
	);

	CREATE TABLE IF NOT EXISTS orders (
		id         BIGINT PRIMARY KEY DEFAULT nextval('order_no_seq'),
		state      VARCHAR(10) NOT NULL DEFAULT 'NEW',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS order_items (
		id          UUID PRIMARY KEY,
		order_id    BIGINT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		product_no  VARCHAR(20) NOT NULL REFERENCES products(product_no),
		description VARCHAR(255) NOT NULL,
		unit_price  DECIMAL(10, 2) NOT NULL,
		quantity    INTEGER NOT NULL CHECK (quantity > 0)
	);

	CREATE INDEX IF NOT EXISTS idx_orders_state ON orders(state);
	CREATE INDEX IF NOT EXISTS idx_order_items_order_id ON order_items(order_id);
	CREATE INDEX IF NOT EXISTS idx_order_items_product_no ON order_items(product_no);
`

// EnsureSchema applies the ledger schema. Used by the seeding script
// and by tests; production deployments may manage DDL externally.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to apply ledger schema: %w", err)
	}
	return nil
}
