package service

import (
	"context"

	"stockmart/internal/basket"
	"stockmart/internal/model"
)

// OrderProcessor owns the order lifecycle from commit to packed. It is
// the hand-off point between the cashier role (commit, payment) and the
// packing role (claim, fulfil).
type OrderProcessor interface {
	// NewOrder commits a basket: assigns the next order number, stores
	// the order in state NEW and stamps the number back on the basket.
	NewOrder(ctx context.Context, b *basket.Basket) (int, error)

	// MarkPaid transitions NEW -> PAID on payment capture.
	MarkPaid(ctx context.Context, orderID int) error

	// NextUnpacked claims the oldest PAID order for the calling
	// packing session, or returns nil when the queue is empty. Each
	// order is handed to exactly one packer.
	NextUnpacked(ctx context.Context) (*model.Order, error)

	// MarkPacked finalises fulfilment: decrements stock for every line
	// and transitions to PACKED. If any single line's decrement fails
	// the whole operation rolls back to PAID with no stock change.
	MarkPacked(ctx context.Context, orderID int) error

	// Get retrieves an order for display, or nil if unknown.
	Get(ctx context.Context, orderID int) (*model.Order, error)
}

// Reporter provides the read-only reporting queries used by the
// back-office role, formatted for display.
type Reporter interface {
	// LowStockReport lists products with stock strictly below the
	// threshold, one line per product.
	LowStockReport(ctx context.Context, threshold int) (string, error)

	// SalesReport summarises quantity sold and revenue per product
	// over packed orders.
	SalesReport(ctx context.Context) (string, error)
}
