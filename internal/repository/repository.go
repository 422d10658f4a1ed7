package repository

import (
	"context"

	"stockmart/internal/model"
)

// StockRepository defines ledger access for the stock list. All
// mutations are atomic at the statement level; there is no
// cross-operation transaction for callers.
type StockRepository interface {
	// Exists reports whether the product number is in the stock list.
	Exists(ctx context.Context, productNo string) (bool, error)

	// GetDetails retrieves one product with its current stock level.
	GetDetails(ctx context.Context, productNo string) (*model.Product, error)

	// GetImageKey retrieves the image storage key for a product.
	GetImageKey(ctx context.Context, productNo string) (string, error)

	// SearchByName retrieves products whose description contains the
	// term, case-insensitively, in ledger scan order.
	SearchByName(ctx context.Context, term string) ([]model.Product, error)

	// GetLowStockItems retrieves products with stock_level strictly
	// below the threshold.
	GetLowStockItems(ctx context.Context, threshold int) ([]model.Product, error)

	// GetSalesSummary aggregates quantity and revenue per product over
	// packed orders only.
	GetSalesSummary(ctx context.Context) ([]model.SalesSummary, error)

	// Buy decrements stock for a product if and only if enough is on
	// hand, atomically with the check. Fails whole with no partial
	// application.
	Buy(ctx context.Context, productNo string, quantity int) error

	// AddStock increments stock unconditionally (restock).
	AddStock(ctx context.Context, productNo string, quantity int) error
}

// OrderRepository defines persistence for committed orders and their
// lifecycle transitions. State changes are compare-and-set so that
// concurrent sessions in separate processes cannot double-apply a
// transition.
type OrderRepository interface {
	// Create persists a new order in state NEW with its lines in one
	// transaction, assigning the next order number.
	Create(ctx context.Context, lines []model.OrderLine) (*model.Order, error)

	// Get retrieves an order with its lines, or nil if unknown.
	Get(ctx context.Context, id int) (*model.Order, error)

	// MarkPaid transitions NEW -> PAID.
	MarkPaid(ctx context.Context, id int) error

	// ClaimNextPaid atomically claims the oldest PAID order for
	// packing (PAID -> PACKING) and returns it, or nil when the
	// hand-off queue is empty. No two claimers ever receive the same
	// order.
	ClaimNextPaid(ctx context.Context) (*model.Order, error)

	// ReleaseClaim reverts an unfinished claim (PACKING -> PAID).
	ReleaseClaim(ctx context.Context, id int) error

	// MarkPacked transitions PACKING or PAID -> PACKED.
	MarkPacked(ctx context.Context, id int) error
}
