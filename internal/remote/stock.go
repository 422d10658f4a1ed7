package remote

import (
	"context"

	"stockmart/internal/model"
)

// StockReader is the read-side contract of the remote stock facade.
// Every call may block on network and database I/O; callers wanting a
// deadline wrap the context themselves.
type StockReader interface {
	// Exists checks if the product is in the stock list.
	Exists(ctx context.Context, productNo string) (bool, error)

	// GetDetails returns the product with its current stock level.
	GetDetails(ctx context.Context, productNo string) (*model.Product, error)

	// GetImage returns the raw image bytes for the product.
	GetImage(ctx context.Context, productNo string) ([]byte, error)

	// SearchByName returns products whose description contains the
	// term, case-insensitively.
	SearchByName(ctx context.Context, term string) ([]model.Product, error)

	// GetLowStockItems returns products with stock strictly below the
	// threshold.
	GetLowStockItems(ctx context.Context, threshold int) ([]model.Product, error)

	// GetSalesSummary returns the per-product sales rollup over packed
	// orders.
	GetSalesSummary(ctx context.Context) ([]model.SalesSummary, error)
}

// StockReadWriter extends StockReader with stock mutation. Buy is
// atomic with its availability check; a check followed later by a buy
// is not atomic as a pair.
type StockReadWriter interface {
	StockReader

	// Buy decrements stock iff enough is on hand; otherwise nothing is
	// applied and a StockError is returned.
	Buy(ctx context.Context, productNo string, quantity int) error

	// AddStock increments stock unconditionally (restock).
	AddStock(ctx context.Context, productNo string, quantity int) error
}

// Wire types shared by the client facade and the middle-tier service.

type existsResponse struct {
	Exists bool `json:"exists"`
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
