package service

import (
	"context"
	"fmt"
	"strings"

	"stockmart/internal/remote"

	"github.com/rs/zerolog"
)

// reporter implements Reporter over the read side of the stock facade.
// Pure queries; an I/O failure is an error, zero results is a valid
// empty report.
type reporter struct {
	stock  remote.StockReader
	logger zerolog.Logger
}

// NewReporter creates a reporting service.
func NewReporter(stock remote.StockReader, logger zerolog.Logger) Reporter {
	return &reporter{
		stock:  stock,
		logger: logger.With().Str("service", "report").Logger(),
	}
}

// LowStockReport lists products with stock strictly below the
// threshold.
func (r *reporter) LowStockReport(ctx context.Context, threshold int) (string, error) {
	products, err := r.stock.GetLowStockItems(ctx, threshold)
	if err != nil {
		r.logger.Error().Err(err).Int("threshold", threshold).Msg("failed to fetch low stock items")
		return "", fmt.Errorf("failed to fetch low stock items: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("Low Stock Products:\n")
	if len(products) == 0 {
		sb.WriteString("(none)\n")
	}
	for _, p := range products {
		fmt.Fprintf(&sb, "%s : %5.2f (%d)\n", p.Description, p.Price, p.StockLevel)
	}

	return sb.String(), nil
}

// SalesReport summarises quantity sold and revenue per product over
// packed orders.
func (r *reporter) SalesReport(ctx context.Context) (string, error) {
	summaries, err := r.stock.GetSalesSummary(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to fetch sales summary")
		return "", fmt.Errorf("failed to fetch sales summary: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("Sales Summary:\n")
	if len(summaries) == 0 {
		sb.WriteString("(no packed orders)\n")
	}
	for _, s := range summaries {
		fmt.Fprintf(&sb, "%s (%s): %d sold, %.2f revenue\n",
			s.Description, s.ProductNo, s.TotalQuantity, s.TotalRevenue)
	}

	return sb.String(), nil
}
