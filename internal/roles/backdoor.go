package roles

import (
	"context"
	"fmt"

	"stockmart/internal/remote"
	"stockmart/internal/service"

	"github.com/rs/zerolog"
)

// lowStockThreshold is what the back office considers "running out".
const lowStockThreshold = 5

// BackDoorSession is the back-office role: restocking and reporting.
type BackDoorSession struct {
	session
	stock    remote.StockReadWriter
	reporter service.Reporter
}

// NewBackDoorSession creates a back-office session.
func NewBackDoorSession(stock remote.StockReadWriter, reporter service.Reporter, logger zerolog.Logger) *BackDoorSession {
	return &BackDoorSession{
		session:  newSession(logger, "backdoor"),
		stock:    stock,
		reporter: reporter,
	}
}

// DoQuery shows a product's current ledger state.
func (s *BackDoorSession) DoQuery(ctx context.Context, productNo string) {
	p, err := s.stock.GetDetails(ctx, productNo)
	if err != nil {
		s.logger.Warn().Err(err).Str("product_no", productNo).Msg("query failed")
		s.emit("", checkFailureMessage(productNo, err))
		return
	}

	s.emit(formatProduct(*p), "")
}

// DoRStock adds stock for a product.
func (s *BackDoorSession) DoRStock(ctx context.Context, productNo string, quantity int) {
	if err := s.stock.AddStock(ctx, productNo, quantity); err != nil {
		s.logger.Warn().Err(err).Str("product_no", productNo).Int("quantity", quantity).Msg("restock failed")
		s.emit("", fmt.Sprintf("Restock failed: %v", err))
		return
	}

	p, err := s.stock.GetDetails(ctx, productNo)
	if err != nil {
		s.emit("", fmt.Sprintf("Restocked %s by %d", productNo, quantity))
		return
	}

	s.emit(formatProduct(*p), fmt.Sprintf("Restocked %s by %d", p.Description, quantity))
}

// CheckLowStock reports products running out.
func (s *BackDoorSession) CheckLowStock(ctx context.Context) {
	report, err := s.reporter.LowStockReport(ctx, lowStockThreshold)
	if err != nil {
		s.logger.Error().Err(err).Msg("low stock report failed")
		s.emit("", fmt.Sprintf("Error checking low stock items: %v", err))
		return
	}

	s.emit(report, "")
}

// GenerateSalesReport summarises revenue over packed orders.
func (s *BackDoorSession) GenerateSalesReport(ctx context.Context) {
	report, err := s.reporter.SalesReport(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("sales report failed")
		s.emit("", fmt.Sprintf("Error generating sales report: %v", err))
		return
	}

	s.emit(report, "")
}

// DoClear resets the display.
func (s *BackDoorSession) DoClear() {
	s.emit("", "")
}
