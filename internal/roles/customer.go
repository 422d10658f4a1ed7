package roles

import (
	"context"
	"fmt"
	"strings"

	"stockmart/internal/model"
	"stockmart/internal/remote"

	"github.com/rs/zerolog"
)

// CustomerSession is the read-only search-and-check role. It never
// mutates the ledger.
type CustomerSession struct {
	session
	stock remote.StockReader
}

// NewCustomerSession creates a customer session over the read side of
// the stock facade.
func NewCustomerSession(stock remote.StockReader, logger zerolog.Logger) *CustomerSession {
	return &CustomerSession{
		session: newSession(logger, "customer"),
		stock:   stock,
	}
}

// DoCheck looks up one product and reports its availability.
func (s *CustomerSession) DoCheck(ctx context.Context, productNo string) {
	p, err := s.stock.GetDetails(ctx, productNo)
	if err != nil {
		s.logger.Warn().Err(err).Str("product_no", productNo).Msg("check failed")
		s.emit("", checkFailureMessage(productNo, err))
		return
	}

	s.emit(formatProduct(*p), fmt.Sprintf("Found %s", p.Description))
}

// DoSearchByName lists products matching the term.
func (s *CustomerSession) DoSearchByName(ctx context.Context, term string) {
	products, err := s.stock.SearchByName(ctx, term)
	if err != nil {
		s.logger.Warn().Err(err).Str("term", term).Msg("search failed")
		s.emit("", fmt.Sprintf("Search failed: %v", err))
		return
	}

	if len(products) == 0 {
		s.emit("", fmt.Sprintf("No products match %q", term))
		return
	}

	var sb strings.Builder
	for _, p := range products {
		sb.WriteString(formatProduct(p))
	}
	s.emit(sb.String(), fmt.Sprintf("%d product(s) match %q", len(products), term))
}

// DoClear resets the display.
func (s *CustomerSession) DoClear() {
	s.emit("", "")
}

func formatProduct(p model.Product) string {
	return fmt.Sprintf("%s %s (%.2f) stock %d\n", p.Number, p.Description, p.Price, p.StockLevel)
}

func checkFailureMessage(productNo string, err error) string {
	switch model.StockErrorCode(err) {
	case model.ErrCodeUnknownProduct:
		return fmt.Sprintf("Unknown product number %s", productNo)
	case model.ErrCodeCommFailure:
		return "Stock service unavailable, please retry"
	default:
		return fmt.Sprintf("Check failed: %v", err)
	}
}
