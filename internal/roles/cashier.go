package roles

import (
	"context"
	"fmt"

	"stockmart/internal/basket"
	"stockmart/internal/remote"
	"stockmart/internal/service"

	"github.com/rs/zerolog"
)

// CashierSession drives one checkout: accumulate a basket, optionally
// discount, undo, and finally commit through order processing. The
// basket is owned by this session alone.
//
// Undo works by snapshotting the pending basket before each mutating
// intent and restoring the latest snapshot. A committed basket is out
// of undo's reach; undo then operates on the fresh pending basket.
type CashierSession struct {
	session
	stock  remote.StockReadWriter
	orders service.OrderProcessor

	basket  *basket.Basket
	history []*basket.Basket
}

// NewCashierSession creates a cashier session with an empty basket.
func NewCashierSession(stock remote.StockReadWriter, orders service.OrderProcessor, logger zerolog.Logger) *CashierSession {
	return &CashierSession{
		session: newSession(logger, "cashier"),
		stock:   stock,
		orders:  orders,
		basket:  basket.New(),
	}
}

// Basket exposes the pending basket for display.
func (s *CashierSession) Basket() *basket.Basket {
	return s.basket
}

// DoCheck looks a product up without touching the basket.
func (s *CashierSession) DoCheck(ctx context.Context, productNo string) {
	p, err := s.stock.GetDetails(ctx, productNo)
	if err != nil {
		s.logger.Warn().Err(err).Str("product_no", productNo).Msg("check failed")
		s.emit(s.basket.Details(), checkFailureMessage(productNo, err))
		return
	}

	s.emit(s.basket.Details(), formatProduct(*p))
}

// DoBuy verifies availability and adds the product to the basket. The
// ledger is not decremented here; that happens when the packing role
// fulfils the order.
func (s *CashierSession) DoBuy(ctx context.Context, productNo string, quantity int) {
	p, err := s.stock.GetDetails(ctx, productNo)
	if err != nil {
		s.logger.Warn().Err(err).Str("product_no", productNo).Msg("buy lookup failed")
		s.emit(s.basket.Details(), checkFailureMessage(productNo, err))
		return
	}

	if p.StockLevel < quantity {
		s.emit(s.basket.Details(),
			fmt.Sprintf("Only %d of %s in stock", p.StockLevel, p.Description))
		return
	}

	s.snapshot()
	if err := s.basket.Add(*p, quantity); err != nil {
		s.undoSnapshot()
		s.emit(s.basket.Details(), fmt.Sprintf("Cannot add %s: %v", productNo, err))
		return
	}

	s.emit(s.basket.Details(), fmt.Sprintf("Added %d x %s", quantity, p.Description))
}

// DoRemove takes a product line out of the basket.
func (s *CashierSession) DoRemove(productNo string) {
	s.snapshot()
	s.basket.Remove(productNo)
	s.emit(s.basket.Details(), fmt.Sprintf("Removed %s", productNo))
}

// ApplyDiscount discounts every line in the pending basket.
func (s *CashierSession) ApplyDiscount(fraction float64) {
	s.snapshot()
	if err := s.basket.ApplyDiscount(fraction); err != nil {
		s.undoSnapshot()
		s.emit(s.basket.Details(), fmt.Sprintf("Discount rejected: %v", err))
		return
	}

	s.emit(s.basket.Details(), fmt.Sprintf("Applied %.0f%% discount", fraction*100))
}

// DoUndo restores the basket as it was before the last mutating
// intent, or starts a fresh basket when there is nothing to restore.
func (s *CashierSession) DoUndo() {
	if n := len(s.history); n > 0 {
		s.basket = s.history[n-1]
		s.history = s.history[:n-1]
		s.emit(s.basket.Details(), "Undid last change")
		return
	}

	s.basket = basket.New()
	s.emit(s.basket.Details(), "Started a fresh basket")
}

// DoClear discards the pending basket and its undo history.
func (s *CashierSession) DoClear() {
	s.basket = basket.New()
	s.history = nil
	s.emit(s.basket.Details(), "Basket cleared")
}

// DoBought commits the basket: creates the order, captures payment and
// hands the paid order to the packing queue, then starts a fresh
// basket. The committed basket is immutable from here on.
func (s *CashierSession) DoBought(ctx context.Context) {
	if s.basket.Size() == 0 {
		s.emit(s.basket.Details(), "Nothing to buy")
		return
	}

	orderID, err := s.orders.NewOrder(ctx, s.basket)
	if err != nil {
		s.logger.Error().Err(err).Msg("commit failed")
		s.emit(s.basket.Details(), fmt.Sprintf("Could not place order: %v", err))
		return
	}

	if err := s.orders.MarkPaid(ctx, orderID); err != nil {
		s.logger.Error().Err(err).Int("order_id", orderID).Msg("payment capture failed")
		s.emit(s.basket.Details(), fmt.Sprintf("Order %d placed but payment failed: %v", orderID, err))
		return
	}

	receipt := s.basket.Details()
	s.basket = basket.New()
	s.history = nil

	s.logger.Info().Int("order_id", orderID).Msg("checkout complete")
	s.emit(receipt, fmt.Sprintf("Order %d paid, awaiting packing", orderID))
}

func (s *CashierSession) snapshot() {
	s.history = append(s.history, s.basket.Clone())
}

// undoSnapshot drops the snapshot taken for a mutation that was
// rejected before changing anything.
func (s *CashierSession) undoSnapshot() {
	if n := len(s.history); n > 0 {
		s.history = s.history[:n-1]
	}
}
