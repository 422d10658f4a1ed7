package roles

import (
	"context"
	"fmt"
	"strings"

	"stockmart/internal/model"
	"stockmart/internal/service"

	"github.com/rs/zerolog"
)

// PackingSession is the warehouse role. It polls the hand-off queue,
// holds at most one claimed order, and finalises it when the packer
// confirms.
type PackingSession struct {
	session
	orders service.OrderProcessor

	current *model.Order
}

// NewPackingSession creates a packing session with no order claimed.
func NewPackingSession(orders service.OrderProcessor, logger zerolog.Logger) *PackingSession {
	return &PackingSession{
		session: newSession(logger, "packing"),
		orders:  orders,
	}
}

// Current returns the claimed order, or nil.
func (s *PackingSession) Current() *model.Order {
	return s.current
}

// Poll claims the next paid order if this session is free. The claim is
// exclusive: no other packing session can receive the same order.
func (s *PackingSession) Poll(ctx context.Context) {
	if s.current != nil {
		s.emit(formatOrder(s.current), fmt.Sprintf("Still packing order %d", s.current.ID))
		return
	}

	order, err := s.orders.NextUnpacked(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("poll failed")
		s.emit("", fmt.Sprintf("Could not fetch next order: %v", err))
		return
	}

	if order == nil {
		s.emit("", "No orders waiting")
		return
	}

	s.current = order
	s.emit(formatOrder(order), fmt.Sprintf("Order %d to pack", order.ID))
}

// DoPacked finalises the held order: stock is decremented line by line
// and the order becomes PACKED. On failure the order returns to the
// queue with no stock change and this session lets go of it.
func (s *PackingSession) DoPacked(ctx context.Context) {
	if s.current == nil {
		s.emit("", "No order claimed")
		return
	}

	orderID := s.current.ID
	if err := s.orders.MarkPacked(ctx, orderID); err != nil {
		s.logger.Warn().Err(err).Int("order_id", orderID).Msg("packing failed")
		s.current = nil
		s.emit("", fmt.Sprintf("Packing order %d failed: %v", orderID, err))
		return
	}

	s.current = nil
	s.emit("", fmt.Sprintf("Order %d packed", orderID))
}

func formatOrder(o *model.Order) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Order number: %03d\n", o.ID)
	for _, l := range o.Lines {
		fmt.Fprintf(&sb, "%-7s %-24s (%3d) %7.2f\n", l.ProductNo, l.Description, l.Quantity, l.UnitPrice)
	}
	fmt.Fprintf(&sb, "Total %.2f\n", o.Total())
	return sb.String()
}
