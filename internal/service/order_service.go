package service

import (
	"context"
	"fmt"

	"stockmart/internal/basket"
	"stockmart/internal/model"
	"stockmart/internal/remote"
	"stockmart/internal/repository"

	"github.com/rs/zerolog"
)

// orderProcessor implements OrderProcessor over the order repository
// and the remote stock facade. Stock is decremented only at pack time;
// the commit itself reserves nothing.
type orderProcessor struct {
	orderRepo repository.OrderRepository
	stock     remote.StockReadWriter
	logger    zerolog.Logger
}

// NewOrderProcessor creates an order processing service.
func NewOrderProcessor(orderRepo repository.OrderRepository, stock remote.StockReadWriter, logger zerolog.Logger) OrderProcessor {
	return &orderProcessor{
		orderRepo: orderRepo,
		stock:     stock,
		logger:    logger.With().Str("service", "order").Logger(),
	}
}

// NewOrder commits a basket. The basket is read here and never mutated
// again by this service; undo after commit operates on the session's
// next pending basket, not on this order.
func (p *orderProcessor) NewOrder(ctx context.Context, b *basket.Basket) (int, error) {
	items := b.Items()
	if len(items) == 0 {
		return 0, fmt.Errorf("cannot commit an empty basket")
	}

	lines := make([]model.OrderLine, len(items))
	for i, item := range items {
		lines[i] = model.OrderLine{
			ProductNo:   item.Number,
			Description: item.Description,
			UnitPrice:   item.UnitPrice,
			Quantity:    item.RequestedQuantity,
		}
	}

	order, err := p.orderRepo.Create(ctx, lines)
	if err != nil {
		p.logger.Error().Err(err).Msg("failed to create order")
		return 0, fmt.Errorf("failed to create order: %w", err)
	}

	b.SetOrderNum(order.ID)

	p.logger.Info().
		Int("order_id", order.ID).
		Int("line_count", len(lines)).
		Msg("basket committed as order")

	return order.ID, nil
}

// MarkPaid transitions NEW -> PAID.
func (p *orderProcessor) MarkPaid(ctx context.Context, orderID int) error {
	if err := p.orderRepo.MarkPaid(ctx, orderID); err != nil {
		p.logger.Warn().Err(err).Int("order_id", orderID).Msg("payment capture rejected")
		return err
	}

	p.logger.Info().Int("order_id", orderID).Msg("order paid")
	return nil
}

// NextUnpacked claims the oldest PAID order via the repository's
// compare-and-set, so two packing sessions can never hold the same
// order.
func (p *orderProcessor) NextUnpacked(ctx context.Context) (*model.Order, error) {
	order, err := p.orderRepo.ClaimNextPaid(ctx)
	if err != nil {
		p.logger.Error().Err(err).Msg("failed to claim next order")
		return nil, err
	}

	if order == nil {
		return nil, nil
	}

	p.logger.Info().Int("order_id", order.ID).Msg("order claimed for packing")
	return order, nil
}

// MarkPacked decrements stock for every line through the facade and
// finalises the order. A failure on any line compensates the decrements
// already applied and reverts the order to PAID, so a partially packed
// order is never observable.
func (p *orderProcessor) MarkPacked(ctx context.Context, orderID int) error {
	order, err := p.orderRepo.Get(ctx, orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return model.ErrOrderNotFound
	}
	if order.State != model.OrderStatePacking && order.State != model.OrderStatePaid {
		return model.NewStockError(model.ErrCodeInvalidOrderState,
			fmt.Sprintf("packing not allowed for order %d in state %s", orderID, order.State))
	}

	var applied []model.OrderLine
	for _, line := range order.Lines {
		if err := p.stock.Buy(ctx, line.ProductNo, line.Quantity); err != nil {
			p.logger.Warn().
				Err(err).
				Int("order_id", orderID).
				Str("product_no", line.ProductNo).
				Int("quantity", line.Quantity).
				Msg("line decrement failed, rolling back")
			p.compensate(ctx, orderID, applied)
			p.revertToPaid(ctx, order)
			return fmt.Errorf("failed to decrement stock for order %d: %w", orderID, err)
		}
		applied = append(applied, line)
	}

	if err := p.orderRepo.MarkPacked(ctx, orderID); err != nil {
		p.logger.Error().Err(err).Int("order_id", orderID).Msg("failed to finalise packed order, rolling back decrements")
		p.compensate(ctx, orderID, applied)
		p.revertToPaid(ctx, order)
		return err
	}

	p.logger.Info().Int("order_id", orderID).Msg("order packed, stock decrements finalised")
	return nil
}

// compensate re-adds stock for lines already decremented during a
// failed pack.
func (p *orderProcessor) compensate(ctx context.Context, orderID int, applied []model.OrderLine) {
	for _, line := range applied {
		if err := p.stock.AddStock(ctx, line.ProductNo, line.Quantity); err != nil {
			// Nothing more can be done in-band; the discrepancy is
			// loud in the logs for back-office reconciliation.
			p.logger.Error().
				Err(err).
				Int("order_id", orderID).
				Str("product_no", line.ProductNo).
				Int("quantity", line.Quantity).
				Msg("compensation failed, stock level needs manual reconciliation")
		}
	}
}

// revertToPaid returns a claimed order to the hand-off queue.
func (p *orderProcessor) revertToPaid(ctx context.Context, order *model.Order) {
	if order.State != model.OrderStatePacking {
		return
	}
	if err := p.orderRepo.ReleaseClaim(ctx, order.ID); err != nil {
		p.logger.Error().Err(err).Int("order_id", order.ID).Msg("failed to release packing claim")
	}
}

// Get retrieves an order for display.
func (p *orderProcessor) Get(ctx context.Context, orderID int) (*model.Order, error) {
	return p.orderRepo.Get(ctx, orderID)
}
