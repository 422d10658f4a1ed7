package repository

import (
	"context"
	"errors"
	"fmt"

	"stockmart/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// orderRepository implements OrderRepository using PostgreSQL. Lifecycle
// transitions are single compare-and-set statements, which is what
// keeps concurrent cashier and packing processes consistent without
// any shared memory.
type orderRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrderRepository creates a PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

// Create persists a new order in state NEW with its lines in one
// transaction. The order number comes from the ledger sequence, so
// identities are monotonically increasing across all processes.
func (r *orderRepository) Create(ctx context.Context, lines []model.OrderLine) (*model.Order, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("order must contain at least one line")
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, model.WrapStockError(model.ErrCodeStoreError, "failed to begin transaction", err)
	}
	defer tx.Rollback(ctx)

	order := &model.Order{State: model.OrderStateNew}
	err = tx.QueryRow(ctx,
		`INSERT INTO orders (state) VALUES ($1) RETURNING id, created_at, updated_at`,
		model.OrderStateNew,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to insert order")
		return nil, model.WrapStockError(model.ErrCodeStoreError, "failed to insert order", err)
	}

	batch := &pgx.Batch{}
	for i := range lines {
		lines[i].ID = uuid.New()
		lines[i].OrderID = order.ID
		batch.Queue(
			`INSERT INTO order_items (id, order_id, product_no, description, unit_price, quantity)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			lines[i].ID, lines[i].OrderID, lines[i].ProductNo,
			lines[i].Description, lines[i].UnitPrice, lines[i].Quantity)
	}

	results := tx.SendBatch(ctx, batch)
	for range lines {
		if _, err := results.Exec(); err != nil {
			results.Close()
			r.logger.Error().Err(err).Int("order_id", order.ID).Msg("failed to insert order line")
			return nil, model.WrapStockError(model.ErrCodeStoreError, "failed to insert order line", err)
		}
	}
	if err := results.Close(); err != nil {
		return nil, model.WrapStockError(model.ErrCodeStoreError, "failed to insert order lines", err)
	}

	if err := tx.Commit(ctx); err != nil {
		r.logger.Error().Err(err).Int("order_id", order.ID).Msg("failed to commit order")
		return nil, model.WrapStockError(model.ErrCodeStoreError, "failed to commit order", err)
	}

	order.Lines = lines
	r.logger.Info().Int("order_id", order.ID).Int("line_count", len(lines)).Msg("order created")

	return order, nil
}

// querier is the subset of pool and transaction methods the read path
// needs, so order reads can run inside a claiming transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Get retrieves an order with its lines, or nil if unknown.
func (r *orderRepository) Get(ctx context.Context, id int) (*model.Order, error) {
	return r.get(ctx, r.pool, id)
}

func (r *orderRepository) get(ctx context.Context, q querier, id int) (*model.Order, error) {
	var order model.Order
	err := q.QueryRow(ctx,
		`SELECT id, state, created_at, updated_at FROM orders WHERE id = $1`, id,
	).Scan(&order.ID, &order.State, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Int("order_id", id).Msg("failed to query order")
		return nil, model.WrapStockError(model.ErrCodeStoreError, "failed to query order", err)
	}

	rows, err := q.Query(ctx,
		`SELECT id, order_id, product_no, description, unit_price, quantity
		 FROM order_items WHERE order_id = $1 ORDER BY product_no`, id)
	if err != nil {
		r.logger.Error().Err(err).Int("order_id", id).Msg("failed to query order lines")
		return nil, model.WrapStockError(model.ErrCodeStoreError, "failed to query order lines", err)
	}
	defer rows.Close()

	for rows.Next() {
		var l model.OrderLine
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ProductNo, &l.Description, &l.UnitPrice, &l.Quantity); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order line")
			return nil, model.WrapStockError(model.ErrCodeStoreError, "failed to scan order line", err)
		}
		order.Lines = append(order.Lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, model.WrapStockError(model.ErrCodeStoreError, "error iterating order lines", err)
	}

	return &order, nil
}

// MarkPaid transitions NEW -> PAID.
func (r *orderRepository) MarkPaid(ctx context.Context, id int) error {
	return r.transition(ctx, id, "payment capture",
		[]model.OrderState{model.OrderStateNew}, model.OrderStatePaid)
}

// ReleaseClaim reverts an unfinished packing claim (PACKING -> PAID),
// putting the order back in the hand-off queue.
func (r *orderRepository) ReleaseClaim(ctx context.Context, id int) error {
	return r.transition(ctx, id, "claim release",
		[]model.OrderState{model.OrderStatePacking}, model.OrderStatePaid)
}

// MarkPacked transitions PACKING (claimed) or PAID (direct) -> PACKED.
func (r *orderRepository) MarkPacked(ctx context.Context, id int) error {
	return r.transition(ctx, id, "packing",
		[]model.OrderState{model.OrderStatePacking, model.OrderStatePaid}, model.OrderStatePacked)
}

// transition performs a compare-and-set state change, failing with
// ORDER_NOT_FOUND or INVALID_ORDER_STATE when it cannot apply.
func (r *orderRepository) transition(ctx context.Context, id int, action string, from []model.OrderState, to model.OrderState) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE orders SET state = $2, updated_at = CURRENT_TIMESTAMP
		 WHERE id = $1 AND state = ANY($3)`,
		id, to, statesToStrings(from))
	if err != nil {
		r.logger.Error().Err(err).Int("order_id", id).Str("action", action).Msg("failed to update order state")
		return model.WrapStockError(model.ErrCodeStoreError, "failed to update order state", err)
	}

	if tag.RowsAffected() == 0 {
		var current string
		err := r.pool.QueryRow(ctx, `SELECT state FROM orders WHERE id = $1`, id).Scan(&current)
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ErrOrderNotFound
		}
		if err != nil {
			return model.WrapStockError(model.ErrCodeStoreError, "failed to read order state", err)
		}
		r.logger.Warn().Int("order_id", id).Str("state", current).Str("action", action).Msg("invalid order state transition")
		return model.NewStockError(model.ErrCodeInvalidOrderState,
			fmt.Sprintf("%s not allowed for order %d in state %s", action, id, current))
	}

	r.logger.Debug().Int("order_id", id).Str("state", string(to)).Msg("order state updated")
	return nil
}

// ClaimNextPaid atomically claims the oldest PAID order. SKIP LOCKED
// makes racing claimers pass over a row mid-claim instead of blocking
// on it, so each order is handed to exactly one packer. The claim and
// the line read share one transaction: the caller either receives the
// full order or the claim never happened.
func (r *orderRepository) ClaimNextPaid(ctx context.Context) (*model.Order, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, model.WrapStockError(model.ErrCodeStoreError, "failed to begin transaction", err)
	}
	defer tx.Rollback(ctx)

	var id int
	err = tx.QueryRow(ctx,
		`UPDATE orders SET state = $1, updated_at = CURRENT_TIMESTAMP
		 WHERE id = (
			SELECT id FROM orders
			WHERE state = $2
			ORDER BY id
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		 )
		 RETURNING id`,
		model.OrderStatePacking, model.OrderStatePaid,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Msg("failed to claim next paid order")
		return nil, model.WrapStockError(model.ErrCodeStoreError, "failed to claim next paid order", err)
	}

	order, err := r.get(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		r.logger.Error().Err(err).Int("order_id", id).Msg("failed to commit claim")
		return nil, model.WrapStockError(model.ErrCodeStoreError, "failed to commit claim", err)
	}

	r.logger.Debug().Int("order_id", id).Msg("claimed order for packing")
	return order, nil
}

func statesToStrings(states []model.OrderState) []string {
	out := make([]string, len(states))
	for i, s := range states {
		out[i] = string(s)
	}
	return out
}
