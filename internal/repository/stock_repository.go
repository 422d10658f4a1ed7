package repository

import (
	"context"
	"errors"
	"fmt"

	"stockmart/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// stockRepository implements StockRepository using PostgreSQL.
type stockRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewStockRepository creates a PostgreSQL-backed stock repository.
func NewStockRepository(pool *pgxpool.Pool, logger zerolog.Logger) StockRepository {
	return &stockRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "stock").Logger(),
	}
}

const productColumns = `p.product_no, p.description, p.price, s.stock_level`

// Exists reports whether the product number is in the stock list.
func (r *stockRepository) Exists(ctx context.Context, productNo string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM products WHERE product_no = $1)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, productNo).Scan(&exists); err != nil {
		r.logger.Error().Err(err).Str("product_no", productNo).Msg("failed to check product existence")
		return false, model.WrapStockError(model.ErrCodeStoreError, "failed to check product existence", err)
	}

	return exists, nil
}

// GetDetails retrieves one product with its current stock level.
func (r *stockRepository) GetDetails(ctx context.Context, productNo string) (*model.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products p
		JOIN stock s ON p.product_no = s.product_no
		WHERE p.product_no = $1
	`

	var p model.Product
	err := r.pool.QueryRow(ctx, query, productNo).Scan(&p.Number, &p.Description, &p.Price, &p.StockLevel)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("product_no", productNo).Msg("product not found")
			return nil, model.ErrUnknownProduct
		}
		r.logger.Error().Err(err).Str("product_no", productNo).Msg("failed to query product")
		return nil, model.WrapStockError(model.ErrCodeStoreError, "failed to query product", err)
	}

	return &p, nil
}

// GetImageKey retrieves the image storage key for a product.
func (r *stockRepository) GetImageKey(ctx context.Context, productNo string) (string, error) {
	query := `SELECT image_key FROM products WHERE product_no = $1`

	var key string
	err := r.pool.QueryRow(ctx, query, productNo).Scan(&key)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", model.ErrUnknownProduct
		}
		r.logger.Error().Err(err).Str("product_no", productNo).Msg("failed to query image key")
		return "", model.WrapStockError(model.ErrCodeStoreError, "failed to query image key", err)
	}

	return key, nil
}

// SearchByName retrieves products whose description contains the term,
// case-insensitively, in ledger scan order (product number).
func (r *stockRepository) SearchByName(ctx context.Context, term string) ([]model.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products p
		JOIN stock s ON p.product_no = s.product_no
		WHERE p.description ILIKE '%' || $1 || '%'
		ORDER BY p.product_no
	`

	return r.queryProducts(ctx, query, term)
}

// GetLowStockItems retrieves products with stock_level strictly below
// the threshold.
func (r *stockRepository) GetLowStockItems(ctx context.Context, threshold int) ([]model.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products p
		JOIN stock s ON p.product_no = s.product_no
		WHERE s.stock_level < $1
		ORDER BY p.product_no
	`

	return r.queryProducts(ctx, query, threshold)
}

// queryProducts runs a product-list query and scans the rows.
func (r *stockRepository) queryProducts(ctx context.Context, query string, args ...any) ([]model.Product, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query products")
		return nil, model.WrapStockError(model.ErrCodeStoreError, "failed to query products", err)
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.Number, &p.Description, &p.Price, &p.StockLevel); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan product row")
			return nil, model.WrapStockError(model.ErrCodeStoreError, "failed to scan product", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating product rows")
		return nil, model.WrapStockError(model.ErrCodeStoreError, "error iterating products", err)
	}

	return products, nil
}

// GetSalesSummary aggregates quantity sold and revenue per product
// across packed orders only, so unpaid and unpacked orders never count
// toward revenue.
func (r *stockRepository) GetSalesSummary(ctx context.Context) ([]model.SalesSummary, error) {
	query := `
		SELECT li.product_no,
		       li.description,
		       SUM(li.quantity)::int,
		       SUM(li.unit_price * li.quantity)::float8
		FROM order_items li
		JOIN orders o ON o.id = li.order_id
		WHERE o.state = 'PACKED'
		GROUP BY li.product_no, li.description
		ORDER BY li.product_no
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query sales summary")
		return nil, model.WrapStockError(model.ErrCodeStoreError, "failed to query sales summary", err)
	}
	defer rows.Close()

	var summaries []model.SalesSummary
	for rows.Next() {
		var s model.SalesSummary
		if err := rows.Scan(&s.ProductNo, &s.Description, &s.TotalQuantity, &s.TotalRevenue); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan sales summary row")
			return nil, model.WrapStockError(model.ErrCodeStoreError, "failed to scan sales summary", err)
		}
		summaries = append(summaries, s)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating sales summary rows")
		return nil, model.WrapStockError(model.ErrCodeStoreError, "error iterating sales summary", err)
	}

	return summaries, nil
}

// Buy decrements stock atomically with the availability check; the
// WHERE clause is the check, so no racing caller can observe a
// check-then-decrement gap.
func (r *stockRepository) Buy(ctx context.Context, productNo string, quantity int) error {
	if quantity <= 0 {
		return model.ErrInvalidQuantity
	}

	query := `
		UPDATE stock
		SET stock_level = stock_level - $2
		WHERE product_no = $1 AND stock_level >= $2
	`

	tag, err := r.pool.Exec(ctx, query, productNo, quantity)
	if err != nil {
		r.logger.Error().Err(err).Str("product_no", productNo).Int("quantity", quantity).Msg("failed to decrement stock")
		return model.WrapStockError(model.ErrCodeStoreError, "failed to decrement stock", err)
	}

	if tag.RowsAffected() == 0 {
		exists, err := r.Exists(ctx, productNo)
		if err != nil {
			return err
		}
		if !exists {
			return model.ErrUnknownProduct
		}
		r.logger.Warn().Str("product_no", productNo).Int("quantity", quantity).Msg("insufficient stock for buy")
		return model.ErrInsufficientStock
	}

	r.logger.Debug().Str("product_no", productNo).Int("quantity", quantity).Msg("stock decremented")
	return nil
}

// AddStock increments stock unconditionally.
func (r *stockRepository) AddStock(ctx context.Context, productNo string, quantity int) error {
	if quantity <= 0 {
		return model.ErrInvalidQuantity
	}

	query := `
		UPDATE stock
		SET stock_level = stock_level + $2
		WHERE product_no = $1
	`

	tag, err := r.pool.Exec(ctx, query, productNo, quantity)
	if err != nil {
		r.logger.Error().Err(err).Str("product_no", productNo).Int("quantity", quantity).Msg("failed to increment stock")
		return model.WrapStockError(model.ErrCodeStoreError, "failed to increment stock", err)
	}

	if tag.RowsAffected() == 0 {
		return model.ErrUnknownProduct
	}

	r.logger.Debug().Str("product_no", productNo).Int("quantity", quantity).Msg("stock incremented")
	return nil
}

// InsertProduct adds a product with an initial stock level. Used by the
// seeding script and tests.
func InsertProduct(ctx context.Context, pool *pgxpool.Pool, p model.Product, imageKey string) error {
	_, err := pool.Exec(ctx,
		`INSERT INTO products (product_no, description, price, image_key) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (product_no) DO NOTHING`,
		p.Number, p.Description, p.Price, imageKey)
	if err != nil {
		return fmt.Errorf("failed to insert product %s: %w", p.Number, err)
	}

	_, err = pool.Exec(ctx,
		`INSERT INTO stock (product_no, stock_level) VALUES ($1, $2)
		 ON CONFLICT (product_no) DO NOTHING`,
		p.Number, p.StockLevel)
	if err != nil {
		return fmt.Errorf("failed to insert stock for %s: %w", p.Number, err)
	}

	return nil
}
