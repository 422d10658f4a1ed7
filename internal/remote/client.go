package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"

	"stockmart/internal/model"

	"github.com/rs/zerolog"
)

// Facade is the client-side proxy to the stock service. It holds a
// lazily-established handle: the first call connects, and any detected
// communication failure discards the handle and surfaces a COMM_FAILURE
// StockError for that one call. The next call reconnects from scratch.
// No retry, no backoff, no queueing; the caller decides whether to try
// again.
//
// A Facade is safe for concurrent use by multiple sessions. It holds no
// cross-call state besides the handle; serialization of per-item
// mutation happens in the stock service's database.
type Facade struct {
	url    string
	logger zerolog.Logger

	mu   sync.Mutex
	conn *http.Client // nil while disconnected
}

var _ StockReadWriter = (*Facade)(nil)

// NewFacade creates a facade for the stock service at the given base
// URL. No connection is made until the first call.
func NewFacade(url string, logger zerolog.Logger) *Facade {
	return &Facade{
		url:    url,
		logger: logger.With().Str("component", "stock-facade").Logger(),
	}
}

// handle returns the current connection, establishing one if needed.
// Connecting performs a health handshake so a bad address fails the
// calling operation rather than the first real request.
func (f *Facade) handle(ctx context.Context) (*http.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.conn != nil {
		return f.conn, nil
	}

	f.logger.Debug().Str("url", f.url).Msg("connecting to stock service")

	client := &http.Client{}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url+"/health", nil)
	if err != nil {
		return nil, model.CommError("invalid stock service URL", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		f.logger.Warn().Err(err).Str("url", f.url).Msg("stock service unreachable")
		return nil, model.CommError("stock service unreachable", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, model.CommError(
			fmt.Sprintf("stock service handshake returned status %d", resp.StatusCode), nil)
	}

	f.conn = client
	f.logger.Debug().Str("url", f.url).Msg("connected to stock service")
	return f.conn, nil
}

// drop discards the handle after a communication failure.
func (f *Facade) drop() {
	f.mu.Lock()
	f.conn = nil
	f.mu.Unlock()
}

// do performs one remote call and decodes a JSON response into out
// (when out is non-nil). Transport failures drop the handle; decoded
// business errors do not.
func (f *Facade) do(ctx context.Context, method, path string, body, out any) error {
	client, err := f.handle(ctx)
	if err != nil {
		return err
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, f.url+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		f.drop()
		f.logger.Warn().Err(err).Str("path", path).Msg("remote call failed, handle dropped")
		return model.CommError("remote stock call failed", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		f.drop()
		return model.CommError("remote stock response truncated", err)
	}

	if resp.StatusCode >= 400 {
		return decodeError(resp.StatusCode, data)
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return model.WrapStockError(model.ErrCodeStoreError, "malformed stock service response", err)
		}
	}
	return nil
}

// getBytes performs a GET returning the raw response body.
func (f *Facade) getBytes(ctx context.Context, path string) ([]byte, error) {
	client, err := f.handle(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		f.drop()
		f.logger.Warn().Err(err).Str("path", path).Msg("remote call failed, handle dropped")
		return nil, model.CommError("remote stock call failed", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		f.drop()
		return nil, model.CommError("remote stock response truncated", err)
	}

	if resp.StatusCode >= 400 {
		return nil, decodeError(resp.StatusCode, data)
	}
	return data, nil
}

// decodeError turns an error body into the StockError the server
// raised. The operation was not applied either way.
func decodeError(status int, data []byte) error {
	var er errorResponse
	if err := json.Unmarshal(data, &er); err != nil || er.Code == "" {
		return model.NewStockError(model.ErrCodeStoreError,
			fmt.Sprintf("stock service returned status %d", status))
	}
	return model.NewStockError(er.Code, er.Message)
}

// Exists checks if the product is in the stock list.
func (f *Facade) Exists(ctx context.Context, productNo string) (bool, error) {
	var resp existsResponse
	if err := f.do(ctx, http.MethodGet, "/stock/"+productNo+"/exists", nil, &resp); err != nil {
		return false, err
	}
	return resp.Exists, nil
}

// GetDetails returns the product with its current stock level.
func (f *Facade) GetDetails(ctx context.Context, productNo string) (*model.Product, error) {
	var p model.Product
	if err := f.do(ctx, http.MethodGet, "/stock/"+productNo, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetImage returns the raw image bytes for the product.
func (f *Facade) GetImage(ctx context.Context, productNo string) ([]byte, error) {
	return f.getBytes(ctx, "/stock/"+productNo+"/image")
}

// SearchByName returns products whose description contains the term.
func (f *Facade) SearchByName(ctx context.Context, term string) ([]model.Product, error) {
	var products []model.Product
	if err := f.do(ctx, http.MethodGet, "/stock/search?term="+url.QueryEscape(term), nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// GetLowStockItems returns products with stock strictly below the
// threshold.
func (f *Facade) GetLowStockItems(ctx context.Context, threshold int) ([]model.Product, error) {
	var products []model.Product
	path := fmt.Sprintf("/stock/low?threshold=%d", threshold)
	if err := f.do(ctx, http.MethodGet, path, nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// GetSalesSummary returns the per-product sales rollup over packed
// orders.
func (f *Facade) GetSalesSummary(ctx context.Context) ([]model.SalesSummary, error) {
	var summaries []model.SalesSummary
	if err := f.do(ctx, http.MethodGet, "/sales/summary", nil, &summaries); err != nil {
		return nil, err
	}
	return summaries, nil
}

// Buy decrements stock iff enough is on hand.
func (f *Facade) Buy(ctx context.Context, productNo string, quantity int) error {
	return f.do(ctx, http.MethodPost, "/stock/"+productNo+"/buy", quantityRequest{Quantity: quantity}, nil)
}

// AddStock increments stock unconditionally.
func (f *Facade) AddStock(ctx context.Context, productNo string, quantity int) error {
	return f.do(ctx, http.MethodPost, "/stock/"+productNo+"/restock", quantityRequest{Quantity: quantity}, nil)
}
