package remote

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"stockmart/internal/image"
	"stockmart/internal/middleware"
	"stockmart/internal/model"
	"stockmart/internal/repository"

	"github.com/rs/zerolog"
)

// StockServer is the middle-tier stock service. It exposes the ledger
// operations the facade calls over HTTP/JSON; per-item mutation is
// serialized by the database underneath, not by this server.
type StockServer struct {
	repo   repository.StockRepository
	images image.Loader
	logger zerolog.Logger
}

// NewStockServer creates a stock server over the given repository and
// image loader.
func NewStockServer(repo repository.StockRepository, images image.Loader, logger zerolog.Logger) *StockServer {
	return &StockServer{
		repo:   repo,
		images: images,
		logger: logger.With().Str("component", "stock-server").Logger(),
	}
}

// Handler builds the route table with the middleware chain applied.
func (s *StockServer) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	mux.HandleFunc("GET /stock/low", s.handleLowStock)
	mux.HandleFunc("GET /stock/search", s.handleSearch)
	mux.HandleFunc("GET /stock/{number}", s.handleDetails)
	mux.HandleFunc("GET /stock/{number}/exists", s.handleExists)
	mux.HandleFunc("GET /stock/{number}/image", s.handleImage)
	mux.HandleFunc("POST /stock/{number}/buy", s.handleBuy)
	mux.HandleFunc("POST /stock/{number}/restock", s.handleRestock)
	mux.HandleFunc("GET /sales/summary", s.handleSalesSummary)

	var handler http.Handler = mux
	handler = middleware.RequestID(handler)
	handler = middleware.Logging(s.logger)(handler)
	handler = middleware.Recovery(s.logger)(handler)

	return handler
}

func (s *StockServer) handleExists(w http.ResponseWriter, r *http.Request) {
	exists, err := s.repo.Exists(r.Context(), r.PathValue("number"))
	if err != nil {
		s.writeStockError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, existsResponse{Exists: exists})
}

func (s *StockServer) handleDetails(w http.ResponseWriter, r *http.Request) {
	product, err := s.repo.GetDetails(r.Context(), r.PathValue("number"))
	if err != nil {
		s.writeStockError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, product)
}

func (s *StockServer) handleImage(w http.ResponseWriter, r *http.Request) {
	number := r.PathValue("number")

	key, err := s.repo.GetImageKey(r.Context(), number)
	if err != nil {
		s.writeStockError(w, err)
		return
	}

	data, err := s.images.Load(r.Context(), key)
	if err != nil {
		s.logger.Error().Err(err).Str("product_no", number).Str("key", key).Msg("failed to load product image")
		s.writeStockError(w, model.WrapStockError(model.ErrCodeStoreError, "failed to load product image", err))
		return
	}

	w.Header().Set("Content-Type", http.DetectContentType(data))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (s *StockServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("term")
	if term == "" {
		s.writeError(w, http.StatusBadRequest, model.ErrCodeInvalidRequest, "search term is required")
		return
	}

	products, err := s.repo.SearchByName(r.Context(), term)
	if err != nil {
		s.writeStockError(w, err)
		return
	}

	if products == nil {
		products = []model.Product{}
	}
	s.writeJSON(w, http.StatusOK, products)
}

func (s *StockServer) handleLowStock(w http.ResponseWriter, r *http.Request) {
	threshold, err := strconv.Atoi(r.URL.Query().Get("threshold"))
	if err != nil || threshold < 0 {
		s.writeError(w, http.StatusBadRequest, model.ErrCodeInvalidRequest, "invalid threshold parameter")
		return
	}

	products, err := s.repo.GetLowStockItems(r.Context(), threshold)
	if err != nil {
		s.writeStockError(w, err)
		return
	}

	if products == nil {
		products = []model.Product{}
	}
	s.writeJSON(w, http.StatusOK, products)
}

func (s *StockServer) handleSalesSummary(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.repo.GetSalesSummary(r.Context())
	if err != nil {
		s.writeStockError(w, err)
		return
	}

	if summaries == nil {
		summaries = []model.SalesSummary{}
	}
	s.writeJSON(w, http.StatusOK, summaries)
}

func (s *StockServer) handleBuy(w http.ResponseWriter, r *http.Request) {
	number, quantity, ok := s.decodeQuantity(w, r)
	if !ok {
		return
	}

	if err := s.repo.Buy(r.Context(), number, quantity); err != nil {
		s.writeStockError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *StockServer) handleRestock(w http.ResponseWriter, r *http.Request) {
	number, quantity, ok := s.decodeQuantity(w, r)
	if !ok {
		return
	}

	if err := s.repo.AddStock(r.Context(), number, quantity); err != nil {
		s.writeStockError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *StockServer) decodeQuantity(w http.ResponseWriter, r *http.Request) (string, int, bool) {
	var req quantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, model.ErrCodeInvalidQuantity, "invalid request body")
		return "", 0, false
	}
	if req.Quantity <= 0 {
		s.writeError(w, http.StatusBadRequest, model.ErrCodeInvalidQuantity, "quantity must be greater than zero")
		return "", 0, false
	}
	return r.PathValue("number"), req.Quantity, true
}

// writeJSON writes a JSON response with the given status code.
func (s *StockServer) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error().Err(err).Msg("failed to encode response")
	}
}

// writeError writes an error body carrying a stock error code.
func (s *StockServer) writeError(w http.ResponseWriter, status int, code, message string) {
	s.writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// writeStockError maps a StockError to an HTTP status and error body.
func (s *StockServer) writeStockError(w http.ResponseWriter, err error) {
	var se *model.StockError
	if !errors.As(err, &se) {
		s.logger.Error().Err(err).Msg("handler error")
		s.writeError(w, http.StatusInternalServerError, model.ErrCodeStoreError, "internal server error")
		return
	}

	status := http.StatusInternalServerError
	switch se.Code {
	case model.ErrCodeUnknownProduct, model.ErrCodeOrderNotFound:
		status = http.StatusNotFound
	case model.ErrCodeInsufficientStock:
		status = http.StatusConflict
	case model.ErrCodeInvalidQuantity, model.ErrCodeInvalidRequest, model.ErrCodeInvalidDiscount, model.ErrCodeInvalidOrderState:
		status = http.StatusBadRequest
	}

	s.writeError(w, status, se.Code, se.Message)
}
