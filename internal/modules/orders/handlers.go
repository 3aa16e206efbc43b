package orders

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/AXAStudio/oscillo/internal/auth"
	"github.com/AXAStudio/oscillo/internal/modules/portfolio"
)

// Handlers contains HTTP handlers for the orders API
type Handlers struct {
	service *Service
	log     zerolog.Logger
}

// NewHandlers creates a new order handlers instance
func NewHandlers(service *Service, log zerolog.Logger) *Handlers {
	return &Handlers{
		service: service,
		log:     log.With().Str("handler", "orders").Logger(),
	}
}

// RegisterRoutes registers all order routes
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Route("/portfolios/{portfolioID}/orders", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Post("/", h.HandleCreate)
	})
}

// HandleList returns the portfolio's orders, newest first
// GET /api/1.0/portfolios/{portfolioID}/orders
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.List(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "portfolioID"))
	if err != nil {
		h.handleServiceError(w, err, "Failed to list orders")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"orders": orders,
	})
}

// HandleCreate records an order
// POST /api/1.0/portfolios/{portfolioID}/orders
func (h *Handlers) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	order, err := h.service.Create(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "portfolioID"), req)
	if err != nil {
		if isValidationError(err) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.handleServiceError(w, err, "Failed to create order")
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"status": "success",
		"order":  order,
	})
}

func isValidationError(err error) bool {
	return errors.Is(err, ErrMissingTicker) ||
		errors.Is(err, ErrZeroQuantity) ||
		errors.Is(err, ErrNegativePrice) ||
		errors.Is(err, ErrInsufficientShares) ||
		errors.Is(err, ErrInsufficientCash)
}

func (h *Handlers) handleServiceError(w http.ResponseWriter, err error, message string) {
	if errors.Is(err, portfolio.ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "Portfolio not found")
		return
	}
	h.log.Error().Err(err).Msg(message)
	h.writeError(w, http.StatusInternalServerError, message)
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{
		"status": "error",
		"error":  message,
	})
}
