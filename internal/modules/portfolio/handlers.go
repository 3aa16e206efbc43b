package portfolio

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/AXAStudio/oscillo/internal/auth"
)

// Handlers contains HTTP handlers for the portfolio API
type Handlers struct {
	service *Service
	log     zerolog.Logger
}

// NewHandlers creates a new portfolio handlers instance
func NewHandlers(service *Service, log zerolog.Logger) *Handlers {
	return &Handlers{
		service: service,
		log:     log.With().Str("handler", "portfolio").Logger(),
	}
}

// RegisterRoutes registers all portfolio routes
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Route("/portfolios", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Post("/", h.HandleCreate)
		r.Get("/{portfolioID}", h.HandleGet)
		r.Delete("/{portfolioID}", h.HandleDelete)
		r.Get("/{portfolioID}/positions", h.HandleGetPositions)
	})
}

// HandleList returns the caller's portfolios
// GET /api/1.0/portfolios
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	portfolios, err := h.service.List(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list portfolios")
		h.writeError(w, http.StatusInternalServerError, "Failed to list portfolios")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "success",
		"portfolios": portfolios,
	})
}

// HandleCreate creates a portfolio
// POST /api/1.0/portfolios
func (h *Handlers) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	p, err := h.service.Create(r.Context(), auth.UserID(r.Context()), req)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to create portfolio")
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"status":    "success",
		"portfolio": p,
	})
}

// HandleGet returns portfolio detail with positions and present value
// GET /api/1.0/portfolios/{portfolioID}
func (h *Handlers) HandleGet(w http.ResponseWriter, r *http.Request) {
	detail, err := h.service.Get(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "portfolioID"))
	if err != nil {
		h.handleServiceError(w, err, "Failed to get portfolio")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "success",
		"portfolio": detail,
	})
}

// HandleDelete removes a portfolio
// DELETE /api/1.0/portfolios/{portfolioID}
func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	err := h.service.Delete(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "portfolioID"))
	if err != nil {
		h.handleServiceError(w, err, "Failed to delete portfolio")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
	})
}

// HandleGetPositions returns positions keyed by ticker
// GET /api/1.0/portfolios/{portfolioID}/positions
func (h *Handlers) HandleGetPositions(w http.ResponseWriter, r *http.Request) {
	positions, err := h.service.Positions(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "portfolioID"))
	if err != nil {
		h.handleServiceError(w, err, "Failed to get positions")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "success",
		"positions": positions,
	})
}

func (h *Handlers) handleServiceError(w http.ResponseWriter, err error, message string) {
	if errors.Is(err, ErrNotFound) {
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
