package performance

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/AXAStudio/oscillo/internal/auth"
	"github.com/AXAStudio/oscillo/internal/modules/portfolio"
)

// Handlers contains HTTP handlers for the performance API
type Handlers struct {
	service *Service
	log     zerolog.Logger
}

// NewHandlers creates a new performance handlers instance
func NewHandlers(service *Service, log zerolog.Logger) *Handlers {
	return &Handlers{
		service: service,
		log:     log.With().Str("handler", "performance").Logger(),
	}
}

// RegisterRoutes registers all performance routes
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Route("/performance/{portfolioID}", func(r chi.Router) {
		r.Get("/", h.HandleGetSeries)
		r.Get("/summary", h.HandleGetSummary)
	})
}

// HandleGetSeries returns the columnar snapshot series
// GET /api/1.0/performance/{portfolioID}?period=1M
func (h *Handlers) HandleGetSeries(w http.ResponseWriter, r *http.Request) {
	period, ok := h.period(w, r)
	if !ok {
		return
	}

	series, err := h.service.GetSeries(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "portfolioID"), period)
	if err != nil {
		h.handleServiceError(w, err, "Failed to get performance series")
		return
	}

	// Columnar keys live at the top level next to status; the dashboard
	// layer zips them into points.
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "success",
		"period":    period,
		"TIMESTAMP": series.Timestamps,
		"pv:TOTAL":  series.Values,
		"dv:TOTAL":  series.Changes,
	})
}

// HandleGetSummary returns aggregate statistics for a period
// GET /api/1.0/performance/{portfolioID}/summary?period=1Y
func (h *Handlers) HandleGetSummary(w http.ResponseWriter, r *http.Request) {
	period, ok := h.period(w, r)
	if !ok {
		return
	}

	summary, err := h.service.GetSummary(r.Context(), auth.UserID(r.Context()), chi.URLParam(r, "portfolioID"), period)
	if err != nil {
		h.handleServiceError(w, err, "Failed to get performance summary")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"summary": summary,
	})
}

func (h *Handlers) period(w http.ResponseWriter, r *http.Request) (string, bool) {
	period := r.URL.Query().Get("period")
	if period == "" {
		period = "1M"
	}
	if !ValidPeriods[period] {
		h.writeError(w, http.StatusBadRequest, "Invalid period")
		return "", false
	}
	return period, true
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
