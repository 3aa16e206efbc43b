package market

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handlers contains HTTP handlers for the market data API
type Handlers struct {
	service *Service
	log     zerolog.Logger
}

// NewHandlers creates a new market handlers instance
func NewHandlers(service *Service, log zerolog.Logger) *Handlers {
	return &Handlers{
		service: service,
		log:     log.With().Str("handler", "market").Logger(),
	}
}

// RegisterRoutes registers all market routes
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Route("/market", func(r chi.Router) {
		r.Get("/quotes", h.HandleGetQuotes)
		r.Get("/historical", h.HandleGetHistorical)
	})
}

// HandleGetQuotes returns latest quotes keyed by ticker
// GET /api/1.0/market/quotes?tickers=AAPL,MSFT
func (h *Handlers) HandleGetQuotes(w http.ResponseWriter, r *http.Request) {
	tickers := splitTickers(r.URL.Query().Get("tickers"))
	if len(tickers) == 0 {
		h.writeError(w, http.StatusBadRequest, "tickers query parameter is required")
		return
	}

	quotes, err := h.service.GetQuotes(r.Context(), tickers)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to fetch quotes")
		h.writeError(w, http.StatusBadGateway, "Failed to fetch quotes")
		return
	}

	// Flatten quotes to the top level next to status; the dashboard layer
	// consumes this payload keyed by ticker.
	response := map[string]interface{}{
		"status": "success",
	}
	for ticker, quote := range quotes {
		response[ticker] = quote
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleGetHistorical returns historical bars, optionally with indicators
// GET /api/1.0/market/historical?tickers=AAPL&range=1mo&interval=1d&indicators=true
func (h *Handlers) HandleGetHistorical(w http.ResponseWriter, r *http.Request) {
	tickers := splitTickers(r.URL.Query().Get("tickers"))
	if len(tickers) == 0 {
		h.writeError(w, http.StatusBadRequest, "tickers query parameter is required")
		return
	}

	dataRange := r.URL.Query().Get("range")
	if dataRange == "" {
		dataRange = "1mo"
	}
	interval := r.URL.Query().Get("interval")
	if interval == "" {
		interval = "1d"
	}
	withIndicators := r.URL.Query().Get("indicators") == "true"

	series, err := h.service.GetHistorical(r.Context(), tickers, dataRange, interval, withIndicators)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"data":   series,
	})
}

func splitTickers(raw string) []string {
	tickers := []string{}
	for _, t := range strings.Split(raw, ",") {
		t = strings.TrimSpace(t)
		if t != "" {
			tickers = append(tickers, t)
		}
	}
	return tickers
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
