package dashboard

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/AXAStudio/oscillo/internal/clients/backend"
)

// ClientFactory binds a caller's bearer token to a backend client
type ClientFactory func(token string) Client

// Handlers contains HTTP handlers for the dashboard API
type Handlers struct {
	service   *Service
	newClient ClientFactory
	log       zerolog.Logger
}

// NewHandlers creates a new dashboard handlers instance
func NewHandlers(service *Service, newClient ClientFactory, log zerolog.Logger) *Handlers {
	return &Handlers{
		service:   service,
		newClient: newClient,
		log:       log.With().Str("handler", "dashboard").Logger(),
	}
}

// RegisterRoutes registers all dashboard routes
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Route("/dashboard/{portfolioID}", func(r chi.Router) {
		r.Get("/", h.HandleGetDashboard)
		r.Get("/holdings.csv", h.HandleExportHoldings)
		r.Get("/orders.csv", h.HandleExportOrders)
	})
}

// HandleGetDashboard returns the aggregated, normalized dashboard view
// GET /api/dashboard/{portfolioID}?period=1M
func (h *Handlers) HandleGetDashboard(w http.ResponseWriter, r *http.Request) {
	view, ok := h.buildView(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(view)
}

// HandleExportHoldings streams the holdings table as CSV
// GET /api/dashboard/{portfolioID}/holdings.csv?hide=sector,weight
func (h *Handlers) HandleExportHoldings(w http.ResponseWriter, r *http.Request) {
	view, ok := h.buildView(w, r)
	if !ok {
		return
	}

	writeCSVHeaders(w, "holdings")
	if err := WriteCSV(w, HoldingsColumns, hiddenColumns(r), HoldingsRows(view.Positions)); err != nil {
		h.log.Error().Err(err).Msg("Failed to write holdings CSV")
	}
}

// HandleExportOrders streams the period-filtered orders table as CSV
// GET /api/dashboard/{portfolioID}/orders.csv?period=1M&hide=sector
func (h *Handlers) HandleExportOrders(w http.ResponseWriter, r *http.Request) {
	view, ok := h.buildView(w, r)
	if !ok {
		return
	}

	writeCSVHeaders(w, "orders")
	if err := WriteCSV(w, OrdersColumns, hiddenColumns(r), OrdersRows(view.Orders)); err != nil {
		h.log.Error().Err(err).Msg("Failed to write orders CSV")
	}
}

// buildView resolves the request into a dashboard view, writing the error
// response itself when the view cannot be built.
func (h *Handlers) buildView(w http.ResponseWriter, r *http.Request) (*View, bool) {
	portfolioID := chi.URLParam(r, "portfolioID")
	if portfolioID == "" {
		http.Error(w, "Missing portfolio id", http.StatusBadRequest)
		return nil, false
	}

	period := r.URL.Query().Get("period")
	if period == "" {
		period = "1M"
	}
	if !ValidPeriods[period] {
		http.Error(w, "Invalid period", http.StatusBadRequest)
		return nil, false
	}

	client := h.newClient(bearerToken(r))
	view, err := h.service.BuildView(r.Context(), client, portfolioID, period)
	if err != nil {
		if backend.IsNotFound(err) {
			http.Error(w, "Portfolio not found", http.StatusNotFound)
			return nil, false
		}
		h.log.Error().Err(err).Str("portfolio_id", portfolioID).Msg("Failed to build dashboard view")
		http.Error(w, "Failed to build dashboard view", http.StatusBadGateway)
		return nil, false
	}

	return view, true
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

func hiddenColumns(r *http.Request) map[string]bool {
	hidden := make(map[string]bool)
	for _, key := range strings.Split(r.URL.Query().Get("hide"), ",") {
		key = strings.TrimSpace(key)
		if key != "" {
			hidden[key] = true
		}
	}
	return hidden
}

func writeCSVHeaders(w http.ResponseWriter, prefix string) {
	filename := prefix + "_" + time.Now().UTC().Format("2006-01-02") + ".csv"
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
}
