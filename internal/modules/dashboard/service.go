package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Client is the data-fetching collaborator the dashboard depends on. It
// owns transport, auth, caching and retries; this package only transforms
// the payloads it yields.
type Client interface {
	GetPortfolio(ctx context.Context, portfolioID string) (map[string]interface{}, error)
	GetPositions(ctx context.Context, portfolioID string) (map[string]interface{}, error)
	GetOrders(ctx context.Context, portfolioID string) (map[string]interface{}, error)
	GetQuotes(ctx context.Context, tickers []string) (map[string]interface{}, error)
	GetPerformance(ctx context.Context, portfolioID, period string) (map[string]interface{}, error)
}

// View is the aggregated, normalized dashboard payload
type View struct {
	PortfolioID   string             `json:"portfolio_id"`
	Period        string             `json:"period"`
	Metrics       Metrics            `json:"metrics"`
	PeriodPnL     PeriodPnL          `json:"period_pnl"`
	Positions     []Position         `json:"positions"`
	Orders        []Order            `json:"orders"`
	Performance   []PerformancePoint `json:"performance"`
	Quotes        map[string]Quote   `json:"quotes"`
	CashBalance   float64            `json:"cash_balance"`
	TotalInvested float64            `json:"total_invested"`
}

// Service aggregates backend payloads into normalized dashboard views
type Service struct {
	log zerolog.Logger
	now func() time.Time
}

// NewService creates a new dashboard service
func NewService(log zerolog.Logger) *Service {
	return &Service{
		log: log.With().Str("service", "dashboard").Logger(),
		now: time.Now,
	}
}

// BuildView fetches everything the dashboard needs for one portfolio and
// period, and normalizes it. The portfolio detail fetch is load-bearing and
// its failure propagates; the remaining fetches degrade to empty payloads
// so a partially unavailable backend still renders.
func (s *Service) BuildView(ctx context.Context, c Client, portfolioID, period string) (*View, error) {
	portfolio, err := c.GetPortfolio(ctx, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch portfolio: %w", err)
	}

	positionsPayload := s.fetch("positions", func() (map[string]interface{}, error) {
		return c.GetPositions(ctx, portfolioID)
	})
	positionsMap := asMap(positionsPayload["positions"])

	// Older backend revisions embed quotes in the positions payload
	rawQuotes := asMap(positionsPayload["quotes"])
	if rawQuotes == nil {
		rawQuotes = asMap(positionsPayload["market_quotes"])
	}
	if rawQuotes == nil {
		tickers := equityTickers(positionsMap)
		rawQuotes = s.fetch("quotes", func() (map[string]interface{}, error) {
			return c.GetQuotes(ctx, tickers)
		})
	}

	ordersPayload := s.fetch("orders", func() (map[string]interface{}, error) {
		return c.GetOrders(ctx, portfolioID)
	})

	perfPayload := s.fetch("performance", func() (map[string]interface{}, error) {
		return c.GetPerformance(ctx, portfolioID, period)
	})

	positions := NormalizePositions(positionsMap, rawQuotes)
	allOrders := NormalizeOrders(ordersPayload)
	points := NormalizePerformance(perfPayload)

	presentValue := ToNumber(portfolio["present_value"], 0)

	return &View{
		PortfolioID:   portfolioID,
		Period:        period,
		Metrics:       CalculateMetrics(presentValue, positions, allOrders),
		PeriodPnL:     CalculatePeriodPnL(points),
		Positions:     positions,
		Orders:        FilterOrdersByPeriod(allOrders, period, s.now()),
		Performance:   points,
		Quotes:        NormalizeQuotes(rawQuotes),
		CashBalance:   CashValue(portfolio),
		TotalInvested: TotalInvested(portfolio),
	}, nil
}

// fetch runs one collaborator call and degrades failures to an empty
// payload. Partial backend data is expected; the normalizers handle the
// rest.
func (s *Service) fetch(what string, fn func() (map[string]interface{}, error)) map[string]interface{} {
	payload, err := fn()
	if err != nil {
		s.log.Warn().Err(err).Str("payload", what).Msg("Backend fetch failed, rendering without it")
		return map[string]interface{}{}
	}
	return payload
}

func equityTickers(positions map[string]interface{}) []string {
	tickers := make([]string, 0, len(positions))
	for ticker := range positions {
		if ticker == CashTicker || ticker == "" {
			continue
		}
		tickers = append(tickers, ticker)
	}
	return tickers
}
