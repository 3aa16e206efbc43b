package performance

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/AXAStudio/oscillo/internal/events"
	"github.com/AXAStudio/oscillo/internal/modules/portfolio"
	"github.com/AXAStudio/oscillo/pkg/formulas"
)

// ValidPeriods are the lookback windows the performance endpoints accept
var ValidPeriods = map[string]bool{
	"1D": true, "1W": true, "1M": true, "YTD": true, "1Y": true, "ALL": true,
}

// Series is the columnar performance payload. Timestamps are raw unix
// milliseconds; consumers normalize them for display. The interval change
// series starts at zero and holds the percent change between consecutive
// snapshots.
type Series struct {
	Timestamps []int64   `json:"TIMESTAMP"`
	Values     []float64 `json:"pv:TOTAL"`
	Changes    []float64 `json:"dv:TOTAL"`
}

// Summary aggregates risk and return statistics over a period
type Summary struct {
	Period               string  `json:"period"`
	Points               int     `json:"points"`
	TotalReturnPct       float64 `json:"total_return_pct"`
	MeanDailyReturnPct   float64 `json:"mean_daily_return_pct"`
	AnnualizedVolatility float64 `json:"annualized_volatility"`
	MaxDrawdownPct       float64 `json:"max_drawdown_pct"`
}

// Service implements performance tracking business logic
type Service struct {
	repo       *Repository
	portfolios *portfolio.Repository
	events     *events.Manager
	log        zerolog.Logger
	now        func() time.Time
}

// NewService creates a new performance service
func NewService(repo *Repository, portfolios *portfolio.Repository, eventMgr *events.Manager, log zerolog.Logger) *Service {
	return &Service{
		repo:       repo,
		portfolios: portfolios,
		events:     eventMgr,
		log:        log.With().Str("service", "performance").Logger(),
		now:        time.Now,
	}
}

// Record stores a snapshot of a portfolio's total value
func (s *Service) Record(portfolioID string, totalValue float64, at time.Time) error {
	snap := Snapshot{
		PortfolioID: portfolioID,
		TS:          at.UnixMilli(),
		TotalValue:  totalValue,
	}
	if err := s.repo.Upsert(snap); err != nil {
		return err
	}

	s.events.Emit(events.SnapshotRecorded, "performance", map[string]interface{}{
		"portfolio_id": portfolioID,
		"total_value":  totalValue,
	})
	return nil
}

// GetSeries returns the snapshot series for a portfolio over a period
func (s *Service) GetSeries(ctx context.Context, userID, portfolioID, period string) (*Series, error) {
	if err := s.checkOwnership(userID, portfolioID); err != nil {
		return nil, err
	}

	snapshots, err := s.repo.ListSince(portfolioID, s.periodStartMillis(period))
	if err != nil {
		return nil, err
	}

	series := &Series{
		Timestamps: make([]int64, len(snapshots)),
		Values:     make([]float64, len(snapshots)),
		Changes:    make([]float64, len(snapshots)),
	}
	for i, snap := range snapshots {
		series.Timestamps[i] = snap.TS
		series.Values[i] = snap.TotalValue
		if i > 0 && snapshots[i-1].TotalValue > 0 {
			prev := snapshots[i-1].TotalValue
			series.Changes[i] = (snap.TotalValue - prev) / prev * 100
		}
	}

	return series, nil
}

// GetSummary returns aggregate statistics over a period's snapshots
func (s *Service) GetSummary(ctx context.Context, userID, portfolioID, period string) (*Summary, error) {
	if err := s.checkOwnership(userID, portfolioID); err != nil {
		return nil, err
	}

	snapshots, err := s.repo.ListSince(portfolioID, s.periodStartMillis(period))
	if err != nil {
		return nil, err
	}

	values := make([]float64, len(snapshots))
	for i, snap := range snapshots {
		values[i] = snap.TotalValue
	}

	summary := &Summary{
		Period: period,
		Points: len(values),
	}
	if len(values) >= 2 {
		if values[0] > 0 {
			summary.TotalReturnPct = (values[len(values)-1] - values[0]) / values[0] * 100
		}
		returns := formulas.CalculateReturns(values)
		summary.MeanDailyReturnPct = formulas.Mean(returns) * 100
		summary.AnnualizedVolatility = formulas.AnnualizedVolatility(returns)
		summary.MaxDrawdownPct = formulas.CalculateMaxDrawdown(values) * 100
	}

	return summary, nil
}

// periodStartMillis maps a period keyword to the cutoff in unix millis.
// ALL and unknown periods return zero, meaning no cutoff.
func (s *Service) periodStartMillis(period string) int64 {
	now := s.now().UTC()
	var start time.Time
	switch period {
	case "1D":
		start = now.AddDate(0, 0, -1)
	case "1W":
		start = now.AddDate(0, 0, -7)
	case "1M":
		start = now.AddDate(0, -1, 0)
	case "YTD":
		start = time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	case "1Y":
		start = now.AddDate(-1, 0, 0)
	default:
		return 0
	}
	return start.UnixMilli()
}

func (s *Service) checkOwnership(userID, portfolioID string) error {
	p, err := s.portfolios.GetByID(portfolioID)
	if err != nil {
		return err
	}
	if p == nil || p.UserID != userID {
		return portfolio.ErrNotFound
	}
	return nil
}
