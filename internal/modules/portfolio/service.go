package portfolio

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/AXAStudio/oscillo/internal/clients/yahoo"
	"github.com/AXAStudio/oscillo/internal/events"
)

// ErrNotFound is returned when a portfolio does not exist or is not owned
// by the requesting user. Ownership failures map to not-found on purpose.
var ErrNotFound = errors.New("portfolio not found")

// QuoteProvider resolves latest market quotes for a set of tickers
type QuoteProvider interface {
	GetQuotes(ctx context.Context, tickers []string) (map[string]yahoo.MarketQuote, error)
}

// OrderSeeder records the initial deposit order when a portfolio is created
type OrderSeeder interface {
	SeedDeposit(portfolioID string, amount float64, timestamp string) error
}

// Service implements portfolio business logic
type Service struct {
	repo      *Repository
	positions *PositionRepository
	quotes    QuoteProvider
	orders    OrderSeeder
	events    *events.Manager
	log       zerolog.Logger
}

// NewService creates a new portfolio service
func NewService(
	repo *Repository,
	positions *PositionRepository,
	quotes QuoteProvider,
	orders OrderSeeder,
	eventMgr *events.Manager,
	log zerolog.Logger,
) *Service {
	return &Service{
		repo:      repo,
		positions: positions,
		quotes:    quotes,
		orders:    orders,
		events:    eventMgr,
		log:       log.With().Str("service", "portfolio").Logger(),
	}
}

// Create creates a portfolio seeded with a cash position and, when the
// initial investment is positive, a deposit order so the cash flow is
// visible in order history.
func (s *Service) Create(ctx context.Context, userID string, req CreateRequest) (*Portfolio, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("portfolio name is required")
	}
	if req.InitialInvestment < 0 {
		return nil, fmt.Errorf("initial investment cannot be negative")
	}

	now := time.Now().UTC().Format(time.RFC3339)
	p := Portfolio{
		ID:          uuid.NewString(),
		UserID:      userID,
		Name:        name,
		CreatedAt:   now,
		LastUpdated: now,
	}

	if err := s.repo.Create(p); err != nil {
		return nil, err
	}

	if err := s.positions.Upsert(Position{
		PortfolioID: p.ID,
		Ticker:      CashTicker,
		CompanyName: "Cash",
		Sector:      "Cash",
		Quantity:    req.InitialInvestment,
	}); err != nil {
		return nil, fmt.Errorf("failed to seed cash position: %w", err)
	}

	if req.InitialInvestment > 0 {
		if err := s.orders.SeedDeposit(p.ID, req.InitialInvestment, now); err != nil {
			return nil, fmt.Errorf("failed to record initial deposit: %w", err)
		}
	}

	s.events.Emit(events.PortfolioCreated, "portfolio", map[string]interface{}{
		"portfolio_id":       p.ID,
		"user_id":            userID,
		"initial_investment": req.InitialInvestment,
	})

	return &p, nil
}

// List returns the user's portfolios
func (s *Service) List(ctx context.Context, userID string) ([]Portfolio, error) {
	return s.repo.ListByUser(userID)
}

// Get returns the full portfolio detail including positions and the
// present value at latest quotes.
func (s *Service) Get(ctx context.Context, userID, portfolioID string) (*Detail, error) {
	p, err := s.owned(userID, portfolioID)
	if err != nil {
		return nil, err
	}

	positions, err := s.positions.GetByPortfolio(portfolioID)
	if err != nil {
		return nil, err
	}

	valued, presentValue, cash, err := s.valuate(ctx, positions)
	if err != nil {
		return nil, err
	}

	byTicker := make(map[string]Position, len(valued))
	for _, pos := range valued {
		byTicker[pos.Ticker] = pos
	}

	return &Detail{
		Portfolio:    *p,
		PresentValue: presentValue,
		CashBalance:  cash,
		Positions:    byTicker,
	}, nil
}

// Positions returns the portfolio's positions keyed by ticker
func (s *Service) Positions(ctx context.Context, userID, portfolioID string) (map[string]Position, error) {
	if _, err := s.owned(userID, portfolioID); err != nil {
		return nil, err
	}

	positions, err := s.positions.GetByPortfolio(portfolioID)
	if err != nil {
		return nil, err
	}

	byTicker := make(map[string]Position, len(positions))
	for _, pos := range positions {
		byTicker[pos.Ticker] = pos
	}
	return byTicker, nil
}

// Delete removes a portfolio and all dependent rows
func (s *Service) Delete(ctx context.Context, userID, portfolioID string) error {
	if _, err := s.owned(userID, portfolioID); err != nil {
		return err
	}

	if err := s.repo.Delete(portfolioID); err != nil {
		return err
	}

	s.events.Emit(events.PortfolioDeleted, "portfolio", map[string]interface{}{
		"portfolio_id": portfolioID,
		"user_id":      userID,
	})
	return nil
}

// PresentValue computes the portfolio's total value: cash balance plus the
// sum of quantity times latest close over equity positions. Tickers without
// a resolvable quote contribute nothing rather than failing the whole
// valuation.
func (s *Service) PresentValue(ctx context.Context, portfolioID string) (float64, error) {
	positions, err := s.positions.GetByPortfolio(portfolioID)
	if err != nil {
		return 0, err
	}
	_, total, _, err := s.valuate(ctx, positions)
	return total, err
}

// valuate prices every position at its latest close and returns the
// positions with Value filled, the portfolio total and the cash balance.
func (s *Service) valuate(ctx context.Context, positions []Position) (valued []Position, total, cash float64, err error) {
	tickers := make([]string, 0, len(positions))
	for _, pos := range positions {
		if pos.Ticker == CashTicker {
			cash += pos.Quantity
			continue
		}
		tickers = append(tickers, pos.Ticker)
	}

	quotes := map[string]yahoo.MarketQuote{}
	if len(tickers) > 0 {
		quotes, err = s.quotes.GetQuotes(ctx, tickers)
		if err != nil {
			return nil, 0, 0, fmt.Errorf("failed to fetch quotes: %w", err)
		}
	}

	total = cash
	valued = make([]Position, len(positions))
	for i, pos := range positions {
		if pos.Ticker == CashTicker {
			pos.Value = pos.Quantity
		} else if quote, ok := quotes[pos.Ticker]; ok {
			pos.Value = pos.Quantity * quote.Close
			total += pos.Value
		} else {
			s.log.Warn().Str("ticker", pos.Ticker).Msg("No quote for position, excluding from valuation")
		}
		valued[i] = pos
	}

	return valued, total, cash, nil
}

// owned resolves a portfolio and verifies the requesting user owns it
func (s *Service) owned(userID, portfolioID string) (*Portfolio, error) {
	p, err := s.repo.GetByID(portfolioID)
	if err != nil {
		return nil, err
	}
	if p == nil || p.UserID != userID {
		return nil, ErrNotFound
	}
	return p, nil
}
