package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/AXAStudio/oscillo/internal/events"
	"github.com/AXAStudio/oscillo/internal/modules/portfolio"
)

const cashTicker = portfolio.CashTicker

// Validation errors surfaced to the API as 400s
var (
	ErrMissingTicker      = errors.New("ticker is required")
	ErrZeroQuantity       = errors.New("order quantity cannot be zero")
	ErrNegativePrice      = errors.New("order price cannot be negative")
	ErrInsufficientShares = errors.New("cannot sell more shares than held")
	ErrInsufficientCash   = errors.New("insufficient cash balance")
)

// Service implements order business logic. Creating an order atomically
// adjusts the traded position and the cash balance: a buy of q shares at
// price p moves the cash position by -q*p, a sell by +q*p.
type Service struct {
	repo       *Repository
	portfolios *portfolio.Repository
	positions  *portfolio.PositionRepository
	events     *events.Manager
	log        zerolog.Logger
}

// NewService creates a new order service
func NewService(
	repo *Repository,
	portfolios *portfolio.Repository,
	positions *portfolio.PositionRepository,
	eventMgr *events.Manager,
	log zerolog.Logger,
) *Service {
	return &Service{
		repo:       repo,
		portfolios: portfolios,
		positions:  positions,
		events:     eventMgr,
		log:        log.With().Str("service", "orders").Logger(),
	}
}

// List returns the portfolio's orders, newest first
func (s *Service) List(ctx context.Context, userID, portfolioID string) ([]Order, error) {
	if _, err := s.owned(userID, portfolioID); err != nil {
		return nil, err
	}
	return s.repo.ListByPortfolio(portfolioID)
}

// Create validates and records an order, then applies its position and
// cash effects. Quantity is signed: negative sells, positive buys. Orders
// against the cash ticker are deposits and withdrawals; their price is
// pinned to 1.0 and they move only the cash balance.
func (s *Service) Create(ctx context.Context, userID, portfolioID string, req CreateRequest) (*Order, error) {
	if _, err := s.owned(userID, portfolioID); err != nil {
		return nil, err
	}

	ticker := strings.ToUpper(strings.TrimSpace(req.Ticker))
	if ticker == "" {
		return nil, ErrMissingTicker
	}
	if req.Quantity == 0 {
		return nil, ErrZeroQuantity
	}
	if req.Price < 0 {
		return nil, ErrNegativePrice
	}

	if ticker == cashTicker {
		req.Price = 1.0
	}

	if err := s.checkBalances(portfolioID, ticker, req.Quantity, req.Price); err != nil {
		return nil, err
	}

	order := Order{
		OrderID:     uuid.NewString(),
		PortfolioID: portfolioID,
		Ticker:      ticker,
		CompanyName: strings.TrimSpace(req.CompanyName),
		Sector:      strings.TrimSpace(req.Sector),
		Quantity:    req.Quantity,
		Price:       req.Price,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	}
	if order.Ticker == cashTicker && order.CompanyName == "" {
		order.CompanyName = "Cash"
		order.Sector = "Cash"
	}

	if err := s.repo.Create(order); err != nil {
		return nil, err
	}

	if err := s.positions.AdjustQuantity(portfolioID, ticker, order.CompanyName, order.Sector, order.Quantity); err != nil {
		return nil, fmt.Errorf("failed to apply order to position: %w", err)
	}

	if ticker != cashTicker {
		cashDelta := decimal.NewFromFloat(order.Quantity).
			Mul(decimal.NewFromFloat(order.Price)).
			Neg()
		delta, _ := cashDelta.Float64()
		if err := s.positions.AdjustQuantity(portfolioID, cashTicker, "Cash", "Cash", delta); err != nil {
			return nil, fmt.Errorf("failed to apply order to cash balance: %w", err)
		}
	}

	if err := s.portfolios.Touch(portfolioID); err != nil {
		s.log.Warn().Err(err).Str("portfolio_id", portfolioID).Msg("Failed to touch portfolio")
	}

	eventType := events.OrderCreated
	if ticker == cashTicker {
		eventType = events.CashFlowRecorded
	}
	s.events.Emit(eventType, "orders", map[string]interface{}{
		"order_id":     order.OrderID,
		"portfolio_id": portfolioID,
		"ticker":       ticker,
		"quantity":     order.Quantity,
		"price":        order.Price,
	})

	return &order, nil
}

// checkBalances rejects sells beyond the held quantity and buys or
// withdrawals beyond the cash balance. Comparisons run on decimals so a
// full liquidation is not rejected over float residue.
func (s *Service) checkBalances(portfolioID, ticker string, quantity, price float64) error {
	qty := decimal.NewFromFloat(quantity)

	if ticker == cashTicker {
		if qty.IsNegative() {
			cash, err := s.cashBalance(portfolioID)
			if err != nil {
				return err
			}
			if cash.Add(qty).IsNegative() {
				return ErrInsufficientCash
			}
		}
		return nil
	}

	if qty.IsNegative() {
		pos, err := s.positions.Get(portfolioID, ticker)
		if err != nil {
			return err
		}
		if pos == nil || decimal.NewFromFloat(pos.Quantity).Add(qty).IsNegative() {
			return ErrInsufficientShares
		}
		return nil
	}

	cost := qty.Mul(decimal.NewFromFloat(price))
	cash, err := s.cashBalance(portfolioID)
	if err != nil {
		return err
	}
	if cash.Sub(cost).IsNegative() {
		return ErrInsufficientCash
	}
	return nil
}

func (s *Service) cashBalance(portfolioID string) (decimal.Decimal, error) {
	pos, err := s.positions.Get(portfolioID, cashTicker)
	if err != nil {
		return decimal.Zero, err
	}
	if pos == nil {
		return decimal.Zero, nil
	}
	return decimal.NewFromFloat(pos.Quantity), nil
}

func (s *Service) owned(userID, portfolioID string) (*portfolio.Portfolio, error) {
	p, err := s.portfolios.GetByID(portfolioID)
	if err != nil {
		return nil, err
	}
	if p == nil || p.UserID != userID {
		return nil, portfolio.ErrNotFound
	}
	return p, nil
}
