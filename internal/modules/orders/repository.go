package orders

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Repository handles order database operations
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new order repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "orders").Logger(),
	}
}

const orderColumns = "order_id, portfolio_id, ticker, company_name, sector, quantity, price, timestamp"

// Create inserts a new order
func (r *Repository) Create(o Order) error {
	_, err := r.db.Exec(`
		INSERT INTO orders (`+orderColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, o.OrderID, o.PortfolioID, o.Ticker, o.CompanyName, o.Sector, o.Quantity, o.Price, o.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	r.log.Info().
		Str("order_id", o.OrderID).
		Str("portfolio_id", o.PortfolioID).
		Str("ticker", o.Ticker).
		Float64("quantity", o.Quantity).
		Msg("Order recorded")
	return nil
}

// ListByPortfolio returns a portfolio's orders, newest first
func (r *Repository) ListByPortfolio(portfolioID string) ([]Order, error) {
	rows, err := r.db.Query(`
		SELECT `+orderColumns+` FROM orders
		WHERE portfolio_id = ?
		ORDER BY timestamp DESC
	`, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := []Order{}
	for rows.Next() {
		var o Order
		var companyName, sector sql.NullString
		if err := rows.Scan(&o.OrderID, &o.PortfolioID, &o.Ticker, &companyName, &sector, &o.Quantity, &o.Price, &o.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		o.CompanyName = companyName.String
		o.Sector = sector.String
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	return orders, nil
}

// Count returns the total number of orders
func (r *Repository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM orders").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}
	return count, nil
}

// SeedDeposit records the initial cash deposit of a freshly created
// portfolio. The cash position itself is seeded by the portfolio service;
// this only writes the order history entry.
func (r *Repository) SeedDeposit(portfolioID string, amount float64, timestamp string) error {
	return r.Create(Order{
		OrderID:     uuid.NewString(),
		PortfolioID: portfolioID,
		Ticker:      cashTicker,
		CompanyName: "Cash",
		Sector:      "Cash",
		Quantity:    amount,
		Price:       1.0,
		Timestamp:   timestamp,
	})
}
