package portfolio

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// PositionRepository handles position database operations
type PositionRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewPositionRepository creates a new position repository
func NewPositionRepository(db *sql.DB, log zerolog.Logger) *PositionRepository {
	return &PositionRepository{
		db:  db,
		log: log.With().Str("repo", "position").Logger(),
	}
}

const positionColumns = "portfolio_id, ticker, company_name, sector, quantity, created_at, updated_at"

// GetByPortfolio returns all positions in a portfolio, cash row included
func (r *PositionRepository) GetByPortfolio(portfolioID string) ([]Position, error) {
	rows, err := r.db.Query(`
		SELECT `+positionColumns+` FROM positions
		WHERE portfolio_id = ?
		ORDER BY ticker
	`, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}
	defer rows.Close()

	positions := []Position{}
	for rows.Next() {
		pos, err := scanPosition(rows)
		if err != nil {
			return nil, err
		}
		positions = append(positions, pos)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating positions: %w", err)
	}

	return positions, nil
}

// Get returns a single position, or nil when the portfolio does not hold
// the ticker.
func (r *PositionRepository) Get(portfolioID, ticker string) (*Position, error) {
	rows, err := r.db.Query(`
		SELECT `+positionColumns+` FROM positions
		WHERE portfolio_id = ? AND ticker = ?
	`, portfolioID, normalizeTicker(ticker))
	if err != nil {
		return nil, fmt.Errorf("failed to query position: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, nil
	}
	pos, err := scanPosition(rows)
	if err != nil {
		return nil, err
	}
	return &pos, nil
}

// Upsert inserts or replaces a position
func (r *PositionRepository) Upsert(pos Position) error {
	now := time.Now().UTC().Format(time.RFC3339)
	pos.Ticker = normalizeTicker(pos.Ticker)
	if pos.CreatedAt == "" {
		pos.CreatedAt = now
	}
	pos.UpdatedAt = now

	_, err := r.db.Exec(`
		INSERT OR REPLACE INTO positions (`+positionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, pos.PortfolioID, pos.Ticker, pos.CompanyName, pos.Sector, pos.Quantity, pos.CreatedAt, pos.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert position: %w", err)
	}

	return nil
}

// AdjustQuantity applies a signed quantity delta to a position, creating it
// when absent. The arithmetic runs on decimals so repeated fills never
// accumulate float drift. A position whose quantity reaches zero is removed,
// except the cash row, which persists at zero balance.
func (r *PositionRepository) AdjustQuantity(portfolioID, ticker, companyName, sector string, delta float64) error {
	ticker = normalizeTicker(ticker)

	pos, err := r.Get(portfolioID, ticker)
	if err != nil {
		return err
	}

	now := time.Now().UTC().Format(time.RFC3339)

	if pos == nil {
		return r.Upsert(Position{
			PortfolioID: portfolioID,
			Ticker:      ticker,
			CompanyName: companyName,
			Sector:      sector,
			Quantity:    delta,
			CreatedAt:   now,
		})
	}

	next := decimal.NewFromFloat(pos.Quantity).Add(decimal.NewFromFloat(delta))

	if next.IsZero() && ticker != CashTicker {
		if _, err := r.db.Exec(`
			DELETE FROM positions WHERE portfolio_id = ? AND ticker = ?
		`, portfolioID, ticker); err != nil {
			return fmt.Errorf("failed to remove closed position: %w", err)
		}
		r.log.Debug().Str("portfolio_id", portfolioID).Str("ticker", ticker).Msg("Position closed")
		return nil
	}

	quantity, _ := next.Float64()
	if _, err := r.db.Exec(`
		UPDATE positions SET quantity = ?, updated_at = ?
		WHERE portfolio_id = ? AND ticker = ?
	`, quantity, now, portfolioID, ticker); err != nil {
		return fmt.Errorf("failed to update position quantity: %w", err)
	}

	return nil
}

func scanPosition(rows *sql.Rows) (Position, error) {
	var pos Position
	var companyName, sector sql.NullString
	err := rows.Scan(
		&pos.PortfolioID,
		&pos.Ticker,
		&companyName,
		&sector,
		&pos.Quantity,
		&pos.CreatedAt,
		&pos.UpdatedAt,
	)
	if err != nil {
		return pos, fmt.Errorf("failed to scan position: %w", err)
	}
	pos.CompanyName = companyName.String
	pos.Sector = sector.String
	return pos, nil
}

func normalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}
