package portfolio

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Repository handles portfolio database operations
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new portfolio repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "portfolio").Logger(),
	}
}

const portfolioColumns = "id, user_id, name, created_at, last_updated"

// Create inserts a new portfolio
func (r *Repository) Create(p Portfolio) error {
	_, err := r.db.Exec(`
		INSERT INTO portfolios (`+portfolioColumns+`)
		VALUES (?, ?, ?, ?, ?)
	`, p.ID, p.UserID, p.Name, p.CreatedAt, p.LastUpdated)
	if err != nil {
		return fmt.Errorf("failed to insert portfolio: %w", err)
	}

	r.log.Info().Str("portfolio_id", p.ID).Str("name", p.Name).Msg("Portfolio created")
	return nil
}

// GetByID returns a portfolio by id, or nil when it does not exist
func (r *Repository) GetByID(id string) (*Portfolio, error) {
	var p Portfolio
	err := r.db.QueryRow(`
		SELECT `+portfolioColumns+` FROM portfolios WHERE id = ?
	`, id).Scan(&p.ID, &p.UserID, &p.Name, &p.CreatedAt, &p.LastUpdated)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolio: %w", err)
	}
	return &p, nil
}

// ListByUser returns all portfolios owned by a user, newest first
func (r *Repository) ListByUser(userID string) ([]Portfolio, error) {
	rows, err := r.db.Query(`
		SELECT `+portfolioColumns+` FROM portfolios
		WHERE user_id = ?
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolios: %w", err)
	}
	defer rows.Close()

	return scanPortfolios(rows)
}

// ListAll returns every portfolio. Used by the snapshot job.
func (r *Repository) ListAll() ([]Portfolio, error) {
	rows, err := r.db.Query(`SELECT ` + portfolioColumns + ` FROM portfolios`)
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolios: %w", err)
	}
	defer rows.Close()

	return scanPortfolios(rows)
}

// Delete removes a portfolio. Positions, orders and snapshots cascade.
func (r *Repository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM portfolios WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete portfolio: %w", err)
	}

	affected, _ := result.RowsAffected()
	r.log.Info().Str("portfolio_id", id).Int64("rows_affected", affected).Msg("Portfolio deleted")
	return nil
}

// Touch bumps a portfolio's last_updated timestamp
func (r *Repository) Touch(id string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := r.db.Exec("UPDATE portfolios SET last_updated = ? WHERE id = ?", now, id); err != nil {
		return fmt.Errorf("failed to touch portfolio: %w", err)
	}
	return nil
}

// Count returns the total number of portfolios
func (r *Repository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM portfolios").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count portfolios: %w", err)
	}
	return count, nil
}

func scanPortfolios(rows *sql.Rows) ([]Portfolio, error) {
	portfolios := []Portfolio{}
	for rows.Next() {
		var p Portfolio
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.CreatedAt, &p.LastUpdated); err != nil {
			return nil, fmt.Errorf("failed to scan portfolio: %w", err)
		}
		portfolios = append(portfolios, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating portfolios: %w", err)
	}
	return portfolios, nil
}
