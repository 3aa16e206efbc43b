// Package performance records portfolio value snapshots and serves the
// time-series and summary endpoints built on them.
package performance

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"
)

// Snapshot is one recorded portfolio valuation. TS is unix milliseconds.
type Snapshot struct {
	PortfolioID string  `json:"portfolio_id"`
	TS          int64   `json:"ts"`
	TotalValue  float64 `json:"total_value"`
}

// Repository handles snapshot database operations
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new snapshot repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "performance").Logger(),
	}
}

// Upsert records a snapshot, replacing any existing one at the same instant
func (r *Repository) Upsert(snap Snapshot) error {
	_, err := r.db.Exec(`
		INSERT OR REPLACE INTO performance_snapshots (portfolio_id, ts, total_value)
		VALUES (?, ?, ?)
	`, snap.PortfolioID, snap.TS, snap.TotalValue)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}
	return nil
}

// ListSince returns a portfolio's snapshots at or after fromMillis in
// chronological order. A zero fromMillis returns the full history.
func (r *Repository) ListSince(portfolioID string, fromMillis int64) ([]Snapshot, error) {
	rows, err := r.db.Query(`
		SELECT portfolio_id, ts, total_value FROM performance_snapshots
		WHERE portfolio_id = ? AND ts >= ?
		ORDER BY ts ASC
	`, portfolioID, fromMillis)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	snapshots := []Snapshot{}
	for rows.Next() {
		var snap Snapshot
		if err := rows.Scan(&snap.PortfolioID, &snap.TS, &snap.TotalValue); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snapshots = append(snapshots, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshots: %w", err)
	}

	return snapshots, nil
}
