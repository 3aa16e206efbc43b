package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/AXAStudio/oscillo/internal/modules/performance"
	"github.com/AXAStudio/oscillo/internal/modules/portfolio"
)

// SnapshotJob values every portfolio at latest quotes and records the
// result as a performance snapshot. Failures on one portfolio do not stop
// the sweep.
type SnapshotJob struct {
	portfolios  *portfolio.Repository
	valuer      *portfolio.Service
	performance *performance.Service
	log         zerolog.Logger
}

// NewSnapshotJob creates a new snapshot job
func NewSnapshotJob(
	portfolios *portfolio.Repository,
	valuer *portfolio.Service,
	perf *performance.Service,
	log zerolog.Logger,
) *SnapshotJob {
	return &SnapshotJob{
		portfolios:  portfolios,
		valuer:      valuer,
		performance: perf,
		log:         log.With().Str("job", "snapshot").Logger(),
	}
}

// Name returns the job name
func (j *SnapshotJob) Name() string {
	return "performance_snapshot"
}

// Run records one snapshot per portfolio
func (j *SnapshotJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	portfolios, err := j.portfolios.ListAll()
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	recorded := 0
	for _, p := range portfolios {
		value, err := j.valuer.PresentValue(ctx, p.ID)
		if err != nil {
			j.log.Warn().Err(err).Str("portfolio_id", p.ID).Msg("Failed to value portfolio, skipping")
			continue
		}
		if err := j.performance.Record(p.ID, value, now); err != nil {
			j.log.Warn().Err(err).Str("portfolio_id", p.ID).Msg("Failed to record snapshot")
			continue
		}
		recorded++
	}

	j.log.Info().
		Int("portfolios", len(portfolios)).
		Int("recorded", recorded).
		Msg("Snapshot sweep complete")

	return nil
}
