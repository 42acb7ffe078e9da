package scheduler

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/iboito/dividenden-dashboard/internal/modules/analysis"
	"github.com/iboito/dividenden-dashboard/internal/modules/universe"
)

// SnapshotJob runs the analysis for the configured default watchlist and
// persists the ranked result, so the dashboard has fresh data even before
// the first manual run of the day.
type SnapshotJob struct {
	service *analysis.Service
	repo    *analysis.SnapshotRepository
	tickers string
	log     zerolog.Logger
}

// NewSnapshotJob creates a snapshot job for a comma-separated ticker list
func NewSnapshotJob(service *analysis.Service, repo *analysis.SnapshotRepository, tickers string, log zerolog.Logger) *SnapshotJob {
	return &SnapshotJob{
		service: service,
		repo:    repo,
		tickers: tickers,
		log:     log.With().Str("job", "snapshot").Logger(),
	}
}

// Name implements Job
func (j *SnapshotJob) Name() string {
	return "daily_snapshot"
}

// Run implements Job
func (j *SnapshotJob) Run() error {
	tickers := universe.ParseTickers(j.tickers)
	if len(tickers) == 0 {
		return fmt.Errorf("no tickers configured for snapshot job")
	}

	records := j.service.Run(tickers)
	summary := analysis.Summarize(records)

	id, err := j.repo.Save(tickers, records, summary)
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	j.log.Info().
		Int64("snapshot_id", id).
		Int("records", len(records)).
		Msg("Daily snapshot stored")

	return nil
}
