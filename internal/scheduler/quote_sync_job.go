package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/portfoliodb/portfoliodb/internal/modules/quotes"
	"github.com/rs/zerolog"
)

// QuoteSyncer fetches quotes for a set of investments (nil = all configured)
type QuoteSyncer interface {
	FetchQuotes(ctx context.Context, ids []int64) ([]quotes.QuoteFetchResult, error)
}

// QuoteSyncJob syncs quotes of every investment with a configured provider
type QuoteSyncJob struct {
	syncer  QuoteSyncer
	timeout time.Duration
	log     zerolog.Logger
}

// NewQuoteSyncJob creates a new quote sync job. timeout bounds a whole run.
func NewQuoteSyncJob(syncer QuoteSyncer, timeout time.Duration, log zerolog.Logger) *QuoteSyncJob {
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}
	return &QuoteSyncJob{
		syncer:  syncer,
		timeout: timeout,
		log:     log.With().Str("job", "quote_sync").Logger(),
	}
}

// Name returns the job name
func (j *QuoteSyncJob) Name() string {
	return "quote_sync"
}

// Run executes the quote sync. Per-investment failures are logged; only
// errors that prevented or corrupted the run are returned.
func (j *QuoteSyncJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	runID := uuid.NewString()
	ctx = quotes.WithRunID(ctx, runID)

	results, err := j.syncer.FetchQuotes(ctx, nil)
	for _, r := range results {
		if !r.Success && r.Error != nil {
			j.log.Warn().
				Str("run_id", runID).
				Int64("investment_id", r.InvestmentID).
				Str("reason", *r.Error).
				Msg("Quote sync failed for investment")
		}
	}
	if err != nil {
		return fmt.Errorf("quote sync run %s: %w", runID, err)
	}

	summary := quotes.Summarize(results)
	j.log.Info().
		Str("run_id", runID).
		Int("total", summary.Total).
		Int("successful", summary.Successful).
		Int("failed", summary.Failed).
		Msg("Quote sync completed")

	return nil
}
