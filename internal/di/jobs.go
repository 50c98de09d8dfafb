package di

import (
	"fmt"
	"time"

	"github.com/portfoliodb/portfoliodb/internal/clientdata"
	"github.com/portfoliodb/portfoliodb/internal/config"
	"github.com/portfoliodb/portfoliodb/internal/database"
	"github.com/portfoliodb/portfoliodb/internal/scheduler"
	"github.com/rs/zerolog"
)

const (
	clientDataCleanupSchedule = "0 0 3 * * *"
	walCheckpointSchedule     = "0 0 * * * *"
	quoteSyncTimeout          = 30 * time.Minute
)

// RegisterJobs creates the background jobs
func RegisterJobs(container *Container, log zerolog.Logger) (*JobInstances, error) {
	if container == nil || container.QuoteFetcher == nil {
		return nil, fmt.Errorf("container services not initialized")
	}

	return &JobInstances{
		QuoteSync:         scheduler.NewQuoteSyncJob(container.QuoteFetcher, quoteSyncTimeout, log),
		ClientDataCleanup: clientdata.NewCleanupJob(container.ClientDataRepo, log),
		WALCheckpoint: scheduler.NewCheckWALCheckpointsJob(map[string]*database.DB{
			"portfolio": container.PortfolioDB,
		}, log),
	}, nil
}

// ScheduleJobs adds the jobs to s. The quote sync is skipped when its
// schedule is empty.
func ScheduleJobs(s *scheduler.Scheduler, jobs *JobInstances, cfg *config.Config, log zerolog.Logger) error {
	if cfg.QuoteSync.Schedule != "" {
		if err := s.AddJob(cfg.QuoteSync.Schedule, jobs.QuoteSync); err != nil {
			return fmt.Errorf("failed to schedule %s: %w", jobs.QuoteSync.Name(), err)
		}
	} else {
		log.Info().Msg("Quote sync schedule disabled")
	}

	if err := s.AddJob(clientDataCleanupSchedule, jobs.ClientDataCleanup); err != nil {
		return fmt.Errorf("failed to schedule %s: %w", jobs.ClientDataCleanup.Name(), err)
	}
	if err := s.AddJob(walCheckpointSchedule, jobs.WALCheckpoint); err != nil {
		return fmt.Errorf("failed to schedule %s: %w", jobs.WALCheckpoint.Name(), err)
	}
	return nil
}
