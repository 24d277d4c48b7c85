package di

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/fundamentals/internal/clientdata"
	"github.com/aristath/fundamentals/internal/config"
	"github.com/aristath/fundamentals/internal/scheduler"
)

const (
	reloadTimeout = 30 * time.Minute

	cacheCleanupSchedule  = "0 15 * * * *"   // hourly, quarter past
	walCheckpointSchedule = "0 */30 * * * *" // every 30 minutes
)

// RegisterJobs creates the scheduler and registers the background jobs.
// The scheduler is not started.
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) (*JobInstances, error) {
	sched := scheduler.New(log)
	jobs := &JobInstances{
		Reload:        scheduler.NewReloadJob(container.FundamentalsService, reloadTimeout, log),
		CacheCleanup:  clientdata.NewCleanupJob(container.ClientDataRepo, log),
		WALCheckpoint: scheduler.NewCheckWALCheckpointsJob(log, container.CacheDB),
	}

	if cfg.ReloadSchedule != "" {
		if err := sched.AddJob(cfg.ReloadSchedule, jobs.Reload); err != nil {
			return nil, fmt.Errorf("invalid reload schedule %q: %w", cfg.ReloadSchedule, err)
		}
	}
	if err := sched.AddJob(cacheCleanupSchedule, jobs.CacheCleanup); err != nil {
		return nil, err
	}
	if err := sched.AddJob(walCheckpointSchedule, jobs.WALCheckpoint); err != nil {
		return nil, err
	}

	container.Scheduler = sched
	return jobs, nil
}
