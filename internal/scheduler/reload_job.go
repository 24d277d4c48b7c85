package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/fundamentals/internal/modules/screener"
	"github.com/aristath/fundamentals/internal/modules/statements"
)

// FundamentalsService is the part of the query service the reload job drives.
type FundamentalsService interface {
	Reload(ctx context.Context) error
	Screener(ctx context.Context, refresh bool) (*screener.Result, bool, error)
}

// ReloadJob reloads the regulator filings and rebuilds the screener table
// for the new generation.
type ReloadJob struct {
	service FundamentalsService
	timeout time.Duration
	log     zerolog.Logger
}

// NewReloadJob creates the statement reload job. A zero timeout means no limit.
func NewReloadJob(service FundamentalsService, timeout time.Duration, log zerolog.Logger) *ReloadJob {
	return &ReloadJob{
		service: service,
		timeout: timeout,
		log:     log.With().Str("job", "statement_reload").Logger(),
	}
}

// Name returns the job name
func (j *ReloadJob) Name() string {
	return "statement_reload"
}

// Run executes the reload. A reload already in progress is not an error.
func (j *ReloadJob) Run() error {
	ctx := context.Background()
	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}

	start := time.Now()
	if err := j.service.Reload(ctx); err != nil {
		if errors.Is(err, statements.ErrAlreadyLoading) {
			j.log.Info().Msg("Reload already in progress, skipping")
			return nil
		}
		return err
	}
	j.log.Info().Dur("duration", time.Since(start)).Msg("Statements reloaded")

	res, _, err := j.service.Screener(ctx, true)
	if err != nil {
		j.log.Warn().Err(err).Msg("Failed to warm screener")
		return nil
	}
	j.log.Info().
		Int("rows", len(res.Rows)).
		Int("failed", res.Failed).
		Msg("Screener warmed")
	return nil
}
