package screener

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/fundamentals/internal/clientdata"
	"github.com/aristath/fundamentals/internal/modules/statements"
)

// Runner caches screener results per generation in the client data
// cache.
type Runner struct {
	agg   *Aggregator
	cache *clientdata.Repository
	ttl   time.Duration
	log   zerolog.Logger

	mu sync.Mutex // one batch at a time
}

// NewRunner creates a cached runner. A nil cache always recomputes.
func NewRunner(agg *Aggregator, cache *clientdata.Repository, ttl time.Duration, log zerolog.Logger) *Runner {
	return &Runner{
		agg:   agg,
		cache: cache,
		ttl:   ttl,
		log:   log.With().Str("component", "screener_runner").Logger(),
	}
}

func cacheKey(gen *statements.Generation) string {
	return "screener:" + gen.ID
}

// Get returns the cached result for gen, computing and storing it on a
// miss. The boolean reports a cache hit.
func (r *Runner) Get(ctx context.Context, gen *statements.Generation, universe []Company) (*Result, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cache != nil {
		var cached Result
		ok, err := r.cache.GetIfFresh(clientdata.TableScreener, cacheKey(gen), &cached)
		if err != nil {
			r.log.Warn().Err(err).Msg("Failed to read screener cache")
		} else if ok {
			return &cached, true, nil
		}
	}

	res, err := r.run(ctx, gen, universe)
	return res, false, err
}

// Refresh recomputes the result for gen and replaces the cached entry.
func (r *Runner) Refresh(ctx context.Context, gen *statements.Generation, universe []Company) (*Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.run(ctx, gen, universe)
}

func (r *Runner) run(ctx context.Context, gen *statements.Generation, universe []Company) (*Result, error) {
	res, err := r.agg.Run(ctx, gen, universe)
	if err != nil {
		return nil, fmt.Errorf("run screener: %w", err)
	}
	if r.cache != nil {
		if err := r.cache.Store(clientdata.TableScreener, cacheKey(gen), res, r.ttl); err != nil {
			r.log.Warn().Err(err).Msg("Failed to cache screener result")
		}
	}
	return res, nil
}
