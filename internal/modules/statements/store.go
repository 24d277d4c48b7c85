package statements

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

var (
	// ErrNotLoaded is returned while no generation has been loaded yet.
	ErrNotLoaded = errors.New("statements not loaded")
	// ErrAlreadyLoading is returned when a reload is requested during another.
	ErrAlreadyLoading = errors.New("reload already in progress")
)

// LoadFunc builds a fresh generation.
type LoadFunc func(ctx context.Context) (*Generation, error)

// Status is a snapshot of the store for health reporting.
type Status struct {
	Loaded       bool           `json:"loaded"`
	Loading      bool           `json:"loading"`
	LoadError    *string        `json:"load_error"`
	LastUpdate   *time.Time     `json:"last_update"`
	GenerationID string         `json:"generation_id,omitempty"`
	Tables       map[string]int `json:"tables"`
}

// Store holds the current generation. Reads are lock-free; reloads are
// serialized and swap the generation pointer only once it is complete.
type Store struct {
	current atomic.Pointer[Generation]
	reload  sync.Mutex
	loading atomic.Bool

	mu      sync.RWMutex
	lastErr error

	log zerolog.Logger
}

// NewStore creates an empty store.
func NewStore(log zerolog.Logger) *Store {
	return &Store{log: log.With().Str("component", "statement_store").Logger()}
}

// Current returns the loaded generation or ErrNotLoaded.
func (s *Store) Current() (*Generation, error) {
	g := s.current.Load()
	if g == nil {
		return nil, ErrNotLoaded
	}
	return g, nil
}

// Loading reports whether a reload is running.
func (s *Store) Loading() bool {
	return s.loading.Load()
}

// Swap installs g as the current generation.
func (s *Store) Swap(g *Generation) {
	s.current.Store(g)
}

// Reload runs load and swaps in its result. The previous generation stays
// visible until the new one is complete and remains in place on failure.
func (s *Store) Reload(ctx context.Context, load LoadFunc) error {
	if !s.begin() {
		return ErrAlreadyLoading
	}
	return s.run(ctx, load)
}

// StartReload claims the reload slot before returning and runs load in the
// background. It reports false without starting anything when a reload is
// already running. done, when set, receives the reload error.
func (s *Store) StartReload(ctx context.Context, load LoadFunc, done func(error)) bool {
	if !s.begin() {
		return false
	}
	go func() {
		err := s.run(ctx, load)
		if done != nil {
			done(err)
		}
	}()
	return true
}

func (s *Store) begin() bool {
	if !s.reload.TryLock() {
		return false
	}
	s.loading.Store(true)
	return true
}

// run must only be called after a successful begin.
func (s *Store) run(ctx context.Context, load LoadFunc) error {
	defer s.reload.Unlock()
	defer s.loading.Store(false)

	start := time.Now()
	g, err := load(ctx)
	if err == nil && g == nil {
		err = errors.New("loader returned no generation")
	}

	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()

	if err != nil {
		s.log.Error().Err(err).Msg("Reload failed")
		return fmt.Errorf("reload statements: %w", err)
	}

	s.current.Store(g)
	s.log.Info().
		Str("generation", g.ID).
		Dur("duration", time.Since(start)).
		Int("companies", len(g.Companies())).
		Msg("Statement generation loaded")
	return nil
}

// Status reports the current load state.
func (s *Store) Status() Status {
	st := Status{Loading: s.loading.Load(), Tables: map[string]int{}}

	s.mu.RLock()
	if s.lastErr != nil {
		msg := s.lastErr.Error()
		st.LoadError = &msg
	}
	s.mu.RUnlock()

	if g := s.current.Load(); g != nil {
		st.Loaded = true
		loadedAt := g.LoadedAt
		st.LastUpdate = &loadedAt
		st.GenerationID = g.ID
		st.Tables = g.RowCounts()
	}
	return st
}
