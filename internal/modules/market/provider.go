package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/fundamentals/internal/clientdata"
)

// ErrNoData is returned when a provider has no snapshot for a ticker.
var ErrNoData = errors.New("no market data")

// Provider returns the market snapshot of a ticker.
type Provider interface {
	Snapshot(ctx context.Context, ticker string) (*Snapshot, error)
}

// snapshotFile is the document written by the quote fetcher.
type snapshotFile struct {
	GeneratedAt time.Time            `json:"generated_at"`
	Tickers     map[string]*Snapshot `json:"tickers"`
}

// FileProvider serves snapshots from the fetcher's JSON file. The file is
// re-read whenever its modification time changes.
type FileProvider struct {
	path string
	log  zerolog.Logger

	mu      sync.Mutex
	modTime time.Time
	byTick  map[string]*Snapshot
}

// NewFileProvider creates a provider over path.
func NewFileProvider(path string, log zerolog.Logger) *FileProvider {
	return &FileProvider{
		path: path,
		log:  log.With().Str("component", "market_file").Logger(),
	}
}

// Snapshot implements Provider.
func (p *FileProvider) Snapshot(ctx context.Context, ticker string) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	byTick, err := p.snapshots()
	if err != nil {
		return nil, err
	}

	key := NormalizeTicker(ticker)
	s, ok := byTick[key]
	if !ok {
		return nil, fmt.Errorf("%s: %w", key, ErrNoData)
	}
	out := *s
	return &out, nil
}

func (p *FileProvider) snapshots() (map[string]*Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	info, err := os.Stat(p.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("market file %s: %w", p.path, ErrNoData)
		}
		return nil, fmt.Errorf("stat market file: %w", err)
	}
	if p.byTick != nil && info.ModTime().Equal(p.modTime) {
		return p.byTick, nil
	}

	data, err := os.ReadFile(p.path)
	if err != nil {
		return nil, fmt.Errorf("read market file: %w", err)
	}
	var doc snapshotFile
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse market file: %w", err)
	}

	byTick := make(map[string]*Snapshot, len(doc.Tickers))
	for t, s := range doc.Tickers {
		if s == nil {
			continue
		}
		key := NormalizeTicker(t)
		s.Ticker = key
		if s.FetchedAt.IsZero() {
			s.FetchedAt = doc.GeneratedAt
		}
		byTick[key] = s
	}

	p.byTick = byTick
	p.modTime = info.ModTime()
	p.log.Info().Int("tickers", len(byTick)).Time("generated_at", doc.GeneratedAt).Msg("Loaded market snapshots")
	return byTick, nil
}

// CachedProvider stores upstream snapshots in the client data cache.
// Fresh cache entries are served first; when upstream fails a stale
// entry is returned instead of the error.
type CachedProvider struct {
	upstream Provider
	cache    *clientdata.Repository
	ttl      time.Duration
	log      zerolog.Logger
}

// NewCachedProvider wraps upstream. A nil cache disables caching.
func NewCachedProvider(upstream Provider, cache *clientdata.Repository, ttl time.Duration, log zerolog.Logger) *CachedProvider {
	return &CachedProvider{
		upstream: upstream,
		cache:    cache,
		ttl:      ttl,
		log:      log.With().Str("component", "market_cache").Logger(),
	}
}

// Snapshot implements Provider.
func (p *CachedProvider) Snapshot(ctx context.Context, ticker string) (*Snapshot, error) {
	key := NormalizeTicker(ticker)

	if p.cache != nil {
		var cached Snapshot
		ok, err := p.cache.GetIfFresh(clientdata.TableMarketSnapshots, key, &cached)
		if err != nil {
			p.log.Warn().Err(err).Str("ticker", key).Msg("Failed to read market cache")
		} else if ok {
			p.log.Debug().Str("ticker", key).Msg("Cache hit")
			return &cached, nil
		}
	}

	s, err := p.upstream.Snapshot(ctx, key)
	if err != nil {
		if stale, ok := p.stale(key); ok {
			p.log.Warn().Err(err).Str("ticker", key).Msg("Upstream failed, using stale snapshot")
			return stale, nil
		}
		return nil, err
	}

	if p.cache != nil {
		if err := p.cache.Store(clientdata.TableMarketSnapshots, key, s, p.ttl); err != nil {
			p.log.Warn().Err(err).Str("ticker", key).Msg("Failed to cache market snapshot")
		}
	}
	return s, nil
}

func (p *CachedProvider) stale(key string) (*Snapshot, bool) {
	if p.cache == nil {
		return nil, false
	}
	var cached Snapshot
	ok, err := p.cache.Get(clientdata.TableMarketSnapshots, key, &cached)
	if err != nil || !ok {
		return nil, false
	}
	return &cached, true
}
