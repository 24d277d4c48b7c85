package market

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/aristath/fundamentals/internal/clientdata"
)

const marketJSON = `{
  "generated_at": "2024-05-01T18:00:00Z",
  "tickers": {
    "vale3.sa": {
      "profile": {"nome": "Vale S.A.", "setor": "Basic Materials"},
      "price": {"atual": 62.5},
      "valuation": {"market_cap": 280000000000, "enterprise_value": 330000000000, "shares_outstanding": 4480000000}
    }
  }
}`

func testLogger() zerolog.Logger {
	return zerolog.New(nil).Level(zerolog.Disabled)
}

func f(v float64) *float64 { return &v }

func TestFileProvider(t *testing.T) {
	path := filepath.Join(t.TempDir(), "market.json")
	require.NoError(t, os.WriteFile(path, []byte(marketJSON), 0644))
	p := NewFileProvider(path, testLogger())

	s, err := p.Snapshot(context.Background(), "VALE3")
	require.NoError(t, err)
	assert.Equal(t, "VALE3", s.Ticker)
	assert.Equal(t, "Vale S.A.", s.Profile.Name)
	require.NotNil(t, s.Price.Current)
	assert.Equal(t, 62.5, *s.Price.Current)
	assert.Equal(t, time.Date(2024, 5, 1, 18, 0, 0, 0, time.UTC), s.FetchedAt.UTC())

	_, err = p.Snapshot(context.Background(), "PETR4")
	assert.ErrorIs(t, err, ErrNoData)
}

func TestFileProvider_MissingFile(t *testing.T) {
	p := NewFileProvider(filepath.Join(t.TempDir(), "absent.json"), testLogger())
	_, err := p.Snapshot(context.Background(), "VALE3")
	assert.ErrorIs(t, err, ErrNoData)
}

func TestFileProvider_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "market.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0644))

	_, err := NewFileProvider(path, testLogger()).Snapshot(context.Background(), "VALE3")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoData)
}

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) Snapshot(ctx context.Context, ticker string) (*Snapshot, error) {
	args := m.Called(ctx, ticker)
	if s := args.Get(0); s != nil {
		return s.(*Snapshot), args.Error(1)
	}
	return nil, args.Error(1)
}

func setupCache(t *testing.T) *clientdata.Repository {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`CREATE TABLE market_snapshots (ticker TEXT PRIMARY KEY, data BLOB NOT NULL, expires_at INTEGER NOT NULL)`)
	require.NoError(t, err)
	return clientdata.NewRepository(db)
}

func TestCachedProvider_FreshHitSkipsUpstream(t *testing.T) {
	cache := setupCache(t)
	upstream := new(mockProvider)
	upstream.On("Snapshot", mock.Anything, "VALE3").
		Return(&Snapshot{Ticker: "VALE3", Price: Price{Current: f(60)}}, nil).Once()

	p := NewCachedProvider(upstream, cache, time.Hour, testLogger())

	first, err := p.Snapshot(context.Background(), "vale3")
	require.NoError(t, err)
	second, err := p.Snapshot(context.Background(), "VALE3")
	require.NoError(t, err)

	assert.Equal(t, 60.0, *first.Price.Current)
	assert.Equal(t, 60.0, *second.Price.Current)
	upstream.AssertNumberOfCalls(t, "Snapshot", 1)
}

func TestCachedProvider_StaleFallback(t *testing.T) {
	cache := setupCache(t)
	require.NoError(t, cache.Store(clientdata.TableMarketSnapshots, "VALE3",
		Snapshot{Ticker: "VALE3", Price: Price{Current: f(55)}}, -time.Hour))

	upstream := new(mockProvider)
	upstream.On("Snapshot", mock.Anything, "VALE3").Return(nil, errors.New("upstream down"))

	s, err := NewCachedProvider(upstream, cache, time.Hour, testLogger()).Snapshot(context.Background(), "VALE3")
	require.NoError(t, err)
	assert.Equal(t, 55.0, *s.Price.Current)
	upstream.AssertExpectations(t)
}

func TestCachedProvider_NoCacheNoData(t *testing.T) {
	upstream := new(mockProvider)
	upstream.On("Snapshot", mock.Anything, "PETR4").Return(nil, ErrNoData)

	_, err := NewCachedProvider(upstream, setupCache(t), time.Hour, testLogger()).Snapshot(context.Background(), "PETR4")
	assert.ErrorIs(t, err, ErrNoData)
}
