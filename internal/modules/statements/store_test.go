package statements

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/fundamentals/internal/modules/catalog"
)

func sampleTables() map[catalog.Kind]RawTable {
	return map[catalog.Kind]RawTable{
		catalog.Income: NewRawTable(testHeader, [][]string{
			row("1", "2023-12-31", "ÚLTIMO", "3.01", "100", "MIL"),
		}),
		catalog.Assets: NewRawTable(testHeader, [][]string{
			row("1", "2023-12-31", "ÚLTIMO", "1", "900", "MIL"),
		}),
		catalog.CashFlowDirect: NewRawTable(testHeader, [][]string{
			row("1", "2023-12-31", "ÚLTIMO", "6.01", "40", "MIL"),
		}),
	}
}

func TestNewGeneration(t *testing.T) {
	g := NewGeneration(sampleTables(), time.Now())

	assert.NotEmpty(t, g.ID)
	assert.Len(t, g.Statements(catalog.Income), 1)
	assert.Len(t, g.Statements(catalog.Assets), 1)
	assert.Empty(t, g.Statements(catalog.Liabilities))
	require.Len(t, g.Statements(catalog.CashFlow), 1)
	assert.Equal(t, 40000.0, g.Statements(catalog.CashFlow)[0].Accounts[catalog.OperatingCash])
	require.Len(t, g.Companies(), 1)
	assert.Equal(t, "ACME SA", g.Companies()[0].Name)

	counts := g.RowCounts()
	assert.Equal(t, 1, counts["DRE"])
	assert.Equal(t, 1, counts["DRE_raw"])
	assert.Equal(t, 1, counts["DFC"])
	assert.Equal(t, 1, counts["empresas"])
}

func TestStore_NotLoaded(t *testing.T) {
	s := NewStore(zerolog.New(nil).Level(zerolog.Disabled))

	_, err := s.Current()
	assert.ErrorIs(t, err, ErrNotLoaded)

	st := s.Status()
	assert.False(t, st.Loaded)
	assert.Nil(t, st.LastUpdate)
}

func TestStore_ReloadSwapsGeneration(t *testing.T) {
	s := NewStore(zerolog.New(nil).Level(zerolog.Disabled))

	err := s.Reload(context.Background(), func(ctx context.Context) (*Generation, error) {
		return NewGeneration(sampleTables(), time.Now()), nil
	})
	require.NoError(t, err)

	first, err := s.Current()
	require.NoError(t, err)

	err = s.Reload(context.Background(), func(ctx context.Context) (*Generation, error) {
		return NewGeneration(sampleTables(), time.Now()), nil
	})
	require.NoError(t, err)

	second, err := s.Current()
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	st := s.Status()
	assert.True(t, st.Loaded)
	assert.False(t, st.Loading)
	assert.Nil(t, st.LoadError)
	assert.Equal(t, second.ID, st.GenerationID)
}

func TestStore_FailedReloadKeepsPrevious(t *testing.T) {
	s := NewStore(zerolog.New(nil).Level(zerolog.Disabled))
	g := NewGeneration(sampleTables(), time.Now())
	s.Swap(g)

	err := s.Reload(context.Background(), func(ctx context.Context) (*Generation, error) {
		return nil, errors.New("source unavailable")
	})
	require.Error(t, err)

	current, err := s.Current()
	require.NoError(t, err)
	assert.Equal(t, g.ID, current.ID)

	st := s.Status()
	require.NotNil(t, st.LoadError)
	assert.Contains(t, *st.LoadError, "source unavailable")
}

func TestStore_ConcurrentReloadRejected(t *testing.T) {
	s := NewStore(zerolog.New(nil).Level(zerolog.Disabled))

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		done <- s.Reload(context.Background(), func(ctx context.Context) (*Generation, error) {
			close(started)
			<-release
			return NewGeneration(sampleTables(), time.Now()), nil
		})
	}()

	<-started
	assert.True(t, s.Loading())
	assert.True(t, s.Status().Loading)

	err := s.Reload(context.Background(), func(ctx context.Context) (*Generation, error) {
		t.Fatal("second loader must not run")
		return nil, nil
	})
	assert.ErrorIs(t, err, ErrAlreadyLoading)

	close(release)
	require.NoError(t, <-done)
	assert.False(t, s.Loading())
}

func TestStore_StartReloadClaimsSlotBeforeReturning(t *testing.T) {
	s := NewStore(zerolog.New(nil).Level(zerolog.Disabled))

	release := make(chan struct{})
	done := make(chan error, 1)
	load := func(ctx context.Context) (*Generation, error) {
		<-release
		return NewGeneration(sampleTables(), time.Now()), nil
	}

	require.True(t, s.StartReload(context.Background(), load, func(err error) { done <- err }))
	assert.True(t, s.Loading())
	assert.False(t, s.StartReload(context.Background(), load, func(error) {
		t.Error("rejected reload must not report completion")
	}))
	assert.ErrorIs(t, s.Reload(context.Background(), load), ErrAlreadyLoading)

	close(release)
	require.NoError(t, <-done)
	assert.False(t, s.Loading())

	_, err := s.Current()
	require.NoError(t, err)
}
