package fundamentals

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/fundamentals/internal/modules/catalog"
	"github.com/aristath/fundamentals/internal/modules/identity"
	"github.com/aristath/fundamentals/internal/modules/market"
	"github.com/aristath/fundamentals/internal/modules/screener"
	"github.com/aristath/fundamentals/internal/modules/statements"
)

var rawHeader = []string{"CNPJ_CIA", "DT_REFER", "DENOM_CIA", "CD_CVM", "ESCALA_MOEDA", "ORDEM_EXERC", "CD_CONTA", "VL_CONTA"}

const (
	acmeTaxID = "33.000.167/0001-01"
	acmeCode  = "009512"
)

func line(date, code string, value float64) []string {
	return []string{acmeTaxID, date, "ACME SA", acmeCode, "MIL", "ÚLTIMO", code, strconv.FormatFloat(value, 'f', -1, 64)}
}

func testGeneration() *statements.Generation {
	income := [][]string{
		line("2022-12-31", "3.01", 800),
		line("2022-12-31", "3.11", 80),
		line("2023-06-30", "3.01", 450),
		line("2023-12-31", "3.01", 1000),
		line("2023-12-31", "3.05", 200),
		line("2023-12-31", "3.11", 100),
	}
	liabilities := [][]string{
		line("2023-12-31", "2.03", 500),
	}
	return statements.NewGeneration(map[catalog.Kind]statements.RawTable{
		catalog.Income:      statements.NewRawTable(rawHeader, income),
		catalog.Liabilities: statements.NewRawTable(rawHeader, liabilities),
	}, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
}

type stubMarkets struct {
	snap *market.Snapshot
	err  error
}

func (s stubMarkets) Snapshot(context.Context, string) (*market.Snapshot, error) {
	return s.snap, s.err
}

func newTestService(t *testing.T, markets market.Provider) *Service {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	entries, err := identity.ReadEntries(strings.NewReader("ACME3;33000167000101;9512;ACME SA;Energia\n"))
	require.NoError(t, err)

	store := statements.NewStore(log)
	store.Swap(testGeneration())
	load := func(context.Context) (*statements.Generation, error) { return testGeneration(), nil }
	runner := screener.NewRunner(screener.NewAggregator(markets, log), nil, time.Hour, log)
	return NewService(store, load, identity.NewResolver(entries), markets, runner, log)
}

func TestService_NotLoaded(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	svc := NewService(statements.NewStore(log), nil, nil, nil, nil, log)

	_, err := svc.Statement(catalog.Income, Query{})
	assert.ErrorIs(t, err, statements.ErrNotLoaded)
	_, err = svc.Companies("")
	assert.ErrorIs(t, err, statements.ErrNotLoaded)
	assert.False(t, svc.Status().Loaded)
}

func TestService_Statement(t *testing.T) {
	svc := newTestService(t, nil)

	tests := []struct {
		name  string
		query Query
		dates []string
		err   error
	}{
		{"all rows", Query{}, []string{"2022-12-31", "2023-06-30", "2023-12-31"}, nil},
		{"by ticker", Query{Ticker: "acme3"}, []string{"2022-12-31", "2023-06-30", "2023-12-31"}, nil},
		{"by regulator code", Query{RegulatorCode: "9512", Period: statements.Annual}, []string{"2022-12-31", "2023-12-31"}, nil},
		{"by tax id and date", Query{TaxID: "33000167000101", ReferenceDate: "2023-06-30"}, []string{"2023-06-30"}, nil},
		{"quarterly", Query{Period: statements.Quarterly}, []string{"2023-06-30"}, nil},
		{"other company", Query{RegulatorCode: "1"}, []string{}, nil},
		{"unknown ticker", Query{Ticker: "NOPE3"}, nil, ErrUnknownTicker},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := svc.Statement(catalog.Income, tt.query)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			dates := []string{}
			for _, r := range rows {
				dates = append(dates, r.RefText())
			}
			assert.Equal(t, tt.dates, dates)
		})
	}
}

func TestService_RawStatement(t *testing.T) {
	svc := newTestService(t, nil)

	rows, err := svc.RawStatement(catalog.Income, Query{ReferenceDate: "2023-12-31"})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, 1000000.0, *rows[0].Value)
}

func TestService_CompanyFinancials(t *testing.T) {
	svc := newTestService(t, nil)

	out, err := svc.CompanyFinancials(Query{RegulatorCode: "9512"})
	require.NoError(t, err)
	assert.Len(t, out["DRE"], 3)
	assert.Len(t, out["BPP"], 1)
	assert.NotNil(t, out["DFC"])
	assert.Empty(t, out["DFC"])

	_, err = svc.CompanyFinancials(Query{RegulatorCode: "1"})
	assert.ErrorIs(t, err, ErrCompanyNotFound)
	_, err = svc.CompanyFinancials(Query{})
	assert.ErrorIs(t, err, ErrMissingIdentity)
}

func TestService_Overview(t *testing.T) {
	mc := 2000000.0
	svc := newTestService(t, stubMarkets{snap: &market.Snapshot{Ticker: "ACME3", Valuation: market.Valuation{MarketCap: &mc}}})

	ov, err := svc.Overview(context.Background(), Query{RegulatorCode: "9512"}, true)
	require.NoError(t, err)
	require.NotNil(t, ov.Company)
	assert.Equal(t, "ACME SA", ov.Company.Name)
	assert.Equal(t, 10.0, *ov.Margins.Net)
	require.NotNil(t, ov.ValuationCalculated)
	assert.Equal(t, 20.0, *ov.ValuationCalculated.PriceToEarnings)
	assert.Nil(t, ov.MarketError)

	ov, err = svc.Overview(context.Background(), Query{Ticker: "ACME3"}, false)
	require.NoError(t, err)
	assert.Nil(t, ov.ValuationCalculated)
}

func TestService_OverviewMarketFailure(t *testing.T) {
	svc := newTestService(t, stubMarkets{err: errors.New("quote service down")})

	ov, err := svc.Overview(context.Background(), Query{Ticker: "ACME3"}, true)
	require.NoError(t, err)
	require.NotNil(t, ov.MarketError)
	assert.Equal(t, "quote service down", *ov.MarketError)
	assert.Equal(t, 10.0, *ov.Margins.Net)
}

func TestService_Indicators(t *testing.T) {
	svc := newTestService(t, nil)

	periods, err := svc.Indicators(Query{Ticker: "ACME3", Period: statements.Annual})
	require.NoError(t, err)
	require.Len(t, periods, 2)
	assert.Equal(t, "2022-12-31", periods[0].ReferenceDate)
	assert.Equal(t, 10.0, *periods[0].Indicators["margem_liquida"])
}

func TestService_AccountsAndKinds(t *testing.T) {
	svc := newTestService(t, nil)

	accounts, err := svc.Accounts("dfc_md")
	require.NoError(t, err)
	assert.NotEmpty(t, accounts)

	_, err = svc.Accounts("DFC")
	assert.ErrorIs(t, err, ErrUnknownKind)

	kind, err := ParseStatementKind("dfc")
	require.NoError(t, err)
	assert.Equal(t, catalog.CashFlow, kind)
	_, err = ParseStatementKind("DFC_MI")
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestService_CompaniesAndSearch(t *testing.T) {
	svc := newTestService(t, nil)

	companies, err := svc.Companies("acme")
	require.NoError(t, err)
	require.Len(t, companies, 1)

	companies, err = svc.Companies("zzz")
	require.NoError(t, err)
	assert.Empty(t, companies)

	matches, err := svc.Search("ACM")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "9512", matches[0].RegulatorCode)
}

func TestService_Screener(t *testing.T) {
	svc := newTestService(t, nil)

	res, cached, err := svc.Screener(context.Background(), false)
	require.NoError(t, err)
	assert.False(t, cached)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "ACME3", res.Rows[0].Ticker)
	assert.Equal(t, []string{"Energia"}, res.Sectors)
}

func TestService_ReloadAsyncAcceptsOneConcurrentRequest(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	store := statements.NewStore(log)

	release := make(chan struct{})
	var loads atomic.Int32
	load := func(ctx context.Context) (*statements.Generation, error) {
		loads.Add(1)
		<-release
		return statements.NewGeneration(map[catalog.Kind]statements.RawTable{}, time.Now()), nil
	}
	svc := NewService(store, load, nil, nil, nil, log)

	var accepted atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if svc.ReloadAsync() {
				accepted.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), accepted.Load())
	assert.True(t, svc.Status().Loading)

	close(release)
	assert.Eventually(t, func() bool { return !svc.Status().Loading }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), loads.Load())
}

func TestService_Reload(t *testing.T) {
	svc := newTestService(t, nil)
	before := svc.Status().GenerationID

	require.NoError(t, svc.Reload(context.Background()))
	assert.NotEqual(t, before, svc.Status().GenerationID)
}
