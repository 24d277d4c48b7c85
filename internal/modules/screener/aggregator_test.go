package screener

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/fundamentals/internal/modules/catalog"
	"github.com/aristath/fundamentals/internal/modules/indicators"
	"github.com/aristath/fundamentals/internal/modules/market"
	"github.com/aristath/fundamentals/internal/modules/statements"
)

var rawHeader = []string{"CNPJ_CIA", "DT_REFER", "DENOM_CIA", "CD_CVM", "ESCALA_MOEDA", "ORDEM_EXERC", "CD_CONTA", "VL_CONTA"}

type firm struct {
	taxID, name, code string
}

var (
	alfa  = firm{"11.111.111/0001-11", "ALFA SA", "100"}
	beta  = firm{"22.222.222/0001-22", "BETA SA", "200"}
	gama  = firm{"33.333.333/0001-33", "GAMA SA", "300"}
	delta = firm{"44.444.444/0001-44", "DELTA SA", "400"}
)

func line(c firm, date, code string, value float64) []string {
	return []string{c.taxID, date, c.name, c.code, "UNIDADE", "ÚLTIMO", code, strconv.FormatFloat(value, 'f', -1, 64)}
}

func testGeneration() *statements.Generation {
	income := [][]string{
		line(alfa, "2022-12-31", "3.01", 800),
		line(alfa, "2022-12-31", "3.11", 60),
		line(alfa, "2023-12-31", "3.01", 1000),
		line(alfa, "2023-12-31", "3.05", 200),
		line(alfa, "2023-12-31", "3.11", 100),
		line(beta, "2023-12-31", "3.01", 500),
		line(beta, "2023-12-31", "3.05", 50),
		line(beta, "2023-12-31", "3.11", 25),
		line(gama, "2023-12-31", "3.01", 300),
		line(delta, "2023-06-30", "3.01", 90),
	}
	liabilities := [][]string{
		line(alfa, "2023-12-31", "2.03", 500),
		line(beta, "2023-12-31", "2.03", 250),
	}
	return statements.NewGeneration(map[catalog.Kind]statements.RawTable{
		catalog.Income:      statements.NewRawTable(rawHeader, income),
		catalog.Liabilities: statements.NewRawTable(rawHeader, liabilities),
	}, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
}

type fakeMarkets map[string]float64

func (f fakeMarkets) Snapshot(_ context.Context, ticker string) (*market.Snapshot, error) {
	if ticker == "GAMA3" {
		panic("corrupt snapshot")
	}
	mc, ok := f[ticker]
	if !ok {
		return nil, market.ErrNoData
	}
	return &market.Snapshot{Ticker: ticker, Valuation: market.Valuation{MarketCap: &mc}}, nil
}

func testUniverse() []Company {
	return []Company{
		{Ticker: "BETA3", TaxID: "22222222000122", RegulatorCode: "200", Name: "BETA SA", Sector: "Varejo"},
		{Ticker: "GAMA3", TaxID: "33333333000133", RegulatorCode: "300", Name: "GAMA SA"},
		{Ticker: "ALFA3", TaxID: "11111111000111", RegulatorCode: "100", Name: "ALFA SA", Sector: "Energia"},
		{Ticker: "DELT3", TaxID: "44444444000144", RegulatorCode: "400", Name: "DELTA SA"},
	}
}

func newTestAggregator() *Aggregator {
	return NewAggregator(fakeMarkets{"ALFA3": 2000, "BETA3": 1000}, zerolog.New(nil).Level(zerolog.Disabled))
}

func TestRun_IsolatesFailures(t *testing.T) {
	res, err := newTestAggregator().Run(context.Background(), testGeneration(), testUniverse())
	require.NoError(t, err)

	assert.Equal(t, 4, res.Total)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 1, res.Failed)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, "GAMA SA", res.Failures[0].Name)
	assert.Contains(t, res.Failures[0].Error, "corrupt snapshot")

	require.Len(t, res.Rows, 2)
	assert.Equal(t, "ALFA3", res.Rows[0].Ticker)
	assert.Equal(t, "BETA3", res.Rows[1].Ticker)
}

func TestRun_Indicators(t *testing.T) {
	res, err := newTestAggregator().Run(context.Background(), testGeneration(), testUniverse())
	require.NoError(t, err)

	alfaRow := res.Rows[0]
	assert.Equal(t, "2023-12-31", alfaRow.ReferenceDate)
	assert.Equal(t, 1000.0, *alfaRow.Indicators[indicators.KeyRevenue])
	assert.Equal(t, 10.0, *alfaRow.Indicators[indicators.KeyNetMargin])
	assert.Equal(t, 20.0, *alfaRow.Indicators[indicators.KeyROE])
	assert.Equal(t, 20.0, *alfaRow.Indicators["p_l"])
	assert.Equal(t, 4.0, *alfaRow.Indicators["p_vp"])
	assert.Equal(t, 2000.0, *alfaRow.MarketCap)

	assert.Equal(t, []string{"Energia", "Varejo"}, res.Sectors)
	assert.Equal(t, 20.0, *res.Medians["p_l"])
	assert.Equal(t, 4.0, *res.Medians["p_vp"])
}

func TestRun_Stats(t *testing.T) {
	res, err := newTestAggregator().Run(context.Background(), testGeneration(), testUniverse())
	require.NoError(t, err)

	revenue, ok := res.Stats[indicators.KeyRevenue]
	require.True(t, ok)
	require.NotNil(t, revenue.Mean)
	require.NotNil(t, revenue.Min)
	require.NotNil(t, revenue.Max)
	assert.Equal(t, 750.0, *revenue.Mean)
	assert.Equal(t, 500.0, *revenue.Min)
	assert.Equal(t, 1000.0, *revenue.Max)
	assert.Equal(t, 500.0, *res.Medians[indicators.KeyRevenue])
	assert.Len(t, res.Stats, len(res.Metrics))
}

func TestRun_WithoutMarkets(t *testing.T) {
	agg := NewAggregator(nil, zerolog.New(nil).Level(zerolog.Disabled))
	res, err := agg.Run(context.Background(), testGeneration(), testUniverse())
	require.NoError(t, err)

	assert.Zero(t, res.Failed)
	require.Len(t, res.Rows, 3)
	assert.Equal(t, "ALFA SA", res.Rows[0].Name)
	assert.Nil(t, res.Rows[0].Indicators["p_l"])
	assert.NotContains(t, res.Metrics, "p_l")
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestAggregator().Run(ctx, testGeneration(), testUniverse())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMetricOrder(t *testing.T) {
	rows := []Row{
		{Indicators: indicators.IndicatorSet{"zeta": f(1), indicators.KeyROE: f(2), "alpha": f(3), indicators.KeyRevenue: nil}},
		{Indicators: indicators.IndicatorSet{"p_l": f(4), indicators.KeyNetIncome: f(5)}},
	}
	assert.Equal(t, []string{indicators.KeyNetIncome, indicators.KeyROE, "p_l", "alpha", "zeta"}, MetricOrder(rows))
}

func TestRank(t *testing.T) {
	rows := []Row{
		{Name: "C", MarketCap: nil},
		{Name: "B", MarketCap: f(10)},
		{Name: "A", MarketCap: nil},
		{Name: "D", MarketCap: f(20)},
	}
	rank(rows)

	var names []string
	for _, r := range rows {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"D", "B", "A", "C"}, names)
}

func f(v float64) *float64 { return &v }
