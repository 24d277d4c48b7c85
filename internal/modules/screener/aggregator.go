// Package screener computes indicators across the company universe for
// cross-sectional ranking.
package screener

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/fundamentals/internal/modules/catalog"
	"github.com/aristath/fundamentals/internal/modules/indicators"
	"github.com/aristath/fundamentals/internal/modules/market"
	"github.com/aristath/fundamentals/internal/modules/statements"
	"github.com/aristath/fundamentals/pkg/formulas"
)

// PreferredMetrics lead the metric order; any other metric follows
// alphabetically.
var PreferredMetrics = []string{
	indicators.KeyRevenue,
	indicators.KeyNetIncome,
	indicators.KeyEBITDA,
	indicators.KeyGrossMargin,
	indicators.KeyEBITMargin,
	indicators.KeyEBITDAMargin,
	indicators.KeyNetMargin,
	indicators.KeyROE,
	indicators.KeyROA,
	indicators.KeyROIC,
	indicators.KeyNetDebtToEBITDA,
	indicators.KeyDebtToEquity,
	indicators.KeyFCF,
	indicators.KeyFCFMargin,
	indicators.KeyPayout,
	"p_l",
	"p_vp",
	"ev_ebitda",
	"ev_ebit",
	"ev_sales",
	"price_to_sales",
	"price_to_fcf",
}

// Company is one member of the screened universe.
type Company struct {
	Ticker        string
	Tickers       []string
	TaxID         string
	RegulatorCode string
	Name          string
	Sector        string
}

// Row is the screener line of one company.
type Row struct {
	Ticker        string                  `json:"ticker,omitempty"`
	Tickers       []string                `json:"tickers,omitempty"`
	Name          string                  `json:"nome"`
	TaxID         string                  `json:"cnpj"`
	RegulatorCode string                  `json:"cd_cvm"`
	Sector        string                  `json:"setor"`
	ReferenceDate string                  `json:"dt_refer"`
	Price         *float64                `json:"preco"`
	MarketCap     *float64                `json:"market_cap"`
	Indicators    indicators.IndicatorSet `json:"indicadores"`
}

// Failure records a company whose computation failed.
type Failure struct {
	Name  string `json:"nome"`
	TaxID string `json:"cnpj"`
	Error string `json:"erro"`
}

// Spread summarizes one metric across the screened rows.
type Spread struct {
	Mean *float64 `json:"media"`
	Min  *float64 `json:"minimo"`
	Max  *float64 `json:"maximo"`
}

// Result is a ranked screener table.
type Result struct {
	GenerationID string              `json:"generation_id"`
	GeneratedAt  time.Time           `json:"generated_at"`
	Rows         []Row               `json:"empresas"`
	Sectors      []string            `json:"setores"`
	Metrics      []string            `json:"metricas"`
	Medians      map[string]*float64 `json:"medianas"`
	Stats        map[string]Spread   `json:"estatisticas"`
	Total        int                 `json:"total"`
	Skipped      int                 `json:"sem_dados"`
	Failed       int                 `json:"falhas"`
	Failures     []Failure           `json:"erros"`
}

// Aggregator runs the indicator engine once per company over its latest
// annual statements and merges market multiples.
type Aggregator struct {
	markets market.Provider
	now     func() time.Time
	log     zerolog.Logger
}

// NewAggregator creates an aggregator. A nil provider skips market data.
func NewAggregator(markets market.Provider, log zerolog.Logger) *Aggregator {
	return &Aggregator{
		markets: markets,
		now:     time.Now,
		log:     log.With().Str("component", "screener").Logger(),
	}
}

// errNoStatements marks a company without annual statements. It is
// counted as skipped, not failed.
var errNoStatements = errors.New("no annual statements")

// Run screens universe against gen. A failing company is logged, counted
// and left out of the rows; the batch always completes unless ctx is
// cancelled.
func (a *Aggregator) Run(ctx context.Context, gen *statements.Generation, universe []Company) (*Result, error) {
	start := a.now()
	idx := newAnnualIndex(gen)

	res := &Result{
		GenerationID: gen.ID,
		GeneratedAt:  start,
		Rows:         []Row{},
		Failures:     []Failure{},
		Total:        len(universe),
	}
	for _, c := range universe {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		row, err := a.screen(ctx, idx, c)
		switch {
		case errors.Is(err, errNoStatements):
			res.Skipped++
		case err != nil:
			res.Failed++
			res.Failures = append(res.Failures, Failure{Name: c.Name, TaxID: c.TaxID, Error: err.Error()})
			a.log.Warn().Err(err).Str("company", c.Name).Str("cnpj", c.TaxID).Msg("Screening failed")
		default:
			res.Rows = append(res.Rows, row)
		}
	}

	rank(res.Rows)
	res.Sectors = sectors(res.Rows)
	res.Metrics = MetricOrder(res.Rows)
	res.Medians, res.Stats = summarize(res.Rows, res.Metrics)

	a.log.Info().
		Int("companies", res.Total).
		Int("rows", len(res.Rows)).
		Int("skipped", res.Skipped).
		Int("failed", res.Failed).
		Dur("duration", a.now().Sub(start)).
		Msg("Screener complete")
	return res, nil
}

// screen computes one company's row. Panics are converted to errors so a
// single malformed company cannot abort the batch.
func (a *Aggregator) screen(ctx context.Context, idx *annualIndex, c Company) (row Row, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	latest := idx.latest(c)
	if latest[catalog.Income] == nil {
		return Row{}, errNoStatements
	}

	result := indicators.Compute(indicators.InputsOf(
		latest[catalog.Income],
		latest[catalog.Assets],
		latest[catalog.Liabilities],
		latest[catalog.CashFlow],
	))
	set := result.Set()

	income := latest[catalog.Income]
	row = Row{
		Ticker:        c.Ticker,
		Tickers:       c.Tickers,
		Name:          c.Name,
		TaxID:         c.TaxID,
		RegulatorCode: c.RegulatorCode,
		Sector:        c.Sector,
		ReferenceDate: income.RefText(),
	}
	if row.Name == "" {
		row.Name = income.Company.Name
	}
	if row.TaxID == "" {
		row.TaxID = statements.NormalizeTaxID(income.Company.TaxID)
	}
	if row.RegulatorCode == "" {
		row.RegulatorCode = statements.NormalizeRegulatorCode(income.Company.RegulatorCode)
	}

	if snap := a.snapshot(ctx, c); snap != nil {
		m := snap.Market()
		row.Price = formulas.Clean(m.Price)
		row.MarketCap = indicators.MarketCapOf(m)
		for k, v := range indicators.ComputeMultiples(result.Base, m).Set() {
			set[k] = v
		}
		if row.Sector == "" {
			row.Sector = snap.Profile.Sector
		}
	}
	row.Indicators = set.Sanitize()
	return row, nil
}

// snapshot returns nil when market data is unavailable.
func (a *Aggregator) snapshot(ctx context.Context, c Company) *market.Snapshot {
	if a.markets == nil || c.Ticker == "" {
		return nil
	}
	s, err := a.markets.Snapshot(ctx, c.Ticker)
	if err != nil {
		if !errors.Is(err, market.ErrNoData) {
			a.log.Warn().Err(err).Str("ticker", c.Ticker).Msg("Market data unavailable")
		}
		return nil
	}
	return s
}

// rank orders by market capitalization descending, absent last, then by
// name.
func rank(rows []Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].MarketCap, rows[j].MarketCap
		switch {
		case a != nil && b != nil && *a != *b:
			return *a > *b
		case a != nil && b == nil:
			return true
		case a == nil && b != nil:
			return false
		}
		return rows[i].Name < rows[j].Name
	})
}

func sectors(rows []Row) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, r := range rows {
		s := strings.TrimSpace(r.Sector)
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}

// MetricOrder lists the metrics that have a value in at least one row:
// PreferredMetrics first, then the rest sorted.
func MetricOrder(rows []Row) []string {
	present := map[string]bool{}
	for _, r := range rows {
		for k, v := range r.Indicators {
			if v != nil {
				present[k] = true
			}
		}
	}

	out := make([]string, 0, len(present))
	for _, k := range PreferredMetrics {
		if present[k] {
			out = append(out, k)
			delete(present, k)
		}
	}
	rest := make([]string, 0, len(present))
	for k := range present {
		rest = append(rest, k)
	}
	sort.Strings(rest)
	return append(out, rest...)
}

func summarize(rows []Row, metrics []string) (map[string]*float64, map[string]Spread) {
	medians := make(map[string]*float64, len(metrics))
	stats := make(map[string]Spread, len(metrics))
	for _, k := range metrics {
		values := make([]float64, 0, len(rows))
		for _, r := range rows {
			if v := r.Indicators[k]; v != nil {
				values = append(values, *v)
			}
		}
		medians[k] = formulas.Round(formulas.Median(values), 2)
		lo, hi := formulas.Range(values)
		stats[k] = Spread{
			Mean: formulas.Round(formulas.Mean(values), 2),
			Min:  lo,
			Max:  hi,
		}
	}
	return medians, stats
}
