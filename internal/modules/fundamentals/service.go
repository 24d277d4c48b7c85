// Package fundamentals is the query surface over the loaded statement
// generation: statements, company financials, indicators, overviews and
// the screener.
package fundamentals

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/aristath/fundamentals/internal/modules/catalog"
	"github.com/aristath/fundamentals/internal/modules/identity"
	"github.com/aristath/fundamentals/internal/modules/indicators"
	"github.com/aristath/fundamentals/internal/modules/market"
	"github.com/aristath/fundamentals/internal/modules/screener"
	"github.com/aristath/fundamentals/internal/modules/statements"
)

var (
	// ErrUnknownKind is returned for a statement kind outside the catalog.
	ErrUnknownKind = errors.New("unknown statement kind")
	// ErrUnknownTicker is returned when a ticker is not in the ticker table.
	ErrUnknownTicker = errors.New("unknown ticker")
	// ErrMissingIdentity is returned when a company query names no company.
	ErrMissingIdentity = errors.New("ticker, cnpj or cd_cvm required")
	// ErrCompanyNotFound is returned when no statement matches a company.
	ErrCompanyNotFound = errors.New("company not found")
)

// Query selects statement rows. Identity fields are optional; a ticker is
// used only when neither tax id nor regulator code is given.
type Query struct {
	Ticker        string
	TaxID         string
	RegulatorCode string
	ReferenceDate string
	Period        statements.PeriodClass
}

// Service answers queries against the current generation.
type Service struct {
	store    *statements.Store
	load     statements.LoadFunc
	resolver *identity.Resolver
	markets  market.Provider
	screener *screener.Runner
	log      zerolog.Logger
}

// NewService wires the service. resolver, markets and runner may be nil.
func NewService(
	store *statements.Store,
	load statements.LoadFunc,
	resolver *identity.Resolver,
	markets market.Provider,
	runner *screener.Runner,
	log zerolog.Logger,
) *Service {
	if resolver == nil {
		resolver = identity.NewResolver(nil)
	}
	return &Service{
		store:    store,
		load:     load,
		resolver: resolver,
		markets:  markets,
		screener: runner,
		log:      log.With().Str("service", "fundamentals").Logger(),
	}
}

// ParseStatementKind accepts the served statement kinds (DRE, BPA, BPP, DFC).
func ParseStatementKind(s string) (catalog.Kind, error) {
	kind, ok := catalog.ParseKind(s)
	if ok {
		for _, k := range statements.StatementKinds {
			if k == kind {
				return kind, nil
			}
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// filter resolves the identity part of q.
func (s *Service) filter(q Query) (statements.IdentityFilter, error) {
	f := statements.IdentityFilter{TaxID: strings.TrimSpace(q.TaxID), RegulatorCode: strings.TrimSpace(q.RegulatorCode)}
	if !f.IsZero() || strings.TrimSpace(q.Ticker) == "" {
		return f, nil
	}
	resolved, ok := s.resolver.Filter(q.Ticker)
	if !ok {
		return f, fmt.Errorf("%w: %s", ErrUnknownTicker, strings.ToUpper(strings.TrimSpace(q.Ticker)))
	}
	return resolved, nil
}

func (s *Service) companyFilter(q Query) (statements.IdentityFilter, error) {
	f, err := s.filter(q)
	if err != nil {
		return f, err
	}
	if f.IsZero() {
		return f, ErrMissingIdentity
	}
	return f, nil
}

func selectRows[T statements.Row](rows []T, f statements.IdentityFilter, q Query) []T {
	rows = statements.ByIdentity(rows, f)
	rows = statements.ByPeriodClass(rows, q.Period)
	return statements.ByReferenceDate(rows, q.ReferenceDate)
}

// Statement returns pivoted rows of kind matching q.
func (s *Service) Statement(kind catalog.Kind, q Query) ([]statements.PeriodStatement, error) {
	gen, err := s.store.Current()
	if err != nil {
		return nil, err
	}
	f, err := s.filter(q)
	if err != nil {
		return nil, err
	}
	rows := selectRows(gen.Statements(kind), f, q)
	if rows == nil {
		rows = []statements.PeriodStatement{}
	}
	return rows, nil
}

// RawStatement returns cleaned long-format rows of kind matching q.
func (s *Service) RawStatement(kind catalog.Kind, q Query) ([]statements.AccountRecord, error) {
	gen, err := s.store.Current()
	if err != nil {
		return nil, err
	}
	f, err := s.filter(q)
	if err != nil {
		return nil, err
	}
	rows := selectRows(gen.Records(kind), f, q)
	if rows == nil {
		rows = []statements.AccountRecord{}
	}
	return rows, nil
}

// CompanyFinancials returns every statement table of one company keyed by
// kind. ErrCompanyNotFound is returned when all of them are empty.
func (s *Service) CompanyFinancials(q Query) (map[string][]statements.PeriodStatement, error) {
	gen, err := s.store.Current()
	if err != nil {
		return nil, err
	}
	f, err := s.companyFilter(q)
	if err != nil {
		return nil, err
	}

	out := make(map[string][]statements.PeriodStatement, len(statements.StatementKinds))
	found := false
	for _, kind := range statements.StatementKinds {
		rows := statements.ByIdentity(gen.Statements(kind), f)
		if rows == nil {
			rows = []statements.PeriodStatement{}
		}
		found = found || len(rows) > 0
		out[string(kind)] = rows
	}
	if !found {
		return nil, ErrCompanyNotFound
	}
	return out, nil
}

// companyTables narrows every statement table to one company.
func companyTables(gen *statements.Generation, f statements.IdentityFilter) (income, assets, liabilities, cashFlow []statements.PeriodStatement) {
	return statements.ByIdentity(gen.Statements(catalog.Income), f),
		statements.ByIdentity(gen.Statements(catalog.Assets), f),
		statements.ByIdentity(gen.Statements(catalog.Liabilities), f),
		statements.ByIdentity(gen.Statements(catalog.CashFlow), f)
}

// Overview computes the indicator bundle of one company and, when asked,
// augments it with market data. A market failure is reported on the
// result instead of failing the call.
func (s *Service) Overview(ctx context.Context, q Query, includeMarket bool) (*market.CombinedOverview, error) {
	gen, err := s.store.Current()
	if err != nil {
		return nil, err
	}
	f, err := s.companyFilter(q)
	if err != nil {
		return nil, err
	}

	income, assets, liabilities, cashFlow := companyTables(gen, f)
	if len(income)+len(assets)+len(liabilities)+len(cashFlow) == 0 {
		return nil, ErrCompanyNotFound
	}

	ov := indicators.ComputeOverview(indicators.OverviewInput{
		IncomeQuarterly: statements.ByPeriodClass(income, statements.Quarterly),
		Assets:          assets,
		Liabilities:     liabilities,
		CashFlowAnnual:  statements.ByPeriodClass(cashFlow, statements.Annual),
		IncomeAnnual:    statements.ByPeriodClass(income, statements.Annual),
	})

	if !includeMarket || s.markets == nil {
		return market.Combine(&ov, nil), nil
	}

	ticker := strings.TrimSpace(q.Ticker)
	if ticker == "" {
		t, ok := s.resolver.TickerFor(f)
		if !ok {
			return market.Combine(&ov, nil), nil
		}
		ticker = t
	}

	snap, err := s.markets.Snapshot(ctx, ticker)
	if err != nil {
		s.log.Warn().Err(err).Str("ticker", ticker).Msg("Market data unavailable for overview")
		return market.WithError(&ov, err), nil
	}
	return market.Combine(&ov, snap), nil
}

// Indicators computes one IndicatorSet per reference date of class for
// one company.
func (s *Service) Indicators(q Query) ([]indicators.PeriodIndicators, error) {
	gen, err := s.store.Current()
	if err != nil {
		return nil, err
	}
	f, err := s.companyFilter(q)
	if err != nil {
		return nil, err
	}
	income, assets, liabilities, cashFlow := companyTables(gen, f)
	return indicators.ComputePeriods(income, assets, liabilities, cashFlow, q.Period), nil
}

// Accounts lists the tracked accounts of a source kind
// (DRE, BPA, BPP, DFC_MI, DFC_MD).
func (s *Service) Accounts(kind string) ([]catalog.Account, error) {
	k, ok := catalog.ParseKind(kind)
	if !ok || k == catalog.CashFlow {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return catalog.Accounts(k), nil
}

// Companies lists the companies of the current generation, optionally
// narrowed by a case-insensitive name substring.
func (s *Service) Companies(search string) ([]statements.CompanyIdentity, error) {
	gen, err := s.store.Current()
	if err != nil {
		return nil, err
	}
	search = strings.ToUpper(strings.TrimSpace(search))
	all := gen.Companies()
	if search == "" {
		return all, nil
	}
	out := []statements.CompanyIdentity{}
	for _, c := range all {
		if strings.Contains(strings.ToUpper(c.Name), search) {
			out = append(out, c)
		}
	}
	return out, nil
}

// Search finds companies by ticker or name.
func (s *Service) Search(query string) ([]identity.Match, error) {
	gen, err := s.store.Current()
	if err != nil {
		return nil, err
	}
	return s.resolver.Search(query, gen.Companies()), nil
}

// Screener returns the screener table of the current generation. refresh
// bypasses the cache.
func (s *Service) Screener(ctx context.Context, refresh bool) (*screener.Result, bool, error) {
	gen, err := s.store.Current()
	if err != nil {
		return nil, false, err
	}
	if s.screener == nil {
		return nil, false, errors.New("screener not configured")
	}

	universe := screener.Universe(gen, s.resolver)
	if refresh {
		res, err := s.screener.Refresh(ctx, gen, universe)
		return res, false, err
	}
	return s.screener.Get(ctx, gen, universe)
}

// Status reports the load state.
func (s *Service) Status() statements.Status {
	return s.store.Status()
}

// Reload loads a new generation and swaps it in.
func (s *Service) Reload(ctx context.Context) error {
	return s.store.Reload(ctx, s.load)
}

// ReloadAsync starts a reload in the background. It reports false when a
// reload is already running.
func (s *Service) ReloadAsync() bool {
	return s.store.StartReload(context.Background(), s.load, func(err error) {
		if err != nil {
			s.log.Error().Err(err).Msg("Background reload failed")
		}
	})
}
