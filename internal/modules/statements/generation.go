package statements

import (
	"time"

	"github.com/google/uuid"

	"github.com/aristath/fundamentals/internal/modules/catalog"
)

// StatementKinds are the tables a generation serves, in presentation order.
var StatementKinds = []catalog.Kind{catalog.Income, catalog.Assets, catalog.Liabilities, catalog.CashFlow}

// Generation is one complete, immutable load of the regulator tables.
// Readers hold a pointer to it; a reload builds a new one and swaps it in.
type Generation struct {
	ID       string
	LoadedAt time.Time

	records    map[catalog.Kind][]AccountRecord
	statements map[catalog.Kind][]PeriodStatement
	companies  []CompanyIdentity
}

// NewGeneration cleans and pivots the raw tables. tables is keyed by source
// kind (DRE, BPA, BPP, DFC_MI, DFC_MD); the two cash-flow methods are merged
// into a single DFC table.
func NewGeneration(tables map[catalog.Kind]RawTable, loadedAt time.Time) *Generation {
	g := &Generation{
		ID:         uuid.NewString(),
		LoadedAt:   loadedAt,
		records:    make(map[catalog.Kind][]AccountRecord),
		statements: make(map[catalog.Kind][]PeriodStatement),
	}

	for _, kind := range []catalog.Kind{catalog.Income, catalog.Assets, catalog.Liabilities} {
		t, ok := tables[kind]
		if !ok {
			continue
		}
		cleaned := Clean(t)
		g.records[kind] = cleaned
		g.statements[kind] = Pivot(cleaned, kind)
	}

	indirect, hasIndirect := tables[catalog.CashFlowIndirect]
	direct, hasDirect := tables[catalog.CashFlowDirect]
	if hasIndirect || hasDirect {
		cashFlow := CombineCashFlow(Clean(indirect), Clean(direct))
		if len(cashFlow) > 0 {
			g.records[catalog.CashFlow] = cashFlow
			g.statements[catalog.CashFlow] = Pivot(cashFlow, catalog.CashFlow)
		}
	}

	all := make([][]AccountRecord, 0, len(StatementKinds))
	for _, kind := range StatementKinds {
		all = append(all, g.records[kind])
	}
	g.companies = Companies(all...)
	return g
}

// Statements returns the pivoted table for kind. The slice must not be modified.
func (g *Generation) Statements(kind catalog.Kind) []PeriodStatement {
	return g.statements[kind]
}

// Records returns the cleaned long-format table for kind.
func (g *Generation) Records(kind catalog.Kind) []AccountRecord {
	return g.records[kind]
}

// Companies returns the distinct companies seen in this generation.
func (g *Generation) Companies() []CompanyIdentity {
	return g.companies
}

// RowCounts reports the size of every table, keyed like the source layout
// (DRE for the pivot, DRE_raw for the cleaned table).
func (g *Generation) RowCounts() map[string]int {
	counts := map[string]int{"empresas": len(g.companies)}
	for kind, rows := range g.statements {
		counts[string(kind)] = len(rows)
	}
	for kind, rows := range g.records {
		counts[string(kind)+"_raw"] = len(rows)
	}
	return counts
}
