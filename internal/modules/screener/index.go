package screener

import (
	"github.com/aristath/fundamentals/internal/modules/catalog"
	"github.com/aristath/fundamentals/internal/modules/statements"
)

// annualIndex holds the latest annual row per company for each statement
// kind, keyed by normalized tax id and by regulator code.
type annualIndex struct {
	byTaxID map[catalog.Kind]map[string]*statements.PeriodStatement
	byCode  map[catalog.Kind]map[string]*statements.PeriodStatement
}

func newAnnualIndex(gen *statements.Generation) *annualIndex {
	idx := &annualIndex{
		byTaxID: make(map[catalog.Kind]map[string]*statements.PeriodStatement),
		byCode:  make(map[catalog.Kind]map[string]*statements.PeriodStatement),
	}
	for _, kind := range statements.StatementKinds {
		taxIDs := make(map[string]*statements.PeriodStatement)
		codes := make(map[string]*statements.PeriodStatement)
		rows := gen.Statements(kind)
		for i := range rows {
			row := &rows[i]
			if c, ok := statements.ClassOf(row.ReferenceDate); !ok || c != statements.Annual {
				continue
			}
			keepLatest(taxIDs, statements.NormalizeTaxID(row.Company.TaxID), row)
			if row.Company.RegulatorCode != "" {
				keepLatest(codes, statements.NormalizeRegulatorCode(row.Company.RegulatorCode), row)
			}
		}
		idx.byTaxID[kind] = taxIDs
		idx.byCode[kind] = codes
	}
	return idx
}

func keepLatest(m map[string]*statements.PeriodStatement, key string, row *statements.PeriodStatement) {
	if key == "" {
		return
	}
	if cur, ok := m[key]; !ok || row.ReferenceDate.After(cur.ReferenceDate) {
		m[key] = row
	}
}

// latest returns the company's latest annual row per kind, nil where
// missing. The regulator code takes precedence over the tax id.
func (idx *annualIndex) latest(c Company) map[catalog.Kind]*statements.PeriodStatement {
	out := make(map[catalog.Kind]*statements.PeriodStatement, len(statements.StatementKinds))
	code := ""
	if c.RegulatorCode != "" {
		code = statements.NormalizeRegulatorCode(c.RegulatorCode)
	}
	taxID := statements.NormalizeTaxID(c.TaxID)
	for _, kind := range statements.StatementKinds {
		var row *statements.PeriodStatement
		if code != "" {
			row = idx.byCode[kind][code]
		}
		if row == nil && taxID != "" {
			row = idx.byTaxID[kind][taxID]
		}
		out[kind] = row
	}
	return out
}
