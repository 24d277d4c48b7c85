package statements

import (
	"sort"

	"github.com/aristath/fundamentals/internal/modules/catalog"
)

type groupKey struct {
	taxID   string
	name    string
	code    string
	refDate string
}

// Pivot reshapes cleaned records into one PeriodStatement per (company,
// reference date). Codes the catalog does not track for kind are dropped.
// When two records of a group map to the same label the first value wins.
// Records without a reference date or value contribute nothing.
func Pivot(records []AccountRecord, kind catalog.Kind) []PeriodStatement {
	index := make(map[groupKey]int)
	out := make([]PeriodStatement, 0)

	for _, r := range records {
		label, ok := catalog.LabelFor(kind, r.AccountCode)
		if !ok || r.ReferenceDate.IsZero() || r.Value == nil {
			continue
		}
		key := groupKey{r.Company.TaxID, r.Company.Name, r.Company.RegulatorCode, r.ReferenceText}
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, PeriodStatement{
				Kind:          kind,
				Company:       r.Company,
				ReferenceDate: r.ReferenceDate,
				Accounts:      map[string]float64{},
			})
		}
		if _, taken := out[i].Accounts[label]; !taken {
			out[i].Accounts[label] = *r.Value
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Company.TaxID != b.Company.TaxID {
			return a.Company.TaxID < b.Company.TaxID
		}
		if a.Company.Name != b.Company.Name {
			return a.Company.Name < b.Company.Name
		}
		if a.Company.RegulatorCode != b.Company.RegulatorCode {
			return a.Company.RegulatorCode < b.Company.RegulatorCode
		}
		return a.ReferenceDate.Before(b.ReferenceDate)
	})
	return out
}

// CombineCashFlow builds the combined cash-flow table: indirect-method rows
// as they are, plus direct-method rows for (tax id, reference date) pairs
// the indirect table does not cover.
func CombineCashFlow(indirect, direct []AccountRecord) []AccountRecord {
	type periodKey struct{ taxID, refDate string }

	covered := make(map[periodKey]bool, len(indirect))
	for _, r := range indirect {
		covered[periodKey{r.Company.TaxID, r.ReferenceText}] = true
	}

	out := make([]AccountRecord, 0, len(indirect)+len(direct))
	out = append(out, indirect...)
	for _, r := range direct {
		if !covered[periodKey{r.Company.TaxID, r.ReferenceText}] {
			out = append(out, r)
		}
	}
	return out
}

// Companies returns the distinct companies across tables, first occurrence
// per tax id, sorted by name.
func Companies(tables ...[]AccountRecord) []CompanyIdentity {
	seen := map[string]bool{}
	var out []CompanyIdentity
	for _, t := range tables {
		for _, r := range t {
			if r.Company.TaxID == "" || seen[r.Company.TaxID] {
				continue
			}
			seen[r.Company.TaxID] = true
			out = append(out, r.Company)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	if out == nil {
		out = []CompanyIdentity{}
	}
	return out
}
