package indicators

import (
	"sort"

	"github.com/aristath/fundamentals/internal/modules/statements"
)

// TimeseriesPoint is one dated value of a history series.
type TimeseriesPoint struct {
	Date  string  `json:"dt"`
	Value float64 `json:"value"`
}

// History maps a metric name to its points in ascending date order.
// Years without the inputs for a metric have no point.
type History map[string][]TimeseriesPoint

// historyKeys are the metrics emitted per fiscal year.
var historyKeys = []string{
	KeyRevenue, KeyNetIncome, KeyEBIT, KeyEBITDA,
	KeyGrossMargin, KeyEBITMargin, KeyEBITDAMargin, KeyNetMargin, KeyFCFMargin,
	KeyROA, KeyROE, KeyROIC,
	KeyNetDebt, KeyDebtToEquity, KeyNetDebtToEBITDA,
	KeyOperatingCash, KeyFCF, KeyPayout,
}

// yearIndex picks, per calendar year, the row with the latest month.
func yearIndex(rows []statements.PeriodStatement) map[int]*statements.PeriodStatement {
	idx := make(map[int]*statements.PeriodStatement)
	for i := range rows {
		r := &rows[i]
		if r.ReferenceDate.IsZero() {
			continue
		}
		y := r.ReferenceDate.Year()
		if cur, ok := idx[y]; !ok || r.ReferenceDate.Month() > cur.ReferenceDate.Month() {
			idx[y] = r
		}
	}
	return idx
}

// BuildHistory aligns annual income rows with the balance-sheet and
// cash-flow rows of the same fiscal year and emits one point per metric per
// year where the metric could be computed.
func BuildHistory(incomeAnnual, assets, liabilities, cashFlow []statements.PeriodStatement) History {
	income := make([]statements.PeriodStatement, 0, len(incomeAnnual))
	for _, r := range incomeAnnual {
		if !r.ReferenceDate.IsZero() {
			income = append(income, r)
		}
	}
	sort.SliceStable(income, func(i, j int) bool {
		return income[i].ReferenceDate.Before(income[j].ReferenceDate)
	})

	assetsByYear := yearIndex(assets)
	liabilitiesByYear := yearIndex(liabilities)
	cashFlowByYear := yearIndex(cashFlow)

	h := make(History, len(historyKeys))
	for _, key := range historyKeys {
		h[key] = []TimeseriesPoint{}
	}

	for i := range income {
		row := &income[i]
		y := row.ReferenceDate.Year()
		set := Compute(InputsOf(row, assetsByYear[y], liabilitiesByYear[y], cashFlowByYear[y])).Set()
		date := row.RefText()
		for _, key := range historyKeys {
			if v := set[key]; v != nil {
				h[key] = append(h[key], TimeseriesPoint{Date: date, Value: *v})
			}
		}
	}
	return h
}
