package indicators

import (
	"sort"

	"github.com/aristath/fundamentals/internal/modules/statements"
)

// PeriodIndicators is the indicator set of one reference date.
type PeriodIndicators struct {
	ReferenceDate string       `json:"dt_refer"`
	Indicators    IndicatorSet `json:"indicadores"`
}

// ComputePeriods computes one IndicatorSet per income row of class,
// matching balance-sheet and cash-flow rows with the same reference date.
// The result is ordered by date ascending.
func ComputePeriods(income, assets, liabilities, cashFlow []statements.PeriodStatement, class statements.PeriodClass) []PeriodIndicators {
	income = statements.ByPeriodClass(income, class)
	assetsByDate := dateIndex(statements.ByPeriodClass(assets, class))
	liabilitiesByDate := dateIndex(statements.ByPeriodClass(liabilities, class))
	cashFlowByDate := dateIndex(statements.ByPeriodClass(cashFlow, class))

	rows := make([]statements.PeriodStatement, 0, len(income))
	for _, r := range income {
		if !r.ReferenceDate.IsZero() {
			rows = append(rows, r)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].ReferenceDate.Before(rows[j].ReferenceDate)
	})

	out := make([]PeriodIndicators, 0, len(rows))
	for i := range rows {
		date := rows[i].RefText()
		set := Compute(InputsOf(&rows[i], assetsByDate[date], liabilitiesByDate[date], cashFlowByDate[date])).Set()
		out = append(out, PeriodIndicators{ReferenceDate: date, Indicators: set})
	}
	return out
}

func dateIndex(rows []statements.PeriodStatement) map[string]*statements.PeriodStatement {
	idx := make(map[string]*statements.PeriodStatement, len(rows))
	for i := range rows {
		if d := rows[i].RefText(); d != "" {
			if _, ok := idx[d]; !ok {
				idx[d] = &rows[i]
			}
		}
	}
	return idx
}
