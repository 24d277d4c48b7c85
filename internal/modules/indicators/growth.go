package indicators

import (
	"math"

	"github.com/aristath/fundamentals/internal/modules/catalog"
	"github.com/aristath/fundamentals/internal/modules/statements"
	"github.com/aristath/fundamentals/pkg/formulas"
)

// Point is one (fiscal year, value) observation.
type Point struct {
	Year  int
	Value float64
}

// CAGR returns the compound annual growth rate, as a percentage rounded to
// two decimals, from a start point roughly horizon years before the last
// point of series. series must be ordered by year ascending.
//
// The start is the latest non-zero point at or before end-horizon. When no
// point is that old, the earliest non-zero point is used instead and the
// implied horizon is shorter. The result is nil when fewer than two points
// exist, when start and end share a year, or when either value is not
// positive.
func CAGR(series []Point, horizon int) *float64 {
	if len(series) < 2 {
		return nil
	}
	end := series[len(series)-1]
	if end.Value == 0 || math.IsNaN(end.Value) {
		return nil
	}

	target := end.Year - horizon
	var start *Point
	for i := range series {
		p := series[i]
		if p.Value == 0 || math.IsNaN(p.Value) {
			continue
		}
		if p.Year > target {
			break
		}
		start = &series[i]
	}
	if start == nil {
		for i := range series {
			if series[i].Value != 0 && !math.IsNaN(series[i].Value) {
				start = &series[i]
				break
			}
		}
	}
	if start == nil || start.Year >= end.Year {
		return nil
	}
	if start.Value <= 0 || end.Value <= 0 {
		return nil
	}

	years := float64(end.Year - start.Year)
	return formulas.Pct(formulas.Finite(math.Pow(end.Value/start.Value, 1/years) - 1))
}

// SeriesOf extracts the non-zero values of label from rows, one point per
// row, keyed by the reference year. rows are expected in date order.
func SeriesOf(rows []statements.PeriodStatement, label string) []Point {
	out := make([]Point, 0, len(rows))
	for _, r := range rows {
		if r.ReferenceDate.IsZero() {
			continue
		}
		v, ok := r.Accounts[label]
		if !ok || v == 0 {
			continue
		}
		out = append(out, Point{Year: r.ReferenceDate.Year(), Value: v})
	}
	return out
}

// Growth holds the overview growth block.
type Growth struct {
	Revenue3y    *float64 `json:"receita_3y"`
	Revenue5y    *float64 `json:"receita_5y"`
	Revenue10y   *float64 `json:"receita_10y"`
	NetIncome3y  *float64 `json:"lucro_3y"`
	NetIncome5y  *float64 `json:"lucro_5y"`
	NetIncome10y *float64 `json:"lucro_10y"`
	EBIT3y       *float64 `json:"ebit_3y"`
	EBIT5y       *float64 `json:"ebit_5y"`
	EBIT10y      *float64 `json:"ebit_10y"`
}

// GrowthOf computes revenue, net income and EBIT growth over annual rows.
func GrowthOf(annual []statements.PeriodStatement) Growth {
	revenue := SeriesOf(annual, catalog.Revenue)
	netIncome := SeriesOf(annual, catalog.NetIncome)
	ebit := SeriesOf(annual, catalog.EBIT)
	return Growth{
		Revenue3y:    CAGR(revenue, 3),
		Revenue5y:    CAGR(revenue, 5),
		Revenue10y:   CAGR(revenue, 10),
		NetIncome3y:  CAGR(netIncome, 3),
		NetIncome5y:  CAGR(netIncome, 5),
		NetIncome10y: CAGR(netIncome, 10),
		EBIT3y:       CAGR(ebit, 3),
		EBIT5y:       CAGR(ebit, 5),
		EBIT10y:      CAGR(ebit, 10),
	}
}
