package indicators

import (
	"github.com/aristath/fundamentals/pkg/formulas"
)

// Market is the market-derived input to valuation multiples.
type Market struct {
	Price           *float64
	Shares          *float64
	MarketCap       *float64
	EnterpriseValue *float64
}

// Multiples are valuation ratios recomputed from regulator figures.
type Multiples struct {
	PriceToEarnings *float64 `json:"p_l"`
	PriceToBook     *float64 `json:"p_vp"`
	EVToEBITDA      *float64 `json:"ev_ebitda"`
	EVToEBIT        *float64 `json:"ev_ebit"`
	EVToSales       *float64 `json:"ev_sales"`
	PriceToSales    *float64 `json:"price_to_sales"`
	PriceToFCF      *float64 `json:"price_to_fcf"`
}

// MarketCapOf returns the market capitalization, falling back to price
// times shares outstanding.
func MarketCapOf(m Market) *float64 {
	if m.MarketCap != nil {
		return formulas.Clean(m.MarketCap)
	}
	return formulas.Clean(formulas.Mul(m.Price, m.Shares))
}

// EnterpriseValueOf returns the enterprise value, falling back to market
// capitalization plus net debt.
func EnterpriseValueOf(m Market, b Base) *float64 {
	if m.EnterpriseValue != nil {
		return formulas.Clean(m.EnterpriseValue)
	}
	return formulas.Clean(formulas.Add(MarketCapOf(m), b.NetDebt))
}

// ComputeMultiples divides market values by regulator figures. A
// non-positive or missing denominator leaves the multiple absent.
func ComputeMultiples(b Base, m Market) Multiples {
	mc := MarketCapOf(m)
	ev := EnterpriseValueOf(m, b)
	return Multiples{
		PriceToEarnings: ratio(mc, b.NetIncome),
		PriceToBook:     ratio(mc, b.Equity),
		EVToEBITDA:      ratio(ev, b.EBITDA),
		EVToEBIT:        ratio(ev, b.EBIT),
		EVToSales:       ratio(ev, b.Revenue),
		PriceToSales:    ratio(mc, b.Revenue),
		PriceToFCF:      ratio(mc, b.FCF),
	}
}

// Set flattens the multiples for the screener.
func (m Multiples) Set() IndicatorSet {
	return IndicatorSet{
		"p_l":            m.PriceToEarnings,
		"p_vp":           m.PriceToBook,
		"ev_ebitda":      m.EVToEBITDA,
		"ev_ebit":        m.EVToEBIT,
		"ev_sales":       m.EVToSales,
		"price_to_sales": m.PriceToSales,
		"price_to_fcf":   m.PriceToFCF,
	}
}
