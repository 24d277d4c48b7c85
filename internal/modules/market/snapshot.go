// Package market holds market data snapshots produced by the external
// quote fetcher and combines them with regulator-derived overviews.
package market

import (
	"strings"
	"time"

	"github.com/aristath/fundamentals/internal/modules/indicators"
)

// Profile describes the listed company as the market sees it.
type Profile struct {
	Name        string `json:"nome,omitempty"`
	Sector      string `json:"setor,omitempty"`
	Industry    string `json:"industria,omitempty"`
	Website     string `json:"website,omitempty"`
	Employees   *int   `json:"employees"`
	Description string `json:"descricao,omitempty"`
	Currency    string `json:"moeda,omitempty"`
}

// Price is the latest quote block.
type Price struct {
	Current   *float64 `json:"atual"`
	Previous  *float64 `json:"anterior"`
	Change    *float64 `json:"variacao"`
	ChangePct *float64 `json:"variacao_pct"`
	High52w   *float64 `json:"high_52w"`
	Low52w    *float64 `json:"low_52w"`
	Beta      *float64 `json:"beta"`
	Avg50d    *float64 `json:"media_50d"`
	Avg200d   *float64 `json:"media_200d"`
}

// Valuation carries the fetcher's trailing multiples.
type Valuation struct {
	MarketCap         *float64 `json:"market_cap"`
	EnterpriseValue   *float64 `json:"enterprise_value"`
	SharesOutstanding *float64 `json:"shares_outstanding"`
	PETTM             *float64 `json:"pe_ttm"`
	PriceToBook       *float64 `json:"pb"`
	EVToEBITDA        *float64 `json:"ev_ebitda"`
	EVToRevenue       *float64 `json:"ev_revenue"`
	PriceToSales      *float64 `json:"price_to_sales"`
	PEG               *float64 `json:"peg"`
}

// Dividends is the market dividend block.
type Dividends struct {
	Yield  *float64 `json:"yield"`
	Rate   *float64 `json:"rate"`
	Payout *float64 `json:"payout"`
	ExDate *string  `json:"ex_date"`
}

// PricePoint is one bar of the weekly price history.
type PricePoint struct {
	Date   string   `json:"dt"`
	Open   *float64 `json:"open"`
	High   *float64 `json:"high"`
	Low    *float64 `json:"low"`
	Close  *float64 `json:"close"`
	Volume int64    `json:"volume"`
}

// Snapshot is the market data for one ticker.
type Snapshot struct {
	Ticker       string       `json:"ticker"`
	Profile      Profile      `json:"profile"`
	Price        Price        `json:"price"`
	Valuation    Valuation    `json:"valuation"`
	Dividends    Dividends    `json:"dividends"`
	PriceHistory []PricePoint `json:"price_history"`
	FetchedAt    time.Time    `json:"fetched_at"`
}

// NormalizeTicker upper-cases a ticker and drops the exchange suffix.
func NormalizeTicker(ticker string) string {
	t := strings.ToUpper(strings.TrimSpace(ticker))
	return strings.TrimSuffix(t, ".SA")
}

// Market returns the inputs used to recompute valuation multiples.
func (s *Snapshot) Market() indicators.Market {
	if s == nil {
		return indicators.Market{}
	}
	return indicators.Market{
		Price:           s.Price.Current,
		Shares:          s.Valuation.SharesOutstanding,
		MarketCap:       s.Valuation.MarketCap,
		EnterpriseValue: s.Valuation.EnterpriseValue,
	}
}
