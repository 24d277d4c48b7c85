package market

import (
	"github.com/aristath/fundamentals/internal/modules/indicators"
)

// CombinedProfile merges the regulator company block with the market
// profile. Non-empty market fields take precedence.
type CombinedProfile struct {
	Name          string `json:"nome"`
	TaxID         string `json:"cnpj,omitempty"`
	RegulatorCode string `json:"cd_cvm,omitempty"`
	Sector        string `json:"setor,omitempty"`
	Industry      string `json:"industria,omitempty"`
	Website       string `json:"website,omitempty"`
	Employees     *int   `json:"employees"`
	Description   string `json:"descricao,omitempty"`
	Currency      string `json:"moeda,omitempty"`
}

// CombinedOverview is an overview augmented with market data. Market
// blocks are absent when no snapshot was available; MarketError then
// carries the reason.
type CombinedOverview struct {
	*indicators.Overview

	Ticker              string                `json:"ticker,omitempty"`
	Profile             *CombinedProfile      `json:"profile,omitempty"`
	Price               *Price                `json:"price,omitempty"`
	Valuation           *Valuation            `json:"valuation,omitempty"`
	DividendsMarket     *Dividends            `json:"dividends_market,omitempty"`
	PriceHistory        []PricePoint          `json:"price_history,omitempty"`
	Technicals          *Technicals           `json:"technicals,omitempty"`
	ValuationCalculated *indicators.Multiples `json:"valuation_calculated,omitempty"`
	MarketError         *string               `json:"market_error,omitempty"`
}

// Combine augments an overview with a snapshot and recomputes valuation
// multiples from the overview's regulator figures. A nil snapshot leaves
// the overview as it is.
func Combine(o *indicators.Overview, s *Snapshot) *CombinedOverview {
	c := &CombinedOverview{Overview: o}
	if s == nil {
		return c
	}

	profile := CombinedProfile{}
	if o.Company != nil {
		profile.Name = o.Company.Name
		profile.TaxID = o.Company.TaxID
		profile.RegulatorCode = o.Company.RegulatorCode
	}
	if s.Profile.Name != "" {
		profile.Name = s.Profile.Name
	}
	profile.Sector = s.Profile.Sector
	profile.Industry = s.Profile.Industry
	profile.Website = s.Profile.Website
	profile.Employees = s.Profile.Employees
	profile.Description = s.Profile.Description
	profile.Currency = s.Profile.Currency

	price := s.Price
	valuation := s.Valuation
	dividends := s.Dividends
	calculated := indicators.ComputeMultiples(o.Base, s.Market())
	technicals := TechnicalsOf(s.PriceHistory)

	c.Ticker = s.Ticker
	c.Profile = &profile
	c.Price = &price
	c.Valuation = &valuation
	c.DividendsMarket = &dividends
	c.PriceHistory = s.PriceHistory
	c.Technicals = &technicals
	c.ValuationCalculated = &calculated
	return c
}

// WithError records a market data failure on an overview that is
// returned without market blocks.
func WithError(o *indicators.Overview, err error) *CombinedOverview {
	msg := err.Error()
	return &CombinedOverview{Overview: o, MarketError: &msg}
}
