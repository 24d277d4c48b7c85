package screener

import (
	"github.com/aristath/fundamentals/internal/modules/identity"
	"github.com/aristath/fundamentals/internal/modules/statements"
)

// Universe lists the companies to screen. With a ticker table, every
// mapped company is screened under its primary ticker. Without one, every
// company of the generation is screened without market data.
func Universe(gen *statements.Generation, resolver *identity.Resolver) []Company {
	known := gen.Companies()
	byTaxID := make(map[string]statements.CompanyIdentity, len(known))
	for _, c := range known {
		byTaxID[statements.NormalizeTaxID(c.TaxID)] = c
	}

	var mapped []identity.Entry
	if resolver != nil {
		mapped = resolver.Companies()
	}

	if len(mapped) == 0 {
		out := make([]Company, 0, len(known))
		for _, c := range known {
			out = append(out, Company{
				TaxID:         statements.NormalizeTaxID(c.TaxID),
				RegulatorCode: c.RegulatorCode,
				Name:          c.Name,
			})
		}
		return out
	}

	out := make([]Company, 0, len(mapped))
	for _, e := range mapped {
		c := Company{
			Ticker:        e.Ticker,
			Tickers:       resolver.Tickers(e.TaxID),
			TaxID:         e.TaxID,
			RegulatorCode: e.RegulatorCode,
			Name:          e.Name,
			Sector:        resolver.Sector(e.TaxID),
		}
		if k, ok := byTaxID[e.TaxID]; ok {
			if c.Name == "" {
				c.Name = k.Name
			}
			if c.RegulatorCode == "" {
				c.RegulatorCode = k.RegulatorCode
			}
		}
		out = append(out, c)
	}
	return out
}
