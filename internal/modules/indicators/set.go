package indicators

import (
	"sort"

	"github.com/aristath/fundamentals/pkg/formulas"
)

// IndicatorSet maps an indicator name to its value. A nil value means the
// indicator could not be computed; NaN and infinities never appear.
type IndicatorSet map[string]*float64

// Indicator names used in flat sets, histories and the screener.
const (
	KeyRevenue           = "receita"
	KeyNetIncome         = "lucro_liquido"
	KeyEBIT              = "ebit"
	KeyEBITDA            = "ebitda"
	KeyGrossMargin       = "margem_bruta"
	KeyEBITMargin        = "margem_ebit"
	KeyEBITDAMargin      = "margem_ebitda"
	KeyPreTaxMargin      = "margem_pre_imposto"
	KeyNetMargin         = "margem_liquida"
	KeyFCFMargin         = "margem_fcf"
	KeyROA               = "roa"
	KeyROE               = "roe"
	KeyROIC              = "roic"
	KeyTotalAssets       = "ativo_total"
	KeyCash              = "caixa"
	KeyGrossDebt         = "divida_bruta"
	KeyNetDebt           = "divida_liquida"
	KeyEquity            = "patrimonio_liquido"
	KeyDebtToEquity      = "debt_equity"
	KeyInterestCoverage  = "ebit_interest"
	KeyNetDebtToEBITDA   = "divida_liq_ebitda"
	KeyNetDebtToEBIT     = "divida_liq_ebit"
	KeyNetDebtToEquity   = "divida_liq_pl"
	KeyGrossDebtToEquity = "divida_bruta_pl"
	KeyGrossDebtToAssets = "divida_bruta_ativo"
	KeyEBITToFinExp      = "ebit_desp_fin"
	KeyEBITDAToFinExp    = "ebitda_desp_fin"
	KeyOperatingCash     = "fco"
	KeyCapex             = "capex"
	KeyFCF               = "fcf"
	KeyDividends         = "dividendos"
	KeyPayout            = "payout"
)

// Set flattens the result into an IndicatorSet.
func (r Result) Set() IndicatorSet {
	return IndicatorSet{
		KeyRevenue:           r.Margins.Revenue,
		KeyNetIncome:         formulas.Round(r.Base.NetIncome, 0),
		KeyEBIT:              formulas.Round(r.Base.EBIT, 0),
		KeyEBITDA:            formulas.Round(r.Base.EBITDA, 0),
		KeyGrossMargin:       r.Margins.Gross,
		KeyEBITMargin:        r.Margins.EBIT,
		KeyEBITDAMargin:      r.Margins.EBITDA,
		KeyPreTaxMargin:      r.Margins.PreTax,
		KeyNetMargin:         r.Margins.Net,
		KeyFCFMargin:         r.Margins.FCF,
		KeyROA:               r.Returns.ROA,
		KeyROE:               r.Returns.ROE,
		KeyROIC:              r.Returns.ROIC,
		KeyTotalAssets:       r.Health.TotalAssets,
		KeyCash:              r.Health.Cash,
		KeyGrossDebt:         r.Health.GrossDebt,
		KeyNetDebt:           r.Health.NetDebt,
		KeyEquity:            r.Health.Equity,
		KeyDebtToEquity:      r.Health.DebtToEquity,
		KeyInterestCoverage:  r.Health.InterestCoverage,
		KeyNetDebtToEBITDA:   r.Leverage.NetDebtToEBITDA,
		KeyNetDebtToEBIT:     r.Leverage.NetDebtToEBIT,
		KeyNetDebtToEquity:   r.Leverage.NetDebtToEquity,
		KeyGrossDebtToEquity: r.Leverage.GrossDebtToEquity,
		KeyGrossDebtToAssets: r.Leverage.GrossDebtToAssets,
		KeyEBITToFinExp:      r.Leverage.EBITToFinExpenses,
		KeyEBITDAToFinExp:    r.Leverage.EBITDAToFinExpenses,
		KeyOperatingCash:     r.CashFlow.Operating,
		KeyCapex:             r.CashFlow.Capex,
		KeyFCF:               r.CashFlow.FCF,
		KeyDividends:         r.CashFlow.Dividends,
		KeyPayout:            r.CashFlow.Payout,
	}
}

// Present returns the names whose value is set, sorted.
func (s IndicatorSet) Present() []string {
	out := make([]string, 0, len(s))
	for k, v := range s {
		if v != nil {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// Sanitize replaces non-finite values with nil in place and returns s.
func (s IndicatorSet) Sanitize() IndicatorSet {
	for k, v := range s {
		s[k] = formulas.Clean(v)
	}
	return s
}
