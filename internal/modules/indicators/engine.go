// Package indicators derives margins, returns, leverage and cash-flow
// metrics from pivoted statements, plus growth rates and aligned histories.
//
// Nothing here returns an error for bad data. A missing statement, a zero
// denominator or an undefined growth rate all surface as a nil value.
package indicators

import (
	"math"
	"time"

	"github.com/aristath/fundamentals/internal/modules/statements"
	"github.com/aristath/fundamentals/pkg/formulas"
)

// BrazilTaxRate is the combined statutory IRPJ/CSLL rate used for NOPAT.
const BrazilTaxRate = 0.34

// Inputs are the four statements of one company for one period. Any of
// them may be the zero view when the statement is missing.
type Inputs struct {
	Income      statements.IncomeStatement
	Assets      statements.AssetsStatement
	Liabilities statements.LiabilitiesStatement
	CashFlow    statements.CashFlowStatement
}

// InputsOf builds Inputs from optional pivoted rows.
func InputsOf(income, assets, liabilities, cashFlow *statements.PeriodStatement) Inputs {
	return Inputs{
		Income:      statements.IncomeOf(income),
		Assets:      statements.AssetsOf(assets),
		Liabilities: statements.LiabilitiesOf(liabilities),
		CashFlow:    statements.CashFlowOf(cashFlow),
	}
}

// Margins are percentages of net revenue, except Revenue itself.
type Margins struct {
	Revenue *float64 `json:"receita"`
	Gross   *float64 `json:"bruta"`
	EBIT    *float64 `json:"ebit"`
	EBITDA  *float64 `json:"ebitda"`
	PreTax  *float64 `json:"pre_imposto"`
	Net     *float64 `json:"liquida"`
	FCF     *float64 `json:"fcf"`
}

// Returns are percentages.
type Returns struct {
	ROA  *float64 `json:"roa"`
	ROE  *float64 `json:"roe"`
	ROIC *float64 `json:"roic"`
}

// FinancialHealth holds absolute balance figures and headline ratios.
type FinancialHealth struct {
	TotalAssets      *float64 `json:"ativo_total"`
	Cash             *float64 `json:"caixa"`
	GrossDebt        *float64 `json:"divida_bruta"`
	NetDebt          *float64 `json:"divida_liquida"`
	Equity           *float64 `json:"patrimonio_liquido"`
	DebtToEquity     *float64 `json:"debt_equity"`
	NetDebtToEBITDA  *float64 `json:"divida_liq_ebitda"`
	InterestCoverage *float64 `json:"ebit_interest"`
}

// Leverage ratios. Each is absent over a non-positive denominator.
type Leverage struct {
	NetDebtToEBITDA     *float64 `json:"divida_liq_ebitda"`
	NetDebtToEBIT       *float64 `json:"divida_liq_ebit"`
	NetDebtToEquity     *float64 `json:"divida_liq_pl"`
	GrossDebtToEquity   *float64 `json:"divida_bruta_pl"`
	GrossDebtToAssets   *float64 `json:"divida_bruta_ativo"`
	EBITToFinExpenses   *float64 `json:"ebit_desp_fin"`
	EBITDAToFinExpenses *float64 `json:"ebitda_desp_fin"`
}

// CashFlow holds cash generation figures.
type CashFlow struct {
	Operating *float64 `json:"fco"`
	Capex     *float64 `json:"capex"`
	FCF       *float64 `json:"fcf"`
	FCFMargin *float64 `json:"fcf_margin"`
	Dividends *float64 `json:"dividendos"`
	Payout    *float64 `json:"payout"`
}

// Base keeps the unrounded inputs that valuation multiples are built from.
type Base struct {
	Revenue     *float64
	EBIT        *float64
	EBITDA      *float64
	NetIncome   *float64
	Equity      *float64
	NetDebt     *float64
	FCF         *float64
	TotalAssets *float64
}

// Result is everything Compute derives for one period.
type Result struct {
	ReferenceDate time.Time
	Margins       Margins
	Returns       Returns
	Health        FinancialHealth
	Leverage      Leverage
	CashFlow      CashFlow
	Base          Base
}

// Compute derives the indicator set for one period.
func Compute(in Inputs) Result {
	inc, cf := in.Income, in.CashFlow

	revenue := inc.Revenue
	ebit := inc.EBIT
	netIncome := inc.NetIncome

	var ebitda *float64
	if ebit != nil && cf.DepreciationAmort != nil {
		ebitda = formulas.Sum(ebit, formulas.Abs(cf.DepreciationAmort))
	}

	var totalCash, grossDebt, netDebt *float64
	if in.Assets.Present {
		totalCash = formulas.Float64(zero(in.Assets.Cash) + zero(in.Assets.ShortTermInvest))
	}
	if in.Liabilities.Present {
		grossDebt = formulas.Float64(zero(in.Liabilities.ShortTermDebt) + zero(in.Liabilities.LongTermDebt))
	}
	netDebt = formulas.Sub(grossDebt, totalCash)
	equity := in.Liabilities.Equity
	finExpenses := formulas.Abs(inc.FinancialExpenses)

	var operating, capex, fcf *float64
	if cf.Present {
		operating = cf.OperatingCash
		capex = formulas.Float64(zero(cf.CapexFixed) + zero(cf.CapexIntangible))
		fcf = formulas.Sum(operating, capex)
		if operating == nil {
			fcf = nil
		}
	}

	r := Result{
		ReferenceDate: inc.ReferenceDate,
		Base: Base{
			Revenue:     revenue,
			EBIT:        ebit,
			EBITDA:      ebitda,
			NetIncome:   netIncome,
			Equity:      equity,
			NetDebt:     netDebt,
			FCF:         fcf,
			TotalAssets: in.Assets.TotalAssets,
		},
	}

	r.Margins = Margins{
		Revenue: formulas.Round(revenue, 0),
		Gross:   pct(inc.GrossProfit, revenue),
		EBIT:    pct(ebit, revenue),
		EBITDA:  pct(ebitda, revenue),
		PreTax:  pct(inc.EBT, revenue),
		Net:     pct(netIncome, revenue),
		FCF:     pct(fcf, revenue),
	}

	r.Leverage = Leverage{
		NetDebtToEBITDA:     ratio(netDebt, ebitda),
		NetDebtToEBIT:       ratio(netDebt, ebit),
		NetDebtToEquity:     ratio(netDebt, equity),
		GrossDebtToEquity:   ratio(grossDebt, equity),
		GrossDebtToAssets:   ratio(grossDebt, in.Assets.TotalAssets),
		EBITToFinExpenses:   ratio(ebit, finExpenses),
		EBITDAToFinExpenses: ratio(ebitda, finExpenses),
	}

	r.Health = FinancialHealth{
		TotalAssets:      formulas.Round(in.Assets.TotalAssets, 0),
		Cash:             formulas.Round(totalCash, 0),
		GrossDebt:        formulas.Round(grossDebt, 0),
		NetDebt:          formulas.Round(netDebt, 0),
		Equity:           formulas.Round(equity, 0),
		DebtToEquity:     formulas.Round(formulas.SafeDiv(grossDebt, equity), 2),
		NetDebtToEBITDA:  r.Leverage.NetDebtToEBITDA,
		InterestCoverage: formulas.Round(formulas.SafeDiv(ebit, finExpenses), 2),
	}

	r.Returns = Returns{
		ROA:  pct(netIncome, in.Assets.TotalAssets),
		ROE:  pct(netIncome, equity),
		ROIC: roic(ebit, equity, netDebt),
	}

	r.CashFlow = CashFlow{
		Operating: formulas.Round(operating, 0),
		Capex:     formulas.Round(capex, 0),
		FCF:       formulas.Round(fcf, 0),
		FCFMargin: r.Margins.FCF,
		Dividends: formulas.Round(cf.DividendsPaid, 0),
		Payout:    payout(cf.DividendsPaid, netIncome),
	}
	return r
}

// roic is NOPAT over invested capital. Net cash does not shrink invested
// capital below equity.
func roic(ebit, equity, netDebt *float64) *float64 {
	if ebit == nil || equity == nil || netDebt == nil {
		return nil
	}
	nopat := *ebit * (1 - BrazilTaxRate)
	invested := *equity + math.Max(*netDebt, 0)
	return formulas.Pct(formulas.PositiveDiv(&nopat, &invested))
}

func payout(dividends, netIncome *float64) *float64 {
	if dividends == nil || netIncome == nil || *netIncome <= 0 {
		return nil
	}
	return pct(formulas.Abs(dividends), netIncome)
}

func pct(a, b *float64) *float64 {
	return formulas.Pct(formulas.SafeDiv(a, b))
}

func ratio(a, b *float64) *float64 {
	return formulas.Round(formulas.PositiveDiv(a, b), 2)
}

func zero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
