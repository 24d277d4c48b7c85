package indicators

import (
	"github.com/aristath/fundamentals/internal/modules/statements"
)

// Company identifies the overview subject.
type Company struct {
	Name          string `json:"nome"`
	TaxID         string `json:"cnpj"`
	RegulatorCode string `json:"cd_cvm"`
}

// Overview is the indicator bundle for one company.
type Overview struct {
	Company         *Company        `json:"company"`
	LatestPeriod    *string         `json:"latest_period"`
	Margins         Margins         `json:"margins"`
	Returns         Returns         `json:"returns"`
	FinancialHealth FinancialHealth `json:"financial_health"`
	Leverage        Leverage        `json:"leverage"`
	CashFlow        CashFlow        `json:"cash_flow"`
	Growth          Growth          `json:"growth"`
	History         History         `json:"history"`

	// Base carries the unrounded figures for valuation multiples.
	Base Base `json:"-"`
}

// OverviewInput holds one company's pivoted tables. Each slice is expected
// in ascending date order, already narrowed to the company.
type OverviewInput struct {
	IncomeQuarterly []statements.PeriodStatement
	Assets          []statements.PeriodStatement
	Liabilities     []statements.PeriodStatement
	CashFlowAnnual  []statements.PeriodStatement
	IncomeAnnual    []statements.PeriodStatement
}

// ComputeOverview derives the full indicator bundle. Performance ratios use
// the latest annual income row when there is one and fall back to the
// latest quarterly row otherwise. Balance figures come from the latest
// balance-sheet rows of any period class.
func ComputeOverview(in OverviewInput) Overview {
	o := Overview{History: History{}}

	for _, rows := range [][]statements.PeriodStatement{in.IncomeQuarterly, in.Assets, in.Liabilities, in.CashFlowAnnual} {
		if latest, ok := statements.Latest(rows); ok {
			o.Company = &Company{
				Name:          latest.Company.Name,
				TaxID:         latest.Company.TaxID,
				RegulatorCode: latest.Company.RegulatorCode,
			}
			break
		}
	}

	income := in.IncomeAnnual
	if len(income) == 0 {
		income = in.IncomeQuarterly
	}
	latestIncome, ok := statements.Latest(income)
	if !ok {
		return o
	}
	period := latestIncome.RefText()
	o.LatestPeriod = &period

	r := Compute(InputsOf(
		&latestIncome,
		latestOrNil(in.Assets),
		latestOrNil(in.Liabilities),
		latestOrNil(in.CashFlowAnnual),
	))
	o.Margins = r.Margins
	o.Returns = r.Returns
	o.FinancialHealth = r.Health
	o.Leverage = r.Leverage
	o.CashFlow = r.CashFlow
	o.Base = r.Base

	o.Growth = GrowthOf(income)
	o.History = BuildHistory(income, in.Assets, in.Liabilities, in.CashFlowAnnual)
	return o
}

func latestOrNil(rows []statements.PeriodStatement) *statements.PeriodStatement {
	latest, ok := statements.Latest(rows)
	if !ok {
		return nil
	}
	return &latest
}
