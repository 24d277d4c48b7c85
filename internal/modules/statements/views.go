package statements

import (
	"time"

	"github.com/aristath/fundamentals/internal/modules/catalog"
)

// IncomeStatement is the typed view of an income-statement row.
type IncomeStatement struct {
	Present           bool
	ReferenceDate     time.Time
	Revenue           *float64
	CostOfSales       *float64
	GrossProfit       *float64
	OperatingExpenses *float64
	EBIT              *float64
	FinancialResult   *float64
	FinancialIncome   *float64
	FinancialExpenses *float64
	EBT               *float64
	IncomeTax         *float64
	NetIncome         *float64
}

// AssetsStatement is the typed view of a balance-sheet assets row.
type AssetsStatement struct {
	Present          bool
	ReferenceDate    time.Time
	TotalAssets      *float64
	CurrentAssets    *float64
	Cash             *float64
	ShortTermInvest  *float64
	Receivables      *float64
	Inventories      *float64
	NonCurrentAssets *float64
	FixedAssets      *float64
	Intangibles      *float64
}

// LiabilitiesStatement is the typed view of a balance-sheet liabilities row.
type LiabilitiesStatement struct {
	Present            bool
	ReferenceDate      time.Time
	TotalLiabilities   *float64
	CurrentLiabilities *float64
	ShortTermDebt      *float64
	NonCurrentLiab     *float64
	LongTermDebt       *float64
	Equity             *float64
}

// CashFlowStatement is the typed view of a cash-flow row.
type CashFlowStatement struct {
	Present           bool
	ReferenceDate     time.Time
	OperatingCash     *float64
	DepreciationAmort *float64
	InvestingCash     *float64
	CapexFixed        *float64
	CapexIntangible   *float64
	FinancingCash     *float64
	DividendsPaid     *float64
}

// IncomeOf reads an income row. A nil row yields a view with every field absent.
func IncomeOf(s *PeriodStatement) IncomeStatement {
	if s == nil {
		return IncomeStatement{}
	}
	return IncomeStatement{
		Present:           true,
		ReferenceDate:     s.ReferenceDate,
		Revenue:           s.Value(catalog.Revenue),
		CostOfSales:       s.Value(catalog.CostOfSales),
		GrossProfit:       s.Value(catalog.GrossProfit),
		OperatingExpenses: s.Value(catalog.OperatingExpenses),
		EBIT:              s.Value(catalog.EBIT),
		FinancialResult:   s.Value(catalog.FinancialResult),
		FinancialIncome:   s.Value(catalog.FinancialIncome),
		FinancialExpenses: s.Value(catalog.FinancialExpenses),
		EBT:               s.Value(catalog.EBT),
		IncomeTax:         s.Value(catalog.IncomeTax),
		NetIncome:         s.Value(catalog.NetIncome),
	}
}

// AssetsOf reads a balance-sheet assets row.
func AssetsOf(s *PeriodStatement) AssetsStatement {
	if s == nil {
		return AssetsStatement{}
	}
	return AssetsStatement{
		Present:          true,
		ReferenceDate:    s.ReferenceDate,
		TotalAssets:      s.Value(catalog.TotalAssets),
		CurrentAssets:    s.Value(catalog.CurrentAssets),
		Cash:             s.Value(catalog.Cash),
		ShortTermInvest:  s.Value(catalog.ShortTermInvest),
		Receivables:      s.Value(catalog.Receivables),
		Inventories:      s.Value(catalog.Inventories),
		NonCurrentAssets: s.Value(catalog.NonCurrentAssets),
		FixedAssets:      s.Value(catalog.FixedAssets),
		Intangibles:      s.Value(catalog.Intangibles),
	}
}

// LiabilitiesOf reads a balance-sheet liabilities row.
func LiabilitiesOf(s *PeriodStatement) LiabilitiesStatement {
	if s == nil {
		return LiabilitiesStatement{}
	}
	return LiabilitiesStatement{
		Present:            true,
		ReferenceDate:      s.ReferenceDate,
		TotalLiabilities:   s.Value(catalog.TotalLiabilities),
		CurrentLiabilities: s.Value(catalog.CurrentLiabilities),
		ShortTermDebt:      s.Value(catalog.ShortTermDebt),
		NonCurrentLiab:     s.Value(catalog.NonCurrentLiab),
		LongTermDebt:       s.Value(catalog.LongTermDebt),
		Equity:             s.Value(catalog.Equity),
	}
}

// CashFlowOf reads a cash-flow row.
func CashFlowOf(s *PeriodStatement) CashFlowStatement {
	if s == nil {
		return CashFlowStatement{}
	}
	return CashFlowStatement{
		Present:           true,
		ReferenceDate:     s.ReferenceDate,
		OperatingCash:     s.Value(catalog.OperatingCash),
		DepreciationAmort: s.Value(catalog.DepreciationAmort),
		InvestingCash:     s.Value(catalog.InvestingCash),
		CapexFixed:        s.Value(catalog.CapexFixed),
		CapexIntangible:   s.Value(catalog.CapexIntangible),
		FinancingCash:     s.Value(catalog.FinancingCash),
		DividendsPaid:     s.Value(catalog.DividendsPaid),
	}
}
