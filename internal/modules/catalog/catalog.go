// Package catalog maps hierarchical regulator account codes to the canonical
// labels used as pivoted statement columns.
//
// The tables are static and versioned. They are held in unexported maps and
// only ever exposed through copies, so nothing can mutate them at runtime.
package catalog

import (
	"sort"
	"strconv"
	"strings"
)

// Version identifies the revision of the account tables below.
const Version = "2024.1"

// Kind is a regulator statement type.
type Kind string

const (
	// Income is the income statement (DRE).
	Income Kind = "DRE"
	// Assets is the balance sheet, assets side (BPA).
	Assets Kind = "BPA"
	// Liabilities is the balance sheet, liabilities and equity side (BPP).
	Liabilities Kind = "BPP"
	// CashFlowIndirect is the cash-flow statement, indirect method (DFC_MI).
	CashFlowIndirect Kind = "DFC_MI"
	// CashFlowDirect is the cash-flow statement, direct method (DFC_MD).
	CashFlowDirect Kind = "DFC_MD"
	// CashFlow is the combined cash-flow table built from both methods.
	CashFlow Kind = "DFC"
)

// Canonical labels referenced by the indicator calculations.
const (
	Revenue            = "Receita Líquida"
	CostOfSales        = "Custo dos Bens e/ou Serviços Vendidos"
	GrossProfit        = "Resultado Bruto"
	OperatingExpenses  = "Despesas/Receitas Operacionais"
	EBIT               = "EBIT"
	FinancialResult    = "Resultado Financeiro"
	FinancialIncome    = "Receitas Financeiras"
	FinancialExpenses  = "Despesas Financeiras"
	EBT                = "EBT"
	IncomeTax          = "Imposto de Renda e Contribuição Social"
	ContinuingOps      = "Resultado Líquido das Operações Continuadas"
	NetIncome          = "Lucro/Prejuízo Consolidado do Período"
	TotalAssets        = "Ativo Total"
	CurrentAssets      = "Ativo Circulante"
	Cash               = "Caixa e Equivalentes de Caixa"
	ShortTermInvest    = "Aplicações Financeiras"
	Receivables        = "Contas a Receber"
	Inventories        = "Estoques"
	NonCurrentAssets   = "Ativo Não Circulante"
	LongTermAssets     = "Ativo Realizável a Longo Prazo"
	Investments        = "Investimentos"
	FixedAssets        = "Imobilizado"
	Intangibles        = "Intangível"
	TotalLiabilities   = "Passivo Total"
	CurrentLiabilities = "Passivo Circulante"
	ShortTermDebt      = "Empréstimos e Financiamentos CP"
	NonCurrentLiab     = "Passivo Não Circulante"
	LongTermDebt       = "Empréstimos e Financiamentos LP"
	Equity             = "Patrimônio Líquido Consolidado"
	ShareCapital       = "Capital Social Realizado"
	ProfitReserves     = "Reservas de Lucros"
	OtherComprehensive = "Outros Resultados Abrangentes"
	OperatingCash      = "Caixa Líquido Atividades Operacionais"
	DepreciationAmort  = "Depreciação e Amortização"
	InvestingCash      = "Caixa Líquido Atividades de Investimento"
	CapexFixed         = "Aquisição de Imobilizado"
	CapexIntangible    = "Aquisição de Intangível"
	FinancingCash      = "Caixa Líquido Atividades de Financiamento"
	DividendsPaid      = "Pagamento de Dividendos"
	CashVariation      = "Aumento (Redução) de Caixa e Equivalentes"
)

var incomeAccounts = map[string]string{
	"3.01":    Revenue,
	"3.02":    CostOfSales,
	"3.03":    GrossProfit,
	"3.04":    OperatingExpenses,
	"3.05":    EBIT,
	"3.06":    FinancialResult,
	"3.06.01": FinancialIncome,
	"3.06.02": FinancialExpenses,
	"3.07":    EBT,
	"3.08":    IncomeTax,
	"3.09":    ContinuingOps,
	"3.11":    NetIncome,
}

var assetAccounts = map[string]string{
	"1":       TotalAssets,
	"1.01":    CurrentAssets,
	"1.01.01": Cash,
	"1.01.02": ShortTermInvest,
	"1.01.03": Receivables,
	"1.01.04": Inventories,
	"1.02":    NonCurrentAssets,
	"1.02.01": LongTermAssets,
	"1.02.02": Investments,
	"1.02.03": FixedAssets,
	"1.02.04": Intangibles,
}

var liabilityAccounts = map[string]string{
	"2":       TotalLiabilities,
	"2.01":    CurrentLiabilities,
	"2.01.04": ShortTermDebt,
	"2.02":    NonCurrentLiab,
	"2.02.01": LongTermDebt,
	"2.03":    Equity,
	"2.03.01": ShareCapital,
	"2.03.04": ProfitReserves,
	"2.03.08": OtherComprehensive,
}

// Only 6.01 to 6.05 are fixed regulator accounts. The deeper codes are
// company-numbered sub-lines, so their labels follow the most common
// numbering and can point at a different line for some filers.
var cashFlowIndirectAccounts = map[string]string{
	"6.01":       OperatingCash,
	"6.01.01.02": DepreciationAmort,
	"6.02":       InvestingCash,
	"6.02.01":    CapexFixed,
	"6.02.02":    CapexIntangible,
	"6.03":       FinancingCash,
	"6.03.05":    DividendsPaid,
	"6.05":       CashVariation,
}

// The direct method has no depreciation add-back line.
var cashFlowDirectAccounts = map[string]string{
	"6.01":    OperatingCash,
	"6.02":    InvestingCash,
	"6.02.01": CapexFixed,
	"6.02.02": CapexIntangible,
	"6.03":    FinancingCash,
	"6.03.05": DividendsPaid,
	"6.05":    CashVariation,
}

// cashFlowAccounts is the union used to pivot the combined table. Both
// methods agree on every shared code.
var cashFlowAccounts = func() map[string]string {
	m := make(map[string]string, len(cashFlowIndirectAccounts))
	for code, label := range cashFlowDirectAccounts {
		m[code] = label
	}
	for code, label := range cashFlowIndirectAccounts {
		m[code] = label
	}
	return m
}()

func table(kind Kind) map[string]string {
	switch kind {
	case Income:
		return incomeAccounts
	case Assets:
		return assetAccounts
	case Liabilities:
		return liabilityAccounts
	case CashFlowIndirect:
		return cashFlowIndirectAccounts
	case CashFlowDirect:
		return cashFlowDirectAccounts
	case CashFlow:
		return cashFlowAccounts
	default:
		return nil
	}
}

// Kinds lists the statement kinds with an account table, in presentation order.
func Kinds() []Kind {
	return []Kind{Income, Assets, Liabilities, CashFlowIndirect, CashFlowDirect}
}

// ParseKind normalizes a user-supplied kind name.
func ParseKind(s string) (Kind, bool) {
	k := Kind(strings.ToUpper(strings.TrimSpace(s)))
	if table(k) == nil {
		return "", false
	}
	return k, true
}

// Known reports whether kind has an account table.
func Known(kind Kind) bool {
	return table(kind) != nil
}

// LabelFor returns the canonical label for code, or false when the code is
// not tracked for that statement kind.
func LabelFor(kind Kind, code string) (string, bool) {
	label, ok := table(kind)[strings.TrimSpace(code)]
	return label, ok
}

// Account is one catalog entry.
type Account struct {
	Code  string `json:"codigo"`
	Label string `json:"descricao"`
}

// Accounts returns the entries of kind ordered by hierarchical code
// (1, 1.01, 1.01.01, 1.02, ...). Unknown kinds yield an empty slice.
func Accounts(kind Kind) []Account {
	t := table(kind)
	out := make([]Account, 0, len(t))
	for code, label := range t {
		out = append(out, Account{Code: code, Label: label})
	}
	sort.Slice(out, func(i, j int) bool {
		return CompareCodes(out[i].Code, out[j].Code) < 0
	})
	return out
}

// Labels returns the distinct labels of kind in code order.
func Labels(kind Kind) []string {
	accounts := Accounts(kind)
	seen := make(map[string]bool, len(accounts))
	out := make([]string, 0, len(accounts))
	for _, a := range accounts {
		if seen[a.Label] {
			continue
		}
		seen[a.Label] = true
		out = append(out, a.Label)
	}
	return out
}

// CompareCodes orders dotted account codes segment by segment, numerically.
func CompareCodes(a, b string) int {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")
	for i := 0; i < len(as) && i < len(bs); i++ {
		ai, aerr := strconv.Atoi(as[i])
		bi, berr := strconv.Atoi(bs[i])
		if aerr != nil || berr != nil {
			if c := strings.Compare(as[i], bs[i]); c != 0 {
				return c
			}
			continue
		}
		if ai != bi {
			if ai < bi {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(as) < len(bs):
		return -1
	case len(as) > len(bs):
		return 1
	}
	return 0
}
