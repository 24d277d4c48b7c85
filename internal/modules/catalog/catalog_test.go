package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLabelFor(t *testing.T) {
	tests := []struct {
		name     string
		kind     Kind
		code     string
		expected string
		found    bool
	}{
		{"revenue", Income, "3.01", Revenue, true},
		{"net income", Income, "3.11", NetIncome, true},
		{"trimmed code", Income, " 3.05 ", EBIT, true},
		{"total assets", Assets, "1", TotalAssets, true},
		{"equity", Liabilities, "2.03", Equity, true},
		{"depreciation indirect", CashFlowIndirect, "6.01.01.02", DepreciationAmort, true},
		{"no depreciation in direct", CashFlowDirect, "6.01.01.02", "", false},
		{"combined has depreciation", CashFlow, "6.01.01.02", DepreciationAmort, true},
		{"untracked code", Income, "3.99", "", false},
		{"code of another kind", Assets, "3.01", "", false},
		{"unknown kind", Kind("XYZ"), "1", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			label, ok := LabelFor(tt.kind, tt.code)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.expected, label)
		})
	}
}

func TestAccounts_OrderedByHierarchy(t *testing.T) {
	accounts := Accounts(Assets)
	require.NotEmpty(t, accounts)

	assert.Equal(t, "1", accounts[0].Code)
	for i := 1; i < len(accounts); i++ {
		assert.Negative(t, CompareCodes(accounts[i-1].Code, accounts[i].Code),
			"%s should sort before %s", accounts[i-1].Code, accounts[i].Code)
	}
}

func TestAccounts_EveryLabelResolves(t *testing.T) {
	for _, kind := range append(Kinds(), CashFlow) {
		for _, a := range Accounts(kind) {
			label, ok := LabelFor(kind, a.Code)
			require.True(t, ok, "%s %s", kind, a.Code)
			assert.Equal(t, a.Label, label)
		}
	}
}

func TestAccounts_ReturnsCopy(t *testing.T) {
	accounts := Accounts(Income)
	accounts[0].Label = "mutated"

	label, ok := LabelFor(Income, accounts[0].Code)
	require.True(t, ok)
	assert.NotEqual(t, "mutated", label)
}

func TestAccounts_UnknownKind(t *testing.T) {
	assert.Empty(t, Accounts(Kind("nope")))
}

func TestParseKind(t *testing.T) {
	k, ok := ParseKind(" dre ")
	assert.True(t, ok)
	assert.Equal(t, Income, k)

	k, ok = ParseKind("dfc")
	assert.True(t, ok)
	assert.Equal(t, CashFlow, k)

	_, ok = ParseKind("balance")
	assert.False(t, ok)
}

func TestCompareCodes(t *testing.T) {
	assert.Negative(t, CompareCodes("1", "1.01"))
	assert.Negative(t, CompareCodes("1.01.04", "1.02"))
	assert.Negative(t, CompareCodes("6.01.01.02", "6.02"))
	assert.Positive(t, CompareCodes("3.11", "3.09"))
	assert.Zero(t, CompareCodes("2.03", "2.03"))
}

func TestLabels_Distinct(t *testing.T) {
	labels := Labels(CashFlow)
	seen := map[string]bool{}
	for _, l := range labels {
		assert.False(t, seen[l], "duplicate label %s", l)
		seen[l] = true
	}
	assert.Contains(t, labels, OperatingCash)
}
