package formulas

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFinite(t *testing.T) {
	assert.Nil(t, Finite(math.NaN()))
	assert.Nil(t, Finite(math.Inf(1)))
	assert.Nil(t, Finite(math.Inf(-1)))
	require.NotNil(t, Finite(1.5))
	assert.Equal(t, 1.5, *Finite(1.5))
}

func TestSafeDiv(t *testing.T) {
	tests := []struct {
		name     string
		a, b     *float64
		expected *float64
	}{
		{"regular", Float64(10), Float64(4), Float64(2.5)},
		{"zero divisor", Float64(10), Float64(0), nil},
		{"absent numerator", nil, Float64(4), nil},
		{"absent divisor", Float64(10), nil, nil},
		{"negative divisor allowed", Float64(10), Float64(-5), Float64(-2)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SafeDiv(tt.a, tt.b))
		})
	}
}

func TestPositiveDiv(t *testing.T) {
	assert.Nil(t, PositiveDiv(Float64(10), Float64(-5)))
	assert.Nil(t, PositiveDiv(Float64(10), Float64(0)))
	assert.Equal(t, 2.0, *PositiveDiv(Float64(10), Float64(5)))
}

func TestPct(t *testing.T) {
	assert.Equal(t, 16.5, *Pct(SafeDiv(Float64(198), Float64(1200))))
	assert.Equal(t, 33.33, *Pct(Float64(1.0/3.0)))
	assert.Nil(t, Pct(nil))
}

func TestRound(t *testing.T) {
	assert.Equal(t, 1235.0, *Round(Float64(1234.5), 0))
	assert.Equal(t, -1235.0, *Round(Float64(-1234.5), 0))
	assert.Equal(t, 0.13, *Round(Float64(0.125), 2))
	assert.Nil(t, Round(nil, 2))
}

func TestSum(t *testing.T) {
	assert.Nil(t, Sum(nil, nil))
	assert.Equal(t, 5.0, *Sum(Float64(2), nil, Float64(3)))
}

func TestAbsAddSubMul(t *testing.T) {
	assert.Equal(t, 5.0, *Add(Float64(3), Float64(2)))
	assert.Nil(t, Add(nil, Float64(2)))
	assert.Equal(t, 4.0, *Abs(Float64(-4)))
	assert.Nil(t, Abs(nil))
	assert.Equal(t, 1.0, *Sub(Float64(3), Float64(2)))
	assert.Nil(t, Sub(Float64(3), nil))
	assert.Equal(t, 6.0, *Mul(Float64(3), Float64(2)))
	assert.Nil(t, Mul(nil, Float64(2)))
}
