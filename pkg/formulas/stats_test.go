package formulas

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMedian(t *testing.T) {
	assert.Nil(t, Median(nil))
	assert.Nil(t, Median([]float64{math.NaN()}))

	m := Median([]float64{9, 1, 5, math.Inf(1), 3, 7})
	require.NotNil(t, m)
	assert.Equal(t, 5.0, *m)
}

func TestMean(t *testing.T) {
	assert.Nil(t, Mean([]float64{}))
	m := Mean([]float64{1, 2, 3, math.NaN()})
	require.NotNil(t, m)
	assert.InDelta(t, 2.0, *m, 1e-9)
}

func TestRange(t *testing.T) {
	lo, hi := Range([]float64{4, -2, 8})
	require.NotNil(t, lo)
	require.NotNil(t, hi)
	assert.Equal(t, -2.0, *lo)
	assert.Equal(t, 8.0, *hi)

	lo, hi = Range(nil)
	assert.Nil(t, lo)
	assert.Nil(t, hi)
}
