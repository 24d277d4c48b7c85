package formulas

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// finiteValues copies the finite entries of data.
func finiteValues(data []float64) []float64 {
	out := make([]float64, 0, len(data))
	for _, v := range data {
		if Finite(v) != nil {
			out = append(out, v)
		}
	}
	return out
}

// Mean calculates the arithmetic mean of the finite values, nil when none.
func Mean(data []float64) *float64 {
	values := finiteValues(data)
	if len(values) == 0 {
		return nil
	}
	return Finite(stat.Mean(values, nil))
}

// Median returns the empirical median of the finite values, nil when none.
// For an even count this is the lower of the two middle values.
func Median(data []float64) *float64 {
	values := finiteValues(data)
	if len(values) == 0 {
		return nil
	}
	sort.Float64s(values)
	return Finite(stat.Quantile(0.5, stat.Empirical, values, nil))
}

// Range returns the minimum and maximum of the finite values.
func Range(data []float64) (min, max *float64) {
	values := finiteValues(data)
	if len(values) == 0 {
		return nil, nil
	}
	return Finite(floats.Min(values)), Finite(floats.Max(values))
}
