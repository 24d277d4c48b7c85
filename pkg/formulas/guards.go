// Package formulas holds the numeric primitives shared by the indicator
// calculations. Every helper returns nil instead of NaN or ±Inf, so a value
// produced here can always be serialized.
package formulas

import (
	"math"

	"github.com/shopspring/decimal"
)

// Finite wraps v in a pointer, or returns nil when v is NaN or infinite.
func Finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// Clean drops a non-finite pointed-to value.
func Clean(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return Finite(*v)
}

// SafeDiv divides a by b. Absent operands, a zero divisor, or a non-finite
// result yield nil.
func SafeDiv(a, b *float64) *float64 {
	if a == nil || b == nil || *b == 0 {
		return nil
	}
	return Finite(*a / *b)
}

// PositiveDiv is SafeDiv restricted to strictly positive divisors.
func PositiveDiv(a, b *float64) *float64 {
	if b == nil || *b <= 0 {
		return nil
	}
	return SafeDiv(a, b)
}

// Pct converts a ratio to a percentage rounded to 2 decimals.
func Pct(ratio *float64) *float64 {
	if ratio == nil {
		return nil
	}
	return Round(Finite(*ratio*100), 2)
}

// Round rounds half away from zero to the given number of decimal places.
func Round(v *float64, places int32) *float64 {
	if v == nil {
		return nil
	}
	if math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	r, _ := decimal.NewFromFloat(*v).Round(places).Float64()
	return &r
}

// Abs returns |v|, preserving absence.
func Abs(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return Finite(math.Abs(*v))
}

// Sum adds the present values. It returns nil only when every value is absent.
func Sum(values ...*float64) *float64 {
	var total float64
	seen := false
	for _, v := range values {
		if v == nil {
			continue
		}
		total += *v
		seen = true
	}
	if !seen {
		return nil
	}
	return Finite(total)
}

// Add returns a + b when both are present.
func Add(a, b *float64) *float64 {
	if a == nil || b == nil {
		return nil
	}
	return Finite(*a + *b)
}

// Sub returns a - b when both are present.
func Sub(a, b *float64) *float64 {
	if a == nil || b == nil {
		return nil
	}
	return Finite(*a - *b)
}

// Mul returns a * b when both are present.
func Mul(a, b *float64) *float64 {
	if a == nil || b == nil {
		return nil
	}
	return Finite(*a * *b)
}

// Float64 is a convenience for building literal pointers.
func Float64(v float64) *float64 {
	return Finite(v)
}
