package formulas

import (
	"github.com/markcheno/go-talib"
)

// last returns the final finite value of a talib output series.
func last(series []float64) *float64 {
	if len(series) == 0 {
		return nil
	}
	return Finite(series[len(series)-1])
}

// SMA is the simple moving average of the last length closes, nil when the
// series is shorter than length.
func SMA(closes []float64, length int) *float64 {
	if length < 2 || len(closes) < length {
		return nil
	}
	return last(talib.Sma(closes, length))
}

// EMA is the exponential moving average over length closes, nil when the
// series is shorter than length.
func EMA(closes []float64, length int) *float64 {
	if length < 2 || len(closes) < length {
		return nil
	}
	return last(talib.Ema(closes, length))
}

// RSI is the relative strength index (0-100) over length periods, nil when
// fewer than length+1 closes are available.
func RSI(closes []float64, length int) *float64 {
	if length < 2 || len(closes) < length+1 {
		return nil
	}
	return last(talib.Rsi(closes, length))
}

// DistancePct is the percentage distance of price from a reference level.
func DistancePct(price, level *float64) *float64 {
	return Pct(SafeDiv(Sub(price, level), level))
}
