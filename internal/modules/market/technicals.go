package market

import (
	"github.com/aristath/fundamentals/pkg/formulas"
)

// Weekly-bar lookbacks.
const (
	shortWindow = 10 // ~50 trading days
	longWindow  = 40 // ~200 trading days
	emaWindow   = 20
	rsiWindow   = 14
)

// Technicals summarizes the weekly price history.
type Technicals struct {
	LastClose      *float64 `json:"ultimo_fechamento"`
	SMA10w         *float64 `json:"sma_10s"`
	SMA40w         *float64 `json:"sma_40s"`
	EMA20w         *float64 `json:"ema_20s"`
	RSI14w         *float64 `json:"rsi_14s"`
	DistanceSMA40w *float64 `json:"distancia_sma_40s"`
	Return52w      *float64 `json:"retorno_52s"`
	Bars           int      `json:"barras"`
}

// TechnicalsOf derives trend indicators from the closes of the price
// history. Bars without a close are skipped.
func TechnicalsOf(history []PricePoint) Technicals {
	closes := make([]float64, 0, len(history))
	for _, p := range history {
		if p.Close != nil && formulas.Finite(*p.Close) != nil {
			closes = append(closes, *p.Close)
		}
	}

	t := Technicals{Bars: len(closes)}
	if len(closes) == 0 {
		return t
	}

	lastClose := closes[len(closes)-1]
	t.LastClose = formulas.Round(&lastClose, 2)
	sma40 := formulas.SMA(closes, longWindow)
	t.SMA10w = formulas.Round(formulas.SMA(closes, shortWindow), 2)
	t.SMA40w = formulas.Round(sma40, 2)
	t.EMA20w = formulas.Round(formulas.EMA(closes, emaWindow), 2)
	t.RSI14w = formulas.Round(formulas.RSI(closes, rsiWindow), 2)
	t.DistanceSMA40w = formulas.DistancePct(&lastClose, sma40)
	if len(closes) > 52 {
		yearAgo := closes[len(closes)-53]
		t.Return52w = formulas.DistancePct(&lastClose, &yearAgo)
	}
	return t
}
