package strategy

import (
	"math"

	"synapse-analytics/internal/indicator"
	"synapse-analytics/internal/model"
)

// RSIReversion buys when RSI climbs back above the oversold level and sells
// when it falls back below the overbought level.
type RSIReversion struct {
	period     int
	oversold   float64
	overbought float64
}

func NewRSIReversion(period int, oversold, overbought float64) *RSIReversion {
	return &RSIReversion{period: period, oversold: oversold, overbought: overbought}
}

func (s *RSIReversion) Name() string {
	return "rsi_reversion"
}

func (s *RSIReversion) Signals(bars []model.Bar) []int {
	rsi := indicator.RSI(model.Series(bars).Closes(), s.period)
	signals := make([]int, len(bars))
	for i := 1; i < len(rsi); i++ {
		prev, cur := rsi[i-1], rsi[i]
		if math.IsNaN(prev) || math.IsNaN(cur) {
			continue
		}
		switch {
		case prev <= s.oversold && cur > s.oversold:
			signals[i] = 1
		case prev >= s.overbought && cur < s.overbought:
			signals[i] = -1
		}
	}
	return signals
}

// BollingerReversion buys a close below the lower band and sells a close
// above the upper band.
type BollingerReversion struct {
	period int
	k      float64
}

func NewBollingerReversion(period int, k float64) *BollingerReversion {
	return &BollingerReversion{period: period, k: k}
}

func (s *BollingerReversion) Name() string {
	return "bollinger_reversion"
}

func (s *BollingerReversion) Signals(bars []model.Bar) []int {
	closes := model.Series(bars).Closes()
	bb := indicator.BollingerBands(closes, s.period, s.k)
	signals := make([]int, len(bars))
	for i, c := range closes {
		if math.IsNaN(bb.Lower[i]) {
			continue
		}
		switch {
		case c < bb.Lower[i]:
			signals[i] = 1
		case c > bb.Upper[i]:
			signals[i] = -1
		}
	}
	return signals
}
