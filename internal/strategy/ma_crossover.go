package strategy

import (
	"log/slog"
	"math"

	"synapse-analytics/internal/indicator"
	"synapse-analytics/internal/model"
)

// MACrossover implements a moving-average crossover strategy.
//
// Buy signal: fast MA crosses above slow MA (golden cross)
// Sell signal: fast MA crosses below slow MA (death cross)
//
// Optional RSI filter prevents buying when overbought (>70)
// or selling when oversold (<30).
type MACrossover struct {
	fastPeriod int
	slowPeriod int
	maType     indicator.MAType

	// RSI filter, disabled when rsiPeriod is 0
	rsiPeriod int
}

// NewMACrossover creates a new crossover strategy.
// fastPeriod < slowPeriod (e.g., 9 and 21).
func NewMACrossover(fastPeriod, slowPeriod int, maType indicator.MAType, rsiPeriod int) *MACrossover {
	return &MACrossover{
		fastPeriod: fastPeriod,
		slowPeriod: slowPeriod,
		maType:     maType,
		rsiPeriod:  rsiPeriod,
	}
}

func (s *MACrossover) Name() string {
	return "ma_crossover"
}

func (s *MACrossover) Signals(bars []model.Bar) []int {
	closes := model.Series(bars).Closes()
	signals := indicator.MACrossoverSignals(closes, s.fastPeriod, s.slowPeriod, s.maType)
	if s.rsiPeriod <= 0 {
		return signals
	}

	rsi := indicator.RSI(closes, s.rsiPeriod)
	for i, sig := range signals {
		if sig == 0 || math.IsNaN(rsi[i]) {
			continue
		}
		if sig == 1 && rsi[i] > 70 {
			slog.Debug("[strategy] golden cross filtered by RSI", "bar", i, "rsi", rsi[i])
			signals[i] = 0
		}
		if sig == -1 && rsi[i] < 30 {
			slog.Debug("[strategy] death cross filtered by RSI", "bar", i, "rsi", rsi[i])
			signals[i] = 0
		}
	}
	return signals
}
