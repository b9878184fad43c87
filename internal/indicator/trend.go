package indicator

import (
	"math"

	"synapse-analytics/internal/series"
)

// MAType selects the moving average used by crossover signals.
type MAType string

const (
	MATypeSMA MAType = "sma"
	MATypeEMA MAType = "ema"
)

// SMA is the arithmetic mean of the trailing period prices. The first value
// sits at index period-1.
func SMA(prices []float64, period int) []float64 {
	out := series.NewUndefined(len(prices))
	if period < 1 || len(prices) < period {
		return out
	}

	sum := 0.0
	for i := 0; i < period; i++ {
		sum += prices[i]
	}
	out[period-1] = sum / float64(period)

	// Rolling window: drop the oldest, add the newest.
	for i := period; i < len(prices); i++ {
		sum = sum - prices[i-period] + prices[i]
		out[i] = sum / float64(period)
	}
	return out
}

// EMA is seeded with the SMA of the first period prices at index period-1,
// then ema[i] = (p[i] - ema[i-1]) * 2/(period+1) + ema[i-1].
func EMA(prices []float64, period int) []float64 {
	out := series.NewUndefined(len(prices))
	if period < 1 || len(prices) < period {
		return out
	}

	k := 2.0 / float64(period+1)
	sum := 0.0
	for i := 0; i < period; i++ {
		sum += prices[i]
	}
	out[period-1] = sum / float64(period)
	for i := period; i < len(prices); i++ {
		out[i] = (prices[i]-out[i-1])*k + out[i-1]
	}
	return out
}

// WMA weights the window linearly, oldest 1 through newest period.
func WMA(prices []float64, period int) []float64 {
	out := series.NewUndefined(len(prices))
	if period < 1 || len(prices) < period {
		return out
	}

	divisor := float64(period*(period+1)) / 2
	for i := period - 1; i < len(prices); i++ {
		weighted := 0.0
		for j := 0; j < period; j++ {
			weighted += prices[i-period+1+j] * float64(j+1)
		}
		out[i] = weighted / divisor
	}
	return out
}

// AwesomeOscillator is SMA(fast) - SMA(slow) of the median price
// (high+low)/2, defined where both averages are.
func AwesomeOscillator(highs, lows []float64, fast, slow int) []float64 {
	n := series.Span(highs, lows)
	median := make([]float64, n)
	for i := 0; i < n; i++ {
		median[i] = (highs[i] + lows[i]) / 2
	}

	fastSMA := SMA(median, fast)
	slowSMA := SMA(median, slow)
	out := series.NewUndefined(len(highs))
	for i := 0; i < n; i++ {
		if !math.IsNaN(fastSMA[i]) && !math.IsNaN(slowSMA[i]) {
			out[i] = fastSMA[i] - slowSMA[i]
		}
	}
	return out
}

// AcceleratorOscillator is the default Awesome Oscillator (5, 34) minus the
// period-SMA of its own defined values. The SMA runs over the compacted AO
// sequence and is scattered back to the AO's original indices. Everything
// is undefined when fewer than period AO values exist.
func AcceleratorOscillator(highs, lows []float64, period int) []float64 {
	ao := AwesomeOscillator(highs, lows, 5, 34)
	values, index := series.Compact(ao)
	if period < 1 || len(values) < period {
		return series.NewUndefined(len(highs))
	}

	avg := SMA(values, period)
	ac := make([]float64, len(values))
	for j := range values {
		ac[j] = values[j] - avg[j] // undefined where avg is
	}
	return series.Scatter(len(highs), ac, index)
}

// MACrossoverSignals emits +1 where the fast average crosses above the slow
// one, -1 where it crosses below, 0 elsewhere. Index 0 and any index where
// either average (current or previous) is undefined is always 0.
func MACrossoverSignals(prices []float64, fast, slow int, maType MAType) []int {
	ma := EMA
	if maType == MATypeSMA {
		ma = SMA
	}
	fastMA := ma(prices, fast)
	slowMA := ma(prices, slow)

	signals := make([]int, len(prices))
	for i := 1; i < len(prices); i++ {
		if math.IsNaN(fastMA[i]) || math.IsNaN(slowMA[i]) ||
			math.IsNaN(fastMA[i-1]) || math.IsNaN(slowMA[i-1]) {
			continue
		}
		switch {
		case fastMA[i] > slowMA[i] && fastMA[i-1] <= slowMA[i-1]:
			signals[i] = 1
		case fastMA[i] < slowMA[i] && fastMA[i-1] >= slowMA[i-1]:
			signals[i] = -1
		}
	}
	return signals
}

// TrendStrength scores directional consistency in [0, 100]: over the period
// returns ending at i, |up - down| / (up + down) * 100. Undefined when every
// return in the window is flat.
func TrendStrength(prices []float64, period int) []float64 {
	out := series.NewUndefined(len(prices))
	if period < 1 || len(prices) < period+1 {
		return out
	}

	for i := period; i < len(prices); i++ {
		up, down := 0, 0
		for j := i - period + 1; j <= i; j++ {
			r := (prices[j] - prices[j-1]) / prices[j-1]
			switch {
			case r > 0:
				up++
			case r < 0:
				down++
			}
		}
		if total := up + down; total > 0 {
			diff := up - down
			if diff < 0 {
				diff = -diff
			}
			out[i] = float64(diff) / float64(total) * 100
		}
	}
	return out
}
