package indicator

import (
	"math"

	"synapse-analytics/internal/series"
)

// MACDResult holds the three MACD lines, each aligned with the input prices.
type MACDResult struct {
	MACD      []float64
	Signal    []float64
	Histogram []float64
}

// StochasticResult holds %K and its d-period average %D.
type StochasticResult struct {
	K []float64
	D []float64
}

// RSI is Wilder's Relative Strength Index. The first value sits at index
// period, seeded from the simple mean of the first period gains and losses.
// A zero average loss treats RS as 100.
func RSI(prices []float64, period int) []float64 {
	out := series.NewUndefined(len(prices))
	if period < 1 || len(prices) < period+1 {
		return out
	}

	avgGain, avgLoss := 0.0, 0.0
	for i := 1; i <= period; i++ {
		gain, loss := splitDelta(prices[i] - prices[i-1])
		avgGain += gain
		avgLoss += loss
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	out[period] = rsiFromAverages(avgGain, avgLoss)

	p := float64(period)
	for i := period + 1; i < len(prices); i++ {
		gain, loss := splitDelta(prices[i] - prices[i-1])
		avgGain = (avgGain*(p-1) + gain) / p
		avgLoss = (avgLoss*(p-1) + loss) / p
		out[i] = rsiFromAverages(avgGain, avgLoss)
	}
	return out
}

// MACD computes EMA(fast) - EMA(slow), its signal-period EMA and their
// difference. The signal EMA runs over the defined MACD values only and is
// mapped back to their indices. Everything is undefined when the input is
// shorter than slow.
func MACD(prices []float64, fast, slow, signal int) MACDResult {
	n := len(prices)
	res := MACDResult{
		MACD:      series.NewUndefined(n),
		Signal:    series.NewUndefined(n),
		Histogram: series.NewUndefined(n),
	}
	if slow < 1 || n < slow {
		return res
	}

	fastEMA := EMA(prices, fast)
	slowEMA := EMA(prices, slow)
	for i := 0; i < n; i++ {
		if !math.IsNaN(fastEMA[i]) && !math.IsNaN(slowEMA[i]) {
			res.MACD[i] = fastEMA[i] - slowEMA[i]
		}
	}

	values, index := series.Compact(res.MACD)
	if signal >= 1 && len(values) >= signal {
		res.Signal = series.Scatter(n, EMA(values, signal), index)
	}

	for i := 0; i < n; i++ {
		if !math.IsNaN(res.MACD[i]) && !math.IsNaN(res.Signal[i]) {
			res.Histogram[i] = res.MACD[i] - res.Signal[i]
		}
	}
	return res
}

// Stochastic computes %K = (close - lowest low) / (highest high - lowest low)
// * 100 over k bars, 50 when the range is zero, and %D as the mean of the
// last d %K values once all of them are defined.
func Stochastic(highs, lows, closes []float64, k, d int) StochasticResult {
	res := StochasticResult{
		K: series.NewUndefined(len(closes)),
		D: series.NewUndefined(len(closes)),
	}
	n := series.Span(highs, lows, closes)
	if k < 1 || d < 1 || n < k {
		return res
	}

	for i := k - 1; i < n; i++ {
		highest, lowest := math.Inf(-1), math.Inf(1)
		for j := i - k + 1; j <= i; j++ {
			highest = math.Max(highest, highs[j])
			lowest = math.Min(lowest, lows[j])
		}
		if highest != lowest {
			res.K[i] = (closes[i] - lowest) / (highest - lowest) * 100
		} else {
			res.K[i] = 50
		}
	}

	for i := k + d - 2; i < n; i++ {
		window := series.Window(res.K, i, d)
		if series.Defined(window) == d {
			res.D[i] = series.Mean(window)
		}
	}
	return res
}

// ROC is the percent change over period bars. Undefined where the base
// price is zero.
func ROC(prices []float64, period int) []float64 {
	out := series.NewUndefined(len(prices))
	if period < 1 {
		return out
	}
	for i := period; i < len(prices); i++ {
		if base := prices[i-period]; base != 0 {
			out[i] = (prices[i] - base) / base * 100
		}
	}
	return out
}

// Momentum is the absolute price change over period bars.
func Momentum(prices []float64, period int) []float64 {
	out := series.NewUndefined(len(prices))
	if period < 1 {
		return out
	}
	for i := period; i < len(prices); i++ {
		out[i] = prices[i] - prices[i-period]
	}
	return out
}
