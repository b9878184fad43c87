package indicator

import (
	"math"

	"synapse-analytics/internal/series"
)

// BollingerResult holds the bands plus bandwidth and %B.
type BollingerResult struct {
	Upper     []float64
	Middle    []float64
	Lower     []float64
	Bandwidth []float64
	PercentB  []float64
}

// KeltnerResult holds the Keltner channel lines.
type KeltnerResult struct {
	Upper  []float64
	Middle []float64
	Lower  []float64
}

// BollingerBands places bands k population standard deviations around the
// period SMA. Bandwidth is (upper-lower)/middle, undefined for a zero
// middle; %B is (price-lower)/(upper-lower), undefined for a zero range.
func BollingerBands(prices []float64, period int, k float64) BollingerResult {
	n := len(prices)
	res := BollingerResult{
		Upper:     series.NewUndefined(n),
		Middle:    series.NewUndefined(n),
		Lower:     series.NewUndefined(n),
		Bandwidth: series.NewUndefined(n),
		PercentB:  series.NewUndefined(n),
	}
	if period < 1 || n < period {
		return res
	}

	sma := SMA(prices, period)
	for i := period - 1; i < n; i++ {
		mean := sma[i]
		ss := 0.0
		for _, p := range series.Window(prices, i, period) {
			ss += (p - mean) * (p - mean)
		}
		std := math.Sqrt(ss / float64(period))

		res.Middle[i] = mean
		res.Upper[i] = mean + k*std
		res.Lower[i] = mean - k*std
		if mean != 0 {
			res.Bandwidth[i] = (res.Upper[i] - res.Lower[i]) / mean
		}
		if r := res.Upper[i] - res.Lower[i]; r != 0 {
			res.PercentB[i] = (prices[i] - res.Lower[i]) / r
		}
	}
	return res
}

// TrueRange is max(h-l, |h-prevClose|, |l-prevClose|), with tr[0] = h-l.
func TrueRange(highs, lows, closes []float64) []float64 {
	n := series.Span(highs, lows, closes)
	tr := make([]float64, n)
	if n == 0 {
		return tr
	}
	tr[0] = highs[0] - lows[0]
	for i := 1; i < n; i++ {
		tr[i] = math.Max(highs[i]-lows[i],
			math.Max(math.Abs(highs[i]-closes[i-1]), math.Abs(lows[i]-closes[i-1])))
	}
	return tr
}

// ATR is the Average True Range. The first value, at index period-1, is the
// mean of the first period true ranges; later values use Wilder smoothing.
// Requires at least period+1 bars.
func ATR(highs, lows, closes []float64, period int) []float64 {
	out := series.NewUndefined(len(closes))
	n := series.Span(highs, lows, closes)
	if period < 1 || n < period+1 {
		return out
	}

	tr := TrueRange(highs, lows, closes)
	atr := series.Mean(tr[:period])
	out[period-1] = atr
	p := float64(period)
	for i := period; i < n; i++ {
		atr = (atr*(p-1) + tr[i]) / p
		out[i] = atr
	}
	return out
}

// KeltnerChannels centres on EMA(closes, emaPeriod) with bands mult ATRs
// away, defined where both the EMA and the ATR are.
func KeltnerChannels(highs, lows, closes []float64, emaPeriod, atrPeriod int, mult float64) KeltnerResult {
	n := len(closes)
	res := KeltnerResult{
		Upper:  series.NewUndefined(n),
		Middle: series.NewUndefined(n),
		Lower:  series.NewUndefined(n),
	}

	ema := EMA(closes, emaPeriod)
	atr := ATR(highs, lows, closes, atrPeriod)
	for i := 0; i < n; i++ {
		if math.IsNaN(ema[i]) || math.IsNaN(atr[i]) {
			continue
		}
		res.Middle[i] = ema[i]
		res.Upper[i] = ema[i] + mult*atr[i]
		res.Lower[i] = ema[i] - mult*atr[i]
	}
	return res
}

// StdDev is the rolling population standard deviation.
func StdDev(prices []float64, period int) []float64 {
	out := series.NewUndefined(len(prices))
	if period < 1 || len(prices) < period {
		return out
	}
	for i := period - 1; i < len(prices); i++ {
		out[i] = math.Sqrt(series.PopVariance(series.Window(prices, i, period)))
	}
	return out
}

// HistoricalVolatility annualizes the rolling sample standard deviation of
// log returns: sqrt(var * annualization). A return involving a non-positive
// price counts as 0. Defined from index period; period must be at least 2.
func HistoricalVolatility(prices []float64, period int, annualization float64) []float64 {
	out := series.NewUndefined(len(prices))
	if period < 2 || len(prices) < period+1 {
		return out
	}

	logReturns := make([]float64, len(prices))
	for i := 1; i < len(prices); i++ {
		if prices[i-1] > 0 && prices[i] > 0 {
			logReturns[i] = math.Log(prices[i] / prices[i-1])
		}
	}

	for i := period; i < len(prices); i++ {
		v := series.SampleVariance(series.Window(logReturns, i, period))
		out[i] = math.Sqrt(v * annualization)
	}
	return out
}

// ADR is the Average Daily Range: the rolling mean of high-low.
func ADR(highs, lows []float64, period int) []float64 {
	out := series.NewUndefined(len(highs))
	n := series.Span(highs, lows)
	if period < 1 || n < period {
		return out
	}

	ranges := make([]float64, n)
	for i := 0; i < n; i++ {
		ranges[i] = highs[i] - lows[i]
	}
	for i := period - 1; i < n; i++ {
		out[i] = series.Mean(series.Window(ranges, i, period))
	}
	return out
}

// VolatilityRatio is the bar's true range over the ATR at the same index,
// defined from index 1 wherever the ATR is defined and non-zero.
func VolatilityRatio(highs, lows, closes []float64, period int) []float64 {
	out := series.NewUndefined(len(closes))
	atr := ATR(highs, lows, closes, period)
	tr := TrueRange(highs, lows, closes)
	for i := 1; i < len(tr); i++ {
		if !math.IsNaN(atr[i]) && atr[i] != 0 {
			out[i] = tr[i] / atr[i]
		}
	}
	return out
}
