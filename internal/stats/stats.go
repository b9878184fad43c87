// Package stats implements the summary statistics and risk ratios used to
// judge fits, return series and equity curves.
//
// Degenerate inputs never panic: they yield NaN, +Inf or -Inf as noted on
// each function.
package stats

import (
	"math"
	"sort"

	"synapse-analytics/internal/series"
)

// Summary describes a sample.
type Summary struct {
	Mean     float64 `json:"mean"`
	Std      float64 `json:"std"` // population
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Median   float64 `json:"median"`
	Skewness float64 `json:"skewness"`
	Kurtosis float64 `json:"kurtosis"` // excess
}

// RSquared is 1 - SSres/SStot. NaN on length mismatch or empty input;
// 1 when actual has no variance.
func RSquared(actual, predicted []float64) float64 {
	if len(actual) != len(predicted) || len(actual) == 0 {
		return math.NaN()
	}

	mean := series.Mean(actual)
	ssRes, ssTot := 0.0, 0.0
	for i := range actual {
		r := actual[i] - predicted[i]
		d := actual[i] - mean
		ssRes += r * r
		ssTot += d * d
	}
	if ssTot == 0 {
		return 1
	}
	return 1 - ssRes/ssTot
}

// Correlation is Pearson's r. NaN on length mismatch, fewer than two
// points, or zero variance in either input.
func Correlation(x, y []float64) float64 {
	if len(x) != len(y) || len(x) < 2 {
		return math.NaN()
	}

	mx, my := series.Mean(x), series.Mean(y)
	num, sx, sy := 0.0, 0.0, 0.0
	for i := range x {
		dx, dy := x[i]-mx, y[i]-my
		num += dx * dy
		sx += dx * dx
		sy += dy * dy
	}
	den := math.Sqrt(sx * sy)
	if den == 0 {
		return math.NaN()
	}
	return num / den
}

// SharpeRatio annualizes the mean excess return over the sample standard
// deviation. NaN for fewer than two returns. With zero deviation the ratio
// is +Inf when the mean beats the per-period risk-free rate, else -Inf.
func SharpeRatio(returns []float64, riskFree, periodsPerYear float64) float64 {
	if len(returns) < 2 {
		return math.NaN()
	}

	mean := series.Mean(returns)
	target := riskFree / periodsPerYear
	std := math.Sqrt(series.SampleVariance(returns))
	if std == 0 {
		if mean > target {
			return math.Inf(1)
		}
		return math.Inf(-1)
	}
	return (mean - target) / std * math.Sqrt(periodsPerYear)
}

// SortinoRatio is SharpeRatio with the downside deviation in place of the
// standard deviation. The squared shortfalls below the per-period target
// are divided by the total number of returns, not just the downside count.
// NaN for fewer than two returns; +Inf when nothing falls below target.
func SortinoRatio(returns []float64, riskFree, periodsPerYear float64) float64 {
	if len(returns) < 2 {
		return math.NaN()
	}

	target := riskFree / periodsPerYear
	ss, downside := 0.0, 0
	for _, r := range returns {
		if r < target {
			ss += (r - target) * (r - target)
			downside++
		}
	}
	if downside == 0 {
		return math.Inf(1)
	}
	dd := math.Sqrt(ss / float64(len(returns)))
	if dd == 0 {
		return math.Inf(1)
	}
	return (series.Mean(returns) - target) / dd * math.Sqrt(periodsPerYear)
}

// MaxDrawdown is the largest fractional decline from a running peak.
// 0 for fewer than two prices.
func MaxDrawdown(prices []float64) float64 {
	if len(prices) < 2 {
		return 0
	}

	mdd := 0.0
	peak := prices[0]
	for _, p := range prices {
		if p > peak {
			peak = p
		}
		if peak <= 0 {
			continue
		}
		if dd := (peak - p) / peak; dd > mdd {
			mdd = dd
		}
	}
	return mdd
}

// DrawdownSeries is the fractional decline from the running peak at each
// index, 0 where the peak is not positive.
func DrawdownSeries(prices []float64) []float64 {
	out := make([]float64, len(prices))
	if len(prices) == 0 {
		return out
	}

	peak := prices[0]
	for i, p := range prices {
		if p > peak {
			peak = p
		}
		if peak > 0 {
			out[i] = (peak - p) / peak
		}
	}
	return out
}

// CalmarRatio is the annualized return (1+total)^(periodsPerYear/(n-1)) - 1
// over MaxDrawdown. NaN for fewer than two prices; +Inf with no drawdown.
func CalmarRatio(prices []float64, periodsPerYear float64) float64 {
	if len(prices) < 2 {
		return math.NaN()
	}

	total := (prices[len(prices)-1] - prices[0]) / prices[0]
	annual := math.Pow(1+total, periodsPerYear/float64(len(prices)-1)) - 1
	mdd := MaxDrawdown(prices)
	if mdd == 0 {
		return math.Inf(1)
	}
	return annual / mdd
}

// Describe summarizes data with population moments. Every field is NaN for
// empty input; skewness and kurtosis are 0 when the deviation is 0.
func Describe(data []float64) Summary {
	n := len(data)
	if n == 0 {
		nan := math.NaN()
		return Summary{Mean: nan, Std: nan, Min: nan, Max: nan, Median: nan, Skewness: nan, Kurtosis: nan}
	}

	sorted := append([]float64(nil), data...)
	sort.Float64s(sorted)

	mean := series.Mean(data)
	m2, m3, m4 := 0.0, 0.0, 0.0
	for _, x := range data {
		d := x - mean
		m2 += d * d
		m3 += d * d * d
		m4 += d * d * d * d
	}
	fn := float64(n)
	std := math.Sqrt(m2 / fn)

	s := Summary{
		Mean: mean,
		Std:  std,
		Min:  sorted[0],
		Max:  sorted[n-1],
	}
	if mid := n / 2; n%2 != 0 {
		s.Median = sorted[mid]
	} else {
		s.Median = (sorted[mid-1] + sorted[mid]) / 2
	}
	if std > 0 {
		s.Skewness = (m3 / fn) / math.Pow(std, 3)
		s.Kurtosis = (m4/fn)/math.Pow(std, 4) - 3
	}
	return s
}

// RollingCorrelation is Correlation over each trailing window. All
// undefined on length mismatch or when shorter than period.
func RollingCorrelation(x, y []float64, period int) []float64 {
	out := series.NewUndefined(len(x))
	if len(x) != len(y) || period < 1 || len(x) < period {
		return out
	}
	for i := period - 1; i < len(x); i++ {
		out[i] = Correlation(series.Window(x, i, period), series.Window(y, i, period))
	}
	return out
}

// Beta is cov(asset, market) / var(market). NaN on length mismatch, fewer
// than two points, or a flat market.
func Beta(asset, market []float64) float64 {
	if len(asset) != len(market) || len(asset) < 2 {
		return math.NaN()
	}

	ma, mm := series.Mean(asset), series.Mean(market)
	cov, varM := 0.0, 0.0
	for i := range asset {
		dm := market[i] - mm
		cov += (asset[i] - ma) * dm
		varM += dm * dm
	}
	if varM == 0 {
		return math.NaN()
	}
	return cov / varM
}

// Alpha is Jensen's alpha: mean asset return minus the CAPM expectation
// riskFree + beta*(mean market - riskFree). NaN whenever Beta is.
func Alpha(asset, market []float64, riskFree float64) float64 {
	beta := Beta(asset, market)
	if math.IsNaN(beta) {
		return math.NaN()
	}
	return series.Mean(asset) - (riskFree + beta*(series.Mean(market)-riskFree))
}

// Returns converts prices to simple period-over-period returns; the result
// is one shorter than prices.
func Returns(prices []float64) []float64 {
	if len(prices) < 2 {
		return []float64{}
	}
	out := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		out[i-1] = (prices[i] - prices[i-1]) / prices[i-1]
	}
	return out
}

// CorrelationMatrix holds pairwise correlations between named series.
type CorrelationMatrix struct {
	Symbols []string    `json:"symbols"`
	Matrix  [][]float64 `json:"matrix"`
}

// Correlations computes the pairwise Correlation of every series. The
// diagonal is 1 for any series with variance.
func Correlations(symbols []string, data [][]float64) CorrelationMatrix {
	m := make([][]float64, len(data))
	for i := range data {
		m[i] = make([]float64, len(data))
	}
	for i := range data {
		for j := i; j < len(data); j++ {
			c := Correlation(data[i], data[j])
			m[i][j], m[j][i] = c, c
		}
	}
	return CorrelationMatrix{Symbols: symbols, Matrix: m}
}
