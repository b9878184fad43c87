// Package verify cross-checks the indicator implementations against TA-Lib
// (github.com/markcheno/go-talib) on the same input.
package verify

import (
	"fmt"
	"math"

	"github.com/markcheno/go-talib"

	"synapse-analytics/internal/indicator"
)

// Check is the outcome of comparing one indicator with its TA-Lib twin.
type Check struct {
	Name     string
	Compared int     // indices where our output is defined
	MaxDiff  float64 // largest absolute difference seen
	Passed   bool
}

func (c Check) String() string {
	status := "ok"
	if !c.Passed {
		status = "MISMATCH"
	}
	return fmt.Sprintf("%-8s %-8s compared=%d max_diff=%.3g", c.Name, status, c.Compared, c.MaxDiff)
}

// Tolerance is the absolute difference allowed per value.
const Tolerance = 1e-6

// Run compares SMA, EMA, WMA, RSI, ROC, MOM and OBV for the given period.
// TA-Lib zero-fills its lookback; only indices where our output is defined
// are compared.
func Run(closes, volumes []float64, period int) []Check {
	type pair struct {
		name string
		ours []float64
		ref  func() []float64
	}
	pairs := []pair{
		{"SMA", indicator.SMA(closes, period), func() []float64 { return talib.Sma(closes, period) }},
		{"EMA", indicator.EMA(closes, period), func() []float64 { return talib.Ema(closes, period) }},
		{"WMA", indicator.WMA(closes, period), func() []float64 { return talib.Wma(closes, period) }},
		{"RSI", indicator.RSI(closes, period), func() []float64 { return talib.Rsi(closes, period) }},
		{"ROC", indicator.ROC(closes, period), func() []float64 { return talib.Roc(closes, period) }},
		{"MOM", indicator.Momentum(closes, period), func() []float64 { return talib.Mom(closes, period) }},
		{"OBV", indicator.OBV(closes, volumes), func() []float64 { return talib.Obv(closes, volumes) }},
	}

	checks := make([]Check, 0, len(pairs))
	for _, p := range pairs {
		// TA-Lib indexes past the end on inputs shorter than its lookback.
		if len(closes) <= period {
			checks = append(checks, Check{Name: p.name, Passed: true})
			continue
		}
		checks = append(checks, compare(p.name, p.ours, p.ref()))
	}
	return checks
}

func compare(name string, ours, ref []float64) Check {
	c := Check{Name: name, Passed: true}
	for i := range ours {
		if math.IsNaN(ours[i]) || i >= len(ref) {
			continue
		}
		c.Compared++
		d := math.Abs(ours[i] - ref[i])
		if d > c.MaxDiff {
			c.MaxDiff = d
		}
		if d > Tolerance*math.Max(1, math.Abs(ref[i])) {
			c.Passed = false
		}
	}
	return c
}

// AllPassed reports whether every check passed.
func AllPassed(checks []Check) bool {
	for _, c := range checks {
		if !c.Passed {
			return false
		}
	}
	return true
}
