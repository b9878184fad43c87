// Package series holds the shared helpers every indicator, statistic and
// regression builds on.
//
// An indicator output is a []float64 index-aligned with its input. Positions
// without enough history hold the Undefined sentinel (NaN). Zero is a valid
// reading for most indicators and never stands in for "undefined".
package series

import "math"

// Undefined returns the sentinel stored at indices that have no value yet.
func Undefined() float64 { return math.NaN() }

// IsUndefined reports whether v is the Undefined sentinel.
func IsUndefined(v float64) bool { return math.IsNaN(v) }

// NewUndefined allocates n values, all Undefined.
func NewUndefined(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// Sum adds all values.
func Sum(xs []float64) float64 {
	s := 0.0
	for _, x := range xs {
		s += x
	}
	return s
}

// Mean is the arithmetic mean. Undefined for an empty slice.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	return Sum(xs) / float64(len(xs))
}

// PopVariance divides the sum of squared deviations by n.
func PopVariance(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	m := Mean(xs)
	ss := 0.0
	for _, x := range xs {
		d := x - m
		ss += d * d
	}
	return ss / float64(len(xs))
}

// SampleVariance divides the sum of squared deviations by n-1.
func SampleVariance(xs []float64) float64 {
	if len(xs) < 2 {
		return math.NaN()
	}
	m := Mean(xs)
	ss := 0.0
	for _, x := range xs {
		d := x - m
		ss += d * d
	}
	return ss / float64(len(xs)-1)
}

// Slope is the least-squares slope of xs regressed on its index 0..n-1.
// Returns 0 when fewer than two points exist.
func Slope(xs []float64) float64 {
	n := len(xs)
	if n < 2 {
		return 0
	}
	meanX := float64(n-1) / 2
	meanY := Mean(xs)
	num, den := 0.0, 0.0
	for i, y := range xs {
		dx := float64(i) - meanX
		num += dx * (y - meanY)
		den += dx * dx
	}
	if den == 0 {
		return 0
	}
	return num / den
}

// Window returns the trailing period values ending at index end (inclusive).
// The caller guarantees end-period+1 >= 0.
func Window(xs []float64, end, period int) []float64 {
	return xs[end-period+1 : end+1]
}

// Defined counts the entries that are not Undefined.
func Defined(xs []float64) int {
	n := 0
	for _, x := range xs {
		if !math.IsNaN(x) {
			n++
		}
	}
	return n
}

// Compact strips Undefined entries. index[j] is the position values[j]
// occupied in xs, so Scatter can put sub-computation results back.
func Compact(xs []float64) (values []float64, index []int) {
	values = make([]float64, 0, len(xs))
	index = make([]int, 0, len(xs))
	for i, x := range xs {
		if math.IsNaN(x) {
			continue
		}
		values = append(values, x)
		index = append(index, i)
	}
	return values, index
}

// Scatter is the inverse of Compact: it writes values[j] to position index[j]
// of a fresh length-n slice and leaves every other position Undefined.
func Scatter(n int, values []float64, index []int) []float64 {
	out := NewUndefined(n)
	for j, pos := range index {
		if j >= len(values) {
			break
		}
		out[pos] = values[j]
	}
	return out
}

// Span is the shortest length among aligned inputs. Multi-input indicators
// compute only over this prefix.
func Span(xs ...[]float64) int {
	if len(xs) == 0 {
		return 0
	}
	n := len(xs[0])
	for _, x := range xs[1:] {
		if len(x) < n {
			n = len(x)
		}
	}
	return n
}
