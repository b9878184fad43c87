package indicator

import "math"

// StreamEMA calculates Exponential Moving Average, seeded with the SMA of
// the first period prices.
// O(1) per update, no window storage.
type StreamEMA struct {
	period     int
	multiplier float64
	current    float64
	count      int
	sum        float64
}

// NewStreamEMA creates a new EMA indicator with the given period.
func NewStreamEMA(period int) *StreamEMA {
	if period < 1 {
		period = 1
	}
	return &StreamEMA{
		period:     period,
		multiplier: 2.0 / float64(period+1),
	}
}

func (e *StreamEMA) Name() string { return "EMA" }

func (e *StreamEMA) Update(price float64) float64 {
	e.count++

	if e.count <= e.period {
		// Accumulate for initial SMA seed
		e.sum += price
		if e.count == e.period {
			e.current = e.sum / float64(e.period)
		}
		return e.Value()
	}

	e.current = (price-e.current)*e.multiplier + e.current
	return e.current
}

func (e *StreamEMA) Value() float64 {
	if !e.Ready() {
		return math.NaN()
	}
	return e.current
}

func (e *StreamEMA) Ready() bool { return e.count >= e.period }

// Peek computes what Update would return without mutating state.
func (e *StreamEMA) Peek(price float64) float64 {
	switch {
	case e.count+1 < e.period:
		return math.NaN()
	case e.count < e.period:
		return (e.sum + price) / float64(e.period)
	}
	return (price-e.current)*e.multiplier + e.current
}

// Reset clears the EMA state for reuse.
func (e *StreamEMA) Reset() {
	e.current = 0
	e.count = 0
	e.sum = 0
}
