package indicator

import "math"

// StreamSMMA calculates Smoothed Moving Average (Wilder-style smoothing).
// First value is SMA(period), then SMMA = (prev*(period-1) + price) / period.
// This is the recursion ATR and RSI apply to their components.
type StreamSMMA struct {
	period  int
	count   int
	sum     float64
	current float64
}

// NewStreamSMMA creates a new SMMA indicator with the given period.
func NewStreamSMMA(period int) *StreamSMMA {
	if period < 1 {
		period = 1
	}
	return &StreamSMMA{period: period}
}

func (s *StreamSMMA) Name() string { return "SMMA" }

func (s *StreamSMMA) Update(price float64) float64 {
	s.count++

	if s.count <= s.period {
		s.sum += price
		if s.count == s.period {
			s.current = s.sum / float64(s.period)
		}
		return s.Value()
	}

	p := float64(s.period)
	s.current = (s.current*(p-1) + price) / p
	return s.current
}

func (s *StreamSMMA) Value() float64 {
	if !s.Ready() {
		return math.NaN()
	}
	return s.current
}

func (s *StreamSMMA) Ready() bool { return s.count >= s.period }

// Peek computes what Update would return without mutating state.
func (s *StreamSMMA) Peek(price float64) float64 {
	switch {
	case s.count+1 < s.period:
		return math.NaN()
	case s.count < s.period:
		return (s.sum + price) / float64(s.period)
	}
	p := float64(s.period)
	return (s.current*(p-1) + price) / p
}

// Reset clears the SMMA state for reuse.
func (s *StreamSMMA) Reset() {
	s.count = 0
	s.sum = 0
	s.current = 0
}
