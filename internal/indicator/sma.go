package indicator

import "math"

// StreamSMA calculates Simple Moving Average over a rolling window.
// Uses a preallocated circular buffer for zero-allocation hot path.
type StreamSMA struct {
	period int
	buf    []float64 // preallocated circular buffer
	idx    int       // current write position
	count  int       // total values received
	sum    float64
}

// NewStreamSMA creates a new SMA indicator with the given period.
func NewStreamSMA(period int) *StreamSMA {
	if period < 1 {
		period = 1
	}
	return &StreamSMA{
		period: period,
		buf:    make([]float64, period),
	}
}

func (s *StreamSMA) Name() string { return "SMA" }

func (s *StreamSMA) Update(price float64) float64 {
	old := 0.0
	if s.count >= s.period {
		old = s.buf[s.idx]
	}
	// Same accumulation order as the batch SMA so both agree bit for bit.
	if s.count < s.period {
		s.sum += price
	} else {
		s.sum = s.sum - old + price
	}
	s.buf[s.idx] = price
	s.idx = (s.idx + 1) % s.period
	s.count++
	return s.Value()
}

func (s *StreamSMA) Value() float64 {
	if !s.Ready() {
		return math.NaN()
	}
	return s.sum / float64(s.period)
}

func (s *StreamSMA) Ready() bool { return s.count >= s.period }

// Peek computes what Update would return without mutating state.
func (s *StreamSMA) Peek(price float64) float64 {
	switch {
	case s.count+1 < s.period:
		return math.NaN()
	case s.count < s.period:
		return (s.sum + price) / float64(s.period)
	}
	// Preview: replace the oldest value (at idx) with new price
	return (s.sum - s.buf[s.idx] + price) / float64(s.period)
}

// Reset clears the SMA state for reuse.
func (s *StreamSMA) Reset() {
	s.idx = 0
	s.count = 0
	s.sum = 0
	for i := range s.buf {
		s.buf[i] = 0
	}
}
