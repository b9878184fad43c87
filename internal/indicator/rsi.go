package indicator

import "math"

// StreamRSI calculates the Relative Strength Index using Wilder's smoothing
// method. The first value appears after period+1 prices.
// Update is O(1) per price.
type StreamRSI struct {
	period    int
	count     int
	prevClose float64
	avgGain   float64
	avgLoss   float64
	current   float64
}

// NewStreamRSI creates a new RSI indicator with the given period (typically 14).
func NewStreamRSI(period int) *StreamRSI {
	if period < 1 {
		period = 1
	}
	return &StreamRSI{period: period}
}

func (r *StreamRSI) Name() string { return "RSI" }

func (r *StreamRSI) Update(price float64) float64 {
	r.count++

	if r.count == 1 {
		// First price: record it, no delta yet
		r.prevClose = price
		return math.NaN()
	}

	gain, loss := splitDelta(price - r.prevClose)
	r.prevClose = price

	if r.count <= r.period+1 {
		// Accumulation phase: build initial averages
		r.avgGain += gain
		r.avgLoss += loss

		if r.count == r.period+1 {
			r.avgGain /= float64(r.period)
			r.avgLoss /= float64(r.period)
			r.current = rsiFromAverages(r.avgGain, r.avgLoss)
		}
		return r.Value()
	}

	p := float64(r.period)
	r.avgGain = (r.avgGain*(p-1) + gain) / p
	r.avgLoss = (r.avgLoss*(p-1) + loss) / p
	r.current = rsiFromAverages(r.avgGain, r.avgLoss)
	return r.current
}

func (r *StreamRSI) Value() float64 {
	if !r.Ready() {
		return math.NaN()
	}
	return r.current
}

func (r *StreamRSI) Ready() bool { return r.count > r.period }

// Peek computes what Update would return without mutating state.
func (r *StreamRSI) Peek(price float64) float64 {
	if r.count == 0 || r.count < r.period {
		return math.NaN()
	}
	gain, loss := splitDelta(price - r.prevClose)
	p := float64(r.period)
	if r.count == r.period {
		return rsiFromAverages((r.avgGain+gain)/p, (r.avgLoss+loss)/p)
	}
	ag := (r.avgGain*(p-1) + gain) / p
	al := (r.avgLoss*(p-1) + loss) / p
	return rsiFromAverages(ag, al)
}

// Reset clears the RSI state for reuse.
func (r *StreamRSI) Reset() {
	r.count = 0
	r.prevClose = 0
	r.avgGain = 0
	r.avgLoss = 0
	r.current = 0
}

func splitDelta(delta float64) (gain, loss float64) {
	if delta > 0 {
		return delta, 0
	}
	return 0, -delta
}

// rsiFromAverages maps Wilder averages to the 0..100 scale. A zero average
// loss pins RS at 100, so RSI tops out just below 100 (100 - 100/101).
func rsiFromAverages(avgGain, avgLoss float64) float64 {
	rs := 100.0
	if avgLoss != 0 {
		rs = avgGain / avgLoss
	}
	return 100.0 - 100.0/(1.0+rs)
}
