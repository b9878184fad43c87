// Package indicator provides technical indicator calculations.
//
// The batch functions (SMA, RSI, BollingerBands, ...) are pure transforms:
// they take []float64 columns and return results of the same length, with
// series.Undefined at every index that lacks enough history. They never
// mutate their inputs and are safe to call from any goroutine.
//
// The Stream* types compute the same values incrementally, one price at a
// time, for live feeds.
package indicator

// Streamer is the interface for all incremental indicators.
type Streamer interface {
	// Name returns the indicator name (e.g., "SMA", "RSI").
	Name() string

	// Update feeds a new price and returns the new value, or
	// series.Undefined while warming up.
	Update(price float64) float64

	// Value returns the current calculated value. Undefined if not ready.
	Value() float64

	// Ready returns true when enough data has been accumulated.
	Ready() bool

	// Peek computes what Update would return for this price WITHOUT
	// mutating internal state. Used for forming bars.
	Peek(price float64) float64

	// Reset clears all state for reuse.
	Reset()
}
