package model

import (
	"encoding/json"
	"time"
)

// Bar is one OHLCV observation. Prices and volume are plain float64; the
// analytics layer never needs exact decimal arithmetic.
type Bar struct {
	Symbol string    `json:"symbol,omitempty"`
	TS     time.Time `json:"ts"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// TypicalPrice is (high + low + close) / 3.
func (b *Bar) TypicalPrice() float64 {
	return (b.High + b.Low + b.Close) / 3
}

// JSON returns the JSON-encoded bar (ignoring errors for hot-path usage).
func (b *Bar) JSON() []byte {
	out, _ := json.Marshal(b)
	return out
}

// Side is the direction of a position.
type Side string

const (
	SideLong  Side = "long"
	SideShort Side = "short"
)

// Series is an ordered run of bars with column extractors for the indicator
// functions, which all operate on []float64.
type Series []Bar

func (s Series) Closes() []float64 {
	out := make([]float64, len(s))
	for i := range s {
		out[i] = s[i].Close
	}
	return out
}

func (s Series) Opens() []float64 {
	out := make([]float64, len(s))
	for i := range s {
		out[i] = s[i].Open
	}
	return out
}

func (s Series) Highs() []float64 {
	out := make([]float64, len(s))
	for i := range s {
		out[i] = s[i].High
	}
	return out
}

func (s Series) Lows() []float64 {
	out := make([]float64, len(s))
	for i := range s {
		out[i] = s[i].Low
	}
	return out
}

func (s Series) Volumes() []float64 {
	out := make([]float64, len(s))
	for i := range s {
		out[i] = s[i].Volume
	}
	return out
}

func (s Series) Times() []time.Time {
	out := make([]time.Time, len(s))
	for i := range s {
		out[i] = s[i].TS
	}
	return out
}
