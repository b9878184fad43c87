// Package synth generates seeded random-walk bars for demos, tests and the
// seed command. The same Params always produce the same bars.
package synth

import (
	"math"
	"math/rand"
	"time"

	"synapse-analytics/internal/markethours"
	"synapse-analytics/internal/model"
)

// Params describes a walk. Zero fields take the defaults in withDefaults.
type Params struct {
	Symbol     string
	Bars       int
	Start      time.Time
	Interval   time.Duration
	StartPrice float64
	Volatility float64 // width of the uniform per-bar change
	Trend      float64 // drift added to every change
	Seed       int64

	// Calendar, when set, moves every bar onto a trading day. Meant for
	// daily intervals.
	Calendar *markethours.Calendar
}

func (p Params) withDefaults() Params {
	if p.Symbol == "" {
		p.Symbol = "DEMO"
	}
	if p.Start.IsZero() {
		p.Start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	if p.Interval <= 0 {
		p.Interval = 24 * time.Hour
	}
	if p.StartPrice <= 0 {
		p.StartPrice = 100
	}
	if p.Volatility == 0 {
		p.Volatility = 0.02
	}
	if p.Trend == 0 {
		p.Trend = 0.0002
	}
	return p
}

// Walker produces one bar per Next call.
type Walker struct {
	p     Params
	rng   *rand.Rand
	price float64
	ts    time.Time
	first bool
}

func NewWalker(p Params) *Walker {
	p = p.withDefaults()
	if p.Calendar != nil {
		p.Start = p.Calendar.NextTradingDay(p.Start)
	}
	return &Walker{
		p:     p,
		rng:   rand.New(rand.NewSource(p.Seed)),
		price: p.StartPrice,
		ts:    p.Start,
		first: true,
	}
}

// Next advances the walk: close = prevClose * (1 + (u-0.5)*volatility +
// trend). The first bar closes at StartPrice. Open is the previous close;
// high and low widen the body by up to half the volatility.
func (w *Walker) Next() model.Bar {
	open := w.price
	if w.first {
		w.first = false
	} else {
		change := (w.rng.Float64()-0.5)*w.p.Volatility + w.p.Trend
		w.price = w.price * (1 + change)
		w.ts = w.ts.Add(w.p.Interval)
		if w.p.Calendar != nil {
			w.ts = w.p.Calendar.NextTradingDay(w.ts)
		}
	}

	wick := w.p.Volatility / 2
	high := math.Max(open, w.price) * (1 + w.rng.Float64()*wick)
	low := math.Min(open, w.price) * (1 - w.rng.Float64()*wick)
	return model.Bar{
		Symbol: w.p.Symbol,
		TS:     w.ts,
		Open:   open,
		High:   high,
		Low:    low,
		Close:  w.price,
		Volume: math.Round(1000 + w.rng.Float64()*9000),
	}
}

// Generate returns p.Bars bars of the walk.
func Generate(p Params) []model.Bar {
	if p.Bars <= 0 {
		return []model.Bar{}
	}
	w := NewWalker(p)
	bars := make([]model.Bar, p.Bars)
	for i := range bars {
		bars[i] = w.Next()
	}
	return bars
}

// Closes is Generate reduced to closing prices.
func Closes(p Params) []float64 {
	return model.Series(Generate(p)).Closes()
}
