package indicator

import (
	"math"
	"strconv"
	"time"

	"synapse-analytics/internal/model"
	"synapse-analytics/internal/series"
)

// IndicatorConfig specifies a single streaming indicator to compute.
type IndicatorConfig struct {
	Type   string // "SMA", "EMA", "RSI", "SMMA"
	Period int
}

// Reading is one streaming indicator value for one bar.
type Reading struct {
	Name   string        `json:"name"` // e.g. "SMA_20"
	Symbol string        `json:"symbol,omitempty"`
	TS     time.Time     `json:"ts"`
	Value  series.Number `json:"value"` // null while warming up
	Ready  bool          `json:"ready"`
	Live   bool          `json:"live,omitempty"` // computed via Peek on a forming bar
}

// symbolIndicators holds live indicator instances for one symbol.
type symbolIndicators struct {
	streams []Streamer
	names   []string
}

// Engine computes a fixed set of streaming indicators for many symbols.
// Designed for single-goroutine usage; no locks.
type Engine struct {
	configs []IndicatorConfig
	state   map[string]*symbolIndicators
}

// NewEngine creates an engine computing configs for every symbol it sees.
func NewEngine(configs []IndicatorConfig) *Engine {
	return &Engine{
		configs: configs,
		state:   make(map[string]*symbolIndicators, 16),
	}
}

// Process feeds a completed bar and returns one reading per configured
// indicator (not-ready readings carry Ready=false and an undefined value).
func (e *Engine) Process(bar model.Bar) []Reading {
	si, ok := e.state[bar.Symbol]
	if !ok {
		si = e.newSymbolIndicators()
		e.state[bar.Symbol] = si
	}

	out := make([]Reading, len(si.streams))
	for i, s := range si.streams {
		v := s.Update(bar.Close)
		out[i] = Reading{Name: si.names[i], Symbol: bar.Symbol, TS: bar.TS, Value: series.Number(v), Ready: s.Ready()}
	}
	return out
}

// ProcessPeek computes live values for a forming bar without mutating any
// state. Returns nil for a symbol that has not been seen by Process yet.
func (e *Engine) ProcessPeek(bar model.Bar) []Reading {
	si, ok := e.state[bar.Symbol]
	if !ok {
		return nil
	}

	out := make([]Reading, len(si.streams))
	for i, s := range si.streams {
		v := s.Peek(bar.Close)
		out[i] = Reading{Name: si.names[i], Symbol: bar.Symbol, TS: bar.TS, Value: series.Number(v), Ready: !math.IsNaN(v), Live: true}
	}
	return out
}

// Reset drops all per-symbol state.
func (e *Engine) Reset() {
	e.state = make(map[string]*symbolIndicators, 16)
}

func (e *Engine) newSymbolIndicators() *symbolIndicators {
	si := &symbolIndicators{
		streams: make([]Streamer, len(e.configs)),
		names:   make([]string, len(e.configs)),
	}
	for i, c := range e.configs {
		si.streams[i] = NewStreamer(c)
		si.names[i] = si.streams[i].Name() + "_" + strconv.Itoa(c.Period)
	}
	return si
}

// NewStreamer builds the streaming indicator c describes. Unknown types
// fall back to SMA.
func NewStreamer(c IndicatorConfig) Streamer {
	switch c.Type {
	case "EMA":
		return NewStreamEMA(c.Period)
	case "RSI":
		return NewStreamRSI(c.Period)
	case "SMMA":
		return NewStreamSMMA(c.Period)
	default:
		return NewStreamSMA(c.Period)
	}
}
