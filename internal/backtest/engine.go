// Package backtest simulates a single long/short position driven by a
// signal per bar, with commission, slippage and an optional trailing stop.
//
// An Engine runs exactly once. Construct a new one per simulation; Sweep
// does this for parameter grids.
package backtest

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"synapse-analytics/internal/model"
	"synapse-analytics/internal/series"
)

var (
	// ErrLengthMismatch is returned when bars and signals differ in length.
	ErrLengthMismatch = errors.New("backtest: bars and signals must have the same length")
	// ErrEngineUsed is returned by a second Run on the same Engine.
	ErrEngineUsed = errors.New("backtest: engine already ran")
)

// Trade is one closed round trip.
type Trade struct {
	EntryPrice float64    `json:"entry_price"`
	ExitPrice  float64    `json:"exit_price"`
	Side       model.Side `json:"side"`
	EntryTime  time.Time  `json:"entry_time"`
	ExitTime   time.Time  `json:"exit_time"`
	PnL        float64    `json:"pnl"`
	PnLPercent float64    `json:"pnl_percent"` // of capital before the close
	Size       float64    `json:"size"`
}

// Result is everything a run produces. EquityCurve starts with the initial
// capital and has one mark-to-market point per processed bar after it.
type Result struct {
	Trades      []Trade        `json:"trades"`
	EquityCurve series.Numbers `json:"equity_curve"`
	Metrics     Metrics        `json:"metrics"`
}

// Engine holds the state of one simulation.
type Engine struct {
	cfg  Config
	log  *slog.Logger
	used bool

	capital    float64
	position   float64 // signed: >0 long, <0 short
	side       model.Side
	entryPrice float64
	entryTime  time.Time
	stop       float64 // NaN while unset
	waterMark  float64

	trades []Trade
	equity []float64
}

// New returns an engine seeded with DefaultConfig overridden by opts.
func New(opts ...Option) *Engine {
	e := &Engine{
		cfg:  DefaultConfig(),
		log:  slog.Default(),
		stop: math.NaN(),
	}
	for _, o := range opts {
		o(e)
	}
	e.log = e.log.With(slog.String("component", "backtest"))
	e.capital = e.cfg.InitialCapital
	e.equity = []float64{e.capital}
	return e
}

// Config returns the effective configuration.
func (e *Engine) Config() Config { return e.cfg }

// Run simulates bars against signals. Only exactly +1 and -1 act; any
// other value is a no-op. A position still open after the last bar is
// closed at that bar's close.
func (e *Engine) Run(bars []model.Bar, signals []int) (Result, error) {
	if len(bars) != len(signals) {
		return Result{}, fmt.Errorf("%w: %d bars, %d signals", ErrLengthMismatch, len(bars), len(signals))
	}
	if e.used {
		return Result{}, ErrEngineUsed
	}
	e.used = true

	for i, bar := range bars {
		if e.cfg.UseTrailingStop && e.position != 0 {
			e.trail(bar.Close)
			if e.stopHit(bar) {
				e.log.Debug("trailing stop hit",
					slog.Int("bar", i), slog.String("side", string(e.side)), slog.Float64("stop", e.stop))
				e.closePosition(e.stop, bar.TS)
				continue
			}
		}

		switch signals[i] {
		case 1:
			if e.position <= 0 {
				if e.position < 0 {
					e.closePosition(bar.Close, bar.TS)
				}
				e.openPosition(bar.Close, model.SideLong, bar.TS)
			}
		case -1:
			if e.position >= 0 {
				if e.position > 0 {
					e.closePosition(bar.Close, bar.TS)
				}
				e.openPosition(bar.Close, model.SideShort, bar.TS)
			}
		}

		e.markToMarket(bar.Close)
	}

	if e.position != 0 && len(bars) > 0 {
		last := bars[len(bars)-1]
		e.closePosition(last.Close, last.TS)
	}

	return Result{
		Trades:      e.trades,
		EquityCurve: e.equity,
		Metrics:     computeMetrics(e.cfg.InitialCapital, e.capital, e.trades, e.equity),
	}, nil
}

func (e *Engine) openPosition(price float64, side model.Side, ts time.Time) {
	entry := price * (1 + e.cfg.Slippage)
	if side == model.SideShort {
		entry = price * (1 - e.cfg.Slippage)
	}

	commission := e.capital * e.cfg.Commission
	size := (e.capital - commission) * e.cfg.Leverage / entry
	if side == model.SideShort {
		size = -size
	}

	e.position = size
	e.side = side
	e.entryPrice = entry
	e.entryTime = ts
	e.waterMark = entry
	e.stop = math.NaN()
	e.capital -= commission

	e.log.Debug("open", slog.String("side", string(side)),
		slog.Float64("entry", entry), slog.Float64("size", size))
}

func (e *Engine) closePosition(price float64, ts time.Time) {
	if e.position == 0 {
		return
	}

	exit := price * (1 - e.cfg.Slippage)
	if e.side == model.SideShort {
		exit = price * (1 + e.cfg.Slippage)
	}

	pnl := e.position*(exit-e.entryPrice) - math.Abs(e.position*exit)*e.cfg.Commission
	e.trades = append(e.trades, Trade{
		EntryPrice: e.entryPrice,
		ExitPrice:  exit,
		Side:       e.side,
		EntryTime:  e.entryTime,
		ExitTime:   ts,
		PnL:        pnl,
		PnLPercent: pnl / e.capital,
		Size:       math.Abs(e.position),
	})
	e.capital += pnl

	e.log.Debug("close", slog.String("side", string(e.side)),
		slog.Float64("exit", exit), slog.Float64("pnl", pnl), slog.Float64("capital", e.capital))

	e.position = 0
	e.side = ""
	e.entryPrice = 0
	e.entryTime = time.Time{}
	e.stop = math.NaN()
}

// trail moves the water mark with the close and ratchets the stop: up only
// for longs, down only for shorts. A short's mark follows the first close
// after entry even when it sits above the entry price.
func (e *Engine) trail(price float64) {
	pct := e.cfg.TrailingStopPercent
	if e.position > 0 {
		e.waterMark = math.Max(e.waterMark, price)
		if s := e.waterMark * (1 - pct); math.IsNaN(e.stop) || s > e.stop {
			e.stop = s
		}
		return
	}
	if price < e.waterMark || e.waterMark == e.entryPrice {
		e.waterMark = price
	}
	if s := e.waterMark * (1 + pct); math.IsNaN(e.stop) || s < e.stop {
		e.stop = s
	}
}

func (e *Engine) stopHit(bar model.Bar) bool {
	if math.IsNaN(e.stop) {
		return false
	}
	if e.position > 0 {
		return bar.Low <= e.stop
	}
	return bar.High >= e.stop
}

func (e *Engine) markToMarket(price float64) {
	eq := e.capital
	if e.position != 0 {
		eq += e.position * (price - e.entryPrice)
	}
	e.equity = append(e.equity, eq)
}

// RunBacktest runs a fresh engine once.
func RunBacktest(bars []model.Bar, signals []int, opts ...Option) (Result, error) {
	return New(opts...).Run(bars, signals)
}

// BarsFromCloses builds flat bars (open = high = low = close) one minute
// apart, for callers that only have a price array.
func BarsFromCloses(closes []float64) []model.Bar {
	bars := make([]model.Bar, len(closes))
	for i, c := range closes {
		bars[i] = model.Bar{
			TS:    time.Unix(int64(i)*60, 0).UTC(),
			Open:  c,
			High:  c,
			Low:   c,
			Close: c,
		}
	}
	return bars
}
