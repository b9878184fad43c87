package backtest

import "log/slog"

// Config holds the engine's accounting parameters. Rates are fractions:
// 0.001 is 0.1%. Nothing is validated; callers own sane inputs.
type Config struct {
	InitialCapital      float64 `json:"initial_capital" yaml:"initial_capital"`
	Leverage            float64 `json:"leverage" yaml:"leverage"`
	Commission          float64 `json:"commission" yaml:"commission"`
	Slippage            float64 `json:"slippage" yaml:"slippage"`
	UseTrailingStop     bool    `json:"use_trailing_stop" yaml:"use_trailing_stop"`
	TrailingStopPercent float64 `json:"trailing_stop_percent" yaml:"trailing_stop_percent"`
}

// DefaultConfig returns 10000 capital, 1x leverage, 0.1% commission, 0.05%
// slippage and a disabled 5% trailing stop.
func DefaultConfig() Config {
	return Config{
		InitialCapital:      10000,
		Leverage:            1,
		Commission:          0.001,
		Slippage:            0.0005,
		UseTrailingStop:     false,
		TrailingStopPercent: 0.05,
	}
}

// Option configures an Engine.
type Option func(*Engine)

// WithConfig replaces the whole configuration.
func WithConfig(cfg Config) Option {
	return func(e *Engine) {
		e.cfg = cfg
	}
}

// WithInitialCapital sets the starting cash.
func WithInitialCapital(capital float64) Option {
	return func(e *Engine) {
		e.cfg.InitialCapital = capital
	}
}

// WithLeverage sets the position-size multiplier.
func WithLeverage(leverage float64) Option {
	return func(e *Engine) {
		e.cfg.Leverage = leverage
	}
}

// WithCommission sets the commission rate charged on entry capital and exit
// notional.
func WithCommission(rate float64) Option {
	return func(e *Engine) {
		e.cfg.Commission = rate
	}
}

// WithSlippage sets the adverse fill adjustment applied to every price.
func WithSlippage(rate float64) Option {
	return func(e *Engine) {
		e.cfg.Slippage = rate
	}
}

// WithTrailingStop enables a trailing stop pct away from the best close
// since entry.
func WithTrailingStop(pct float64) Option {
	return func(e *Engine) {
		e.cfg.UseTrailingStop = true
		e.cfg.TrailingStopPercent = pct
	}
}

// WithLogger routes per-trade debug logs to l.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}
