// Package strategy turns bar series into backtest signals.
//
// A Strategy emits one signal per bar: +1 to go long, -1 to go short and 0
// to hold. Strategies are stateless between calls, so one value can serve
// concurrent sweeps.
package strategy

import (
	"errors"
	"fmt"
	"sort"

	"synapse-analytics/internal/indicator"
	"synapse-analytics/internal/model"
)

// ErrUnknownStrategy is returned by New for an unregistered name.
var ErrUnknownStrategy = errors.New("strategy: unknown strategy")

// Strategy is the interface every built-in implements. It satisfies
// backtest.SignalSource.
type Strategy interface {
	// Name returns the registry name of the strategy.
	Name() string

	// Signals returns a slice aligned with bars.
	Signals(bars []model.Bar) []int
}

// Params are the numeric knobs of a strategy; missing keys take defaults.
type Params = indicator.Params

type factory func(p Params) Strategy

var factories = map[string]factory{
	"ma_crossover": func(p Params) Strategy {
		maType := indicator.MATypeEMA
		if p.Int("sma", 0) != 0 {
			maType = indicator.MATypeSMA
		}
		return NewMACrossover(p.Int("fast", 9), p.Int("slow", 21), maType, p.Int("rsi_period", 0))
	},
	"rsi_reversion": func(p Params) Strategy {
		return NewRSIReversion(p.Int("period", 14), p.Float("oversold", 30), p.Float("overbought", 70))
	},
	"bollinger_reversion": func(p Params) Strategy {
		return NewBollingerReversion(p.Int("period", 20), p.Float("k", 2))
	},
}

// New builds the named strategy.
func New(name string, p Params) (Strategy, error) {
	f, ok := factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
	return f(p), nil
}

// Names lists the registered strategies, sorted.
func Names() []string {
	names := make([]string, 0, len(factories))
	for n := range factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
