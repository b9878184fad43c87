package indicator

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownIndicator is returned by Compute for an unregistered name.
var ErrUnknownIndicator = errors.New("indicator: unknown indicator")

// Params are named numeric parameters; absent keys take the defaults below.
type Params map[string]float64

// Int reads key truncated to an int, or def when absent.
func (p Params) Int(key string, def int) int {
	if v, ok := p[key]; ok {
		return int(v)
	}
	return def
}

// Float reads key, or def when absent.
func (p Params) Float(key string, def float64) float64 {
	if v, ok := p[key]; ok {
		return v
	}
	return def
}

type computeFunc func(in Input, p Params) map[string][]float64

func single(v []float64) map[string][]float64 {
	return map[string][]float64{"value": v}
}

// registry maps the wire names used by the gateway and CLI to batch calls.
var registry = map[string]computeFunc{
	"sma": func(in Input, p Params) map[string][]float64 { return single(SMA(in.Close, p.Int("period", 20))) },
	"ema": func(in Input, p Params) map[string][]float64 { return single(EMA(in.Close, p.Int("period", 20))) },
	"wma": func(in Input, p Params) map[string][]float64 { return single(WMA(in.Close, p.Int("period", 20))) },
	"ao": func(in Input, p Params) map[string][]float64 {
		return single(AwesomeOscillator(in.High, in.Low, p.Int("fast", 5), p.Int("slow", 34)))
	},
	"ac": func(in Input, p Params) map[string][]float64 {
		return single(AcceleratorOscillator(in.High, in.Low, p.Int("period", 5)))
	},
	"trend_strength": func(in Input, p Params) map[string][]float64 {
		return single(TrendStrength(in.Close, p.Int("period", 14)))
	},
	"rsi": func(in Input, p Params) map[string][]float64 { return single(RSI(in.Close, p.Int("period", 14))) },
	"macd": func(in Input, p Params) map[string][]float64 {
		r := MACD(in.Close, p.Int("fast", 12), p.Int("slow", 26), p.Int("signal", 9))
		return map[string][]float64{"macd": r.MACD, "signal": r.Signal, "histogram": r.Histogram}
	},
	"stochastic": func(in Input, p Params) map[string][]float64 {
		r := Stochastic(in.High, in.Low, in.Close, p.Int("k", 14), p.Int("d", 3))
		return map[string][]float64{"k": r.K, "d": r.D}
	},
	"roc":      func(in Input, p Params) map[string][]float64 { return single(ROC(in.Close, p.Int("period", 12))) },
	"momentum": func(in Input, p Params) map[string][]float64 { return single(Momentum(in.Close, p.Int("period", 10))) },
	"obv":      func(in Input, _ Params) map[string][]float64 { return single(OBV(in.Close, in.Volume)) },
	"adl": func(in Input, _ Params) map[string][]float64 {
		return single(ADL(in.High, in.Low, in.Close, in.Volume))
	},
	"mfi": func(in Input, p Params) map[string][]float64 {
		return single(MFI(in.High, in.Low, in.Close, in.Volume, p.Int("period", 14)))
	},
	"cmf": func(in Input, p Params) map[string][]float64 {
		return single(CMF(in.High, in.Low, in.Close, in.Volume, p.Int("period", 20)))
	},
	"pvt": func(in Input, _ Params) map[string][]float64 { return single(PVT(in.Close, in.Volume)) },
	"vwap": func(in Input, _ Params) map[string][]float64 {
		return single(VWAP(in.High, in.Low, in.Close, in.Volume))
	},
	"volume_roc": func(in Input, p Params) map[string][]float64 {
		return single(VolumeROC(in.Volume, p.Int("period", 12)))
	},
	"vpc": func(in Input, p Params) map[string][]float64 {
		return single(VolumePriceConfirmation(in.Close, in.Volume, p.Int("period", 10)))
	},
	"bollinger": func(in Input, p Params) map[string][]float64 {
		r := BollingerBands(in.Close, p.Int("period", 20), p.Float("k", 2))
		return map[string][]float64{
			"upper": r.Upper, "middle": r.Middle, "lower": r.Lower,
			"bandwidth": r.Bandwidth, "percent_b": r.PercentB,
		}
	},
	"atr": func(in Input, p Params) map[string][]float64 {
		return single(ATR(in.High, in.Low, in.Close, p.Int("period", 14)))
	},
	"true_range": func(in Input, _ Params) map[string][]float64 {
		return single(TrueRange(in.High, in.Low, in.Close))
	},
	"keltner": func(in Input, p Params) map[string][]float64 {
		r := KeltnerChannels(in.High, in.Low, in.Close, p.Int("ema", 20), p.Int("atr", 10), p.Float("mult", 2))
		return map[string][]float64{"upper": r.Upper, "middle": r.Middle, "lower": r.Lower}
	},
	"stddev": func(in Input, p Params) map[string][]float64 { return single(StdDev(in.Close, p.Int("period", 20))) },
	"hv": func(in Input, p Params) map[string][]float64 {
		return single(HistoricalVolatility(in.Close, p.Int("period", 20), p.Float("annualization", 252)))
	},
	"adr": func(in Input, p Params) map[string][]float64 {
		return single(ADR(in.High, in.Low, p.Int("period", 14)))
	},
	"volatility_ratio": func(in Input, p Params) map[string][]float64 {
		return single(VolatilityRatio(in.High, in.Low, in.Close, p.Int("period", 14)))
	},
}

// Compute runs the named indicator. Single-line indicators return their
// output under "value"; composite ones use one key per line.
func Compute(name string, in Input, p Params) (map[string][]float64, error) {
	fn, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownIndicator, name)
	}
	return fn(in.withDefaults(), p), nil
}

// Names lists the registered indicator names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
