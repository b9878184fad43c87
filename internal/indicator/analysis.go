package indicator

import "synapse-analytics/internal/model"

// Input is a set of aligned price columns. Only Close is required.
type Input struct {
	Close  []float64
	High   []float64
	Low    []float64
	Volume []float64
}

// InputFromBars extracts all four columns from bars.
func InputFromBars(bars []model.Bar) Input {
	s := model.Series(bars)
	return Input{Close: s.Closes(), High: s.Highs(), Low: s.Lows(), Volume: s.Volumes()}
}

// withDefaults substitutes closes for missing highs and lows and a
// constant volume of 1 for missing volumes.
func (in Input) withDefaults() Input {
	if len(in.High) == 0 {
		in.High = in.Close
	}
	if len(in.Low) == 0 {
		in.Low = in.Close
	}
	if len(in.Volume) == 0 {
		in.Volume = make([]float64, len(in.Close))
		for i := range in.Volume {
			in.Volume[i] = 1
		}
	}
	return in
}

// Analysis binds one set of columns to the common indicators with their
// conventional default periods.
type Analysis struct {
	in Input
}

// NewAnalysis wraps in. Missing highs/lows fall back to closes and missing
// volumes to 1.
func NewAnalysis(in Input) *Analysis {
	return &Analysis{in: in.withDefaults()}
}

func (a *Analysis) Len() int { return len(a.in.Close) }

func (a *Analysis) SMA(period int) []float64 { return SMA(a.in.Close, period) }
func (a *Analysis) EMA(period int) []float64 { return EMA(a.in.Close, period) }
func (a *Analysis) RSI(period int) []float64 { return RSI(a.in.Close, period) }

func (a *Analysis) MACD(fast, slow, signal int) MACDResult {
	return MACD(a.in.Close, fast, slow, signal)
}

func (a *Analysis) Stochastic(k, d int) StochasticResult {
	return Stochastic(a.in.High, a.in.Low, a.in.Close, k, d)
}

func (a *Analysis) OBV() []float64 { return OBV(a.in.Close, a.in.Volume) }

func (a *Analysis) MFI(period int) []float64 {
	return MFI(a.in.High, a.in.Low, a.in.Close, a.in.Volume, period)
}

func (a *Analysis) VWAP() []float64 {
	return VWAP(a.in.High, a.in.Low, a.in.Close, a.in.Volume)
}

func (a *Analysis) BollingerBands(period int, k float64) BollingerResult {
	return BollingerBands(a.in.Close, period, k)
}

func (a *Analysis) ATR(period int) []float64 {
	return ATR(a.in.High, a.in.Low, a.in.Close, period)
}

func (a *Analysis) KeltnerChannels(emaPeriod, atrPeriod int, mult float64) KeltnerResult {
	return KeltnerChannels(a.in.High, a.in.Low, a.in.Close, emaPeriod, atrPeriod, mult)
}
