package indicator

import (
	"math"

	"synapse-analytics/internal/series"
)

// Multi-input indicators compute over the common prefix of their inputs
// (series.Span). Results keep the length of closes.

// OBV accumulates volume signed by the close-to-close direction, starting
// from volumes[0]. Cumulative, so never undefined.
func OBV(closes, volumes []float64) []float64 {
	out := make([]float64, len(closes))
	n := series.Span(closes, volumes)
	if n == 0 {
		return out
	}

	out[0] = volumes[0]
	for i := 1; i < n; i++ {
		switch {
		case closes[i] > closes[i-1]:
			out[i] = out[i-1] + volumes[i]
		case closes[i] < closes[i-1]:
			out[i] = out[i-1] - volumes[i]
		default:
			out[i] = out[i-1]
		}
	}
	return out
}

// closeLocation is ((c-l) - (h-c)) / (h-l), or 0 for a zero-range bar.
func closeLocation(high, low, close float64) float64 {
	r := high - low
	if r == 0 {
		return 0
	}
	return ((close - low) - (high - close)) / r
}

// ADL is the Accumulation/Distribution Line: the running sum of
// close-location value times volume. Zero-range bars contribute nothing.
func ADL(highs, lows, closes, volumes []float64) []float64 {
	out := make([]float64, len(closes))
	n := series.Span(highs, lows, closes, volumes)

	cum := 0.0
	for i := 0; i < n; i++ {
		cum += closeLocation(highs[i], lows[i], closes[i]) * volumes[i]
		out[i] = cum
	}
	return out
}

// MFI is the Money Flow Index: a volume-weighted RSI on typical price.
// Defined from index period; 100 when the window has no negative flow.
func MFI(highs, lows, closes, volumes []float64, period int) []float64 {
	out := series.NewUndefined(len(closes))
	n := series.Span(highs, lows, closes, volumes)
	if period < 1 || n < period+1 {
		return out
	}

	tp := make([]float64, n)
	flow := make([]float64, n)
	for i := 0; i < n; i++ {
		tp[i] = (highs[i] + lows[i] + closes[i]) / 3
		flow[i] = tp[i] * volumes[i]
	}

	for i := period; i < n; i++ {
		pos, neg := 0.0, 0.0
		for j := i - period + 1; j <= i; j++ {
			switch {
			case tp[j] > tp[j-1]:
				pos += flow[j]
			case tp[j] < tp[j-1]:
				neg += flow[j]
			}
		}
		if neg == 0 {
			out[i] = 100
			continue
		}
		out[i] = 100 - 100/(1+pos/neg)
	}
	return out
}

// CMF is Chaikin Money Flow: summed money-flow volume over summed volume
// across the window. Undefined where the window's volume is zero.
func CMF(highs, lows, closes, volumes []float64, period int) []float64 {
	out := series.NewUndefined(len(closes))
	n := series.Span(highs, lows, closes, volumes)
	if period < 1 || n < period {
		return out
	}

	mfv := make([]float64, n)
	for i := 0; i < n; i++ {
		mfv[i] = closeLocation(highs[i], lows[i], closes[i]) * volumes[i]
	}

	for i := period - 1; i < n; i++ {
		volSum := series.Sum(series.Window(volumes, i, period))
		if volSum == 0 {
			continue
		}
		out[i] = series.Sum(series.Window(mfv, i, period)) / volSum
	}
	return out
}

// PVT is the Price-Volume Trend: the running sum of fractional price change
// times volume, starting at 0.
func PVT(closes, volumes []float64) []float64 {
	out := make([]float64, len(closes))
	n := series.Span(closes, volumes)
	for i := 1; i < n; i++ {
		change := (closes[i] - closes[i-1]) / closes[i-1]
		out[i] = out[i-1] + change*volumes[i]
	}
	return out
}

// VWAP accumulates typical price times volume from the start of the
// series; there is no session reset. Undefined while cumulative volume is 0.
func VWAP(highs, lows, closes, volumes []float64) []float64 {
	out := series.NewUndefined(len(closes))
	n := series.Span(highs, lows, closes, volumes)

	cumTPV, cumVol := 0.0, 0.0
	for i := 0; i < n; i++ {
		tp := (highs[i] + lows[i] + closes[i]) / 3
		cumTPV += tp * volumes[i]
		cumVol += volumes[i]
		if cumVol != 0 {
			out[i] = cumTPV / cumVol
		}
	}
	return out
}

// VolumeROC is ROC applied to volume.
func VolumeROC(volumes []float64, period int) []float64 {
	return ROC(volumes, period)
}

// VolumePriceConfirmation scores in [-100, 100] whether volume backs the
// price move over period bars. The current volume is compared with the mean
// of the previous period volumes (ratio 1 when that mean is 0); the score is
// ratio*50 capped at 100, negated for falling prices, 0 for flat.
func VolumePriceConfirmation(closes, volumes []float64, period int) []float64 {
	out := series.NewUndefined(len(closes))
	n := series.Span(closes, volumes)
	if period < 1 || n < period {
		return out
	}

	for i := period; i < n; i++ {
		change := closes[i] - closes[i-period]
		avgVol := series.Sum(volumes[i-period:i]) / float64(period)
		ratio := 1.0
		if avgVol != 0 {
			ratio = volumes[i] / avgVol
		}

		switch {
		case change > 0:
			out[i] = math.Min(100, ratio*50)
		case change < 0:
			out[i] = math.Max(-100, -ratio*50)
		default:
			out[i] = 0
		}
	}
	return out
}
