package indicator

import (
	"fmt"
	"math"
	"testing"

	"synapse-analytics/internal/series"
)

// ────────────────────────────────────────────────────────────
// Helpers
// ────────────────────────────────────────────────────────────

func assertClose(t *testing.T, label string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s: got %.6f, want %.6f (tol=%.6f, diff=%.6f)", label, got, want, tol, math.Abs(got-want))
	}
}

func assertUndefined(t *testing.T, label string, got float64) {
	t.Helper()
	if !math.IsNaN(got) {
		t.Errorf("%s: got %.6f, want undefined", label, got)
	}
}

// firstDefined returns the index of the first defined value, or -1.
func firstDefined(xs []float64) int {
	for i, x := range xs {
		if !math.IsNaN(x) {
			return i
		}
	}
	return -1
}

// wave is a deterministic series with both up and down moves.
func wave(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 100 + 10*math.Sin(float64(i)/3) + 0.1*float64(i)
	}
	return out
}

func ramp(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + step*float64(i)
	}
	return out
}

func constant(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// ────────────────────────────────────────────────────────────
// Output shape
// ────────────────────────────────────────────────────────────

func TestOutputsMatchInputLength(t *testing.T) {
	for _, n := range []int{0, 1, 5, 60} {
		in := Input{Close: wave(n), High: ramp(n, 120, 0), Low: ramp(n, 80, 0), Volume: constant(n, 1000)}
		for _, name := range Names() {
			out, err := Compute(name, in, nil)
			if err != nil {
				t.Fatalf("%s: %v", name, err)
			}
			for line, vals := range out {
				if len(vals) != n {
					t.Errorf("%s/%s n=%d: len=%d", name, line, n, len(vals))
				}
			}
		}
	}
}

func TestShortInputsAreAllUndefined(t *testing.T) {
	short := []float64{1, 2, 3}
	cases := map[string][]float64{
		"SMA(5)":   SMA(short, 5),
		"EMA(5)":   EMA(short, 5),
		"WMA(5)":   WMA(short, 5),
		"RSI(3)":   RSI(short, 3), // needs period+1
		"ROC(3)":   ROC(short, 3),
		"StdDev":   StdDev(short, 4),
		"HV(3)":    HistoricalVolatility(short, 3, 252),
		"ATR(3)":   ATR(short, short, short, 3),
		"MFI(3)":   MFI(short, short, short, short, 3),
		"Trend(3)": TrendStrength(short, 3),
	}
	for label, out := range cases {
		if firstDefined(out) != -1 {
			t.Errorf("%s: expected all undefined, got %v", label, out)
		}
	}
}

// ────────────────────────────────────────────────────────────
// Trend
// ────────────────────────────────────────────────────────────

func TestSMA_Correctness_Period3(t *testing.T) {
	// Prices: 100, 102, 104, 103, 105
	// SMA[2] = (100+102+104)/3 = 102
	// SMA[3] = (102+104+103)/3 = 103
	// SMA[4] = (104+103+105)/3 = 104
	got := SMA([]float64{100, 102, 104, 103, 105}, 3)
	assertUndefined(t, "SMA[0]", got[0])
	assertUndefined(t, "SMA[1]", got[1])
	for i, want := range map[int]float64{2: 102, 3: 103, 4: 104} {
		assertClose(t, fmt.Sprintf("SMA[%d]", i), got[i], want, 1e-9)
	}
}

func TestSMA_Period1IsIdentity(t *testing.T) {
	prices := wave(20)
	got := SMA(prices, 1)
	for i := range prices {
		assertClose(t, fmt.Sprintf("SMA1[%d]", i), got[i], prices[i], 1e-9)
	}
}

func TestSMA_ConstantSeries(t *testing.T) {
	got := SMA(constant(30, 42), 7)
	for i := 6; i < 30; i++ {
		assertClose(t, "SMA const", got[i], 42, 1e-12)
	}
}

func TestSMA_EqualsWindowMean(t *testing.T) {
	prices := wave(50)
	got := SMA(prices, 10)
	for i := 9; i < len(prices); i++ {
		sum := 0.0
		for j := i - 9; j <= i; j++ {
			sum += prices[j]
		}
		assertClose(t, fmt.Sprintf("SMA[%d]", i), got[i], sum/10, 1e-9)
	}
}

func TestEMA_Correctness_Period3(t *testing.T) {
	// multiplier = 2/(3+1) = 0.5
	// seed EMA[2] = (100+102+104)/3 = 102
	// EMA[3] = (103-102)*0.5 + 102 = 102.5
	// EMA[4] = (105-102.5)*0.5 + 102.5 = 103.75
	got := EMA([]float64{100, 102, 104, 103, 105}, 3)
	assertUndefined(t, "EMA[1]", got[1])
	assertClose(t, "EMA[2]", got[2], 102, 1e-9)
	assertClose(t, "EMA[3]", got[3], 102.5, 1e-9)
	assertClose(t, "EMA[4]", got[4], 103.75, 1e-9)
}

func TestEMA_ConstantSeries(t *testing.T) {
	got := EMA(constant(30, 7.5), 5)
	for i := 4; i < 30; i++ {
		assertClose(t, "EMA const", got[i], 7.5, 1e-12)
	}
}

func TestWMA_Correctness(t *testing.T) {
	// divisor = 3*4/2 = 6
	// WMA[2] = (1*1 + 2*2 + 3*3)/6 = 14/6
	// WMA[3] = (2*1 + 3*2 + 4*3)/6 = 20/6
	got := WMA([]float64{1, 2, 3, 4}, 3)
	assertUndefined(t, "WMA[1]", got[1])
	assertClose(t, "WMA[2]", got[2], 14.0/6, 1e-9)
	assertClose(t, "WMA[3]", got[3], 20.0/6, 1e-9)
}

func TestAwesomeOscillator_FirstIndex(t *testing.T) {
	n := 40
	ao := AwesomeOscillator(wave(n), ramp(n, 80, 0.1), 5, 34)
	if got := firstDefined(ao); got != 33 {
		t.Errorf("AO first defined = %d, want 33", got)
	}
}

func TestAcceleratorOscillator_Alignment(t *testing.T) {
	n := 40
	highs, lows := wave(n), ramp(n, 80, 0.1)
	ao := AwesomeOscillator(highs, lows, 5, 34)
	ac := AcceleratorOscillator(highs, lows, 5)

	// 7 AO values (33..39); the SMA(5) over them is first defined at the 5th.
	if got := firstDefined(ac); got != 37 {
		t.Fatalf("AC first defined = %d, want 37", got)
	}
	for i := 37; i < n; i++ {
		mean := (ao[i] + ao[i-1] + ao[i-2] + ao[i-3] + ao[i-4]) / 5
		assertClose(t, fmt.Sprintf("AC[%d]", i), ac[i], ao[i]-mean, 1e-9)
	}
}

func TestAcceleratorOscillator_TooFewAOValues(t *testing.T) {
	n := 36 // only 3 AO values
	ac := AcceleratorOscillator(wave(n), ramp(n, 80, 0), 5)
	if firstDefined(ac) != -1 {
		t.Errorf("expected all undefined, got first defined at %d", firstDefined(ac))
	}
}

func TestMACrossoverSignals(t *testing.T) {
	// Falls for 10 bars, then rises for 10: the fast SMA crosses above the slow once.
	prices := append(ramp(10, 120, -2), ramp(10, 104, 2)...)
	signals := MACrossoverSignals(prices, 2, 5, MATypeSMA)

	if len(signals) != len(prices) {
		t.Fatalf("len = %d, want %d", len(signals), len(prices))
	}
	buys, sells := 0, 0
	for i, s := range signals {
		switch s {
		case 1:
			buys++
		case -1:
			sells++
		case 0:
		default:
			t.Errorf("signal[%d] = %d", i, s)
		}
	}
	if buys != 1 || sells != 0 {
		t.Errorf("buys=%d sells=%d, want 1/0 (signals=%v)", buys, sells, signals)
	}
	if signals[0] != 0 {
		t.Errorf("signal[0] = %d, want 0", signals[0])
	}
}

func TestTrendStrength(t *testing.T) {
	up := TrendStrength(ramp(20, 100, 1), 5)
	assertUndefined(t, "trend[4]", up[4])
	assertClose(t, "trend monotonic", up[10], 100, 1e-9)

	flat := TrendStrength(constant(20, 100), 5)
	if firstDefined(flat) != -1 {
		t.Errorf("flat series: expected undefined, got %v", flat)
	}

	// 3 ups, 2 downs → |3-2|/5*100 = 20
	mixed := TrendStrength([]float64{10, 11, 12, 11, 12, 11}, 5)
	assertClose(t, "trend mixed", mixed[5], 20, 1e-9)
}

// ────────────────────────────────────────────────────────────
// Momentum
// ────────────────────────────────────────────────────────────

func TestRSI_Correctness_Period5(t *testing.T) {
	// Prices: 44, 44.34, 44.09, 43.61, 44.33, 44.83, 45.10, 45.42, 45.84
	//
	// Deltas 1..5: +0.34, -0.25, -0.48, +0.72, +0.50
	//   avgGain = 1.56/5 = 0.312, avgLoss = 0.73/5 = 0.146
	//   RS = 2.13699 → RSI[5] = 68.1223
	// Delta 6 (+0.27): avgGain = 0.3036, avgLoss = 0.1168 → RSI[6] = 72.2169
	// Delta 7 (+0.32): avgGain = 0.30688, avgLoss = 0.09344 → RSI[7] = 76.6587
	// Delta 8 (+0.42): avgGain = 0.329504, avgLoss = 0.074752 → RSI[8] = 81.5087
	prices := []float64{44, 44.34, 44.09, 43.61, 44.33, 44.83, 45.10, 45.42, 45.84}
	got := RSI(prices, 5)

	assertUndefined(t, "RSI[4]", got[4])
	assertClose(t, "RSI[5]", got[5], 68.1223, 0.001)
	assertClose(t, "RSI[6]", got[6], 72.2169, 0.001)
	assertClose(t, "RSI[7]", got[7], 76.6587, 0.001)
	assertClose(t, "RSI[8]", got[8], 81.5087, 0.001)
}

func TestRSI_AllUp(t *testing.T) {
	// avgLoss == 0 → RS = 100 → RSI = 100 - 100/101
	got := RSI(ramp(20, 100, 1), 5)
	assertClose(t, "RSI all up", got[19], 100-100.0/101, 1e-9)
}

func TestRSI_AllDown_Is0(t *testing.T) {
	got := RSI(ramp(20, 200, -1), 5)
	assertClose(t, "RSI all down", got[19], 0, 1e-9)
}

func TestRSI_Bounds(t *testing.T) {
	for i, v := range RSI(wave(200), 14) {
		if math.IsNaN(v) {
			continue
		}
		if v < 0 || v > 100 {
			t.Errorf("RSI[%d] = %f out of [0,100]", i, v)
		}
	}
}

func TestMACD_ShortInput(t *testing.T) {
	res := MACD(wave(25), 12, 26, 9)
	for _, line := range [][]float64{res.MACD, res.Signal, res.Histogram} {
		if firstDefined(line) != -1 {
			t.Fatalf("expected all undefined for len < slow")
		}
	}
}

func TestMACD_Alignment(t *testing.T) {
	prices := wave(60)
	res := MACD(prices, 12, 26, 9)

	if got := firstDefined(res.MACD); got != 25 {
		t.Errorf("MACD first defined = %d, want 25", got)
	}
	if got := firstDefined(res.Signal); got != 33 {
		t.Errorf("Signal first defined = %d, want 33", got)
	}

	// Defined signal count = defined MACD count - signal + 1
	if got, want := series.Defined(res.Signal), series.Defined(res.MACD)-9+1; got != want {
		t.Errorf("signal defined = %d, want %d", got, want)
	}

	// Signal equals EMA(9) of the defined MACD values, re-aligned.
	sig := EMA(res.MACD[25:], 9)
	for i := 33; i < len(prices); i++ {
		assertClose(t, fmt.Sprintf("signal[%d]", i), res.Signal[i], sig[i-25], 1e-9)
		assertClose(t, fmt.Sprintf("hist[%d]", i), res.Histogram[i], res.MACD[i]-res.Signal[i], 1e-12)
	}
}

func TestStochastic(t *testing.T) {
	highs := []float64{10, 11, 12, 13, 14, 15}
	lows := []float64{8, 9, 10, 11, 12, 13}
	closes := []float64{9, 10, 11, 12, 13, 14}
	res := Stochastic(highs, lows, closes, 3, 2)

	// i=2: highest=12 lowest=8 → (11-8)/4*100 = 75
	assertUndefined(t, "K[1]", res.K[1])
	assertClose(t, "K[2]", res.K[2], 75, 1e-9)
	// %D first at k+d-2 = 3
	assertUndefined(t, "D[2]", res.D[2])
	assertClose(t, "D[3]", res.D[3], (res.K[2]+res.K[3])/2, 1e-9)

	flat := Stochastic(constant(5, 10), constant(5, 10), constant(5, 10), 3, 3)
	assertClose(t, "K flat", flat.K[4], 50, 1e-12)
	assertClose(t, "D flat", flat.D[4], 50, 1e-12)
}

func TestStochastic_Bounds(t *testing.T) {
	closes := wave(100)
	highs := make([]float64, len(closes))
	lows := make([]float64, len(closes))
	for i, c := range closes {
		highs[i], lows[i] = c+1, c-1
	}
	res := Stochastic(highs, lows, closes, 14, 3)
	for i := range closes {
		for _, v := range []float64{res.K[i], res.D[i]} {
			if !math.IsNaN(v) && (v < 0 || v > 100) {
				t.Errorf("index %d: %f out of [0,100]", i, v)
			}
		}
	}
}

func TestROCAndMomentum(t *testing.T) {
	prices := []float64{100, 0, 110, 121}
	roc := ROC(prices, 2)
	assertClose(t, "ROC[2]", roc[2], 10, 1e-9)
	assertUndefined(t, "ROC[3] zero base", roc[3])

	mom := Momentum(prices, 2)
	assertUndefined(t, "MOM[1]", mom[1])
	assertClose(t, "MOM[2]", mom[2], 10, 1e-12)
	assertClose(t, "MOM[3]", mom[3], 121, 1e-12)
}

// ────────────────────────────────────────────────────────────
// Volume
// ────────────────────────────────────────────────────────────

func TestOBV(t *testing.T) {
	got := OBV([]float64{10, 11, 11, 10}, []float64{100, 200, 300, 400})
	want := []float64{100, 300, 300, -100}
	for i := range want {
		assertClose(t, fmt.Sprintf("OBV[%d]", i), got[i], want[i], 1e-12)
	}
	if len(OBV(nil, nil)) != 0 {
		t.Error("OBV(empty) should be empty")
	}
}

func TestADL(t *testing.T) {
	// bar0: clv = ((9-8)-(10-9))/2 = 0 → 0
	// bar1: clv = ((12-8)-(12-12))/4 = 1 → +50
	// bar2: zero range → unchanged
	got := ADL([]float64{10, 12, 5}, []float64{8, 8, 5}, []float64{9, 12, 5}, []float64{100, 50, 70})
	assertClose(t, "ADL[0]", got[0], 0, 1e-12)
	assertClose(t, "ADL[1]", got[1], 50, 1e-12)
	assertClose(t, "ADL[2]", got[2], 50, 1e-12)
}

func TestMFI(t *testing.T) {
	n := 10
	p := ramp(n, 100, 1)
	got := MFI(p, p, p, constant(n, 10), 3)
	assertUndefined(t, "MFI[2]", got[2])
	assertClose(t, "MFI no negative flow", got[3], 100, 1e-12)

	for i, v := range MFI(wave(80), wave(80), wave(80), constant(80, 5), 14) {
		if !math.IsNaN(v) && (v < 0 || v > 100) {
			t.Errorf("MFI[%d] = %f out of range", i, v)
		}
	}
}

func TestCMF(t *testing.T) {
	highs := []float64{10, 10, 10}
	lows := []float64{8, 8, 8}
	closes := []float64{10, 10, 8}
	got := CMF(highs, lows, closes, []float64{1, 1, 2}, 2)
	assertUndefined(t, "CMF[0]", got[0])
	assertClose(t, "CMF[1]", got[1], 1, 1e-12)
	// (1*1 + (-1)*2) / 3
	assertClose(t, "CMF[2]", got[2], -1.0/3, 1e-12)

	zero := CMF(highs, lows, closes, []float64{0, 0, 0}, 2)
	assertUndefined(t, "CMF zero volume", zero[2])
}

func TestPVT(t *testing.T) {
	got := PVT([]float64{100, 110, 99}, []float64{5, 10, 20})
	assertClose(t, "PVT[0]", got[0], 0, 0)
	assertClose(t, "PVT[1]", got[1], 1, 1e-12)
	assertClose(t, "PVT[2]", got[2], 1-2, 1e-12)
}

func TestVWAP(t *testing.T) {
	highs := []float64{11, 13, 12}
	lows := []float64{9, 11, 10}
	closes := []float64{10, 12, 11}
	got := VWAP(highs, lows, closes, []float64{0, 100, 300})
	assertUndefined(t, "VWAP[0] zero volume", got[0])
	assertClose(t, "VWAP[1]", got[1], 12, 1e-12)
	// (12*100 + 11*300) / 400 = 11.25
	assertClose(t, "VWAP[2]", got[2], 11.25, 1e-12)
}

func TestVolumePriceConfirmation(t *testing.T) {
	n := 15
	up := VolumePriceConfirmation(ramp(n, 100, 1), constant(n, 10), 5)
	assertUndefined(t, "VPC[4]", up[4])
	assertClose(t, "VPC up avg volume", up[5], 50, 1e-12)

	vols := constant(n, 10)
	vols[10] = 100
	down := VolumePriceConfirmation(ramp(n, 100, -1), vols, 5)
	assertClose(t, "VPC down capped", down[10], -100, 1e-12)

	flat := VolumePriceConfirmation(constant(n, 100), constant(n, 10), 5)
	assertClose(t, "VPC flat", flat[7], 0, 0)

	noVol := VolumePriceConfirmation(ramp(n, 100, 1), constant(n, 0), 5)
	assertClose(t, "VPC zero avg volume → ratio 1", noVol[7], 50, 1e-12)
}

func TestVolumeROC(t *testing.T) {
	got := VolumeROC([]float64{100, 150, 0, 300}, 1)
	assertClose(t, "VROC[1]", got[1], 50, 1e-12)
	assertUndefined(t, "VROC[3] zero base", got[3])
}

// ────────────────────────────────────────────────────────────
// Volatility
// ────────────────────────────────────────────────────────────

func TestBollingerBands(t *testing.T) {
	prices := wave(60)
	res := BollingerBands(prices, 20, 2)
	sma := SMA(prices, 20)
	for i := 19; i < len(prices); i++ {
		if !(res.Lower[i] <= res.Middle[i] && res.Middle[i] <= res.Upper[i]) {
			t.Errorf("index %d: bands out of order", i)
		}
		assertClose(t, "middle == SMA", res.Middle[i], sma[i], 1e-12)
	}

	zeroK := BollingerBands(prices, 20, 0)
	for i := 19; i < len(prices); i++ {
		if zeroK.Upper[i] != zeroK.Middle[i] || zeroK.Lower[i] != zeroK.Middle[i] {
			t.Errorf("k=0 index %d: bands should collapse", i)
		}
		assertUndefined(t, "k=0 %B", zeroK.PercentB[i])
	}

	flat := BollingerBands(constant(25, 10), 20, 2)
	assertClose(t, "flat bandwidth", flat.Bandwidth[24], 0, 0)
	assertUndefined(t, "flat %B", flat.PercentB[24])

	zeroMid := BollingerBands([]float64{-1, 1, -1, 1}, 2, 2)
	assertUndefined(t, "zero middle bandwidth", zeroMid.Bandwidth[1])
}

func TestBollingerBands_PopulationStd(t *testing.T) {
	// [2, 4]: mean 3, population std 1 → upper 5, lower 1, %B of 4 = 0.75
	res := BollingerBands([]float64{2, 4}, 2, 2)
	assertClose(t, "upper", res.Upper[1], 5, 1e-12)
	assertClose(t, "lower", res.Lower[1], 1, 1e-12)
	assertClose(t, "%B", res.PercentB[1], 0.75, 1e-12)
	assertClose(t, "bandwidth", res.Bandwidth[1], 4.0/3, 1e-12)
}

func TestTrueRangeAndATR(t *testing.T) {
	highs := []float64{10, 12, 11, 13}
	lows := []float64{8, 9, 9, 10}
	closes := []float64{9, 11, 10, 12}

	// tr0 = 2; tr1 = max(3, |12-9|, |9-9|) = 3; tr2 = max(2, 0, 2) = 2; tr3 = max(3, 3, 0) = 3
	tr := TrueRange(highs, lows, closes)
	want := []float64{2, 3, 2, 3}
	for i := range want {
		assertClose(t, fmt.Sprintf("TR[%d]", i), tr[i], want[i], 1e-12)
	}

	// ATR(2): seed at 1 = (2+3)/2 = 2.5; [2] = (2.5+2)/2 = 2.25; [3] = (2.25+3)/2 = 2.625
	atr := ATR(highs, lows, closes, 2)
	assertUndefined(t, "ATR[0]", atr[0])
	assertClose(t, "ATR[1]", atr[1], 2.5, 1e-12)
	assertClose(t, "ATR[2]", atr[2], 2.25, 1e-12)
	assertClose(t, "ATR[3]", atr[3], 2.625, 1e-12)
}

func TestATR_ConstantRange(t *testing.T) {
	n := 30
	closes := constant(n, 100)
	atr := ATR(ramp(n, 101, 0), ramp(n, 99, 0), closes, 14)
	for i := 13; i < n; i++ {
		assertClose(t, "ATR const", atr[i], 2, 1e-12)
	}
	for i, v := range ATR(wave(n), ramp(n, 80, 0), wave(n), 5) {
		if !math.IsNaN(v) && v < 0 {
			t.Errorf("ATR[%d] negative", i)
		}
	}
}

func TestKeltnerChannels(t *testing.T) {
	n := 40
	closes := wave(n)
	highs := make([]float64, n)
	lows := make([]float64, n)
	for i, c := range closes {
		highs[i], lows[i] = c+1, c-1
	}
	res := KeltnerChannels(highs, lows, closes, 20, 10, 2)
	ema := EMA(closes, 20)
	atr := ATR(highs, lows, closes, 10)

	if got := firstDefined(res.Middle); got != 19 {
		t.Errorf("Keltner first defined = %d, want 19", got)
	}
	for i := 19; i < n; i++ {
		assertClose(t, "middle", res.Middle[i], ema[i], 1e-12)
		assertClose(t, "upper", res.Upper[i], ema[i]+2*atr[i], 1e-12)
		assertClose(t, "lower", res.Lower[i], ema[i]-2*atr[i], 1e-12)
	}
}

func TestStdDev(t *testing.T) {
	got := StdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9}, 8)
	assertClose(t, "StdDev population", got[7], 2, 1e-12)
}

func TestHistoricalVolatility(t *testing.T) {
	// Constant growth → identical log returns → zero variance.
	prices := make([]float64, 30)
	prices[0] = 100
	for i := 1; i < len(prices); i++ {
		prices[i] = prices[i-1] * 1.01
	}
	hv := HistoricalVolatility(prices, 10, 252)
	assertUndefined(t, "HV[9]", hv[9])
	assertClose(t, "HV constant growth", hv[15], 0, 1e-9)

	// Alternating ±r around a mean of 0 over period 2: var = 2r²/1
	alt := []float64{100, 110, 100, 110}
	r := math.Log(1.1)
	hv2 := HistoricalVolatility(alt, 2, 1)
	assertClose(t, "HV alternating", hv2[2], math.Sqrt(2*r*r), 1e-9)

	// Non-positive prices contribute a 0 return instead of NaN.
	hv3 := HistoricalVolatility([]float64{100, 0, 100, 100, 100}, 2, 252)
	if math.IsNaN(hv3[4]) {
		t.Error("HV should stay defined across non-positive prices")
	}
}

func TestADR(t *testing.T) {
	got := ADR([]float64{10, 12, 14}, []float64{9, 10, 11}, 2)
	assertUndefined(t, "ADR[0]", got[0])
	assertClose(t, "ADR[1]", got[1], 1.5, 1e-12)
	assertClose(t, "ADR[2]", got[2], 2.5, 1e-12)
}

func TestVolatilityRatio(t *testing.T) {
	n := 20
	closes := constant(n, 100)
	vr := VolatilityRatio(ramp(n, 101, 0), ramp(n, 99, 0), closes, 5)
	assertUndefined(t, "VR[0]", vr[0])
	assertUndefined(t, "VR[3]", vr[3])
	assertClose(t, "VR constant range", vr[10], 1, 1e-12)
}
