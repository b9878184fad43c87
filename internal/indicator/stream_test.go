package indicator

import (
	"errors"
	"math"
	"testing"
)

func sameValue(a, b float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.IsNaN(a) && math.IsNaN(b)
	}
	return math.Abs(a-b) <= 1e-9
}

func TestStreamers_MatchBatch(t *testing.T) {
	prices := wave(120)
	cases := []struct {
		name   string
		stream Streamer
		batch  []float64
	}{
		{"SMA_10", NewStreamSMA(10), SMA(prices, 10)},
		{"EMA_12", NewStreamEMA(12), EMA(prices, 12)},
		{"RSI_14", NewStreamRSI(14), RSI(prices, 14)},
		{"SMA_1", NewStreamSMA(1), SMA(prices, 1)},
		{"RSI_1", NewStreamRSI(1), RSI(prices, 1)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for i, p := range prices {
				got := tc.stream.Update(p)
				if !sameValue(got, tc.batch[i]) {
					t.Fatalf("index %d: stream=%v batch=%v", i, got, tc.batch[i])
				}
				if tc.stream.Ready() == math.IsNaN(tc.batch[i]) {
					t.Fatalf("index %d: Ready()=%v but batch=%v", i, tc.stream.Ready(), tc.batch[i])
				}
			}
		})
	}
}

func TestStreamers_PeekMatchesUpdate(t *testing.T) {
	prices := wave(40)
	for _, mk := range []func() Streamer{
		func() Streamer { return NewStreamSMA(5) },
		func() Streamer { return NewStreamEMA(5) },
		func() Streamer { return NewStreamRSI(5) },
		func() Streamer { return NewStreamSMMA(5) },
	} {
		s := mk()
		for i, p := range prices {
			before := s.Value()
			peek := s.Peek(p)
			if !sameValue(s.Value(), before) {
				t.Fatalf("%s index %d: Peek mutated state", s.Name(), i)
			}
			if got := s.Update(p); !sameValue(got, peek) {
				t.Fatalf("%s index %d: Peek=%v Update=%v", s.Name(), i, peek, got)
			}
		}
	}
}

func TestStreamSMA_Correctness_Period3(t *testing.T) {
	// Prices: 100, 102, 104, 103, 105 → SMA: -, -, 102, 103, 104
	sma := NewStreamSMA(3)
	expected := []float64{math.NaN(), math.NaN(), 102, 103, 104}
	for i, p := range []float64{100, 102, 104, 103, 105} {
		got := sma.Update(p)
		if !sameValue(got, expected[i]) {
			t.Errorf("price %d: got %v, want %v", i, got, expected[i])
		}
	}
	// Peek with 106 → (104+105+106)/3 = 105
	assertClose(t, "SMA Peek", sma.Peek(106), 105, 1e-9)
}

func TestStreamSMMA_Correctness_Period3(t *testing.T) {
	// seed = (100+102+104)/3 = 102
	// [3] = (102*2 + 103)/3 = 102.3333
	// [4] = (102.3333*2 + 105)/3 = 103.2222
	smma := NewStreamSMMA(3)
	var got float64
	for _, p := range []float64{100, 102, 104, 103, 105} {
		got = smma.Update(p)
	}
	assertClose(t, "SMMA(3)", got, 103.2222, 0.001)
}

func TestStreamers_Reset(t *testing.T) {
	for _, s := range []Streamer{NewStreamSMA(3), NewStreamEMA(3), NewStreamRSI(3), NewStreamSMMA(3)} {
		for _, p := range wave(10) {
			s.Update(p)
		}
		s.Reset()
		if s.Ready() {
			t.Errorf("%s: Ready after Reset", s.Name())
		}
		if !math.IsNaN(s.Value()) {
			t.Errorf("%s: Value after Reset = %v", s.Name(), s.Value())
		}
	}
}

func TestEngine_ReadingsPerSymbol(t *testing.T) {
	engine := NewEngine([]IndicatorConfig{
		{Type: "SMA", Period: 3},
		{Type: "RSI", Period: 2},
	})

	prices := []float64{10, 11, 12, 11}
	var last []Reading
	for i, p := range prices {
		last = engine.Process(barFor("AAA", p))
		if len(last) != 2 {
			t.Fatalf("bar %d: %d readings, want 2", i, len(last))
		}
		// A second symbol must not disturb the first.
		engine.Process(barFor("BBB", 1000))
	}

	if last[0].Name != "SMA_3" || last[1].Name != "RSI_2" {
		t.Errorf("names = %s, %s", last[0].Name, last[1].Name)
	}
	assertClose(t, "SMA_3", float64(last[0].Value), (11+12+11)/3.0, 1e-9)
	rsi := RSI(prices, 2)
	assertClose(t, "RSI_2", float64(last[1].Value), rsi[3], 1e-9)
	if !last[0].Ready || !last[1].Ready {
		t.Error("expected both readings ready")
	}

	peek := engine.ProcessPeek(barFor("AAA", 14))
	if len(peek) != 2 || !peek[0].Live {
		t.Fatalf("peek = %+v", peek)
	}
	assertClose(t, "SMA_3 peek", float64(peek[0].Value), (12+11+14)/3.0, 1e-9)

	if engine.ProcessPeek(barFor("ZZZ", 1)) != nil {
		t.Error("peek for unseen symbol should be nil")
	}
}

func TestCompute_UnknownIndicator(t *testing.T) {
	_, err := Compute("nope", Input{Close: []float64{1}}, nil)
	if !errors.Is(err, ErrUnknownIndicator) {
		t.Fatalf("err = %v, want ErrUnknownIndicator", err)
	}
}

func TestAnalysis_Defaults(t *testing.T) {
	closes := wave(30)
	a := NewAnalysis(Input{Close: closes})
	if a.Len() != 30 {
		t.Fatalf("Len = %d", a.Len())
	}
	// Volume defaults to 1 per bar, so OBV moves by exactly 1.
	obv := a.OBV()
	assertClose(t, "OBV[0]", obv[0], 1, 0)
	// Highs and lows default to closes: the true range is the close-to-close gap.
	atr := a.ATR(3)
	assertClose(t, "ATR seed", atr[2], (0+math.Abs(closes[1]-closes[0])+math.Abs(closes[2]-closes[1]))/3, 1e-9)
}
