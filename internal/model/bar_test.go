package model

import (
	"testing"
	"time"
)

func TestSeriesColumns(t *testing.T) {
	t0 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	s := Series{
		{TS: t0, Open: 1, High: 3, Low: 0.5, Close: 2, Volume: 100},
		{TS: t0.Add(time.Minute), Open: 2, High: 4, Low: 1.5, Close: 3, Volume: 200},
	}

	closes := s.Closes()
	if len(closes) != 2 || closes[0] != 2 || closes[1] != 3 {
		t.Errorf("Closes = %v", closes)
	}
	if h := s.Highs(); h[1] != 4 {
		t.Errorf("Highs[1] = %v, want 4", h[1])
	}
	if l := s.Lows(); l[0] != 0.5 {
		t.Errorf("Lows[0] = %v, want 0.5", l[0])
	}
	if v := s.Volumes(); v[1] != 200 {
		t.Errorf("Volumes[1] = %v, want 200", v[1])
	}
	if o := s.Opens(); o[0] != 1 {
		t.Errorf("Opens[0] = %v, want 1", o[0])
	}
	if ts := s.Times(); !ts[1].Equal(t0.Add(time.Minute)) {
		t.Errorf("Times[1] = %v", ts[1])
	}
}

func TestTypicalPrice(t *testing.T) {
	b := Bar{High: 12, Low: 9, Close: 12}
	if got := b.TypicalPrice(); got != 11 {
		t.Errorf("TypicalPrice = %v, want 11", got)
	}
}
