package verify

import (
	"math"
	"testing"
)

func sampleCloses(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 100 + 10*math.Sin(float64(i)/3) + 0.1*float64(i)
	}
	return out
}

func sampleVolumes(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 1000 + float64(i%7)*150
	}
	return out
}

func TestRun_AgreesWithTALib(t *testing.T) {
	closes, volumes := sampleCloses(200), sampleVolumes(200)
	for _, period := range []int{5, 14, 30} {
		checks := Run(closes, volumes, period)
		if len(checks) != 7 {
			t.Fatalf("period %d: %d checks, want 7", period, len(checks))
		}
		for _, c := range checks {
			if c.Compared == 0 {
				t.Errorf("period %d %s: nothing compared", period, c.Name)
			}
			if !c.Passed {
				t.Errorf("period %d: %s", period, c)
			}
		}
	}
}

func TestCompare_DetectsMismatch(t *testing.T) {
	c := compare("X", []float64{math.NaN(), 1, 2}, []float64{0, 1, 2.5})
	if c.Passed {
		t.Error("expected mismatch")
	}
	if c.Compared != 2 {
		t.Errorf("Compared = %d, want 2", c.Compared)
	}
	if AllPassed([]Check{c}) {
		t.Error("AllPassed should be false")
	}
}
