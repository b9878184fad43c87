package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"synapse-analytics/config"
	"synapse-analytics/internal/backtest"
	"synapse-analytics/internal/store/sqlite"
	"synapse-analytics/internal/synth"
)

func TestParseGrid(t *testing.T) {
	g, err := parseGrid([]string{"fast=5, 9,13", "slow=21"})
	if err != nil {
		t.Fatalf("parseGrid: %v", err)
	}
	if len(g["fast"]) != 3 || g["fast"][1] != 9 || len(g["slow"]) != 1 {
		t.Fatalf("grid = %v", g)
	}

	for _, bad := range []string{"fast", "=1,2", "fast=", "fast=1,x"} {
		if _, err := parseGrid([]string{bad}); err == nil {
			t.Errorf("parseGrid(%q) should fail", bad)
		}
	}
}

func TestParseParams(t *testing.T) {
	p, err := parseParams(map[string]string{"fast": "9", "k": "2.5"})
	if err != nil {
		t.Fatalf("parseParams: %v", err)
	}
	if p["fast"] != 9 || p["k"] != 2.5 {
		t.Fatalf("params = %v", p)
	}
	if _, err := parseParams(map[string]string{"fast": "nine"}); err == nil {
		t.Fatal("expected an error for a non-numeric value")
	}
}

func TestFormatParams(t *testing.T) {
	got := formatParams(map[string]float64{"slow": 21, "fast": 9, "k": 2.5})
	if want := "fast=9 k=2.5 slow=21"; got != want {
		t.Fatalf("formatParams = %q, want %q", got, want)
	}
}

func TestRank(t *testing.T) {
	mk := func(ret float64) backtest.SweepResult {
		return backtest.SweepResult{Result: backtest.Result{Metrics: backtest.Metrics{TotalReturn: ret}}}
	}
	results := []backtest.SweepResult{mk(10), mk(-5), mk(30), mk(10)}
	got := rank(results)
	want := []int{2, 0, 3, 1}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("rank = %v, want %v", got, want)
		}
	}
}

func TestClip(t *testing.T) {
	bars := synth.Generate(synth.Params{Bars: 10, Seed: 1})
	from := bars[2].TS
	to := bars[5].TS

	got := clip(bars, from, to)
	if len(got) != 4 || !got[0].TS.Equal(from) {
		t.Fatalf("clip kept %d bars", len(got))
	}
	if len(clip(bars, time.Time{}, time.Time{})) != 10 {
		t.Fatal("open bounds should keep every bar")
	}
	if len(clip(bars, from, time.Time{})) != 8 {
		t.Fatal("open end should keep the tail")
	}
}

func TestSourceFlagsApply(t *testing.T) {
	ds := config.DataSource{CSV: "old/*.csv", Symbol: "AAA"}
	f := sourceFlags{synthBars: 50, seed: 3, from: "2024-02-01"}
	if err := f.apply(&ds); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if ds.CSV != "" || ds.Synthetic == nil || ds.Synthetic.Bars != 50 || ds.Synthetic.Seed != 3 {
		t.Fatalf("flags did not replace the source: %+v", ds)
	}
	if ds.Symbol != "AAA" {
		t.Errorf("symbol = %q, want the run file's", ds.Symbol)
	}
	if !ds.From.Equal(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("from = %v", ds.From)
	}

	bad := sourceFlags{to: "02/01/2024"}
	if err := bad.apply(&ds); err == nil {
		t.Fatal("expected a date error")
	}
}

func TestResolve_FlagsOverRunFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	body := `
name: demo
data:
  synthetic:
    bars: 100
    seed: 4
strategy:
  name: rsi_reversion
  params:
    period: 10
backtest:
  initial_capital: 5000
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	var rf runFlags
	cmd := &cobra.Command{Use: "x"}
	rf.register(cmd)
	if err := cmd.Flags().Parse([]string{"--file", path, "-p", "oversold=25", "--commission", "0"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	run, err := rf.resolve(cmd)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if run.Strategy.Name != "rsi_reversion" {
		t.Errorf("strategy = %q", run.Strategy.Name)
	}
	if run.Strategy.Params["period"] != 10 || run.Strategy.Params["oversold"] != 25 {
		t.Errorf("params = %v", run.Strategy.Params)
	}
	if run.Backtest.InitialCapital != 5000 {
		t.Errorf("capital = %v, want the file's 5000", run.Backtest.InitialCapital)
	}
	if run.Backtest.Commission != 0 {
		t.Errorf("commission = %v, want the flag's 0", run.Backtest.Commission)
	}
	if run.Backtest.Slippage != backtest.DefaultConfig().Slippage {
		t.Errorf("slippage = %v, want the default", run.Backtest.Slippage)
	}
}

func TestLoadBars_Synthetic(t *testing.T) {
	sym, bars, err := loadBars(context.Background(), config.DataSource{
		Symbol:    "SYN",
		Synthetic: &config.SyntheticData{Bars: 25, Seed: 9},
	})
	if err != nil {
		t.Fatalf("loadBars: %v", err)
	}
	if sym != "SYN" || len(bars) != 25 {
		t.Fatalf("got %s with %d bars", sym, len(bars))
	}
	want := synth.Generate(synth.Params{Symbol: "SYN", Bars: 25, Seed: 9})
	if bars[24].Close != want[24].Close {
		t.Errorf("walk differs from synth.Generate")
	}
}

func TestLoadBars_CSVPicksFirstSymbol(t *testing.T) {
	dir := t.TempDir()
	for _, sym := range []string{"BBB", "AAA"} {
		bars := synth.Generate(synth.Params{Symbol: sym, Bars: 5, Seed: 1})
		if err := writeBarsCSV(filepath.Join(dir, sym+".csv"), bars); err != nil {
			t.Fatal(err)
		}
	}

	sym, bars, err := loadBars(context.Background(), config.DataSource{CSV: filepath.Join(dir, "*.csv")})
	if err != nil {
		t.Fatalf("loadBars: %v", err)
	}
	if sym != "AAA" || len(bars) != 5 {
		t.Fatalf("got %s with %d bars", sym, len(bars))
	}

	if _, _, err := loadBars(context.Background(), config.DataSource{CSV: filepath.Join(dir, "*.csv"), Symbol: "ZZZ"}); err == nil {
		t.Fatal("expected an error for a missing symbol")
	}
}

func TestLoadBars_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bars.db")
	w, err := sqlite.New(sqlite.WriterConfig{DBPath: path})
	if err != nil {
		t.Fatalf("sqlite: %v", err)
	}
	if err := w.WriteBars(context.Background(), synth.Generate(synth.Params{Symbol: "DB", Bars: 12, Seed: 2})); err != nil {
		t.Fatalf("write: %v", err)
	}
	w.Close()

	sym, bars, err := loadBars(context.Background(), config.DataSource{SQLite: path})
	if err != nil {
		t.Fatalf("loadBars: %v", err)
	}
	if sym != "DB" || len(bars) != 12 {
		t.Fatalf("got %s with %d bars", sym, len(bars))
	}
}

func TestLoadBars_NoSource(t *testing.T) {
	if _, _, err := loadBars(context.Background(), config.DataSource{}); err == nil {
		t.Fatal("expected an error")
	}
}
