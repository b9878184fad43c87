package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"synapse-analytics/config"
	"synapse-analytics/internal/csvdata"
	"synapse-analytics/internal/markethours"
	"synapse-analytics/internal/model"
	"synapse-analytics/internal/store/postgres"
	"synapse-analytics/internal/store/sqlite"
	"synapse-analytics/internal/synth"
)

const dateLayout = "2006-01-02"

// sourceFlags are the data source flags shared by backtest and sweep.
type sourceFlags struct {
	csv       string
	sqlite    string
	postgres  string
	symbol    string
	from, to  string
	synthBars int
	seed      int64
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.csv, "csv", "", "CSV glob, e.g. 'data/**/*.csv'")
	fl.StringVar(&f.sqlite, "db", "", "SQLite database with a bars table")
	fl.StringVar(&f.postgres, "pg", "", "Postgres URL with a bars table")
	fl.StringVar(&f.symbol, "symbol", "", "symbol to load")
	fl.StringVar(&f.from, "from", "", "first date, "+dateLayout)
	fl.StringVar(&f.to, "to", "", "last date (inclusive), "+dateLayout)
	fl.IntVar(&f.synthBars, "synthetic", 0, "generate this many random-walk bars instead of loading data")
	fl.Int64Var(&f.seed, "seed", 1, "random-walk seed for --synthetic")
}

func (f *sourceFlags) set() bool {
	return f.csv != "" || f.sqlite != "" || f.postgres != "" || f.synthBars > 0
}

// apply overlays the flags onto ds. Flags win over a run file.
func (f *sourceFlags) apply(ds *config.DataSource) error {
	if f.set() {
		*ds = config.DataSource{CSV: f.csv, SQLite: f.sqlite, Postgres: f.postgres, Symbol: ds.Symbol}
		if f.synthBars > 0 {
			ds.Synthetic = &config.SyntheticData{Bars: f.synthBars, Seed: f.seed}
		}
	}
	if f.symbol != "" {
		ds.Symbol = f.symbol
	}
	for _, d := range []struct {
		raw string
		dst *time.Time
	}{{f.from, &ds.From}, {f.to, &ds.To}} {
		if d.raw == "" {
			continue
		}
		t, err := time.Parse(dateLayout, d.raw)
		if err != nil {
			return fmt.Errorf("invalid date %q: %w", d.raw, err)
		}
		*d.dst = t
	}
	return nil
}

// parseParams converts --param values to numbers.
func parseParams(raw map[string]string) (map[string]float64, error) {
	out := make(map[string]float64, len(raw))
	for k, v := range raw {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("param %s: %q is not a number", k, v)
		}
		out[k] = f
	}
	return out, nil
}

// loadBars resolves ds to the bars of one symbol and returns that symbol.
func loadBars(ctx context.Context, ds config.DataSource) (string, []model.Bar, error) {
	var (
		symbol = ds.Symbol
		bars   []model.Bar
		err    error
	)

	switch {
	case ds.Synthetic != nil:
		s := ds.Synthetic
		cal, cerr := calendar(s.TradingDays, s.Holidays)
		if cerr != nil {
			return "", nil, cerr
		}
		bars = synth.Generate(synth.Params{
			Symbol:     symbol,
			Bars:       s.Bars,
			Start:      ds.From,
			Interval:   s.Interval,
			Volatility: s.Volatility,
			Trend:      s.Trend,
			Seed:       s.Seed,
			Calendar:   cal,
		})
		if len(bars) > 0 {
			symbol = bars[0].Symbol
		}

	case ds.CSV != "":
		symbol, bars, err = loadCSV(ds.CSV, symbol)
		if err == nil {
			bars = clip(bars, ds.From, ds.To)
		}

	case ds.SQLite != "":
		var r *sqlite.Reader
		if r, err = sqlite.NewReader(ds.SQLite); err != nil {
			return "", nil, err
		}
		if symbol == "" {
			syms, serr := r.Symbols(ctx)
			if serr != nil || len(syms) == 0 {
				r.Close()
				return "", nil, fmt.Errorf("no symbol given and none found in %s", ds.SQLite)
			}
			symbol = syms[0]
		}
		bars, err = readFrom(ctx, r, symbol, ds.From, ds.To)

	case ds.Postgres != "":
		if symbol == "" {
			return "", nil, errors.New("--symbol is required with Postgres")
		}
		var db *postgres.Database
		if db, err = postgres.NewDatabase(ctx, ds.Postgres); err != nil {
			return "", nil, err
		}
		bars, err = readFrom(ctx, db, symbol, ds.From, ds.To)

	default:
		return "", nil, config.ErrNoDataSource
	}

	if err != nil {
		return "", nil, err
	}
	if len(bars) == 0 {
		return "", nil, fmt.Errorf("no bars for %q", symbol)
	}
	slog.Info("bars loaded",
		slog.String("symbol", symbol),
		slog.Int("bars", len(bars)),
		slog.Time("first", bars[0].TS),
		slog.Time("last", bars[len(bars)-1].TS),
	)
	return symbol, bars, nil
}

func readFrom(ctx context.Context, r model.BarReader, symbol string, from, to time.Time) ([]model.Bar, error) {
	defer r.Close()
	return r.ReadBars(ctx, symbol, from, to)
}

// loadCSV picks symbol from the glob, or the first symbol in name order.
func loadCSV(pattern, symbol string) (string, []model.Bar, error) {
	all, err := csvdata.LoadGlob(pattern)
	if err != nil {
		return "", nil, err
	}
	if symbol != "" {
		bars, ok := all[symbol]
		if !ok {
			return "", nil, fmt.Errorf("symbol %q not in %s", symbol, pattern)
		}
		return symbol, bars, nil
	}

	syms := make([]string, 0, len(all))
	for s := range all {
		syms = append(syms, s)
	}
	sort.Strings(syms)
	if len(syms) > 1 {
		slog.Info("several symbols matched, using the first", slog.String("symbol", syms[0]), slog.Int("matched", len(syms)))
	}
	return syms[0], all[syms[0]], nil
}

// clip keeps bars with from <= ts <= to, matching the stores. Zero bounds
// are open.
func clip(bars []model.Bar, from, to time.Time) []model.Bar {
	if from.IsZero() && to.IsZero() {
		return bars
	}
	out := bars[:0:0]
	for _, b := range bars {
		if !from.IsZero() && b.TS.Before(from) {
			continue
		}
		if !to.IsZero() && b.TS.After(to) {
			continue
		}
		out = append(out, b)
	}
	return out
}

// calendar returns nil unless trading days are requested.
func calendar(tradingDays bool, holidays []string) (*markethours.Calendar, error) {
	if !tradingDays {
		return nil, nil
	}
	hs, err := markethours.ParseHolidays(time.UTC, holidays)
	if err != nil {
		return nil, err
	}
	return markethours.New(time.UTC, hs...), nil
}

// openJournal opens the run journal, creating its directory first.
func openJournal() (*sqlite.Journal, error) {
	if err := ensureDir(cfg.SQLitePath); err != nil {
		return nil, err
	}
	return sqlite.NewJournal(cfg.SQLitePath)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
