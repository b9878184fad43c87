package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"synapse-analytics/internal/csvdata"
	"synapse-analytics/internal/model"
	"synapse-analytics/internal/store/postgres"
	"synapse-analytics/internal/store/sqlite"
	"synapse-analytics/internal/synth"
)

func seedCmd() *cobra.Command {
	var (
		symbols    []string
		bars       int
		seed       int64
		interval   time.Duration
		start      string
		volatility float64
		trend      float64
		target     string
		out        string
		resume     bool
		tradeDays  bool
		holidays   []string
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Generate random-walk bars into SQLite, Postgres or CSV files",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cal, err := calendar(tradeDays, holidays)
			if err != nil {
				return err
			}

			params := make([]synth.Params, len(symbols))
			for i, sym := range symbols {
				params[i] = synth.Params{
					Symbol:     sym,
					Bars:       bars,
					Interval:   interval,
					Volatility: volatility,
					Trend:      trend,
					Seed:       seed + int64(i),
					Calendar:   cal,
				}
				if start != "" {
					t, err := time.Parse(dateLayout, start)
					if err != nil {
						return fmt.Errorf("invalid --start: %w", err)
					}
					params[i].Start = t
				}
			}

			switch target {
			case "sqlite":
				path := out
				if path == "" {
					path = cfg.SQLitePath
				}
				if err := ensureDir(path); err != nil {
					return err
				}
				w, err := sqlite.New(sqlite.WriterConfig{DBPath: path})
				if err != nil {
					return err
				}
				defer w.Close()

				if resume {
					for i := range params {
						last, err := w.GetLastTimestamp(ctx, params[i].Symbol)
						if err != nil {
							return err
						}
						if !last.IsZero() {
							step := params[i].Interval
							if step <= 0 {
								step = 24 * time.Hour
							}
							params[i].Start = last.Add(step)
						}
					}
				}

				barCh := make(chan model.Bar, 1024)
				go func() {
					defer close(barCh)
					for _, p := range params {
						for _, b := range synth.Generate(p) {
							select {
							case barCh <- b:
							case <-ctx.Done():
								return
							}
						}
					}
				}()
				n, err := w.Run(ctx, barCh)
				if err != nil {
					return err
				}
				slog.Info("seeded sqlite", slog.String("path", path), slog.Int("bars", n))

			case "postgres":
				url := out
				if url == "" {
					url = cfg.PostgresURL
				}
				if url == "" {
					return fmt.Errorf("postgres target needs --out or POSTGRES_URL")
				}
				db, err := postgres.NewDatabase(ctx, url)
				if err != nil {
					return err
				}
				defer db.Close()
				for _, p := range params {
					if err := db.WriteBars(ctx, synth.Generate(p)); err != nil {
						return err
					}
					slog.Info("seeded postgres", slog.String("symbol", p.Symbol), slog.Int("bars", bars))
				}

			case "csv":
				dir := out
				if dir == "" {
					dir = "data"
				}
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return err
				}
				for _, p := range params {
					path := filepath.Join(dir, p.Symbol+".csv")
					if err := writeBarsCSV(path, synth.Generate(p)); err != nil {
						return err
					}
					slog.Info("seeded csv", slog.String("path", path), slog.Int("bars", bars))
				}

			default:
				return fmt.Errorf("unknown target %q (sqlite, postgres or csv)", target)
			}
			return nil
		},
	}

	fl := cmd.Flags()
	fl.StringSliceVar(&symbols, "symbols", []string{"DEMO"}, "symbols to generate, one walk each")
	fl.IntVarP(&bars, "bars", "n", 1000, "bars per symbol")
	fl.Int64Var(&seed, "seed", 1, "seed of the first symbol; later symbols add their index")
	fl.DurationVar(&interval, "interval", 24*time.Hour, "time between bars")
	fl.StringVar(&start, "start", "", "first bar date, "+dateLayout)
	fl.Float64Var(&volatility, "volatility", 0, "per-bar change width (default 0.02)")
	fl.Float64Var(&trend, "trend", 0, "per-bar drift (default 0.0002)")
	fl.StringVarP(&target, "target", "t", "sqlite", "sqlite, postgres or csv")
	fl.StringVarP(&out, "out", "o", "", "database path, Postgres URL or CSV directory")
	fl.BoolVar(&tradeDays, "trading-days", false, "skip weekends and --holidays (daily intervals)")
	fl.StringSliceVar(&holidays, "holidays", nil, "closed dates, "+dateLayout)
	fl.BoolVar(&resume, "resume", false, "sqlite: continue after each symbol's last stored bar")
	return cmd
}

func writeBarsCSV(path string, bars []model.Bar) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := csvdata.WriteBars(f, bars); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
