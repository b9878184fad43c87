package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"synapse-analytics/config"
	"synapse-analytics/internal/backtest"
	"synapse-analytics/internal/logger"
	"synapse-analytics/internal/metrics"
	"synapse-analytics/internal/notification"
	"synapse-analytics/internal/report"
	"synapse-analytics/internal/strategy"
)

func sweepCmd() *cobra.Command {
	var (
		rf      runFlags
		grid    []string
		workers int
		top     int
		asJSON  bool
		save    bool
		promOut string
	)

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Backtest every combination of a parameter grid",
		Example: "  analytics sweep --synthetic 1000 -s ma_crossover --grid fast=5,9,13 --grid slow=21,34,55\n" +
			"  analytics sweep --file runs/sweep.yaml",
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := rf.resolve(cmd)
			if err != nil {
				return err
			}

			spec := run.Sweep
			if len(grid) > 0 {
				g, err := parseGrid(grid)
				if err != nil {
					return err
				}
				spec = &config.SweepSpec{Grid: g}
			}
			if spec == nil || len(spec.Grid) == 0 {
				return errors.New("sweep needs a grid: --grid key=v1,v2 or a sweep section in the run file")
			}
			if cmd.Flags().Changed("workers") || spec.Workers <= 0 {
				spec.Workers = workers
			}

			combos := spec.Points(run.Strategy.Params)
			points := make([]backtest.SweepPoint, 0, len(combos))
			for _, p := range combos {
				s, err := strategy.New(run.Strategy.Name, p)
				if err != nil {
					return err
				}
				points = append(points, backtest.SweepPoint{Params: p, Source: s})
			}

			ctx := logger.WithRunID(cmd.Context(), logger.NewRunID())
			symbol, bars, err := loadBars(ctx, run.Data)
			if err != nil {
				return err
			}

			log := slog.Default().With(logger.LogWithRun(ctx)...)
			log.Info("sweep started",
				slog.String("strategy", run.Strategy.Name),
				slog.String("symbol", symbol),
				slog.Int("points", len(points)),
				slog.Int("workers", spec.Workers),
			)

			bar := progressbar.NewOptions(len(points),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionSetElapsedTime(true),
				progressbar.OptionShowElapsedTimeOnFinish(),
				progressbar.OptionSetDescription(fmt.Sprintf("[cyan]sweeping %s[reset]", run.Strategy.Name)),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
			)

			progress := func(done, total int) { bar.Set(done) }
			var reg *prometheus.Registry
			if promOut != "" {
				reg = prometheus.NewRegistry()
				progress = metrics.NewMetrics(reg).SweepProgress(progress)
			}

			start := time.Now()
			results, err := backtest.Sweep(ctx, bars, points, spec.Workers,
				progress,
				backtest.WithConfig(run.Backtest),
				backtest.WithLogger(log),
			)
			bar.Finish()
			fmt.Fprintln(os.Stderr)
			if err != nil {
				return err
			}
			log.Info("sweep finished", slog.Int("points", len(results)), slog.Duration("took", time.Since(start)))
			if reg != nil {
				if err := metrics.WriteTextfile(promOut, reg); err != nil {
					return fmt.Errorf("write metrics: %w", err)
				}
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(results); err != nil {
					return err
				}
			} else {
				printRanking(results, top)
			}

			best := backtest.Best(results)
			if best < 0 {
				return nil
			}
			announce(ctx, notification.Notice{
				RunID:    logger.RunID(ctx),
				Kind:     "sweep",
				Strategy: results[best].Strategy,
				Symbol:   symbol,
				Params:   formatParams(results[best].Params),
				Points:   len(results),
				Metrics:  results[best].Result.Metrics,
			})
			if !save {
				return nil
			}
			run.Strategy.Params = results[best].Params
			return journalRun(cmd, logger.RunID(ctx), results[best].Strategy, symbol, run, results[best].Result)
		},
	}

	rf.register(cmd)
	fl := cmd.Flags()
	fl.StringArrayVarP(&grid, "grid", "g", nil, "grid axis key=v1,v2,...; repeat per key")
	fl.IntVarP(&workers, "workers", "w", 4, "concurrent backtests")
	fl.IntVar(&top, "top", 10, "rows to print, 0 for all")
	fl.BoolVar(&asJSON, "json", false, "print every result as JSON")
	fl.BoolVar(&save, "save-best", true, "record the best run in the journal")
	fl.StringVar(&promOut, "metrics-file", "", "write sweep counters to this Prometheus textfile")
	cmd.PreRun = func(cmd *cobra.Command, args []string) {
		if !cmd.Flags().Changed("workers") && cfg.SweepWorkers > 0 {
			workers = cfg.SweepWorkers
		}
	}
	return cmd
}

// parseGrid turns ["fast=5,9", "slow=21"] into a grid.
func parseGrid(axes []string) (map[string][]float64, error) {
	grid := make(map[string][]float64, len(axes))
	for _, axis := range axes {
		key, vals, ok := strings.Cut(axis, "=")
		if !ok || key == "" || vals == "" {
			return nil, fmt.Errorf("grid axis %q: want key=v1,v2", axis)
		}
		for _, v := range strings.Split(vals, ",") {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return nil, fmt.Errorf("grid axis %s: %q is not a number", key, v)
			}
			grid[key] = append(grid[key], f)
		}
	}
	return grid, nil
}

// formatParams prints params in key order, e.g. "fast=9 slow=21".
func formatParams(p map[string]float64) string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + strconv.FormatFloat(p[k], 'g', -1, 64)
	}
	return strings.Join(parts, " ")
}

// rank orders result indices by total return, best first. Ties keep grid
// order.
func rank(results []backtest.SweepResult) []int {
	idx := make([]int, len(results))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return results[idx[a]].Result.Metrics.TotalReturn > results[idx[b]].Result.Metrics.TotalReturn
	})
	return idx
}

func printRanking(results []backtest.SweepResult, top int) {
	idx := rank(results)
	if top > 0 && top < len(idx) {
		idx = idx[:top]
	}
	fmt.Printf("%-4s %-32s %12s %9s %7s %8s %9s\n", "#", "PARAMS", "RETURN", "RETURN%", "TRADES", "SHARPE", "MAX DD%")
	for n, i := range idx {
		m := results[i].Result.Metrics
		fmt.Printf("%-4d %-32s %12s %9s %7d %8s %9s\n",
			n+1,
			formatParams(results[i].Params),
			report.Money(m.TotalReturn),
			report.Percent(m.TotalReturnPercent),
			m.TotalTrades,
			report.Ratio(float64(m.SharpeRatio)),
			report.Percent(m.MaxDrawdownPercent),
		)
	}
}
