package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"synapse-analytics/config"
	"synapse-analytics/internal/backtest"
	"synapse-analytics/internal/csvdata"
	"synapse-analytics/internal/logger"
	"synapse-analytics/internal/notification"
	"synapse-analytics/internal/report"
	"synapse-analytics/internal/store/sqlite"
	"synapse-analytics/internal/strategy"
)

// runFlags are the strategy and engine flags shared by backtest and sweep.
type runFlags struct {
	src      sourceFlags
	file     string
	strategy string
	params   map[string]string

	capital    float64
	leverage   float64
	commission float64
	slippage   float64
	trailing   float64
}

func (f *runFlags) register(cmd *cobra.Command) {
	f.src.register(cmd)
	fl := cmd.Flags()
	fl.StringVarP(&f.file, "file", "f", "", "YAML run file")
	fl.StringVarP(&f.strategy, "strategy", "s", "", "strategy name (default ma_crossover)")
	fl.StringToStringVarP(&f.params, "param", "p", nil, "strategy parameters, e.g. fast=9,slow=21")

	def := backtest.DefaultConfig()
	fl.Float64Var(&f.capital, "capital", def.InitialCapital, "initial capital")
	fl.Float64Var(&f.leverage, "leverage", def.Leverage, "leverage multiplier")
	fl.Float64Var(&f.commission, "commission", def.Commission, "commission per side, fraction of notional")
	fl.Float64Var(&f.slippage, "slippage", def.Slippage, "slippage per fill, fraction of price")
	fl.Float64Var(&f.trailing, "trailing-stop", def.TrailingStopPercent, "trailing stop distance; setting it enables the stop")
}

// resolve merges the run file (if any) with the flags. Flags win.
func (f *runFlags) resolve(cmd *cobra.Command) (*config.RunFile, error) {
	rf := &config.RunFile{Backtest: backtest.DefaultConfig()}
	if f.file != "" {
		var err error
		if rf, err = config.LoadRunFile(f.file); err != nil {
			return nil, err
		}
	}
	if err := f.src.apply(&rf.Data); err != nil {
		return nil, err
	}

	if f.strategy != "" {
		rf.Strategy.Name = f.strategy
	}
	if rf.Strategy.Name == "" {
		rf.Strategy.Name = "ma_crossover"
	}
	params, err := parseParams(f.params)
	if err != nil {
		return nil, err
	}
	if rf.Strategy.Params == nil {
		rf.Strategy.Params = map[string]float64{}
	}
	for k, v := range params {
		rf.Strategy.Params[k] = v
	}

	fl := cmd.Flags()
	if fl.Changed("capital") {
		rf.Backtest.InitialCapital = f.capital
	}
	if fl.Changed("leverage") {
		rf.Backtest.Leverage = f.leverage
	}
	if fl.Changed("commission") {
		rf.Backtest.Commission = f.commission
	}
	if fl.Changed("slippage") {
		rf.Backtest.Slippage = f.slippage
	}
	if fl.Changed("trailing-stop") {
		rf.Backtest.UseTrailingStop = true
		rf.Backtest.TrailingStopPercent = f.trailing
	}
	return rf, nil
}

func backtestCmd() *cobra.Command {
	var (
		rf        runFlags
		tradesCSV string
		asJSON    bool
		noJournal bool
	)

	cmd := &cobra.Command{
		Use:   "backtest",
		Short: "Run one strategy over one symbol and print the report",
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := rf.resolve(cmd)
			if err != nil {
				return err
			}
			strat, err := strategy.New(run.Strategy.Name, run.Strategy.Params)
			if err != nil {
				return err
			}

			ctx := logger.WithRunID(cmd.Context(), logger.NewRunID())
			symbol, bars, err := loadBars(ctx, run.Data)
			if err != nil {
				return err
			}

			log := slog.Default().With(logger.LogWithRun(ctx)...)
			log.Info("backtest started", slog.String("strategy", strat.Name()), slog.String("symbol", symbol), slog.Int("bars", len(bars)))

			start := time.Now()
			res, err := backtest.RunBacktest(bars, strat.Signals(bars), backtest.WithConfig(run.Backtest), backtest.WithLogger(log))
			if err != nil {
				return err
			}
			log.Info("backtest finished",
				slog.Int("trades", res.Metrics.TotalTrades),
				slog.Float64("total_return", res.Metrics.TotalReturn),
				slog.Duration("took", time.Since(start)),
			)

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(res); err != nil {
					return err
				}
			} else {
				title := fmt.Sprintf("%s  %s", strat.Name(), symbol)
				if run.Name != "" {
					title = run.Name + "  " + title
				}
				if err := report.Render(os.Stdout, title, res); err != nil {
					return err
				}
				if err := report.TradesTable(os.Stdout, res.Trades); err != nil {
					return err
				}
			}

			if tradesCSV != "" {
				if err := writeTradesCSV(tradesCSV, res.Trades); err != nil {
					return err
				}
			}

			announce(ctx, notification.Notice{
				RunID:    logger.RunID(ctx),
				Kind:     "backtest",
				Strategy: strat.Name(),
				Symbol:   symbol,
				Params:   formatParams(run.Strategy.Params),
				Metrics:  res.Metrics,
			})

			if noJournal {
				return nil
			}
			return journalRun(cmd, logger.RunID(ctx), strat.Name(), symbol, run, res)
		},
	}

	rf.register(cmd)
	cmd.Flags().StringVar(&tradesCSV, "trades-csv", "", "also write the trade list to this CSV file")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	cmd.Flags().BoolVar(&noJournal, "no-journal", false, "do not record the run in the journal")
	return cmd
}

func writeTradesCSV(path string, trades []backtest.Trade) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := csvdata.WriteTrades(f, trades); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func journalRun(cmd *cobra.Command, id, strat, symbol string, run *config.RunFile, res backtest.Result) error {
	j, err := openJournal()
	if err != nil {
		return fmt.Errorf("journal: %w", err)
	}
	defer j.Close()

	err = j.SaveRun(cmd.Context(), sqlite.RunRecord{
		ID:       id,
		Strategy: strat,
		Symbol:   symbol,
		Params:   run.Strategy.Params,
		Config:   run.Backtest,
		Result:   res,
	})
	if err != nil {
		return fmt.Errorf("journal: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "run %s saved to %s\n", id, cfg.SQLitePath)
	return nil
}
