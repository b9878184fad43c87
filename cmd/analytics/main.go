// cmd/analytics is the command-line front end of the analytics library:
// single backtests, parameter sweeps, the HTTP gateway, data seeding,
// indicator verification and the run journal.
//
// Usage:
//
//	analytics backtest --csv 'data/**/*.csv' --strategy ma_crossover -p fast=9,slow=21
//	analytics sweep --file runs/sweep.yaml
//	analytics serve
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"synapse-analytics/config"
	"synapse-analytics/internal/logger"
)

var version = "0.1.0"

// cfg is loaded once before any subcommand runs.
var cfg *config.Config

func main() {
	var logLevel string

	rootCmd := &cobra.Command{
		Use:           "analytics",
		Short:         "Technical indicators, statistics, regression and backtests",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg = config.Load()
			if cmd.Flags().Changed("log-level") {
				cfg.LogLevel = logLevel
			}
			level, err := logger.ParseLevel(cfg.LogLevel)
			if err != nil {
				return err
			}
			logger.Init("analytics", level)
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "debug, info, warn or error")

	rootCmd.AddCommand(
		backtestCmd(),
		sweepCmd(),
		serveCmd(),
		seedCmd(),
		verifyCmd(),
		runsCmd(),
		versionCmd(),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", slog.String("signal", sig.String()))
		cancel()
	}()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("analytics %s\n", version)
		},
	}
}
