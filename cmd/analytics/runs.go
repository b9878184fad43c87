package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"synapse-analytics/internal/report"
)

func runsCmd() *cobra.Command {
	var (
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List journaled backtest runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := openJournal()
			if err != nil {
				return err
			}
			defer j.Close()

			runs, err := j.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(runs)
			}
			if len(runs) == 0 {
				fmt.Println("no runs recorded")
				return nil
			}

			fmt.Printf("%-36s  %-19s  %-20s %-10s %12s %12s %7s\n", "ID", "CREATED", "STRATEGY", "SYMBOL", "FINAL", "RETURN", "TRADES")
			for _, r := range runs {
				fmt.Printf("%-36s  %-19s  %-20s %-10s %12s %12s %7d\n",
					r.ID,
					r.CreatedAt.Local().Format("2006-01-02 15:04:05"),
					r.Strategy,
					r.Symbol,
					r.FinalCapital.StringFixed(2),
					r.TotalReturn.StringFixed(2),
					r.TotalTrades,
				)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "most recent runs to list")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")

	cmd.AddCommand(&cobra.Command{
		Use:   "show <run-id>",
		Short: "Print the trades of one run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := openJournal()
			if err != nil {
				return err
			}
			defer j.Close()

			trades, err := j.GetTrades(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return report.TradesTable(os.Stdout, trades)
		},
	})
	return cmd
}
