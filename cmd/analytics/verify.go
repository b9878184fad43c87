package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"synapse-analytics/internal/csvdata"
	"synapse-analytics/internal/model"
	"synapse-analytics/internal/synth"
	"synapse-analytics/internal/verify"
)

func verifyCmd() *cobra.Command {
	var (
		csvPath string
		bars    int
		seed    int64
		period  int
	)

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Cross-check the indicators against TA-Lib",
		RunE: func(cmd *cobra.Command, args []string) error {
			var series model.Series
			if csvPath != "" {
				b, err := csvdata.ReadFile(csvPath)
				if err != nil {
					return err
				}
				series = b
			} else {
				series = synth.Generate(synth.Params{Bars: bars, Seed: seed})
			}

			checks := verify.Run(series.Closes(), series.Volumes(), period)
			for _, c := range checks {
				fmt.Println(c)
			}
			if !verify.AllPassed(checks) {
				return fmt.Errorf("indicator mismatch against TA-Lib (tolerance %g)", verify.Tolerance)
			}
			fmt.Printf("all %d indicators match over %d bars\n", len(checks), len(series))
			return nil
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&csvPath, "csv", "", "CSV file to check instead of a random walk")
	fl.IntVarP(&bars, "bars", "n", 500, "random-walk length")
	fl.Int64Var(&seed, "seed", 1, "random-walk seed")
	fl.IntVar(&period, "period", 14, "indicator period")
	return cmd
}
