package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/memorybench/harness/store"
)

// newTableCommand implements the `table` command: provider comparison for
// one benchmark within a run, with an optional baseline provider whose
// accuracy every row's accuracy is diffed against (average score is shown
// but not diffed). This is pure composition of store.CompareProviders.
func newTableCommand(flags *globalFlags) *cobra.Command {
	var runID, benchmark, baseline string

	cmd := &cobra.Command{
		Use:   "table",
		Short: "Render a per-provider comparison table for one benchmark within a run",
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.dbDSN == "" {
				return fmt.Errorf("table requires --db")
			}
			if runID == "" || benchmark == "" {
				return fmt.Errorf("table requires --run and --benchmark")
			}
			db, err := store.Open(cmd.Context(), flags.dbDSN)
			if err != nil {
				return fmt.Errorf("open results store: %w", err)
			}
			defer db.Close()

			aggregates, err := db.CompareProviders(cmd.Context(), runID, benchmark, nil)
			if err != nil {
				return err
			}
			if len(aggregates) == 0 {
				fmt.Printf("no results for benchmark %q in run %q\n", benchmark, runID)
				return nil
			}

			var baselineAgg *store.PairAggregate
			if baseline != "" {
				for i := range aggregates {
					if aggregates[i].Provider == baseline {
						baselineAgg = &aggregates[i]
						break
					}
				}
				if baselineAgg == nil {
					return fmt.Errorf("baseline provider %q has no results for benchmark %q", baseline, benchmark)
				}
			}

			w := newTabWriter()
			if baselineAgg != nil {
				fmt.Fprintf(w, "PROVIDER\tACCURACY\tAVG SCORE\tΔACCURACY vs %s\n", baseline)
			} else {
				fmt.Fprintf(w, "PROVIDER\tACCURACY\tAVG SCORE\n")
			}
			for _, a := range aggregates {
				if baselineAgg == nil {
					fmt.Fprintf(w, "%s\t%.4f\t%.4f\n", a.Provider, a.Accuracy, a.AverageScore)
					continue
				}
				delta := a.Accuracy - baselineAgg.Accuracy
				fmt.Fprintf(w, "%s\t%.4f\t%.4f\t%+.4f\n", a.Provider, a.Accuracy, a.AverageScore, delta)
			}
			_ = w.Flush()
			return nil
		},
	}

	cmd.Flags().StringVar(&runID, "run", "", "run id")
	cmd.Flags().StringVar(&benchmark, "benchmark", "", "benchmark name")
	cmd.Flags().StringVar(&baseline, "baseline", "", "provider name every row is diffed against")

	return cmd
}
