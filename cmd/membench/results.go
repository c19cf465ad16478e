package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/memorybench/harness/metrics"
	"github.com/memorybench/harness/model"
	"github.com/memorybench/harness/store"
)

func newResultsCommand(flags *globalFlags) *cobra.Command {
	var metricNames, compare []string
	var breakdown bool

	cmd := &cobra.Command{
		Use:   "results <runId>",
		Short: "Show metrics and per-pair aggregates for a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.dbDSN == "" {
				return fmt.Errorf("results requires --db")
			}
			runID := args[0]
			db, err := store.Open(cmd.Context(), flags.dbDSN)
			if err != nil {
				return fmt.Errorf("open results store: %w", err)
			}
			defer db.Close()

			run, err := db.GetRun(cmd.Context(), runID)
			if err != nil {
				return err
			}
			fmt.Printf("run %s (started %s)\n", run.ID, run.StartedAt.Format("2006-01-02T15:04:05Z07:00"))

			aggregates, err := db.PairAggregates(cmd.Context(), runID)
			if err != nil {
				return err
			}
			w := newTabWriter()
			fmt.Fprintf(w, "BENCHMARK\tPROVIDER\tTOTAL\tCORRECT\tACCURACY\tAVG SCORE\n")
			for _, a := range aggregates {
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%.4f\t%.4f\n", a.Benchmark, a.Provider, a.TotalItems, a.CorrectItems, a.Accuracy, a.AverageScore)
			}
			_ = w.Flush()

			if len(metricNames) > 0 {
				results, err := db.ResultsForRun(cmd.Context(), runID)
				if err != nil {
					return err
				}
				if err := printStoredMetrics(metricNames, results); err != nil {
					return err
				}
			}

			if breakdown {
				if err := printBreakdown(cmd, db, runID); err != nil {
					return err
				}
			}

			if len(compare) > 0 {
				if err := printCompare(cmd, db, runID, aggregates, compare); err != nil {
					return err
				}
			}

			return nil
		},
	}

	cmd.Flags().StringSliceVar(&metricNames, "metrics", nil, "recompute these metrics over the run's stored results")
	cmd.Flags().BoolVar(&breakdown, "breakdown", false, "show per-question-type and per-category accuracy breakdowns")
	cmd.Flags().StringSliceVar(&compare, "compare", nil, "compare these providers on the run's (first) benchmark")

	return cmd
}

func printStoredMetrics(names []string, results []model.EvalResult) error {
	computed, err := metrics.Compute(names, results, metrics.Options{})
	if err != nil {
		return err
	}
	values := make(map[string]float64, len(computed))
	for _, m := range computed {
		values[m.Name] = m.Value
	}
	printMetricsTable("\nmetrics:", values)
	return nil
}

func printBreakdown(cmd *cobra.Command, db *store.Store, runID string) error {
	byType, err := db.GroupByQuestionType(cmd.Context(), runID)
	if err != nil {
		return err
	}
	fmt.Println("\nby question type:")
	for _, g := range byType {
		fmt.Printf("  %-24s %d items, accuracy %.4f\n", g.Group, g.TotalItems, g.Accuracy)
	}

	byCategory, err := db.GroupByCategory(cmd.Context(), runID)
	if err != nil {
		return err
	}
	fmt.Println("\nby category:")
	for _, g := range byCategory {
		fmt.Printf("  %-24s %d items, accuracy %.4f\n", g.Group, g.TotalItems, g.Accuracy)
	}
	return nil
}

func printCompare(cmd *cobra.Command, db *store.Store, runID string, aggregates []store.PairAggregate, providers []string) error {
	if len(aggregates) == 0 {
		return nil
	}
	benchmark := aggregates[0].Benchmark
	cmp, err := db.CompareProviders(cmd.Context(), runID, benchmark, providers)
	if err != nil {
		return err
	}
	fmt.Printf("\ncompare (%s): %s\n", benchmark, strings.Join(providers, ", "))
	w := newTabWriter()
	fmt.Fprintf(w, "PROVIDER\tACCURACY\tAVG SCORE\n")
	for _, a := range cmp {
		fmt.Fprintf(w, "%s\t%.4f\t%.4f\n", a.Provider, a.Accuracy, a.AverageScore)
	}
	_ = w.Flush()
	return nil
}
