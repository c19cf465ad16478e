package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/memorybench/harness/model"
	"github.com/memorybench/harness/runner"
	"github.com/memorybench/harness/store"
	"github.com/memorybench/harness/telemetry"
)

func newEvalCommand(flags *globalFlags) *cobra.Command {
	var req model.RunRequest
	var benchmarks, providers, metricNames []string
	var output string

	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Run the benchmark x provider cross-product and score the results",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(benchmarks) == 0 || len(providers) == 0 {
				return fmt.Errorf("eval requires --benchmarks and --providers")
			}
			req.Benchmarks = benchmarks
			req.Providers = providers
			req.Metrics = metricNames
			if req.RunID == "" {
				req.RunID = uuid.NewString()
			}

			h, err := bootstrap(flags)
			if err != nil {
				return err
			}

			var db *store.Store
			if flags.dbDSN != "" {
				db, err = store.Open(cmd.Context(), flags.dbDSN)
				if err != nil {
					return fmt.Errorf("open results store: %w", err)
				}
				defer db.Close()
				if err := db.CreateRun(cmd.Context(), store.Run{
					ID:         req.RunID,
					StartedAt:  time.Now(),
					Benchmarks: req.Benchmarks,
					Providers:  req.Providers,
				}); err != nil {
					return fmt.Errorf("create run: %w", err)
				}
			}

			rn := runner.New(
				runner.WithBenchmarkConfigs(h.benchmarks),
				runner.WithProviderConfigs(h.providers),
				runner.WithPacks(h.packs),
				runner.WithCheckpointDir(flags.checkpointDir),
				runner.WithStore(db),
				runner.WithLogger(telemetry.NewLogger()),
				runner.WithProgress(printProgress),
			)

			results, err := rn.Run(cmd.Context(), req)
			if err != nil {
				return err
			}

			printEvalSummary(req.RunID, results)

			if db != nil {
				now := time.Now()
				if err := db.CompleteRun(context.Background(), req.RunID, now); err != nil {
					fmt.Fprintf(os.Stderr, "warning: failed to mark run complete: %v\n", err)
				}
			}

			if output != "" {
				if err := writeEvalSummary(output, req.RunID, results); err != nil {
					return fmt.Errorf("write output: %w", err)
				}
			}

			return nil
		},
	}

	cmd.Flags().StringSliceVar(&benchmarks, "benchmarks", nil, "comma-separated benchmark names")
	cmd.Flags().StringSliceVar(&providers, "providers", nil, "comma-separated provider names")
	cmd.Flags().IntVar(&req.Limit, "limit", 0, "limit the number of items evaluated per benchmark")
	cmd.Flags().IntVar(&req.Start, "start", 0, "1-indexed inclusive start of the item range")
	cmd.Flags().IntVar(&req.End, "end", 0, "1-indexed inclusive end of the item range")
	cmd.Flags().StringVar(&req.QuestionType, "question-type", "", "filter items to this question type")
	cmd.Flags().StringVar(&req.TaskType, "task-type", "", "filter code-retrieval items to this task type")
	cmd.Flags().IntVar(&req.Concurrency, "concurrency", 0, "number of (benchmark, provider) pairs run in parallel (default 10)")
	cmd.Flags().StringSliceVar(&metricNames, "metrics", nil, "comma-separated metric names to compute")
	cmd.Flags().StringVar(&req.Policy, "policy", "1-hop", "1-hop|H-hop|all")
	cmd.Flags().StringVar(&req.RunID, "run-id", "", "run id (defaults to a generated uuid; pass an earlier run's id to resume it)")
	cmd.Flags().StringVar(&output, "output", "", "directory to write a JSON run summary into")

	return cmd
}

func printProgress(ev runner.ProgressEvent) {
	fmt.Printf("[%s/%s] %s %d/%d (accuracy %.3f)\n",
		ev.Benchmark, ev.Provider, ev.Phase, ev.Current, ev.Total, ev.RunningAccuracy)
}

func printEvalSummary(runID string, results []runner.PairResult) {
	fmt.Printf("\nrun %s\n", runID)
	w := newTabWriter()
	fmt.Fprintf(w, "BENCHMARK\tPROVIDER\tTOTAL\tCOMPLETED\tFAILED\tACCURACY\n")
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(w, "%s\t%s\tERROR: %v\n", r.Benchmark, r.Provider, r.Err)
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%.4f\n",
			r.Benchmark, r.Provider, r.TotalItems, r.CompletedItems, r.FailedItems, r.Accuracy)
	}
	_ = w.Flush()

	for _, r := range results {
		if r.Err != nil || len(r.Metrics) == 0 {
			continue
		}
		metricValues := make(map[string]float64, len(r.Metrics))
		for name, m := range r.Metrics {
			metricValues[name] = m.Value
		}
		printMetricsTable(fmt.Sprintf("\nmetrics for %s/%s:", r.Benchmark, r.Provider), metricValues)
	}
}

// evalSummaryDoc is the JSON shape written to --output, named to avoid any
// confusion with store.ExportDocument (which mirrors the persisted store
// schema rather than one eval invocation's in-memory results).
type evalSummaryDoc struct {
	RunID   string              `json:"run_id"`
	Results []runner.PairResult `json:"results"`
}

func writeEvalSummary(dir, runID string, results []runner.PairResult) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(evalSummaryDoc{RunID: runID, Results: results}, "", "  ")
	if err != nil {
		return err
	}
	path := filepath.Join(dir, runID+"-summary.json")
	return os.WriteFile(path, data, 0o644)
}
