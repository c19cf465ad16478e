package store

import (
	"context"
	"sort"

	"github.com/memorybench/harness/model"
)

// PairAggregate summarizes one (benchmark, provider) pair's results within
// a run.
type PairAggregate struct {
	Benchmark      string
	Provider       string
	TotalItems     int
	CorrectItems   int
	Accuracy       float64
	AverageScore   float64
}

// PairAggregates groups a run's results by (benchmark, provider), ordered
// for deterministic display.
func (s *Store) PairAggregates(ctx context.Context, runID string) ([]PairAggregate, error) {
	results, err := s.ResultsForRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	return aggregateByPair(results), nil
}

func aggregateByPair(results []model.EvalResult) []PairAggregate {
	type key struct{ benchmark, provider string }
	agg := map[key]*PairAggregate{}
	var order []key

	for _, r := range results {
		k := key{r.Benchmark, r.Provider}
		a, ok := agg[k]
		if !ok {
			a = &PairAggregate{Benchmark: r.Benchmark, Provider: r.Provider}
			agg[k] = a
			order = append(order, k)
		}
		a.TotalItems++
		if r.Correct {
			a.CorrectItems++
		}
		a.AverageScore += r.Score
	}

	sort.Slice(order, func(i, j int) bool {
		if order[i].benchmark != order[j].benchmark {
			return order[i].benchmark < order[j].benchmark
		}
		return order[i].provider < order[j].provider
	})

	out := make([]PairAggregate, 0, len(order))
	for _, k := range order {
		a := agg[k]
		if a.TotalItems > 0 {
			a.Accuracy = float64(a.CorrectItems) / float64(a.TotalItems)
			a.AverageScore /= float64(a.TotalItems)
		}
		out = append(out, *a)
	}
	return out
}

// GroupAggregate summarizes results bucketed by an arbitrary metadata
// field (question_type, category).
type GroupAggregate struct {
	Group        string
	TotalItems   int
	CorrectItems int
	Accuracy     float64
}

// GroupByQuestionType buckets a run's results by their metadata
// "questionType" field.
func (s *Store) GroupByQuestionType(ctx context.Context, runID string) ([]GroupAggregate, error) {
	results, err := s.ResultsForRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	return aggregateByMetadataField(results, "questionType"), nil
}

// GroupByCategory buckets a run's results by their metadata "category"
// field.
func (s *Store) GroupByCategory(ctx context.Context, runID string) ([]GroupAggregate, error) {
	results, err := s.ResultsForRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	return aggregateByMetadataField(results, "category"), nil
}

func aggregateByMetadataField(results []model.EvalResult, field string) []GroupAggregate {
	agg := map[string]*GroupAggregate{}
	var order []string

	for _, r := range results {
		group, _ := r.Metadata[field].(string)
		if group == "" {
			group = "unknown"
		}
		a, ok := agg[group]
		if !ok {
			a = &GroupAggregate{Group: group}
			agg[group] = a
			order = append(order, group)
		}
		a.TotalItems++
		if r.Correct {
			a.CorrectItems++
		}
	}

	sort.Strings(order)
	out := make([]GroupAggregate, 0, len(order))
	for _, group := range order {
		a := agg[group]
		if a.TotalItems > 0 {
			a.Accuracy = float64(a.CorrectItems) / float64(a.TotalItems)
		}
		out = append(out, *a)
	}
	return out
}

// CompareProviders returns the pair aggregates for one benchmark, limited
// to the requested providers (all providers if empty), ordered by
// descending accuracy so the table command can render a ranked baseline
// comparison.
func (s *Store) CompareProviders(ctx context.Context, runID, benchmark string, providers []string) ([]PairAggregate, error) {
	all, err := s.PairAggregates(ctx, runID)
	if err != nil {
		return nil, err
	}

	wanted := toSet(providers)
	var out []PairAggregate
	for _, a := range all {
		if a.Benchmark != benchmark {
			continue
		}
		if len(wanted) > 0 && !wanted[a.Provider] {
			continue
		}
		out = append(out, a)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Accuracy > out[j].Accuracy })
	return out, nil
}

func toSet(values []string) map[string]bool {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
