package runner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memorybench/harness/config"
	"github.com/memorybench/harness/evaluator"
	"github.com/memorybench/harness/loader"
	"github.com/memorybench/harness/metrics"
	"github.com/memorybench/harness/model"
	"github.com/memorybench/harness/provider"
	"github.com/memorybench/harness/provider/inmemoryprovider"
)

// fakeLoader returns a fixed set of items directly, bypassing schema
// mapping, the way the code-retrieval loaders do for their benchmarks.
type fakeLoader struct {
	name  string
	items []model.BenchmarkItem
}

func (f *fakeLoader) Name() string { return f.name }
func (f *fakeLoader) Load(_ context.Context, _ *config.BenchmarkConfig) ([]model.BenchmarkItem, error) {
	return f.items, nil
}

func setupTestRunner(t *testing.T, benchmark, providerName string, items []model.BenchmarkItem) *Runner {
	t.Helper()

	require.NoError(t, evaluator.Register(evaluator.NewExactMatchEvaluator(), false))
	require.NoError(t, metrics.RegisterDefaults(false))

	p := inmemoryprovider.New()
	require.NoError(t, provider.Registry.Register(providerName, p, false))
	t.Cleanup(func() { provider.Registry.Delete(providerName) })

	ld := &fakeLoader{name: benchmark, items: items}
	require.NoError(t, loader.Register(ld, false))
	t.Cleanup(func() { loader.Registry.Delete(benchmark) })

	benchCfg := &config.BenchmarkConfig{
		Name:   benchmark,
		Search: config.SearchDefaults{TopK: 5},
		Evaluation: config.EvaluationDirectives{
			Method: "exact_match",
		},
	}
	providerCfg := &config.ProviderConfig{Name: providerName, Kind: config.ProviderLocal}

	return New(
		WithBenchmarkConfigs(map[string]*config.BenchmarkConfig{benchmark: benchCfg}),
		WithProviderConfigs(map[string]*config.ProviderConfig{providerName: providerCfg}),
		WithCheckpointDir(t.TempDir()),
	)
}

func TestRun_UnknownBenchmarkFailsFast(t *testing.T) {
	r := New(
		WithBenchmarkConfigs(map[string]*config.BenchmarkConfig{}),
		WithProviderConfigs(map[string]*config.ProviderConfig{}),
	)
	_, err := r.Run(context.Background(), model.RunRequest{Benchmarks: []string{"nope"}, Providers: []string{"nope"}})
	require.Error(t, err)
	assert.True(t, IsRunnerError(err))
}

func TestRun_EndToEnd_ExactMatch(t *testing.T) {
	const benchmark = "test-bench-e2e"
	const providerName = "test-inmemory-e2e"

	items := []model.BenchmarkItem{
		{
			ID: "item-1", Question: "what animal sat on the mat?", Answer: "",
			Contexts: []model.PreparedData{{ID: "item-1-ctx-0", Content: "the cat sat on the mat"}},
		},
	}
	r := setupTestRunner(t, benchmark, providerName, items)

	results, err := r.Run(context.Background(), model.RunRequest{
		RunID:      "run-1",
		Benchmarks: []string{benchmark},
		Providers:  []string{providerName},
		Metrics:    []string{"accuracy"},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)

	pair := results[0]
	require.NoError(t, pair.Err)
	assert.Equal(t, 1, pair.TotalItems)
	assert.Equal(t, 1, pair.CompletedItems)
	assert.Equal(t, 0, pair.FailedItems)
	require.Len(t, pair.Results, 1)
	require.Contains(t, pair.Metrics, "accuracy")
}

func TestRun_CheckpointResumeSkipsCompletedItems(t *testing.T) {
	const benchmark = "test-bench-resume"
	const providerName = "test-inmemory-resume"

	items := []model.BenchmarkItem{
		{ID: "item-1", Question: "q1", Contexts: []model.PreparedData{{ID: "item-1-ctx-0", Content: "c1"}}},
		{ID: "item-2", Question: "q2", Contexts: []model.PreparedData{{ID: "item-2-ctx-0", Content: "c2"}}},
	}
	r := setupTestRunner(t, benchmark, providerName, items)

	req := model.RunRequest{RunID: "run-resume", Benchmarks: []string{benchmark}, Providers: []string{providerName}}

	first, err := r.Run(context.Background(), req)
	require.NoError(t, err)
	require.NoError(t, first[0].Err)
	assert.Equal(t, 2, first[0].CompletedItems)

	second, err := r.Run(context.Background(), req)
	require.NoError(t, err)
	require.NoError(t, second[0].Err)
	// Every item was already marked complete by the first run, so the
	// second run's in-memory results slice is empty even though
	// CompletedItems still counts every already-finished item.
	assert.Equal(t, 2, second[0].CompletedItems)
	assert.Empty(t, second[0].Results)
}

func TestFilterByTaskType(t *testing.T) {
	items := []model.BenchmarkItem{
		{ID: "a", Metadata: map[string]any{"taskType": "function"}},
		{ID: "b", Metadata: map[string]any{"taskType": "line"}},
	}
	assert.Len(t, filterByTaskType(items, ""), 2)
	assert.Len(t, filterByTaskType(items, "all"), 2)
	filtered := filterByTaskType(items, "function")
	require.Len(t, filtered, 1)
	assert.Equal(t, "a", filtered[0].ID)
}

func TestPrepareContexts_DedupesAcrossItems(t *testing.T) {
	items := []model.BenchmarkItem{
		{ID: "item-1", Contexts: []model.PreparedData{{ID: "shared", Content: "x"}}},
		{ID: "item-2", Contexts: []model.PreparedData{{ID: "shared", Content: "x"}, {ID: "unique", Content: "y"}}},
	}
	out := prepareContexts(items)
	require.Len(t, out, 2)
	assert.Equal(t, "shared", out[0].ID)
	assert.Equal(t, "unique", out[1].ID)
}
