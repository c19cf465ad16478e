// Package runner implements the execution engine: a concurrency-bounded
// scheduler that drives each requested (benchmark, provider) pair through
// the INIT -> INGEST -> EVALUATE -> CLEANUP -> DONE state machine,
// checkpointing per item so an interrupted run resumes exactly where it
// stopped. Construction follows a functional-options Runner, with a
// semaphore plus sync.WaitGroup bounding how many pairs run concurrently.
package runner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/memorybench/harness/checkpoint"
	"github.com/memorybench/harness/config"
	"github.com/memorybench/harness/evaluator"
	"github.com/memorybench/harness/llm"
	"github.com/memorybench/harness/loader"
	"github.com/memorybench/harness/metrics"
	"github.com/memorybench/harness/model"
	"github.com/memorybench/harness/pack"
	"github.com/memorybench/harness/policy"
	"github.com/memorybench/harness/provider"
	"github.com/memorybench/harness/store"
	"github.com/memorybench/harness/telemetry"
)

const defaultConcurrency = 10
const defaultTopK = 10
const defaultLoaderName = "schema"

// ProgressEvent reports the execution engine's progress through one pair's
// phases as {phase, current, total, running accuracy}.
type ProgressEvent struct {
	Benchmark       string
	Provider        string
	Phase           telemetry.Phase
	Current         int
	Total           int
	RunningAccuracy float64
}

// ProgressFunc receives ProgressEvents as a run proceeds. May be nil.
type ProgressFunc func(ProgressEvent)

// PairResult is one (benchmark, provider) pair's outcome: the summary
// output on success, or Err set when the pair aborted before producing one
// (provider construction/initialization failure, dataset load failure, or
// a corrupted checkpoint).
type PairResult struct {
	model.PairOutput
	Err error
}

// Runner drives the benchmark x provider cross-product described by one
// model.RunRequest.
type Runner struct {
	benchmarks    map[string]*config.BenchmarkConfig
	providers     map[string]*config.ProviderConfig
	packs         *pack.Registry
	checkpointDir string
	store         *store.Store
	logger        *telemetry.Logger
	meter         *telemetry.Meter
	tracer        *telemetry.Tracer
	progress      ProgressFunc
}

// Option configures a Runner created by New.
type Option func(*Runner)

// WithBenchmarkConfigs registers the benchmark configs a run may reference.
func WithBenchmarkConfigs(cfgs map[string]*config.BenchmarkConfig) Option {
	return func(r *Runner) { r.benchmarks = cfgs }
}

// WithProviderConfigs registers the provider configs a run may reference.
func WithProviderConfigs(cfgs map[string]*config.ProviderConfig) Option {
	return func(r *Runner) { r.providers = cfgs }
}

// WithPacks sets the pack registry consulted for sealed evaluation/relevance.
func WithPacks(p *pack.Registry) Option {
	return func(r *Runner) { r.packs = p }
}

// WithCheckpointDir sets the root directory checkpoint files are written
// under, as "checkpoints/{runId}/{benchmark}-{provider}.json".
func WithCheckpointDir(dir string) Option {
	return func(r *Runner) { r.checkpointDir = dir }
}

// WithStore sets the results store each completed item is upserted into.
// May be left nil (e.g. for a dry run) to skip persistence.
func WithStore(s *store.Store) Option {
	return func(r *Runner) { r.store = s }
}

// WithLogger sets the structured logger used for warnings (non-fatal
// cleanup/ingest errors) and pair-level diagnostics.
func WithLogger(l *telemetry.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// WithMeter sets the OpenTelemetry meter phase timings are recorded to.
func WithMeter(m *telemetry.Meter) Option {
	return func(r *Runner) { r.meter = m }
}

// WithTracer sets the tracer the INGEST, EVALUATE and CLEANUP phases are
// each wrapped in a span with.
func WithTracer(t *telemetry.Tracer) Option {
	return func(r *Runner) { r.tracer = t }
}

// WithProgress sets the callback invoked as the run proceeds.
func WithProgress(fn ProgressFunc) Option {
	return func(r *Runner) { r.progress = fn }
}

// New constructs a Runner from opts.
func New(opts ...Option) *Runner {
	r := &Runner{
		benchmarks: make(map[string]*config.BenchmarkConfig),
		providers:  make(map[string]*config.ProviderConfig),
		logger:     telemetry.NewLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run validates req against the registered benchmarks/providers/metrics
// (fail-fast: unknown registry keys abort the run before any work begins),
// then drives every (benchmark, provider) pair under bounded concurrency.
func (r *Runner) Run(ctx context.Context, req model.RunRequest) ([]PairResult, error) {
	if err := r.validate(req); err != nil {
		return nil, err
	}

	concurrency := req.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	type pairKey struct{ benchmark, provider string }
	var pairs []pairKey
	for _, b := range req.Benchmarks {
		for _, p := range req.Providers {
			pairs = append(pairs, pairKey{b, p})
		}
	}

	results := make([]PairResult, len(pairs))
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	var mu sync.Mutex

	for i, pk := range pairs {
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(idx int, benchmark, providerName string) {
			defer wg.Done()
			defer func() { <-sem }()

			out, err := r.runPair(ctx, benchmark, providerName, req)
			mu.Lock()
			results[idx] = PairResult{PairOutput: out, Err: err}
			mu.Unlock()
		}(i, pk.benchmark, pk.provider)
	}

	wg.Wait()
	return results, nil
}

func (r *Runner) validate(req model.RunRequest) error {
	for _, b := range req.Benchmarks {
		if _, ok := r.benchmarks[b]; !ok {
			return newRunnerError("Run", b, "", ErrCodeUnknownBenchmark, fmt.Sprintf("benchmark %q not registered", b), nil)
		}
	}
	for _, p := range req.Providers {
		if _, ok := r.providers[p]; !ok {
			return newRunnerError("Run", "", p, ErrCodeUnknownProvider, fmt.Sprintf("provider %q not registered", p), nil)
		}
		if !provider.Registry.Has(p) {
			return newRunnerError("Run", "", p, ErrCodeUnknownProvider, fmt.Sprintf("provider adapter %q not registered", p), nil)
		}
	}
	for _, m := range req.Metrics {
		if !metrics.Registry.Has(m) {
			return newRunnerError("Run", "", "", ErrCodeUnknownMetric, fmt.Sprintf("metric %q not registered", m), nil)
		}
	}
	return nil
}

// runPair drives one (benchmark, provider) pair through INIT -> INGEST ->
// EVALUATE -> CLEANUP.
func (r *Runner) runPair(ctx context.Context, benchmark, providerName string, req model.RunRequest) (model.PairOutput, error) {
	out := model.PairOutput{Benchmark: benchmark, Provider: providerName}

	// INIT
	benchCfg := r.benchmarks[benchmark]
	providerCfg := r.providers[providerName]
	p, err := provider.Registry.GetOrError(providerName)
	if err != nil {
		return out, newRunnerError("INIT", benchmark, providerName, ErrCodeProviderInit, "resolve provider", err)
	}
	if err := provider.Initialize(ctx, p); err != nil {
		return out, newRunnerError("INIT", benchmark, providerName, ErrCodeProviderInit, "initialize provider", err)
	}

	ld, err := resolveLoader(benchmark)
	if err != nil {
		return out, newRunnerError("INIT", benchmark, providerName, ErrCodeLoadFailed, "resolve loader", err)
	}
	items, err := ld.Load(ctx, benchCfg)
	if err != nil {
		return out, newRunnerError("INIT", benchmark, providerName, ErrCodeLoadFailed, "load items", err)
	}
	items = loader.Apply(items, loader.Filters{
		QuestionType: req.QuestionType,
		Start:        req.Start,
		End:          req.End,
		Limit:        req.Limit,
	})
	items = filterByTaskType(items, req.TaskType)
	out.TotalItems = len(items)

	runTag := providerCfg.RunTag(benchmark, req.RunID)

	mgr := checkpoint.NewManager(r.checkpointDir, req.RunID, benchmark, providerName)
	if err := mgr.LoadOrCreate(); err != nil {
		return out, newRunnerError("INIT", benchmark, providerName, ErrCodeCheckpointFailed, "load checkpoint", err)
	}

	// INGEST
	ingestStart := time.Now()
	ingestCtx, endIngestSpan := r.tracer.StartSpan(ctx, "ingest")
	ingestErr := r.ingest(ingestCtx, mgr, p, runTag, items)
	endIngestSpan()
	r.meter.RecordPhase(ctx, benchmark, providerName, telemetry.PhaseIngest, time.Since(ingestStart), ingestErr)
	if ingestErr != nil {
		r.logger.Warn(ctx, "ingest phase encountered errors", "benchmark", benchmark, "provider", providerName, "err", ingestErr)
	}

	// EVALUATE
	searchPolicy, err := policy.Resolve(req.Policy)
	if err != nil {
		return out, newRunnerError("EVALUATE", benchmark, providerName, ErrCodeLoadFailed, "resolve search policy", err)
	}
	topK := benchCfg.Search.TopK
	if topK <= 0 {
		topK = defaultTopK
	}

	evalCtx, endEvaluateSpan := r.tracer.StartSpan(ctx, "evaluate")
	var completed, failed int
	var correctCount int
	results := make([]model.EvalResult, 0, len(items))

	for _, item := range items {
		if ctx.Err() != nil {
			break
		}

		key := "item:" + item.ID
		if mgr.ShouldSkip(key) {
			completed++
			continue
		}
		_ = mgr.MarkInProgress(key)

		res, evalErr := r.evaluateItem(evalCtx, benchCfg, providerCfg, p, runTag, searchPolicy, topK, item, req.RunID)
		if evalErr != nil {
			failed++
			_ = mgr.MarkFailed(key)
			r.logger.Warn(ctx, "item evaluation failed", "benchmark", benchmark, "provider", providerName, "item", item.ID, "err", evalErr)
		} else {
			completed++
			_ = mgr.MarkComplete(key)
			if res.Correct {
				correctCount++
			}
			results = append(results, res)
			if r.store != nil {
				if err := r.store.UpsertResult(ctx, res); err != nil {
					r.logger.Warn(ctx, "failed to persist result", "benchmark", benchmark, "provider", providerName, "item", item.ID, "err", err)
				}
			}
		}

		if r.progress != nil {
			acc := 0.0
			if completed > 0 {
				acc = float64(correctCount) / float64(completed)
			}
			r.progress(ProgressEvent{
				Benchmark: benchmark, Provider: providerName, Phase: telemetry.PhaseEvaluate,
				Current: completed + failed, Total: len(items), RunningAccuracy: acc,
			})
		}
	}
	endEvaluateSpan()

	out.CompletedItems = completed
	out.FailedItems = failed
	out.Results = results
	if completed > 0 {
		out.Accuracy = float64(correctCount) / float64(completed)
	}

	// CLEANUP
	cleanupCtx, endCleanupSpan := r.tracer.StartSpan(ctx, "cleanup")
	if err := p.Clear(cleanupCtx, runTag); err != nil {
		r.logger.Warn(ctx, "cleanup clear failed", "benchmark", benchmark, "provider", providerName, "err", err)
	}
	if err := provider.Cleanup(cleanupCtx, p); err != nil {
		r.logger.Warn(ctx, "cleanup failed", "benchmark", benchmark, "provider", providerName, "err", err)
	}
	endCleanupSpan()

	if len(req.Metrics) > 0 {
		metricResults, err := metrics.Compute(req.Metrics, results, metrics.Options{Packs: r.packs})
		if err != nil {
			return out, newRunnerError("EVALUATE", benchmark, providerName, ErrCodeUnknownMetric, "compute metrics", err)
		}
		out.Metrics = make(map[string]model.MetricResult, len(metricResults))
		for _, m := range metricResults {
			out.Metrics[m.Name] = m
		}
	}

	return out, nil
}

// ingest iterates prepareContexts(items) deduped by context id across
// items and adds each one to the provider, marking ingest-specific
// checkpoint entries so a crash mid-ingest resumes from the right context.
func (r *Runner) ingest(ctx context.Context, mgr *checkpoint.Manager, p provider.Provider, runTag string, items []model.BenchmarkItem) error {
	if mgr.IngestDone() {
		return nil
	}

	contexts := prepareContexts(items)
	var firstErr error
	for i, c := range contexts {
		if ctx.Err() != nil {
			firstErr = ctx.Err()
			break
		}
		key := "ctx:" + c.ID
		if mgr.ShouldSkip(key) {
			continue
		}
		_ = mgr.MarkInProgress(key)
		if err := p.AddContext(ctx, runTag, c); err != nil {
			_ = mgr.MarkFailed(key)
			if firstErr == nil {
				firstErr = fmt.Errorf("ingest context %q (%d/%d): %w", c.ID, i+1, len(contexts), err)
			}
			continue
		}
		_ = mgr.MarkComplete(key)
	}

	if firstErr == nil {
		if err := mgr.MarkIngestDone(); err != nil {
			return err
		}
	}
	return firstErr
}

// prepareContexts flattens every item's contexts into one list, deduped by
// context id, preserving first-seen order.
func prepareContexts(items []model.BenchmarkItem) []model.PreparedData {
	seen := make(map[string]bool)
	var out []model.PreparedData
	for _, item := range items {
		for _, c := range item.Contexts {
			if seen[c.ID] {
				continue
			}
			seen[c.ID] = true
			out = append(out, c)
		}
	}
	return out
}

// filterByTaskType narrows items to those whose "taskType" metadata field
// matches taskType, for code-retrieval benchmarks that tag items by
// function/line/api task kind ("all", or empty, skips the filter).
func filterByTaskType(items []model.BenchmarkItem, taskType string) []model.BenchmarkItem {
	if taskType == "" || taskType == "all" {
		return items
	}
	out := make([]model.BenchmarkItem, 0, len(items))
	for _, item := range items {
		if t, _ := item.Metadata["taskType"].(string); t == taskType {
			out = append(out, item)
		}
	}
	return out
}

func resolveLoader(benchmark string) (loader.Loader, error) {
	if loader.Registry.Has(benchmark) {
		return loader.Registry.GetOrError(benchmark)
	}
	return loader.Registry.GetOrError(defaultLoaderName)
}

// evaluateItem issues the search call (through the resolved policy),
// produces an answer, scores it via the benchmark's pack (when it owns
// scoring) or the configured evaluator, and attaches telemetry.
func (r *Runner) evaluateItem(ctx context.Context, benchCfg *config.BenchmarkConfig, providerCfg *config.ProviderConfig, p provider.Provider, runTag string, searchPolicy policy.Policy, topK int, item model.BenchmarkItem, runID string) (model.EvalResult, error) {
	itemStart := time.Now()

	searchStart := time.Now()
	retrieved, err := searchPolicy.Search(ctx, item.Question, topK, func(ctx context.Context, query string, k int) ([]model.SearchResult, error) {
		return p.SearchQuery(ctx, runTag, query, k)
	})
	searchLatency := time.Since(searchStart)
	r.meter.RecordPhase(ctx, benchCfg.Name, providerCfg.Name, telemetry.PhaseSearch, searchLatency, err)
	if err != nil {
		return model.EvalResult{}, fmt.Errorf("search: %w", err)
	}

	var selectedPack pack.Pack
	if r.packs != nil {
		if p2, ok := r.packs.GetLatest(benchCfg.Name); ok {
			selectedPack = p2
		}
	}

	answerPrompt := buildAnswerPrompt(selectedPack, benchCfg, item, retrieved)
	answerStart := time.Now()
	answerModel := benchCfg.Evaluation.AnsweringModel
	var answerResp llm.Response
	if answerModel != "" {
		answerResp, err = llm.GenerateText(ctx, llm.Request{Model: answerModel, Prompt: answerPrompt})
		if err != nil {
			return model.EvalResult{}, fmt.Errorf("answer generation: %w", err)
		}
	}
	answerLatency := time.Since(answerStart)

	var result model.EvalResult
	if selectedPack != nil && selectedPack.SealedFacets()[config.FacetScoring] {
		result, err = selectedPack.Evaluate(ctx, item, retrieved, answerResp.Text)
	} else {
		var ev evaluator.Evaluator
		ev, err = evaluator.Resolve(benchCfg.Evaluation)
		if err == nil {
			result, err = ev.Evaluate(ctx, item, retrieved, answerResp.Text, benchCfg.Evaluation)
		}
	}
	if err != nil {
		return model.EvalResult{}, fmt.Errorf("evaluate: %w", err)
	}

	result.RunID = runID
	result.Benchmark = benchCfg.Name
	result.Provider = providerCfg.Name
	result.ItemID = item.ID
	result.CreatedAt = time.Now()

	merged := make(map[string]any, len(item.Metadata)+len(result.Metadata)+1)
	for k, v := range item.Metadata {
		merged[k] = v
	}
	for k, v := range result.Metadata {
		merged[k] = v
	}
	merged["telemetry"] = model.Telemetry{
		SearchLatencyMs:    float64(searchLatency.Milliseconds()),
		TotalLatencyMs:     float64(time.Since(itemStart).Milliseconds()),
		AnswerLatencyMs:    float64(answerLatency.Milliseconds()),
		AnswerInputTokens:  answerResp.InputTokens,
		AnswerOutputTokens: answerResp.OutputTokens,
	}
	result.Metadata = merged

	return result, nil
}

const defaultAnswerTemplate = `Answer the question using only the retrieved context below.

Context:
{{range .Contexts}}- {{.Content}}
{{end}}
Question: {{.Question}}

Answer concisely:`

func buildAnswerPrompt(p pack.Pack, benchCfg *config.BenchmarkConfig, item model.BenchmarkItem, retrieved []model.SearchResult) string {
	if p != nil {
		prompt, _ := p.BuildAnswerPrompt(item, retrieved)
		return prompt
	}
	tmpl := benchCfg.Evaluation.AnswerPromptTemplate
	if tmpl == "" {
		tmpl = defaultAnswerTemplate
	}
	return renderAnswerTemplate(tmpl, item, retrieved)
}
