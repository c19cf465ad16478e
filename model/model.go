// Package model defines the core data types shared by every subsystem of the
// benchmark harness: the items a loader produces, the contexts ingested into
// a provider, the results a provider returns, and the evaluated rows written
// to the results store.
package model

import "time"

// PreparedData is a single piece of context ingested into a provider ahead of
// search. Its Id must be stable and itemId-prefixed so retrieval labels
// survive across runs (see loader package for id construction rules).
type PreparedData struct {
	ID       string
	Content  string
	Metadata map[string]any
}

// BenchmarkItem is one question (and, for nested-question datasets, one of
// several questions attached to a parent record) along with the contexts it
// should be evaluated against.
type BenchmarkItem struct {
	ID           string
	Question     string
	Answer       string
	Contexts     []PreparedData
	Metadata     map[string]any
	QuestionType string
	Category     string
}

// SearchResult is one row returned by a provider's search operation. Score is
// higher-is-better; Chunks is populated only when the provider was asked to
// include sub-document chunks.
type SearchResult struct {
	ID       string
	Content  string
	Score    float64
	Chunks   []SearchResult
	Metadata map[string]any
}

// EvalResult is one (runId, benchmark, provider, itemId) row: the scored
// outcome of evaluating a single item, with the retrieved context attached so
// that post-hoc metrics can be recomputed without re-running the provider.
type EvalResult struct {
	RunID             string
	Benchmark         string
	Provider          string
	ItemID            string
	Question          string
	Expected          string
	Actual            string
	Score             float64
	Correct           bool
	RetrievedContext  []SearchResult
	Metadata          map[string]any
	CreatedAt         time.Time
}

// Telemetry holds the per-item timing/token data the Runner merges into
// EvalResult.Metadata under the "telemetry" key.
type Telemetry struct {
	SearchLatencyMs   float64 `json:"search_latency_ms"`
	TotalLatencyMs    float64 `json:"total_latency_ms"`
	AnswerLatencyMs   float64 `json:"answer_latency_ms,omitempty"`
	JudgeLatencyMs    float64 `json:"judge_latency_ms,omitempty"`
	AnswerInputTokens int     `json:"answer_input_tokens,omitempty"`
	AnswerOutputTokens int    `json:"answer_output_tokens,omitempty"`
	JudgeInputTokens  int     `json:"judge_input_tokens,omitempty"`
	JudgeOutputTokens int     `json:"judge_output_tokens,omitempty"`
}

// RunRequest is the fully-resolved cross-product of benchmarks x providers
// requested by one `eval` invocation, plus the knobs described in spec §6.
type RunRequest struct {
	RunID        string
	Benchmarks   []string
	Providers    []string
	Limit        int
	Start, End   int
	QuestionType string
	TaskType     string
	Concurrency  int
	Metrics      []string
	Policy       string
}

// PairOutput is the per-(benchmark, provider) summary the Runner returns.
type PairOutput struct {
	Benchmark      string
	Provider       string
	TotalItems     int
	CompletedItems int
	FailedItems    int
	Accuracy       float64
	Metrics        map[string]MetricResult
	Results        []EvalResult
}

// MetricResult is the output of one metric calculator over a set of results.
type MetricResult struct {
	Name    string
	Value   float64
	Details map[string]any
}
