// Package pack defines the Pack contract — a benchmark's owned scoring
// semantics — and a registry that resolves packs by (benchmark, id) with
// "first registered wins" latest-version selection. Prompt rendering uses
// Go's text/template package rather than naive string replacement, since
// pack-owned templates need real conditionals and field access.
package pack

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"text/template"

	"github.com/memorybench/harness/config"
	"github.com/memorybench/harness/model"
)

// Pack owns a benchmark's scoring semantics end to end: how the answering
// prompt is built, how the judge prompt (if any) is built, how a final
// score is computed, and which retrieved results count as relevant. A
// pack may seal any subset of these facets (config.SealedFacet)
// to prevent an operator's config from silently changing what "correct"
// means for published leaderboard numbers.
type Pack interface {
	// BenchmarkName is the benchmark this pack scores, e.g. "longmemeval".
	BenchmarkName() string
	// PackID identifies this pack's version, e.g. "v1".
	PackID() string
	// SealedFacets declares which facets this pack refuses to let a
	// BenchmarkConfig override.
	SealedFacets() map[config.SealedFacet]bool

	// BuildAnswerPrompt renders the prompt sent to the answering model,
	// along with a stable hash of the rendered text so a checkpoint or
	// results row can detect when re-running would score against a
	// different prompt.
	BuildAnswerPrompt(item model.BenchmarkItem, retrieved []model.SearchResult) (prompt, hash string)

	// BuildJudgePrompt renders the prompt sent to an LLM judge, if this
	// pack's evaluation method uses one. Packs that don't use a judge
	// return the empty string.
	BuildJudgePrompt(item model.BenchmarkItem, answer string) string

	// Evaluate scores one item given the model's answer and the retrieved
	// context, populating EvalResult.Score/Correct/Metadata.
	Evaluate(ctx context.Context, item model.BenchmarkItem, retrieved []model.SearchResult, answer string) (model.EvalResult, error)

	// IsRelevant reports whether result counts as relevant context for
	// item, using whatever ground truth this pack owns (qrels, category
	// rules, line spans, ...). Used by metrics that need relevance
	// judgments this pack is authoritative for.
	IsRelevant(item model.BenchmarkItem, result model.SearchResult) bool
}

func hashPrompt(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(sum[:])
}

// renderTemplate renders a Go text/template against data, returning the
// literal tmpl string unchanged if it fails to parse (treating it as a
// plain non-templated prompt) so a pack never crashes a run over a typo in
// a config-supplied template.
func renderTemplate(tmpl string, data any) string {
	t, err := template.New("prompt").Parse(tmpl)
	if err != nil {
		return tmpl
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return tmpl
	}
	return buf.String()
}

// Registry resolves Packs by (benchmarkName, packId), with "first
// registered wins" latest-version selection per benchmark.
type Registry struct {
	mu       sync.RWMutex
	byKey    map[string]Pack   // "{benchmarkName}:{packId}" -> Pack
	versions map[string][]string // benchmarkName -> packIds in registration order
}

// NewRegistry returns an empty pack Registry.
func NewRegistry() *Registry {
	return &Registry{
		byKey:    make(map[string]Pack),
		versions: make(map[string][]string),
	}
}

func packKey(benchmark, id string) string { return fmt.Sprintf("%s:%s", benchmark, id) }

// Register adds p, keyed by its own BenchmarkName/PackID. Returns an error
// if that exact (benchmark, id) pair is already registered.
func (r *Registry) Register(p Pack) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := packKey(p.BenchmarkName(), p.PackID())
	if _, exists := r.byKey[key]; exists {
		return fmt.Errorf("pack: %q already registered", key)
	}
	r.byKey[key] = p
	r.versions[p.BenchmarkName()] = append(r.versions[p.BenchmarkName()], p.PackID())
	return nil
}

// GetVersion returns the pack registered for (benchmark, id).
func (r *Registry) GetVersion(benchmark, id string) (Pack, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byKey[packKey(benchmark, id)]
	return p, ok
}

// GetLatest returns the first pack registered for benchmark — "latest" here
// means "the version the harness's own registration order treats as
// canonical", not a semver comparison, matching the registry package's
// lenient first-wins convention.
func (r *Registry) GetLatest(benchmark string) (Pack, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := r.versions[benchmark]
	if len(ids) == 0 {
		return nil, false
	}
	return r.byKey[packKey(benchmark, ids[0])], true
}

// Versions lists every pack id registered for benchmark, in registration
// order.
func (r *Registry) Versions(benchmark string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.versions[benchmark]))
	copy(out, r.versions[benchmark])
	return out
}
