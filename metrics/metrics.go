// Package metrics implements the post-hoc computation pipeline over stored
// model.EvalResult rows: information-retrieval metrics (nDCG@K, Recall@K,
// Precision@K, MRR, File-Recall@K, File-MRR, IoU@K, Success@K), answer-
// quality metrics (F1, BLEU-1, ROUGE-L), accuracy breakdowns, and latency
// aggregates, all dispatched by name through a generic registry.Registry
// exactly like every other pluggable fabric in the harness (grounded on
// pkg/vectorstores/registry.go's name-keyed dispatch, generalized earlier in
// the registry package). Calculators are pure: Compute never mutates its
// input and returns the same model.MetricResult for the same input
// regardless of the outer results slice's order, per spec §8's purity law.
package metrics

import (
	"sort"

	"github.com/memorybench/harness/model"
	"github.com/memorybench/harness/pack"
	"github.com/memorybench/harness/registry"
)

// Options carries the context a Calculator may need beyond the results
// slice itself: the pack registry, for metrics that resolve relevance via a
// benchmark's sealed pack, and the default token-fallback threshold.
type Options struct {
	// Packs resolves a benchmark's pack for the "pack-owned relevance"
	// priority tier (spec §4.7, tier 2). May be nil, in which case that
	// tier is skipped and resolution falls through to the token fallback.
	Packs *pack.Registry
	// RelevanceThreshold overrides the default token-fallback F1 threshold
	// (0.3) used by rank-sensitive metrics. Zero means "use the default".
	RelevanceThreshold float64
}

func (o Options) threshold() float64 {
	if o.RelevanceThreshold > 0 {
		return o.RelevanceThreshold
	}
	return defaultRelevanceThreshold
}

// Calculator computes one named metric over a set of EvalResults. Compute
// must be pure: no I/O, no mutation of results.
type Calculator interface {
	Name() string
	Aliases() []string
	Description() string
	Compute(results []model.EvalResult, opts Options) (model.MetricResult, error)
}

// Registry holds every registered Calculator, keyed by name with alias
// resolution exactly like the loader/evaluator/pack registries.
var Registry = registry.New[Calculator]("metrics")

// Register adds c under its own Name(), plus its declared Aliases(). strict
// controls conflict handling per registry.Registry.Register.
func Register(c Calculator, strict bool) error {
	return Registry.Register(c.Name(), c, strict, c.Aliases()...)
}

// Compute validates every requested metric name up front (fail fast, per
// spec §4.7), de-duplicates names that resolve to the same calculator via
// aliasing, and returns one model.MetricResult per distinct calculator in
// the registry's canonical name order (not the caller's request order, so
// repeated calls are stable).
func Compute(names []string, results []model.EvalResult, opts Options) ([]model.MetricResult, error) {
	resolved := make(map[string]Calculator, len(names))
	for _, name := range names {
		primary := Registry.ResolveAlias(name)
		calc, err := Registry.GetOrError(primary)
		if err != nil {
			return nil, newMetricsError("Compute", name, ErrCodeUnknownMetric, "metric not registered", err)
		}
		resolved[calc.Name()] = calc
	}

	canonical := make([]string, 0, len(resolved))
	for name := range resolved {
		canonical = append(canonical, name)
	}
	sort.Strings(canonical)

	out := make([]model.MetricResult, 0, len(canonical))
	for _, name := range canonical {
		res, err := resolved[name].Compute(results, opts)
		if err != nil {
			return nil, newMetricsError("Compute", name, ErrCodeComputeFailed, "calculator failed", err)
		}
		out = append(out, res)
	}
	return out, nil
}

// RegisterDefaults registers every built-in calculator this package ships.
// Call once at process startup, before any run begins, per spec §5's
// registries-are-mutation-unsafe-after-first-read rule.
func RegisterDefaults(strict bool) error {
	for _, c := range defaultCalculators() {
		if err := Register(c, strict); err != nil {
			return err
		}
	}
	return nil
}

func defaultCalculators() []Calculator {
	var out []Calculator
	out = append(out, accuracyCalculators()...)
	out = append(out, textCalculators()...)
	out = append(out, irCalculators()...)
	out = append(out, fileCalculators()...)
	out = append(out, latencyCalculators()...)
	return out
}

// simpleMetric is a Calculator built from a plain name/description/compute
// closure, used for the metrics that need no per-instance configuration
// (everything except the parameterized @K families).
type simpleMetric struct {
	name        string
	aliases     []string
	description string
	fn          func(results []model.EvalResult, opts Options) (model.MetricResult, error)
}

func (m simpleMetric) Name() string        { return m.name }
func (m simpleMetric) Aliases() []string   { return m.aliases }
func (m simpleMetric) Description() string { return m.description }
func (m simpleMetric) Compute(results []model.EvalResult, opts Options) (model.MetricResult, error) {
	return m.fn(results, opts)
}

var _ Calculator = simpleMetric{}
