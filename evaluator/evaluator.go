// Package evaluator implements the fallback scoring path used when a
// benchmark has no Pack, or its Pack leaves the scoring facet
// unsealed: a registry of named Evaluators dispatched by
// config.EvaluationDirectives.Method, mirroring the pack registry's
// name-keyed resolution (pkg/vectorstores/registry.go).
package evaluator

import (
	"context"

	"github.com/memorybench/harness/config"
	"github.com/memorybench/harness/model"
	"github.com/memorybench/harness/registry"
)

// Evaluator scores one item given the already-produced answer candidate
// (the Runner renders the answer prompt from directives and calls the
// answering model before reaching here) and the retrieved context, using
// whatever directives the config supplies (judge model, judge prompt
// template). Unlike a Pack, an Evaluator does not own relevance or prompt
// sealing — it is the unsealed, configurable path.
type Evaluator interface {
	Name() string
	Evaluate(ctx context.Context, item model.BenchmarkItem, retrieved []model.SearchResult, answer string, directives config.EvaluationDirectives) (model.EvalResult, error)
}

// Registry holds Evaluators keyed by name.
var Registry = registry.New[Evaluator]("evaluators")

// Register adds e under its own Name(), returning a registry.Error on a
// name collision when strict is true.
func Register(e Evaluator, strict bool) error {
	return Registry.Register(e.Name(), e, strict)
}

// Resolve looks up the evaluator named by directives.Method, falling back
// to directives.CustomEvaluator when Method is empty.
func Resolve(directives config.EvaluationDirectives) (Evaluator, error) {
	name := directives.Method
	if name == "" {
		name = directives.CustomEvaluator
	}
	return Registry.GetOrError(name)
}
