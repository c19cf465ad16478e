package evaluator

import (
	"context"

	"github.com/memorybench/harness/config"
	"github.com/memorybench/harness/model"
	"github.com/memorybench/harness/relevance"
)

const locomoQAF1Threshold = 0.5

// LoCoMoQAEvaluator is the config-selectable (method: "locomo_qa") form of
// token-F1 scoring, for benchmarks that want the scoring rule without
// adopting LoCoMoPack's sealed semantics and category-specific abstention
// handling.
type LoCoMoQAEvaluator struct{}

func NewLoCoMoQAEvaluator() *LoCoMoQAEvaluator { return &LoCoMoQAEvaluator{} }

func (e *LoCoMoQAEvaluator) Name() string { return "locomo_qa" }

func (e *LoCoMoQAEvaluator) Evaluate(_ context.Context, item model.BenchmarkItem, retrieved []model.SearchResult, answer string, _ config.EvaluationDirectives) (model.EvalResult, error) {
	precision, recall, f1 := relevance.TokenF1(item.Answer, answer)
	return model.EvalResult{
		ItemID:           item.ID,
		Question:         item.Question,
		Expected:         item.Answer,
		Actual:           answer,
		Score:            f1,
		Correct:          f1 >= locomoQAF1Threshold,
		RetrievedContext: retrieved,
		Metadata: map[string]any{
			"precision": precision,
			"recall":    recall,
			"f1":        f1,
		},
	}, nil
}

var _ Evaluator = (*LoCoMoQAEvaluator)(nil)
