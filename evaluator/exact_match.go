package evaluator

import (
	"context"
	"strings"

	"github.com/memorybench/harness/config"
	"github.com/memorybench/harness/model"
)

// ExactMatchEvaluator scores an answer correct when it equals the expected
// answer after trimming whitespace and folding case, the simplest scoring
// method. A benchmark config selects it with method "exact_match"; Resolve
// does not fall back to it when no method is named.
type ExactMatchEvaluator struct{}

func NewExactMatchEvaluator() *ExactMatchEvaluator { return &ExactMatchEvaluator{} }

func (e *ExactMatchEvaluator) Name() string { return "exact_match" }

func (e *ExactMatchEvaluator) Evaluate(_ context.Context, item model.BenchmarkItem, retrieved []model.SearchResult, answer string, _ config.EvaluationDirectives) (model.EvalResult, error) {
	correct := strings.EqualFold(strings.TrimSpace(answer), strings.TrimSpace(item.Answer))
	score := 0.0
	if correct {
		score = 1.0
	}
	return model.EvalResult{
		ItemID:           item.ID,
		Question:         item.Question,
		Expected:         item.Answer,
		Actual:           answer,
		Score:            score,
		Correct:          correct,
		RetrievedContext: retrieved,
	}, nil
}

var _ Evaluator = (*ExactMatchEvaluator)(nil)
