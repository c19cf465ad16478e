package metrics

import (
	"regexp"
	"strings"

	"github.com/memorybench/harness/model"
	"github.com/memorybench/harness/relevance"
)

func textCalculators() []Calculator {
	return []Calculator{
		simpleMetric{
			name:        "f1",
			description: "Macro mean of per-item token-F1 between expected and actual answer.",
			fn:          computeF1,
		},
		simpleMetric{
			name:        "bleu_1",
			description: "Macro mean of per-item unigram-precision BLEU-1 with clipping.",
			fn:          computeBLEU1,
		},
		simpleMetric{
			name:        "rouge_l",
			description: "Macro mean of per-item LCS-based ROUGE-L F1.",
			fn:          computeRougeL,
		},
	}
}

var wordPattern = regexp.MustCompile(`[^\W_]+`)

// tokenize lower-cases s and splits on non-word boundaries, per the f1
// metric's table entry ("lower, nonword->space, split"). This is
// deliberately simpler than the Porter-stemmed normalization a pack's
// category-specific scoring applies: the metrics engine scores the stored
// answer text as-is, it does not re-derive a benchmark's own scoring rule.
// Underscores split tokens here; relevance.TokenF1, which the f1 metric
// calls, keeps them inside tokens.
func tokenize(s string) []string {
	return wordPattern.FindAllString(strings.ToLower(s), -1)
}

func computeF1(results []model.EvalResult, _ Options) (model.MetricResult, error) {
	return macroMeanMetric("f1", results, func(r model.EvalResult) float64 {
		_, _, f1 := relevance.TokenF1(r.Expected, r.Actual)
		return f1
	}), nil
}

func computeBLEU1(results []model.EvalResult, _ Options) (model.MetricResult, error) {
	return macroMeanMetric("bleu_1", results, func(r model.EvalResult) float64 {
		return bleu1(r.Expected, r.Actual)
	}), nil
}

// bleu1 computes unigram-precision BLEU-1: clipped token-count overlap
// between candidate and reference, divided by the candidate's token count.
func bleu1(reference, candidate string) float64 {
	refTokens := tokenize(reference)
	candTokens := tokenize(candidate)
	if len(candTokens) == 0 {
		return 0
	}
	refCounts := make(map[string]int, len(refTokens))
	for _, t := range refTokens {
		refCounts[t]++
	}
	candCounts := make(map[string]int, len(candTokens))
	for _, t := range candTokens {
		candCounts[t]++
	}
	clipped := 0
	for tok, n := range candCounts {
		if refN := refCounts[tok]; refN > 0 {
			if n < refN {
				clipped += n
			} else {
				clipped += refN
			}
		}
	}
	return float64(clipped) / float64(len(candTokens))
}

func computeRougeL(results []model.EvalResult, _ Options) (model.MetricResult, error) {
	return macroMeanMetric("rouge_l", results, func(r model.EvalResult) float64 {
		return rougeL(r.Expected, r.Actual)
	}), nil
}

// rougeL computes the LCS-based F1 between reference and candidate token
// sequences using a space-optimized (two-row) dynamic program, per the
// metrics table's "space-optimized LCS DP" note.
func rougeL(reference, candidate string) float64 {
	ref := tokenize(reference)
	cand := tokenize(candidate)
	if len(ref) == 0 || len(cand) == 0 {
		return 0
	}
	lcs := lcsLength(ref, cand)
	if lcs == 0 {
		return 0
	}
	precision := float64(lcs) / float64(len(cand))
	recall := float64(lcs) / float64(len(ref))
	return 2 * precision * recall / (precision + recall)
}

func lcsLength(a, b []string) int {
	if len(a) < len(b) {
		a, b = b, a
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

// macroMeanMetric builds a model.MetricResult from the mean of per-item
// scores, the shared shape of f1/bleu_1/rouge_l.
func macroMeanMetric(name string, results []model.EvalResult, score func(model.EvalResult) float64) model.MetricResult {
	if len(results) == 0 {
		return model.MetricResult{Name: name, Value: 0}
	}
	var sum float64
	for _, r := range results {
		sum += score(r)
	}
	return model.MetricResult{Name: name, Value: sum / float64(len(results))}
}
