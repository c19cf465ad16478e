package metrics

import (
	"fmt"
	"math"

	"github.com/memorybench/harness/model"
	"github.com/memorybench/harness/relevance"
)

// irKs enumerates the K values the @K metric families ship under, per spec
// §4.7's table.
var irKs = []int{1, 3, 5, 10}

func irCalculators() []Calculator {
	out := []Calculator{
		simpleMetric{
			name:        "mrr",
			description: "Mean reciprocal rank of the first relevant retrieved result.",
			fn:          computeMRR,
		},
		simpleMetric{
			name:        "avg_retrieval_score",
			description: "Mean of every retrieved result's raw score across all items.",
			fn:          computeAvgRetrievalScore,
		},
	}
	for _, k := range irKs {
		out = append(out, precisionAtK(k), recallAtK(k), ndcgAtK(k), successAtK(k))
	}
	return out
}

func computeMRR(results []model.EvalResult, opts Options) (model.MetricResult, error) {
	if len(results) == 0 {
		return model.MetricResult{Name: "mrr", Value: 0}, nil
	}
	threshold := opts.threshold()
	var sum float64
	for _, r := range results {
		sum += reciprocalRank(r, r.RetrievedContext, opts, threshold)
	}
	return model.MetricResult{Name: "mrr", Value: sum / float64(len(results))}, nil
}

// reciprocalRank returns 1/rank of the first relevant candidate in
// candidates (1-indexed), or 0 when none is relevant.
func reciprocalRank(r model.EvalResult, candidates []model.SearchResult, opts Options, threshold float64) float64 {
	for i, c := range candidates {
		if isRelevant(r, c, opts, threshold) {
			return 1.0 / float64(i+1)
		}
	}
	return 0
}

func precisionAtK(k int) Calculator {
	name := fmt.Sprintf("precision_at_%d", k)
	return simpleMetric{
		name:        name,
		description: fmt.Sprintf("Mean of (#relevant in top-%d) / %d.", k, k),
		fn: func(results []model.EvalResult, opts Options) (model.MetricResult, error) {
			if len(results) == 0 {
				return model.MetricResult{Name: name, Value: 0}, nil
			}
			threshold := opts.threshold()
			var sum float64
			for _, r := range results {
				top := topK(r.RetrievedContext, k)
				sum += float64(relevantCount(r, top, opts, threshold)) / float64(k)
			}
			return model.MetricResult{Name: name, Value: sum / float64(len(results))}, nil
		},
	}
}

func recallAtK(k int) Calculator {
	name := fmt.Sprintf("recall_at_%d", k)
	return simpleMetric{
		name: name,
		description: fmt.Sprintf(
			"Mean of: 1 iff any top-%d chunk covers >= threshold of expected answer tokens.", k),
		fn: func(results []model.EvalResult, _ Options) (model.MetricResult, error) {
			if len(results) == 0 {
				return model.MetricResult{Name: name, Value: 0}, nil
			}
			var sum float64
			for _, r := range results {
				top := topK(r.RetrievedContext, k) // k > len(retrieved): consider all retrieved, no padding
				if anyChunkCoversExpected(r.Expected, top, defaultRelevanceThreshold) {
					sum++
				}
			}
			return model.MetricResult{Name: name, Value: sum / float64(len(results))}, nil
		},
	}
}

// anyChunkCoversExpected reports whether any candidate's content covers at
// least theta of the expected answer's unique tokens. This is a
// coverage-of-expected rule, not a bidirectional F1, so a long chunk that
// happens to contain every expected token is never penalized for also
// containing unrelated text.
func anyChunkCoversExpected(expected string, candidates []model.SearchResult, theta float64) bool {
	expTokens := uniqueTokens(expected)
	if len(expTokens) == 0 {
		return false
	}
	for _, c := range candidates {
		if expectedTokenCoverage(expTokens, c.Content) >= theta {
			return true
		}
	}
	return false
}

func uniqueTokens(s string) map[string]bool {
	toks := tokenize(s)
	set := make(map[string]bool, len(toks))
	for _, t := range toks {
		set[t] = true
	}
	return set
}

func expectedTokenCoverage(expected map[string]bool, content string) float64 {
	if len(expected) == 0 {
		return 0
	}
	contentSet := uniqueTokens(content)
	covered := 0
	for tok := range expected {
		if contentSet[tok] {
			covered++
		}
	}
	return float64(covered) / float64(len(expected))
}

func ndcgAtK(k int) Calculator {
	name := fmt.Sprintf("ndcg_at_%d", k)
	return simpleMetric{
		name:        name,
		description: fmt.Sprintf("Mean of DCG@%d / IDCG@%d, IDCG sized by the full relevant-set count.", k, k),
		fn: func(results []model.EvalResult, opts Options) (model.MetricResult, error) {
			if len(results) == 0 {
				return model.MetricResult{Name: name, Value: 0}, nil
			}
			threshold := opts.threshold()
			var sum float64
			for _, r := range results {
				sum += ndcgAt(r, k, opts, threshold)
			}
			return model.MetricResult{Name: name, Value: sum / float64(len(results))}, nil
		},
	}
}

func ndcgAt(r model.EvalResult, k int, opts Options, threshold float64) float64 {
	relevantTotal := relevantCount(r, r.RetrievedContext, opts, threshold)
	if relevantTotal == 0 {
		return 0
	}

	top := topK(r.RetrievedContext, k)
	var dcg float64
	for i, c := range top {
		if isRelevant(r, c, opts, threshold) {
			dcg += 1.0 / math.Log2(float64(i+2))
		}
	}

	idealHits := min(k, relevantTotal)
	var idcg float64
	for i := 0; i < idealHits; i++ {
		idcg += 1.0 / math.Log2(float64(i+2))
	}
	if idcg == 0 {
		return 0
	}
	return dcg / idcg
}

func successAtK(k int) Calculator {
	name := fmt.Sprintf("success_at_%d", k)
	return simpleMetric{
		name: name,
		description: fmt.Sprintf(
			"Mean of: 1 iff result.Correct and a top-%d chunk has token-F1 >= %.1f.", k, successRelevanceThreshold),
		fn: func(results []model.EvalResult, _ Options) (model.MetricResult, error) {
			if len(results) == 0 {
				return model.MetricResult{Name: name, Value: 0}, nil
			}
			var sum float64
			for _, r := range results {
				if !r.Correct {
					continue
				}
				top := topK(r.RetrievedContext, k)
				if anyChunkTokenF1AtLeast(r.Expected, top, successRelevanceThreshold) {
					sum++
				}
			}
			return model.MetricResult{Name: name, Value: sum / float64(len(results))}, nil
		},
	}
}

func anyChunkTokenF1AtLeast(expected string, candidates []model.SearchResult, threshold float64) bool {
	for _, c := range candidates {
		_, _, f1 := relevance.TokenF1(expected, c.Content)
		if f1 >= threshold {
			return true
		}
	}
	return false
}

func computeAvgRetrievalScore(results []model.EvalResult, _ Options) (model.MetricResult, error) {
	var sum float64
	var n int
	for _, r := range results {
		for _, c := range r.RetrievedContext {
			sum += c.Score
			n++
		}
	}
	if n == 0 {
		return model.MetricResult{Name: "avg_retrieval_score", Value: 0}, nil
	}
	return model.MetricResult{Name: "avg_retrieval_score", Value: sum / float64(n)}, nil
}
