package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memorybench/harness/model"
)

func TestCompute_UnknownMetricFailsFast(t *testing.T) {
	_, err := Compute([]string{"not_a_real_metric"}, nil, Options{})
	require.Error(t, err)
	assert.True(t, IsMetricsError(err))
}

func TestAccuracy(t *testing.T) {
	results := []model.EvalResult{
		{Correct: true},
		{Correct: false},
		{Correct: true},
		{Correct: true},
	}
	res, err := computeAccuracy(results, Options{})
	require.NoError(t, err)
	assert.InDelta(t, 0.75, res.Value, 1e-9)
}

func TestAccuracyByQuestionType_MacroMean(t *testing.T) {
	results := []model.EvalResult{
		{Correct: true, Metadata: map[string]any{"questionType": "a"}},
		{Correct: false, Metadata: map[string]any{"questionType": "a"}},
		{Correct: true, Metadata: map[string]any{"questionType": "b"}},
	}
	res, err := groupedAccuracy("questionType")(results, Options{})
	require.NoError(t, err)
	// group "a" -> 0.5, group "b" -> 1.0, macro mean -> 0.75 (not the
	// micro accuracy of 2/3).
	assert.InDelta(t, 0.75, res.Value, 1e-9)
}

func TestNDCG_EmptyRelevantSetReturnsZero(t *testing.T) {
	r := model.EvalResult{
		Expected:         "totally unrelated answer text",
		RetrievedContext: []model.SearchResult{{ID: "a", Content: "something else entirely"}},
	}
	value := ndcgAt(r, 10, Options{}, defaultRelevanceThreshold)
	assert.Equal(t, 0.0, value)
}

func TestNDCG_PerfectRankingIsOne(t *testing.T) {
	r := model.EvalResult{
		Expected: "apples oranges pears",
		RetrievedContext: []model.SearchResult{
			{ID: "a", Content: "apples oranges pears"},
			{ID: "b", Content: "completely unrelated"},
		},
	}
	value := ndcgAt(r, 10, Options{}, defaultRelevanceThreshold)
	assert.InDelta(t, 1.0, value, 1e-9)
}

func TestRecallAtK_NoPaddingWhenKExceedsRetrieved(t *testing.T) {
	r := model.EvalResult{
		Expected: "apples oranges pears",
		RetrievedContext: []model.SearchResult{
			{ID: "a", Content: "apples oranges pears"},
		},
	}
	calc := recallAtK(10)
	res, err := calc.Compute([]model.EvalResult{r}, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1.0, res.Value)
}

func TestIoUAtK_ZeroWhenSpanAbsent(t *testing.T) {
	r := model.EvalResult{
		RetrievedContext: []model.SearchResult{
			{Metadata: map[string]any{"filepath": "src/auth.py"}},
		},
	}
	assert.Equal(t, 0.0, bestIoU(r, 5))
}

func TestIoUAtK_ZeroWhenFileMismatches(t *testing.T) {
	r := model.EvalResult{
		Metadata: map[string]any{"groundTruth": map[string]any{"file": "src/auth.py", "startLine": 10, "endLine": 20}},
		RetrievedContext: []model.SearchResult{
			{Metadata: map[string]any{"filepath": "src/other.py", "startLine": 10, "endLine": 20}},
		},
	}
	assert.Equal(t, 0.0, bestIoU(r, 5))
}

func TestFileRecallAtK_HalfCoverage(t *testing.T) {
	r := model.EvalResult{
		Metadata: map[string]any{"modifiedFiles": []string{"src/fix.py", "src/test.py"}},
		RetrievedContext: []model.SearchResult{
			{Metadata: map[string]any{"filepath": "src/fix.py"}},
		},
	}
	calc := fileRecallAtK(5)
	res, err := calc.Compute([]model.EvalResult{r}, Options{})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, res.Value, 1e-9)
}

func TestBLEU1_ClipsOverCounting(t *testing.T) {
	value := bleu1("the cat sat on the mat", "the the the the")
	// "the" appears twice in the reference, so clipping caps the matched
	// count at 2 out of 4 candidate tokens.
	assert.InDelta(t, 0.5, value, 1e-9)
}

func TestRougeL_IdenticalTextIsOne(t *testing.T) {
	assert.InDelta(t, 1.0, rougeL("apples and oranges", "apples and oranges"), 1e-9)
}

func TestMRR_ZeroWhenNoneRelevant(t *testing.T) {
	r := model.EvalResult{
		Expected:         "apples",
		RetrievedContext: []model.SearchResult{{Content: "bananas"}, {Content: "pears"}},
	}
	value := reciprocalRank(r, r.RetrievedContext, Options{}, defaultRelevanceThreshold)
	assert.Equal(t, 0.0, value)
}

func TestExplicitQrelsTakePriorityOverTokenFallback(t *testing.T) {
	r := model.EvalResult{
		Expected: "totally unrelated text",
		Metadata: map[string]any{"relevantIds": []string{"x"}},
	}
	candidate := model.SearchResult{ID: "x", Content: "nothing matching at all"}
	assert.True(t, isRelevant(r, candidate, Options{}, defaultRelevanceThreshold))
}

func TestPercentile_Bounds(t *testing.T) {
	sorted := []float64{1, 2, 3, 4, 5}
	assert.Equal(t, 1.0, percentile(sorted, 0))
	assert.Equal(t, 5.0, percentile(sorted, 1))
}
