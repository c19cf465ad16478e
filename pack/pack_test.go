package pack

import (
	"context"
	"testing"

	"github.com/memorybench/harness/llm"
	"github.com/memorybench/harness/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	name string
	text string
}

func (f *fakeBackend) Name() string { return f.name }
func (f *fakeBackend) GenerateText(_ context.Context, req llm.Request) (llm.Response, error) {
	return llm.Response{Text: f.text, InputTokens: 5, OutputTokens: 2}, nil
}

func TestRegistry_RegisterGetLatestVersions(t *testing.T) {
	r := NewRegistry()
	v1 := NewLongMemEvalPack("judge/v1")
	require.NoError(t, r.Register(v1))

	err := r.Register(v1)
	assert.Error(t, err)

	got, ok := r.GetVersion("longmemeval", "v1")
	assert.True(t, ok)
	assert.Same(t, v1, got)

	latest, ok := r.GetLatest("longmemeval")
	assert.True(t, ok)
	assert.Same(t, v1, latest)

	assert.Equal(t, []string{"v1"}, r.Versions("longmemeval"))

	_, ok = r.GetLatest("unknown")
	assert.False(t, ok)
}

func TestLongMemEvalPack_BuildAnswerPrompt_HashIsStable(t *testing.T) {
	p := NewLongMemEvalPack("mock/judge")
	item := model.BenchmarkItem{ID: "i1", Question: "What day is it?"}
	retrieved := []model.SearchResult{{ID: "c1", Content: "It is Tuesday."}}

	prompt1, hash1 := p.BuildAnswerPrompt(item, retrieved)
	prompt2, hash2 := p.BuildAnswerPrompt(item, retrieved)

	assert.Equal(t, prompt1, prompt2)
	assert.Equal(t, hash1, hash2)
	assert.Contains(t, prompt1, "What day is it?")
	assert.Contains(t, prompt1, "It is Tuesday.")
}

func TestLongMemEvalPack_Evaluate_ParsesJudgeVerdict(t *testing.T) {
	backend := &fakeBackend{name: "mock", text: "CORRECT"}
	require.NoError(t, llm.RegisterBackend(backend, false))

	p := NewLongMemEvalPack("mock/judge-model")
	item := model.BenchmarkItem{ID: "i1", Question: "q", Answer: "gold"}

	result, err := p.Evaluate(context.Background(), item, nil, "candidate answer")
	require.NoError(t, err)
	assert.True(t, result.Correct)
	assert.Equal(t, 1.0, result.Score)
	assert.Equal(t, "CORRECT", result.Metadata["judge_verdict"])
}

func TestLongMemEvalPack_Evaluate_IncorrectVerdict(t *testing.T) {
	backend := &fakeBackend{name: "mock2", text: "INCORRECT"}
	require.NoError(t, llm.RegisterBackend(backend, false))

	p := NewLongMemEvalPack("mock2/judge-model")
	item := model.BenchmarkItem{ID: "i1", Question: "q", Answer: "gold"}

	result, err := p.Evaluate(context.Background(), item, nil, "wrong answer")
	require.NoError(t, err)
	assert.False(t, result.Correct)
	assert.Equal(t, 0.0, result.Score)
}

func TestLongMemEvalPack_IsRelevant(t *testing.T) {
	p := NewLongMemEvalPack("mock/judge")
	item := model.BenchmarkItem{Contexts: []model.PreparedData{{ID: "c1"}, {ID: "c2"}}}

	assert.True(t, p.IsRelevant(item, model.SearchResult{ID: "c2"}))
	assert.False(t, p.IsRelevant(item, model.SearchResult{ID: "c9"}))
}

func TestLoCoMoPack_Evaluate_TokenF1Scoring(t *testing.T) {
	p := NewLoCoMoPack()
	item := model.BenchmarkItem{ID: "i1", Question: "q", Answer: "the cat sat on the mat", Category: "single-hop"}

	result, err := p.Evaluate(context.Background(), item, nil, "the cat sat")
	require.NoError(t, err)
	assert.True(t, result.Correct)
	assert.Greater(t, result.Score, 0.0)
}

func TestLoCoMoPack_Evaluate_AdversarialAbstention(t *testing.T) {
	p := NewLoCoMoPack()
	item := model.BenchmarkItem{ID: "i1", Question: "q", Answer: "", Category: "adversarial"}

	correct, err := p.Evaluate(context.Background(), item, nil, "I don't know")
	require.NoError(t, err)
	assert.True(t, correct.Correct)
	assert.Equal(t, 1.0, correct.Score)

	wrong, err := p.Evaluate(context.Background(), item, nil, "It was Tuesday")
	require.NoError(t, err)
	assert.False(t, wrong.Correct)
}

func TestLoCoMoPack_Evaluate_FirstSemicolonSegment(t *testing.T) {
	p := NewLoCoMoPack()
	item := model.BenchmarkItem{ID: "i1", Question: "q", Answer: "apples; oranges; pears", Category: "3"}

	result, err := p.Evaluate(context.Background(), item, nil, "apples")
	require.NoError(t, err)
	assert.Equal(t, 1.0, result.Score)
	assert.True(t, result.Correct)
}

func TestLoCoMoPack_Evaluate_MultiAnswerBestMatch(t *testing.T) {
	p := NewLoCoMoPack()
	item := model.BenchmarkItem{ID: "i1", Question: "q", Answer: "the park; the library", Category: "multi-hop"}

	result, err := p.Evaluate(context.Background(), item, nil, "library")
	require.NoError(t, err)
	assert.Equal(t, 1.0, result.Score)
	assert.True(t, result.Correct)
}

func TestLoCoMoPack_Evaluate_AdversarialLiteralPhrase(t *testing.T) {
	p := NewLoCoMoPack()
	item := model.BenchmarkItem{ID: "i1", Question: "q", Answer: "the moon is made of cheese", Category: "adversarial"}

	matched, err := p.Evaluate(context.Background(), item, nil, "Yes, the moon is made of cheese.")
	require.NoError(t, err)
	assert.True(t, matched.Correct)

	unmatched, err := p.Evaluate(context.Background(), item, nil, "No, that's not true.")
	require.NoError(t, err)
	assert.False(t, unmatched.Correct)
}

func TestLoCoMoPack_BuildJudgePrompt_Empty(t *testing.T) {
	p := NewLoCoMoPack()
	assert.Equal(t, "", p.BuildJudgePrompt(model.BenchmarkItem{}, "anything"))
}

func TestNewCodeRetrievalPacks_FourVariants(t *testing.T) {
	packs := NewCodeRetrievalPacks()
	require.Len(t, packs, 4)
	names := make(map[string]bool)
	for _, p := range packs {
		names[p.BenchmarkName()] = true
	}
	assert.True(t, names["code-line-range"])
	assert.True(t, names["code-jaccard-snippet"])
	assert.True(t, names["code-cross-file"])
	assert.True(t, names["code-file-recall"])
}

func TestCodeRetrievalPack_LineRange_OverlapHit(t *testing.T) {
	p := newCodeRetrievalPack(codeRetrievalSpec{benchmark: "code-line-range", variant: VariantLineRange})
	item := model.BenchmarkItem{
		ID: "i1",
		Metadata: map[string]any{
			"groundTruth": map[string]any{"file": "src/auth.py", "startLine": 10, "endLine": 20},
		},
	}
	retrieved := []model.SearchResult{
		{ID: "c1", Metadata: map[string]any{"filepath": "src/auth.py", "startLine": 15, "endLine": 25}},
	}

	result, err := p.Evaluate(context.Background(), item, retrieved, "")
	require.NoError(t, err)
	assert.Equal(t, 1.0, result.Score)
	assert.True(t, result.Correct)
}

func TestCodeRetrievalPack_LineRange_NoOverlap(t *testing.T) {
	p := newCodeRetrievalPack(codeRetrievalSpec{benchmark: "code-line-range", variant: VariantLineRange})
	item := model.BenchmarkItem{
		ID: "i1",
		Metadata: map[string]any{
			"groundTruth": map[string]any{"file": "src/auth.py", "startLine": 10, "endLine": 20},
		},
	}
	retrieved := []model.SearchResult{
		{ID: "c1", Metadata: map[string]any{"filepath": "src/other.py", "startLine": 10, "endLine": 20}},
	}

	result, err := p.Evaluate(context.Background(), item, retrieved, "")
	require.NoError(t, err)
	assert.Equal(t, 0.0, result.Score)
	assert.False(t, result.Correct)
}

func TestCodeRetrievalPack_Jaccard_ThresholdMet(t *testing.T) {
	p := newCodeRetrievalPack(codeRetrievalSpec{benchmark: "code-jaccard-snippet", variant: VariantJaccard, threshold: defaultJaccardThreshold})
	snippet := "def calculate_sum(a, b):\n    return a + b"
	item := model.BenchmarkItem{
		ID:       "i1",
		Metadata: map[string]any{"goldSnippets": []string{snippet}},
	}
	retrieved := []model.SearchResult{{ID: "c1", Content: snippet}}

	result, err := p.Evaluate(context.Background(), item, retrieved, "")
	require.NoError(t, err)
	assert.Equal(t, 1.0, result.Score)
	assert.True(t, result.Correct)
}

func TestCodeRetrievalPack_CrossFile_PartialCoverage(t *testing.T) {
	p := newCodeRetrievalPack(codeRetrievalSpec{benchmark: "code-cross-file", variant: VariantCrossFile})
	item := model.BenchmarkItem{
		ID:       "i1",
		Metadata: map[string]any{"dependencyFiles": []string{"a.go", "b.go"}},
	}
	retrieved := []model.SearchResult{{ID: "c1", Metadata: map[string]any{"filepath": "pkg/a.go"}}}

	result, err := p.Evaluate(context.Background(), item, retrieved, "")
	require.NoError(t, err)
	assert.InDelta(t, 0.5, result.Score, 1e-9)
}

func TestCodeRetrievalPack_FileRecall_Dedup(t *testing.T) {
	p := newCodeRetrievalPack(codeRetrievalSpec{benchmark: "code-file-recall", variant: VariantFileRecall})
	item := model.BenchmarkItem{
		ID:       "i1",
		Metadata: map[string]any{"modifiedFiles": []string{"a.go"}},
	}
	retrieved := []model.SearchResult{
		{ID: "c1", Metadata: map[string]any{"filepath": "a.go"}},
		{ID: "c2", Metadata: map[string]any{"filepath": "a.go"}},
	}

	result, err := p.Evaluate(context.Background(), item, retrieved, "")
	require.NoError(t, err)
	assert.Equal(t, 1.0, result.Score)
}

func TestCodeRetrievalPack_IsRelevant(t *testing.T) {
	p := newCodeRetrievalPack(codeRetrievalSpec{benchmark: "code-file-recall", variant: VariantFileRecall})
	item := model.BenchmarkItem{Metadata: map[string]any{"modifiedFiles": []string{"a.go"}}}

	assert.True(t, p.IsRelevant(item, model.SearchResult{Metadata: map[string]any{"filepath": "pkg/a.go"}}))
	assert.False(t, p.IsRelevant(item, model.SearchResult{Metadata: map[string]any{"filepath": "b.go"}}))
}
