package evaluator

import (
	"context"
	"testing"

	"github.com/memorybench/harness/config"
	"github.com/memorybench/harness/llm"
	"github.com/memorybench/harness/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeJudgeBackend struct {
	name string
	text string
}

func (f *fakeJudgeBackend) Name() string { return f.name }
func (f *fakeJudgeBackend) GenerateText(_ context.Context, req llm.Request) (llm.Response, error) {
	return llm.Response{Text: f.text, InputTokens: 3, OutputTokens: 1}, nil
}

func TestRegister_AndResolve(t *testing.T) {
	e := NewExactMatchEvaluator()
	require.NoError(t, Register(e, false))

	got, err := Resolve(config.EvaluationDirectives{Method: "exact_match"})
	require.NoError(t, err)
	assert.Equal(t, "exact_match", got.Name())
}

func TestResolve_FallsBackToCustomEvaluator(t *testing.T) {
	e := NewLoCoMoQAEvaluator()
	require.NoError(t, Register(e, false))

	got, err := Resolve(config.EvaluationDirectives{CustomEvaluator: "locomo_qa"})
	require.NoError(t, err)
	assert.Equal(t, "locomo_qa", got.Name())
}

func TestResolve_UnknownMethodErrors(t *testing.T) {
	_, err := Resolve(config.EvaluationDirectives{Method: "does_not_exist"})
	assert.Error(t, err)
}

func TestExactMatchEvaluator_CaseAndWhitespaceInsensitive(t *testing.T) {
	e := NewExactMatchEvaluator()
	item := model.BenchmarkItem{ID: "i1", Question: "q", Answer: "Paris"}

	result, err := e.Evaluate(context.Background(), item, nil, "  paris  ", config.EvaluationDirectives{})
	require.NoError(t, err)
	assert.True(t, result.Correct)
	assert.Equal(t, 1.0, result.Score)
}

func TestExactMatchEvaluator_Mismatch(t *testing.T) {
	e := NewExactMatchEvaluator()
	item := model.BenchmarkItem{ID: "i1", Question: "q", Answer: "Paris"}

	result, err := e.Evaluate(context.Background(), item, nil, "London", config.EvaluationDirectives{})
	require.NoError(t, err)
	assert.False(t, result.Correct)
}

func TestLLMJudgeEvaluator_DefaultTemplate(t *testing.T) {
	backend := &fakeJudgeBackend{name: "judgebackend", text: "CORRECT"}
	require.NoError(t, llm.RegisterBackend(backend, false))

	e := NewLLMJudgeEvaluator()
	item := model.BenchmarkItem{ID: "i1", Question: "q", Answer: "gold"}

	result, err := e.Evaluate(context.Background(), item, nil, "candidate", config.EvaluationDirectives{JudgeModel: "judgebackend/m"})
	require.NoError(t, err)
	assert.True(t, result.Correct)
}

func TestLLMJudgeEvaluator_CustomTemplate(t *testing.T) {
	backend := &fakeJudgeBackend{name: "judgebackend2", text: "INCORRECT"}
	require.NoError(t, llm.RegisterBackend(backend, false))

	e := NewLLMJudgeEvaluator()
	item := model.BenchmarkItem{ID: "i1", Question: "what?", Answer: "gold"}
	directives := config.EvaluationDirectives{
		JudgeModel:          "judgebackend2/m",
		JudgePromptTemplate: "Q: {{.Question}} G: {{.Gold}} C: {{.Candidate}}",
	}

	result, err := e.Evaluate(context.Background(), item, nil, "candidate", directives)
	require.NoError(t, err)
	assert.False(t, result.Correct)
}

func TestLoCoMoQAEvaluator_ScoresTokenF1(t *testing.T) {
	e := NewLoCoMoQAEvaluator()
	item := model.BenchmarkItem{ID: "i1", Question: "q", Answer: "the cat sat on the mat"}

	result, err := e.Evaluate(context.Background(), item, nil, "the cat sat", config.EvaluationDirectives{})
	require.NoError(t, err)
	assert.Greater(t, result.Score, 0.0)
}
