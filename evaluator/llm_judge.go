package evaluator

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/memorybench/harness/config"
	"github.com/memorybench/harness/llm"
	"github.com/memorybench/harness/model"
)

const defaultJudgePromptTemplate = `Question: {{.Question}}
Gold answer: {{.Gold}}
Candidate answer: {{.Candidate}}

Respond with exactly one word: CORRECT or INCORRECT.`

// LLMJudgeEvaluator renders directives.JudgePromptTemplate (or a default)
// and asks directives.JudgeModel whether the candidate answer matches the
// gold answer, the unsealed counterpart to LongMemEvalPack's judge step —
// used for benchmarks that want LLM judging without a pack fixing the
// exact prompt wording.
type LLMJudgeEvaluator struct{}

func NewLLMJudgeEvaluator() *LLMJudgeEvaluator { return &LLMJudgeEvaluator{} }

func (e *LLMJudgeEvaluator) Name() string { return "llm_judge" }

func (e *LLMJudgeEvaluator) Evaluate(ctx context.Context, item model.BenchmarkItem, retrieved []model.SearchResult, answer string, directives config.EvaluationDirectives) (model.EvalResult, error) {
	tmpl := directives.JudgePromptTemplate
	if tmpl == "" {
		tmpl = defaultJudgePromptTemplate
	}
	prompt := renderJudgeTemplate(tmpl, item, answer)

	resp, err := llm.GenerateText(ctx, llm.Request{Model: directives.JudgeModel, Prompt: prompt, Temperature: 0})
	if err != nil {
		return model.EvalResult{}, fmt.Errorf("llm_judge: judge call: %w", err)
	}

	verdict := strings.ToUpper(strings.TrimSpace(resp.Text))
	correct := strings.Contains(verdict, "CORRECT") && !strings.Contains(verdict, "INCORRECT")
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
		Metadata: map[string]any{
			"judge_verdict":    verdict,
			"judge_input_tok":  resp.InputTokens,
			"judge_output_tok": resp.OutputTokens,
		},
	}, nil
}

func renderJudgeTemplate(tmpl string, item model.BenchmarkItem, answer string) string {
	t, err := template.New("judge").Parse(tmpl)
	if err != nil {
		return tmpl
	}
	var buf bytes.Buffer
	data := struct {
		Question  string
		Gold      string
		Candidate string
	}{Question: item.Question, Gold: item.Answer, Candidate: answer}
	if err := t.Execute(&buf, data); err != nil {
		return tmpl
	}
	return buf.String()
}

var _ Evaluator = (*LLMJudgeEvaluator)(nil)
