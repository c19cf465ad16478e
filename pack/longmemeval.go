package pack

import (
	"context"
	"fmt"
	"strings"

	"github.com/memorybench/harness/config"
	"github.com/memorybench/harness/llm"
	"github.com/memorybench/harness/model"
)

const longMemEvalAnswerTemplate = `You are answering a question using only the retrieved context below.

Context:
{{range .Contexts}}- {{.Content}}
{{end}}
Question: {{.Question}}

Answer concisely:`

const longMemEvalJudgeTemplate = `You are grading whether a candidate answer is correct given a gold answer.

Question: {{.Question}}
Gold answer: {{.Gold}}
Candidate answer: {{.Candidate}}

Respond with exactly one word: CORRECT or INCORRECT.`

// LongMemEvalPack implements the LLM-judge scoring scheme used by
// long-horizon conversational-memory benchmarks: the answering model sees
// only what the provider retrieved, then a separate judge model decides
// whether that answer is equivalent to the gold answer. It seals the
// answer and judge prompts and the scoring method itself, since changing
// any of the three silently redefines what "correct" means.
type LongMemEvalPack struct {
	JudgeModel string
}

// NewLongMemEvalPack returns a LongMemEvalPack that judges with judgeModel.
func NewLongMemEvalPack(judgeModel string) *LongMemEvalPack {
	return &LongMemEvalPack{JudgeModel: judgeModel}
}

func (p *LongMemEvalPack) BenchmarkName() string { return "longmemeval" }
func (p *LongMemEvalPack) PackID() string        { return "v1" }

func (p *LongMemEvalPack) SealedFacets() map[config.SealedFacet]bool {
	return map[config.SealedFacet]bool{
		config.FacetAnswerPrompt: true,
		config.FacetJudgePrompt:  true,
		config.FacetScoring:      true,
	}
}

func (p *LongMemEvalPack) BuildAnswerPrompt(item model.BenchmarkItem, retrieved []model.SearchResult) (string, string) {
	prompt := renderTemplate(longMemEvalAnswerTemplate, struct {
		Contexts []model.SearchResult
		Question string
	}{Contexts: retrieved, Question: item.Question})
	return prompt, hashPrompt(prompt)
}

func (p *LongMemEvalPack) BuildJudgePrompt(item model.BenchmarkItem, answer string) string {
	return renderTemplate(longMemEvalJudgeTemplate, struct {
		Question  string
		Gold      string
		Candidate string
	}{Question: item.Question, Gold: item.Answer, Candidate: answer})
}

func (p *LongMemEvalPack) Evaluate(ctx context.Context, item model.BenchmarkItem, retrieved []model.SearchResult, answer string) (model.EvalResult, error) {
	judgePrompt := p.BuildJudgePrompt(item, answer)
	resp, err := llm.GenerateText(ctx, llm.Request{Model: p.JudgeModel, Prompt: judgePrompt, Temperature: 0})
	if err != nil {
		return model.EvalResult{}, fmt.Errorf("longmemeval: judge call: %w", err)
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
			"judge_verdict":   verdict,
			"judge_input_tok": resp.InputTokens,
			"judge_output_tok": resp.OutputTokens,
		},
	}, nil
}

func (p *LongMemEvalPack) IsRelevant(item model.BenchmarkItem, result model.SearchResult) bool {
	for _, ctx := range item.Contexts {
		if ctx.ID == result.ID {
			return true
		}
	}
	return false
}

var _ Pack = (*LongMemEvalPack)(nil)
