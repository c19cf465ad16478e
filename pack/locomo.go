package pack

import (
	"context"
	"regexp"
	"strings"

	porterstemmer "github.com/blevesearch/go-porterstemmer"

	"github.com/memorybench/harness/config"
	"github.com/memorybench/harness/model"
)

const locomoAnswerTemplate = `Answer the question using only the conversation excerpts below. If the excerpts do not contain the answer, say "I don't know".

{{range .Contexts}}{{.Content}}
{{end}}
Question: {{.Question}}`

// locomo's category taxonomy follows the paper's five question classes.
// Categories arrive either as the paper's numeric index or as a readable
// alias; categoryClass normalizes both to the scoring rule that applies.
const (
	classSingleAnswer = "single_answer" // plain token-F1 against the gold answer
	classMultiAnswer  = "multi_answer"  // gold is several valid answers; score the best match
	classFirstSegment = "first_segment" // gold's first ";"-delimited segment is the target
	classAdversarial  = "adversarial"   // no true answer exists; score abstention/rejection
)

var categoryClass = map[string]string{
	"1": classSingleAnswer, "single-hop": classSingleAnswer,
	"2": classMultiAnswer, "multi-hop": classMultiAnswer,
	"3": classFirstSegment, "temporal": classFirstSegment, "temporal-reasoning": classFirstSegment,
	"4": classSingleAnswer, "open-domain": classSingleAnswer, "knowledge-update": classSingleAnswer,
	"5": classAdversarial, "adversarial": classAdversarial,
}

func resolveClass(category string) string {
	if class, ok := categoryClass[strings.ToLower(strings.TrimSpace(category))]; ok {
		return class
	}
	return classSingleAnswer
}

const f1CorrectThreshold = 0.5

// LoCoMoPack implements the token-F1 scoring scheme used by long-dialogue
// QA benchmarks, with a category-specific rule per the paper's five-way
// question taxonomy. It seals scoring (the normalization, category rules,
// and F1 threshold) but leaves the answer prompt open to config override,
// since unlike an LLM-judge pack there is no judge prompt whose wording
// could skew results.
type LoCoMoPack struct{}

// NewLoCoMoPack returns a LoCoMoPack.
func NewLoCoMoPack() *LoCoMoPack { return &LoCoMoPack{} }

func (p *LoCoMoPack) BenchmarkName() string { return "locomo" }
func (p *LoCoMoPack) PackID() string        { return "v1" }

func (p *LoCoMoPack) SealedFacets() map[config.SealedFacet]bool {
	return map[config.SealedFacet]bool{
		config.FacetScoring: true,
	}
}

func (p *LoCoMoPack) BuildAnswerPrompt(item model.BenchmarkItem, retrieved []model.SearchResult) (string, string) {
	prompt := renderTemplate(locomoAnswerTemplate, struct {
		Contexts []model.SearchResult
		Question string
	}{Contexts: retrieved, Question: item.Question})
	return prompt, hashPrompt(prompt)
}

func (p *LoCoMoPack) BuildJudgePrompt(model.BenchmarkItem, string) string { return "" }

func (p *LoCoMoPack) Evaluate(_ context.Context, item model.BenchmarkItem, retrieved []model.SearchResult, answer string) (model.EvalResult, error) {
	result := model.EvalResult{
		ItemID:           item.ID,
		Question:         item.Question,
		Expected:         item.Answer,
		Actual:           answer,
		RetrievedContext: retrieved,
	}

	class := resolveClass(item.Category)

	if class == classAdversarial {
		p.scoreAdversarial(&result, item.Answer, answer)
		return result, nil
	}

	expected := item.Answer
	var bestOf []string
	switch class {
	case classFirstSegment:
		expected = firstSemicolonSegment(item.Answer)
	case classMultiAnswer:
		bestOf = semicolonSegments(item.Answer)
	}

	var precision, recall, f1 float64
	if len(bestOf) > 1 {
		for _, candidate := range bestOf {
			cp, cr, cf1 := normalizedTokenF1(candidate, answer)
			if cf1 > f1 {
				precision, recall, f1 = cp, cr, cf1
			}
		}
	} else {
		precision, recall, f1 = normalizedTokenF1(expected, answer)
	}

	result.Score = f1
	result.Correct = f1 >= f1CorrectThreshold
	result.Metadata = map[string]any{
		"precision":      precision,
		"recall":         recall,
		"f1":             f1,
		"category_class": class,
	}
	return result, nil
}

// scoreAdversarial handles the paper's abstention-or-reject category:
// items where no true answer exists in the conversation. When the gold
// answer is itself a literal phrase (the adversarial item asserts a
// specific false premise), correctness is exact substring containment;
// otherwise correctness is whether the model abstained.
func (p *LoCoMoPack) scoreAdversarial(result *model.EvalResult, expected, answer string) {
	if strings.TrimSpace(expected) != "" {
		matched := strings.Contains(strings.ToLower(answer), strings.ToLower(strings.TrimSpace(expected)))
		result.Correct = matched
		if matched {
			result.Score = 1.0
		}
		result.Metadata = map[string]any{"literal_phrase_match": matched, "category_class": classAdversarial}
		return
	}
	abstained := isAbstention(answer)
	result.Correct = abstained
	if abstained {
		result.Score = 1.0
	}
	result.Metadata = map[string]any{"abstained": abstained, "category_class": classAdversarial}
}

func isAbstention(answer string) bool {
	lower := strings.ToLower(answer)
	for _, phrase := range []string{"i don't know", "no information", "cannot find", "not mentioned"} {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

func firstSemicolonSegment(s string) string {
	segs := semicolonSegments(s)
	if len(segs) == 0 {
		return s
	}
	return segs[0]
}

func semicolonSegments(s string) []string {
	parts := strings.Split(s, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

var (
	articlePattern = regexp.MustCompile(`(?i)\b(a|an|the)\b`)
	punctPattern   = regexp.MustCompile(`[^\w\s]`)
)

// normalizeAnswer applies the token-F1 QA pack's answer normalization:
// lowercasing, article removal, and punctuation/comma stripping, ahead of
// tokenization and stemming. This is a heavier normalization than the
// metrics engine's own tokenize() (see metrics/text.go) deliberately —
// it is this pack's own scoring rule, not a general-purpose metric.
func normalizeAnswer(s string) string {
	s = strings.ToLower(s)
	s = punctPattern.ReplaceAllString(s, " ")
	s = articlePattern.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}

// stemmedTokens normalizes s and Porter-stems each resulting word via
// blevesearch/go-porterstemmer, the same stemmer bleve's own English
// analyzer uses, so that "stemmed"/"stemming"/"stems" collapse to one
// token for F1 purposes.
func stemmedTokens(s string) []string {
	words := strings.Fields(normalizeAnswer(s))
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = porterstemmer.StemString(w)
	}
	return out
}

// normalizedTokenF1 is relevance.TokenF1 over stemmed, article-stripped
// tokens rather than raw lowercased words.
func normalizedTokenF1(expected, actual string) (precision, recall, f1 float64) {
	expTokens := stemmedTokens(expected)
	actTokens := stemmedTokens(actual)
	if len(expTokens) == 0 || len(actTokens) == 0 {
		return 0, 0, 0
	}

	expCounts := make(map[string]int, len(expTokens))
	for _, t := range expTokens {
		expCounts[t]++
	}
	actCounts := make(map[string]int, len(actTokens))
	for _, t := range actTokens {
		actCounts[t]++
	}

	overlap := 0
	for tok, n := range actCounts {
		if expN := expCounts[tok]; expN > 0 {
			if n < expN {
				overlap += n
			} else {
				overlap += expN
			}
		}
	}

	precision = float64(overlap) / float64(len(actTokens))
	recall = float64(overlap) / float64(len(expTokens))
	if precision+recall == 0 {
		return precision, recall, 0
	}
	f1 = 2 * precision * recall / (precision + recall)
	return precision, recall, f1
}

func (p *LoCoMoPack) IsRelevant(item model.BenchmarkItem, result model.SearchResult) bool {
	for _, ctx := range item.Contexts {
		if ctx.ID == result.ID {
			return true
		}
	}
	return false
}

var _ Pack = (*LoCoMoPack)(nil)
