package config

import "fmt"

// SealedFacet names one facet of benchmark behavior a Pack may claim
// exclusive ownership of, forbidding a BenchmarkConfig from overriding it.
type SealedFacet string

const (
	FacetAnswerPrompt SealedFacet = "answer_prompt"
	FacetJudgePrompt  SealedFacet = "judge_prompt"
	FacetScoring      SealedFacet = "scoring"
	FacetRelevance    SealedFacet = "relevance"
)

// SealedPack is the minimal surface config needs from a benchmark pack to
// validate sealed semantics, kept here (rather than importing the pack
// package) to avoid a cycle: pack.Pack implementations satisfy this
// interface structurally.
type SealedPack interface {
	PackID() string
	SealedFacets() map[SealedFacet]bool
}

// ValidateSealedSemantics reports every config field that tries to override
// a facet the pack has sealed, collecting all violations in one pass rather
// than failing on the first (spec §4.5, §7).
func ValidateSealedSemantics(cfg *BenchmarkConfig, p SealedPack) ViolationList {
	if cfg == nil || p == nil {
		return nil
	}
	sealed := p.SealedFacets()
	var violations ViolationList

	if sealed[FacetAnswerPrompt] && cfg.Evaluation.AnswerPromptTemplate != "" {
		violations = append(violations, fmt.Sprintf(
			"pack %q seals the answer prompt; benchmark config may not set evaluation.answer_prompt_template", p.PackID()))
	}
	if sealed[FacetJudgePrompt] && cfg.Evaluation.JudgePromptTemplate != "" {
		violations = append(violations, fmt.Sprintf(
			"pack %q seals the judge prompt; benchmark config may not set evaluation.judge_prompt_template", p.PackID()))
	}
	if sealed[FacetScoring] {
		if cfg.Evaluation.Method != "" {
			violations = append(violations, fmt.Sprintf(
				"pack %q seals scoring; benchmark config may not set evaluation.method", p.PackID()))
		}
		if cfg.Evaluation.CustomEvaluator != "" {
			violations = append(violations, fmt.Sprintf(
				"pack %q seals scoring; benchmark config may not set evaluation.custom_evaluator", p.PackID()))
		}
	}
	if sealed[FacetRelevance] && cfg.Search.SimilarityThreshold != 0 {
		violations = append(violations, fmt.Sprintf(
			"pack %q seals relevance resolution; benchmark config may not set search.similarity_threshold", p.PackID()))
	}
	return violations
}
