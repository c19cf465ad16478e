package pack

import (
	"context"
	"fmt"

	"github.com/memorybench/harness/config"
	"github.com/memorybench/harness/model"
	"github.com/memorybench/harness/relevance"
)

// CodeRetrievalVariant selects which deterministic scoring rule a
// CodeRetrievalPack applies. Each variant reads a different slice of ground
// truth out of the item's metadata, per the code-retrieval loader's
// convention (groundTruth, goldSnippets, dependencyFiles, modifiedFiles).
type CodeRetrievalVariant string

const (
	VariantLineRange  CodeRetrievalVariant = "line_range"
	VariantJaccard    CodeRetrievalVariant = "jaccard"
	VariantCrossFile  CodeRetrievalVariant = "cross_file"
	VariantFileRecall CodeRetrievalVariant = "file_recall"
)

const defaultJaccardThreshold = 0.7

// codeRetrievalSpec is one row of the config table code-retrieval packs are
// factory-built from.
type codeRetrievalSpec struct {
	benchmark string
	variant   CodeRetrievalVariant
	threshold float64
}

// codeRetrievalTable enumerates the four shipped code-retrieval pack
// variants. Additional benchmarks reuse these variants by adding a row
// rather than a new Pack implementation.
var codeRetrievalTable = []codeRetrievalSpec{
	{benchmark: "code-line-range", variant: VariantLineRange, threshold: 0},
	{benchmark: "code-jaccard-snippet", variant: VariantJaccard, threshold: defaultJaccardThreshold},
	{benchmark: "code-cross-file", variant: VariantCrossFile, threshold: 0},
	{benchmark: "code-file-recall", variant: VariantFileRecall, threshold: 0},
}

// NewCodeRetrievalPacks builds the four shipped code-retrieval packs from
// codeRetrievalTable.
func NewCodeRetrievalPacks() []*CodeRetrievalPack {
	packs := make([]*CodeRetrievalPack, 0, len(codeRetrievalTable))
	for _, spec := range codeRetrievalTable {
		packs = append(packs, newCodeRetrievalPack(spec))
	}
	return packs
}

// CodeRetrievalPack is a ground-truth-driven deterministic scorer for
// code-retrieval benchmarks: no LLM is involved in scoring, only the
// retrieved chunks' file paths, line spans, and content against metadata
// the loader attached to the item.
type CodeRetrievalPack struct {
	spec codeRetrievalSpec
}

func newCodeRetrievalPack(spec codeRetrievalSpec) *CodeRetrievalPack {
	return &CodeRetrievalPack{spec: spec}
}

func (p *CodeRetrievalPack) BenchmarkName() string { return p.spec.benchmark }
func (p *CodeRetrievalPack) PackID() string        { return "v1" }

func (p *CodeRetrievalPack) SealedFacets() map[config.SealedFacet]bool {
	return map[config.SealedFacet]bool{
		config.FacetScoring:   true,
		config.FacetRelevance: true,
	}
}

func (p *CodeRetrievalPack) BuildAnswerPrompt(item model.BenchmarkItem, retrieved []model.SearchResult) (string, string) {
	prompt := fmt.Sprintf("Find the code relevant to: %s", item.Question)
	return prompt, hashPrompt(prompt)
}

func (p *CodeRetrievalPack) BuildJudgePrompt(model.BenchmarkItem, string) string { return "" }

// Evaluate scores retrieved purely from ground-truth metadata; no LLM is
// consulted, so the incoming answer (always empty for these benchmarks,
// since they set no AnsweringModel) is ignored and reasoning doubles as
// the result's Actual — there is no separate generated-answer text to
// report.
func (p *CodeRetrievalPack) Evaluate(_ context.Context, item model.BenchmarkItem, retrieved []model.SearchResult, _ string) (model.EvalResult, error) {
	var score float64
	var reasoning string

	switch p.spec.variant {
	case VariantLineRange:
		score, reasoning = p.evaluateLineRange(item, retrieved)
	case VariantJaccard:
		score, reasoning = p.evaluateJaccard(item, retrieved)
	case VariantCrossFile:
		score, reasoning = p.evaluateCoverage(item, retrieved, dependencyFiles(item))
	case VariantFileRecall:
		score, reasoning = p.evaluateCoverage(item, retrieved, modifiedFiles(item))
	default:
		return model.EvalResult{}, fmt.Errorf("code retrieval pack: unknown variant %q", p.spec.variant)
	}

	return model.EvalResult{
		ItemID:           item.ID,
		Question:         item.Question,
		Expected:         item.Answer,
		Actual:           reasoning,
		Score:            score,
		Correct:          score > 0,
		RetrievedContext: retrieved,
		Metadata:         map[string]any{"reasoning": reasoning},
	}, nil
}

func (p *CodeRetrievalPack) evaluateLineRange(item model.BenchmarkItem, retrieved []model.SearchResult) (float64, string) {
	target, span, ok := groundTruthLocation(item)
	if !ok {
		return 0, "no ground-truth location on item"
	}
	hits := 0
	for _, r := range retrieved {
		file := metadataString(r.Metadata, "filepath")
		if !relevance.PathMatch(target, file) {
			continue
		}
		candSpan, spanOK := resultSpan(r)
		if !spanOK || candSpan.Overlap(span) == 0 {
			continue
		}
		if p.spec.threshold > 0 && candSpan.IoU(span) < p.spec.threshold {
			continue
		}
		hits++
	}
	if hits > 0 {
		return 1, fmt.Sprintf("Found %d relevant chunk(s) in top-%d", hits, len(retrieved))
	}
	return 0, "no retrieved chunk overlapped the target line span"
}

func (p *CodeRetrievalPack) evaluateJaccard(item model.BenchmarkItem, retrieved []model.SearchResult) (float64, string) {
	snippets := goldSnippets(item)
	if len(snippets) == 0 {
		return 0, "no gold snippets on item"
	}
	best := 0.0
	for _, r := range retrieved {
		for _, snippet := range snippets {
			if score := relevance.JaccardTokens(snippet, r.Content); score > best {
				best = score
			}
		}
	}
	threshold := p.spec.threshold
	if threshold <= 0 {
		threshold = defaultJaccardThreshold
	}
	if best >= threshold {
		return 1, fmt.Sprintf("best similarity %.2f met Jaccard threshold %.2f", best, threshold)
	}
	return 0, fmt.Sprintf("best similarity %.2f below Jaccard threshold %.2f", best, threshold)
}

func (p *CodeRetrievalPack) evaluateCoverage(item model.BenchmarkItem, retrieved []model.SearchResult, targets []string) (float64, string) {
	if len(targets) == 0 {
		return 0, "no target files on item"
	}
	covered := make(map[string]bool, len(targets))
	for _, r := range retrieved {
		file := metadataString(r.Metadata, "filepath")
		if file == "" {
			continue
		}
		for _, target := range targets {
			if relevance.PathMatch(target, file) {
				covered[target] = true
			}
		}
	}
	frac := float64(len(covered)) / float64(len(targets))
	return frac, fmt.Sprintf("%d/%d target files covered (%.1f%%) in top-%d", len(covered), len(targets), frac*100, len(retrieved))
}

func (p *CodeRetrievalPack) IsRelevant(item model.BenchmarkItem, result model.SearchResult) bool {
	switch p.spec.variant {
	case VariantLineRange:
		target, span, ok := groundTruthLocation(item)
		if !ok {
			return false
		}
		file := metadataString(result.Metadata, "filepath")
		if !relevance.PathMatch(target, file) {
			return false
		}
		candSpan, spanOK := resultSpan(result)
		return spanOK && candSpan.Overlap(span) > 0
	case VariantJaccard:
		for _, snippet := range goldSnippets(item) {
			if relevance.JaccardTokens(snippet, result.Content) >= defaultJaccardThreshold {
				return true
			}
		}
		return false
	case VariantCrossFile:
		return matchesAnyFile(result, dependencyFiles(item))
	case VariantFileRecall:
		return matchesAnyFile(result, modifiedFiles(item))
	default:
		return false
	}
}

func matchesAnyFile(result model.SearchResult, targets []string) bool {
	file := metadataString(result.Metadata, "filepath")
	if file == "" {
		return false
	}
	for _, target := range targets {
		if relevance.PathMatch(target, file) {
			return true
		}
	}
	return false
}

func groundTruthLocation(item model.BenchmarkItem) (file string, span relevance.LineSpan, ok bool) {
	gt, exists := item.Metadata["groundTruth"].(map[string]any)
	if !exists {
		return "", relevance.LineSpan{}, false
	}
	file = metadataString(gt, "file")
	start, startOK := gt["startLine"].(int)
	end, endOK := gt["endLine"].(int)
	if file == "" || !startOK || !endOK {
		return "", relevance.LineSpan{}, false
	}
	return file, relevance.LineSpan{Start: start, End: end}, true
}

func resultSpan(r model.SearchResult) (relevance.LineSpan, bool) {
	start, startOK := r.Metadata["startLine"].(int)
	end, endOK := r.Metadata["endLine"].(int)
	if !startOK || !endOK {
		return relevance.LineSpan{}, false
	}
	return relevance.LineSpan{Start: start, End: end}, true
}

func goldSnippets(item model.BenchmarkItem) []string {
	return stringSlice(item.Metadata["goldSnippets"])
}

func dependencyFiles(item model.BenchmarkItem) []string {
	return stringSlice(item.Metadata["dependencyFiles"])
}

func modifiedFiles(item model.BenchmarkItem) []string {
	return stringSlice(item.Metadata["modifiedFiles"])
}

func stringSlice(v any) []string {
	raw, ok := v.([]string)
	if ok {
		return raw
	}
	anySlice, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(anySlice))
	for _, item := range anySlice {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func metadataString(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return s
}

var _ Pack = (*CodeRetrievalPack)(nil)
