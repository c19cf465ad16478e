package metrics

import (
	"github.com/memorybench/harness/config"
	"github.com/memorybench/harness/model"
	"github.com/memorybench/harness/relevance"
)

// defaultRelevanceThreshold is the token-F1 cutoff the tier-3 fallback uses
// for rank-sensitive metrics in general.
const defaultRelevanceThreshold = 0.3

// successRelevanceThreshold is the looser tier-3 cutoff success_at_K uses.
const successRelevanceThreshold = 0.1

// qrelsKeys lists the EvalResult.Metadata fields that carry an explicit
// relevance judgment set, tried in this order.
var qrelsKeys = []string{"relevantIds", "relevantChunkIds", "groundTruthIds", "qrels"}

// explicitQrels extracts the first non-empty qrels set found on r.Metadata,
// if any.
func explicitQrels(r model.EvalResult) (map[string]bool, bool) {
	for _, key := range qrelsKeys {
		if raw, ok := r.Metadata[key]; ok {
			if set := toStringSet(raw); len(set) > 0 {
				return set, true
			}
		}
	}
	return nil, false
}

func toStringSet(v any) map[string]bool {
	var ids []string
	switch vv := v.(type) {
	case []string:
		ids = vv
	case []any:
		for _, item := range vv {
			if s, ok := item.(string); ok {
				ids = append(ids, s)
			}
		}
	}
	if len(ids) == 0 {
		return nil
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

// reconstructItem rebuilds the minimal model.BenchmarkItem a pack needs for
// IsRelevant from the fields an EvalResult retains. Packs that seal
// relevance (currently only the code-retrieval family) read ground truth
// out of item.Metadata, which an EvalResult's Metadata already carries
// verbatim (the Runner merges item.Metadata into the result), so this
// reconstruction is lossless for every sealed-relevance pack shipped here.
func reconstructItem(r model.EvalResult) model.BenchmarkItem {
	return model.BenchmarkItem{
		ID:       r.ItemID,
		Question: r.Question,
		Answer:   r.Expected,
		Metadata: r.Metadata,
	}
}

// isRelevant applies a three-tier priority resolution for one (result row,
// retrieved candidate) pair: explicit qrels, then pack-owned relevance
// (only when the benchmark's pack seals that facet), then a token-F1
// fallback against threshold.
func isRelevant(r model.EvalResult, candidate model.SearchResult, opts Options, threshold float64) bool {
	if qrels, ok := explicitQrels(r); ok {
		return qrels[candidate.ID]
	}
	if opts.Packs != nil {
		if p, ok := opts.Packs.GetLatest(r.Benchmark); ok && p.SealedFacets()[config.FacetRelevance] {
			return p.IsRelevant(reconstructItem(r), candidate)
		}
	}
	_, _, f1 := relevance.TokenF1(r.Expected, candidate.Content)
	return f1 >= threshold
}

// relevantCount returns how many of candidates are relevant to r.
func relevantCount(r model.EvalResult, candidates []model.SearchResult, opts Options, threshold float64) int {
	n := 0
	for _, c := range candidates {
		if isRelevant(r, c, opts, threshold) {
			n++
		}
	}
	return n
}

func topK(results []model.SearchResult, k int) []model.SearchResult {
	if k <= 0 || k >= len(results) {
		return results
	}
	return results[:k]
}
