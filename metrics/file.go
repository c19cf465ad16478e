package metrics

import (
	"fmt"
	"sort"

	"github.com/memorybench/harness/model"
	"github.com/memorybench/harness/relevance"
)

func fileCalculators() []Calculator {
	out := []Calculator{
		simpleMetric{
			name:        "file_mrr",
			description: "Mean reciprocal rank of the first retrieved result matching a target file, ranked over unique files.",
			fn:          computeFileMRR,
		},
	}
	for _, k := range irKs {
		out = append(out, fileRecallAtK(k), iouAtK(k))
	}
	return out
}

// targetFiles reads the ground-truth file list an EvalResult's metadata
// carries for file-level metrics: modifiedFiles (or the loader's
// groundTruthFiles alias).
func targetFiles(r model.EvalResult) []string {
	if files := stringSlice(r.Metadata["modifiedFiles"]); len(files) > 0 {
		return files
	}
	return stringSlice(r.Metadata["groundTruthFiles"])
}

func stringSlice(v any) []string {
	switch vv := v.(type) {
	case []string:
		return vv
	case []any:
		out := make([]string, 0, len(vv))
		for _, item := range vv {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func resultFilePath(c model.SearchResult) string {
	if c.Metadata == nil {
		return ""
	}
	s, _ := c.Metadata["filepath"].(string)
	return s
}

func fileRecallAtK(k int) Calculator {
	name := fmt.Sprintf("file_recall_at_%d", k)
	return simpleMetric{
		name:        name,
		description: fmt.Sprintf("Mean fraction of modified/ground-truth files covered by top-%d retrieved files.", k),
		fn: func(results []model.EvalResult, _ Options) (model.MetricResult, error) {
			applicable := 0
			var sum float64
			for _, r := range results {
				targets := targetFiles(r)
				if len(targets) == 0 {
					continue
				}
				applicable++
				top := topK(r.RetrievedContext, k)
				covered := make(map[string]bool, len(targets))
				for _, c := range top {
					file := resultFilePath(c)
					if file == "" {
						continue
					}
					for _, target := range targets {
						if relevance.PathMatch(target, file) {
							covered[target] = true
						}
					}
				}
				sum += float64(len(covered)) / float64(len(targets))
			}
			if applicable == 0 {
				return model.MetricResult{Name: name, Value: 0}, nil
			}
			return model.MetricResult{
				Name:    name,
				Value:   sum / float64(applicable),
				Details: map[string]any{"applicable_items": applicable},
			}, nil
		},
	}
}

func computeFileMRR(results []model.EvalResult, _ Options) (model.MetricResult, error) {
	applicable := 0
	var sum float64
	for _, r := range results {
		targets := targetFiles(r)
		if len(targets) == 0 {
			continue
		}
		applicable++

		seen := make(map[string]bool)
		rank := 0
		found := 0.0
		for _, c := range r.RetrievedContext {
			file := resultFilePath(c)
			if file == "" || seen[file] {
				continue
			}
			seen[file] = true
			rank++
			if matchesAnyTarget(file, targets) {
				found = 1.0 / float64(rank)
				break
			}
		}
		sum += found
	}
	if applicable == 0 {
		return model.MetricResult{Name: "file_mrr", Value: 0}, nil
	}
	return model.MetricResult{
		Name:    "file_mrr",
		Value:   sum / float64(applicable),
		Details: map[string]any{"applicable_items": applicable},
	}, nil
}

func matchesAnyTarget(file string, targets []string) bool {
	for _, target := range targets {
		if relevance.PathMatch(target, file) {
			return true
		}
	}
	return false
}

// groundTruthSpan reads the line-range ground truth a code-retrieval
// loader attaches to an item's metadata: {file, startLine, endLine}.
func groundTruthSpan(r model.EvalResult) (file string, span relevance.LineSpan, ok bool) {
	gt, isMap := r.Metadata["groundTruth"].(map[string]any)
	if !isMap {
		return "", relevance.LineSpan{}, false
	}
	file, _ = gt["file"].(string)
	start, startOK := gt["startLine"].(int)
	end, endOK := gt["endLine"].(int)
	if file == "" || !startOK || !endOK {
		return "", relevance.LineSpan{}, false
	}
	return file, relevance.LineSpan{Start: start, End: end}, true
}

func resultSpan(c model.SearchResult) (relevance.LineSpan, bool) {
	if c.Metadata == nil {
		return relevance.LineSpan{}, false
	}
	start, startOK := c.Metadata["startLine"].(int)
	end, endOK := c.Metadata["endLine"].(int)
	if !startOK || !endOK {
		return relevance.LineSpan{}, false
	}
	return relevance.LineSpan{Start: start, End: end}, true
}

func iouAtK(k int) Calculator {
	name := fmt.Sprintf("iou_at_%d", k)
	return simpleMetric{
		name:        name,
		description: fmt.Sprintf("Mean of the best line-span IoU among top-%d chunks restricted to the target file.", k),
		fn: func(results []model.EvalResult, _ Options) (model.MetricResult, error) {
			var values []float64
			for _, r := range results {
				values = append(values, bestIoU(r, k))
			}
			if len(values) == 0 {
				return model.MetricResult{Name: name, Value: 0}, nil
			}
			var sum float64
			for _, v := range values {
				sum += v
			}
			return model.MetricResult{
				Name:    name,
				Value:   sum / float64(len(values)),
				Details: percentileDetails(values),
			}, nil
		},
	}
}

// bestIoU returns 0 when the item has no line-range ground truth or the
// target file is absent from top-K.
func bestIoU(r model.EvalResult, k int) float64 {
	file, span, ok := groundTruthSpan(r)
	if !ok {
		return 0
	}
	best := 0.0
	for _, c := range topK(r.RetrievedContext, k) {
		candFile := resultFilePath(c)
		if !relevance.PathMatch(file, candFile) {
			continue
		}
		candSpan, spanOK := resultSpan(c)
		if !spanOK {
			continue
		}
		if iou := span.IoU(candSpan); iou > best {
			best = iou
		}
	}
	return best
}

func percentileDetails(values []float64) map[string]any {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return map[string]any{
		"p25": percentile(sorted, 0.25),
		"p50": percentile(sorted, 0.50),
		"p75": percentile(sorted, 0.75),
	}
}

// percentile assumes sorted is already ascending and non-empty.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	idx := p * float64(len(sorted)-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
