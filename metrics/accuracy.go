package metrics

import (
	"sort"

	"github.com/memorybench/harness/model"
)

func accuracyCalculators() []Calculator {
	return []Calculator{
		simpleMetric{
			name:        "accuracy",
			description: "Fraction of results marked correct.",
			fn:          computeAccuracy,
		},
		simpleMetric{
			name:        "accuracy_by_question_type",
			description: "Macro-mean accuracy grouped by metadata.questionType.",
			fn:          groupedAccuracy("questionType"),
		},
		simpleMetric{
			name:        "accuracy_by_category",
			description: "Macro-mean accuracy grouped by metadata.category.",
			fn:          groupedAccuracy("category"),
		},
		simpleMetric{
			name:        "abstention_accuracy",
			description: "Accuracy restricted to items flagged metadata.isAbstention.",
			fn:          computeAbstentionAccuracy,
		},
	}
}

func computeAccuracy(results []model.EvalResult, _ Options) (model.MetricResult, error) {
	if len(results) == 0 {
		return model.MetricResult{Name: "accuracy", Value: 0}, nil
	}
	correct := 0
	for _, r := range results {
		if r.Correct {
			correct++
		}
	}
	return model.MetricResult{
		Name:  "accuracy",
		Value: float64(correct) / float64(len(results)),
		Details: map[string]any{
			"correct": correct,
			"total":   len(results),
		},
	}, nil
}

// groupedAccuracy returns a Compute function computing the macro mean of
// per-group accuracy, where the group key is read from
// result.Metadata[metadataKey]. Macro mean weights every group equally
// regardless of its size.
func groupedAccuracy(metadataKey string) func([]model.EvalResult, Options) (model.MetricResult, error) {
	name := "accuracy_by_" + snakeCase(metadataKey)
	return func(results []model.EvalResult, _ Options) (model.MetricResult, error) {
		type bucket struct {
			correct, total int
		}
		groups := make(map[string]*bucket)
		for _, r := range results {
			key := metadataString(r.Metadata, metadataKey)
			if key == "" {
				key = "(unknown)"
			}
			b, ok := groups[key]
			if !ok {
				b = &bucket{}
				groups[key] = b
			}
			b.total++
			if r.Correct {
				b.correct++
			}
		}

		names := make([]string, 0, len(groups))
		for k := range groups {
			names = append(names, k)
		}
		sort.Strings(names)

		details := make(map[string]any, len(names))
		var sum float64
		for _, k := range names {
			b := groups[k]
			rate := float64(b.correct) / float64(b.total)
			details[k] = map[string]any{"correct": b.correct, "total": b.total, "accuracy": rate}
			sum += rate
		}

		value := 0.0
		if len(names) > 0 {
			value = sum / float64(len(names))
		}
		return model.MetricResult{Name: name, Value: value, Details: details}, nil
	}
}

func computeAbstentionAccuracy(results []model.EvalResult, _ Options) (model.MetricResult, error) {
	correct, total := 0, 0
	for _, r := range results {
		if !metadataBool(r.Metadata, "isAbstention") {
			continue
		}
		total++
		if r.Correct {
			correct++
		}
	}
	value := 0.0
	if total > 0 {
		value = float64(correct) / float64(total)
	}
	return model.MetricResult{
		Name:  "abstention_accuracy",
		Value: value,
		Details: map[string]any{
			"correct": correct,
			"total":   total,
		},
	}, nil
}

func metadataString(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

func metadataBool(m map[string]any, key string) bool {
	if m == nil {
		return false
	}
	b, _ := m[key].(bool)
	return b
}

func snakeCase(s string) string {
	switch s {
	case "questionType":
		return "question_type"
	default:
		return s
	}
}
