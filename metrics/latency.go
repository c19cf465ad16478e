package metrics

import (
	"sort"

	"github.com/memorybench/harness/model"
)

func latencyCalculators() []Calculator {
	return []Calculator{
		simpleMetric{
			name:        "avg_search_latency_ms",
			description: "Mean per-item search-call latency in milliseconds.",
			fn:          latencyMean("avg_search_latency_ms", func(t model.Telemetry) float64 { return t.SearchLatencyMs }),
		},
		simpleMetric{
			name:        "avg_total_latency_ms",
			description: "Mean per-item total (search+evaluate) latency in milliseconds.",
			fn:          latencyMean("avg_total_latency_ms", func(t model.Telemetry) float64 { return t.TotalLatencyMs }),
		},
		simpleMetric{
			name:        "p95_latency_ms",
			description: "95th percentile of per-item total latency in milliseconds.",
			fn:          computeP95Latency,
		},
	}
}

// telemetryOf extracts the model.Telemetry an EvalResult carries under its
// "telemetry" metadata key, tolerating both the in-process representation
// (a model.Telemetry value, set directly by the Runner) and the
// round-tripped representation (a map[string]any, after a JSON
// store/export cycle).
func telemetryOf(r model.EvalResult) (model.Telemetry, bool) {
	raw, ok := r.Metadata["telemetry"]
	if !ok {
		return model.Telemetry{}, false
	}
	switch v := raw.(type) {
	case model.Telemetry:
		return v, true
	case *model.Telemetry:
		if v == nil {
			return model.Telemetry{}, false
		}
		return *v, true
	case map[string]any:
		return model.Telemetry{
			SearchLatencyMs: floatField(v, "search_latency_ms"),
			TotalLatencyMs:  floatField(v, "total_latency_ms"),
		}, true
	default:
		return model.Telemetry{}, false
	}
}

func floatField(m map[string]any, key string) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return 0
	}
}

func latencyMean(name string, field func(model.Telemetry) float64) func([]model.EvalResult, Options) (model.MetricResult, error) {
	return func(results []model.EvalResult, _ Options) (model.MetricResult, error) {
		var sum float64
		var n int
		for _, r := range results {
			t, ok := telemetryOf(r)
			if !ok {
				continue
			}
			sum += field(t)
			n++
		}
		if n == 0 {
			return model.MetricResult{Name: name, Value: 0}, nil
		}
		return model.MetricResult{Name: name, Value: sum / float64(n)}, nil
	}
}

func computeP95Latency(results []model.EvalResult, _ Options) (model.MetricResult, error) {
	var samples []float64
	for _, r := range results {
		if t, ok := telemetryOf(r); ok {
			samples = append(samples, t.TotalLatencyMs)
		}
	}
	if len(samples) == 0 {
		return model.MetricResult{Name: "p95_latency_ms", Value: 0}, nil
	}
	sort.Float64s(samples)
	return model.MetricResult{Name: "p95_latency_ms", Value: percentile(samples, 0.95)}, nil
}
