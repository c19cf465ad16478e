package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Phase identifies which stage of the Runner's state machine an instrument
// reading belongs to.
type Phase string

const (
	PhaseIngest   Phase = "ingest"
	PhaseSearch   Phase = "search"
	PhaseEvaluate Phase = "evaluate"
)

// Meter holds the OpenTelemetry instruments used to record per-item and
// per-pair timing, mirroring memory.Metrics' histogram-plus-counter shape.
type Meter struct {
	meter            metric.Meter
	phaseDuration    metric.Float64Histogram
	operationCounter metric.Int64Counter
	errorCounter     metric.Int64Counter
}

// NewMeter creates a Meter. meter may be nil (e.g. in tests), in which case
// every recording method becomes a no-op.
func NewMeter(meter metric.Meter) *Meter {
	if meter == nil {
		return &Meter{}
	}
	phaseDuration, _ := meter.Float64Histogram(
		"membench_phase_duration_seconds",
		metric.WithDescription("Duration of an ingest/search/evaluate operation"),
		metric.WithUnit("s"),
	)
	operationCounter, _ := meter.Int64Counter(
		"membench_operations_total",
		metric.WithDescription("Total number of ingest/search/evaluate operations"),
	)
	errorCounter, _ := meter.Int64Counter(
		"membench_errors_total",
		metric.WithDescription("Total number of failed operations"),
	)
	return &Meter{
		meter:            meter,
		phaseDuration:    phaseDuration,
		operationCounter: operationCounter,
		errorCounter:     errorCounter,
	}
}

// RecordPhase records one phase execution's duration and success/failure.
func (m *Meter) RecordPhase(ctx context.Context, benchmark, provider string, phase Phase, d time.Duration, err error) {
	if m == nil || m.phaseDuration == nil {
		return
	}
	attrs := attribute.NewSet(
		attribute.String("benchmark", benchmark),
		attribute.String("provider", provider),
		attribute.String("phase", string(phase)),
	)
	m.phaseDuration.Record(ctx, d.Seconds(), metric.WithAttributeSet(attrs))
	m.operationCounter.Add(ctx, 1, metric.WithAttributeSet(attrs))
	if err != nil {
		m.errorCounter.Add(ctx, 1, metric.WithAttributeSet(attrs))
	}
}
