package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

// Tracer wraps an OpenTelemetry tracer so the Runner can wrap each phase of
// its state machine in a span without importing the otel/trace API
// directly in every package.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer wraps t. A nil t produces a Tracer whose StartSpan is a no-op
// (useful in tests and when telemetry is not wired up).
func NewTracer(t trace.Tracer) *Tracer {
	return &Tracer{tracer: t}
}

// StartSpan starts a span named name if a tracer is configured, returning a
// context carrying the span and an end function safe to defer unconditionally.
func (t *Tracer) StartSpan(ctx context.Context, name string) (context.Context, func()) {
	if t == nil || t.tracer == nil {
		return ctx, func() {}
	}
	ctx, span := t.tracer.Start(ctx, name)
	return ctx, func() { span.End() }
}
