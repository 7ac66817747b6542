package monitor

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "sentinel-sandbox"

// Tracer wraps OpenTelemetry tracing for analyses.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer creates a new Tracer using the global TracerProvider.
func NewTracer() *Tracer {
	return &Tracer{
		tracer: otel.Tracer(tracerName),
	}
}

// StartSpan creates a new span and returns the updated context.
func (t *Tracer) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	ctx, span := t.tracer.Start(ctx, fmt.Sprintf("sentinel.%s", name),
		trace.WithAttributes(attrs...),
	)
	return ctx, span
}

// SpanFromContext returns the current span from the context.
func SpanFromContext(ctx context.Context) trace.Span {
	return trace.SpanFromContext(ctx)
}

// Common attribute keys for analysis tracing.
var (
	AttrAnalysisID = attribute.Key("sentinel.analysis.id")
	AttrVMID       = attribute.Key("sentinel.vm.id")
	AttrTarget     = attribute.Key("sentinel.target")
	AttrStatus     = attribute.Key("sentinel.status")
	AttrScore      = attribute.Key("sentinel.threat.score")
	AttrLevel      = attribute.Key("sentinel.threat.level")
	AttrBooted     = attribute.Key("sentinel.vm.booted")
)
