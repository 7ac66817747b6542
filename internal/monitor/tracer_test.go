package monitor

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/trace"
)

func TestStartSpan_KeepsParentTrace(t *testing.T) {
	traceID := trace.TraceID{0x01, 0x02, 0x03}
	parent := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     trace.SpanID{0x0a},
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), parent)

	ctx, span := NewTracer().StartSpan(ctx, "analyze", AttrTarget.String("/samples/a.exe"))
	defer span.End()

	got := SpanFromContext(ctx)
	if got.SpanContext().TraceID() != traceID {
		t.Errorf("TraceID = %s, want %s", got.SpanContext().TraceID(), traceID)
	}
	// Attribute and error calls on the span must be safe without an SDK.
	got.SetAttributes(AttrVMID.String("sentinel_1"))
}

func TestSpanFromContext_Empty(t *testing.T) {
	if SpanFromContext(context.Background()).SpanContext().IsValid() {
		t.Error("bare context should carry no valid span")
	}
}
