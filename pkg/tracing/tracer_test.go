package tracing

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestSampler(t *testing.T) {
	tests := []struct {
		ratio float64
		want  bool
	}{
		{1, true},
		{2, true},
		{0, false},
		{-1, false},
	}

	for _, tt := range tests {
		tp, err := InitTracer(Config{
			ServiceName: "inventory-test",
			Version:     "test",
			Environment: "test",
			Endpoint:    "http://127.0.0.1:1/api/traces",
			SampleRatio: tt.ratio,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		_, span := otel.Tracer("test").Start(context.Background(), "op")
		if got := span.SpanContext().IsSampled(); got != tt.want {
			t.Errorf("ratio %v: sampled = %v, want %v", tt.ratio, got, tt.want)
		}
		span.End()

		// nothing listens on the endpoint
		Shutdown(context.Background(), tp)
	}
	otel.SetTracerProvider(noop.NewTracerProvider())
}

func TestSamplerFollowsParent(t *testing.T) {
	parent := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{1},
		SpanID:     trace.SpanID{1},
		TraceFlags: trace.FlagsSampled,
		Remote:     true,
	})

	tp, err := InitTracer(Config{ServiceName: "inventory-test", Endpoint: "http://127.0.0.1:1/api/traces", SampleRatio: 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer otel.SetTracerProvider(noop.NewTracerProvider())
	defer Shutdown(context.Background(), tp)

	ctx := trace.ContextWithRemoteSpanContext(context.Background(), parent)
	_, span := otel.Tracer("test").Start(ctx, "child")
	defer span.End()
	if !span.SpanContext().IsSampled() {
		t.Error("expected child of a sampled parent to be sampled")
	}
}
