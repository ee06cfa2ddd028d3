package tracing

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestInitDisabled(t *testing.T) {
	shutdown, err := Init("test-service", Settings{})
	if err != nil {
		t.Fatalf("Init should not error when disabled: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown should not error: %v", err)
	}
}

func TestInitEnabled(t *testing.T) {
	defer func() { tracer = nil }()

	// Nothing listens on this port; only construction is exercised.
	shutdown, err := Init("test-service", Settings{Enabled: true, Endpoint: "localhost:14318", SampleRate: 1})
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if tracer == nil {
		t.Fatal("tracer should be set when enabled")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Logf("Shutdown error (expected without a collector): %v", err)
	}
}

func TestStartSpanNoop(t *testing.T) {
	tracer = nil
	ctx, span := StartSpan(context.Background(), "test-span")
	if ctx == nil || span == nil {
		t.Fatal("StartSpan should return a context and span")
	}
	span.End()
}

func TestBatchSpanAttributes(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	tracer = tp.Tracer("test")
	defer func() { tracer = nil }()

	_, span := StartBatchSpan(context.Background(), "barneshut.forces", 128, 0.5)
	EndSpan(span, errors.New("barneshut: invalid body"))

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	got := spans[0]
	if got.Name != "barneshut.forces" {
		t.Errorf("unexpected span name %q", got.Name)
	}
	attrs := map[attribute.Key]attribute.Value{}
	for _, kv := range got.Attributes {
		attrs[kv.Key] = kv.Value
	}
	if attrs["barneshut.bodies"].AsInt64() != 128 {
		t.Errorf("bodies attribute = %v", attrs["barneshut.bodies"])
	}
	if attrs["barneshut.theta"].AsFloat64() != 0.5 {
		t.Errorf("theta attribute = %v", attrs["barneshut.theta"])
	}
	if got.Status.Code != codes.Error {
		t.Errorf("expected error status, got %v", got.Status.Code)
	}
}

func TestEndSpanWithoutError(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	tracer = tp.Tracer("test")
	defer func() { tracer = nil }()

	_, span := StartSpan(context.Background(), "barneshut.build")
	EndSpan(span, nil)

	spans := exporter.GetSpans()
	if len(spans) != 1 || spans[0].Status.Code != codes.Unset {
		t.Fatalf("unexpected spans: %+v", spans)
	}
}
