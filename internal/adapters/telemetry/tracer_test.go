package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.trai.ch/wdlcache/internal/adapters/telemetry"
	"go.trai.ch/wdlcache/internal/core/ports"
)

func TestInterfaceSatisfaction(_ *testing.T) {
	var _ ports.Tracer = (*telemetry.OTelTracer)(nil)
	var _ ports.Span = (*telemetry.OTelSpan)(nil)
	var _ ports.Tracer = (*telemetry.NoOpTracer)(nil)
	var _ ports.Span = (*telemetry.NoOpSpan)(nil)
}

func TestOTelTracer_RecordsAttributesAndErrors(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	tracer := telemetry.NewOTelTracer(provider)

	_, span := tracer.Start(context.Background(), "resolver.resolve_import",
		ports.WithAttribute("import.uri", "file:///lib.wdl"))
	span.SetAttribute("import.depth", 2)
	span.SetAttribute("import.cached", false)
	span.RecordError(errors.New("import not found"))
	span.RecordError(nil)
	span.End()

	ended := sr.Ended()
	require.Len(t, ended, 1)
	got := ended[0]
	assert.Equal(t, "resolver.resolve_import", got.Name())
	assert.Equal(t, codes.Error, got.Status().Code)
	assert.Equal(t, "import not found", got.Status().Description)
	assert.ElementsMatch(t, []attribute.KeyValue{
		attribute.String("import.uri", "file:///lib.wdl"),
		attribute.Int("import.depth", 2),
		attribute.Bool("import.cached", false),
	}, got.Attributes())
	require.Len(t, got.Events(), 1)
	assert.Equal(t, "exception", got.Events()[0].Name)
}

func TestOTelTracer_NestedSpansShareTrace(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tracer := telemetry.NewOTelTracer(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr)))

	ctx, parent := tracer.Start(context.Background(), "parent")
	_, child := tracer.Start(ctx, "child")
	child.End()
	parent.End()

	ended := sr.Ended()
	require.Len(t, ended, 2)
	assert.Equal(t, ended[1].SpanContext().TraceID(), ended[0].SpanContext().TraceID())
	assert.Equal(t, ended[1].SpanContext().SpanID(), ended[0].Parent().SpanID())
}

func TestNoOpTracer_Start(t *testing.T) {
	tracer := telemetry.NewNoOpTracer()

	ctx := context.Background()
	got, span := tracer.Start(ctx, "test-span")
	assert.Equal(t, ctx, got)

	span.SetAttribute("key", "value")
	span.RecordError(errors.New("ignored"))
	span.End()
}

func TestRecorder_SummarizesSpans(t *testing.T) {
	rec := telemetry.NewRecorder()
	tracer := telemetry.NewOTelTracer(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec)))

	_, ok := tracer.Start(context.Background(), "store.save")
	ok.End()
	_, failed := tracer.Start(context.Background(), "store.load")
	failed.RecordError(errors.New("checksum mismatch"))
	failed.End()

	spans := rec.Spans()
	require.Len(t, spans, 2)
	names := []string{spans[0].Name, spans[1].Name}
	assert.ElementsMatch(t, []string{"store.save", "store.load"}, names)
	assert.GreaterOrEqual(t, spans[0].Duration, spans[1].Duration)
	for _, s := range spans {
		if s.Name == "store.load" {
			assert.Equal(t, "checksum mismatch", s.Err)
		} else {
			assert.Empty(t, s.Err)
		}
	}
	require.NoError(t, rec.ForceFlush(context.Background()))
	require.NoError(t, rec.Shutdown(context.Background()))
}
