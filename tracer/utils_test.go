package tracer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	tracepb "go.opentelemetry.io/proto/otlp/trace/v1"
)

func newTestPipeline(t *testing.T) (*Pipeline, *mockCollector) {
	t.Helper()
	collector := newMockCollector(t)
	p := startTestPipeline(t, testConfig(collector.endpoint()))
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })
	return p, collector
}

func TestStartSpan_SpanIsRecording(t *testing.T) {
	t.Parallel()
	p, _ := newTestPipeline(t)

	ctx, span := p.StartSpan(context.Background(), "test-op")
	defer span.End()

	assert.True(t, trace.SpanFromContext(ctx).IsRecording())
}

func TestStartSpan_ChildInheritsParent(t *testing.T) {
	t.Parallel()
	p, _ := newTestPipeline(t)

	parentCtx, parentSpan := p.StartSpan(context.Background(), "parent")
	defer parentSpan.End()
	childCtx, childSpan := p.StartSpan(parentCtx, "child")
	defer childSpan.End()

	assert.Equal(t,
		trace.SpanFromContext(parentCtx).SpanContext().TraceID(),
		trace.SpanFromContext(childCtx).SpanContext().TraceID(),
	)
}

func TestStartSpan_NilPipelineIsNonRecording(t *testing.T) {
	t.Parallel()
	var p *Pipeline

	ctx, span := p.StartSpan(context.Background(), "untraced")
	defer span.End()

	assert.False(t, trace.SpanFromContext(ctx).IsRecording())
	assert.NotPanics(t, func() {
		span.SetAttributes(map[string]interface{}{"k": "v"})
		span.RecordError(errors.New("ignored"))
	})
}

func TestSpan_AttributesAndErrorAreExported(t *testing.T) {
	t.Parallel()
	p, collector := newTestPipeline(t)

	_, span := p.StartSpan(context.Background(), "attrs-op")
	span.SetAttributes(map[string]interface{}{
		"str":   "hello",
		"int":   42,
		"int64": int64(100),
		"float": 3.14,
		"bool":  true,
		"other": struct{ A int }{A: 1},
	})
	span.SetAttributes(map[string]interface{}{})
	span.RecordError(nil)
	span.RecordError(errors.New("something went wrong"))
	span.End()
	require.NoError(t, p.Shutdown(context.Background()))

	spans := collector.receivedSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "attrs-op", spans[0].GetName())
	assert.Equal(t, "hello", spanAttr(spans[0], "str"))
	assert.Equal(t, "{1}", spanAttr(spans[0], "other"))
	assert.Equal(t, tracepb.Status_STATUS_CODE_ERROR, spans[0].GetStatus().GetCode())
	assert.Equal(t, "something went wrong", spans[0].GetStatus().GetMessage())
	require.Len(t, spans[0].GetEvents(), 1)
	assert.Equal(t, "exception", spans[0].GetEvents()[0].GetName())
}

func TestToAttributes_Types(t *testing.T) {
	t.Parallel()
	attrs := toAttributes(map[string]interface{}{
		"str":   "s",
		"int":   1,
		"int64": int64(2),
		"float": 1.5,
		"bool":  true,
		"slice": []string{"a", "b"},
	})

	byKey := map[attribute.Key]attribute.Value{}
	for _, kv := range attrs {
		byKey[kv.Key] = kv.Value
	}
	assert.Equal(t, attribute.STRING, byKey["str"].Type())
	assert.Equal(t, attribute.INT64, byKey["int"].Type())
	assert.Equal(t, attribute.INT64, byKey["int64"].Type())
	assert.Equal(t, attribute.FLOAT64, byKey["float"].Type())
	assert.Equal(t, attribute.BOOL, byKey["bool"].Type())
	assert.Equal(t, attribute.STRINGSLICE, byKey["slice"].Type())
}

func TestGetCarrier_NoActiveSpan(t *testing.T) {
	t.Parallel()
	p, _ := newTestPipeline(t)

	carrier := p.GetCarrier(context.Background())

	assert.NotNil(t, carrier)
	assert.NotContains(t, carrier, "traceparent")
}

func TestGetAndSetCarrier_RoundTrip(t *testing.T) {
	t.Parallel()
	p, _ := newTestPipeline(t)

	ctx, span := p.StartSpan(context.Background(), "roundtrip-op")
	defer span.End()

	carrier := p.GetCarrier(ctx)
	require.Contains(t, carrier, "traceparent")

	restoredCtx := p.SetCarrierOnContext(context.Background(), carrier)

	original := trace.SpanFromContext(ctx).SpanContext()
	restored := trace.SpanContextFromContext(restoredCtx)
	assert.Equal(t, original.TraceID(), restored.TraceID())
	assert.Equal(t, original.SpanID(), restored.SpanID())
	assert.True(t, restored.IsRemote())
}

func TestCarrier_NilPipelineStillPropagates(t *testing.T) {
	t.Parallel()
	var p *Pipeline

	carrier := map[string]string{"traceparent": "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"}
	ctx := p.SetCarrierOnContext(context.Background(), carrier)

	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", trace.SpanContextFromContext(ctx).TraceID().String())
	assert.Equal(t, carrier["traceparent"], p.GetCarrier(ctx)["traceparent"])
}

func TestTracerProvider_NilPipelineIsNoop(t *testing.T) {
	t.Parallel()
	var p *Pipeline

	_, span := p.TracerProvider().Tracer("x").Start(context.Background(), "noop")
	defer span.End()

	assert.False(t, span.IsRecording())
}
