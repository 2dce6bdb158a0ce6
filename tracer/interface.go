package tracer

import (
	"context"
	"net/http"
)

// Tracer provides span creation and trace context propagation for
// application code. It is the narrow view of a *Pipeline that business
// code should depend on.
//
// This interface is implemented by *Pipeline, including a nil *Pipeline,
// which yields non-recording spans.
type Tracer interface {
	// StartSpan creates a new span with the given name.
	// The span is attached to the parent span in the context, if any.
	// Always call span.End() when the operation completes (typically via defer).
	StartSpan(ctx context.Context, name string) (context.Context, Span)

	// GetCarrier extracts the trace context of ctx as a map of headers,
	// for outbound requests or messages.
	GetCarrier(ctx context.Context) map[string]string

	// SetCarrierOnContext injects trace context from headers into ctx,
	// to continue a trace received from another service.
	SetCarrierOnContext(ctx context.Context, carrier map[string]string) context.Context
}

// Instrumenter exposes the auto-instrumentation helpers of a pipeline.
// Each helper returns its input unchanged when the corresponding
// instrumentation is disabled or tracing is off.
type Instrumenter interface {
	// Enabled reports whether the named instrumentation is active.
	Enabled(name string) bool

	// WrapHandler creates a server span for every request handled by h.
	WrapHandler(h http.Handler, operation string) http.Handler

	// RouteTag records the matched route pattern on the server span.
	RouteTag(pattern string, h http.Handler) http.Handler

	// WrapTransport creates a client span for every outbound request.
	WrapTransport(rt http.RoundTripper) http.RoundTripper
}

// Span represents a single traced operation.
//
// Spans created with StartSpan inherit the parent span from the context
// if one exists, forming the request's span hierarchy.
type Span interface {
	// End completes the span and hands it to the span processors.
	// Defer it right after StartSpan:
	//
	//	ctx, span := tr.StartSpan(ctx, "create-user")
	//	defer span.End()
	End()

	// SetAttributes adds key-value attributes to the span. Strings, ints,
	// int64s, float64s and bools keep their type; everything else is
	// stored with fmt.Sprint.
	SetAttributes(attrs map[string]interface{})

	// RecordError records err as a span event and marks the span as failed.
	// It is a no-op for a nil error.
	RecordError(err error)
}

// Logger is the subset of logger.Logger the pipeline writes to.
// *logger.LoggerClient satisfies it.
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
}
