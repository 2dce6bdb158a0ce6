package tracer

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// spanImpl adapts an OpenTelemetry span to the Span interface.
type spanImpl struct {
	span trace.Span
}

// End ends the underlying span. No further calls should be made on the span.
func (s *spanImpl) End() {
	s.span.End()
}

// SetAttributes converts attrs to OpenTelemetry attributes and sets them.
//
// Example:
//
//	span.SetAttributes(map[string]interface{}{
//	    "user.email": req.Email,
//	    "request.retries": 2,
//	    "request.cached": false,
//	})
func (s *spanImpl) SetAttributes(attrs map[string]interface{}) {
	if len(attrs) == 0 {
		return
	}
	s.span.SetAttributes(toAttributes(attrs)...)
}

// RecordError adds err as an exception event and sets the span status to Error
// with the error message as description.
func (s *spanImpl) RecordError(err error) {
	if err == nil {
		return
	}
	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, err.Error())
}

func toAttributes(attrs map[string]interface{}) []attribute.KeyValue {
	out := make([]attribute.KeyValue, 0, len(attrs))
	for k, v := range attrs {
		switch val := v.(type) {
		case string:
			out = append(out, attribute.String(k, val))
		case int:
			out = append(out, attribute.Int(k, val))
		case int64:
			out = append(out, attribute.Int64(k, val))
		case float64:
			out = append(out, attribute.Float64(k, val))
		case bool:
			out = append(out, attribute.Bool(k, val))
		case []string:
			out = append(out, attribute.StringSlice(k, val))
		default:
			out = append(out, attribute.String(k, fmt.Sprint(val)))
		}
	}
	return out
}

// TracerProvider returns the provider backing the pipeline. For a nil
// pipeline it returns a no-op provider, never the global one.
func (p *Pipeline) TracerProvider() trace.TracerProvider {
	if p == nil {
		return noop.NewTracerProvider()
	}
	return p.provider
}

// Propagator returns the W3C TraceContext and Baggage propagator in use.
func (p *Pipeline) Propagator() propagation.TextMapPropagator {
	if p == nil {
		return defaultPropagator
	}
	return p.propagator
}

var defaultPropagator = propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{})

// StartSpan creates a span named name as a child of the span in ctx, or as a
// new root. The returned context carries the span; pass it to the work the
// span covers.
//
// Example:
//
//	func (h *handlers) createUser(ctx context.Context, u user) error {
//	    ctx, span := h.tracer.StartSpan(ctx, "create-user")
//	    defer span.End()
//
//	    span.SetAttributes(map[string]interface{}{"user.name": u.Name})
//	    if err := h.store(ctx, u); err != nil {
//	        span.RecordError(err)
//	        return err
//	    }
//	    return nil
//	}
func (p *Pipeline) StartSpan(ctx context.Context, name string) (context.Context, Span) {
	ctx, otSpan := p.TracerProvider().Tracer(instrumentationName).Start(ctx, name)
	return ctx, &spanImpl{span: otSpan}
}

// GetCarrier returns the trace context of ctx as W3C headers
// ("traceparent", "tracestate", "baggage") to attach to outbound calls.
//
// Example:
//
//	for k, v := range tr.GetCarrier(ctx) {
//	    req.Header.Set(k, v)
//	}
func (p *Pipeline) GetCarrier(ctx context.Context) map[string]string {
	carrier := propagation.MapCarrier{}
	p.Propagator().Inject(ctx, carrier)
	return carrier
}

// SetCarrierOnContext is the inverse of GetCarrier: spans started from the
// returned context continue the trace described by carrier.
func (p *Pipeline) SetCarrierOnContext(ctx context.Context, carrier map[string]string) context.Context {
	return p.Propagator().Extract(ctx, propagation.MapCarrier(carrier))
}
