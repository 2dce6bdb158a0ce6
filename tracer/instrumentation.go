package tracer

import (
	"context"
	"io/fs"
	"net/http"
	"sort"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Instrumentation names accepted by Config.DisabledInstrumentations.
const (
	// InstrumentationHTTP creates server spans for inbound requests (WrapHandler).
	InstrumentationHTTP = "http"
	// InstrumentationHTTPClient creates client spans for outbound requests (WrapTransport, HTTPClient).
	InstrumentationHTTPClient = "http-client"
	// InstrumentationRouter tags server spans with the matched route (RouteTag).
	InstrumentationRouter = "router"
	// InstrumentationFS creates a span per file opened or read through FS.
	InstrumentationFS = "fs"
)

// fsInstrumentationName is the scope of the spans created by FS.
const fsInstrumentationName = instrumentationName + "/fs"

var knownInstrumentations = map[string]struct{}{
	InstrumentationHTTP:       {},
	InstrumentationHTTPClient: {},
	InstrumentationRouter:     {},
	InstrumentationFS:         {},
}

// Instrumentations returns the names of all supported instrumentations, sorted.
func Instrumentations() []string {
	names := make([]string, 0, len(knownInstrumentations))
	for name := range knownInstrumentations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// resolveDisabled keeps the known names of disabled and warns about the others.
func resolveDisabled(disabled []string, log Logger) map[string]struct{} {
	out := make(map[string]struct{}, len(disabled))
	for _, name := range disabled {
		if _, ok := knownInstrumentations[name]; !ok {
			log.Warn("ignoring unknown instrumentation", nil, map[string]interface{}{
				"instrumentation": name,
				"known":           Instrumentations(),
			})
			continue
		}
		out[name] = struct{}{}
	}
	return out
}

// Enabled reports whether the named instrumentation is active.
// Everything is disabled on a nil pipeline.
func (p *Pipeline) Enabled(name string) bool {
	if p == nil {
		return false
	}
	if _, ok := knownInstrumentations[name]; !ok {
		return false
	}
	_, off := p.disabled[name]
	return !off
}

// WrapHandler returns h wrapped so that every request gets a server span named
// operation, continuing the trace found in the W3C headers of the request.
func (p *Pipeline) WrapHandler(h http.Handler, operation string) http.Handler {
	if !p.Enabled(InstrumentationHTTP) {
		return h
	}
	return otelhttp.NewHandler(h, operation,
		otelhttp.WithTracerProvider(p.provider),
		otelhttp.WithPropagators(p.propagator),
	)
}

// RouteTag records pattern as the http.route attribute of the server span
// created by WrapHandler. It must be applied per route, inside WrapHandler.
//
//	r.Method(http.MethodGet, "/hello", p.RouteTag("/hello", helloHandler))
func (p *Pipeline) RouteTag(pattern string, h http.Handler) http.Handler {
	if !p.Enabled(InstrumentationRouter) {
		return h
	}
	return otelhttp.WithRouteTag(pattern, h)
}

// WrapTransport returns rt wrapped so that every outbound request gets a
// client span and carries the trace context. A nil rt means http.DefaultTransport.
func (p *Pipeline) WrapTransport(rt http.RoundTripper) http.RoundTripper {
	if rt == nil {
		rt = http.DefaultTransport
	}
	if !p.Enabled(InstrumentationHTTPClient) {
		return rt
	}
	return otelhttp.NewTransport(rt,
		otelhttp.WithTracerProvider(p.provider),
		otelhttp.WithPropagators(p.propagator),
	)
}

// HTTPClient returns a copy of base whose transport is wrapped by
// WrapTransport. A nil base means http.DefaultClient.
func (p *Pipeline) HTTPClient(base *http.Client) *http.Client {
	if base == nil {
		base = http.DefaultClient
	}
	c := *base
	c.Transport = p.WrapTransport(base.Transport)
	return &c
}

// FS returns fsys wrapped so that Open and ReadFile produce spans. fs.FS has
// no context, so these spans are trace roots. The instrumentation is disabled
// by default for that reason.
func (p *Pipeline) FS(fsys fs.FS) fs.FS {
	if !p.Enabled(InstrumentationFS) {
		return fsys
	}
	return &tracedFS{fsys: fsys, tracer: p.provider.Tracer(fsInstrumentationName)}
}

type tracedFS struct {
	fsys   fs.FS
	tracer trace.Tracer
}

func (t *tracedFS) Open(name string) (fs.File, error) {
	_, span := t.startSpan("fs.Open", name)
	defer span.End()

	f, err := t.fsys.Open(name)
	recordFSError(span, err)
	return f, err
}

func (t *tracedFS) ReadFile(name string) ([]byte, error) {
	_, span := t.startSpan("fs.ReadFile", name)
	defer span.End()

	data, err := fs.ReadFile(t.fsys, name)
	recordFSError(span, err)
	if err == nil {
		span.SetAttributes(attribute.Int("file.size", len(data)))
	}
	return data, err
}

func (t *tracedFS) startSpan(op, name string) (context.Context, trace.Span) {
	return t.tracer.Start(context.Background(), op,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("file.path", name)),
	)
}

func recordFSError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
