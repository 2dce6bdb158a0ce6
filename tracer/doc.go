// Package tracer bootstraps OpenTelemetry tracing for a process and ships the
// spans to Mackerel over OTLP/HTTP.
//
// The package covers the lifecycle of the tracing pipeline only: describe the
// process as a resource, build the exporter, create the tracer provider with a
// parent-based ratio sampler, start it, and flush and release it on shutdown.
// Span creation, batching, retries and sampling decisions belong to the
// OpenTelemetry SDK.
//
// # Architecture
//
//   - Config: immutable settings, read from the environment by LoadConfig
//   - Initialize: builds a *Pipeline, or returns nil when no API key is set
//   - *Pipeline: owns the provider; implements Tracer and Instrumenter
//   - FXModule: provides the pipeline and shuts it down with the application
//
// A nil *Pipeline is a valid "tracing disabled" handle; nothing needs to
// check for it.
//
// # Basic Usage
//
//	cfg, err := tracer.LoadConfig()
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	p, err := tracer.Initialize(ctx, cfg, tracer.WithLogger(logClient))
//	if err != nil {
//		log.Fatal(err) // *tracer.ConfigError
//	}
//	defer p.Shutdown(context.Background())
//
//	handler := p.WrapHandler(mux, "sample-server")
//
//	ctx, span := p.StartSpan(ctx, "simulate-work")
//	defer span.End()
//
// # Lifecycle
//
// Initialize returns a pipeline in StateStarting; the exporter is started in
// the background and Ready is closed when that finishes. A failed start is
// logged as a *StartError and the pipeline keeps running without export.
// Shutdown moves the pipeline through StateShuttingDown to StateStopped. It
// is safe to call any number of times from any goroutine, and it never waits
// longer than Config.ShutdownTimeout.
//
// # Instrumentations
//
// Auto-instrumentation is opt-out by name through
// Config.DisabledInstrumentations (OTEL_DISABLED_INSTRUMENTATIONS):
//
//	http         server spans, WrapHandler
//	http-client  client spans, WrapTransport and HTTPClient
//	router       http.route on server spans, RouteTag
//	fs           spans for file access through FS (disabled by default)
//
// # Errors
//
//   - *ConfigError: invalid configuration, returned by LoadConfig, Validate and Initialize
//   - *StartError: exporter start failure, logged only, see StartErr
//   - *ShutdownError: flush failure, returned by the first Shutdown
//
// Match the causes with errors.Is against ErrInvalidEndpoint,
// ErrInvalidSamplingRatio and the other sentinels.
package tracer
