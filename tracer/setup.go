package tracer

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aalemi-dev/mackerel-tracing/logger"
	"github.com/aalemi-dev/mackerel-tracing/observability"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

// instrumentationName is the scope name of spans created by this package.
const instrumentationName = "github.com/aalemi-dev/mackerel-tracing/tracer"

// componentName identifies the pipeline in observability.OperationContext.
const componentName = "tracer"

// defaultMaxExportBatchSize matches the SDK default; it is lowered to the
// queue size when the queue is smaller.
const defaultMaxExportBatchSize = 512

// Pipeline is the running tracing bootstrap: resource, sampler, exporter,
// tracer provider and propagator wired together and installed globally.
//
// A nil *Pipeline is valid and is what Initialize returns when no API key
// is configured. Every method on a nil *Pipeline is safe: helpers return
// their inputs unchanged, spans are non-recording and State reports
// StateStopped.
type Pipeline struct {
	cfg      Config
	log      Logger
	observer observability.Observer

	provider   *sdktrace.TracerProvider
	propagator propagation.TextMapPropagator
	client     otlptrace.Client

	// disabled holds the instrumentation names that were switched off.
	disabled map[string]struct{}

	state atomic.Int32

	// ready is closed once the asynchronous start has finished, either way.
	ready       chan struct{}
	startErr    error
	startCancel context.CancelFunc

	shutdownOnce sync.Once
	shutdownErr  error
}

// Option customizes Initialize.
type Option func(*options)

type options struct {
	log           Logger
	observer      observability.Observer
	client        otlptrace.Client
	consoleWriter io.Writer
}

// WithLogger sets the logger used for lifecycle messages and SDK errors.
// Defaults to a no-op logger.
func WithLogger(l Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithObserver registers an observer notified when the pipeline starts and
// shuts down.
func WithObserver(obs observability.Observer) Option {
	return func(o *options) {
		o.observer = obs
	}
}

// WithClient replaces the OTLP/HTTP client built from the config. The
// pipeline still owns the client and starts and stops it.
func WithClient(c otlptrace.Client) Option {
	return func(o *options) {
		o.client = c
	}
}

// WithConsoleWriter sets where Config.Debug mirrors spans. Defaults to stdout.
func WithConsoleWriter(w io.Writer) Option {
	return func(o *options) {
		o.consoleWriter = w
	}
}

// Initialize builds the tracing pipeline described by cfg, installs it as the
// global OpenTelemetry tracer provider and starts the exporter in the background.
//
// The outcomes are:
//   - cfg.APIKey is empty: a warning is logged and (nil, nil) is returned.
//     Nothing is exported and no connection is ever made; a nil *Pipeline is
//     safe to use everywhere.
//   - cfg is invalid: a *ConfigError is returned and nothing is installed.
//   - otherwise the pipeline is returned in StateStarting. The exporter start
//     finishes asynchronously (see Ready); if it fails the error is logged as a
//     *StartError and the pipeline keeps running without remote export.
//
// The caller owns the returned pipeline and must call Shutdown exactly once
// before exiting so that buffered spans are flushed.
//
// Example:
//
//	cfg, err := tracer.LoadConfig()
//	if err != nil {
//		return err
//	}
//	p, err := tracer.Initialize(ctx, cfg, tracer.WithLogger(log))
//	if err != nil {
//		return err
//	}
//	defer p.Shutdown(context.Background())
func Initialize(ctx context.Context, cfg Config, opts ...Option) (*Pipeline, error) {
	o := options{log: logger.NewNop(), consoleWriter: os.Stdout}
	for _, opt := range opts {
		opt(&o)
	}

	if cfg.APIKey == "" {
		o.log.Warn("MACKEREL_API_KEY is not set. Traces will not be sent to Mackerel.", ErrMissingAPIKey)
		return nil, nil
	}

	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	res, err := newResource(ctx, cfg)
	if err != nil {
		if !errors.Is(err, resource.ErrPartialResource) || res == nil {
			return nil, &ConfigError{Field: "resource", Err: err}
		}
		o.log.Warn("some resource attributes could not be detected", err)
	}

	client := o.client
	if client == nil {
		client = newExporterClient(cfg)
	}

	providerOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(newSampler(cfg.SamplingRatio)),
	}
	if cfg.Debug {
		console, err := stdouttrace.New(stdouttrace.WithWriter(o.consoleWriter), stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, &ConfigError{Field: "Debug", Err: err}
		}
		providerOpts = append(providerOpts, sdktrace.WithSyncer(console))
	}

	p := &Pipeline{
		cfg:      cfg,
		log:      o.log,
		observer: o.observer,
		provider: sdktrace.NewTracerProvider(providerOpts...),
		propagator: propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		),
		client:   client,
		disabled: resolveDisabled(cfg.DisabledInstrumentations, o.log),
		ready:    make(chan struct{}),
	}
	p.state.Store(int32(StateUninitialized))

	otel.SetTracerProvider(p.provider)
	otel.SetTextMapPropagator(p.propagator)
	otel.SetErrorHandler(otel.ErrorHandlerFunc(func(err error) {
		p.log.Error("opentelemetry sdk error", err, map[string]interface{}{
			"endpoint": p.cfg.EndpointURL,
		})
	}))

	// The start must outlive ctx, which is often scoped to the constructor,
	// but Shutdown has to be able to abort it.
	startCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	p.startCancel = cancel
	p.state.Store(int32(StateStarting))
	go p.start(startCtx)

	p.log.Info("tracing initialized", nil, cfg.redacted())
	return p, nil
}

// start brings the exporter up and attaches it to the provider through a
// batch span processor. Only one start runs per pipeline.
func (p *Pipeline) start(ctx context.Context) {
	defer close(p.ready)
	defer p.startCancel()

	begin := time.Now()
	exporter, err := otlptrace.New(ctx, p.client)
	if err != nil {
		p.startErr = &StartError{Endpoint: p.cfg.EndpointURL, Err: err}
		p.log.Error("tracing start failed, spans will not be exported", p.startErr, map[string]interface{}{
			"endpoint": p.cfg.EndpointURL,
		})
		p.observe("start", begin, p.startErr)
		p.state.CompareAndSwap(int32(StateStarting), int32(StateRunning))
		return
	}

	if !p.state.CompareAndSwap(int32(StateStarting), int32(StateRunning)) {
		// Shutdown won the race; the exporter was never attached.
		_ = exporter.Shutdown(context.Background())
		return
	}

	batchSize := defaultMaxExportBatchSize
	if p.cfg.MaxQueueSize < batchSize {
		batchSize = p.cfg.MaxQueueSize
	}
	p.provider.RegisterSpanProcessor(sdktrace.NewBatchSpanProcessor(exporter,
		sdktrace.WithMaxQueueSize(p.cfg.MaxQueueSize),
		sdktrace.WithMaxExportBatchSize(batchSize),
		sdktrace.WithExportTimeout(p.cfg.ExportTimeout),
	))

	p.log.Info("tracing started", nil, map[string]interface{}{
		"endpoint":     p.cfg.EndpointURL,
		"service_name": p.cfg.ServiceName,
	})
	p.observe("start", begin, nil)
}

// newExporterClient builds the OTLP/HTTP client that posts protobuf encoded
// spans to Mackerel. An http:// endpoint disables TLS.
func newExporterClient(cfg Config) otlptrace.Client {
	return otlptracehttp.NewClient(
		otlptracehttp.WithEndpointURL(cfg.EndpointURL),
		otlptracehttp.WithHeaders(map[string]string{
			HeaderAPIKey: cfg.APIKey,
			"Accept":     "*/*",
		}),
		otlptracehttp.WithTimeout(cfg.ExportTimeout),
	)
}

// newResource describes the emitting process. Attributes given explicitly
// override the detected ones and OTEL_RESOURCE_ATTRIBUTES.
func newResource(ctx context.Context, cfg Config) (*resource.Resource, error) {
	attrs := []attribute.KeyValue{
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
	}
	if cfg.DeploymentEnvironment != "" {
		attrs = append(attrs, semconv.DeploymentEnvironment(cfg.DeploymentEnvironment))
	}

	return resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithTelemetrySDK(),
		resource.WithHost(),
		resource.WithOS(),
		resource.WithProcess(),
		resource.WithAttributes(attrs...),
	)
}

// newSampler samples ratio of the trace roots and follows the parent's
// decision for everything else.
func newSampler(ratio float64) sdktrace.Sampler {
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
}

func (p *Pipeline) observe(operation string, begin time.Time, err error) {
	if p.observer == nil {
		return
	}
	p.observer.ObserveOperation(observability.OperationContext{
		Component: componentName,
		Operation: operation,
		Resource:  p.cfg.EndpointURL,
		Duration:  time.Since(begin),
		Error:     err,
	})
}
