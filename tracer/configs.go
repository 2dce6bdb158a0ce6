package tracer

import (
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Defaults applied by DefaultConfig, by LoadConfig through the envDefault
// tags, and by Initialize for zero-valued fields that have no valid zero.
const (
	DefaultServiceName     = "mackerel-tracing-sample"
	DefaultServiceVersion  = "v1.0.0"
	DefaultEndpointURL     = "https://otlp-vaxila.mackerelio.com/v1/traces"
	DefaultSamplingRatio   = 1.0
	DefaultMaxQueueSize    = 1000
	DefaultExportTimeout   = 10 * time.Second
	DefaultShutdownTimeout = 5 * time.Second
)

// HeaderAPIKey is the request header Mackerel authenticates OTLP exports with.
const HeaderAPIKey = "Mackerel-Api-Key"

// disableNone is the value of OTEL_DISABLED_INSTRUMENTATIONS that keeps every
// instrumentation on. An empty value falls back to the default list.
const disableNone = "none"

// Config defines the configuration for the tracing pipeline.
// It is read once at startup, validated once, and never mutated afterwards;
// changing it means shutting the pipeline down and initializing a new one.
type Config struct {
	// ServiceName identifies the emitting process to Mackerel ("service.name").
	ServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"mackerel-tracing-sample"`

	// ServiceVersion populates "service.version". Defaults to DefaultServiceVersion.
	ServiceVersion string `env:"OTEL_SERVICE_VERSION" envDefault:"v1.0.0"`

	// DeploymentEnvironment populates "deployment.environment" when not empty.
	DeploymentEnvironment string `env:"DEPLOYMENT_ENVIRONMENT"`

	// APIKey is the Mackerel API key sent in the Mackerel-Api-Key header.
	// Without it no pipeline is built and the application runs untraced.
	APIKey string `env:"MACKEREL_API_KEY"`

	// EndpointURL is the absolute http(s) URL spans are POSTed to.
	EndpointURL string `env:"MACKEREL_OTLP_ENDPOINT" envDefault:"https://otlp-vaxila.mackerelio.com/v1/traces"`

	// SamplingRatio is the fraction of trace roots that are recorded, in [0, 1].
	// Children follow their parent's decision. Note that the zero value samples
	// nothing; start from DefaultConfig to get 1.0.
	SamplingRatio float64 `env:"TRACING_SAMPLING_RATIO" envDefault:"1.0"`

	// DisabledInstrumentations lists instrumentation names to suppress,
	// see InstrumentationHTTP and friends. The filesystem instrumentation is
	// off by default because it produces a span for every file access.
	DisabledInstrumentations []string `env:"OTEL_DISABLED_INSTRUMENTATIONS" envSeparator:"," envDefault:"fs"`

	// Debug mirrors every finished span to the console in addition to Mackerel.
	Debug bool `env:"TRACING_DEBUG" envDefault:"false"`

	// MaxQueueSize bounds the number of spans buffered for export.
	// Spans ended while the queue is full are dropped.
	MaxQueueSize int `env:"TRACING_MAX_QUEUE_SIZE" envDefault:"1000"`

	// ExportTimeout bounds a single export request.
	ExportTimeout time.Duration `env:"TRACING_EXPORT_TIMEOUT" envDefault:"10s"`

	// ShutdownTimeout bounds how long Shutdown waits for buffered spans to flush.
	ShutdownTimeout time.Duration `env:"TRACING_SHUTDOWN_TIMEOUT" envDefault:"5s"`
}

// DefaultConfig returns a Config with every default filled in and no API key.
func DefaultConfig() Config {
	return Config{
		ServiceName:              DefaultServiceName,
		ServiceVersion:           DefaultServiceVersion,
		EndpointURL:              DefaultEndpointURL,
		SamplingRatio:            DefaultSamplingRatio,
		DisabledInstrumentations: []string{InstrumentationFS},
		MaxQueueSize:             DefaultMaxQueueSize,
		ExportTimeout:            DefaultExportTimeout,
		ShutdownTimeout:          DefaultShutdownTimeout,
	}
}

// LoadConfig reads the Config from the process environment.
//
// Recognized variables:
//
//	MACKEREL_API_KEY                API key; tracing is disabled without it
//	MACKEREL_OTLP_ENDPOINT          collector URL
//	OTEL_SERVICE_NAME               service.name
//	OTEL_SERVICE_VERSION            service.version
//	DEPLOYMENT_ENVIRONMENT          deployment.environment
//	TRACING_SAMPLING_RATIO          float in [0, 1]
//	OTEL_DISABLED_INSTRUMENTATIONS  comma separated names, "none" to enable all
//	TRACING_DEBUG                   mirror spans to the console
//	TRACING_MAX_QUEUE_SIZE, TRACING_EXPORT_TIMEOUT, TRACING_SHUTDOWN_TIMEOUT
//
// The returned Config has been validated. A missing API key is not an error.
func LoadConfig() (Config, error) {
	return parseConfig(env.Options{})
}

// parseConfig is LoadConfig with injectable env options, for tests.
func parseConfig(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, &ConfigError{Field: "environment", Err: err}
	}
	cfg.DisabledInstrumentations = normalizeNames(cfg.DisabledInstrumentations)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid field as a *ConfigError.
// It does not check APIKey: a missing key disables tracing instead of failing.
func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return &ConfigError{Field: "ServiceName", Err: ErrMissingServiceName}
	}

	u, err := url.Parse(c.EndpointURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &ConfigError{Field: "EndpointURL", Err: fmt.Errorf("%w: %q", ErrInvalidEndpoint, c.EndpointURL)}
	}

	if math.IsNaN(c.SamplingRatio) || c.SamplingRatio < 0 || c.SamplingRatio > 1 {
		return &ConfigError{Field: "SamplingRatio", Err: fmt.Errorf("%w: %v", ErrInvalidSamplingRatio, c.SamplingRatio)}
	}

	if c.MaxQueueSize <= 0 {
		return &ConfigError{Field: "MaxQueueSize", Err: fmt.Errorf("%w: %d", ErrInvalidQueueSize, c.MaxQueueSize)}
	}

	if c.ExportTimeout <= 0 {
		return &ConfigError{Field: "ExportTimeout", Err: fmt.Errorf("%w: %s", ErrInvalidTimeout, c.ExportTimeout)}
	}
	if c.ShutdownTimeout <= 0 {
		return &ConfigError{Field: "ShutdownTimeout", Err: fmt.Errorf("%w: %s", ErrInvalidTimeout, c.ShutdownTimeout)}
	}

	return nil
}

// withDefaults fills the fields whose zero value can only mean "not set".
// SamplingRatio is left untouched because 0 is a meaningful ratio.
func (c Config) withDefaults() Config {
	if c.ServiceVersion == "" {
		c.ServiceVersion = DefaultServiceVersion
	}
	if c.EndpointURL == "" {
		c.EndpointURL = DefaultEndpointURL
	}
	if c.MaxQueueSize == 0 {
		c.MaxQueueSize = DefaultMaxQueueSize
	}
	if c.ExportTimeout == 0 {
		c.ExportTimeout = DefaultExportTimeout
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = DefaultShutdownTimeout
	}
	c.DisabledInstrumentations = normalizeNames(c.DisabledInstrumentations)
	return c
}

// redacted returns log fields describing c without the API key.
func (c Config) redacted() map[string]interface{} {
	return map[string]interface{}{
		"service_name":              c.ServiceName,
		"service_version":           c.ServiceVersion,
		"deployment_environment":    c.DeploymentEnvironment,
		"endpoint":                  c.EndpointURL,
		"sampling_ratio":            c.SamplingRatio,
		"disabled_instrumentations": c.DisabledInstrumentations,
		"debug":                     c.Debug,
		"api_key_set":               c.APIKey != "",
	}
}

// normalizeNames lowercases and trims names, drops empties and duplicates,
// and maps the single value "none" to an empty list.
func normalizeNames(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n == "" || n == disableNone {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
