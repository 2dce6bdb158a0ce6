package tracer

import (
	"errors"
	"fmt"
)

// Sentinel errors. Match them with errors.Is; the typed errors below wrap them.
var (
	// ErrMissingAPIKey describes why tracing was disabled. Initialize does not
	// return it: it logs it and hands back a nil pipeline.
	ErrMissingAPIKey = errors.New("mackerel api key is not set")

	// ErrMissingServiceName is returned when Config.ServiceName is blank.
	ErrMissingServiceName = errors.New("service name is required")

	// ErrInvalidEndpoint is returned when Config.EndpointURL is not an absolute http(s) URL.
	ErrInvalidEndpoint = errors.New("invalid endpoint url")

	// ErrInvalidSamplingRatio is returned when Config.SamplingRatio is outside [0, 1].
	ErrInvalidSamplingRatio = errors.New("sampling ratio must be within [0, 1]")

	// ErrInvalidQueueSize is returned when Config.MaxQueueSize is not positive.
	ErrInvalidQueueSize = errors.New("max queue size must be positive")

	// ErrInvalidTimeout is returned when an export or shutdown timeout is not positive.
	ErrInvalidTimeout = errors.New("timeout must be positive")
)

// ConfigError reports a missing or malformed configuration value. It is
// raised while the pipeline is being built and is fatal to that step.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("tracer: invalid configuration %s: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// StartError reports that the exporter could not be started. The pipeline
// keeps running without remote export; the error is only logged.
type StartError struct {
	Endpoint string
	Err      error
}

func (e *StartError) Error() string {
	return fmt.Sprintf("tracer: start exporter for %s: %v", e.Endpoint, e.Err)
}

func (e *StartError) Unwrap() error { return e.Err }

// ShutdownError reports that buffered spans could not be flushed or the
// provider could not be released in time. Resources are released anyway.
type ShutdownError struct {
	Err error
}

func (e *ShutdownError) Error() string {
	return fmt.Sprintf("tracer: shutdown: %v", e.Err)
}

func (e *ShutdownError) Unwrap() error { return e.Err }
