package logger

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Log level constants accepted by Config.Level.
const (
	// Debug enables every log entry.
	Debug = "debug"

	// Info is the default level: info, warning and error entries.
	Info = "info"

	// Warning suppresses debug and info entries.
	Warning = "warning"

	// Error only keeps error entries.
	Error = "error"
)

// Output encodings accepted by Config.Format.
const (
	// FormatJSON writes one JSON object per entry. This is the default.
	FormatJSON = "json"

	// FormatConsole writes human readable, colored lines. Meant for local runs.
	FormatConsole = "console"
)

// Config defines the configuration structure for the logger.
// Every field can be populated from the environment through the env tags.
type Config struct {
	// Level determines the minimum log level that will be output.
	// Valid values are "debug", "info", "warning" (or "warn") and "error".
	// Unknown values fall back to "info".
	Level string `env:"LOG_LEVEL" envDefault:"info"`

	// Format selects the encoder, either "json" or "console".
	Format string `env:"LOG_FORMAT" envDefault:"json"`

	// EnableTracing controls whether the *WithContext methods attach
	// trace_id and span_id of the active span to each entry.
	EnableTracing bool `env:"LOG_ENABLE_TRACING" envDefault:"true"`

	// ServiceName populates the "service" field of every entry.
	// When left empty it is usually copied from the tracing service name.
	ServiceName string `env:"LOG_SERVICE_NAME"`

	// CallerSkip controls the number of stack frames to skip when reporting the caller.
	// 1 (the default when unset) reports the code calling LoggerClient directly;
	// raise it by one for each wrapper layer you put around the logger.
	CallerSkip int `env:"LOG_CALLER_SKIP" envDefault:"1"`
}

// normalizedLevel folds the accepted spellings of a level into one of the constants.
func (c Config) normalizedLevel() string {
	switch strings.ToLower(strings.TrimSpace(c.Level)) {
	case Debug:
		return Debug
	case Warning, "warn":
		return Warning
	case Error:
		return Error
	default:
		return Info
	}
}

// LoadConfig reads the Config from the process environment.
func LoadConfig() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("logger: parse environment: %w", err)
	}
	return cfg, nil
}
