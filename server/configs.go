package server

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"
)

// ErrInvalidPort is returned when Config.Port is outside 0..65535.
var ErrInvalidPort = errors.New("port must be within 0..65535")

// Config defines the HTTP server settings.
type Config struct {
	// Host is the interface to listen on. Empty means all interfaces.
	Host string `env:"SERVER_HOST"`

	// Port to listen on. 0 picks a free port.
	Port int `env:"PORT" envDefault:"3000"`

	ReadHeaderTimeout time.Duration `env:"SERVER_READ_HEADER_TIMEOUT" envDefault:"5s"`
	ReadTimeout       time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout      time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"15s"`
	IdleTimeout       time.Duration `env:"SERVER_IDLE_TIMEOUT" envDefault:"60s"`

	// ShutdownTimeout bounds how long in-flight requests may take to finish on stop.
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"5s"`

	// WorkDelay is the simulated asynchronous work done by /hello and POST /users.
	WorkDelay time.Duration `env:"SERVER_WORK_DELAY" envDefault:"150ms"`
}

// LoadConfig reads the Config from the process environment and validates it.
func LoadConfig() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("server: parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the port range.
func (c Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("server: %w: %d", ErrInvalidPort, c.Port)
	}
	return nil
}

// Address returns the host:port listen address.
func (c Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
