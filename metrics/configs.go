package metrics

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Default addresses for the metrics servers.
const (
	DefaultSystemMetricsAddress      = ":9090"
	DefaultApplicationMetricsAddress = ":9091"
)

// Disabled is the address value that turns a metrics endpoint off.
// An empty value selects the default address.
const Disabled = "off"

// Config defines the configuration of the Prometheus metrics servers.
//
// The package exposes two endpoints:
//  1. System metrics: Go runtime, process and build info collectors
//  2. Application metrics: everything created through CreateCounter and friends,
//     including the operation and HTTP request metrics
type Config struct {
	// SystemMetricsAddress is the listen address of the system metrics server.
	// Set it to Disabled to turn the endpoint off.
	SystemMetricsAddress string `env:"METRICS_SYSTEM_ADDRESS" envDefault:":9090"`

	// ApplicationMetricsAddress is the listen address of the application
	// metrics server. Set it to Disabled to turn the endpoint off; metrics are
	// still collected in ApplicationRegistry.
	ApplicationMetricsAddress string `env:"METRICS_APPLICATION_ADDRESS" envDefault:":9091"`

	// ServiceName is added as a constant "service" label to every metric.
	ServiceName string `env:"METRICS_SERVICE_NAME"`
}

// LoadConfig reads the Config from the process environment.
func LoadConfig() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("metrics: parse environment: %w", err)
	}
	return cfg, nil
}

func (c Config) systemAddress() string {
	return resolveAddress(c.SystemMetricsAddress, DefaultSystemMetricsAddress)
}

func (c Config) applicationAddress() string {
	return resolveAddress(c.ApplicationMetricsAddress, DefaultApplicationMetricsAddress)
}

// resolveAddress returns "" for a disabled endpoint.
func resolveAddress(addr, def string) string {
	switch addr {
	case "":
		return def
	case Disabled:
		return ""
	default:
		return addr
	}
}
