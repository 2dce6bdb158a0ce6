package metrics

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// readHeaderTimeout bounds how long a scrape may take to send its headers.
const readHeaderTimeout = 5 * time.Second

// Metrics holds two Prometheus registries and the HTTP servers exposing them:
//  1. System metrics (Go runtime, process, build info) on SystemServer
//  2. Application metrics (operation, HTTP and custom metrics) on ApplicationServer
//
// A server is nil when its endpoint is disabled.
type Metrics struct {
	// SystemServer serves SystemRegistry on /metrics.
	SystemServer *http.Server

	// ApplicationServer serves ApplicationRegistry on /metrics.
	ApplicationServer *http.Server

	// SystemRegistry holds the runtime and process collectors.
	// It is nil when the system endpoint is disabled.
	SystemRegistry *prometheus.Registry

	// ApplicationRegistry holds every metric created through this package.
	// It always exists, even when the application endpoint is disabled.
	ApplicationRegistry *prometheus.Registry

	// applicationRegisterer adds the service label to every application metric.
	applicationRegisterer prometheus.Registerer

	mu              sync.Mutex
	systemAddr      net.Addr
	applicationAddr net.Addr
}

// NewMetrics builds the registries and the (not yet listening) servers
// described by cfg. Every metric gets a constant service label.
//
// Example:
//
//	m := metrics.NewMetrics(metrics.Config{ServiceName: "sample-server"})
//	requests := m.CreateCounter("jobs_total", "Processed jobs", []string{"queue"})
//	requests.WithLabelValues("default").Inc()
func NewMetrics(cfg Config) *Metrics {
	labels := prometheus.Labels{"service": cfg.ServiceName}
	m := &Metrics{ApplicationRegistry: prometheus.NewRegistry()}
	m.applicationRegisterer = prometheus.WrapRegistererWith(labels, m.ApplicationRegistry)

	if addr := cfg.systemAddress(); addr != "" {
		m.SystemRegistry = prometheus.NewRegistry()
		prometheus.WrapRegistererWith(labels, m.SystemRegistry).MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			collectors.NewBuildInfoCollector(),
		)
		m.SystemServer = newServer(addr, m.SystemRegistry)
	}

	if addr := cfg.applicationAddress(); addr != "" {
		m.ApplicationServer = newServer(addr, m.ApplicationRegistry)
	}

	return m
}

func newServer(addr string, registry *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

// SystemAddr returns the address the system server listens on once started, or nil.
func (m *Metrics) SystemAddr() net.Addr {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.systemAddr
}

// ApplicationAddr returns the address the application server listens on once started, or nil.
func (m *Metrics) ApplicationAddr() net.Addr {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.applicationAddr
}
