package metrics_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aalemi-dev/mackerel-tracing/metrics"
	"github.com/aalemi-dev/mackerel-tracing/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

var errTest = errors.New("flush timed out")

// newAppMetrics returns a Metrics with only the application endpoint active.
func newAppMetrics(t *testing.T) *metrics.Metrics {
	t.Helper()
	return metrics.NewMetrics(metrics.Config{
		ServiceName:               "test-service",
		SystemMetricsAddress:      metrics.Disabled,
		ApplicationMetricsAddress: "127.0.0.1:0",
	})
}

func TestNewMetrics_Endpoints(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name                    string
		systemAddress           string
		applicationAddress      string
		expectSystemServer      bool
		expectApplicationServer bool
	}{
		{"defaults", "", "", true, true},
		{"explicit ports", "127.0.0.1:0", "127.0.0.1:0", true, true},
		{"only system", "127.0.0.1:0", metrics.Disabled, true, false},
		{"only application", metrics.Disabled, "127.0.0.1:0", false, true},
		{"both disabled", metrics.Disabled, metrics.Disabled, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := metrics.NewMetrics(metrics.Config{
				SystemMetricsAddress:      tt.systemAddress,
				ApplicationMetricsAddress: tt.applicationAddress,
				ServiceName:               "test-service",
			})

			if tt.expectSystemServer != (m.SystemServer != nil) {
				t.Errorf("SystemServer present = %v, want %v", m.SystemServer != nil, tt.expectSystemServer)
			}
			if tt.expectSystemServer != (m.SystemRegistry != nil) {
				t.Errorf("SystemRegistry present = %v, want %v", m.SystemRegistry != nil, tt.expectSystemServer)
			}
			if tt.expectApplicationServer != (m.ApplicationServer != nil) {
				t.Errorf("ApplicationServer present = %v, want %v", m.ApplicationServer != nil, tt.expectApplicationServer)
			}
			if m.ApplicationRegistry == nil {
				t.Error("ApplicationRegistry must always exist")
			}
		})
	}
}

func TestNewMetrics_DefaultAddresses(t *testing.T) {
	t.Parallel()
	m := metrics.NewMetrics(metrics.Config{ServiceName: "defaults"})
	if m.SystemServer.Addr != metrics.DefaultSystemMetricsAddress {
		t.Errorf("system address = %q, want %q", m.SystemServer.Addr, metrics.DefaultSystemMetricsAddress)
	}
	if m.ApplicationServer.Addr != metrics.DefaultApplicationMetricsAddress {
		t.Errorf("application address = %q, want %q", m.ApplicationServer.Addr, metrics.DefaultApplicationMetricsAddress)
	}
}

func TestSystemRegistry_HasRuntimeCollectors(t *testing.T) {
	t.Parallel()
	m := metrics.NewMetrics(metrics.Config{ServiceName: "runtime", ApplicationMetricsAddress: metrics.Disabled})

	if n, err := testutil.GatherAndCount(m.SystemRegistry, "go_goroutines"); err != nil || n != 1 {
		t.Errorf("go_goroutines series = %d, err = %v", n, err)
	}
}

func TestCreateMetrics_CarryServiceLabel(t *testing.T) {
	t.Parallel()
	m := newAppMetrics(t)

	c := m.CreateCounter("jobs_total", "Jobs.", []string{"queue"})
	c.WithLabelValues("default").Inc()
	c.WithLabelValues("default").Add(2)
	// Relabeling an already labeled counter returns the same child.
	c.WithLabelValues("default").WithLabelValues("ignored").Inc()

	g := m.CreateGauge("queue_depth", "Depth.", nil)
	g.Set(10)
	g.Inc()
	g.Dec()
	g.Add(-4)

	h := m.CreateHistogram("job_seconds", "Job duration.", []string{"queue"}, []float64{1})
	h.WithLabelValues("default").Observe(0.5)

	expected := `
# HELP jobs_total Jobs.
# TYPE jobs_total counter
jobs_total{queue="default",service="test-service"} 4
# HELP queue_depth Depth.
# TYPE queue_depth gauge
queue_depth{service="test-service"} 6
`
	if err := testutil.GatherAndCompare(m.ApplicationRegistry, strings.NewReader(expected), "jobs_total", "queue_depth"); err != nil {
		t.Error(err)
	}
	if n, _ := testutil.GatherAndCount(m.ApplicationRegistry, "job_seconds"); n != 1 {
		t.Errorf("job_seconds series = %d, want 1", n)
	}
}

func TestCreateCounter_DuplicatePanics(t *testing.T) {
	t.Parallel()
	m := newAppMetrics(t)
	m.CreateCounter("dup_total", "help", nil)

	defer func() {
		if recover() == nil {
			t.Error("expected a panic for a duplicate metric")
		}
	}()
	m.CreateCounter("dup_total", "help", nil)
}

func TestOperationObserver(t *testing.T) {
	t.Parallel()
	m := newAppMetrics(t)
	var obs observability.Observer = metrics.NewOperationObserver(m)

	obs.ObserveOperation(observability.OperationContext{Component: "tracer", Operation: "start", Duration: 2 * time.Millisecond})
	obs.ObserveOperation(observability.OperationContext{Component: "tracer", Operation: "shutdown", Duration: time.Second})
	obs.ObserveOperation(observability.OperationContext{Component: "tracer", Operation: "shutdown", Error: errTest})

	expected := `
# HELP operations_total Completed infrastructure operations.
# TYPE operations_total counter
operations_total{component="tracer",operation="shutdown",service="test-service",status="error"} 1
operations_total{component="tracer",operation="shutdown",service="test-service",status="success"} 1
operations_total{component="tracer",operation="start",service="test-service",status="success"} 1
`
	if err := testutil.GatherAndCompare(m.ApplicationRegistry, strings.NewReader(expected), "operations_total"); err != nil {
		t.Error(err)
	}
	if n, _ := testutil.GatherAndCount(m.ApplicationRegistry, "operation_duration_seconds"); n != 3 {
		t.Errorf("operation_duration_seconds series = %d, want 3", n)
	}
}

func TestHTTPMetrics(t *testing.T) {
	t.Parallel()
	m := newAppMetrics(t)
	h := metrics.NewHTTPMetrics(m)

	done := h.Begin()
	inFlight := `
# HELP http_requests_in_flight HTTP requests being served.
# TYPE http_requests_in_flight gauge
http_requests_in_flight{service="test-service"} 1
`
	if err := testutil.GatherAndCompare(m.ApplicationRegistry, strings.NewReader(inFlight), "http_requests_in_flight"); err != nil {
		t.Error(err)
	}
	done()

	h.ObserveRequest("GET", "/hello", 200, 150*time.Millisecond)
	h.ObserveRequest("POST", "/users", 400, time.Millisecond)

	expected := `
# HELP http_requests_in_flight HTTP requests being served.
# TYPE http_requests_in_flight gauge
http_requests_in_flight{service="test-service"} 0
# HELP http_requests_total Handled HTTP requests.
# TYPE http_requests_total counter
http_requests_total{method="GET",route="/hello",service="test-service",status="200"} 1
http_requests_total{method="POST",route="/users",service="test-service",status="400"} 1
`
	if err := testutil.GatherAndCompare(m.ApplicationRegistry, strings.NewReader(expected), "http_requests_in_flight", "http_requests_total"); err != nil {
		t.Error(err)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("METRICS_SYSTEM_ADDRESS", "")
	t.Setenv("METRICS_APPLICATION_ADDRESS", metrics.Disabled)
	t.Setenv("METRICS_SERVICE_NAME", "from-env")

	cfg, err := metrics.LoadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.SystemMetricsAddress != metrics.DefaultSystemMetricsAddress {
		t.Errorf("system address = %q", cfg.SystemMetricsAddress)
	}
	if cfg.ApplicationMetricsAddress != metrics.Disabled {
		t.Errorf("application address = %q", cfg.ApplicationMetricsAddress)
	}
	if cfg.ServiceName != "from-env" {
		t.Errorf("service name = %q", cfg.ServiceName)
	}
}

func TestMetrics_ImplementsCollector(t *testing.T) {
	t.Parallel()
	var _ metrics.MetricsCollector = newAppMetrics(t)
}
