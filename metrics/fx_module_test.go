package metrics_test

import (
	"io"
	"net"
	"net/http"
	"strings"
	"testing"

	"github.com/aalemi-dev/mackerel-tracing/logger"
	"github.com/aalemi-dev/mackerel-tracing/metrics"
	"github.com/aalemi-dev/mackerel-tracing/observability"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
)

func provideNopLogger() logger.Logger { return logger.NewNop() }

func scrape(t *testing.T, addr net.Addr) string {
	t.Helper()
	resp, err := http.Get("http://" + addr.String() + "/metrics")
	if err != nil {
		t.Fatalf("scrape %s: %v", addr, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return string(body)
}

func TestFXModule_ServesBothEndpoints(t *testing.T) {
	t.Parallel()
	var (
		m   *metrics.Metrics
		obs observability.Observer
		h   *metrics.HTTPMetrics
	)

	app := fxtest.New(t,
		metrics.FXModule,
		fx.Provide(func() metrics.Config {
			return metrics.Config{
				ServiceName:               "fx-test",
				SystemMetricsAddress:      "127.0.0.1:0",
				ApplicationMetricsAddress: "127.0.0.1:0",
			}
		}),
		fx.Provide(provideNopLogger),
		fx.Populate(&m, &obs, &h),
	)

	app.RequireStart()
	defer app.RequireStop()

	obs.ObserveOperation(observability.OperationContext{Component: "tracer", Operation: "start"})
	h.ObserveRequest("GET", "/health", 200, 0)

	appBody := scrape(t, m.ApplicationAddr())
	for _, want := range []string{"operations_total", "http_requests_total", `service="fx-test"`} {
		if !strings.Contains(appBody, want) {
			t.Errorf("application metrics missing %q", want)
		}
	}
	if strings.Contains(appBody, "go_goroutines") {
		t.Error("runtime metrics leaked into the application endpoint")
	}

	if !strings.Contains(scrape(t, m.SystemAddr()), "go_goroutines") {
		t.Error("system metrics missing go_goroutines")
	}
}

func TestFXModule_ProvidesCollectorInterface(t *testing.T) {
	t.Parallel()
	var collector metrics.MetricsCollector

	app := fxtest.New(t,
		metrics.FXModule,
		fx.Provide(func() metrics.Config {
			return metrics.Config{
				ServiceName:               "fx-test",
				SystemMetricsAddress:      metrics.Disabled,
				ApplicationMetricsAddress: metrics.Disabled,
			}
		}),
		fx.Provide(provideNopLogger),
		fx.Populate(&collector),
	)

	app.RequireStart()
	defer app.RequireStop()

	if collector == nil {
		t.Fatal("expected non-nil MetricsCollector")
	}
}

func TestRegisterMetricsLifecycle_BothServersNil(t *testing.T) {
	t.Parallel()
	m := metrics.NewMetrics(metrics.Config{
		ServiceName:               "nil-servers-test",
		SystemMetricsAddress:      metrics.Disabled,
		ApplicationMetricsAddress: metrics.Disabled,
	})

	app := fxtest.New(t,
		fx.Provide(func() *metrics.Metrics { return m }),
		fx.Provide(provideNopLogger),
		fx.Invoke(metrics.RegisterMetricsLifecycle),
	)

	app.RequireStart()
	app.RequireStop()

	if m.SystemAddr() != nil || m.ApplicationAddr() != nil {
		t.Error("disabled servers must not report an address")
	}
}

func TestRegisterMetricsLifecycle_PortInUseFailsStart(t *testing.T) {
	t.Parallel()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	m := metrics.NewMetrics(metrics.Config{
		ServiceName:               "busy",
		SystemMetricsAddress:      "127.0.0.1:0",
		ApplicationMetricsAddress: ln.Addr().String(),
	})

	app := fxtest.New(t,
		fx.Provide(func() *metrics.Metrics { return m }),
		fx.Provide(provideNopLogger),
		fx.Invoke(metrics.RegisterMetricsLifecycle),
	)

	if err := app.Start(t.Context()); err == nil {
		_ = app.Stop(t.Context())
		t.Fatal("expected start to fail when the port is taken")
	}
}
