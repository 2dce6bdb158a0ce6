package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/aalemi-dev/mackerel-tracing/logger"
	"github.com/aalemi-dev/mackerel-tracing/observability"
	"go.uber.org/fx"
)

// FXModule provides the metrics servers to an fx application.
//
// The module provides:
//  1. *Metrics and the MetricsCollector interface
//  2. *OperationObserver, also as observability.Observer, so that the tracer
//     reports its start and shutdown operations
//  3. *HTTPMetrics for the HTTP server middleware
//  4. lifecycle hooks starting and stopping both servers
//
// It requires a Config and a logger.Logger in the container.
var FXModule = fx.Module("metrics",
	fx.Provide(
		NewMetrics,
		fx.Annotate(
			func(m *Metrics) MetricsCollector { return m },
			fx.As(new(MetricsCollector)),
		),
		NewOperationObserver,
		fx.Annotate(
			func(o *OperationObserver) observability.Observer { return o },
			fx.As(new(observability.Observer)),
		),
		NewHTTPMetrics,
	),
	fx.Invoke(RegisterMetricsLifecycle),
)

// RegisterMetricsLifecycle binds both metrics servers when the application
// starts and shuts them down when it stops. A listen failure, such as a port
// already in use, aborts startup.
func RegisterMetricsLifecycle(lc fx.Lifecycle, m *Metrics, log logger.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := m.serve(m.SystemServer, "system", log, func(a net.Addr) { m.systemAddr = a }); err != nil {
				return err
			}
			if err := m.serve(m.ApplicationServer, "application", log, func(a net.Addr) { m.applicationAddr = a }); err != nil {
				if m.SystemServer != nil {
					_ = m.SystemServer.Close()
				}
				return err
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			m.shutdown(ctx, m.SystemServer, "system", log)
			m.shutdown(ctx, m.ApplicationServer, "application", log)
			return nil
		},
	})
}

func (m *Metrics) serve(srv *http.Server, name string, log logger.Logger, setAddr func(net.Addr)) error {
	if srv == nil {
		return nil
	}

	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return err
	}
	m.mu.Lock()
	setAddr(ln.Addr())
	m.mu.Unlock()

	log.Info("Starting "+name+" metrics server", nil, map[string]interface{}{
		"address": ln.Addr().String(),
	})
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Error serving "+name+" metrics", err, nil)
		}
	}()
	return nil
}

func (m *Metrics) shutdown(ctx context.Context, srv *http.Server, name string, log logger.Logger) {
	if srv == nil {
		return
	}
	log.Info("Shutting down "+name+" metrics server", nil)
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Error shutting down "+name+" metrics server", err, nil)
	}
}
