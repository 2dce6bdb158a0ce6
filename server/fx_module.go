package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/aalemi-dev/mackerel-tracing/logger"
	"github.com/aalemi-dev/mackerel-tracing/metrics"
	"github.com/aalemi-dev/mackerel-tracing/tracer"
	"go.uber.org/fx"
)

// FXModule provides the sample HTTP server and runs it for the lifetime of
// the application. It requires a server Config, a tracer Config, a
// logger.Logger and the *tracer.Pipeline; *metrics.HTTPMetrics is optional.
var FXModule = fx.Module("server",
	fx.Provide(NewServerWithDI),
	fx.Invoke(RegisterServerLifecycle),
)

// ServerParams groups the dependencies of NewServerWithDI.
type ServerParams struct {
	fx.In

	Config   Config
	Logger   logger.Logger
	Pipeline *tracer.Pipeline
	Metrics  *metrics.HTTPMetrics `optional:"true"`
}

// NewServerWithDI builds the Server from the container.
func NewServerWithDI(p ServerParams) *Server {
	return NewServer(p.Config, p.Logger, p.Pipeline, p.Metrics)
}

// RegisterServerLifecycle starts listening on application start and drains
// in-flight requests on stop. The server stops before the tracer, whose hook
// was registered earlier, so request spans are flushed.
func RegisterServerLifecycle(lc fx.Lifecycle, s *Server, tracing tracer.Config) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := s.Start(); err != nil {
				return err
			}
			s.logReminders(tracing)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			// Stop logs its own failure.
			_ = s.Stop(ctx)
			return nil
		},
	})
}

// Start binds the listen address and serves in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Address())
	if err != nil {
		return fmt.Errorf("server: listen on %s: %w", s.cfg.Address(), err)
	}
	s.mu.Lock()
	s.addr = ln.Addr()
	s.mu.Unlock()

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("http server stopped unexpectedly", err, nil)
		}
	}()

	port := ln.Addr().(*net.TCPAddr).Port
	s.log.Info(fmt.Sprintf("App listening at http://localhost:%d", port), nil, map[string]interface{}{
		"address": ln.Addr().String(),
	})
	return nil
}

// Stop waits for in-flight requests, bounded by Config.ShutdownTimeout and ctx.
func (s *Server) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.log.Error("http server shutdown failed", err, nil)
		return fmt.Errorf("server: shutdown: %w", err)
	}
	s.log.Info("http server stopped", nil)
	return nil
}

func (s *Server) logReminders(tracing tracer.Config) {
	if s.pipeline == nil {
		s.log.Warn("Reminder: MACKEREL_API_KEY is not set. Traces won't be sent to Mackerel.", nil)
	}
	s.log.Info("Service name for tracing: "+tracing.ServiceName, nil)
}
