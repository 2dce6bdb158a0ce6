package tracer

import (
	"context"

	"github.com/aalemi-dev/mackerel-tracing/logger"
	"github.com/aalemi-dev/mackerel-tracing/observability"
	"go.uber.org/fx"
)

// FXModule provides the tracing pipeline to an fx application.
//
// The module provides:
//  1. *Pipeline, which is nil when no API key is configured
//  2. the Tracer and Instrumenter interfaces backed by that pipeline
//  3. an OnStop hook that shuts the pipeline down
//
// It requires a Config in the container. logger.Logger and
// observability.Observer are used when present.
//
// Usage:
//
//	app := fx.New(
//	    logger.FXModule,
//	    tracer.FXModule,
//	    fx.Provide(tracer.LoadConfig),
//	)
//	app.Run()
//
// fx's Run stops the application on SIGINT or SIGTERM, which runs the
// shutdown hook once.
var FXModule = fx.Module("tracer",
	fx.Provide(
		NewPipelineWithDI,
		fx.Annotate(
			func(p *Pipeline) Tracer { return p },
			fx.As(new(Tracer)),
		),
		fx.Annotate(
			func(p *Pipeline) Instrumenter { return p },
			fx.As(new(Instrumenter)),
		),
	),
	fx.Invoke(RegisterPipelineLifecycle),
)

// PipelineParams groups the dependencies of NewPipelineWithDI.
type PipelineParams struct {
	fx.In

	Config   Config
	Logger   logger.Logger          `optional:"true"`
	Observer observability.Observer `optional:"true"`
}

// NewPipelineWithDI initializes the pipeline from the container. A
// *ConfigError aborts application startup.
func NewPipelineWithDI(params PipelineParams) (*Pipeline, error) {
	opts := []Option{WithObserver(params.Observer)}
	if params.Logger != nil {
		opts = append(opts, WithLogger(params.Logger))
	}
	return Initialize(context.Background(), params.Config, opts...)
}

// RegisterPipelineLifecycle shuts the pipeline down when the application
// stops. A failed flush has already been logged by Shutdown and is not
// returned, so that stopping on a signal still exits cleanly.
func RegisterPipelineLifecycle(lc fx.Lifecycle, p *Pipeline) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			_ = p.Shutdown(ctx)
			return nil
		},
	})
}
