// Command sample-server runs the traced sample HTTP service.
//
// Configuration comes from the environment, optionally seeded from a .env
// file. Traces are shipped to Mackerel when MACKEREL_API_KEY is set.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/aalemi-dev/mackerel-tracing/logger"
	"github.com/aalemi-dev/mackerel-tracing/metrics"
	"github.com/aalemi-dev/mackerel-tracing/server"
	"github.com/aalemi-dev/mackerel-tracing/tracer"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap/zapcore"
)

// stopGrace is added to the component shutdown timeouts to get the fx stop timeout.
const stopGrace = 2 * time.Second

type options struct {
	envFile string
	port    int
}

type configs struct {
	Logger  logger.Config
	Metrics metrics.Config
	Tracer  tracer.Config
	Server  server.Config
}

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:          "sample-server",
		Short:        "Run the Mackerel tracing sample HTTP server",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("port") {
				opts.port = -1
			}
			return run(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before reading the environment; ignored when missing")
	cmd.Flags().IntVar(&opts.port, "port", 0, "listen port, overrides PORT")
	return cmd
}

func run(ctx context.Context, opts options) error {
	if err := loadEnvFile(opts.envFile); err != nil {
		return err
	}
	cfgs, err := loadConfigs(opts)
	if err != nil {
		return err
	}

	app := fx.New(appOptions(cfgs)...)
	if err := app.Err(); err != nil {
		return fmt.Errorf("build application: %w", err)
	}

	startCtx, cancel := context.WithTimeout(ctx, app.StartTimeout())
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return fmt.Errorf("start application: %w", err)
	}

	<-app.Wait()

	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), app.StopTimeout())
	defer cancel()
	return app.Stop(stopCtx)
}

// loadEnvFile never overrides variables already present in the environment.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func loadConfigs(opts options) (configs, error) {
	var (
		cfgs configs
		err  error
	)
	if cfgs.Tracer, err = tracer.LoadConfig(); err != nil {
		return configs{}, err
	}
	if cfgs.Logger, err = logger.LoadConfig(); err != nil {
		return configs{}, err
	}
	if cfgs.Metrics, err = metrics.LoadConfig(); err != nil {
		return configs{}, err
	}
	if cfgs.Server, err = server.LoadConfig(); err != nil {
		return configs{}, err
	}

	if opts.port >= 0 {
		cfgs.Server.Port = opts.port
		if err := cfgs.Server.Validate(); err != nil {
			return configs{}, err
		}
	}
	if cfgs.Logger.ServiceName == "" {
		cfgs.Logger.ServiceName = cfgs.Tracer.ServiceName
	}
	if cfgs.Metrics.ServiceName == "" {
		cfgs.Metrics.ServiceName = cfgs.Tracer.ServiceName
	}
	return cfgs, nil
}

// appOptions wires the modules. Order matters for shutdown: fx stops hooks
// in reverse, so the server drains first, then the tracer flushes, then the
// metrics endpoints close and finally the logger syncs.
func appOptions(cfgs configs) []fx.Option {
	stopTimeout := cfgs.Server.ShutdownTimeout + cfgs.Tracer.ShutdownTimeout + stopGrace
	return []fx.Option{
		fx.Supply(cfgs.Logger, cfgs.Metrics, cfgs.Tracer, cfgs.Server),
		fx.StopTimeout(stopTimeout),
		fx.WithLogger(func(l *logger.LoggerClient) fxevent.Logger {
			zl := &fxevent.ZapLogger{Logger: l.Zap.Named("fx")}
			zl.UseLogLevel(zapcore.DebugLevel)
			return zl
		}),
		logger.FXModule,
		metrics.FXModule,
		tracer.FXModule,
		server.FXModule,
	}
}
