// Package metrics exposes Prometheus metrics on two HTTP endpoints.
//
// The system endpoint (default :9090) serves the Go runtime, process and
// build info collectors. The application endpoint (default :9091) serves
// everything created through the package:
//
//   - OperationObserver: an observability.Observer counting and timing the
//     operations reported by other packages, such as the tracer's exporter
//     start and shutdown
//   - HTTPMetrics: request count, latency and in-flight requests of an HTTP server
//   - custom counters, gauges and histograms from CreateCounter and friends
//
// Every metric carries a constant service label taken from Config.ServiceName.
//
// # Configuration
//
//	METRICS_SYSTEM_ADDRESS       listen address, "off" to disable
//	METRICS_APPLICATION_ADDRESS  listen address, "off" to disable
//	METRICS_SERVICE_NAME         value of the service label
//
// # FX Module Integration
//
//	app := fx.New(
//	    logger.FXModule,
//	    metrics.FXModule,
//	    fx.Provide(metrics.LoadConfig),
//	)
//
// The servers bind when the application starts; a port that is already in
// use makes startup fail.
package metrics
