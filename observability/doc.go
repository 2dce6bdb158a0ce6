// Package observability defines the Observer hook shared by the packages of
// this module.
//
// A component that performs infrastructure work (the tracing pipeline
// starting its exporter, flushing spans on shutdown, the HTTP server
// answering a request) reports an OperationContext to an optional Observer:
//
//	if p.observer != nil {
//		p.observer.ObserveOperation(observability.OperationContext{
//			Component: "tracer",
//			Operation: "shutdown",
//			Resource:  p.cfg.EndpointURL,
//			Duration:  time.Since(start),
//			Error:     err,
//		})
//	}
//
// metrics.OperationObserver turns these notifications into Prometheus series.
package observability
