package observability

import "time"

// Observer receives a notification every time an infrastructure operation
// completes. It lets callers hook metrics, logs or alerts onto packages such
// as tracer without those packages depending on a specific backend.
//
// Observers are optional; a nil Observer must never be called.
type Observer interface {
	// ObserveOperation is called when an operation completes, successfully or not.
	// Implementations must be safe for concurrent use and must not block.
	ObserveOperation(ctx OperationContext)
}

// ObserverFunc adapts an ordinary function to the Observer interface.
type ObserverFunc func(ctx OperationContext)

// ObserveOperation calls f(ctx).
func (f ObserverFunc) ObserveOperation(ctx OperationContext) {
	f(ctx)
}

// OperationContext describes one completed operation.
type OperationContext struct {
	// Component is the package that performed the operation, e.g. "tracer".
	Component string

	// Operation is what was done, e.g. "start" or "shutdown".
	Operation string

	// Resource is the primary target, e.g. the OTLP endpoint for the tracer.
	Resource string

	// Duration is how long the operation took.
	Duration time.Duration

	// Error is the result of the operation; nil on success.
	Error error
}
