package metrics

import (
	"github.com/aalemi-dev/mackerel-tracing/observability"
)

// Status label values.
const (
	statusSuccess = "success"
	statusError   = "error"
)

// operationBuckets covers exporter starts (fast) up to bounded shutdowns (seconds).
var operationBuckets = []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10}

// OperationObserver records observability.OperationContext notifications as
// Prometheus metrics:
//
//	operations_total{component, operation, status}
//	operation_duration_seconds{component, operation, status}
type OperationObserver struct {
	total    Counter
	duration Histogram
}

// NewOperationObserver registers the operation metrics on m.
func NewOperationObserver(m MetricsCollector) *OperationObserver {
	labels := []string{"component", "operation", "status"}
	return &OperationObserver{
		total:    m.CreateCounter("operations_total", "Completed infrastructure operations.", labels),
		duration: m.CreateHistogram("operation_duration_seconds", "Duration of infrastructure operations.", labels, operationBuckets),
	}
}

// ObserveOperation implements observability.Observer.
func (o *OperationObserver) ObserveOperation(op observability.OperationContext) {
	status := statusSuccess
	if op.Error != nil {
		status = statusError
	}
	o.total.WithLabelValues(op.Component, op.Operation, status).Inc()
	o.duration.WithLabelValues(op.Component, op.Operation, status).Observe(op.Duration.Seconds())
}

var _ observability.Observer = (*OperationObserver)(nil)
