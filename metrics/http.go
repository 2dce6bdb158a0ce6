package metrics

import (
	"strconv"
	"time"
)

// HTTPMetrics holds the request metrics of an HTTP server:
//
//	http_requests_total{method, route, status}
//	http_request_duration_seconds{method, route}
//	http_requests_in_flight
type HTTPMetrics struct {
	requests Counter
	duration Histogram
	inFlight Gauge
}

// NewHTTPMetrics registers the HTTP request metrics on m.
func NewHTTPMetrics(m MetricsCollector) *HTTPMetrics {
	return &HTTPMetrics{
		requests: m.CreateCounter("http_requests_total", "Handled HTTP requests.", []string{"method", "route", "status"}),
		duration: m.CreateHistogram("http_request_duration_seconds", "HTTP request latency.", []string{"method", "route"}, nil),
		inFlight: m.CreateGauge("http_requests_in_flight", "HTTP requests being served.", nil),
	}
}

// Begin marks a request as in flight. Call the returned function exactly
// once when the request is done.
func (h *HTTPMetrics) Begin() func() {
	h.inFlight.Inc()
	return h.inFlight.Dec
}

// ObserveRequest records one completed request. route should be the route
// pattern, not the raw path, to keep label cardinality bounded.
func (h *HTTPMetrics) ObserveRequest(method, route string, status int, d time.Duration) {
	h.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	h.duration.WithLabelValues(method, route).Observe(d.Seconds())
}
