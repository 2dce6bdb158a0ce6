package metrics

// MetricsCollector creates application metrics without exposing Prometheus
// types. *Metrics implements it; everything it creates is registered to the
// application registry and served on the application endpoint.
type MetricsCollector interface {
	// CreateCounter creates a cumulative counter.
	//
	//   c := m.CreateCounter("http_requests_total", "Total HTTP requests", []string{"method", "status"})
	//   c.WithLabelValues("GET", "200").Inc()
	CreateCounter(name, help string, labels []string) Counter

	// CreateHistogram creates a histogram with the given buckets.
	CreateHistogram(name, help string, labels []string, buckets []float64) Histogram

	// CreateGauge creates a gauge.
	CreateGauge(name, help string, labels []string) Gauge
}
