package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// CreateCounter creates a counter and registers it to the application registry.
// It panics if a metric with the same name is already registered.
//
// Example:
//
//	c := m.CreateCounter("users_created_total", "Users created", []string{"source"})
//	c.WithLabelValues("api").Inc()
func (m *Metrics) CreateCounter(name, help string, labels []string) Counter {
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{Name: name, Help: help}, labels)
	m.applicationRegisterer.MustRegister(vec)
	return &counterVec{vec: vec}
}

// CreateHistogram creates a histogram and registers it to the application registry.
// A nil buckets slice selects prometheus.DefBuckets.
func (m *Metrics) CreateHistogram(name, help string, labels []string, buckets []float64) Histogram {
	vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: name, Help: help, Buckets: buckets}, labels)
	m.applicationRegisterer.MustRegister(vec)
	return &histogramVec{vec: vec}
}

// CreateGauge creates a gauge and registers it to the application registry.
func (m *Metrics) CreateGauge(name, help string, labels []string) Gauge {
	vec := prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: name, Help: help}, labels)
	m.applicationRegisterer.MustRegister(vec)
	return &gaugeVec{vec: vec}
}
