package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	RequestsTotal     *prometheus.CounterVec
	RequestDuration   *prometheus.HistogramVec
	SummariesComputed prometheus.Counter
}

// New creates and registers all Prometheus metrics. Call once from main;
// components tolerate a nil *Metrics so tests can skip registration.
func New() *Metrics {
	return &Metrics{
		RequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "seiwa_http_requests_total",
			Help: "Total HTTP requests by method and status code",
		}, []string{"method", "status"}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "seiwa_http_request_duration_seconds",
			Help:    "HTTP request latency by method",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		SummariesComputed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "seiwa_financial_summaries_total",
			Help: "Total number of financial summaries computed",
		}),
	}
}

// ObserveRequest records one completed HTTP request.
func (m *Metrics) ObserveRequest(method, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, status).Inc()
	m.RequestDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// IncrementSummariesComputed increments the summary counter by 1.
func (m *Metrics) IncrementSummariesComputed() {
	if m == nil {
		return
	}
	m.SummariesComputed.Inc()
}
