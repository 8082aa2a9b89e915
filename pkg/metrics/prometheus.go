package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	deliveries    *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	activeDevices prometheus.Gauge
	latency       *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		deliveries: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notifyinvest_deliveries_total",
				Help: "Delivery attempts by outcome",
			},
			[]string{"outcome"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notifyinvest_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		activeDevices: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "notifyinvest_active_devices",
				Help: "Active devices seen by the last dispatch",
			},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "notifyinvest_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordDelivery records one delivery attempt with its outcome.
func (r *Recorder) RecordDelivery(outcome string) {
	r.deliveries.WithLabelValues(outcome).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// RecordActiveDevices records the active device count.
func (r *Recorder) RecordActiveDevices(n int) {
	r.activeDevices.Set(float64(n))
}
