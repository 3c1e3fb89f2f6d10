package server

import (
	"net/http"
	"time"

	"github.com/desertthunder/unanetx/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "unanetx"

// Metrics counts job runs per server. Each Server owns its registry so tests can build many servers.
type Metrics struct {
	registry *prometheus.Registry
	runs     *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inflight prometheus.Gauge
}

// NewMetrics creates and registers the job collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "job_runs_total",
			Help:      "Job runs by job and final status.",
		}, []string{"job", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "job_duration_seconds",
			Help:      "Job run time in seconds.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900},
		}, []string{"job"}),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "jobs_in_flight",
			Help:      "Jobs currently running.",
		}),
	}
	m.registry.MustRegister(m.runs, m.duration, m.inflight)
	return m
}

// Start marks a job as running and returns a func that records its outcome.
func (m *Metrics) Start(job models.Job) func(err error) {
	if m == nil {
		return func(error) {}
	}

	start := time.Now()
	m.inflight.Inc()
	return func(err error) {
		m.inflight.Dec()
		status := models.StatusSucceeded
		if err != nil {
			status = models.StatusFailed
		}
		m.runs.WithLabelValues(string(job), string(status)).Inc()
		m.duration.WithLabelValues(string(job)).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
