// Package metrics exposes Prometheus collectors for the service and pipeline.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "finsync"

// Metrics holds all collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	stageTotal        *prometheus.CounterVec
	documentsTotal    *prometheus.CounterVec
	documentsInFlight prometheus.Gauge
	invoicesTotal     prometheus.Counter
	batchDuration     *prometheus.HistogramVec
}

// New creates the collectors and registers them with Go runtime metrics.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"method", "route", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
		},
	)
	stageTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "stage_total",
			Help:      "Pipeline stage executions by outcome.",
		},
		[]string{"stage", "outcome"},
	)
	documentsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "documents_total",
			Help:      "Documents processed, by whether they yielded invoices.",
		},
		[]string{"result"},
	)
	documentsInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "documents_in_flight",
			Help:      "Documents currently in the pipeline.",
		},
	)
	invoicesTotal := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "invoices_total",
			Help:      "Invoice records extracted.",
		},
	)
	batchDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "batch_duration_seconds",
			Help:      "Batch processing duration in seconds by status.",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600, 1200},
		},
		[]string{"status"},
	)

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		requestTotal,
		requestDuration,
		requestInFlight,
		stageTotal,
		documentsTotal,
		documentsInFlight,
		invoicesTotal,
		batchDuration,
	)

	return &Metrics{
		registry:          registry,
		requestTotal:      requestTotal,
		requestDuration:   requestDuration,
		requestInFlight:   requestInFlight,
		stageTotal:        stageTotal,
		documentsTotal:    documentsTotal,
		documentsInFlight: documentsInFlight,
		invoicesTotal:     invoicesTotal,
		batchDuration:     batchDuration,
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// StartRequest marks a request in flight and returns a function that
// records its outcome.
func (m *Metrics) StartRequest(method, route string) func(status int) {
	if m == nil {
		return func(int) {}
	}
	start := time.Now()
	m.requestInFlight.Inc()
	return func(status int) {
		m.requestInFlight.Dec()
		if route == "" {
			route = "unmatched"
		}
		m.requestTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
		m.requestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

// ObserveStage counts one stage execution. ok=false marks a contained failure.
func (m *Metrics) ObserveStage(stage string, ok bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "degraded"
	}
	m.stageTotal.WithLabelValues(stage, outcome).Inc()
}

// StartDocument marks a document in flight.
func (m *Metrics) StartDocument() {
	if m == nil {
		return
	}
	m.documentsInFlight.Inc()
}

// FinishDocument records a finished document and its invoice count.
func (m *Metrics) FinishDocument(invoices int) {
	if m == nil {
		return
	}
	m.documentsInFlight.Dec()
	result := "extracted"
	if invoices == 0 {
		result = "empty"
	}
	m.documentsTotal.WithLabelValues(result).Inc()
	m.invoicesTotal.Add(float64(invoices))
}

// ObserveBatch records a batch duration by status.
func (m *Metrics) ObserveBatch(status string, d time.Duration) {
	if m == nil {
		return
	}
	m.batchDuration.WithLabelValues(status).Observe(d.Seconds())
}
