// Package telemetry exposes Prometheus collectors for dispatch outcomes and
// origin responses. A nil *Metrics is valid and records nothing.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dispatch outcomes.
const (
	OutcomeService = "service"
	OutcomeFile    = "file"
	OutcomeProxy   = "proxy"
)

var histogramBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10}

// Metrics groups the dispatcher collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	dispatchTotal    *prometheus.CounterVec
	dispatchDuration *prometheus.HistogramVec
	upstreamTotal    *prometheus.CounterVec
	replyFailures    *prometheus.CounterVec
}

// NewMetrics registers the collectors on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		dispatchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "devweb",
			Name:      "dispatch_total",
			Help:      "Requests by dispatch outcome",
		}, []string{"outcome", "status"}),
		dispatchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "devweb",
			Name:      "dispatch_duration_seconds",
			Help:      "Time from request arrival to reply emission",
			Buckets:   histogramBuckets,
		}, []string{"outcome"}),
		upstreamTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "devweb",
			Name:      "upstream_responses_total",
			Help:      "Origin responses by status class; transport failures count as error",
		}, []string{"status_class"}),
		replyFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "devweb",
			Name:      "reply_failures_total",
			Help:      "Failures surfaced to clients by kind",
		}, []string{"kind"}),
	}
	m.registry.MustRegister(
		m.dispatchTotal,
		m.dispatchDuration,
		m.upstreamTotal,
		m.replyFailures,
		collectors.NewGoCollector(),
	)
	return m
}

// ObserveDispatch records one emitted reply.
func (m *Metrics) ObserveDispatch(outcome string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.dispatchTotal.With(prometheus.Labels{
		"outcome": outcome,
		"status":  strconv.Itoa(status),
	}).Inc()
	m.dispatchDuration.With(prometheus.Labels{"outcome": outcome}).Observe(elapsed.Seconds())
}

// ObserveUpstream records an origin response status, or a transport failure
// when status is 0.
func (m *Metrics) ObserveUpstream(status int) {
	if m == nil {
		return
	}
	m.upstreamTotal.With(prometheus.Labels{"status_class": statusClass(status)}).Inc()
}

// ObserveFailure counts a failure kind such as transport, stream or service.
func (m *Metrics) ObserveFailure(kind string) {
	if m == nil {
		return
	}
	m.replyFailures.With(prometheus.Labels{"kind": kind}).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Gatherer exposes the registry for tests and embedding.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

func statusClass(status int) string {
	if status <= 0 {
		return "error"
	}
	return strconv.Itoa(status/100) + "xx"
}
