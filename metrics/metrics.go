// Package metrics provides Prometheus metrics for the edge host.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/wippyai/edge-abi/abi"
	"github.com/wippyai/edge-abi/resource"
)

// Default histogram buckets for request latency.
var defaultBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}

// Metrics holds all Prometheus collectors of the host. A nil *Metrics
// records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	HostCalls          *prometheus.CounterVec
	HandlesLive        *prometheus.GaugeVec
	DownstreamRequests *prometheus.CounterVec
	DownstreamDuration prometheus.Histogram
	BackendRequests    *prometheus.CounterVec
	BackendDuration    *prometheus.HistogramVec
}

// New creates a Metrics instance with a private registry and all collectors
// registered.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		Registry: reg,

		HostCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "edge_hostcalls_total",
			Help: "Host calls made by guests, by import module, function and status.",
		}, []string{"module", "func", "status"}),

		HandlesLive: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "edge_handles_live",
			Help: "Host handles currently allocated, by kind.",
		}, []string{"kind"}),

		DownstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "edge_downstream_requests_total",
			Help: "Downstream requests served, by response status code.",
		}, []string{"status_code"}),

		DownstreamDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "edge_downstream_request_duration_seconds",
			Help:    "Downstream request latency in seconds, guest execution included.",
			Buckets: defaultBuckets,
		}),

		BackendRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "edge_backend_requests_total",
			Help: "Requests sent to backends, by backend and status code.",
		}, []string{"backend", "status_code"}),

		BackendDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "edge_backend_request_duration_seconds",
			Help:    "Backend call latency in seconds.",
			Buckets: defaultBuckets,
		}, []string{"backend"}),
	}

	reg.MustRegister(
		m.HostCalls,
		m.HandlesLive,
		m.DownstreamRequests,
		m.DownstreamDuration,
		m.BackendRequests,
		m.BackendDuration,
	)

	for _, k := range resource.Kinds() {
		m.HandlesLive.WithLabelValues(k.String())
	}

	return m
}

// HostCall counts one host call.
func (m *Metrics) HostCall(module, fn string, status abi.Status) {
	if m == nil {
		return
	}
	m.HostCalls.WithLabelValues(module, fn, status.String()).Inc()
}

// Downstream records a served downstream request.
func (m *Metrics) Downstream(code int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.DownstreamRequests.WithLabelValues(StatusLabel(code)).Inc()
	m.DownstreamDuration.Observe(elapsed.Seconds())
}

// Backend records one backend round trip. A transport failure is recorded
// with code 0.
func (m *Metrics) Backend(name string, code int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.BackendRequests.WithLabelValues(name, StatusLabel(code)).Inc()
	m.BackendDuration.WithLabelValues(name).Observe(elapsed.Seconds())
}

// OnResourceEvent tracks live handles per kind.
func (m *Metrics) OnResourceEvent(e resource.Event) {
	if m == nil {
		return
	}
	g := m.HandlesLive.WithLabelValues(e.Kind.String())
	switch e.Type {
	case resource.EventCreated:
		g.Inc()
	case resource.EventDropped:
		g.Dec()
	}
}

// StatusLabel returns a bounded label for an HTTP status code. Codes outside
// 100..599 collapse to "other"; 0 means the request never got a response.
func StatusLabel(code int) string {
	switch {
	case code == 0:
		return "error"
	case code < 100 || code > 599:
		return "other"
	default:
		return strconv.Itoa(code)
	}
}

var _ resource.Observer = (*Metrics)(nil)
