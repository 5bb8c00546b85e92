// ABOUTME: Prometheus metrics for tool invocations, transfers and HTTP requests
// ABOUTME: Uses a private registry so tests and multiple gateways never collide

package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Tool invocation outcomes.
const (
	OutcomeOK            = "ok"
	OutcomeNotFound      = "not_found"
	OutcomeInvalidInput  = "invalid_input"
	OutcomeInvalidOutput = "invalid_output"
	OutcomeError         = "error"
)

// UnknownTool is the tool label recorded for names missing from the registry.
const UnknownTool = "unknown"

// Metrics holds the gateway's collectors. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	toolInvocations *prometheus.CounterVec
	toolDuration    *prometheus.HistogramVec
	transfers       *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
}

// New creates and registers all collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		toolInvocations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "toolgate_tool_invocations_total",
				Help: "Tool invocations by tool and outcome.",
			},
			[]string{"tool", "outcome"},
		),
		toolDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "toolgate_tool_duration_seconds",
				Help:    "Tool invocation duration in seconds by tool.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"tool"},
		),
		transfers: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "toolgate_transfers_total",
				Help: "Wallet transfers by resulting status.",
			},
			[]string{"status"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "toolgate_http_requests_total",
				Help: "HTTP requests by route pattern and status code.",
			},
			[]string{"route", "code"},
		),
	}

	m.registry.MustRegister(
		m.toolInvocations,
		m.toolDuration,
		m.transfers,
		m.httpRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveTool records one invocation.
func (m *Metrics) ObserveTool(tool, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.toolInvocations.WithLabelValues(tool, outcome).Inc()
	m.toolDuration.WithLabelValues(tool).Observe(d.Seconds())
}

// ObserveTransfer records a wallet transfer result.
func (m *Metrics) ObserveTransfer(status string) {
	if m == nil {
		return
	}
	m.transfers.WithLabelValues(status).Inc()
}

// ObserveHTTP records a served request.
func (m *Metrics) ObserveHTTP(route string, code int) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
