// Package metrics exposes prometheus collectors for the agent. A nil
// *Metrics is valid and records nothing.
package metrics

import (
	"strconv"
	"time"

	"github.com/Cyclone1070/kiro/internal/provider"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "kiro"

// Metrics groups every collector the process records.
type Metrics struct {
	BackendCalls    *prometheus.CounterVec
	BackendLatency  prometheus.Histogram
	ToolCalls       *prometheus.CounterVec
	Proposals       *prometheus.CounterVec
	Resolutions     *prometheus.CounterVec
	LoopResults     *prometheus.CounterVec
	ActiveSessions  prometheus.Gauge
	RequestCount    *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// New registers the collectors with reg. Pass prometheus.DefaultRegisterer
// in production and a fresh prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		BackendCalls: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "backend_calls_total",
				Help:      "Model backend calls by result code",
			},
			[]string{"result"},
		),
		BackendLatency: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "backend_latency_seconds",
				Help:      "Model backend latency in seconds",
				Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 80, 160},
			},
		),
		ToolCalls: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tool_calls_total",
				Help:      "Tool invocations by tool and success",
			},
			[]string{"tool", "success"},
		),
		Proposals: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "proposals_total",
				Help:      "Changes proposed for approval by kind",
			},
			[]string{"kind"},
		),
		Resolutions: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "resolutions_total",
				Help:      "Resolved changes by final status",
			},
			[]string{"status"},
		),
		LoopResults: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "loop_results_total",
				Help:      "Agent loop runs by the state they stopped in",
			},
			[]string{"state"},
		),
		ActiveSessions: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_sessions",
				Help:      "Number of open sessions",
			},
		),
		RequestCount: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
			},
			[]string{"method", "route"},
		),
	}
}

// ObserveBackend records one backend call.
func (m *Metrics) ObserveBackend(d time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = string(provider.CodeOf(err))
		if result == "" {
			result = "error"
		}
	}
	m.BackendCalls.WithLabelValues(result).Inc()
	m.BackendLatency.Observe(d.Seconds())
}

// ToolCall records a tool outcome.
func (m *Metrics) ToolCall(name string, success bool) {
	if m == nil {
		return
	}
	m.ToolCalls.WithLabelValues(name, strconv.FormatBool(success)).Inc()
}

// Proposed records a change entering the approval gate.
func (m *Metrics) Proposed(kind string) {
	if m == nil {
		return
	}
	m.Proposals.WithLabelValues(kind).Inc()
}

// Resolved records a change leaving the approval gate.
func (m *Metrics) Resolved(status string) {
	if m == nil {
		return
	}
	m.Resolutions.WithLabelValues(status).Inc()
}

// LoopFinished records the state a loop run stopped in.
func (m *Metrics) LoopFinished(state string) {
	if m == nil {
		return
	}
	m.LoopResults.WithLabelValues(state).Inc()
}

// SessionOpened increments the open session gauge.
func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.ActiveSessions.Inc()
}

// SessionClosed decrements the open session gauge.
func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.ActiveSessions.Dec()
}

// ObserveRequest records one HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestCount.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
