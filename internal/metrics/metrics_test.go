package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/Cyclone1070/kiro/internal/provider"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNilMetrics_IsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveBackend(time.Second, nil)
		m.ToolCall("read_file", true)
		m.Proposed("create")
		m.Resolved("approved")
		m.LoopFinished("terminal_answer")
		m.SessionOpened()
		m.SessionClosed()
		m.ObserveRequest("GET", "/healthz", 200, time.Millisecond)
	})
}

func TestObserveBackend_LabelsByErrorCode(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveBackend(time.Second, nil)
	m.ObserveBackend(time.Second, &provider.Error{Code: provider.ErrorCodeTimeout})
	m.ObserveBackend(time.Second, errors.New("plain"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.BackendCalls.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BackendCalls.WithLabelValues("timeout")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BackendCalls.WithLabelValues("error")))
}

func TestSessions_Gauge(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.SessionOpened()
	m.SessionOpened()
	m.SessionClosed()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActiveSessions))
}

func TestToolCall_Counts(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ToolCall("web_search", false)
	m.ToolCall("web_search", false)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ToolCalls.WithLabelValues("web_search", "false")))
}
