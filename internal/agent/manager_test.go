package agent

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Cyclone1070/kiro/internal/metrics"
	"github.com/Cyclone1070/kiro/internal/provider"
	"github.com/Cyclone1070/kiro/internal/tool/registry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) (*Manager, *metrics.Metrics) {
	t.Helper()
	reg, err := registry.New(echoTool())
	require.NoError(t, err)
	m := metrics.New(prometheus.NewRegistry())
	return NewManager(SessionConfig{
		Backend: &scriptedBackend{},
		Tools:   reg,
		Logger:  zerolog.Nop(),
		Metrics: m,
	}), m
}

func TestManager_OpenGetClose(t *testing.T) {
	mgr, m := newTestManager(t)

	s, err := mgr.Open("alpha")
	require.NoError(t, err)
	assert.Equal(t, "alpha", s.ID())

	_, err = mgr.Open("alpha")
	assert.ErrorIs(t, err, ErrSessionExists)

	got, err := mgr.Get("alpha")
	require.NoError(t, err)
	assert.Same(t, s, got)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActiveSessions))

	require.NoError(t, mgr.Close("alpha"))
	assert.True(t, s.Closed())
	_, err = mgr.Get("alpha")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, mgr.Close("alpha"), ErrSessionNotFound)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ActiveSessions))
}

func TestManager_Open_GeneratesID(t *testing.T) {
	mgr, _ := newTestManager(t)

	a, err := mgr.Open("")
	require.NoError(t, err)
	b, err := mgr.Open("")
	require.NoError(t, err)

	assert.NotEmpty(t, a.ID())
	assert.NotEqual(t, a.ID(), b.ID())
	assert.Len(t, mgr.IDs(), 2)
}

func TestManager_SessionsDoNotShareConversation(t *testing.T) {
	mgr, _ := newTestManager(t)
	a, _ := mgr.Open("a")
	b, _ := mgr.Open("b")

	a.conv.Append(userTurn("only in a"))

	assert.Len(t, a.History(), 1)
	assert.Empty(t, b.History())
}

func TestManager_CloseIdle(t *testing.T) {
	mgr, _ := newTestManager(t)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	mgr.now = func() time.Time { return now }

	_, err := mgr.Open("old")
	require.NoError(t, err)
	now = now.Add(30 * time.Minute)
	_, err = mgr.Open("fresh")
	require.NoError(t, err)
	now = now.Add(5 * time.Minute)

	closed := mgr.CloseIdle(10 * time.Minute)

	assert.Equal(t, []string{"old"}, closed)
	assert.Equal(t, []string{"fresh"}, mgr.IDs())
	assert.Nil(t, mgr.CloseIdle(0))
}

func TestManager_CloseIdle_SkipsSessionWithOperationInFlight(t *testing.T) {
	mgr, _ := newTestManager(t)
	var clock atomic.Int64
	clock.Store(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC).UnixNano())
	mgr.now = func() time.Time { return time.Unix(0, clock.Load()) }

	started := make(chan struct{})
	release := make(chan struct{})
	mgr.template.Backend = &scriptedBackend{
		completeFunc: func(ctx context.Context, req *provider.Request) (string, error) {
			close(started)
			select {
			case <-release:
				return "finished", nil
			case <-ctx.Done():
				return "", ctx.Err()
			}
		},
	}
	s, err := mgr.Open("slow")
	require.NoError(t, err)

	type sendResult struct {
		res *Result
		err error
	}
	done := make(chan sendResult, 1)
	go func() {
		res, err := s.Send(context.Background(), "take your time")
		done <- sendResult{res, err}
	}()
	<-started
	clock.Add(int64(time.Hour))

	assert.True(t, s.Busy())
	assert.Empty(t, mgr.CloseIdle(10*time.Minute))
	assert.False(t, s.Closed())
	assert.Equal(t, []string{"slow"}, mgr.IDs())

	close(release)
	got := <-done
	require.NoError(t, got.err)
	assert.Equal(t, "finished", got.res.Answer)
	assert.False(t, s.Busy())

	clock.Add(int64(time.Hour))
	assert.Equal(t, []string{"slow"}, mgr.CloseIdle(10*time.Minute))
	assert.True(t, s.Closed())
}

func TestManager_CloseAll(t *testing.T) {
	mgr, m := newTestManager(t)
	a, _ := mgr.Open("a")
	b, _ := mgr.Open("b")

	mgr.CloseAll()

	assert.True(t, a.Closed())
	assert.True(t, b.Closed())
	assert.Empty(t, mgr.IDs())
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ActiveSessions))
}
