package agent

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Cyclone1070/kiro/internal/approval"
	"github.com/Cyclone1070/kiro/internal/conversation"
	"github.com/Cyclone1070/kiro/internal/metrics"
	"github.com/Cyclone1070/kiro/internal/provider"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const subscriberBuffer = 64

// SessionConfig describes how to build a session. Tools is shared between
// sessions; everything else is created per session.
type SessionConfig struct {
	ID             string
	Backend        provider.Backend
	Tools          toolRegistry
	Options        provider.Options
	SystemPrompt   string
	MaxIterations  int
	ApprovalExpiry time.Duration
	NewSink        func(sessionID string) conversation.Sink
	OnResolution   func(sessionID string, r approval.Resolution)
	GateOptions    []approval.Option
	Logger         zerolog.Logger
	Metrics        *metrics.Metrics
}

// Session owns one conversation, its pending changes and the loop driving
// them. At most one operation runs at a time; later callers wait their turn.
type Session struct {
	id      string
	conv    *conversation.State
	gate    *approval.Gate
	loop    *Loop
	logger  zerolog.Logger
	metrics *metrics.Metrics

	sem    chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
	closed atomic.Bool

	events chan Event
	mu     sync.Mutex
	subs   map[int]chan Event
	nextID int

	state      atomic.Value
	lastActive atomic.Int64
	inFlight   atomic.Bool
	now        func() time.Time
}

// NewSession creates an idle session.
func NewSession(cfg SessionConfig) *Session {
	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}
	ctx, cancel := context.WithCancel(context.Background())
	logger := cfg.Logger.With().Str("session", cfg.ID).Logger()
	var sink conversation.Sink
	if cfg.NewSink != nil {
		sink = cfg.NewSink(cfg.ID)
	}

	s := &Session{
		id:      cfg.ID,
		conv:    conversation.New(sink),
		logger:  logger,
		metrics: cfg.Metrics,
		sem:     make(chan struct{}, 1),
		ctx:     ctx,
		cancel:  cancel,
		events:  make(chan Event, subscriberBuffer),
		subs:    make(map[int]chan Event),
		now:     time.Now,
	}

	gateOpts := []approval.Option{approval.WithExpiry(cfg.ApprovalExpiry)}
	gateOpts = append(gateOpts, cfg.GateOptions...)
	gateOpts = append(gateOpts, approval.WithResolutionHook(func(r approval.Resolution) {
		s.metrics.Resolved(string(r.Change.Status))
		if cfg.OnResolution != nil {
			cfg.OnResolution(s.id, r)
		}
	}))
	s.gate = approval.New(gateOpts...)

	s.loop = NewLoop(Config{
		Backend:       cfg.Backend,
		Tools:         cfg.Tools,
		Gate:          s.gate,
		Conversation:  s.conv,
		Options:       cfg.Options,
		SystemPrompt:  cfg.SystemPrompt,
		MaxIterations: cfg.MaxIterations,
		Events:        s.events,
		Logger:        logger,
		Metrics:       cfg.Metrics,
	})
	s.state.Store(StateIdle)
	s.touch()
	go s.fanOut()
	return s
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Send runs the loop for one user message.
func (s *Session) Send(ctx context.Context, message string) (*Result, error) {
	return s.do(ctx, func(ctx context.Context) (*Result, error) {
		return s.loop.Send(ctx, message)
	})
}

// Resolve approves or rejects the change the session is parked on and
// resumes the loop.
func (s *Session) Resolve(ctx context.Context, changeID string, approved bool) (*Result, error) {
	return s.do(ctx, func(ctx context.Context) (*Result, error) {
		return s.loop.Resolve(ctx, changeID, approved)
	})
}

func (s *Session) do(ctx context.Context, op func(context.Context) (*Result, error)) (*Result, error) {
	if err := s.acquire(ctx); err != nil {
		return nil, err
	}
	defer s.release()
	s.inFlight.Store(true)
	s.touch()
	s.state.Store(StateAwaitingModel)
	defer func() {
		s.state.Store(s.loop.State())
		s.touch()
		s.inFlight.Store(false)
	}()

	opCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(s.ctx, cancel)
	defer stop()

	res, err := op(opCtx)
	if err != nil && s.closed.Load() {
		return nil, fmt.Errorf("%w: %w", ErrSessionClosed, err)
	}
	return res, err
}

func (s *Session) acquire(ctx context.Context) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}
	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	case <-s.ctx.Done():
		return ErrSessionClosed
	}
	if s.closed.Load() {
		<-s.sem
		return ErrSessionClosed
	}
	return nil
}

func (s *Session) release() { <-s.sem }

// State returns the state the last operation stopped in, or
// awaiting_model_response while one is running.
func (s *Session) State() State {
	if s.closed.Load() {
		return StateIdle
	}
	if v, ok := s.state.Load().(State); ok {
		return v
	}
	return StateIdle
}

// Pending lists changes waiting for a decision.
func (s *Session) Pending() []approval.PendingChange {
	return s.gate.ListPending()
}

// History returns the conversation turns in order.
func (s *Session) History() []conversation.Turn {
	return s.conv.Turns()
}

// Records returns the conversation as persisted records.
func (s *Session) Records() []conversation.Record {
	return s.conv.Records()
}

// LastActive is when the session last started or finished an operation.
func (s *Session) LastActive() time.Time {
	return time.Unix(0, s.lastActive.Load())
}

// Busy reports whether a Send or Resolve is running.
func (s *Session) Busy() bool { return s.inFlight.Load() }

func (s *Session) touch() {
	s.lastActive.Store(s.now().UnixNano())
}

// Subscribe returns a channel of loop events and a function to stop
// receiving them. Slow subscribers miss events rather than stall the loop.
func (s *Session) Subscribe() (<-chan Event, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan Event, subscriberBuffer)
	if s.subs == nil {
		close(ch)
		return ch, func() {}
	}
	id := s.nextID
	s.nextID++
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if c, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(c)
			}
		})
	}
}

func (s *Session) fanOut() {
	for ev := range s.events {
		s.mu.Lock()
		for _, ch := range s.subs {
			select {
			case ch <- ev:
			default:
			}
		}
		s.mu.Unlock()
	}

	s.mu.Lock()
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
	s.subs = nil
	s.mu.Unlock()
}

// Close cancels any in-flight model call and discards pending changes
// without applying them. It returns the discarded changes. Later calls on
// the session fail with ErrSessionClosed.
func (s *Session) Close() []approval.PendingChange {
	if s.closed.Swap(true) {
		return nil
	}
	s.cancel()
	discarded := s.gate.DiscardAll("session closed")
	if len(discarded) > 0 {
		s.logger.Info().Int("count", len(discarded)).Msg("discarded pending changes")
	}

	go func() {
		// Wait for the running operation so nothing sends on a closed channel.
		s.sem <- struct{}{}
		close(s.events)
	}()
	return discarded
}

// Closed reports whether Close has been called.
func (s *Session) Closed() bool { return s.closed.Load() }
