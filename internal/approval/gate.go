// Package approval holds proposed side effects until a human approves or
// rejects them. Every change resolves exactly once.
package approval

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Cyclone1070/kiro/internal/tool"
	"github.com/google/uuid"
)

// Status of a change.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// PendingChange is a proposed mutating operation awaiting a decision.
type PendingChange struct {
	ID        string          `json:"id"`
	Tool      string          `json:"tool"`
	Kind      tool.ChangeKind `json:"kind"`
	Target    string          `json:"target"`
	Payload   string          `json:"payload"`
	Reason    string          `json:"reason,omitempty"`
	Preview   tool.Preview    `json:"-"`
	Status    Status          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}

// Resolution records how a change left the pending table.
type Resolution struct {
	Change     PendingChange
	Outcome    tool.Outcome
	ResolvedAt time.Time
}

type entry struct {
	change PendingChange
	apply  func(ctx context.Context) tool.Outcome
	seq    uint64
}

// Gate is a session's pending-change table.
type Gate struct {
	mu      sync.Mutex
	pending map[string]*entry
	seq     uint64

	newID     func() string
	now       func() time.Time
	expiry    time.Duration
	onPropose func(PendingChange)
	onResolve func(Resolution)
}

// Option configures a Gate.
type Option func(*Gate)

// WithIDGenerator overrides uuid change ids.
func WithIDGenerator(fn func() string) Option {
	return func(g *Gate) { g.newID = fn }
}

// WithClock overrides time.Now.
func WithClock(fn func() time.Time) Option {
	return func(g *Gate) { g.now = fn }
}

// WithExpiry makes changes older than d resolve as rejected. Zero disables it.
func WithExpiry(d time.Duration) Option {
	return func(g *Gate) { g.expiry = d }
}

// WithProposalHook is called after every Propose, outside the lock.
func WithProposalHook(fn func(PendingChange)) Option {
	return func(g *Gate) { g.onPropose = fn }
}

// WithResolutionHook is called whenever a change leaves the table.
func WithResolutionHook(fn func(Resolution)) Option {
	return func(g *Gate) { g.onResolve = fn }
}

// SequentialIDs returns a generator producing prefix1, prefix2, ...
func SequentialIDs(prefix string) func() string {
	var n atomic.Uint64
	return func() string {
		return fmt.Sprintf("%s%d", prefix, n.Add(1))
	}
}

// New creates an empty gate.
func New(opts ...Option) *Gate {
	g := &Gate{
		pending: make(map[string]*entry),
		newID:   uuid.NewString,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Propose records ch as pending and returns immediately. The side effect
// runs only if Resolve is later called with approved=true.
func (g *Gate) Propose(toolName string, ch *tool.Change) PendingChange {
	g.mu.Lock()
	id := g.freshID()
	g.seq++
	e := &entry{
		change: PendingChange{
			ID:        id,
			Tool:      toolName,
			Kind:      ch.Kind,
			Target:    ch.Target,
			Payload:   ch.Payload,
			Reason:    ch.Reason,
			Preview:   ch.Preview,
			Status:    StatusPending,
			CreatedAt: g.now(),
		},
		apply: ch.Apply,
		seq:   g.seq,
	}
	g.pending[id] = e
	g.mu.Unlock()

	if g.onPropose != nil {
		g.onPropose(e.change)
	}
	return e.change
}

// freshID must be called with g.mu held.
func (g *Gate) freshID() string {
	for range 16 {
		id := g.newID()
		if _, taken := g.pending[id]; !taken && id != "" {
			return id
		}
	}
	return uuid.NewString()
}

// Resolve settles a pending change exactly once. Approval runs the change
// and returns its real outcome; rejection returns a failed outcome and has
// no side effect. Unknown or already-resolved ids fail with
// *UnknownChangeError.
func (g *Gate) Resolve(ctx context.Context, id string, approved bool) (tool.Outcome, error) {
	g.mu.Lock()
	e, ok := g.pending[id]
	if ok {
		delete(g.pending, id)
	}
	g.mu.Unlock()
	if !ok {
		return tool.Outcome{}, &UnknownChangeError{ID: id}
	}

	var outcome tool.Outcome
	switch {
	case g.expired(e.change):
		e.change.Status = StatusRejected
		outcome = tool.Fail(fmt.Errorf("%w after %s", ErrExpired, g.expiry))
	case approved:
		e.change.Status = StatusApproved
		if e.apply == nil {
			outcome = tool.Failf("change %s has nothing to apply", id)
		} else {
			outcome = e.apply(ctx)
		}
	default:
		e.change.Status = StatusRejected
		outcome = tool.Fail(ErrRejected)
	}

	g.report(e.change, outcome)
	return outcome, nil
}

// Get returns a pending change by id.
func (g *Gate) Get(id string) (PendingChange, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	e, ok := g.pending[id]
	if !ok {
		return PendingChange{}, false
	}
	return e.change, true
}

// ListPending returns pending changes in proposal order.
func (g *Gate) ListPending() []PendingChange {
	g.mu.Lock()
	entries := make([]*entry, 0, len(g.pending))
	for _, e := range g.pending {
		entries = append(entries, e)
	}
	g.mu.Unlock()

	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })
	out := make([]PendingChange, len(entries))
	for i, e := range entries {
		out[i] = e.change
	}
	return out
}

// Len returns the number of pending changes.
func (g *Gate) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.pending)
}

// DiscardAll drops every pending change without applying it. Each one is
// reported as rejected with reason.
func (g *Gate) DiscardAll(reason string) []PendingChange {
	g.mu.Lock()
	entries := make([]*entry, 0, len(g.pending))
	for id, e := range g.pending {
		entries = append(entries, e)
		delete(g.pending, id)
	}
	g.mu.Unlock()

	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })
	out := make([]PendingChange, len(entries))
	for i, e := range entries {
		e.change.Status = StatusRejected
		out[i] = e.change
		g.report(e.change, tool.Fail(fmt.Errorf("%w: %s", ErrDiscarded, reason)))
	}
	return out
}

func (g *Gate) expired(c PendingChange) bool {
	return g.expiry > 0 && g.now().Sub(c.CreatedAt) > g.expiry
}

func (g *Gate) report(c PendingChange, outcome tool.Outcome) {
	if g.onResolve == nil {
		return
	}
	g.onResolve(Resolution{Change: c, Outcome: outcome, ResolvedAt: g.now()})
}
