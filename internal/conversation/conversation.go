// Package conversation keeps the ordered, append-only turn history of a
// session.
package conversation

import (
	"sync"
	"time"

	"github.com/Cyclone1070/kiro/internal/tool"
)

// Role of a turn's author.
type Role string

const (
	RoleUser       Role = "user"
	RoleAssistant  Role = "assistant"
	RoleToolResult Role = "tool-result"
	RoleSystem     Role = "system"
)

// ToolCall describes the invocation a tool-result turn answers.
type ToolCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

// Turn is one message. Turns are values; a stored turn never changes.
type Turn struct {
	Role     Role          `json:"role"`
	Content  string        `json:"content"`
	ToolCall *ToolCall     `json:"tool_call,omitempty"`
	Outcome  *tool.Outcome `json:"outcome,omitempty"`
	ChangeID string        `json:"change_id,omitempty"`
	Time     time.Time     `json:"timestamp"`
}

// Record is the persisted form of a turn.
type Record struct {
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Sink observes turns after they are appended.
type Sink interface {
	TurnAppended(index int, t Turn)
}

// State is an append-only turn sequence.
type State struct {
	mu    sync.RWMutex
	turns []Turn
	sink  Sink
	now   func() time.Time
}

// New creates an empty conversation. sink may be nil.
func New(sink Sink) *State {
	return &State{sink: sink, now: time.Now}
}

// Append adds t at the end and returns its index. A zero Time is stamped
// with the current time. Tool call arguments are copied.
func (s *State) Append(t Turn) int {
	if t.Time.IsZero() {
		t.Time = s.now()
	}
	if t.ToolCall != nil {
		tc := *t.ToolCall
		tc.Args = cloneArgs(tc.Args)
		t.ToolCall = &tc
	}
	if t.Outcome != nil {
		o := *t.Outcome
		t.Outcome = &o
	}

	s.mu.Lock()
	s.turns = append(s.turns, t)
	idx := len(s.turns) - 1
	s.mu.Unlock()

	if s.sink != nil {
		s.sink.TurnAppended(idx, t)
	}
	return idx
}

// Turns returns a copy of the history in append order.
func (s *State) Turns() []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Len returns the number of turns.
func (s *State) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.turns)
}

// Last returns the most recent turn.
func (s *State) Last() (Turn, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.turns) == 0 {
		return Turn{}, false
	}
	return s.turns[len(s.turns)-1], true
}

// Records returns the history as {role, text, timestamp} records.
func (s *State) Records() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, len(s.turns))
	for i, t := range s.turns {
		out[i] = Record{Role: t.Role, Text: t.Content, Timestamp: t.Time}
	}
	return out
}

func cloneArgs(args map[string]any) map[string]any {
	if args == nil {
		return nil
	}
	out := make(map[string]any, len(args))
	for k, v := range args {
		out[k] = v
	}
	return out
}
