package agent

import (
	"github.com/Cyclone1070/kiro/internal/approval"
	"github.com/Cyclone1070/kiro/internal/tool"
)

// Event is the interface for all loop events.
// Surfaces handle events via type switch.
type Event interface {
	isEvent()
}

// ThinkingEvent is emitted before each model call.
type ThinkingEvent struct {
	Iteration int
}

func (ThinkingEvent) isEvent() {}

// AnswerEvent carries the final answer of a run.
type AnswerEvent struct {
	Text  string
	State State
}

func (AnswerEvent) isEvent() {}

// ToolStartEvent is emitted when a read-only tool starts running.
type ToolStartEvent struct {
	ToolName string
	Args     map[string]any
}

func (ToolStartEvent) isEvent() {}

// ToolEndEvent is emitted when a tool outcome is appended to the
// conversation, including dispatch failures.
type ToolEndEvent struct {
	ToolName string
	Outcome  tool.Outcome
}

func (ToolEndEvent) isEvent() {}

// ProposalEvent is emitted when a mutating call is parked for approval.
type ProposalEvent struct {
	Change approval.PendingChange
}

func (ProposalEvent) isEvent() {}

// ResolvedEvent is emitted after a parked change is approved or rejected.
type ResolvedEvent struct {
	ChangeID string
	Approved bool
	Outcome  tool.Outcome
}

func (ResolvedEvent) isEvent() {}

// ErrorEvent is emitted when a run stops on a backend failure.
type ErrorEvent struct {
	Err error
}

func (ErrorEvent) isEvent() {}

// DoneEvent is emitted whenever a run returns control to the caller.
type DoneEvent struct {
	State State
}

func (DoneEvent) isEvent() {}
