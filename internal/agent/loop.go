// Package agent runs the reason-act loop: it asks the model for the next
// step, dispatches tool calls, parks mutating calls for approval and stops
// on a final answer or the iteration cap.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Cyclone1070/kiro/internal/approval"
	"github.com/Cyclone1070/kiro/internal/conversation"
	"github.com/Cyclone1070/kiro/internal/metrics"
	"github.com/Cyclone1070/kiro/internal/provider"
	"github.com/Cyclone1070/kiro/internal/tool"
	"github.com/Cyclone1070/kiro/internal/tool/registry"
	"github.com/rs/zerolog"
)

// DefaultMaxIterations bounds model calls per user message.
const DefaultMaxIterations = 10

// State of the loop.
type State string

const (
	StateIdle                 State = "idle"
	StateAwaitingModel        State = "awaiting_model_response"
	StateParsing              State = "parsing_response"
	StateToolDispatch         State = "tool_dispatch"
	StateAwaitingApproval     State = "awaiting_approval"
	StateTerminalAnswer       State = "terminal_answer"
	StateMaxIterationsReached State = "max_iterations_reached"
)

// Result describes where a run stopped.
type Result struct {
	State      State
	Answer     string
	Pending    *approval.PendingChange
	Iterations int
}

// Config carries the loop's collaborators. Backend, Tools, Gate and
// Conversation are required.
type Config struct {
	Backend       provider.Backend
	Tools         toolRegistry
	Gate          approvalGate
	Conversation  *conversation.State
	Options       provider.Options
	SystemPrompt  string
	MaxIterations int
	Events        chan<- Event
	Logger        zerolog.Logger
	Metrics       *metrics.Metrics
}

type parkedCall struct {
	change approval.PendingChange
	call   ToolCall
}

// Loop is the per-session state machine. It is not safe for concurrent use;
// Session serialises access.
type Loop struct {
	backend       provider.Backend
	tools         toolRegistry
	gate          approvalGate
	conv          *conversation.State
	opts          provider.Options
	prompt        *PromptBuilder
	maxIterations int
	events        chan<- Event
	logger        zerolog.Logger
	metrics       *metrics.Metrics

	state      State
	iterations int
	partial    string
	parked     *parkedCall
}

// NewLoop creates an idle loop.
func NewLoop(cfg Config) *Loop {
	maxIter := cfg.MaxIterations
	if maxIter <= 0 {
		maxIter = DefaultMaxIterations
	}
	return &Loop{
		backend:       cfg.Backend,
		tools:         cfg.Tools,
		gate:          cfg.Gate,
		conv:          cfg.Conversation,
		opts:          cfg.Options,
		prompt:        NewPromptBuilder(cfg.SystemPrompt, cfg.Tools),
		maxIterations: maxIter,
		events:        cfg.Events,
		logger:        cfg.Logger,
		metrics:       cfg.Metrics,
		state:         StateIdle,
	}
}

// State returns the current state.
func (l *Loop) State() State { return l.state }

// Pending returns the change the loop is parked on, if any.
func (l *Loop) Pending() (approval.PendingChange, bool) {
	if l.parked == nil {
		return approval.PendingChange{}, false
	}
	return l.parked.change, true
}

// Send appends a user message and runs until a final answer, the iteration
// cap, or a mutating call that needs approval. The iteration counter starts
// from zero for every message.
func (l *Loop) Send(ctx context.Context, message string) (*Result, error) {
	if l.state == StateAwaitingApproval {
		return nil, ErrAwaitingApproval
	}
	l.conv.Append(conversation.Turn{Role: conversation.RoleUser, Content: message})
	l.iterations = 0
	l.partial = ""
	return l.run(ctx)
}

// Resolve delivers the decision for the parked change, records the outcome
// and resumes the loop. Ids other than the parked one fail with
// *approval.UnknownChangeError and leave the loop untouched.
func (l *Loop) Resolve(ctx context.Context, changeID string, approved bool) (*Result, error) {
	if l.parked == nil || l.parked.change.ID != changeID {
		return nil, &approval.UnknownChangeError{ID: changeID}
	}
	outcome, err := l.gate.Resolve(ctx, changeID, approved)
	if err != nil {
		return nil, err
	}

	call := l.parked.call
	l.parked = nil
	l.metrics.ToolCall(call.Name, outcome.Success)
	l.appendOutcome(call, outcome, changeID)
	l.emit(ResolvedEvent{ChangeID: changeID, Approved: approved, Outcome: outcome})
	l.logger.Info().
		Str("change_id", changeID).
		Bool("approved", approved).
		Bool("success", outcome.Success).
		Msg("change resolved")

	return l.run(ctx)
}

// Abandon drops the parked call without recording an outcome. The gate's
// pending entry is left to the caller.
func (l *Loop) Abandon() {
	l.parked = nil
	l.state = StateIdle
}

func (l *Loop) run(ctx context.Context) (*Result, error) {
	defer func() {
		l.metrics.LoopFinished(string(l.state))
		l.emit(DoneEvent{State: l.state})
	}()

	for {
		if l.iterations >= l.maxIterations {
			return l.exhausted(), nil
		}
		if err := ctx.Err(); err != nil {
			l.conv.Append(conversation.Turn{Role: conversation.RoleSystem, Content: "[Request cancelled]"})
			l.state = StateIdle
			return nil, err
		}

		l.iterations++
		l.state = StateAwaitingModel
		l.emit(ThinkingEvent{Iteration: l.iterations})

		text, err := l.complete(ctx)
		if err != nil {
			l.conv.Append(conversation.Turn{
				Role:    conversation.RoleSystem,
				Content: "Model backend error: " + err.Error(),
			})
			l.state = StateIdle
			l.emit(ErrorEvent{Err: err})
			return nil, fmt.Errorf("backend: %w", err)
		}

		l.state = StateParsing
		l.conv.Append(conversation.Turn{Role: conversation.RoleAssistant, Content: text})

		switch p := Parse(text).(type) {
		case ToolCall:
			if p.Prose != "" {
				l.partial = p.Prose
			}
			if l.dispatch(ctx, p) {
				return l.result(), nil
			}
		case InvalidToolCall:
			name := p.Name
			if name == "" {
				name = "unknown"
			}
			l.logger.Warn().Str("tool", name).Str("reason", p.Reason).Msg("invalid tool call")
			l.fail(ToolCall{Name: name, Raw: p.Raw}, tool.Failf("invalid tool call: %s", p.Reason))
		case Malformed:
			l.logger.Warn().Str("reason", p.Reason).Msg("unparseable tool call treated as answer")
			return l.answer(strings.TrimSpace(p.Raw)), nil
		case FinalAnswer:
			return l.answer(p.Text), nil
		}
	}
}

func (l *Loop) complete(ctx context.Context) (string, error) {
	start := time.Now()
	text, err := l.backend.Complete(ctx, &provider.Request{
		System:  l.prompt.Build(),
		Turns:   l.conv.Turns(),
		Options: l.opts,
	})
	l.metrics.ObserveBackend(time.Since(start), err)
	return text, err
}

// dispatch runs or parks one tool call. It reports true when the loop is
// now waiting for approval.
func (l *Loop) dispatch(ctx context.Context, call ToolCall) bool {
	l.state = StateToolDispatch
	log := l.logger.With().Str("tool", call.Name).Int("iteration", l.iterations).Logger()

	t, err := l.tools.Lookup(call.Name)
	if err != nil {
		log.Warn().Err(err).Msg("model requested unknown tool")
		l.fail(call, unknownToolOutcome(err))
		return false
	}
	if err := tool.ValidateArgs(t.Declaration().Parameters, call.Args); err != nil {
		log.Warn().Err(err).Msg("invalid tool arguments")
		l.fail(call, tool.Fail(err))
		return false
	}

	if m, ok := t.(tool.Mutating); ok {
		change, err := m.Plan(ctx, call.Args)
		if err != nil {
			log.Warn().Err(err).Msg("change refused before proposal")
			l.fail(call, tool.Fail(err))
			return false
		}
		pc := l.gate.Propose(call.Name, change)
		l.parked = &parkedCall{change: pc, call: call}
		l.state = StateAwaitingApproval
		l.metrics.Proposed(string(pc.Kind))
		l.emit(ProposalEvent{Change: pc})
		log.Info().Str("change_id", pc.ID).Str("kind", string(pc.Kind)).Str("target", pc.Target).Msg("change proposed")
		return true
	}

	l.emit(ToolStartEvent{ToolName: call.Name, Args: call.Args})
	outcome := t.Execute(ctx, call.Args)
	l.metrics.ToolCall(call.Name, outcome.Success)
	l.appendOutcome(call, outcome, "")
	log.Debug().Bool("success", outcome.Success).Msg("tool executed")
	return false
}

func (l *Loop) fail(call ToolCall, outcome tool.Outcome) {
	l.metrics.ToolCall(call.Name, false)
	l.appendOutcome(call, outcome, "")
}

func (l *Loop) appendOutcome(call ToolCall, outcome tool.Outcome, changeID string) {
	l.conv.Append(conversation.Turn{
		Role:     conversation.RoleToolResult,
		Content:  outcome.Text(),
		ToolCall: &conversation.ToolCall{Name: call.Name, Args: call.Args},
		Outcome:  &outcome,
		ChangeID: changeID,
	})
	l.emit(ToolEndEvent{ToolName: call.Name, Outcome: outcome})
}

func (l *Loop) answer(text string) *Result {
	l.state = StateTerminalAnswer
	l.emit(AnswerEvent{Text: text, State: l.state})
	return l.result(withAnswer(text))
}

func (l *Loop) exhausted() *Result {
	l.state = StateMaxIterationsReached
	msg := fmt.Sprintf("could not complete the request within %d iterations", l.maxIterations)
	l.conv.Append(conversation.Turn{Role: conversation.RoleSystem, Content: "Stopped: " + msg})
	l.logger.Warn().Int("iterations", l.iterations).Msg("iteration limit reached")

	text := msg
	if l.partial != "" {
		text = l.partial + "\n\n(" + msg + ")"
	}
	l.emit(AnswerEvent{Text: text, State: l.state})
	return l.result(withAnswer(text))
}

func withAnswer(text string) func(*Result) {
	return func(r *Result) { r.Answer = text }
}

func (l *Loop) result(opts ...func(*Result)) *Result {
	r := &Result{State: l.state, Iterations: l.iterations}
	if l.parked != nil {
		pc := l.parked.change
		r.Pending = &pc
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func unknownToolOutcome(err error) tool.Outcome {
	var unknown *registry.UnknownToolError
	if errors.As(err, &unknown) && len(unknown.Available) > 0 {
		return tool.Failf("%s. Available tools: %s", err, strings.Join(unknown.Available, ", "))
	}
	return tool.Fail(err)
}

func (l *Loop) emit(ev Event) {
	if l.events != nil {
		l.events <- ev
	}
}
