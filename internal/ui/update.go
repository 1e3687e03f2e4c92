package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Cyclone1070/kiro/internal/agent"
	"github.com/Cyclone1070/kiro/internal/provider"
	"github.com/Cyclone1070/kiro/internal/ui/models"
	"github.com/Cyclone1070/kiro/internal/ui/services"
	"github.com/Cyclone1070/kiro/internal/ui/views"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

const helpText = "Available commands:\n- /models - List installed models\n- /help - Show this help\n- /quit - Exit"

// BubbleTeaModel implements tea.Model
type BubbleTeaModel struct {
	state models.State

	ctx      context.Context
	session  chatSession
	events   <-chan agent.Event
	renderer services.MarkdownRenderer
	models   provider.ModelLister
}

func newBubbleTeaModel(ctx context.Context, session chatSession, events <-chan agent.Event, opts Options) BubbleTeaModel {
	ti := textinput.New()
	ti.Placeholder = "Type a message..."
	ti.Focus()

	return BubbleTeaModel{
		state: models.State{
			Input:        ti,
			Viewport:     viewport.New(80, 20),
			Spinner:      opts.Spinner(),
			CurrentModel: opts.Model,
		},
		ctx:      ctx,
		session:  session,
		events:   events,
		renderer: opts.Renderer,
		models:   opts.Models,
	}
}

// Internal messages
type tickMsg time.Time
type eventMsg struct{ ev agent.Event }
type eventsClosedMsg struct{}
type resultMsg struct {
	res *agent.Result
	err error
}
type modelListMsg struct {
	models []provider.ModelInfo
	err    error
}

// Init starts the spinner and the event listener.
func (m BubbleTeaModel) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.state.Spinner.Tick,
		tick(),
		listenForEvents(m.events),
	)
}

// View renders the UI
func (m BubbleTeaModel) View() string {
	return views.RenderRoot(m.state)
}

// Update handles messages
func (m BubbleTeaModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.state.Width = msg.Width
		m.state.Height = msg.Height
		m.state.Viewport.Width = msg.Width
		m.state.Viewport.Height = msg.Height - 6 // input and status
		m.updateViewport()
		return m, nil

	case tickMsg:
		m.state.DotCount = (m.state.DotCount + 1) % 4
		return m, tick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.state.Spinner, cmd = m.state.Spinner.Update(msg)
		return m, cmd

	case eventMsg:
		m.handleEvent(msg.ev)
		return m, listenForEvents(m.events)

	case eventsClosedMsg:
		m.state.StatusPhase = ""
		m.state.StatusMessage = "Session closed"
		return m, nil

	case resultMsg:
		m.handleResult(msg)
		return m, nil

	case modelListMsg:
		m.addMessage(formatModelList(msg))
		return m, nil
	}

	var cmd tea.Cmd
	m.state.Input, cmd = m.state.Input.Update(msg)
	return m, cmd
}

func (m *BubbleTeaModel) handleEvent(ev agent.Event) {
	switch e := ev.(type) {
	case agent.ThinkingEvent:
		m.state.StatusPhase = "thinking"
		m.state.StatusMessage = ""
	case agent.ToolStartEvent:
		m.state.StatusPhase = "executing"
		m.state.StatusMessage = services.FormatToolDescription(e.ToolName, e.Args)
	case agent.ToolEndEvent:
		m.state.StatusPhase = "done"
		m.state.StatusMessage = e.ToolName
		if e.Outcome.Success {
			m.addMessage(models.Message{Role: models.RoleTool, Content: e.ToolName})
		} else {
			m.addMessage(models.Message{Role: models.RoleTool, Content: e.ToolName + " failed: " + e.Outcome.Error})
		}
	case agent.ProposalEvent:
		change := e.Change
		m.state.PendingApproval = &change
		m.state.StatusPhase = "awaiting"
	case agent.ResolvedEvent:
		verdict := "rejected"
		if e.Approved {
			verdict = "approved"
		}
		m.addMessage(models.Message{Role: models.RoleTool, Content: fmt.Sprintf("change %s: %s", verdict, e.Outcome.Text())})
	}
}

func (m *BubbleTeaModel) handleResult(msg resultMsg) {
	m.state.Busy = false
	if msg.err != nil {
		m.state.StatusPhase = ""
		m.state.StatusMessage = ""
		m.addMessage(models.Message{Role: models.RoleError, Content: msg.err.Error()})
		return
	}
	switch msg.res.State {
	case agent.StateAwaitingApproval:
		if msg.res.Pending != nil {
			change := *msg.res.Pending
			m.state.PendingApproval = &change
		}
		m.state.StatusPhase = "awaiting"
	default:
		m.state.PendingApproval = nil
		m.state.StatusPhase = ""
		m.state.StatusMessage = ""
		if msg.res.Answer != "" {
			m.addMessage(models.Message{Role: models.RoleAssistant, Content: msg.res.Answer})
		}
	}
}

// handleKeyPress handles keyboard input
func (m BubbleTeaModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	if c := m.state.PendingApproval; c != nil {
		if m.state.Busy {
			return m, nil
		}
		switch msg.String() {
		case "y", "Y":
			m.state.PendingApproval = nil
			m.state.Busy = true
			return m, m.resolve(c.ID, true)
		case "n", "N", "esc":
			m.state.PendingApproval = nil
			m.state.Busy = true
			return m, m.resolve(c.ID, false)
		}
		return m, nil
	}

	if msg.Type != tea.KeyEnter {
		var cmd tea.Cmd
		m.state.Input, cmd = m.state.Input.Update(msg)
		return m, cmd
	}

	input := strings.TrimSpace(m.state.Input.Value())
	if input == "" || m.state.Busy {
		return m, nil
	}
	m.state.Input.SetValue("")
	if strings.HasPrefix(input, "/") {
		return m.handleCommand(input)
	}

	m.addMessage(models.Message{Role: models.RoleUser, Content: input})
	m.state.Busy = true
	return m, m.send(input)
}

// handleCommand handles slash commands
func (m BubbleTeaModel) handleCommand(input string) (tea.Model, tea.Cmd) {
	switch strings.Fields(input)[0] {
	case "/models":
		if m.models == nil {
			m.addMessage(models.Message{Role: models.RoleError, Content: "this backend cannot list models"})
			return m, nil
		}
		lister, ctx := m.models, m.ctx
		return m, func() tea.Msg {
			list, err := lister.ListModels(ctx)
			return modelListMsg{models: list, err: err}
		}
	case "/quit", "/exit":
		return m, tea.Quit
	case "/help":
		m.addMessage(models.Message{Role: models.RoleAssistant, Content: helpText})
	default:
		m.addMessage(models.Message{Role: models.RoleError, Content: "unknown command " + input})
	}
	return m, nil
}

func (m BubbleTeaModel) send(input string) tea.Cmd {
	session, ctx := m.session, m.ctx
	return func() tea.Msg {
		res, err := session.Send(ctx, input)
		return resultMsg{res: res, err: err}
	}
}

func (m BubbleTeaModel) resolve(id string, approved bool) tea.Cmd {
	session, ctx := m.session, m.ctx
	return func() tea.Msg {
		res, err := session.Resolve(ctx, id, approved)
		return resultMsg{res: res, err: err}
	}
}

func (m *BubbleTeaModel) addMessage(msg models.Message) {
	m.state.Messages = append(m.state.Messages, msg)
	m.updateViewport()
}

func (m *BubbleTeaModel) updateViewport() {
	content := views.FormatChatContent(m.state.Messages, m.state.Width-4, m.renderer)
	m.state.Viewport.SetContent(content)
	m.state.Viewport.GotoBottom()
}

func formatModelList(msg modelListMsg) models.Message {
	if msg.err != nil {
		return models.Message{Role: models.RoleError, Content: msg.err.Error()}
	}
	if len(msg.models) == 0 {
		return models.Message{Role: models.RoleAssistant, Content: "No models installed."}
	}
	var sb strings.Builder
	sb.WriteString("Installed models:\n")
	for _, mi := range msg.models {
		fmt.Fprintf(&sb, "- `%s`\n", mi.Name)
	}
	return models.Message{Role: models.RoleAssistant, Content: sb.String()}
}

func listenForEvents(ch <-chan agent.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return eventsClosedMsg{}
		}
		return eventMsg{ev: ev}
	}
}

func tick() tea.Cmd {
	return tea.Tick(300*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
