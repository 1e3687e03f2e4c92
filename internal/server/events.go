package server

import (
	"net/http"
	"time"

	"github.com/Cyclone1070/kiro/internal/agent"
	"github.com/Cyclone1070/kiro/internal/tool"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
)

// eventMessage is the wire form of an agent.Event.
type eventMessage struct {
	Type      string         `json:"type"`
	Iteration int            `json:"iteration,omitempty"`
	Text      string         `json:"text,omitempty"`
	State     agent.State    `json:"state,omitempty"`
	Tool      string         `json:"tool,omitempty"`
	Args      map[string]any `json:"args,omitempty"`
	Outcome   *tool.Outcome  `json:"outcome,omitempty"`
	Change    *pendingView   `json:"change,omitempty"`
	ChangeID  string         `json:"change_id,omitempty"`
	Approved  *bool          `json:"approved,omitempty"`
	Error     string         `json:"error,omitempty"`
}

func encodeEvent(ev agent.Event) eventMessage {
	switch e := ev.(type) {
	case agent.ThinkingEvent:
		return eventMessage{Type: "thinking", Iteration: e.Iteration}
	case agent.AnswerEvent:
		return eventMessage{Type: "answer", Text: e.Text, State: e.State}
	case agent.ToolStartEvent:
		return eventMessage{Type: "tool_start", Tool: e.ToolName, Args: e.Args}
	case agent.ToolEndEvent:
		out := e.Outcome
		return eventMessage{Type: "tool_end", Tool: e.ToolName, Outcome: &out}
	case agent.ProposalEvent:
		p := viewPending(e.Change)
		return eventMessage{Type: "proposal", Change: &p}
	case agent.ResolvedEvent:
		out, approved := e.Outcome, e.Approved
		return eventMessage{Type: "resolved", ChangeID: e.ChangeID, Approved: &approved, Outcome: &out}
	case agent.ErrorEvent:
		return eventMessage{Type: "error", Error: e.Err.Error()}
	case agent.DoneEvent:
		return eventMessage{Type: "done", State: e.State}
	default:
		return eventMessage{Type: "unknown"}
	}
}

// streamEvents upgrades to a websocket and forwards the session's events
// until the client goes away or the session closes.
func (s *server) streamEvents(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	// Subscribe before the handshake completes so no event is missed.
	events, unsubscribe := sess.Subscribe()
	defer unsubscribe()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	// Reader goroutine only watches for the client closing.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"),
					time.Now().Add(writeWait))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(encodeEvent(ev)); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-gone:
			return
		case <-r.Context().Done():
			return
		}
	}
}
