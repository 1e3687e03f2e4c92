// Package models holds the chat UI's view state.
package models

import (
	"github.com/Cyclone1070/kiro/internal/approval"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
)

// Message roles shown in the transcript.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
	RoleError     = "error"
)

// Message is one transcript entry.
type Message struct {
	Role    string
	Content string
}

// State is everything the views render.
type State struct {
	Width, Height int

	Input    textinput.Model
	Viewport viewport.Model
	Spinner  spinner.Model
	Messages []Message

	// Busy is set while a Send or Resolve is in flight.
	Busy bool

	StatusPhase   string // ready, thinking, executing, done, awaiting
	StatusMessage string
	DotCount      int
	CurrentModel  string

	// PendingApproval is the change the popup asks about.
	PendingApproval *approval.PendingChange
}
