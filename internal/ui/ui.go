// Package ui is the terminal chat front end: a transcript, an input line
// and an approval popup for proposed changes.
package ui

import (
	"context"

	"github.com/Cyclone1070/kiro/internal/agent"
	"github.com/Cyclone1070/kiro/internal/provider"
	"github.com/Cyclone1070/kiro/internal/ui/services"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// chatSession is the part of agent.Session the UI drives.
type chatSession interface {
	Send(ctx context.Context, message string) (*agent.Result, error)
	Resolve(ctx context.Context, changeID string, approved bool) (*agent.Result, error)
	Subscribe() (<-chan agent.Event, func())
}

// SpinnerFactory creates a new spinner
type SpinnerFactory func() spinner.Model

// DefaultSpinner is the dot spinner.
func DefaultSpinner() spinner.Model {
	return spinner.New(spinner.WithSpinner(spinner.Dot))
}

// Options configure the chat UI.
type Options struct {
	Model    string // shown in the status bar
	Models   provider.ModelLister
	Renderer services.MarkdownRenderer
	Spinner  SpinnerFactory
}

// UI runs the Bubble Tea program for one session.
type UI struct {
	program     *tea.Program
	unsubscribe func()
}

// New creates the UI for session.
func New(ctx context.Context, session chatSession, opts Options) *UI {
	if session == nil {
		panic("session is required")
	}
	if opts.Renderer == nil {
		opts.Renderer = services.GlamourRenderer{}
	}
	if opts.Spinner == nil {
		opts.Spinner = DefaultSpinner
	}
	events, unsubscribe := session.Subscribe()
	model := newBubbleTeaModel(ctx, session, events, opts)
	return &UI{
		program:     tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)),
		unsubscribe: unsubscribe,
	}
}

// Start runs the UI until the user quits.
func (u *UI) Start() error {
	defer u.unsubscribe()
	_, err := u.program.Run()
	return err
}
