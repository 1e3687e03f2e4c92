// Package todo gives the model a scratch task list for multi-step work.
// The list lives in memory and touches nothing in the workspace.
package todo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/Cyclone1070/kiro/internal/tool"
)

// Status of a todo item.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

var (
	ErrInvalidStatus    = errors.New("invalid status")
	ErrEmptyDescription = errors.New("description cannot be empty")
)

// Todo is a single task item.
type Todo struct {
	Description string `json:"description"`
	Status      Status `json:"status"`
}

// Store holds the current list.
type Store struct {
	mu    sync.RWMutex
	todos []Todo
}

// NewStore creates an empty list.
func NewStore() *Store {
	return &Store{}
}

// Read returns a copy of the list.
func (s *Store) Read() []Todo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Todo(nil), s.todos...)
}

// Write replaces the list.
func (s *Store) Write(todos []Todo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.todos = append([]Todo(nil), todos...)
}

type readRequest struct{}

// WriteRequest replaces the whole list.
type WriteRequest struct {
	Todos []Todo `json:"todos"`
}

func (r *WriteRequest) Validate() error {
	for i, t := range r.Todos {
		switch t.Status {
		case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled:
		case "":
			r.Todos[i].Status = StatusPending
		default:
			return fmt.Errorf("todo %d: %w %q", i, ErrInvalidStatus, t.Status)
		}
		if strings.TrimSpace(t.Description) == "" {
			return fmt.Errorf("todo %d: %w", i, ErrEmptyDescription)
		}
	}
	return nil
}

// Tools returns read_todos and write_todos backed by store.
func Tools(store *Store) []tool.Tool {
	if store == nil {
		panic("store is required")
	}
	read := tool.New(tool.Declaration{
		Name:        "read_todos",
		Description: "Show your current task list.",
		Parameters:  &tool.Schema{Type: tool.TypeObject},
	}, func(context.Context, *readRequest) (string, error) {
		return Format(store.Read()), nil
	})

	write := tool.New(tool.Declaration{
		Name:        "write_todos",
		Description: "Replace your task list. Use it to plan and track multi-step work.",
		Parameters: &tool.Schema{
			Type: tool.TypeObject,
			Properties: map[string]*tool.Schema{
				"todos": {
					Type: tool.TypeArray,
					Items: &tool.Schema{
						Type: tool.TypeObject,
						Properties: map[string]*tool.Schema{
							"description": {Type: tool.TypeString},
							"status": {
								Type: tool.TypeString,
								Enum: []string{string(StatusPending), string(StatusInProgress), string(StatusCompleted), string(StatusCancelled)},
							},
						},
						Required: []string{"description"},
					},
				},
			},
			Required: []string{"todos"},
		},
	}, func(_ context.Context, req *WriteRequest) (string, error) {
		store.Write(req.Todos)
		return fmt.Sprintf("Saved %d todos.\n%s", len(req.Todos), Format(req.Todos)), nil
	})

	return []tool.Tool{read, write}
}

// Format renders the list as a checklist.
func Format(todos []Todo) string {
	if len(todos) == 0 {
		return "No todos."
	}
	marks := map[Status]string{
		StatusPending:    "[ ]",
		StatusInProgress: "[~]",
		StatusCompleted:  "[x]",
		StatusCancelled:  "[-]",
	}
	lines := make([]string, len(todos))
	for i, t := range todos {
		lines[i] = fmt.Sprintf("%d. %s %s", i+1, marks[t.Status], t.Description)
	}
	return strings.Join(lines, "\n")
}
