package tool

import (
	"context"
	"fmt"
)

// Type represents JSON Schema types.
type Type string

const (
	TypeString  Type = "string"
	TypeNumber  Type = "number"
	TypeInteger Type = "integer"
	TypeBoolean Type = "boolean"
	TypeArray   Type = "array"
	TypeObject  Type = "object"
)

// Schema represents a JSON Schema for tool parameters.
type Schema struct {
	Type        Type               `json:"type"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Required    []string           `json:"required,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Enum        []string           `json:"enum,omitempty"`
}

// Declaration describes a tool to the model: its name, purpose and parameters.
type Declaration struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Parameters  *Schema `json:"parameters,omitempty"`
}

// Outcome is the structured result of running a tool.
// Error is set iff Success is false.
type Outcome struct {
	Success bool   `json:"success"`
	Output  string `json:"output,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Succeed returns a successful outcome carrying output.
func Succeed(output string) Outcome {
	return Outcome{Success: true, Output: output}
}

// Fail returns a failed outcome describing err.
func Fail(err error) Outcome {
	if err == nil {
		return Outcome{Success: false, Error: "unknown error"}
	}
	return Outcome{Success: false, Error: err.Error()}
}

// Failf returns a failed outcome with a formatted message.
func Failf(format string, args ...any) Outcome {
	return Outcome{Success: false, Error: fmt.Sprintf(format, args...)}
}

// Text renders the outcome as the model sees it.
func (o Outcome) Text() string {
	if o.Success {
		return o.Output
	}
	return "Error: " + o.Error
}

// Tool is a named capability the model can invoke.
// Execute never returns a Go error; every failure is encoded in the Outcome.
type Tool interface {
	Declaration() Declaration
	Execute(ctx context.Context, args map[string]any) Outcome
}

// ChangeKind classifies a mutating operation.
type ChangeKind string

const (
	KindCreate  ChangeKind = "create"
	KindModify  ChangeKind = "modify"
	KindDelete  ChangeKind = "delete"
	KindExecute ChangeKind = "execute"
)

// Change is a planned side effect that runs only after approval.
type Change struct {
	Kind    ChangeKind
	Target  string // path or command
	Payload string // new content or command text
	Reason  string
	Preview Preview

	// Apply performs the side effect. It is called at most once.
	Apply func(ctx context.Context) Outcome
}

// Mutating is implemented by tools whose effects need human approval.
// Plan validates arguments and returns the change without performing it;
// Execute on a mutating tool refuses to run.
type Mutating interface {
	Tool
	Plan(ctx context.Context, args map[string]any) (*Change, error)
}

// IsMutating reports whether t must go through approval.
func IsMutating(t Tool) bool {
	_, ok := t.(Mutating)
	return ok
}
