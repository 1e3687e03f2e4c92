package tool

import (
	"errors"
	"fmt"
)

// -- Sentinels --

var (
	ErrApprovalRequired = errors.New("tool requires approval and cannot be executed directly")
	ErrInvalidArguments = errors.New("invalid arguments")
)

// -- Error Types --

// ArgumentError reports a missing or ill-typed tool argument.
type ArgumentError struct {
	Argument string
	Reason   string
}

func (e *ArgumentError) Error() string {
	if e.Argument == "" {
		return fmt.Sprintf("invalid arguments: %s", e.Reason)
	}
	return fmt.Sprintf("invalid argument %q: %s", e.Argument, e.Reason)
}
func (e *ArgumentError) Unwrap() error { return ErrInvalidArguments }

// PanicError wraps a panic recovered inside a tool.
type PanicError struct {
	Tool  string
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("tool %s panicked: %v", e.Tool, e.Value)
}
