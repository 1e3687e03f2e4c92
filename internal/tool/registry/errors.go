package registry

import (
	"errors"
	"fmt"
)

// -- Sentinels --

var (
	ErrDuplicateName = errors.New("duplicate tool name")
	ErrUnknownTool   = errors.New("unknown tool")
)

// -- Error Types --

// DuplicateNameError is returned when a tool name is already registered.
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("tool %q is already registered", e.Name)
}
func (e *DuplicateNameError) Unwrap() error { return ErrDuplicateName }

// UnknownToolError is returned when no tool has the requested name.
type UnknownToolError struct {
	Name      string
	Available []string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("tool %q does not exist", e.Name)
}
func (e *UnknownToolError) Unwrap() error { return ErrUnknownTool }
