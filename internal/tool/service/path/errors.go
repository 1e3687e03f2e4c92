package path

import (
	"errors"
	"fmt"
)

// -- Error Types --

// WorkspaceRootError is returned when the workspace root is invalid.
type WorkspaceRootError struct {
	Root  string
	Cause error
}

func (e *WorkspaceRootError) Error() string {
	return fmt.Sprintf("invalid workspace root %s: %v", e.Root, e.Cause)
}
func (e *WorkspaceRootError) Unwrap() error { return e.Cause }

// RejectedPathError is returned for paths a tool may not touch.
type RejectedPathError struct {
	Path   string
	Reason string
}

func (e *RejectedPathError) Error() string {
	return fmt.Sprintf("%v: %q (%s)", ErrPathRejected, e.Path, e.Reason)
}
func (e *RejectedPathError) Unwrap() error { return ErrPathRejected }

// -- Sentinels --

var (
	ErrPathRejected        = errors.New("path traversal / absolute path rejected")
	ErrWorkspaceRootNotSet = errors.New("workspace root not set")
	ErrNotADirectory       = errors.New("not a directory")
)
