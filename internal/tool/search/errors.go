package search

import (
	"errors"
	"fmt"
)

var (
	ErrQueryRequired = errors.New("query is required")
	ErrPathMissing   = errors.New("search path does not exist")
	ErrNotADirectory = errors.New("search path is not a directory")
	ErrRipgrepFailed = errors.New("ripgrep failed")
)

// CommandFailedError reports an rg run that exited with an error status.
type CommandFailedError struct {
	ExitCode int
	Stderr   string
}

func (e *CommandFailedError) Error() string {
	return fmt.Sprintf("%v (exit code %d): %s", ErrRipgrepFailed, e.ExitCode, e.Stderr)
}
func (e *CommandFailedError) Unwrap() error { return ErrRipgrepFailed }
