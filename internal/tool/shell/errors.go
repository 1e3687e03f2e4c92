package shell

import (
	"errors"
	"fmt"
	"time"
)

// -- Sentinels --

var (
	ErrCommandRequired = errors.New("command cannot be empty")
	ErrCommandDenied   = errors.New("command blocked for safety")
	ErrEnvFileParse    = errors.New("invalid env file")
	ErrNegativeTimeout = errors.New("timeout_seconds cannot be negative")
)

// -- Error Types --

// DeniedError names the deny-list pattern a command matched.
type DeniedError struct {
	Command string
	Pattern string
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("%v: %q matches %q", ErrCommandDenied, e.Command, e.Pattern)
}
func (e *DeniedError) Unwrap() error { return ErrCommandDenied }

// TimeoutError is returned when a command exceeds its timeout.
type TimeoutError struct {
	Command  string
	Duration time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("command %q timed out after %v", e.Command, e.Duration)
}
func (e *TimeoutError) Timeout() bool { return true }
