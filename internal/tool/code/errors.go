package code

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrCodeRequired    = errors.New("code cannot be empty")
	ErrNegativeTimeout = errors.New("timeout_seconds cannot be negative")
)

// TimeoutError is returned when a snippet exceeds its timeout.
type TimeoutError struct {
	Duration time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("code execution timed out after %v", e.Duration)
}
func (e *TimeoutError) Timeout() bool { return true }
