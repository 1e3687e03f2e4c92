package fs

import (
	"errors"
	"fmt"
)

// AtomicWriteError reports which step of an atomic write failed.
type AtomicWriteError struct {
	Step  string // create, write, sync, close, rename, chmod
	Path  string
	Cause error
}

func (e *AtomicWriteError) Error() string {
	return fmt.Sprintf("atomic write %s failed for %s: %v", e.Step, e.Path, e.Cause)
}
func (e *AtomicWriteError) Unwrap() error { return e.Cause }

var (
	ErrInvalidOffset = errors.New("invalid offset")
	ErrIsDirectory   = errors.New("is a directory")
)
