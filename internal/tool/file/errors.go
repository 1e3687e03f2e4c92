package file

import (
	"errors"
	"fmt"
)

// -- Sentinels --

var (
	ErrFileMissing              = errors.New("file does not exist")
	ErrFileExists               = errors.New("file already exists")
	ErrBinaryFile               = errors.New("file is binary")
	ErrFileTooLarge             = errors.New("file too large")
	ErrIsDirectory              = errors.New("path is a directory")
	ErrPathRequired             = errors.New("path is required")
	ErrContentOrOperations      = errors.New("provide either content or operations, not both")
	ErrSnippetNotFound          = errors.New("snippet not found")
	ErrReplacementCountMismatch = errors.New("replacement count mismatch")
	ErrEditConflict             = errors.New("edit conflict: file changed since the change was proposed")
	ErrNoChange                 = errors.New("modification leaves the file unchanged")
	ErrInvalidOffset            = errors.New("offset cannot be negative")
	ErrInvalidLimit             = errors.New("limit cannot be negative")
)

// -- Error Types --

// PathError attaches the workspace-relative path to a failure.
type PathError struct {
	Op    string
	Path  string
	Cause error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Cause)
}
func (e *PathError) Unwrap() error { return e.Cause }

// TooLargeError reports a size limit violation.
type TooLargeError struct {
	Path  string
	Size  int64
	Limit int64
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("%v: %s (size %d, limit %d)", ErrFileTooLarge, e.Path, e.Size, e.Limit)
}
func (e *TooLargeError) Unwrap() error { return ErrFileTooLarge }
