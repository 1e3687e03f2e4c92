package directory

import "errors"

// -- Sentinels --

var (
	ErrPathMissing   = errors.New("path does not exist")
	ErrNotADirectory = errors.New("not a directory")
	ErrInvalidLimit  = errors.New("limit cannot be negative")
)
