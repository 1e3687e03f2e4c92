package approval

import (
	"errors"
	"fmt"
)

// -- Sentinels --

var (
	ErrUnknownChange = errors.New("unknown change")
	ErrRejected      = errors.New("rejected by user")
	ErrExpired       = errors.New("approval expired")
	ErrDiscarded     = errors.New("discarded")
)

// -- Error Types --

// UnknownChangeError is returned by Resolve when the id is not pending,
// including ids that were already resolved.
type UnknownChangeError struct {
	ID string
}

func (e *UnknownChangeError) Error() string {
	return fmt.Sprintf("change %q is not pending", e.ID)
}
func (e *UnknownChangeError) Unwrap() error { return ErrUnknownChange }
