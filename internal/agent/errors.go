package agent

import "errors"

var (
	// ErrAwaitingApproval is returned when a message arrives while the
	// loop is parked on a pending change.
	ErrAwaitingApproval = errors.New("session is waiting for an approval decision")

	// ErrSessionClosed is returned by every operation on a closed session.
	ErrSessionClosed = errors.New("session closed")

	// ErrSessionNotFound is returned by Manager lookups.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionExists is returned when opening an id already in use.
	ErrSessionExists = errors.New("session already exists")
)
