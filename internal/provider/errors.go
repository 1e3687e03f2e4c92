package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"time"
)

// Sentinel errors for common backend failures.
var (
	ErrTimeout            = errors.New("request timeout")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrBadStatus          = errors.New("unexpected status")
	ErrInvalidResponse    = errors.New("invalid response")
	ErrAuthentication     = errors.New("authentication failed")
	ErrRateLimit          = errors.New("rate limit exceeded")
	ErrInvalidRequest     = errors.New("invalid request")
	ErrCancelled          = errors.New("request cancelled")
	ErrNetwork            = errors.New("network error")
)

// ErrorCode represents a backend error code.
type ErrorCode string

const (
	ErrorCodeTimeout         ErrorCode = "timeout"
	ErrorCodeUnavailable     ErrorCode = "service_unavailable"
	ErrorCodeBadStatus       ErrorCode = "bad_status"
	ErrorCodeInvalidResponse ErrorCode = "invalid_response"
	ErrorCodeAuth            ErrorCode = "authentication_failed"
	ErrorCodeRateLimit       ErrorCode = "rate_limit"
	ErrorCodeInvalidRequest  ErrorCode = "invalid_request"
	ErrorCodeCancelled       ErrorCode = "cancelled"
	ErrorCodeNetwork         ErrorCode = "network_error"
)

var codeSentinels = map[ErrorCode]error{
	ErrorCodeTimeout:         ErrTimeout,
	ErrorCodeUnavailable:     ErrServiceUnavailable,
	ErrorCodeBadStatus:       ErrBadStatus,
	ErrorCodeInvalidResponse: ErrInvalidResponse,
	ErrorCodeAuth:            ErrAuthentication,
	ErrorCodeRateLimit:       ErrRateLimit,
	ErrorCodeInvalidRequest:  ErrInvalidRequest,
	ErrorCodeCancelled:       ErrCancelled,
	ErrorCodeNetwork:         ErrNetwork,
}

// Error wraps a backend failure with a distinguishable code.
type Error struct {
	Code       ErrorCode
	Message    string
	Status     int // HTTP status when Code is bad_status
	Underlying error
	Retryable  bool
	RetryAfter *time.Duration
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Underlying)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Underlying
}

// Is matches the sentinel for the error's code.
func (e *Error) Is(target error) bool {
	return codeSentinels[e.Code] == target
}

// IsRetryable returns true if the error is retryable.
func IsRetryable(err error) bool {
	var providerErr *Error
	if errors.As(err, &providerErr) {
		return providerErr.Retryable
	}
	return false
}

// CodeOf returns the code of a backend error, or "" for other errors.
func CodeOf(err error) ErrorCode {
	var providerErr *Error
	if errors.As(err, &providerErr) {
		return providerErr.Code
	}
	return ""
}

// ClassifyTransportError maps a failed HTTP round trip to a backend error.
func ClassifyTransportError(err error) *Error {
	switch {
	case errors.Is(err, context.Canceled):
		return &Error{Code: ErrorCodeCancelled, Message: "request cancelled", Underlying: err}
	case errors.Is(err, context.DeadlineExceeded):
		return &Error{Code: ErrorCodeTimeout, Message: "model did not respond in time", Underlying: err, Retryable: true}
	case errors.Is(err, syscall.ECONNREFUSED):
		return &Error{Code: ErrorCodeUnavailable, Message: "connection refused; is the model server running?", Underlying: err, Retryable: true}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Code: ErrorCodeTimeout, Message: "model did not respond in time", Underlying: err, Retryable: true}
	}
	return &Error{Code: ErrorCodeNetwork, Message: "network error", Underlying: err, Retryable: true}
}

// StatusError maps a non-2xx HTTP status to a backend error.
func StatusError(status int, body string) *Error {
	e := &Error{Code: ErrorCodeBadStatus, Status: status, Message: fmt.Sprintf("HTTP %d: %s", status, body)}
	switch {
	case status == 401 || status == 403:
		e.Code = ErrorCodeAuth
	case status == 429:
		e.Code = ErrorCodeRateLimit
		e.Retryable = true
	case status >= 500:
		e.Retryable = true
	}
	return e
}
