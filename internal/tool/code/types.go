package code

import "strings"

// CodeRequest runs Code through the configured interpreter.
type CodeRequest struct {
	Code           string `json:"code"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty"`
}

func (r *CodeRequest) Validate() error {
	if strings.TrimSpace(r.Code) == "" {
		return ErrCodeRequired
	}
	if r.TimeoutSeconds < 0 {
		return ErrNegativeTimeout
	}
	return nil
}
