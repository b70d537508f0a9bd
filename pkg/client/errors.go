package client

import (
	"errors"
	"fmt"
)

// StatusError is returned when the booking API answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("booking API responded with status %d", e.StatusCode)
	}
	return fmt.Sprintf("booking API responded with status %d: %s", e.StatusCode, e.Message)
}

// StatusCode extracts the HTTP status carried by err. The second result is
// false when no response was received at all.
func StatusCode(err error) (int, bool) {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode, true
	}
	return 0, false
}

func newStatusError(resp *Response) *StatusError {
	return &StatusError{
		StatusCode: resp.StatusCode,
		Message:    GetErrorMessage(resp),
	}
}
