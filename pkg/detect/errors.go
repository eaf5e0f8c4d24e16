package detect

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyFrame is returned when there is nothing to submit.
	ErrEmptyFrame = errors.New("detect: empty frame")

	// ErrBodyTooLarge is returned when a response exceeds the read limit.
	ErrBodyTooLarge = errors.New("detect: response body too large")
)

// APIError is a non-2xx response from the detection service.
type APIError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("detect: service returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("detect: service returned status %d: %s", e.StatusCode, e.Body)
}

// IsServerError returns true for 5xx statuses.
func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500 && e.StatusCode < 600
}

// InvalidDetectionError reports a detection that breaks the response contract.
type InvalidDetectionError struct {
	Index  int
	Reason string
}

// Error implements the error interface.
func (e *InvalidDetectionError) Error() string {
	return fmt.Sprintf("detect: detection %d invalid: %s", e.Index, e.Reason)
}
