// Package errors provides domain-specific error types and sentinel errors
// for improved error handling across the application.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common scenarios.
// Use errors.Is() to check these errors in your code.
var (
	// ErrExtractionUnavailable indicates no extraction provider is configured or reachable.
	ErrExtractionUnavailable = errors.New("extraction unavailable")

	// ErrMediaUnsupported indicates an inbound media payload could not be processed.
	ErrMediaUnsupported = errors.New("unsupported media")
)

// TransportError represents WhatsApp Cloud API call failures with context.
type TransportError struct {
	Operation  string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("transport error (op=%s, status=%d): %v", e.Operation, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("transport error (op=%s): %v", e.Operation, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewTransportError creates a new transport error.
func NewTransportError(operation string, statusCode int, err error) *TransportError {
	return &TransportError{
		Operation:  operation,
		StatusCode: statusCode,
		Err:        err,
	}
}
