package breezometer

import (
	"errors"
	"fmt"
)

// ErrCircuitOpen is returned when the optional circuit breaker rejects a call.
var ErrCircuitOpen = errors.New("breezometer: circuit breaker open")

// ValidationError reports caller input rejected before any request was sent.
type ValidationError struct {
	Op     Operation
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("breezometer %s: invalid request: %s", e.Op, e.Reason)
	}
	return fmt.Sprintf("breezometer %s: invalid %s: %s", e.Op, e.Field, e.Reason)
}

// TransportError wraps a connection or timeout failure of the final attempt.
type TransportError struct {
	Op  Operation
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("breezometer %s: request failed: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// UnexpectedStatusError is returned when the final attempt did not get a 200.
type UnexpectedStatusError struct {
	Op         Operation
	StatusCode int
	Body       string
}

func (e *UnexpectedStatusError) Error() string {
	return fmt.Sprintf("breezometer %s: did not receive a HTTP 200, got %d: %s", e.Op, e.StatusCode, e.Body)
}

// ProviderError is an application level error embedded in a 200 response.
type ProviderError struct {
	Op      Operation
	Code    int
	Message string
	Body    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("breezometer %s: application error %d: %s", e.Op, e.Code, e.Message)
}

// DecodeError is returned when a 200 response body is not valid JSON.
type DecodeError struct {
	Op  Operation
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("breezometer %s: failed to decode response: %v", e.Op, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// IsValidation reports whether err is (or wraps) a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
