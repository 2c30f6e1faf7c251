package domain

import (
	"errors"
	"fmt"
)

// ErrToolNotFound is returned when no operation matches a tool name.
var ErrToolNotFound = errors.New("tool not found")

// MissingParameterError reports a required argument that was not supplied.
// It is always raised before any network call.
type MissingParameterError struct {
	Operation string
	Parameter string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("missing required parameter '%s' for %s", e.Parameter, e.Operation)
}

// InvalidParameterError reports an argument of the wrong type or an argument
// the operation does not declare.
type InvalidParameterError struct {
	Operation string
	Parameter string
	Reason    string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid parameter '%s' for %s: %s", e.Parameter, e.Operation, e.Reason)
}

// RemoteError is a non-2xx response from the remote API.
type RemoteError struct {
	StatusCode int
	Body       []byte
}

func (e *RemoteError) Error() string {
	if len(e.Body) == 0 {
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// TransportError is a failure to complete the HTTP exchange: DNS, TLS,
// connection, timeout or an unreadable response body.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
