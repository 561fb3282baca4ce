package core

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrAuthentication means the backend rejected the session credential (HTTP 401).
// The session has already been cleared by the time a caller sees it.
var ErrAuthentication = errors.New("session expired or invalid, please log in again")

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

// ValidationError is a domain validation failure, raised locally before a request is
// sent or reported by the backend with a 400/422 status.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		if len(err.Fields) > 0 {
			return fmt.Sprintf("%s: %s", err.Fields[0].Field, err.Fields[0].Error)
		}
		return ""
	}
	return err.Err.Error()
}

// AuthorizationError is a role check failure reported by the backend (HTTP 403).
type AuthorizationError struct {
	Message string
}

func (err *AuthorizationError) Error() string {
	if err.Message == "" {
		return "permission denied"
	}
	return err.Message
}

// NotFoundError means the referenced entity does not exist.
type NotFoundError struct {
	Message string
}

func (err *NotFoundError) Error() string {
	if err.Message == "" {
		return "not found"
	}
	return err.Message
}

// NetworkError covers timeouts, connection failures and any non-auth non-2xx status.
type NetworkError struct {
	Endpoint string
	Status   int // 0 when no response was received
	Message  string
	Err      error
	timeout  bool
}

func NewNetworkError(endpoint string, status int, msg string, err error) *NetworkError {
	return &NetworkError{Endpoint: endpoint, Status: status, Message: msg, Err: err}
}

func NewTimeoutError(endpoint string, err error) *NetworkError {
	return &NetworkError{Endpoint: endpoint, Message: "request to " + endpoint + " timed out", Err: err, timeout: true}
}

func (err *NetworkError) Error() string {
	if err.Message != "" {
		return err.Message
	}
	if err.Err != nil {
		return err.Err.Error()
	}
	return "request to " + err.Endpoint + " failed"
}

func (err *NetworkError) Timeout() bool { return err.timeout }

func (err *NetworkError) Unwrap() error { return err.Err }

// IsAuthentication reports whether err was caused by an invalidated session.
func IsAuthentication(err error) bool {
	return errors.Cause(err) == ErrAuthentication
}

func IsAuthorization(err error) bool {
	_, ok := errors.Cause(err).(*AuthorizationError)
	return ok
}

func IsNotFound(err error) bool {
	_, ok := errors.Cause(err).(*NotFoundError)
	return ok
}

func IsNetwork(err error) bool {
	_, ok := errors.Cause(err).(*NetworkError)
	return ok
}
