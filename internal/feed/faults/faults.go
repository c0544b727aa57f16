// Package faults defines the error taxonomy shared by the feed core.
package faults

import (
	"errors"
	"fmt"
)

// Kind classifies a feed error for state rendering and retry decisions.
type Kind string

const (
	// KindAuthRequired means no credential is present; the operation was not attempted.
	KindAuthRequired Kind = "auth_required"

	// KindSessionExpired means the credential is present but invalid or expired,
	// detected locally or via a 401/403. Credentials are purged when this is raised.
	KindSessionExpired Kind = "session_expired"

	// KindTransport means a network or channel failure after a successful or
	// attempted connection. Retryable for the push channel.
	KindTransport Kind = "transport_error"

	// KindProtocol means the server explicitly rejected a subscription or request
	// for a reason other than auth. Not retried automatically.
	KindProtocol Kind = "protocol_error"

	// KindRequestFailed is a generic non-2xx REST response.
	KindRequestFailed Kind = "request_failed"

	// KindNormalization means a malformed push payload. Logged and dropped,
	// never surfaced to the user.
	KindNormalization Kind = "normalization_error"
)

// Error carries a Kind, a human-readable message and an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a feed error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates a feed error of the given kind wrapping a cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// AuthRequired returns the canonical missing-credential error.
func AuthRequired() *Error {
	return New(KindAuthRequired, "authentication required, please log in")
}

// SessionExpired returns the canonical expired-credential error.
func SessionExpired() *Error {
	return New(KindSessionExpired, "session expired, please log in again")
}

// KindOf extracts the Kind from err, or "" if err is not a feed error.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// Retryable reports whether the push channel should attempt reconnection
// after err. Only transport-level failures qualify; auth and protocol
// rejections need user action.
func Retryable(err error) bool {
	return KindOf(err) == KindTransport
}
