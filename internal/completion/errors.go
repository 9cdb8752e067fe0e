package completion

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies a completion failure.
type Kind string

const (
	KindConfiguration Kind = "configuration"
	KindAuth          Kind = "auth"
	KindRequest       Kind = "request"
	KindProvider      Kind = "provider"
	KindEmptyResponse Kind = "empty_response"
)

// ErrNotConfigured is wrapped by configuration errors.
var ErrNotConfigured = errors.New("completion API key is not configured")

// Error is returned by Complete for every failure.
type Error struct {
	Kind    Kind
	Status  int    // HTTP status, 0 when no response was received
	Message string // provider-supplied message, if any
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Status != 0:
		return fmt.Sprintf("completion %s error (status %d): %s", e.Kind, e.Status, e.Message)
	case e.Message != "":
		return fmt.Sprintf("completion %s error: %s", e.Kind, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("completion %s error: %v", e.Kind, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("completion %s error (status %d)", e.Kind, e.Status)
	default:
		return fmt.Sprintf("completion %s error", e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind of err, or "" when err is not a completion error.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ""
}

// clientSide reports whether err is a failure the provider is not to blame
// for. These never count against the circuit breaker. A caller that gives
// up is client-side; the client's own timeout is not.
func clientSide(err error) bool {
	if errors.Is(err, context.Canceled) {
		return true
	}
	switch KindOf(err) {
	case KindAuth, KindRequest, KindEmptyResponse:
		return true
	}
	return false
}
