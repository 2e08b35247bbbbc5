package monitor

import (
	"context"
	"errors"
)

// Sentinel errors for the session/poll failure taxonomy.
//
// Sources wrap their failures with one of these so the loop can switch on an
// explicit kind instead of a broad catch-all.
var (
	// ErrConnection means the underlying source resource (browser, transport)
	// could not be allocated or reached. Fatal to the current session.
	ErrConnection = errors.New("source connection failed")

	// ErrAuth means credentials were rejected or the readiness signal never
	// appeared. Not retried within the session.
	ErrAuth = errors.New("authentication failed")

	// ErrTimeout means a bounded remote call exceeded its deadline.
	// Recoverable within the current session.
	ErrTimeout = errors.New("source timeout")
)

// FailureKind classifies a poll-cycle failure for the loop's state machine.
type FailureKind int

const (
	// KindSession: anything not otherwise classified. Fatal to the current
	// session; the loop tears down and restarts from scratch.
	KindSession FailureKind = iota

	// KindTimeout: the source was temporarily unresponsive. The loop keeps
	// the session, waits a short delay, and retries.
	KindTimeout

	// KindConnection: the session could not be established at all.
	KindConnection

	// KindAuth: login was rejected.
	KindAuth
)

func (k FailureKind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindConnection:
		return "connection"
	case KindAuth:
		return "auth"
	default:
		return "session"
	}
}

// Classify maps an error to its FailureKind.
//
// Deadline errors from any layer (including context) count as timeouts so a
// bound violation never masquerades as a session failure.
func Classify(err error) FailureKind {
	switch {
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, ErrConnection):
		return KindConnection
	case errors.Is(err, ErrAuth):
		return KindAuth
	default:
		return KindSession
	}
}
