package bridge

import (
	"errors"
	"fmt"
)

// Sentinel errors for common bridge error conditions.
var (
	// ErrSessionClosed is returned when an operation is attempted on a
	// closed session.
	ErrSessionClosed = errors.New("bridge: session closed")

	// ErrSessionNotFound is returned when a session ID does not exist.
	ErrSessionNotFound = errors.New("bridge: session not found")

	// ErrMaxSessionsReached is returned when the session limit is hit.
	ErrMaxSessionsReached = errors.New("bridge: max sessions reached")

	// ErrServerClosed is returned when the server has been shut down.
	ErrServerClosed = errors.New("bridge: server closed")
)

// SessionError wraps an error with session context for debugging.
type SessionError struct {
	SessionID string
	Op        string
	Err       error
}

// Error returns the error message with session context.
func (e *SessionError) Error() string {
	if e.SessionID == "" {
		return fmt.Sprintf("bridge: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("bridge: session %s: %s: %v", e.SessionID, e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *SessionError) Unwrap() error {
	return e.Err
}

// NewSessionError creates a new SessionError.
func NewSessionError(sessionID, op string, err error) *SessionError {
	return &SessionError{
		SessionID: sessionID,
		Op:        op,
		Err:       err,
	}
}
