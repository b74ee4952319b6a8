package model

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidDuration indicates a session duration outside [MinSessionMinutes, MaxSessionMinutes].
	ErrInvalidDuration = errors.New("invalid session duration")
	// ErrInvalidCycles indicates a cycle count outside [MinSessionCycles, MaxSessionCycles].
	ErrInvalidCycles = errors.New("invalid session cycles")
	// ErrDuplicateSessionID indicates the session id already exists in the queue.
	ErrDuplicateSessionID = errors.New("duplicate session id")
	// ErrSessionNotFound indicates no session with the given id exists in the queue.
	ErrSessionNotFound = errors.New("session not found")
	// ErrIndexOutOfBounds indicates a reorder index outside the session list.
	ErrIndexOutOfBounds = errors.New("index out of bounds")
	// ErrEmptyQueue indicates an attempt to start a queue without sessions.
	ErrEmptyQueue = errors.New("queue has no sessions")
	// ErrInvalidCursor indicates an active queue cursor outside its queue's bounds.
	ErrInvalidCursor = errors.New("active queue cursor out of range")
	// ErrQueueNotFound indicates no queue with the given id is known.
	ErrQueueNotFound = errors.New("queue not found")
)

// PersistenceError wraps a failure reported by an external store. The local
// state transition that triggered the write has already been applied.
type PersistenceError struct {
	Op  string
	Err error
}

func (err *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s: %v", err.Op, err.Err)
}

func (err *PersistenceError) Unwrap() error {
	return err.Err
}
