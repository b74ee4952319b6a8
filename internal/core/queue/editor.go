// Package queue edits queues and tracks progress through an activated queue.
// Every function here is pure: inputs are never modified and outputs never
// share backing arrays with them.
package queue

import (
	"fmt"
	"strings"

	"pomodoro/internal/core/model"

	"github.com/google/uuid"
)

// NewQueue creates an empty queue with a fresh id.
func NewQueue(name string) model.Queue {
	return model.Queue{
		ID:       uuid.NewString(),
		Name:     strings.TrimSpace(name),
		Sessions: []model.Session{},
	}
}

// RenameQueue returns a copy of the queue with a new name.
func RenameQueue(queue model.Queue, name string) model.Queue {
	renamed := queue.Clone()
	renamed.Name = strings.TrimSpace(name)
	return renamed
}

// CreateSession validates the bounds and returns a session with a fresh id.
func CreateSession(durationMinutes, cycles int, projectID string) (model.Session, error) {
	if durationMinutes < model.MinSessionMinutes || durationMinutes > model.MaxSessionMinutes {
		return model.Session{}, fmt.Errorf("%w: %d minutes (want %d..%d)",
			model.ErrInvalidDuration, durationMinutes, model.MinSessionMinutes, model.MaxSessionMinutes)
	}
	if cycles < model.MinSessionCycles || cycles > model.MaxSessionCycles {
		return model.Session{}, fmt.Errorf("%w: %d (want %d..%d)",
			model.ErrInvalidCycles, cycles, model.MinSessionCycles, model.MaxSessionCycles)
	}
	return model.Session{
		ID:              uuid.NewString(),
		DurationMinutes: durationMinutes,
		Cycles:          cycles,
		ProjectID:       strings.TrimSpace(projectID),
	}, nil
}

// AddSession appends the session to the end of the queue.
func AddSession(queue model.Queue, session model.Session) (model.Queue, error) {
	if queue.IndexOf(session.ID) >= 0 {
		return queue, fmt.Errorf("%w: %s", model.ErrDuplicateSessionID, session.ID)
	}
	updated := queue.Clone()
	updated.Sessions = append(updated.Sessions, session)
	return updated, nil
}

// RemoveSession drops the session with the given id, keeping the order of the rest.
func RemoveSession(queue model.Queue, sessionID string) (model.Queue, error) {
	index := queue.IndexOf(sessionID)
	if index < 0 {
		return queue, fmt.Errorf("%w: %s", model.ErrSessionNotFound, sessionID)
	}
	updated := queue
	updated.Sessions = make([]model.Session, 0, len(queue.Sessions)-1)
	updated.Sessions = append(updated.Sessions, queue.Sessions[:index]...)
	updated.Sessions = append(updated.Sessions, queue.Sessions[index+1:]...)
	return updated, nil
}

// ReorderSession moves the session at fromIndex to toIndex, shifting the
// sessions in between by one. Moving back with the indices swapped restores
// the original order.
func ReorderSession(queue model.Queue, fromIndex, toIndex int) (model.Queue, error) {
	count := len(queue.Sessions)
	if fromIndex < 0 || fromIndex >= count {
		return queue, fmt.Errorf("%w: from %d (len %d)", model.ErrIndexOutOfBounds, fromIndex, count)
	}
	if toIndex < 0 || toIndex >= count {
		return queue, fmt.Errorf("%w: to %d (len %d)", model.ErrIndexOutOfBounds, toIndex, count)
	}

	updated := queue.Clone()
	if fromIndex == toIndex {
		return updated, nil
	}

	moved := updated.Sessions[fromIndex]
	if fromIndex < toIndex {
		copy(updated.Sessions[fromIndex:toIndex], updated.Sessions[fromIndex+1:toIndex+1])
	} else {
		copy(updated.Sessions[toIndex+1:fromIndex+1], updated.Sessions[toIndex:fromIndex])
	}
	updated.Sessions[toIndex] = moved
	return updated, nil
}
