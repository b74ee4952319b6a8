package queue

import (
	"fmt"

	"pomodoro/internal/core/model"
)

// Start activates the queue with the cursor on the first cycle of the first session.
func Start(queue model.Queue) (model.ActiveQueue, error) {
	if len(queue.Sessions) == 0 {
		return model.ActiveQueue{}, fmt.Errorf("start %q: %w", queue.Name, model.ErrEmptyQueue)
	}
	return model.ActiveQueue{
		Queue:        queue.Clone(),
		Iterations:   1,
		SessionIdx:   0,
		SessionCycle: 1,
	}, nil
}

// Advance moves the cursor past the focus unit that just completed.
//
// After the last cycle of the last session the cursor wraps to the first
// session and Iterations grows. There is no finished state: the queue runs
// until the caller stops it.
func Advance(active model.ActiveQueue) model.ActiveQueue {
	next := active
	if active.SessionCycle < active.Session().Cycles {
		next.SessionCycle++
		return next
	}

	next.SessionCycle = 1
	if active.SessionIdx < len(active.Queue.Sessions)-1 {
		next.SessionIdx++
		return next
	}
	next.SessionIdx = 0
	next.Iterations++
	return next
}

// CompletedFocus counts the focus phases finished since Start to reach the
// cursor. Every focus completion advances the cursor once, so the count is
// recoverable from a persisted cursor.
func CompletedFocus(active model.ActiveQueue) int {
	done := (active.Iterations - 1) * active.Queue.TotalCycles()
	for _, session := range active.Queue.Sessions[:active.SessionIdx] {
		done += session.Cycles
	}
	return done + active.SessionCycle - 1
}
