package timekeeper

import (
	"time"

	"pomodoro/internal/core/model"
)

// EventType defines the type of TimeKeeper event.
type EventType string

const (
	EventStateChange      EventType = "state_change"
	EventProgress         EventType = "progress"
	EventPhaseComplete    EventType = "phase_complete"
	EventQueueChanged     EventType = "queue_changed"
	EventIdlePause        EventType = "idle_pause"
	EventIdleError        EventType = "idle_error"
	EventPersistenceError EventType = "persistence_error"
)

// Event represents a TimeKeeper update for observers.
type Event struct {
	Type   EventType
	Timer  TimerState
	Active *model.ActiveQueue
	// Complete is set on EventPhaseComplete.
	Complete *PhaseComplete
	Message  string
	Err      error
	At       time.Time
}
