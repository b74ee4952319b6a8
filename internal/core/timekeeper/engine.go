package timekeeper

import (
	"time"

	"pomodoro/internal/core/model"
)

// Status is the countdown mode of a TimerState.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusRunning Status = "running"
	StatusPaused  Status = "paused"
)

// TimerState is an immutable snapshot of a single phase countdown. Every
// transition returns a new value.
type TimerState struct {
	Phase     model.Phase
	Remaining time.Duration
	Status    Status
	// Generation changes on Load and Restart so that displays can tell a
	// forced reset apart from an ordinary tick.
	Generation int
}

// PhaseComplete is the only signal the engine sends to the outside world.
type PhaseComplete struct {
	Phase      model.Phase
	Elapsed    time.Duration
	Manual     bool
	Generation int
}

// Load prepares an idle countdown for phase. prev only carries the generation forward.
func Load(prev TimerState, phase model.Phase) TimerState {
	return TimerState{
		Phase:      phase,
		Remaining:  phase.Duration(),
		Status:     StatusIdle,
		Generation: prev.Generation + 1,
	}
}

// Running reports whether the countdown is active.
func (state TimerState) Running() bool {
	return state.Status == StatusRunning
}

// Start resumes or begins the countdown. Starting a running timer is a no-op.
func (state TimerState) Start() TimerState {
	if state.Status == StatusRunning {
		return state
	}
	state.Status = StatusRunning
	return state
}

// Pause freezes a running countdown. Anything else is returned unchanged.
func (state TimerState) Pause() TimerState {
	if state.Status != StatusRunning {
		return state
	}
	state.Status = StatusPaused
	return state
}

// Restart runs the current phase again from its full duration.
func (state TimerState) Restart() TimerState {
	state.Remaining = state.Phase.Duration()
	state.Status = StatusRunning
	state.Generation++
	return state
}

// Tick consumes elapsed time from a running countdown. When the remaining
// time is used up it returns the drained idle state and a non-nil
// PhaseComplete; remaining time never goes negative.
func (state TimerState) Tick(elapsed time.Duration) (TimerState, *PhaseComplete) {
	if state.Status != StatusRunning || elapsed <= 0 {
		return state, nil
	}
	state.Remaining -= elapsed
	if state.Remaining > 0 {
		return state, nil
	}
	state.Remaining = 0
	state.Status = StatusIdle
	return state, &PhaseComplete{
		Phase:      state.Phase,
		Elapsed:    state.Phase.Duration(),
		Generation: state.Generation,
	}
}

// Next forfeits the remaining time and completes the phase immediately.
func (state TimerState) Next(manual bool) (TimerState, PhaseComplete) {
	complete := PhaseComplete{
		Phase:      state.Phase,
		Elapsed:    state.Phase.Duration() - state.Remaining,
		Manual:     manual,
		Generation: state.Generation,
	}
	if complete.Elapsed < 0 {
		complete.Elapsed = 0
	}
	state.Remaining = 0
	state.Status = StatusIdle
	return state, complete
}

// Progress returns the fraction of the phase already elapsed, in [0, 1].
func (state TimerState) Progress() float64 {
	total := state.Phase.Duration()
	if total <= 0 {
		return 1
	}
	progress := float64(total-state.Remaining) / float64(total)
	if progress < 0 {
		return 0
	}
	if progress > 1 {
		return 1
	}
	return progress
}
