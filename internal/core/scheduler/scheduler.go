// Package scheduler derives which phase runs next from the queue cursor,
// the completed-focus counter and the user's settings.
package scheduler

import "pomodoro/internal/core/model"

// FocusPhase returns the focus phase for the cursor, or the default focus
// length from settings when no queue is active.
func FocusPhase(active *model.ActiveQueue, settings model.Settings) model.Phase {
	minutes := settings.FocusMinutes
	if active != nil && active.Valid() {
		minutes = active.Session().DurationMinutes
	}
	return model.Phase{Kind: model.PhaseFocus, DurationMinutes: minutes}
}

// IsLongBreak reports whether the break following the completedFocus-th focus
// phase is a long one. A non-positive interval disables long breaks.
func IsLongBreak(completedFocus int, settings model.Settings) bool {
	if settings.LongBreakInterval <= 0 || completedFocus <= 0 {
		return false
	}
	return completedFocus%settings.LongBreakInterval == 0
}

// BreakPhase returns the break that follows the completedFocus-th focus phase.
func BreakPhase(completedFocus int, settings model.Settings) model.Phase {
	if IsLongBreak(completedFocus, settings) {
		return model.Phase{Kind: model.PhaseLongBreak, DurationMinutes: settings.LongBreakMinutes}
	}
	return model.Phase{Kind: model.PhaseBreak, DurationMinutes: settings.BreakMinutes}
}

// NextPhase returns the phase that follows one of kind previous.
//
// completedFocus must already count the focus phase that just ended, and
// active must already be advanced past it.
func NextPhase(previous model.PhaseKind, active *model.ActiveQueue, completedFocus int, settings model.Settings) model.Phase {
	if previous == model.PhaseFocus {
		return BreakPhase(completedFocus, settings)
	}
	return FocusPhase(active, settings)
}
