package model

import "time"

// PhaseKind tags a countdown interval.
type PhaseKind string

const (
	PhaseFocus     PhaseKind = "focus"
	PhaseBreak     PhaseKind = "break"
	PhaseLongBreak PhaseKind = "long_break"
)

// Label returns the human-readable phase name.
func (kind PhaseKind) Label() string {
	switch kind {
	case PhaseFocus:
		return "Focus"
	case PhaseBreak:
		return "Break"
	case PhaseLongBreak:
		return "Long break"
	default:
		return string(kind)
	}
}

// IsBreak reports whether the kind is a regular or long break.
func (kind PhaseKind) IsBreak() bool {
	return kind == PhaseBreak || kind == PhaseLongBreak
}

// Phase is a single countdown interval. It is derived, never stored.
type Phase struct {
	Kind            PhaseKind
	DurationMinutes int
}

// Duration returns the full length of the phase.
func (phase Phase) Duration() time.Duration {
	return time.Duration(phase.DurationMinutes) * time.Minute
}
