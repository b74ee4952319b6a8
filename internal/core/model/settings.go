package model

import "time"

// Settings contains the user-tunable timing rules.
type Settings struct {
	FocusMinutes      int
	BreakMinutes      int
	LongBreakMinutes  int
	LongBreakInterval int
	AutoAdvance       bool

	IdlePause      bool
	IdlePauseAfter time.Duration
}

// DefaultSettings returns the classic 25/5/15 rhythm with a long break every fourth focus.
func DefaultSettings() Settings {
	return Settings{
		FocusMinutes:      25,
		BreakMinutes:      5,
		LongBreakMinutes:  15,
		LongBreakInterval: 4,
		AutoAdvance:       true,
		IdlePause:         false,
		IdlePauseAfter:    5 * time.Minute,
	}
}
