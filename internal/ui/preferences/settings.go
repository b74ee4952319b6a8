package preferences

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"pomodoro/internal/core/model"
)

// Form holds the raw text of the preferences fields.
type Form struct {
	Focus          string
	Break          string
	LongBreak      string
	LongInterval   string
	AutoAdvance    bool
	IdlePause      bool
	IdlePauseAfter string
}

// FormFromSettings renders settings into form text.
func FormFromSettings(settings model.Settings) Form {
	return Form{
		Focus:          strconv.Itoa(settings.FocusMinutes),
		Break:          strconv.Itoa(settings.BreakMinutes),
		LongBreak:      strconv.Itoa(settings.LongBreakMinutes),
		LongInterval:   strconv.Itoa(settings.LongBreakInterval),
		AutoAdvance:    settings.AutoAdvance,
		IdlePause:      settings.IdlePause,
		IdlePauseAfter: strconv.Itoa(int(settings.IdlePauseAfter / time.Minute)),
	}
}

// Apply parses the form on top of base. The first invalid field aborts.
func (form Form) Apply(base model.Settings) (model.Settings, error) {
	settings := base
	var err error

	if settings.FocusMinutes, err = parseMinutes("focus", form.Focus); err != nil {
		return base, err
	}
	if settings.BreakMinutes, err = parseMinutes("break", form.Break); err != nil {
		return base, err
	}
	if settings.LongBreakMinutes, err = parseMinutes("long break", form.LongBreak); err != nil {
		return base, err
	}
	// 0 turns long breaks off.
	interval, convErr := strconv.Atoi(strings.TrimSpace(form.LongInterval))
	if convErr != nil || interval < 0 {
		return base, fmt.Errorf("long break interval: want a whole number >= 0, got %q", form.LongInterval)
	}
	settings.LongBreakInterval = interval

	idleAfter, convErr := strconv.Atoi(strings.TrimSpace(form.IdlePauseAfter))
	if convErr != nil || idleAfter <= 0 {
		return base, fmt.Errorf("idle pause: want minutes > 0, got %q", form.IdlePauseAfter)
	}
	settings.IdlePauseAfter = time.Duration(idleAfter) * time.Minute

	settings.AutoAdvance = form.AutoAdvance
	settings.IdlePause = form.IdlePause
	return settings, nil
}

func parseMinutes(field, value string) (int, error) {
	minutes, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || minutes < model.MinSessionMinutes || minutes > model.MaxSessionMinutes {
		return 0, fmt.Errorf("%s: %w: want %d..%d minutes, got %q",
			field, model.ErrInvalidDuration, model.MinSessionMinutes, model.MaxSessionMinutes, value)
	}
	return minutes, nil
}
