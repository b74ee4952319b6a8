package platform

import (
	"time"

	"pomodoro/internal/core/timekeeper"
)

// IdleProvider returns the duration since last user input.
type IdleProvider interface {
	IdleDuration() (time.Duration, error)
}

var _ timekeeper.IdleChecker = IdleProvider(nil)

// NewIdleProvider returns a platform-specific idle provider.
// Systems without a usable source report timekeeper.ErrIdleUnsupported.
func NewIdleProvider() IdleProvider {
	return newIdleProvider()
}

type unsupportedIdleProvider struct{}

func (unsupportedIdleProvider) IdleDuration() (time.Duration, error) {
	return 0, timekeeper.ErrIdleUnsupported
}

func millisToDuration(idleMillis int64) time.Duration {
	if idleMillis < 0 {
		idleMillis = 0
	}
	return time.Duration(idleMillis) * time.Millisecond
}
