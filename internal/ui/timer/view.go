package timer

import (
	"fmt"
	"time"

	"pomodoro/internal/core/model"
	"pomodoro/internal/core/timekeeper"
)

// View is the text shown by the timer window and the tray for one snapshot.
type View struct {
	Phase    string
	Clock    string
	Queue    string
	Toggle   string
	Progress float64
	InBreak  bool
	Running  bool
}

// Describe renders a keeper snapshot into display strings.
func Describe(snapshot timekeeper.Snapshot) View {
	timer := snapshot.Timer
	view := View{
		Phase:    timer.Phase.Kind.Label(),
		Clock:    FormatRemaining(timer.Remaining),
		Progress: timer.Progress(),
		InBreak:  timer.Phase.Kind.IsBreak(),
		Running:  timer.Running(),
		Queue:    describeQueue(snapshot.Active),
	}
	switch timer.Status {
	case timekeeper.StatusRunning:
		view.Toggle = "Pause"
	case timekeeper.StatusPaused:
		view.Toggle = "Resume"
		view.Phase += " (paused)"
	default:
		view.Toggle = "Start"
	}
	return view
}

// Status is the one-line summary used in the tray menu.
func (view View) Status() string {
	return fmt.Sprintf("%s %s", view.Phase, view.Clock)
}

func describeQueue(active *model.ActiveQueue) string {
	if active == nil {
		return "No queue"
	}
	if !active.Valid() {
		return active.Queue.Name
	}
	session := active.Session()
	line := fmt.Sprintf("%s · session %d/%d · cycle %d/%d",
		active.Queue.Name,
		active.SessionIdx+1, len(active.Queue.Sessions),
		active.SessionCycle, session.Cycles,
	)
	if session.ProjectID != "" {
		line += " · " + session.ProjectID
	}
	if active.Iterations > 1 {
		line += fmt.Sprintf(" · pass %d", active.Iterations)
	}
	return line
}

// FormatRemaining renders a countdown as MM:SS, rounding partial seconds up.
func FormatRemaining(remaining time.Duration) string {
	if remaining < 0 {
		remaining = 0
	}
	seconds := int((remaining + time.Second - 1) / time.Second)
	minutes := seconds / 60
	seconds = seconds % 60
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}
