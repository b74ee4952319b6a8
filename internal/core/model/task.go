package model

import "time"

// Task is a to-do item, optionally filed under an intent.
type Task struct {
	ID        string
	Title     string
	IntentID  string
	CreatedAt time.Time
	DoneAt    *time.Time
}

// Done reports whether the task has been completed.
func (task Task) Done() bool {
	return task.DoneAt != nil
}
