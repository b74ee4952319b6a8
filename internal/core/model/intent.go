package model

import "time"

// Intent is a label describing what focus time is spent on.
type Intent struct {
	ID         string
	Label      string
	Pinned     bool
	Tags       []string
	CreatedAt  time.Time
	ArchivedAt *time.Time
}

// Archived reports whether the intent has been archived.
func (intent Intent) Archived() bool {
	return intent.ArchivedAt != nil
}

// FocusRecord is one completed focus phase.
type FocusRecord struct {
	ID          string
	IntentID    string
	QueueID     string
	Minutes     int
	Manual      bool
	CompletedAt time.Time
}
