package model

// Duration and cycle bounds accepted for a queued session.
const (
	MinSessionMinutes = 1
	MaxSessionMinutes = 90
	MinSessionCycles  = 1
	MaxSessionCycles  = 16
)

// Session is one queue entry, run Cycles times back to back.
type Session struct {
	ID              string `json:"id"`
	DurationMinutes int    `json:"duration"`
	Cycles          int    `json:"cycles"`
	ProjectID       string `json:"project_id,omitempty"`
}

// Queue is an ordered list of sessions. Order is execution order.
type Queue struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Sessions []Session `json:"sessions"`
}

// IndexOf returns the position of the session with the given id, or -1.
func (queue Queue) IndexOf(sessionID string) int {
	for index, session := range queue.Sessions {
		if session.ID == sessionID {
			return index
		}
	}
	return -1
}

// TotalCycles sums the cycles of every session, i.e. focus phases per iteration.
func (queue Queue) TotalCycles() int {
	total := 0
	for _, session := range queue.Sessions {
		total += session.Cycles
	}
	return total
}

// Clone returns a copy whose session slice does not alias the receiver's.
func (queue Queue) Clone() Queue {
	clone := queue
	clone.Sessions = append([]Session(nil), queue.Sessions...)
	return clone
}

// ActiveQueue is a started queue plus its progress cursor.
type ActiveQueue struct {
	Queue        Queue `json:"queue"`
	Iterations   int   `json:"iterations"`
	SessionIdx   int   `json:"session_idx"`
	SessionCycle int   `json:"session_cycle"`
}

// Session returns the session under the cursor.
func (active ActiveQueue) Session() Session {
	return active.Queue.Sessions[active.SessionIdx]
}

// Valid reports whether the cursor satisfies its bounds.
func (active ActiveQueue) Valid() bool {
	if len(active.Queue.Sessions) == 0 || active.Iterations < 1 {
		return false
	}
	if active.SessionIdx < 0 || active.SessionIdx >= len(active.Queue.Sessions) {
		return false
	}
	cycles := active.Queue.Sessions[active.SessionIdx].Cycles
	return active.SessionCycle >= 1 && active.SessionCycle <= cycles
}
