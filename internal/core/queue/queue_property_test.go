package queue

import (
	"fmt"
	"sort"
	"testing"

	"pomodoro/internal/core/model"

	"pgregory.net/rapid"
)

// genQueue generates a queue with unique session ids and valid bounds.
func genQueue(t *rapid.T, minSessions int) model.Queue {
	count := rapid.IntRange(minSessions, 8).Draw(t, "sessions")
	queue := model.Queue{ID: "q", Name: "generated"}
	for i := 0; i < count; i++ {
		queue.Sessions = append(queue.Sessions, model.Session{
			ID:              fmt.Sprintf("s%d", i),
			DurationMinutes: rapid.IntRange(model.MinSessionMinutes, model.MaxSessionMinutes).Draw(t, fmt.Sprintf("duration_%d", i)),
			Cycles:          rapid.IntRange(model.MinSessionCycles, model.MaxSessionCycles).Draw(t, fmt.Sprintf("cycles_%d", i)),
		})
	}
	return queue
}

// Property: moving a session and moving it back restores the original order.
func TestProperty_ReorderRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		queue := genQueue(t, 1)
		from := rapid.IntRange(0, len(queue.Sessions)-1).Draw(t, "from")
		to := rapid.IntRange(0, len(queue.Sessions)-1).Draw(t, "to")

		moved, err := ReorderSession(queue, from, to)
		if err != nil {
			t.Fatalf("ReorderSession: %v", err)
		}
		if moved.Sessions[to].ID != queue.Sessions[from].ID {
			t.Fatalf("session %s not at index %d", queue.Sessions[from].ID, to)
		}

		gotIDs := sessionIDs(moved)
		wantIDs := sessionIDs(queue)
		sort.Strings(gotIDs)
		sort.Strings(wantIDs)
		if !equalIDs(gotIDs, wantIDs) {
			t.Fatalf("id multiset changed: %v vs %v", gotIDs, wantIDs)
		}

		restored, err := ReorderSession(moved, to, from)
		if err != nil {
			t.Fatalf("inverse ReorderSession: %v", err)
		}
		if !equalIDs(sessionIDs(restored), sessionIDs(queue)) {
			t.Fatalf("round trip = %v, want %v", sessionIDs(restored), sessionIDs(queue))
		}
	})
}

// Property: the cursor stays in bounds, Iterations grows exactly once per
// full pass over every session's cycles, and the cursor encodes how many
// focus units have completed.
func TestProperty_AdvanceBoundsAndIterations(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		queue := genQueue(t, 1)
		passes := rapid.IntRange(1, 3).Draw(t, "passes")

		active, err := Start(queue)
		if err != nil {
			t.Fatalf("Start: %v", err)
		}
		perPass := queue.TotalCycles()
		for step := 1; step <= perPass*passes; step++ {
			active = Advance(active)
			if !active.Valid() {
				t.Fatalf("step %d: cursor out of bounds: %+v", step, active)
			}
			if got := CompletedFocus(active); got != step {
				t.Fatalf("step %d: CompletedFocus = %d", step, got)
			}
			wantIterations := 1 + step/perPass
			if active.Iterations != wantIterations {
				t.Fatalf("step %d: Iterations = %d, want %d", step, active.Iterations, wantIterations)
			}
		}
		if active.SessionIdx != 0 || active.SessionCycle != 1 {
			t.Fatalf("after full passes cursor = (%d, %d), want (0, 1)", active.SessionIdx, active.SessionCycle)
		}
	})
}

// Property: a rejected edit leaves the queue untouched.
func TestProperty_RejectedEditsDoNotMutate(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		queue := genQueue(t, 0)
		before := sessionIDs(queue)

		_, _ = ReorderSession(queue, len(queue.Sessions), 0)
		_, _ = RemoveSession(queue, "missing")
		if len(queue.Sessions) > 0 {
			_, _ = AddSession(queue, queue.Sessions[0])
		}
		if !equalIDs(sessionIDs(queue), before) {
			t.Fatalf("queue mutated: %v -> %v", before, sessionIDs(queue))
		}
	})
}
