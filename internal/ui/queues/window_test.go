package queues

import (
	"testing"

	"pomodoro/internal/core/model"
	"pomodoro/internal/core/queue"

	"fyne.io/fyne/v2/test"
)

func newTestEditor(t *testing.T, callbacks Callbacks) (*Window, *queue.Library) {
	t.Helper()
	app := test.NewApp()
	t.Cleanup(app.Quit)
	library := queue.NewLibrary(nil, nil, nil)
	return New(app, library, callbacks), library
}

func sessionDurations(q model.Queue) []int {
	durations := make([]int, len(q.Sessions))
	for index, session := range q.Sessions {
		durations[index] = session.DurationMinutes
	}
	return durations
}

func TestEditor_CreateQueueAndAddSessions(t *testing.T) {
	editor, library := newTestEditor(t, Callbacks{})

	editor.newName.SetText("deep work")
	editor.createQueue()
	if editor.selectedID == "" {
		t.Fatalf("new queue not selected")
	}

	for _, minutes := range []float64{50, 25, 10} {
		editor.duration.SetValue(minutes)
		editor.cycles.SetValue(2)
		editor.addSession()
	}

	saved, err := library.Queue(editor.selectedID)
	if err != nil {
		t.Fatalf("Queue: %v", err)
	}
	got := sessionDurations(saved)
	if len(got) != 3 || got[0] != 50 || got[1] != 25 || got[2] != 10 {
		t.Fatalf("durations=%v", got)
	}
	if saved.Sessions[0].Cycles != 2 {
		t.Fatalf("cycles=%d", saved.Sessions[0].Cycles)
	}
}

func TestEditor_EmptyNameShowsError(t *testing.T) {
	editor, library := newTestEditor(t, Callbacks{})
	editor.newName.SetText("   ")
	editor.createQueue()
	if len(library.Queues()) != 0 {
		t.Fatalf("queue created for blank name")
	}
	if !editor.errorLabel.Visible() {
		t.Fatalf("error not shown")
	}
}

func TestEditor_MoveAndRemove(t *testing.T) {
	editor, library := newTestEditor(t, Callbacks{})
	editor.newName.SetText("q")
	editor.createQueue()
	for _, minutes := range []float64{1, 2, 3} {
		editor.duration.SetValue(minutes)
		editor.addSession()
	}

	editor.moveSession(0, 2)
	saved, _ := library.Queue(editor.selectedID)
	if got := sessionDurations(saved); got[0] != 2 || got[1] != 3 || got[2] != 1 {
		t.Fatalf("after move=%v", got)
	}

	// Out of range moves are rejected and reported.
	editor.moveSession(0, 5)
	if !editor.errorLabel.Visible() {
		t.Fatalf("out of range move not reported")
	}

	editor.removeSession(1)
	saved, _ = library.Queue(editor.selectedID)
	if got := sessionDurations(saved); len(got) != 2 || got[0] != 2 || got[1] != 1 {
		t.Fatalf("after remove=%v", got)
	}
}

func TestEditor_StartSelected(t *testing.T) {
	var started []model.Queue
	var startErr error
	editor, _ := newTestEditor(t, Callbacks{OnStart: func(q model.Queue) error {
		started = append(started, q)
		return startErr
	}})
	editor.newName.SetText("q")
	editor.createQueue()

	startErr = model.ErrEmptyQueue
	editor.startSelected()
	if !editor.errorLabel.Visible() || editor.errorLabel.Text != model.ErrEmptyQueue.Error() {
		t.Fatalf("start error not shown: %q", editor.errorLabel.Text)
	}

	startErr = nil
	editor.addSession()
	editor.startSelected()
	if len(started) != 2 || len(started[1].Sessions) != 1 {
		t.Fatalf("started=%+v", started)
	}
}

func TestEditor_DeleteAndRename(t *testing.T) {
	var changes int
	editor, library := newTestEditor(t, Callbacks{OnChanged: func([]model.Queue) { changes++ }})
	editor.newName.SetText("old")
	editor.createQueue()

	editor.rename.SetText("new")
	editor.renameSelected()
	if queues := library.Queues(); queues[0].Name != "new" {
		t.Fatalf("name=%q", queues[0].Name)
	}

	editor.deleteSelected()
	if len(library.Queues()) != 0 || editor.selectedID != "" {
		t.Fatalf("queue not deleted")
	}
	if changes != 3 {
		t.Fatalf("OnChanged calls=%d, want 3", changes)
	}
}

func TestSessionLine(t *testing.T) {
	got := SessionLine(0, model.Session{DurationMinutes: 50, Cycles: 2, ProjectID: "thesis"})
	if got != "1. 50 min × 2 · thesis" {
		t.Fatalf("SessionLine=%q", got)
	}
}
