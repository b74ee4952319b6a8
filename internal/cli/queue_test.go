package cli

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"pomodoro/internal/core/model"
	"pomodoro/internal/storage"
)

func storedQueues(t *testing.T, dir string) []model.Queue {
	t.Helper()
	store, err := storage.NewSQLiteStore(filepath.Join(dir, databaseFileName))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()
	queues, err := store.ListQueues(context.Background())
	if err != nil {
		t.Fatalf("ListQueues: %v", err)
	}
	return queues
}

func TestQueueCommands_EditFlow(t *testing.T) {
	dir := t.TempDir()

	if _, err := execute(t, "queue", "create", "deep work", "--data-dir", dir); err != nil {
		t.Fatalf("create: %v", err)
	}
	for _, minutes := range []string{"50", "25", "10"} {
		if _, err := execute(t, "queue", "add", "deep work", "-m", minutes, "-c", "2", "--data-dir", dir); err != nil {
			t.Fatalf("add %s: %v", minutes, err)
		}
	}

	out, err := execute(t, "queue", "move", "deep work", "1", "3", "--data-dir", dir)
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if !strings.Contains(out, "deep work") {
		t.Errorf("move output = %q", out)
	}

	if _, err := execute(t, "queue", "remove", "deep work", "1", "--data-dir", dir); err != nil {
		t.Fatalf("remove: %v", err)
	}

	queues := storedQueues(t, dir)
	if len(queues) != 1 {
		t.Fatalf("queues = %d, want 1", len(queues))
	}
	sessions := queues[0].Sessions
	if len(sessions) != 2 || sessions[0].DurationMinutes != 10 || sessions[1].DurationMinutes != 50 {
		t.Fatalf("sessions = %+v", sessions)
	}
	if sessions[0].Cycles != 2 {
		t.Errorf("cycles = %d, want 2", sessions[0].Cycles)
	}

	out, err = execute(t, "queue", "list", "--data-dir", dir)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "2 sessions, 4 focus cycles per pass") {
		t.Errorf("list output = %q", out)
	}
}

func TestQueueCommands_Validation(t *testing.T) {
	dir := t.TempDir()
	if _, err := execute(t, "queue", "create", "q", "--data-dir", dir); err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err := execute(t, "queue", "add", "q", "-m", "91", "--data-dir", dir)
	if !errors.Is(err, model.ErrInvalidDuration) {
		t.Errorf("add 91 min err = %v", err)
	}
	_, err = execute(t, "queue", "add", "q", "-c", "17", "--data-dir", dir)
	if !errors.Is(err, model.ErrInvalidCycles) {
		t.Errorf("add 17 cycles err = %v", err)
	}
	if _, err := execute(t, "queue", "add", "q", "--data-dir", dir); err != nil {
		t.Fatalf("add default: %v", err)
	}
	_, err = execute(t, "queue", "move", "q", "1", "2", "--data-dir", dir)
	if !errors.Is(err, model.ErrIndexOutOfBounds) {
		t.Errorf("move err = %v", err)
	}
	_, err = execute(t, "queue", "remove", "q", "0", "--data-dir", dir)
	if !errors.Is(err, model.ErrIndexOutOfBounds) {
		t.Errorf("remove 0 err = %v", err)
	}
	_, err = execute(t, "queue", "show", "missing", "--data-dir", dir)
	if !errors.Is(err, model.ErrQueueNotFound) {
		t.Errorf("show missing err = %v", err)
	}

	queues := storedQueues(t, dir)
	if len(queues[0].Sessions) != 1 || queues[0].Sessions[0].DurationMinutes != 25 {
		t.Fatalf("rejected edits changed the queue: %+v", queues[0].Sessions)
	}
}

func TestQueueCommands_RenameDelete(t *testing.T) {
	dir := t.TempDir()
	if _, err := execute(t, "queue", "create", "old", "--data-dir", dir); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := execute(t, "queue", "rename", "old", "new", "--data-dir", dir); err != nil {
		t.Fatalf("rename: %v", err)
	}
	if queues := storedQueues(t, dir); queues[0].Name != "new" {
		t.Fatalf("name = %q", queues[0].Name)
	}
	if _, err := execute(t, "queue", "delete", "new", "--data-dir", dir); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if queues := storedQueues(t, dir); len(queues) != 0 {
		t.Fatalf("queues after delete = %d", len(queues))
	}
}

func TestParsePosition(t *testing.T) {
	if index, err := parsePosition(" 3 "); err != nil || index != 2 {
		t.Errorf("parsePosition(3) = %d, %v", index, err)
	}
	for _, bad := range []string{"0", "-1", "x"} {
		if _, err := parsePosition(bad); !errors.Is(err, model.ErrIndexOutOfBounds) {
			t.Errorf("parsePosition(%q) err = %v", bad, err)
		}
	}
}
