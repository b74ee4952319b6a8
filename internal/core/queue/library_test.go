package queue

import (
	"context"
	"errors"
	"sync"
	"testing"

	"pomodoro/internal/core/model"
	"pomodoro/internal/core/persist"
)

type fakeStore struct {
	mu      sync.Mutex
	queues  map[string]model.Queue
	calls   []string
	failAll error
}

func newFakeStore() *fakeStore {
	return &fakeStore{queues: make(map[string]model.Queue)}
}

func (store *fakeStore) ListQueues(context.Context) ([]model.Queue, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	var queues []model.Queue
	for _, queue := range store.queues {
		queues = append(queues, queue)
	}
	return queues, nil
}

func (store *fakeStore) CreateQueue(_ context.Context, queue model.Queue) (model.Queue, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.calls = append(store.calls, "create")
	if store.failAll != nil {
		return model.Queue{}, store.failAll
	}
	store.queues[queue.ID] = queue
	return queue, nil
}

func (store *fakeStore) UpdateQueue(_ context.Context, id string, queue model.Queue) (model.Queue, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.calls = append(store.calls, "update")
	if store.failAll != nil {
		return model.Queue{}, store.failAll
	}
	store.queues[id] = queue
	return queue, nil
}

func (store *fakeStore) DeleteQueue(_ context.Context, id string) (string, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.calls = append(store.calls, "delete")
	if store.failAll != nil {
		return "", store.failAll
	}
	delete(store.queues, id)
	return id, nil
}

func newTestLibrary(t *testing.T, store Store, onError func(error)) *Library {
	t.Helper()
	writer := persist.NewWriter(persist.Config{OnError: onError})
	t.Cleanup(writer.Close)
	return NewLibrary(store, writer, nil)
}

func TestLibrary_EditsArePersisted(t *testing.T) {
	store := newFakeStore()
	library := newTestLibrary(t, store, nil)

	created := library.CreateQueue("Deep work")
	first, _ := CreateSession(50, 2, "")
	second, _ := CreateSession(10, 1, "")
	if _, err := library.AddSession(created.ID, first); err != nil {
		t.Fatalf("AddSession: %v", err)
	}
	if _, err := library.AddSession(created.ID, second); err != nil {
		t.Fatalf("AddSession: %v", err)
	}
	if _, err := library.ReorderSession(created.ID, 1, 0); err != nil {
		t.Fatalf("ReorderSession: %v", err)
	}
	library.Wait()

	store.mu.Lock()
	stored := store.queues[created.ID]
	calls := append([]string(nil), store.calls...)
	store.mu.Unlock()

	if len(stored.Sessions) != 2 || stored.Sessions[0].ID != second.ID {
		t.Fatalf("stored queue = %+v", stored)
	}
	want := []string{"create", "update", "update", "update"}
	if !equalIDs(calls, want) {
		t.Errorf("calls = %v, want %v", calls, want)
	}
}

func TestLibrary_ConcurrentEditsPersistLatestVersion(t *testing.T) {
	store := newFakeStore()
	library := newTestLibrary(t, store, nil)
	created := library.CreateQueue("Busy")

	const editors = 40
	var wg sync.WaitGroup
	for i := 0; i < editors; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			session, _ := CreateSession(25, 1, "")
			if _, err := library.AddSession(created.ID, session); err != nil {
				t.Errorf("AddSession: %v", err)
			}
		}()
	}
	wg.Wait()
	library.Wait()

	local, err := library.Queue(created.ID)
	if err != nil {
		t.Fatalf("Queue: %v", err)
	}
	store.mu.Lock()
	stored := store.queues[created.ID]
	store.mu.Unlock()

	if len(local.Sessions) != editors {
		t.Fatalf("local sessions = %d, want %d", len(local.Sessions), editors)
	}
	if !equalIDs(sessionIDs(stored), sessionIDs(local)) {
		t.Errorf("store holds a stale version: %d sessions, library has %d", len(stored.Sessions), len(local.Sessions))
	}
}

func TestLibrary_ValidationErrorLeavesStateUntouched(t *testing.T) {
	store := newFakeStore()
	library := newTestLibrary(t, store, nil)

	created := library.CreateQueue("q")
	session, _ := CreateSession(25, 1, "")
	_, _ = library.AddSession(created.ID, session)
	library.Wait()

	if _, err := library.AddSession(created.ID, session); !errors.Is(err, model.ErrDuplicateSessionID) {
		t.Fatalf("err = %v, want ErrDuplicateSessionID", err)
	}
	if _, err := library.ReorderSession(created.ID, 0, 5); !errors.Is(err, model.ErrIndexOutOfBounds) {
		t.Fatalf("err = %v, want ErrIndexOutOfBounds", err)
	}
	library.Wait()

	current, err := library.Queue(created.ID)
	if err != nil {
		t.Fatalf("Queue: %v", err)
	}
	if len(current.Sessions) != 1 {
		t.Errorf("sessions = %d, want 1", len(current.Sessions))
	}
	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.calls) != 2 {
		t.Errorf("store calls = %v, want create+update only", store.calls)
	}
}

func TestLibrary_PersistenceFailureKeepsLocalState(t *testing.T) {
	store := newFakeStore()
	store.failAll = errors.New("database is locked")

	var mu sync.Mutex
	var reported []error
	library := newTestLibrary(t, store, func(err error) {
		mu.Lock()
		reported = append(reported, err)
		mu.Unlock()
	})

	created := library.CreateQueue("offline")
	session, _ := CreateSession(25, 1, "")
	if _, err := library.AddSession(created.ID, session); err != nil {
		t.Fatalf("AddSession should succeed locally: %v", err)
	}
	library.Wait()

	current, err := library.Queue(created.ID)
	if err != nil {
		t.Fatalf("Queue: %v", err)
	}
	if len(current.Sessions) != 1 {
		t.Errorf("local sessions = %d, want 1", len(current.Sessions))
	}

	mu.Lock()
	defer mu.Unlock()
	if len(reported) != 2 {
		t.Fatalf("reported %d errors, want 2", len(reported))
	}
	var persistErr *model.PersistenceError
	if !errors.As(reported[0], &persistErr) || persistErr.Op != "create_queue" {
		t.Errorf("first error = %v", reported[0])
	}
}

func TestLibrary_UnknownQueue(t *testing.T) {
	library := NewLibrary(nil, nil, nil)
	if _, err := library.RemoveSession("nope", "x"); !errors.Is(err, model.ErrQueueNotFound) {
		t.Errorf("err = %v, want ErrQueueNotFound", err)
	}
	if err := library.DeleteQueue("nope"); !errors.Is(err, model.ErrQueueNotFound) {
		t.Errorf("err = %v, want ErrQueueNotFound", err)
	}
}

func TestLibrary_InMemoryWithoutStore(t *testing.T) {
	library := NewLibrary(nil, nil, nil)
	created := library.CreateQueue("solo")
	if _, err := library.RenameQueue(created.ID, "renamed"); err != nil {
		t.Fatalf("RenameQueue: %v", err)
	}
	found, err := library.FindByName("renamed")
	if err != nil || found.ID != created.ID {
		t.Fatalf("FindByName = %+v, %v", found, err)
	}
	if err := library.DeleteQueue(created.ID); err != nil {
		t.Fatalf("DeleteQueue: %v", err)
	}
	if len(library.Queues()) != 0 {
		t.Error("expected no queues")
	}
}

func TestLibrary_Load(t *testing.T) {
	store := newFakeStore()
	store.queues["a"] = model.Queue{ID: "a", Name: "A"}
	library := newTestLibrary(t, store, nil)
	if err := library.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(library.Queues()) != 1 {
		t.Errorf("queues = %d, want 1", len(library.Queues()))
	}
}
