package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"pomodoro/internal/core/model"
	"pomodoro/internal/core/persist"
)

// Store persists queues. Implementations live outside the core.
type Store interface {
	ListQueues(ctx context.Context) ([]model.Queue, error)
	CreateQueue(ctx context.Context, queue model.Queue) (model.Queue, error)
	UpdateQueue(ctx context.Context, id string, queue model.Queue) (model.Queue, error)
	DeleteQueue(ctx context.Context, id string) (string, error)
}

// Library holds the user's queues in memory and mirrors every edit to a Store.
//
// Edits apply locally first. The store write happens asynchronously; when it
// fails the error is reported through the writer's OnError hook and the local
// value is kept.
type Library struct {
	mu     sync.Mutex
	store  Store
	queues []model.Queue
	writer *persist.Writer
	logger *slog.Logger
}

// NewLibrary creates a Library. A nil store keeps everything in memory.
func NewLibrary(store Store, writer *persist.Writer, logger *slog.Logger) *Library {
	if logger == nil {
		logger = slog.Default()
	}
	return &Library{
		store:  store,
		writer: writer,
		logger: logger,
	}
}

// Load replaces the in-memory set with the store's contents.
func (library *Library) Load(ctx context.Context) error {
	if library.store == nil {
		return nil
	}
	queues, err := library.store.ListQueues(ctx)
	if err != nil {
		return fmt.Errorf("load queues: %w", err)
	}
	library.mu.Lock()
	library.queues = queues
	library.mu.Unlock()
	library.logger.Info("queues loaded", "count", len(queues))
	return nil
}

// Queues returns a snapshot of every queue.
func (library *Library) Queues() []model.Queue {
	library.mu.Lock()
	defer library.mu.Unlock()
	snapshot := make([]model.Queue, len(library.queues))
	for index, queue := range library.queues {
		snapshot[index] = queue.Clone()
	}
	return snapshot
}

// Queue returns the queue with the given id.
func (library *Library) Queue(id string) (model.Queue, error) {
	library.mu.Lock()
	defer library.mu.Unlock()
	index := library.indexLocked(id)
	if index < 0 {
		return model.Queue{}, fmt.Errorf("%w: %s", model.ErrQueueNotFound, id)
	}
	return library.queues[index].Clone(), nil
}

// FindByName returns the first queue with the given name.
func (library *Library) FindByName(name string) (model.Queue, error) {
	library.mu.Lock()
	defer library.mu.Unlock()
	for _, queue := range library.queues {
		if queue.Name == name {
			return queue.Clone(), nil
		}
	}
	return model.Queue{}, fmt.Errorf("%w: %q", model.ErrQueueNotFound, name)
}

// CreateQueue adds a new empty queue.
func (library *Library) CreateQueue(name string) model.Queue {
	created := NewQueue(name)
	library.mu.Lock()
	defer library.mu.Unlock()
	library.queues = append(library.queues, created)
	library.submitLocked("create_queue", func(ctx context.Context) error {
		_, err := library.store.CreateQueue(ctx, created.Clone())
		return err
	})
	return created.Clone()
}

// DeleteQueue removes the queue with the given id.
func (library *Library) DeleteQueue(id string) error {
	library.mu.Lock()
	defer library.mu.Unlock()
	index := library.indexLocked(id)
	if index < 0 {
		return fmt.Errorf("%w: %s", model.ErrQueueNotFound, id)
	}
	library.queues = append(library.queues[:index:index], library.queues[index+1:]...)
	library.submitLocked("delete_queue", func(ctx context.Context) error {
		_, err := library.store.DeleteQueue(ctx, id)
		return err
	})
	return nil
}

// RenameQueue changes a queue's name.
func (library *Library) RenameQueue(id, name string) (model.Queue, error) {
	return library.edit(id, func(queue model.Queue) (model.Queue, error) {
		return RenameQueue(queue, name), nil
	})
}

// AddSession appends a session to the queue.
func (library *Library) AddSession(id string, session model.Session) (model.Queue, error) {
	return library.edit(id, func(queue model.Queue) (model.Queue, error) {
		return AddSession(queue, session)
	})
}

// RemoveSession drops a session from the queue.
func (library *Library) RemoveSession(id, sessionID string) (model.Queue, error) {
	return library.edit(id, func(queue model.Queue) (model.Queue, error) {
		return RemoveSession(queue, sessionID)
	})
}

// ReorderSession moves a session within the queue.
func (library *Library) ReorderSession(id string, fromIndex, toIndex int) (model.Queue, error) {
	return library.edit(id, func(queue model.Queue) (model.Queue, error) {
		return ReorderSession(queue, fromIndex, toIndex)
	})
}

// Wait blocks until pending store writes finish.
func (library *Library) Wait() {
	if library.writer != nil {
		library.writer.Wait()
	}
}

func (library *Library) edit(id string, apply func(model.Queue) (model.Queue, error)) (model.Queue, error) {
	library.mu.Lock()
	defer library.mu.Unlock()
	index := library.indexLocked(id)
	if index < 0 {
		return model.Queue{}, fmt.Errorf("%w: %s", model.ErrQueueNotFound, id)
	}
	updated, err := apply(library.queues[index])
	if err != nil {
		return model.Queue{}, err
	}
	library.queues[index] = updated
	library.submitLocked("update_queue", func(ctx context.Context) error {
		_, err := library.store.UpdateQueue(ctx, id, updated.Clone())
		return err
	})
	return updated.Clone(), nil
}

// submitLocked enqueues a store write. It runs under library.mu so that
// writes reach the writer in the order the edits were applied.
func (library *Library) submitLocked(op string, write persist.WriteFunc) {
	if library.store == nil || library.writer == nil {
		return
	}
	library.writer.Submit(op, write)
}

func (library *Library) indexLocked(id string) int {
	for index, queue := range library.queues {
		if queue.ID == id {
			return index
		}
	}
	return -1
}
