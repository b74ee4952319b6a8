// Package persist runs store writes off the caller's goroutine, in submission
// order, without ever blocking the submitter.
package persist

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"pomodoro/internal/core/model"
)

// WriteFunc performs one store write.
type WriteFunc func(ctx context.Context) error

// Config contains runtime options for Writer.
type Config struct {
	Timeout time.Duration
	Logger  *slog.Logger
	// OnError receives every failed write wrapped in *model.PersistenceError.
	OnError func(error)
}

type job struct {
	op    string
	write WriteFunc
}

// Writer is a single-consumer write queue.
type Writer struct {
	config Config
	mu     sync.Mutex
	jobs   []job
	closed bool
	wake   chan struct{}
	done   chan struct{}

	inflight int
	idle     *sync.Cond
}

// NewWriter starts the write loop.
func NewWriter(config Config) *Writer {
	if config.Timeout <= 0 {
		config.Timeout = 5 * time.Second
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	writer := &Writer{
		config: config,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	writer.idle = sync.NewCond(&writer.mu)
	go writer.run()
	return writer
}

// Submit queues a write and returns immediately. Writes submitted after Close are dropped.
func (writer *Writer) Submit(op string, write WriteFunc) {
	writer.mu.Lock()
	if writer.closed {
		writer.mu.Unlock()
		writer.config.Logger.Warn("persist: write after close dropped", "op", op)
		return
	}
	writer.inflight++
	writer.jobs = append(writer.jobs, job{op: op, write: write})
	writer.mu.Unlock()

	select {
	case writer.wake <- struct{}{}:
	default:
	}
}

// Wait blocks until every submitted write has finished.
func (writer *Writer) Wait() {
	writer.mu.Lock()
	defer writer.mu.Unlock()
	for writer.inflight > 0 {
		writer.idle.Wait()
	}
}

// Close drains outstanding writes and stops the loop.
func (writer *Writer) Close() {
	writer.mu.Lock()
	if writer.closed {
		writer.mu.Unlock()
		return
	}
	writer.closed = true
	writer.mu.Unlock()

	writer.Wait()
	close(writer.done)
}

func (writer *Writer) run() {
	for {
		select {
		case <-writer.done:
			return
		case <-writer.wake:
		}
		for {
			next, ok := writer.next()
			if !ok {
				break
			}
			writer.execute(next)
		}
	}
}

func (writer *Writer) next() (job, bool) {
	writer.mu.Lock()
	defer writer.mu.Unlock()
	if len(writer.jobs) == 0 {
		return job{}, false
	}
	next := writer.jobs[0]
	writer.jobs = writer.jobs[1:]
	return next, true
}

func (writer *Writer) execute(next job) {
	defer writer.finish()

	ctx, cancel := context.WithTimeout(context.Background(), writer.config.Timeout)
	defer cancel()

	if err := next.write(ctx); err != nil {
		failure := &model.PersistenceError{Op: next.op, Err: err}
		writer.config.Logger.Error("persist failed", "op", next.op, "error", err)
		if writer.config.OnError != nil {
			writer.config.OnError(failure)
		}
		return
	}
	writer.config.Logger.Debug("persisted", "op", next.op)
}

func (writer *Writer) finish() {
	writer.mu.Lock()
	writer.inflight--
	if writer.inflight == 0 {
		writer.idle.Broadcast()
	}
	writer.mu.Unlock()
}
