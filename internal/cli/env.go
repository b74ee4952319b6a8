package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"pomodoro/internal/core/model"
	"pomodoro/internal/core/persist"
	"pomodoro/internal/core/queue"
	"pomodoro/internal/core/timekeeper"
	"pomodoro/internal/platform"
	"pomodoro/internal/storage"
)

const (
	databaseFileName = "pomodoro.db"
	writeTimeout     = 5 * time.Second
)

// environment is the opened data directory shared by every command.
type environment struct {
	dir          string
	store        *storage.SQLiteStore
	settingsPath string
	logger       *slog.Logger
}

func openEnvironment() (*environment, error) {
	dir, err := dataDir()
	if err != nil {
		return nil, err
	}
	store, err := storage.NewSQLiteStore(filepath.Join(dir, databaseFileName))
	if err != nil {
		return nil, err
	}
	return &environment{
		dir:          dir,
		store:        store,
		settingsPath: storage.SettingsPathIn(dir),
		logger:       slog.Default(),
	}, nil
}

func (env *environment) Close() error {
	return env.store.Close()
}

func (env *environment) settings() (model.Settings, error) {
	settings, err := storage.LoadSettings(env.settingsPath)
	if err != nil {
		return settings, fmt.Errorf("load settings: %w", err)
	}
	return settings, nil
}

// library loads the queue library. Callers must Close the returned writer
// to flush queued store writes before exiting.
func (env *environment) library(ctx context.Context, onError func(error)) (*queue.Library, *persist.Writer, error) {
	writer := persist.NewWriter(persist.Config{
		Timeout: writeTimeout,
		Logger:  env.logger,
		OnError: onError,
	})
	library := queue.NewLibrary(env.store, writer, env.logger)
	if err := library.Load(ctx); err != nil {
		writer.Close()
		return nil, nil, err
	}
	return library, writer, nil
}

// keeper builds a TimeKeeper backed by the store and restores the last
// active queue and intent.
func (env *environment) keeper(ctx context.Context, settings model.Settings) *timekeeper.TimeKeeper {
	keeper := timekeeper.New(settings, timekeeper.Config{
		TickInterval: time.Second,
		WriteTimeout: writeTimeout,
		ActiveQueues: env.store,
		History:      env.store,
		Logger:       env.logger,
	})
	keeper.SetIdleChecker(platform.NewIdleProvider())

	active, err := env.store.ActiveQueue(ctx)
	switch {
	case err != nil:
		env.logger.Warn("active queue not restored", "error", err)
	case active != nil:
		if err := keeper.Restore(*active); err != nil {
			env.logger.Warn("stored active queue is invalid", "queue", active.Queue.Name, "error", err)
		} else {
			env.logger.Info("active queue restored", "queue", active.Queue.Name, "iteration", active.Iterations)
		}
	}

	intentID, err := env.store.ActiveIntentID(ctx)
	if err != nil {
		env.logger.Warn("active intent not restored", "error", err)
	} else if intentID != "" {
		keeper.SetIntent(intentID)
	}
	return keeper
}

// findQueue resolves ref as an id first, then as a name.
func findQueue(library *queue.Library, ref string) (model.Queue, error) {
	if found, err := library.Queue(ref); err == nil {
		return found, nil
	}
	return library.FindByName(ref)
}

// parsePosition converts a 1-based position argument to an index.
func parsePosition(value string) (int, error) {
	position, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || position < 1 {
		return 0, fmt.Errorf("%w: position %q", model.ErrIndexOutOfBounds, value)
	}
	return position - 1, nil
}

// collectErrors gathers asynchronous persistence failures for a command.
type collectErrors struct {
	mu   sync.Mutex
	errs []error
}

func (collector *collectErrors) add(err error) {
	collector.mu.Lock()
	defer collector.mu.Unlock()
	collector.errs = append(collector.errs, err)
}

func (collector *collectErrors) err() error {
	collector.mu.Lock()
	defer collector.mu.Unlock()
	return errors.Join(collector.errs...)
}
