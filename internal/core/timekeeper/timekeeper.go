// Package timekeeper counts down focus and break phases and drives an
// active queue forward as they complete.
package timekeeper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"pomodoro/internal/core/model"
	"pomodoro/internal/core/persist"
	"pomodoro/internal/core/queue"
	"pomodoro/internal/core/scheduler"

	"github.com/google/uuid"
)

var (
	// ErrIdleUnsupported indicates idle detection is not available on this system.
	ErrIdleUnsupported = errors.New("idle detection unsupported")
	// ErrClosed is returned by actions on a closed TimeKeeper.
	ErrClosed = errors.New("timekeeper closed")
)

// IdleChecker reports the duration of user inactivity.
type IdleChecker interface {
	IdleDuration() (time.Duration, error)
}

// ActiveQueueStore persists the active queue. A nil queue clears it.
type ActiveQueueStore interface {
	SetActiveQueue(ctx context.Context, active *model.ActiveQueue) error
}

// HistoryStore records completed focus phases.
type HistoryStore interface {
	RecordFocus(ctx context.Context, record model.FocusRecord) error
}

// Config contains runtime options for TimeKeeper.
type Config struct {
	TickInterval      time.Duration
	IdleCheckInterval time.Duration
	WriteTimeout      time.Duration

	ActiveQueues ActiveQueueStore
	History      HistoryStore
	Logger       *slog.Logger
	Now          func() time.Time
}

// Snapshot is a consistent copy of the TimeKeeper's state.
type Snapshot struct {
	Timer          TimerState
	Active         *model.ActiveQueue
	CompletedFocus int
	IntentID       string
	Settings       model.Settings
}

// TimeKeeper owns the timer, the active queue cursor and the completed-focus
// counter. Every action and tick is applied under one mutex, so callers may
// invoke it from any goroutine.
type TimeKeeper struct {
	mu             sync.Mutex
	settings       model.Settings
	options        Config
	timer          TimerState
	active         *model.ActiveQueue
	completedFocus int
	intentID       string
	idleChecker    IdleChecker
	idleDisabled   bool
	lastIdleCheck  time.Time
	events         []chan Event
	writer         *persist.Writer
	logger         *slog.Logger
	closed         bool
}

// New creates a TimeKeeper with the default focus phase loaded and idle.
func New(settings model.Settings, options Config) *TimeKeeper {
	if options.TickInterval <= 0 {
		options.TickInterval = time.Second
	}
	if options.IdleCheckInterval <= 0 {
		options.IdleCheckInterval = 5 * time.Second
	}
	if options.Now == nil {
		options.Now = time.Now
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	keeper := &TimeKeeper{
		settings: settings,
		options:  options,
		logger:   logger,
	}
	keeper.timer = Load(TimerState{}, scheduler.FocusPhase(nil, settings))
	keeper.writer = persist.NewWriter(persist.Config{
		Timeout: options.WriteTimeout,
		Logger:  logger,
		OnError: keeper.reportPersistError,
	})
	return keeper
}

// SetIdleChecker injects an idle checker.
func (keeper *TimeKeeper) SetIdleChecker(checker IdleChecker) {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	keeper.idleChecker = checker
	keeper.idleDisabled = false
}

// Subscribe registers a new observer channel. Events are dropped for
// observers whose buffer is full.
func (keeper *TimeKeeper) Subscribe(buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Event, buffer)
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	if keeper.closed {
		close(ch)
		return ch
	}
	keeper.events = append(keeper.events, ch)
	return ch
}

// Run feeds wall-clock ticks into the timer until ctx is cancelled.
func (keeper *TimeKeeper) Run(ctx context.Context) {
	ticker := time.NewTicker(keeper.options.TickInterval)
	defer ticker.Stop()

	last := keeper.options.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := keeper.options.Now()
			keeper.tick(now.Sub(last), now)
			last = now
		}
	}
}

// Close waits for pending writes and closes observers. The TimeKeeper must
// not be used afterwards.
func (keeper *TimeKeeper) Close() {
	keeper.writer.Close()

	keeper.mu.Lock()
	if keeper.closed {
		keeper.mu.Unlock()
		return
	}
	keeper.closed = true
	events := keeper.events
	keeper.events = nil
	keeper.mu.Unlock()

	for _, ch := range events {
		close(ch)
	}
}

// Flush blocks until pending writes finish.
func (keeper *TimeKeeper) Flush() {
	keeper.writer.Wait()
}

// Snapshot returns a copy of the current state.
func (keeper *TimeKeeper) Snapshot() Snapshot {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	return Snapshot{
		Timer:          keeper.timer,
		Active:         keeper.activeCopyLocked(),
		CompletedFocus: keeper.completedFocus,
		IntentID:       keeper.intentID,
		Settings:       keeper.settings,
	}
}

// Start begins or resumes the countdown.
func (keeper *TimeKeeper) Start() {
	keeper.apply(TimerState.Start)
}

// Pause freezes the countdown.
func (keeper *TimeKeeper) Pause() {
	keeper.apply(TimerState.Pause)
}

// Toggle pauses a running countdown and starts any other.
func (keeper *TimeKeeper) Toggle() {
	keeper.apply(func(state TimerState) TimerState {
		if state.Running() {
			return state.Pause()
		}
		return state.Start()
	})
}

// Restart runs the current phase again from the top.
func (keeper *TimeKeeper) Restart() {
	keeper.apply(TimerState.Restart)
}

// Next skips the rest of the current phase. manual marks a user-initiated skip.
func (keeper *TimeKeeper) Next(manual bool) {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	if keeper.closed {
		return
	}
	drained, complete := keeper.timer.Next(manual)
	keeper.timer = drained
	keeper.completeLocked(complete, keeper.options.Now())
}

// StartQueue activates queue and starts its first focus phase.
func (keeper *TimeKeeper) StartQueue(source model.Queue) error {
	active, err := queue.Start(source)
	if err != nil {
		return err
	}

	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	if keeper.closed {
		return ErrClosed
	}
	keeper.active = &active
	keeper.completedFocus = 0
	keeper.timer = Load(keeper.timer, scheduler.FocusPhase(keeper.active, keeper.settings)).Start()
	keeper.logger.Info("queue started", "queue", source.Name, "sessions", len(source.Sessions))
	keeper.persistActiveLocked()

	now := keeper.options.Now()
	keeper.emitLocked(Event{Type: EventQueueChanged, Timer: keeper.timer, Active: keeper.activeCopyLocked(), At: now})
	keeper.emitLocked(Event{Type: EventStateChange, Timer: keeper.timer, Active: keeper.activeCopyLocked(), At: now})
	return nil
}

// Restore reinstates a persisted active queue without starting the countdown.
func (keeper *TimeKeeper) Restore(active model.ActiveQueue) error {
	if len(active.Queue.Sessions) == 0 {
		return fmt.Errorf("restore %q: %w", active.Queue.Name, model.ErrEmptyQueue)
	}
	if !active.Valid() {
		return fmt.Errorf("restore %q: %w: iteration %d, session %d of %d, cycle %d",
			active.Queue.Name, model.ErrInvalidCursor,
			active.Iterations, active.SessionIdx+1, len(active.Queue.Sessions), active.SessionCycle)
	}
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	if keeper.closed {
		return ErrClosed
	}
	keeper.active = &active
	keeper.completedFocus = queue.CompletedFocus(active)
	keeper.timer = Load(keeper.timer, scheduler.FocusPhase(keeper.active, keeper.settings))

	now := keeper.options.Now()
	keeper.emitLocked(Event{Type: EventQueueChanged, Timer: keeper.timer, Active: keeper.activeCopyLocked(), At: now})
	keeper.emitLocked(Event{Type: EventStateChange, Timer: keeper.timer, Active: keeper.activeCopyLocked(), At: now})
	return nil
}

// StopQueue drops the active queue and loads an idle default focus phase.
func (keeper *TimeKeeper) StopQueue() {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	if keeper.closed || keeper.active == nil {
		return
	}
	keeper.logger.Info("queue stopped", "queue", keeper.active.Queue.Name, "iterations", keeper.active.Iterations)
	keeper.active = nil
	keeper.completedFocus = 0
	keeper.timer = Load(keeper.timer, scheduler.FocusPhase(nil, keeper.settings))
	keeper.persistActiveLocked()

	now := keeper.options.Now()
	keeper.emitLocked(Event{Type: EventQueueChanged, Timer: keeper.timer, At: now})
	keeper.emitLocked(Event{Type: EventStateChange, Timer: keeper.timer, At: now})
}

// UpdateSettings replaces the settings. An idle countdown is reloaded with
// the new durations; a started one keeps its length until the next phase.
func (keeper *TimeKeeper) UpdateSettings(settings model.Settings) {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	keeper.settings = settings
	keeper.idleDisabled = false
	if keeper.timer.Status != StatusIdle {
		return
	}

	var phase model.Phase
	if keeper.timer.Phase.Kind.IsBreak() {
		phase = scheduler.BreakPhase(keeper.completedFocus, settings)
	} else {
		phase = scheduler.FocusPhase(keeper.active, settings)
	}
	if phase == keeper.timer.Phase {
		return
	}
	keeper.timer = Load(keeper.timer, phase)
	keeper.emitLocked(Event{Type: EventStateChange, Timer: keeper.timer, Active: keeper.activeCopyLocked(), At: keeper.options.Now()})
}

// SetIntent selects the intent attached to subsequent focus records.
func (keeper *TimeKeeper) SetIntent(intentID string) {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	keeper.intentID = intentID
}

func (keeper *TimeKeeper) apply(transition func(TimerState) TimerState) {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	if keeper.closed {
		return
	}
	next := transition(keeper.timer)
	if next == keeper.timer {
		return
	}
	keeper.timer = next
	keeper.emitLocked(Event{Type: EventStateChange, Timer: next, Active: keeper.activeCopyLocked(), At: keeper.options.Now()})
}

func (keeper *TimeKeeper) tick(elapsed time.Duration, now time.Time) {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	if keeper.closed || !keeper.timer.Running() {
		return
	}

	if keeper.timer.Phase.Kind == model.PhaseFocus && keeper.handleIdleCheckLocked(now) {
		return
	}

	next, complete := keeper.timer.Tick(elapsed)
	keeper.timer = next
	if complete != nil {
		keeper.completeLocked(*complete, now)
		return
	}
	keeper.emitLocked(Event{Type: EventProgress, Timer: next, At: now})
}

// completeLocked reacts to a finished phase: the queue advances after focus,
// the next phase is loaded and, with AutoAdvance, started.
func (keeper *TimeKeeper) completeLocked(complete PhaseComplete, now time.Time) {
	finished := complete.Phase
	if finished.Kind == model.PhaseFocus {
		keeper.completedFocus++
		record := model.FocusRecord{
			ID:          uuid.NewString(),
			IntentID:    keeper.intentID,
			Minutes:     int(math.Round(complete.Elapsed.Minutes())),
			Manual:      complete.Manual,
			CompletedAt: now,
		}
		if keeper.active != nil {
			record.QueueID = keeper.active.Queue.ID
			advanced := queue.Advance(*keeper.active)
			if advanced.Iterations != keeper.active.Iterations {
				keeper.logger.Info("queue iteration finished", "queue", advanced.Queue.Name, "iterations", advanced.Iterations)
			}
			keeper.active = &advanced
			keeper.persistActiveLocked()
		}
		keeper.recordFocusLocked(record)
	}

	next := scheduler.NextPhase(finished.Kind, keeper.active, keeper.completedFocus, keeper.settings)
	keeper.timer = Load(keeper.timer, next)
	if keeper.settings.AutoAdvance {
		keeper.timer = keeper.timer.Start()
	}
	keeper.logger.Debug("phase complete", "finished", finished.Kind, "manual", complete.Manual, "next", next.Kind, "minutes", next.DurationMinutes)

	keeper.emitLocked(Event{
		Type:     EventPhaseComplete,
		Timer:    keeper.timer,
		Active:   keeper.activeCopyLocked(),
		Complete: &complete,
		At:       now,
	})
	keeper.emitLocked(Event{Type: EventStateChange, Timer: keeper.timer, Active: keeper.activeCopyLocked(), At: now})
}

// handleIdleCheckLocked pauses a running focus phase once the user has been
// idle long enough. It reports whether the timer was paused.
func (keeper *TimeKeeper) handleIdleCheckLocked(now time.Time) bool {
	if !keeper.settings.IdlePause || keeper.idleChecker == nil || keeper.idleDisabled {
		return false
	}
	if !keeper.lastIdleCheck.IsZero() && now.Sub(keeper.lastIdleCheck) < keeper.options.IdleCheckInterval {
		return false
	}
	keeper.lastIdleCheck = now

	idleDuration, err := keeper.idleChecker.IdleDuration()
	if err != nil {
		if errors.Is(err, ErrIdleUnsupported) {
			keeper.idleDisabled = true
		}
		keeper.logger.Warn("idle check failed", "error", err)
		keeper.emitLocked(Event{Type: EventIdleError, Timer: keeper.timer, Message: err.Error(), Err: err, At: now})
		return false
	}
	if idleDuration < keeper.settings.IdlePauseAfter {
		return false
	}

	keeper.timer = keeper.timer.Pause()
	keeper.logger.Info("paused after inactivity", "idle", idleDuration.Round(time.Second))
	keeper.emitLocked(Event{Type: EventIdlePause, Timer: keeper.timer, Message: "paused after inactivity", At: now})
	keeper.emitLocked(Event{Type: EventStateChange, Timer: keeper.timer, Active: keeper.activeCopyLocked(), At: now})
	return true
}

func (keeper *TimeKeeper) persistActiveLocked() {
	store := keeper.options.ActiveQueues
	if store == nil {
		return
	}
	active := keeper.activeCopyLocked()
	keeper.writer.Submit("set_active_queue", func(ctx context.Context) error {
		return store.SetActiveQueue(ctx, active)
	})
}

func (keeper *TimeKeeper) recordFocusLocked(record model.FocusRecord) {
	store := keeper.options.History
	if store == nil {
		return
	}
	keeper.writer.Submit("record_focus", func(ctx context.Context) error {
		return store.RecordFocus(ctx, record)
	})
}

func (keeper *TimeKeeper) reportPersistError(err error) {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	keeper.emitLocked(Event{
		Type:    EventPersistenceError,
		Timer:   keeper.timer,
		Message: err.Error(),
		Err:     err,
		At:      keeper.options.Now(),
	})
}

func (keeper *TimeKeeper) activeCopyLocked() *model.ActiveQueue {
	if keeper.active == nil {
		return nil
	}
	active := *keeper.active
	active.Queue = keeper.active.Queue.Clone()
	return &active
}

func (keeper *TimeKeeper) emitLocked(event Event) {
	for _, ch := range keeper.events {
		select {
		case ch <- event:
		default:
		}
	}
}
