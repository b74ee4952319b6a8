package timekeeper

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"pomodoro/internal/core/model"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (clock *fakeClock) Now() time.Time {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	return clock.now
}

type recordingStore struct {
	mu      sync.Mutex
	actives []*model.ActiveQueue
	records []model.FocusRecord
	err     error
}

func (store *recordingStore) SetActiveQueue(_ context.Context, active *model.ActiveQueue) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.actives = append(store.actives, active)
	return store.err
}

func (store *recordingStore) RecordFocus(_ context.Context, record model.FocusRecord) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.records = append(store.records, record)
	return store.err
}

type fakeIdle struct {
	idle time.Duration
	err  error
}

func (idle fakeIdle) IdleDuration() (time.Duration, error) {
	return idle.idle, idle.err
}

func scenarioQueue() model.Queue {
	return model.Queue{ID: "q1", Name: "scenario", Sessions: []model.Session{
		{ID: "a", DurationMinutes: 25, Cycles: 2},
		{ID: "b", DurationMinutes: 5, Cycles: 1},
	}}
}

func scenarioSettings() model.Settings {
	settings := model.DefaultSettings()
	settings.BreakMinutes = 5
	settings.LongBreakMinutes = 15
	settings.LongBreakInterval = 4
	settings.AutoAdvance = true
	return settings
}

func newTestKeeper(t *testing.T, settings model.Settings, store *recordingStore) (*TimeKeeper, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)}
	options := Config{Now: clock.Now}
	if store != nil {
		options.ActiveQueues = store
		options.History = store
	}
	keeper := New(settings, options)
	t.Cleanup(keeper.Close)
	return keeper, clock
}

func drain(events <-chan Event) []Event {
	var out []Event
	for {
		select {
		case event := <-events:
			out = append(out, event)
		default:
			return out
		}
	}
}

func TestNew_LoadsIdleDefaultFocus(t *testing.T) {
	settings := model.DefaultSettings()
	settings.FocusMinutes = 40
	keeper, _ := newTestKeeper(t, settings, nil)

	snapshot := keeper.Snapshot()
	if snapshot.Timer.Phase != (model.Phase{Kind: model.PhaseFocus, DurationMinutes: 40}) {
		t.Errorf("Phase = %+v", snapshot.Timer.Phase)
	}
	if snapshot.Timer.Status != StatusIdle {
		t.Errorf("Status = %s, want idle", snapshot.Timer.Status)
	}
	if snapshot.Active != nil {
		t.Error("expected no active queue")
	}
}

func TestStartQueue_EmptyQueue(t *testing.T) {
	keeper, _ := newTestKeeper(t, scenarioSettings(), nil)
	err := keeper.StartQueue(model.Queue{ID: "empty"})
	if !errors.Is(err, model.ErrEmptyQueue) {
		t.Fatalf("err = %v, want ErrEmptyQueue", err)
	}
}

func TestTimeKeeper_DrivesQueueThroughPhases(t *testing.T) {
	store := &recordingStore{}
	keeper, clock := newTestKeeper(t, scenarioSettings(), store)
	events := keeper.Subscribe(256)

	if err := keeper.StartQueue(scenarioQueue()); err != nil {
		t.Fatalf("StartQueue: %v", err)
	}

	var phases []model.Phase
	for i := 0; i < 8; i++ {
		snapshot := keeper.Snapshot()
		if !snapshot.Timer.Running() {
			t.Fatalf("phase %d not running with AutoAdvance", i)
		}
		phases = append(phases, snapshot.Timer.Phase)
		// Overshoot by a whole minute: completion must still be clean.
		keeper.tick(snapshot.Timer.Remaining+time.Minute, clock.Now())
	}

	want := []model.Phase{
		{Kind: model.PhaseFocus, DurationMinutes: 25},
		{Kind: model.PhaseBreak, DurationMinutes: 5},
		{Kind: model.PhaseFocus, DurationMinutes: 25},
		{Kind: model.PhaseBreak, DurationMinutes: 5},
		{Kind: model.PhaseFocus, DurationMinutes: 5},
		{Kind: model.PhaseBreak, DurationMinutes: 5},
		{Kind: model.PhaseFocus, DurationMinutes: 25},
		{Kind: model.PhaseLongBreak, DurationMinutes: 15},
	}
	for i := range want {
		if phases[i] != want[i] {
			t.Fatalf("phase %d = %+v, want %+v", i, phases[i], want[i])
		}
	}

	snapshot := keeper.Snapshot()
	if snapshot.CompletedFocus != 4 {
		t.Errorf("CompletedFocus = %d, want 4", snapshot.CompletedFocus)
	}
	if snapshot.Active.Iterations != 2 || snapshot.Active.SessionIdx != 0 || snapshot.Active.SessionCycle != 2 {
		t.Errorf("cursor = %+v", snapshot.Active)
	}

	completions := 0
	for _, event := range drain(events) {
		if event.Type == EventPhaseComplete {
			completions++
			if event.Complete == nil {
				t.Fatal("phase_complete without payload")
			}
		}
	}
	if completions != 8 {
		t.Errorf("phase_complete events = %d, want 8", completions)
	}

	keeper.Flush()
	store.mu.Lock()
	defer store.mu.Unlock()
	// One write on start plus one per completed focus.
	if len(store.actives) != 5 {
		t.Errorf("active queue writes = %d, want 5", len(store.actives))
	}
	if len(store.records) != 4 {
		t.Fatalf("focus records = %d, want 4", len(store.records))
	}
	if store.records[0].QueueID != "q1" || store.records[0].Minutes != 25 {
		t.Errorf("record = %+v", store.records[0])
	}
}

func TestTimeKeeper_WithoutAutoAdvanceRestsIdle(t *testing.T) {
	settings := scenarioSettings()
	settings.AutoAdvance = false
	keeper, clock := newTestKeeper(t, settings, nil)

	if err := keeper.StartQueue(scenarioQueue()); err != nil {
		t.Fatalf("StartQueue: %v", err)
	}
	keeper.tick(25*time.Minute, clock.Now())

	snapshot := keeper.Snapshot()
	if snapshot.Timer.Status != StatusIdle {
		t.Fatalf("Status = %s, want idle", snapshot.Timer.Status)
	}
	if snapshot.Timer.Phase.Kind != model.PhaseBreak {
		t.Errorf("Phase = %s, want break", snapshot.Timer.Phase.Kind)
	}
	if snapshot.Timer.Remaining != 5*time.Minute {
		t.Errorf("Remaining = %v, want 5m", snapshot.Timer.Remaining)
	}

	keeper.tick(time.Hour, clock.Now())
	if keeper.Snapshot().Timer.Remaining != 5*time.Minute {
		t.Error("idle timer consumed ticks")
	}
}

func TestTimeKeeper_ManualNextAdvancesAndMarksEvent(t *testing.T) {
	store := &recordingStore{}
	keeper, clock := newTestKeeper(t, scenarioSettings(), store)
	events := keeper.Subscribe(32)
	if err := keeper.StartQueue(scenarioQueue()); err != nil {
		t.Fatalf("StartQueue: %v", err)
	}
	keeper.SetIntent("intent-1")
	keeper.tick(10*time.Minute, clock.Now())

	keeper.Next(true)

	snapshot := keeper.Snapshot()
	if snapshot.Timer.Phase.Kind != model.PhaseBreak {
		t.Fatalf("Phase = %s, want break", snapshot.Timer.Phase.Kind)
	}
	if snapshot.Active.SessionCycle != 2 {
		t.Errorf("SessionCycle = %d, want 2", snapshot.Active.SessionCycle)
	}

	var complete *PhaseComplete
	for _, event := range drain(events) {
		if event.Type == EventPhaseComplete {
			complete = event.Complete
		}
	}
	if complete == nil || !complete.Manual {
		t.Fatalf("complete = %+v, want manual", complete)
	}

	keeper.Flush()
	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.records) != 1 {
		t.Fatalf("records = %d, want 1", len(store.records))
	}
	record := store.records[0]
	if !record.Manual || record.Minutes != 10 || record.IntentID != "intent-1" {
		t.Errorf("record = %+v", record)
	}
}

func TestTimeKeeper_BreakSkipDoesNotAdvanceQueue(t *testing.T) {
	keeper, _ := newTestKeeper(t, scenarioSettings(), nil)
	if err := keeper.StartQueue(scenarioQueue()); err != nil {
		t.Fatalf("StartQueue: %v", err)
	}
	keeper.Next(true)
	before := keeper.Snapshot()
	keeper.Next(true)
	after := keeper.Snapshot()

	if after.Timer.Phase.Kind != model.PhaseFocus {
		t.Fatalf("Phase = %s, want focus", after.Timer.Phase.Kind)
	}
	if after.Active.SessionIdx != before.Active.SessionIdx || after.Active.SessionCycle != before.Active.SessionCycle {
		t.Errorf("cursor moved on break skip: %+v -> %+v", before.Active, after.Active)
	}
	if after.CompletedFocus != 1 {
		t.Errorf("CompletedFocus = %d, want 1", after.CompletedFocus)
	}
}

func TestTimeKeeper_PauseStartRestart(t *testing.T) {
	keeper, clock := newTestKeeper(t, scenarioSettings(), nil)
	events := keeper.Subscribe(32)

	keeper.Start()
	keeper.Start()
	keeper.tick(time.Minute, clock.Now())
	keeper.Pause()
	keeper.Pause()

	snapshot := keeper.Snapshot()
	if snapshot.Timer.Status != StatusPaused {
		t.Fatalf("Status = %s, want paused", snapshot.Timer.Status)
	}
	if snapshot.Timer.Remaining != 24*time.Minute {
		t.Errorf("Remaining = %v, want 24m", snapshot.Timer.Remaining)
	}

	stateChanges := 0
	for _, event := range drain(events) {
		if event.Type == EventStateChange {
			stateChanges++
		}
	}
	if stateChanges != 2 {
		t.Errorf("state changes = %d, want 2 (no-ops must not emit)", stateChanges)
	}

	generation := snapshot.Timer.Generation
	keeper.Restart()
	snapshot = keeper.Snapshot()
	if snapshot.Timer.Remaining != 25*time.Minute || !snapshot.Timer.Running() {
		t.Errorf("after restart: %+v", snapshot.Timer)
	}
	if snapshot.Timer.Generation == generation {
		t.Error("Restart did not change generation")
	}

	keeper.Toggle()
	if keeper.Snapshot().Timer.Status != StatusPaused {
		t.Error("Toggle did not pause")
	}
	keeper.Toggle()
	if !keeper.Snapshot().Timer.Running() {
		t.Error("Toggle did not resume")
	}
}

func TestTimeKeeper_StopQueue(t *testing.T) {
	store := &recordingStore{}
	keeper, _ := newTestKeeper(t, scenarioSettings(), store)
	if err := keeper.StartQueue(scenarioQueue()); err != nil {
		t.Fatalf("StartQueue: %v", err)
	}
	keeper.StopQueue()

	snapshot := keeper.Snapshot()
	if snapshot.Active != nil {
		t.Fatal("active queue not cleared")
	}
	if snapshot.Timer.Status != StatusIdle || snapshot.Timer.Phase.DurationMinutes != 25 {
		t.Errorf("timer = %+v", snapshot.Timer)
	}

	keeper.Flush()
	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.actives) != 2 || store.actives[1] != nil {
		t.Errorf("writes = %v, want start then clear", store.actives)
	}
}

func TestTimeKeeper_PersistenceFailureDoesNotRollBack(t *testing.T) {
	store := &recordingStore{err: errors.New("database is locked")}
	keeper, _ := newTestKeeper(t, scenarioSettings(), store)
	events := keeper.Subscribe(64)

	if err := keeper.StartQueue(scenarioQueue()); err != nil {
		t.Fatalf("StartQueue: %v", err)
	}
	keeper.Next(true)
	keeper.Flush()

	snapshot := keeper.Snapshot()
	if snapshot.Active.SessionCycle != 2 {
		t.Errorf("SessionCycle = %d, want 2", snapshot.Active.SessionCycle)
	}

	failures := 0
	for _, event := range drain(events) {
		if event.Type == EventPersistenceError {
			failures++
			var persistErr *model.PersistenceError
			if !errors.As(event.Err, &persistErr) {
				t.Errorf("Err = %T, want *model.PersistenceError", event.Err)
			}
		}
	}
	// start write, advance write, focus record
	if failures != 3 {
		t.Errorf("persistence errors = %d, want 3", failures)
	}
}

func TestTimeKeeper_IdlePause(t *testing.T) {
	settings := scenarioSettings()
	settings.IdlePause = true
	settings.IdlePauseAfter = 5 * time.Minute
	keeper, clock := newTestKeeper(t, settings, nil)
	events := keeper.Subscribe(32)

	keeper.SetIdleChecker(fakeIdle{idle: 6 * time.Minute})
	keeper.Start()
	keeper.tick(time.Second, clock.Now())

	snapshot := keeper.Snapshot()
	if snapshot.Timer.Status != StatusPaused {
		t.Fatalf("Status = %s, want paused", snapshot.Timer.Status)
	}
	if snapshot.Timer.Remaining != 25*time.Minute {
		t.Errorf("idle tick consumed time: %v", snapshot.Timer.Remaining)
	}

	found := false
	for _, event := range drain(events) {
		if event.Type == EventIdlePause {
			found = true
		}
	}
	if !found {
		t.Error("expected idle_pause event")
	}
}

func TestTimeKeeper_IdleUnsupportedDisablesCheck(t *testing.T) {
	settings := scenarioSettings()
	settings.IdlePause = true
	keeper, clock := newTestKeeper(t, settings, nil)
	events := keeper.Subscribe(32)

	keeper.SetIdleChecker(fakeIdle{err: ErrIdleUnsupported})
	keeper.Start()
	keeper.tick(time.Second, clock.Now())
	keeper.tick(time.Second, clock.Now().Add(time.Minute))

	if !keeper.Snapshot().Timer.Running() {
		t.Fatal("timer should keep running")
	}
	idleErrors := 0
	for _, event := range drain(events) {
		if event.Type == EventIdleError {
			idleErrors++
		}
	}
	if idleErrors != 1 {
		t.Errorf("idle errors = %d, want 1", idleErrors)
	}
}

func TestTimeKeeper_UpdateSettingsReloadsIdlePhase(t *testing.T) {
	keeper, _ := newTestKeeper(t, model.DefaultSettings(), nil)
	settings := model.DefaultSettings()
	settings.FocusMinutes = 50
	keeper.UpdateSettings(settings)

	if got := keeper.Snapshot().Timer.Remaining; got != 50*time.Minute {
		t.Errorf("Remaining = %v, want 50m", got)
	}

	keeper.Start()
	settings.FocusMinutes = 10
	keeper.UpdateSettings(settings)
	if got := keeper.Snapshot().Timer.Remaining; got != 50*time.Minute {
		t.Errorf("running phase changed length: %v", got)
	}
}

func TestTimeKeeper_Restore(t *testing.T) {
	keeper, _ := newTestKeeper(t, scenarioSettings(), nil)
	active := model.ActiveQueue{Queue: scenarioQueue(), Iterations: 3, SessionIdx: 1, SessionCycle: 1}
	if err := keeper.Restore(active); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	snapshot := keeper.Snapshot()
	if snapshot.Timer.Phase.DurationMinutes != 5 || snapshot.Timer.Status != StatusIdle {
		t.Errorf("timer = %+v", snapshot.Timer)
	}
	// Two full passes of three focus units plus the two cycles of "a".
	if snapshot.CompletedFocus != 8 {
		t.Errorf("CompletedFocus = %d, want 8", snapshot.CompletedFocus)
	}
}

func TestTimeKeeper_RestoreKeepsLongBreakCadence(t *testing.T) {
	first, _ := newTestKeeper(t, scenarioSettings(), nil)
	if err := first.StartQueue(scenarioQueue()); err != nil {
		t.Fatalf("StartQueue: %v", err)
	}
	// Focus, break, focus, break, focus: three focus units complete.
	for i := 0; i < 5; i++ {
		first.Next(true)
	}
	saved := first.Snapshot()
	if saved.CompletedFocus != 3 || saved.Timer.Phase.Kind != model.PhaseBreak {
		t.Fatalf("before restart: completed %d, phase %s", saved.CompletedFocus, saved.Timer.Phase.Kind)
	}

	second, _ := newTestKeeper(t, scenarioSettings(), nil)
	if err := second.Restore(*saved.Active); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if got := second.Snapshot().CompletedFocus; got != 3 {
		t.Fatalf("restored CompletedFocus = %d, want 3", got)
	}
	second.Next(true)
	if kind := second.Snapshot().Timer.Phase.Kind; kind != model.PhaseLongBreak {
		t.Errorf("fourth focus completion loaded %s, want long break", kind)
	}
}

func TestTimeKeeper_RestoreRejectsInvalidCursor(t *testing.T) {
	keeper, _ := newTestKeeper(t, scenarioSettings(), nil)

	if err := keeper.Restore(model.ActiveQueue{}); !errors.Is(err, model.ErrEmptyQueue) {
		t.Errorf("empty queue err = %v", err)
	}
	badCycle := model.ActiveQueue{Queue: scenarioQueue(), Iterations: 1, SessionIdx: 1, SessionCycle: 2}
	err := keeper.Restore(badCycle)
	if !errors.Is(err, model.ErrInvalidCursor) {
		t.Fatalf("out-of-range cycle err = %v", err)
	}
	if !strings.Contains(err.Error(), "cycle 2") {
		t.Errorf("error does not name the cursor: %v", err)
	}
	if keeper.Snapshot().Active != nil {
		t.Error("invalid cursor was installed")
	}
}

func TestTimeKeeper_QueueActionsAfterClose(t *testing.T) {
	keeper := New(scenarioSettings(), Config{})
	if err := keeper.StartQueue(scenarioQueue()); err != nil {
		t.Fatalf("StartQueue: %v", err)
	}
	keeper.Close()

	if err := keeper.StartQueue(scenarioQueue()); !errors.Is(err, ErrClosed) {
		t.Errorf("StartQueue after Close err = %v", err)
	}
	active := model.ActiveQueue{Queue: scenarioQueue(), Iterations: 1, SessionIdx: 0, SessionCycle: 1}
	if err := keeper.Restore(active); !errors.Is(err, ErrClosed) {
		t.Errorf("Restore after Close err = %v", err)
	}
	keeper.StopQueue()
	if keeper.Snapshot().Active == nil {
		t.Error("StopQueue changed a closed keeper")
	}
}

func TestTimeKeeper_RunStopsOnCancel(t *testing.T) {
	keeper := New(scenarioSettings(), Config{TickInterval: time.Millisecond})
	defer keeper.Close()
	keeper.Start()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		keeper.Run(ctx)
		close(done)
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if keeper.Snapshot().Timer.Remaining >= 25*time.Minute {
		t.Error("expected ticks to consume time")
	}
}

func TestTimeKeeper_CloseClosesSubscribers(t *testing.T) {
	keeper := New(scenarioSettings(), Config{})
	events := keeper.Subscribe(1)
	keeper.Close()
	if _, ok := <-events; ok {
		t.Error("expected closed channel")
	}
	late := keeper.Subscribe(1)
	if _, ok := <-late; ok {
		t.Error("expected closed channel after Close")
	}
	keeper.Start()
}
