package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"pomodoro/internal/core/model"
	"pomodoro/internal/core/persist"
	"pomodoro/internal/core/queue"
	"pomodoro/internal/core/scheduler"
	"pomodoro/internal/core/timekeeper"
	"pomodoro/internal/platform"
	"pomodoro/internal/storage"
	"pomodoro/internal/ui/overlay"
	"pomodoro/internal/ui/preferences"
	"pomodoro/internal/ui/queues"
	"pomodoro/internal/ui/timer"
	"pomodoro/internal/ui/tray"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
)

const appID = "com.pomodoro.app"

// desktopUI holds the fyne front-end and the services it drives.
type desktopUI struct {
	app      fyne.App
	env      *environment
	keeper   *timekeeper.TimeKeeper
	library  *queue.Library
	writer   *persist.Writer
	logger   *slog.Logger
	timer    *timer.Window
	queues   *queues.Window
	prefs    *preferences.Window
	overlay  *overlay.Window
	tray     *tray.Manager
	lastKind model.PhaseKind
}

func runGUI(ctx context.Context) error {
	guard, err := platform.AcquireSingleInstance(appName)
	if err != nil {
		if errors.Is(err, platform.ErrAlreadyRunning) {
			slog.Info("already running; asking it to show its window")
			return platform.SignalShow(appName)
		}
		return err
	}
	defer func() {
		_ = guard.Release()
	}()

	env, err := openEnvironment()
	if err != nil {
		return err
	}
	defer env.Close()

	settings, err := env.settings()
	if err != nil {
		slog.Warn("using default settings", "error", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	fyneApp := fyneapp.NewWithID(appID)
	fyneApp.SetIcon(theme.HistoryIcon())
	ui := &desktopUI{app: fyneApp, env: env, logger: env.logger}

	ui.library, ui.writer, err = env.library(ctx, ui.reportError)
	if err != nil {
		return err
	}
	defer ui.writer.Close()

	ui.keeper = env.keeper(ctx, settings)
	defer ui.keeper.Close()

	ui.build(settings)
	guard.OnShow(func() {
		fyne.Do(ui.timer.Show)
	})

	events := ui.keeper.Subscribe(32)
	go func() {
		for event := range events {
			fyne.Do(func() {
				ui.handleEvent(event)
			})
		}
	}()
	go ui.keeper.Run(ctx)

	ui.render()
	ui.timer.Show()
	fyneApp.Run()
	cancel()
	return nil
}

func (ui *desktopUI) build(settings model.Settings) {
	ui.timer = timer.New(ui.app, "Pomodoro", timer.Callbacks{
		OnToggle:      ui.keeper.Toggle,
		OnRestart:     ui.keeper.Restart,
		OnNext:        func() { ui.keeper.Next(true) },
		OnQueues:      func() { ui.queues.Show() },
		OnPreferences: func() { ui.prefs.Show() },
		OnIntent:      ui.selectIntent,
	})

	ui.queues = queues.New(ui.app, ui.library, queues.Callbacks{
		OnStart:   ui.keeper.StartQueue,
		OnChanged: ui.queuesChanged,
	})

	ui.prefs = preferences.New(ui.app, settings, ui.saveSettings)

	ui.overlay = overlay.New(ui.app, overlay.DefaultConfig())
	ui.overlay.SetOnSkip(func() {
		ui.keeper.Next(true)
	})

	if desktopApp, ok := ui.app.(desktop.App); ok {
		ui.tray = tray.New(desktopApp, tray.Callbacks{
			OnShow:        ui.timer.Show,
			OnToggle:      ui.keeper.Toggle,
			OnRestart:     ui.keeper.Restart,
			OnNext:        func() { ui.keeper.Next(true) },
			OnStartQueue:  ui.startQueue,
			OnStopQueue:   ui.keeper.StopQueue,
			OnQueues:      func() { ui.queues.Show() },
			OnPreferences: func() { ui.prefs.Show() },
			OnQuit:        ui.app.Quit,
		})
		desktopApp.SetSystemTrayIcon(theme.HistoryIcon())
		desktopApp.SetSystemTrayWindow(ui.timer.Window())
	} else {
		ui.logger.Info("system tray unsupported on this platform")
		ui.timer.Window().SetCloseIntercept(ui.app.Quit)
	}

	ui.refreshIntents()
	ui.queuesChanged(ui.library.Queues())
}

// handleEvent runs on the fyne goroutine.
func (ui *desktopUI) handleEvent(event timekeeper.Event) {
	switch event.Type {
	case timekeeper.EventPhaseComplete:
		if complete := event.Complete; complete != nil {
			ui.notifyComplete(*complete)
		}
	case timekeeper.EventPersistenceError:
		ui.timer.SetMessage("Could not save: " + event.Message)
	case timekeeper.EventIdleError:
		ui.timer.SetMessage("Idle detection unavailable")
	case timekeeper.EventIdlePause:
		ui.timer.SetMessage("Paused while you were away")
	case timekeeper.EventQueueChanged:
		ui.timer.SetMessage("")
		ui.queuesChanged(ui.library.Queues())
	}
	ui.render()
}

func (ui *desktopUI) render() {
	snapshot := ui.keeper.Snapshot()
	ui.timer.Render(snapshot)

	view := timer.Describe(snapshot)
	if ui.tray != nil {
		ui.tray.SetStatus(view.Status())
		ui.tray.SetTimer(view.Running, snapshot.Timer.Status == timekeeper.StatusPaused, view.InBreak)
	}

	kind := snapshot.Timer.Phase.Kind
	switch {
	case kind.IsBreak() && kind != ui.lastKind:
		next := scheduler.FocusPhase(snapshot.Active, snapshot.Settings)
		ui.overlay.Show(overlay.Break{Kind: kind, Remaining: snapshot.Timer.Remaining, UpNext: &next})
	case kind.IsBreak():
		ui.overlay.SetRemaining(snapshot.Timer.Remaining)
	case ui.overlay.Visible():
		ui.overlay.Hide()
	}
	ui.lastKind = kind
}

func (ui *desktopUI) notifyComplete(complete timekeeper.PhaseComplete) {
	if complete.Manual {
		return
	}
	title := fmt.Sprintf("%s finished", complete.Phase.Kind.Label())
	content := "Time for a break."
	if complete.Phase.Kind.IsBreak() {
		content = "Back to focus."
	}
	ui.app.SendNotification(fyne.NewNotification(title, content))
}

func (ui *desktopUI) startQueue(queueID string) {
	selected, err := ui.library.Queue(queueID)
	if err != nil {
		ui.timer.SetMessage(err.Error())
		return
	}
	if err := ui.keeper.StartQueue(selected); err != nil {
		ui.timer.SetMessage(err.Error())
	}
}

func (ui *desktopUI) queuesChanged(current []model.Queue) {
	if ui.tray != nil {
		ui.tray.SetQueues(current, ui.keeper.Snapshot().Active != nil)
	}
}

func (ui *desktopUI) saveSettings(settings model.Settings) {
	if err := storage.SaveSettings(ui.env.settingsPath, settings); err != nil {
		ui.logger.Error("save settings failed", "error", err)
		ui.timer.SetMessage("Could not save settings: " + err.Error())
	}
	ui.keeper.UpdateSettings(settings)
}

func (ui *desktopUI) selectIntent(intentID string) {
	ui.keeper.SetIntent(intentID)
	store := ui.env.store
	ui.writer.Submit("set_active_intent", func(ctx context.Context) error {
		return store.SetActiveIntent(ctx, intentID)
	})
}

func (ui *desktopUI) refreshIntents() {
	intents, err := ui.env.store.ListIntents(context.Background(), false)
	if err != nil {
		ui.logger.Warn("list intents failed", "error", err)
		return
	}
	ui.timer.SetIntents(intents, ui.keeper.Snapshot().IntentID)
}

// reportError is the library writer's failure hook; it runs off the fyne goroutine.
func (ui *desktopUI) reportError(err error) {
	fyne.Do(func() {
		if ui.timer != nil {
			ui.timer.SetMessage("Could not save: " + err.Error())
		}
	})
}
