package tray

import (
	"fmt"

	"pomodoro/internal/core/model"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
)

// Callbacks defines tray action handlers.
type Callbacks struct {
	OnShow        func()
	OnToggle      func()
	OnRestart     func()
	OnNext        func()
	OnStartQueue  func(queueID string)
	OnStopQueue   func()
	OnQueues      func()
	OnPreferences func()
	OnQuit        func()
}

// Manager handles system tray state.
type Manager struct {
	app         desktop.App
	callbacks   Callbacks
	statusLabel string
	running     bool
	paused      bool
	inBreak     bool
	queueActive bool
	queues      []model.Queue
}

// New creates a tray manager with the provided callbacks.
func New(app desktop.App, callbacks Callbacks) *Manager {
	manager := &Manager{
		app:         app,
		callbacks:   callbacks,
		statusLabel: "starting...",
	}
	manager.refreshMenu()
	return manager
}

// SetStatus updates the status label.
func (manager *Manager) SetStatus(status string) {
	manager.statusLabel = status
	manager.refreshMenu()
}

// SetTimer updates the toggle and skip labels.
func (manager *Manager) SetTimer(running, paused, inBreak bool) {
	if manager.running == running && manager.paused == paused && manager.inBreak == inBreak {
		return
	}
	manager.running = running
	manager.paused = paused
	manager.inBreak = inBreak
	manager.refreshMenu()
}

// SetQueues replaces the "Start queue" submenu entries.
func (manager *Manager) SetQueues(queues []model.Queue, active bool) {
	manager.queues = queues
	manager.queueActive = active
	manager.refreshMenu()
}

// Menu builds the current tray menu.
func (manager *Manager) Menu() *fyne.Menu {
	status := fyne.NewMenuItem(fmt.Sprintf("Status: %s", manager.statusLabel), nil)
	status.Disabled = true

	toggleLabel := "Start"
	switch {
	case manager.running:
		toggleLabel = "Pause"
	case manager.paused:
		toggleLabel = "Resume"
	}
	skipLabel := "Skip focus"
	if manager.inBreak {
		skipLabel = "Skip break"
	}

	startQueue := fyne.NewMenuItem("Start queue", nil)
	var queueItems []*fyne.MenuItem
	for _, queue := range manager.queues {
		queueID := queue.ID
		item := fyne.NewMenuItem(queue.Name, func() {
			if manager.callbacks.OnStartQueue != nil {
				manager.callbacks.OnStartQueue(queueID)
			}
		})
		item.Disabled = len(queue.Sessions) == 0
		queueItems = append(queueItems, item)
	}
	if len(queueItems) == 0 {
		startQueue.Disabled = true
	} else {
		startQueue.ChildMenu = fyne.NewMenu("", queueItems...)
	}

	stopQueue := fyne.NewMenuItem("Stop queue", func() { call(manager.callbacks.OnStopQueue) })
	stopQueue.Disabled = !manager.queueActive

	return fyne.NewMenu("Pomodoro",
		status,
		fyne.NewMenuItem("Show timer", func() { call(manager.callbacks.OnShow) }),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem(toggleLabel, func() { call(manager.callbacks.OnToggle) }),
		fyne.NewMenuItem("Restart phase", func() { call(manager.callbacks.OnRestart) }),
		fyne.NewMenuItem(skipLabel, func() { call(manager.callbacks.OnNext) }),
		fyne.NewMenuItemSeparator(),
		startQueue,
		stopQueue,
		fyne.NewMenuItem("Edit queues...", func() { call(manager.callbacks.OnQueues) }),
		fyne.NewMenuItem("Preferences", func() { call(manager.callbacks.OnPreferences) }),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Quit", func() { call(manager.callbacks.OnQuit) }),
	)
}

func (manager *Manager) refreshMenu() {
	if manager.app != nil {
		manager.app.SetSystemTrayMenu(manager.Menu())
	}
}

func call(callback func()) {
	if callback != nil {
		callback()
	}
}
