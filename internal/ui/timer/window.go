package timer

import (
	"image/color"

	"pomodoro/internal/core/model"
	"pomodoro/internal/core/timekeeper"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

const noIntent = "(no intent)"

// Callbacks defines timer window action handlers.
type Callbacks struct {
	OnToggle      func()
	OnRestart     func()
	OnNext        func()
	OnQueues      func()
	OnPreferences func()
	OnIntent      func(intentID string)
}

// Window is the main countdown window.
type Window struct {
	window    fyne.Window
	callbacks Callbacks

	phaseLabel *canvas.Text
	clockLabel *canvas.Text
	queueLabel *widget.Label
	message    *widget.Label
	progress   *widget.ProgressBar
	toggle     *widget.Button
	restart    *widget.Button
	next       *widget.Button
	intents    *widget.Select

	intentIDs map[string]string
	updating  bool
}

var (
	focusColor = color.NRGBA{R: 232, G: 92, B: 66, A: 255}
	breakColor = color.NRGBA{R: 76, G: 175, B: 120, A: 255}
)

// New creates the timer window. It is hidden until Show is called.
func New(app fyne.App, title string, callbacks Callbacks) *Window {
	window := app.NewWindow(title)
	if app.Icon() != nil {
		window.SetIcon(app.Icon())
	}

	timerWindow := &Window{
		window:    window,
		callbacks: callbacks,
		intentIDs: map[string]string{},
	}

	timerWindow.phaseLabel = canvas.NewText(model.PhaseFocus.Label(), focusColor)
	timerWindow.phaseLabel.Alignment = fyne.TextAlignCenter
	timerWindow.phaseLabel.TextStyle = fyne.TextStyle{Bold: true}
	timerWindow.phaseLabel.TextSize = 20

	timerWindow.clockLabel = canvas.NewText("--:--", theme.Color(theme.ColorNameForeground))
	timerWindow.clockLabel.Alignment = fyne.TextAlignCenter
	timerWindow.clockLabel.TextStyle = fyne.TextStyle{Bold: true, Monospace: true}
	timerWindow.clockLabel.TextSize = 56

	timerWindow.queueLabel = widget.NewLabel("No queue")
	timerWindow.queueLabel.Alignment = fyne.TextAlignCenter
	timerWindow.queueLabel.Wrapping = fyne.TextWrapWord

	timerWindow.message = widget.NewLabel("")
	timerWindow.message.Alignment = fyne.TextAlignCenter
	timerWindow.message.Hide()

	timerWindow.progress = widget.NewProgressBar()
	timerWindow.progress.TextFormatter = func() string { return "" }

	timerWindow.toggle = widget.NewButtonWithIcon("Start", theme.MediaPlayIcon(), func() {
		call(timerWindow.callbacks.OnToggle)
	})
	timerWindow.toggle.Importance = widget.HighImportance
	timerWindow.restart = widget.NewButtonWithIcon("Restart", theme.MediaReplayIcon(), func() {
		call(timerWindow.callbacks.OnRestart)
	})
	timerWindow.next = widget.NewButtonWithIcon("Next", theme.MediaSkipNextIcon(), func() {
		call(timerWindow.callbacks.OnNext)
	})

	timerWindow.intents = widget.NewSelect([]string{noIntent}, timerWindow.handleIntent)
	timerWindow.intents.SetSelected(noIntent)

	toolbar := widget.NewToolbar(
		widget.NewToolbarAction(theme.ListIcon(), func() { call(timerWindow.callbacks.OnQueues) }),
		widget.NewToolbarSpacer(),
		widget.NewToolbarAction(theme.SettingsIcon(), func() { call(timerWindow.callbacks.OnPreferences) }),
	)

	controls := container.NewHBox(layout.NewSpacer(), timerWindow.restart, timerWindow.toggle, timerWindow.next, layout.NewSpacer())
	body := container.NewVBox(
		timerWindow.phaseLabel,
		timerWindow.clockLabel,
		timerWindow.progress,
		controls,
		timerWindow.queueLabel,
		container.NewBorder(nil, nil, widget.NewLabel("Intent"), nil, timerWindow.intents),
		timerWindow.message,
	)
	window.SetContent(container.NewBorder(toolbar, nil, nil, nil, container.NewPadded(body)))
	window.Resize(fyne.NewSize(360, 380))
	window.SetCloseIntercept(func() {
		window.Hide()
	})
	return timerWindow
}

// Show displays the window.
func (timerWindow *Window) Show() {
	timerWindow.window.Show()
	timerWindow.window.RequestFocus()
}

// Window exposes the underlying fyne window.
func (timerWindow *Window) Window() fyne.Window {
	return timerWindow.window
}

// Render updates every widget from a keeper snapshot. Call on the fyne goroutine.
func (timerWindow *Window) Render(snapshot timekeeper.Snapshot) {
	view := Describe(snapshot)

	timerWindow.phaseLabel.Text = view.Phase
	timerWindow.phaseLabel.Color = focusColor
	if view.InBreak {
		timerWindow.phaseLabel.Color = breakColor
	}
	timerWindow.phaseLabel.Refresh()

	timerWindow.clockLabel.Text = view.Clock
	timerWindow.clockLabel.Refresh()
	timerWindow.progress.SetValue(view.Progress)
	timerWindow.queueLabel.SetText(view.Queue)

	timerWindow.toggle.SetText(view.Toggle)
	if view.Running {
		timerWindow.toggle.SetIcon(theme.MediaPauseIcon())
	} else {
		timerWindow.toggle.SetIcon(theme.MediaPlayIcon())
	}
}

// SetIntents replaces the intent choices and selects selectedID.
func (timerWindow *Window) SetIntents(intents []model.Intent, selectedID string) {
	options := []string{noIntent}
	timerWindow.intentIDs = map[string]string{noIntent: ""}
	selected := noIntent
	for _, intent := range intents {
		label := intent.Label
		if intent.Pinned {
			label = "★ " + label
		}
		options = append(options, label)
		timerWindow.intentIDs[label] = intent.ID
		if intent.ID == selectedID {
			selected = label
		}
	}

	timerWindow.updating = true
	timerWindow.intents.Options = options
	timerWindow.intents.SetSelected(selected)
	timerWindow.updating = false
}

// SetMessage shows a transient notice under the controls; empty hides it.
func (timerWindow *Window) SetMessage(message string) {
	timerWindow.message.SetText(message)
	if message == "" {
		timerWindow.message.Hide()
		return
	}
	timerWindow.message.Show()
}

func (timerWindow *Window) handleIntent(label string) {
	if timerWindow.updating || timerWindow.callbacks.OnIntent == nil {
		return
	}
	timerWindow.callbacks.OnIntent(timerWindow.intentIDs[label])
}

func call(callback func()) {
	if callback != nil {
		callback()
	}
}
