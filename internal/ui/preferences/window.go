package preferences

import (
	"pomodoro/internal/core/model"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"
)

// Window handles the preferences UI.
type Window struct {
	window       fyne.Window
	settings     model.Settings
	onSave       func(model.Settings)
	focus        *widget.Entry
	breakEntry   *widget.Entry
	longBreak    *widget.Entry
	longInterval *widget.Entry
	autoAdvance  *widget.Check
	idlePause    *widget.Check
	idleAfter    *widget.Entry
	errorLabel   *widget.Label
}

// New creates a preferences window.
func New(app fyne.App, settings model.Settings, onSave func(model.Settings)) *Window {
	window := app.NewWindow("Pomodoro Settings")

	prefs := &Window{
		window:       window,
		settings:     settings,
		onSave:       onSave,
		focus:        widget.NewEntry(),
		breakEntry:   widget.NewEntry(),
		longBreak:    widget.NewEntry(),
		longInterval: widget.NewEntry(),
		autoAdvance:  widget.NewCheck("Start the next phase automatically", nil),
		idlePause:    widget.NewCheck("Pause focus when I am away", nil),
		idleAfter:    widget.NewEntry(),
		errorLabel:   widget.NewLabel(""),
	}
	prefs.errorLabel.Importance = widget.DangerImportance
	prefs.errorLabel.Hide()
	prefs.fill(settings)

	form := container.NewVBox(
		widget.NewLabelWithStyle("Timing", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		row("Focus without a queue", prefs.focus, "min"),
		row("Break", prefs.breakEntry, "min"),
		row("Long break", prefs.longBreak, "min"),
		row("Long break after every", prefs.longInterval, "focus phases"),
		prefs.autoAdvance,
		widget.NewLabelWithStyle("Idle", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		prefs.idlePause,
		row("Away for", prefs.idleAfter, "min"),
		prefs.errorLabel,
	)

	saveButton := widget.NewButton("Save", prefs.handleSave)
	saveButton.Importance = widget.HighImportance
	cancelButton := widget.NewButton("Cancel", func() {
		prefs.fill(prefs.settings)
		window.Hide()
	})
	buttons := container.NewHBox(saveButton, layout.NewSpacer(), cancelButton)

	window.SetContent(container.NewBorder(nil, buttons, nil, nil, form))
	window.Resize(fyne.NewSize(420, 400))
	window.SetCloseIntercept(func() {
		window.Hide()
	})

	return prefs
}

// Show displays the preferences window.
func (prefs *Window) Show() {
	prefs.window.Show()
	prefs.window.RequestFocus()
}

// UpdateSettings replaces window values.
func (prefs *Window) UpdateSettings(settings model.Settings) {
	prefs.settings = settings
	prefs.fill(settings)
}

func (prefs *Window) fill(settings model.Settings) {
	form := FormFromSettings(settings)
	prefs.focus.SetText(form.Focus)
	prefs.breakEntry.SetText(form.Break)
	prefs.longBreak.SetText(form.LongBreak)
	prefs.longInterval.SetText(form.LongInterval)
	prefs.autoAdvance.SetChecked(form.AutoAdvance)
	prefs.idlePause.SetChecked(form.IdlePause)
	prefs.idleAfter.SetText(form.IdlePauseAfter)
	prefs.errorLabel.Hide()
}

func (prefs *Window) handleSave() {
	form := Form{
		Focus:          prefs.focus.Text,
		Break:          prefs.breakEntry.Text,
		LongBreak:      prefs.longBreak.Text,
		LongInterval:   prefs.longInterval.Text,
		AutoAdvance:    prefs.autoAdvance.Checked,
		IdlePause:      prefs.idlePause.Checked,
		IdlePauseAfter: prefs.idleAfter.Text,
	}
	settings, err := form.Apply(prefs.settings)
	if err != nil {
		prefs.errorLabel.SetText(err.Error())
		prefs.errorLabel.Show()
		return
	}

	prefs.settings = settings
	prefs.errorLabel.Hide()
	if prefs.onSave != nil {
		prefs.onSave(settings)
	}
	prefs.window.Hide()
}

func row(label string, entry *widget.Entry, unit string) fyne.CanvasObject {
	return container.NewBorder(nil, nil, widget.NewLabel(label), widget.NewLabel(unit), entry)
}
