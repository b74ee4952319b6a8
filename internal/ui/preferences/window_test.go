package preferences

import (
	"testing"

	"pomodoro/internal/core/model"

	"fyne.io/fyne/v2/test"
)

func TestWindow_SaveEmitsSettings(t *testing.T) {
	app := test.NewApp()
	defer app.Quit()

	var saved []model.Settings
	prefs := New(app, model.DefaultSettings(), func(settings model.Settings) {
		saved = append(saved, settings)
	})

	prefs.focus.SetText("45")
	prefs.autoAdvance.SetChecked(false)
	prefs.handleSave()

	if len(saved) != 1 {
		t.Fatalf("onSave calls=%d, want 1", len(saved))
	}
	if saved[0].FocusMinutes != 45 || saved[0].AutoAdvance {
		t.Fatalf("saved=%+v", saved[0])
	}
}

func TestWindow_InvalidInputShowsError(t *testing.T) {
	app := test.NewApp()
	defer app.Quit()

	called := false
	prefs := New(app, model.DefaultSettings(), func(model.Settings) { called = true })
	prefs.breakEntry.SetText("120")
	prefs.handleSave()

	if called {
		t.Fatalf("onSave called for invalid input")
	}
	if !prefs.errorLabel.Visible() || prefs.errorLabel.Text == "" {
		t.Fatalf("error label not shown")
	}
}
