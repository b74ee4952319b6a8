package queues

import (
	"fmt"
	"strings"

	"pomodoro/internal/core/model"
	"pomodoro/internal/core/queue"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

// Callbacks defines queue window action handlers.
type Callbacks struct {
	OnStart   func(model.Queue) error
	OnChanged func([]model.Queue)
}

// Window edits the queue library: queues on the left, the selected queue's
// sessions and the add-session form on the right.
type Window struct {
	window    fyne.Window
	library   *queue.Library
	callbacks Callbacks

	queues     []model.Queue
	selectedID string

	queueList   *widget.List
	sessionList *widget.List
	newName     *widget.Entry
	rename      *widget.Entry
	duration    *widget.Slider
	durationVal *widget.Label
	cycles      *widget.Slider
	cyclesVal   *widget.Label
	project     *widget.Entry
	errorLabel  *widget.Label
	detail      *fyne.Container
}

// New creates the queue editor window over library.
func New(app fyne.App, library *queue.Library, callbacks Callbacks) *Window {
	window := app.NewWindow("Queues")
	editor := &Window{
		window:    window,
		library:   library,
		callbacks: callbacks,
	}

	editor.queueList = widget.NewList(
		func() int { return len(editor.queues) },
		func() fyne.CanvasObject { return widget.NewLabel("queue") },
		func(id widget.ListItemID, object fyne.CanvasObject) {
			current := editor.queues[id]
			object.(*widget.Label).SetText(fmt.Sprintf("%s (%d)", current.Name, len(current.Sessions)))
		},
	)
	editor.queueList.OnSelected = func(id widget.ListItemID) {
		editor.selectQueue(id)
	}

	editor.newName = widget.NewEntry()
	editor.newName.SetPlaceHolder("New queue name")
	editor.newName.OnSubmitted = func(string) { editor.createQueue() }
	addQueue := widget.NewButtonWithIcon("", theme.ContentAddIcon(), editor.createQueue)
	deleteQueue := widget.NewButtonWithIcon("Delete", theme.DeleteIcon(), editor.deleteSelected)

	left := container.NewBorder(
		nil,
		container.NewVBox(container.NewBorder(nil, nil, nil, addQueue, editor.newName), deleteQueue),
		nil, nil,
		editor.queueList,
	)

	editor.sessionList = widget.NewList(
		func() int { return len(editor.selectedSessions()) },
		editor.newSessionRow,
		editor.updateSessionRow,
	)

	editor.rename = widget.NewEntry()
	editor.rename.OnSubmitted = func(string) { editor.renameSelected() }

	editor.durationVal = widget.NewLabel("")
	editor.duration = widget.NewSlider(model.MinSessionMinutes, model.MaxSessionMinutes)
	editor.duration.Step = 1
	editor.duration.OnChanged = func(value float64) {
		editor.durationVal.SetText(fmt.Sprintf("%d min", int(value)))
	}
	editor.duration.SetValue(25)

	editor.cyclesVal = widget.NewLabel("")
	editor.cycles = widget.NewSlider(model.MinSessionCycles, model.MaxSessionCycles)
	editor.cycles.Step = 1
	editor.cycles.OnChanged = func(value float64) {
		editor.cyclesVal.SetText(fmt.Sprintf("× %d", int(value)))
	}
	editor.cycles.SetValue(1)

	editor.project = widget.NewEntry()
	editor.project.SetPlaceHolder("Project (optional)")

	editor.errorLabel = widget.NewLabel("")
	editor.errorLabel.Importance = widget.DangerImportance
	editor.errorLabel.Hide()

	addSession := widget.NewButtonWithIcon("Add session", theme.ContentAddIcon(), editor.addSession)
	startButton := widget.NewButtonWithIcon("Start queue", theme.MediaPlayIcon(), editor.startSelected)
	startButton.Importance = widget.HighImportance

	form := container.NewVBox(
		widget.NewSeparator(),
		container.NewBorder(nil, nil, widget.NewLabel("Duration"), editor.durationVal, editor.duration),
		container.NewBorder(nil, nil, widget.NewLabel("Cycles"), editor.cyclesVal, editor.cycles),
		editor.project,
		addSession,
		editor.errorLabel,
		container.NewHBox(layout.NewSpacer(), startButton),
	)
	header := container.NewBorder(nil, nil, nil, widget.NewButton("Rename", editor.renameSelected), editor.rename)
	editor.detail = container.NewBorder(header, form, nil, nil, editor.sessionList)
	editor.detail.Hide()

	split := container.NewHSplit(left, editor.detail)
	split.Offset = 0.35
	window.SetContent(split)
	window.Resize(fyne.NewSize(720, 460))
	window.SetCloseIntercept(func() {
		window.Hide()
	})
	return editor
}

// Show refreshes from the library and displays the window.
func (editor *Window) Show() {
	editor.Refresh()
	editor.window.Show()
	editor.window.RequestFocus()
}

// Refresh reloads the queue list from the library.
func (editor *Window) Refresh() {
	editor.queues = editor.library.Queues()
	editor.queueList.Refresh()
	if editor.selectedID != "" {
		if index := editor.indexOf(editor.selectedID); index >= 0 {
			editor.rename.SetText(editor.queues[index].Name)
			editor.detail.Show()
		} else {
			editor.selectedID = ""
			editor.detail.Hide()
		}
	}
	editor.sessionList.Refresh()
}

func (editor *Window) selectQueue(index int) {
	if index < 0 || index >= len(editor.queues) {
		return
	}
	editor.selectedID = editor.queues[index].ID
	editor.rename.SetText(editor.queues[index].Name)
	editor.clearError()
	editor.detail.Show()
	editor.sessionList.Refresh()
}

func (editor *Window) createQueue() {
	name := strings.TrimSpace(editor.newName.Text)
	if name == "" {
		editor.showError(fmt.Errorf("queue name is empty"))
		return
	}
	created := editor.library.CreateQueue(name)
	editor.newName.SetText("")
	editor.selectedID = created.ID
	editor.changed()
	editor.queueList.Select(editor.indexOf(created.ID))
}

func (editor *Window) deleteSelected() {
	if editor.selectedID == "" {
		return
	}
	if err := editor.library.DeleteQueue(editor.selectedID); err != nil {
		editor.showError(err)
		return
	}
	editor.queueList.UnselectAll()
	editor.selectedID = ""
	editor.changed()
}

func (editor *Window) renameSelected() {
	if editor.selectedID == "" {
		return
	}
	if _, err := editor.library.RenameQueue(editor.selectedID, editor.rename.Text); err != nil {
		editor.showError(err)
		return
	}
	editor.changed()
}

func (editor *Window) addSession() {
	if editor.selectedID == "" {
		return
	}
	session, err := queue.CreateSession(int(editor.duration.Value), int(editor.cycles.Value), editor.project.Text)
	if err != nil {
		editor.showError(err)
		return
	}
	if _, err := editor.library.AddSession(editor.selectedID, session); err != nil {
		editor.showError(err)
		return
	}
	editor.project.SetText("")
	editor.changed()
}

// moveSession is the list's reorder gesture: it resolves to a (from, to) pair.
func (editor *Window) moveSession(from, to int) {
	if editor.selectedID == "" {
		return
	}
	if _, err := editor.library.ReorderSession(editor.selectedID, from, to); err != nil {
		editor.showError(err)
		return
	}
	editor.changed()
}

func (editor *Window) removeSession(index int) {
	sessions := editor.selectedSessions()
	if index < 0 || index >= len(sessions) {
		return
	}
	if _, err := editor.library.RemoveSession(editor.selectedID, sessions[index].ID); err != nil {
		editor.showError(err)
		return
	}
	editor.changed()
}

func (editor *Window) startSelected() {
	if editor.selectedID == "" || editor.callbacks.OnStart == nil {
		return
	}
	selected, err := editor.library.Queue(editor.selectedID)
	if err != nil {
		editor.showError(err)
		return
	}
	if err := editor.callbacks.OnStart(selected); err != nil {
		editor.showError(err)
		return
	}
	editor.window.Hide()
}

func (editor *Window) changed() {
	editor.clearError()
	editor.Refresh()
	if editor.callbacks.OnChanged != nil {
		editor.callbacks.OnChanged(editor.queues)
	}
}

func (editor *Window) selectedSessions() []model.Session {
	index := editor.indexOf(editor.selectedID)
	if index < 0 {
		return nil
	}
	return editor.queues[index].Sessions
}

func (editor *Window) indexOf(id string) int {
	for index, candidate := range editor.queues {
		if candidate.ID == id {
			return index
		}
	}
	return -1
}

func (editor *Window) showError(err error) {
	editor.errorLabel.SetText(err.Error())
	editor.errorLabel.Show()
}

func (editor *Window) clearError() {
	editor.errorLabel.SetText("")
	editor.errorLabel.Hide()
}

func (editor *Window) newSessionRow() fyne.CanvasObject {
	up := widget.NewButtonWithIcon("", theme.MoveUpIcon(), nil)
	down := widget.NewButtonWithIcon("", theme.MoveDownIcon(), nil)
	remove := widget.NewButtonWithIcon("", theme.DeleteIcon(), nil)
	return container.NewBorder(nil, nil, nil, container.NewHBox(up, down, remove), widget.NewLabel("session"))
}

func (editor *Window) updateSessionRow(id widget.ListItemID, object fyne.CanvasObject) {
	sessions := editor.selectedSessions()
	if id >= len(sessions) {
		return
	}
	row := object.(*fyne.Container)
	label := row.Objects[0].(*widget.Label)
	buttons := row.Objects[1].(*fyne.Container)
	up := buttons.Objects[0].(*widget.Button)
	down := buttons.Objects[1].(*widget.Button)
	remove := buttons.Objects[2].(*widget.Button)

	label.SetText(SessionLine(id, sessions[id]))

	index := id
	up.OnTapped = func() { editor.moveSession(index, index-1) }
	down.OnTapped = func() { editor.moveSession(index, index+1) }
	remove.OnTapped = func() { editor.removeSession(index) }
	setEnabled(up, index > 0)
	setEnabled(down, index < len(sessions)-1)
}

// SessionLine is the list text for a session at position index.
func SessionLine(index int, session model.Session) string {
	line := fmt.Sprintf("%d. %d min × %d", index+1, session.DurationMinutes, session.Cycles)
	if session.ProjectID != "" {
		line += " · " + session.ProjectID
	}
	return line
}

func setEnabled(button *widget.Button, enabled bool) {
	if enabled {
		button.Enable()
		return
	}
	button.Disable()
}
