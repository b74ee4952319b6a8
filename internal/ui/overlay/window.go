package overlay

import (
	"fmt"
	"image/color"
	"time"

	"pomodoro/internal/core/model"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

// Config defines overlay visuals.
type Config struct {
	Opacity    uint8
	Fullscreen bool
}

// DefaultConfig is a translucent, windowed overlay.
func DefaultConfig() Config {
	return Config{Opacity: 217}
}

// Break describes the break the overlay announces.
type Break struct {
	Kind      model.PhaseKind
	Remaining time.Duration
	// UpNext is the focus phase that follows, if known.
	UpNext *model.Phase
}

// Window shows a break reminder with a countdown and a Skip button.
type Window struct {
	app        fyne.App
	window     fyne.Window
	config     Config
	icon       *canvas.Image
	timerLabel *canvas.Text
	skipButton *widget.Button
	titleLabel *canvas.Text
	hintLabel  *canvas.Text
	nextLabel  *canvas.Text
	background *canvas.Rectangle
	visible    bool
	onSkip     func()
}

const (
	overlayWidthFraction  = float32(0.22)
	overlayHeightFraction = float32(0.2)
	defaultScreenWidth    = float32(1920)
	defaultScreenHeight   = float32(1080)
)

var (
	accentColor = color.NRGBA{R: 76, G: 175, B: 120, A: 255}
	textColor   = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
)

type splashWindowDriver interface {
	CreateSplashWindow() fyne.Window
}

// New creates a hidden overlay window.
func New(app fyne.App, config Config) *Window {
	window := app.NewWindow("Break")
	if driver, ok := app.Driver().(splashWindowDriver); ok {
		// Splash window is undecorated (no native frame/buttons).
		window = driver.CreateSplashWindow()
	}
	if app.Icon() != nil {
		window.SetIcon(app.Icon())
	}
	window.SetPadded(false)

	background := canvas.NewRectangle(color.NRGBA{A: config.Opacity})

	icon := canvas.NewImageFromResource(theme.VisibilityOffIcon())
	icon.FillMode = canvas.ImageFillContain

	timerLabel := newText("--:--", accentColor, 22, true)
	titleLabel := newText(model.PhaseBreak.Label(), textColor, 21, true)
	hintLabel := newText("", textColor, 14, false)
	nextLabel := newText("", textColor, 13, false)

	skipButton := widget.NewButton("Skip", nil)

	leftContent := container.New(&leftPanelLayout{}, titleLabel, hintLabel, nextLabel, timerLabel)
	rightContent := container.New(&rightPanelLayout{}, icon, skipButton)
	content := container.NewGridWithColumns(2, leftContent, rightContent)
	window.SetContent(container.NewStack(background, content))

	overlay := &Window{
		app:        app,
		window:     window,
		config:     config,
		icon:       icon,
		timerLabel: timerLabel,
		skipButton: skipButton,
		titleLabel: titleLabel,
		hintLabel:  hintLabel,
		nextLabel:  nextLabel,
		background: background,
	}
	skipButton.OnTapped = func() {
		if overlay.onSkip != nil {
			overlay.onSkip()
		}
	}
	overlay.applyWindowMode()
	return overlay
}

// Show presents the overlay for a break. Non-break phases hide it.
func (overlay *Window) Show(current Break) {
	if !current.Kind.IsBreak() {
		overlay.Hide()
		return
	}
	overlay.titleLabel.Text = current.Kind.Label()
	overlay.titleLabel.Refresh()
	overlay.hintLabel.Text = breakHint(current.Kind)
	overlay.hintLabel.Refresh()
	overlay.nextLabel.Text = upNextText(current.UpNext)
	overlay.nextLabel.Refresh()
	overlay.setRemaining(current.Remaining)

	overlay.applyWindowMode()
	overlay.window.Show()
	overlay.window.RequestFocus()
	overlay.visible = true
}

// Hide closes the overlay.
func (overlay *Window) Hide() {
	if overlay.config.Fullscreen {
		overlay.window.SetFullScreen(false)
	}
	overlay.window.Hide()
	overlay.visible = false
}

// Visible reports whether the overlay is on screen.
func (overlay *Window) Visible() bool {
	return overlay.visible
}

// SetRemaining updates the timer label.
func (overlay *Window) SetRemaining(remaining time.Duration) {
	overlay.setRemaining(remaining)
}

// SetOnSkip sets skip handler.
func (overlay *Window) SetOnSkip(handler func()) {
	overlay.onSkip = handler
}

// UpdateConfig updates overlay visuals.
func (overlay *Window) UpdateConfig(config Config) {
	overlay.config = config
	overlay.background.FillColor = color.NRGBA{A: config.Opacity}
	overlay.applyWindowMode()
	canvas.Refresh(overlay.background)
}

func (overlay *Window) setRemaining(remaining time.Duration) {
	overlay.timerLabel.Text = formatDuration(remaining)
	overlay.timerLabel.Refresh()
}

func (overlay *Window) applyWindowMode() {
	if overlay.config.Fullscreen {
		overlay.window.SetFullScreen(true)
		return
	}
	overlay.window.SetFullScreen(false)
	overlay.resizeToScreenFraction()
}

func (overlay *Window) resizeToScreenFraction() {
	screenSize := fyne.NewSize(defaultScreenWidth, defaultScreenHeight)
	canvasSize := overlay.window.Canvas().Size()
	// Canvas size can be reused as a proxy for monitor size when it is clearly screen-like.
	if canvasSize.Width >= 1024 && canvasSize.Height >= 720 {
		screenSize = canvasSize
	}

	width := screenSize.Width * overlayWidthFraction
	height := screenSize.Height * overlayHeightFraction
	minSize := overlay.window.Content().MinSize()
	if width < minSize.Width {
		width = minSize.Width
	}
	if height < minSize.Height {
		height = minSize.Height
	}

	overlay.window.Resize(fyne.NewSize(width, height))
	overlay.window.CenterOnScreen()
}

func newText(text string, fill color.Color, size float32, bold bool) *canvas.Text {
	label := canvas.NewText(text, fill)
	label.Alignment = fyne.TextAlignLeading
	label.TextStyle = fyne.TextStyle{Bold: bold}
	label.TextSize = size
	return label
}

func breakHint(kind model.PhaseKind) string {
	if kind == model.PhaseLongBreak {
		return "Step away and stretch"
	}
	return "Look away from the screen"
}

func upNextText(next *model.Phase) string {
	if next == nil {
		return ""
	}
	return fmt.Sprintf("Up next: %s, %d min", next.Kind.Label(), next.DurationMinutes)
}

func formatDuration(value time.Duration) string {
	if value < 0 {
		value = 0
	}
	seconds := int((value + time.Second - 1) / time.Second)
	minutes := seconds / 60
	seconds = seconds % 60
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}
