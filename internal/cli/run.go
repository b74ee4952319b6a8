package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"pomodoro/internal/core/model"
	"pomodoro/internal/core/timekeeper"
	"pomodoro/internal/storage"
	"pomodoro/internal/ui/timer"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var runPaused bool

var runCmd = &cobra.Command{
	Use:   "run [queue]",
	Short: "Run the timer in the terminal",
	Long: `Run the focus timer in the terminal. With a queue argument the queue is
started from its first session; without one the last active queue (if any)
is resumed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := dataDir()
		if err != nil {
			return err
		}
		closeLog, err := logToFile(filepath.Join(dir, "pomodoro.log"))
		if err != nil {
			return err
		}
		defer closeLog()

		env, err := openEnvironment()
		if err != nil {
			return err
		}
		defer env.Close()

		settings, err := env.settings()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		keeper := env.keeper(ctx, settings)
		defer keeper.Close()

		if len(args) == 1 {
			selected, err := storedQueue(ctx, env.store, args[0])
			if err != nil {
				return err
			}
			if err := keeper.StartQueue(selected); err != nil {
				return err
			}
		} else if !runPaused {
			keeper.Start()
		}

		events := keeper.Subscribe(32)
		go keeper.Run(ctx)

		program := tea.NewProgram(newRunModel(keeper, events, cmd.ErrOrStderr()), tea.WithAltScreen(), tea.WithContext(ctx))
		_, err = program.Run()
		return err
	},
}

func init() {
	runCmd.Flags().BoolVar(&runPaused, "paused", false, "do not start the countdown until space is pressed")
	rootCmd.AddCommand(runCmd)
}

// storedQueue reads a queue straight from the store by id, then by name.
func storedQueue(ctx context.Context, store *storage.SQLiteStore, ref string) (model.Queue, error) {
	found, err := store.GetQueue(ctx, ref)
	if err == nil || !errors.Is(err, model.ErrQueueNotFound) {
		return found, err
	}
	queues, err := store.ListQueues(ctx)
	if err != nil {
		return model.Queue{}, err
	}
	for _, candidate := range queues {
		if candidate.Name == ref {
			return candidate, nil
		}
	}
	return model.Queue{}, fmt.Errorf("%w: %q", model.ErrQueueNotFound, ref)
}

// logToFile points the default logger at path so log lines do not tear the TUI.
func logToFile(path string) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	previous := slog.Default()
	logger, err := newLogger(file, config.GetString("log_level"))
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	slog.SetDefault(logger)
	return func() {
		slog.SetDefault(previous)
		_ = file.Close()
	}, nil
}

// runKeys are the terminal timer key bindings.
type runKeys struct {
	Toggle  key.Binding
	Restart key.Binding
	Next    key.Binding
	Stop    key.Binding
	Quit    key.Binding
}

func defaultRunKeys() runKeys {
	return runKeys{
		Toggle: key.NewBinding(
			key.WithKeys(" ", "p"),
			key.WithHelp("space", "start/pause"),
		),
		Restart: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "restart"),
		),
		Next: key.NewBinding(
			key.WithKeys("n", "tab"),
			key.WithHelp("n", "next phase"),
		),
		Stop: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "stop queue"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (keys runKeys) ShortHelp() []key.Binding {
	return []key.Binding{keys.Toggle, keys.Restart, keys.Next, keys.Stop, keys.Quit}
}

func (keys runKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{keys.ShortHelp()}
}

// timerController is the subset of TimeKeeper the terminal timer drives.
type timerController interface {
	Snapshot() timekeeper.Snapshot
	Toggle()
	Restart()
	Next(manual bool)
	StopQueue()
}

// keeperEventMsg wraps one TimeKeeper event; closed reports the stream ended.
type keeperEventMsg struct {
	event  timekeeper.Event
	closed bool
}

type runModel struct {
	keeper   timerController
	events   <-chan timekeeper.Event
	bell     io.Writer
	snapshot timekeeper.Snapshot
	progress progress.Model
	help     help.Model
	keys     runKeys
	notice   string
	width    int
}

var (
	focusTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("167")).
			Padding(0, 1)

	breakTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("71")).
			Padding(0, 1)

	clockStyle = lipgloss.NewStyle().
			Bold(true).
			MarginTop(1).
			MarginBottom(1)

	queueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	frameStyle  = lipgloss.NewStyle().Padding(1, 2)
)

func newRunModel(keeper timerController, events <-chan timekeeper.Event, bell io.Writer) runModel {
	return runModel{
		keeper:   keeper,
		events:   events,
		bell:     bell,
		snapshot: keeper.Snapshot(),
		progress: progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		help:     help.New(),
		keys:     defaultRunKeys(),
	}
}

func (m runModel) Init() tea.Cmd {
	return waitForEvent(m.events)
}

func waitForEvent(events <-chan timekeeper.Event) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-events
		return keeperEventMsg{event: event, closed: !ok}
	}
}

func ringBell(out io.Writer) tea.Cmd {
	if out == nil {
		return nil
	}
	return func() tea.Msg {
		_, _ = io.WriteString(out, "\a")
		return nil
	}
}

func (m runModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Toggle):
			m.keeper.Toggle()
		case key.Matches(msg, m.keys.Restart):
			m.keeper.Restart()
		case key.Matches(msg, m.keys.Next):
			m.keeper.Next(true)
		case key.Matches(msg, m.keys.Stop):
			m.keeper.StopQueue()
			m.notice = "Queue stopped"
		}
		m.snapshot = m.keeper.Snapshot()
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progress.Width = max(msg.Width-8, 10)
		m.help.Width = msg.Width
		return m, nil

	case keeperEventMsg:
		if msg.closed {
			return m, tea.Quit
		}
		m.snapshot = m.keeper.Snapshot()
		cmds := []tea.Cmd{waitForEvent(m.events)}
		switch msg.event.Type {
		case timekeeper.EventPhaseComplete:
			if complete := msg.event.Complete; complete != nil {
				m.notice = fmt.Sprintf("%s finished", complete.Phase.Kind.Label())
				if complete.Manual {
					m.notice = fmt.Sprintf("%s skipped", complete.Phase.Kind.Label())
				}
			}
			cmds = append(cmds, ringBell(m.bell))
		case timekeeper.EventIdlePause:
			m.notice = "Paused while you were away"
		case timekeeper.EventPersistenceError, timekeeper.EventIdleError:
			m.notice = "error: " + msg.event.Message
		case timekeeper.EventQueueChanged:
			m.notice = ""
		}
		return m, tea.Batch(cmds...)
	}
	return m, nil
}

func (m runModel) View() string {
	view := timer.Describe(m.snapshot)

	titleStyle := focusTitleStyle
	if view.InBreak {
		titleStyle = breakTitleStyle
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(view.Phase))
	b.WriteString("\n")
	b.WriteString(clockStyle.Render(view.Clock))
	b.WriteString("\n")
	b.WriteString(m.progress.ViewAs(view.Progress))
	b.WriteString("\n\n")
	b.WriteString(queueStyle.Render(view.Queue))
	b.WriteString("\n")
	if m.notice != "" {
		style := noticeStyle
		if strings.HasPrefix(m.notice, "error:") {
			style = errorStyle
		}
		b.WriteString("\n")
		b.WriteString(style.Render(m.notice))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return frameStyle.Render(b.String())
}
