package cli

import (
	"fmt"
	"io"
	"time"

	"pomodoro/internal/core/model"
	"pomodoro/internal/storage"

	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change timing settings",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := dataDir()
		if err != nil {
			return err
		}
		path := storage.SettingsPathIn(dir)
		settings, err := storage.LoadSettings(path)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "# %s\n", path)
		printSettings(cmd.OutOrStdout(), settings)
		return nil
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change settings; only the given flags are updated",
	Example: `  pomodoro settings set --focus 50 --break 10
  pomodoro settings set --long-break-interval 0   # no long breaks`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := dataDir()
		if err != nil {
			return err
		}
		path := storage.SettingsPathIn(dir)
		settings, err := storage.LoadSettings(path)
		if err != nil {
			return err
		}
		updated, err := applySettingFlags(cmd, settings)
		if err != nil {
			return err
		}
		if err := storage.SaveSettings(path, updated); err != nil {
			return err
		}
		printSettings(cmd.OutOrStdout(), updated)
		return nil
	},
}

func init() {
	flags := settingsSetCmd.Flags()
	flags.Int("focus", 0, "focus minutes when no queue is active (1-90)")
	flags.Int("break", 0, "break minutes (1-90)")
	flags.Int("long-break", 0, "long break minutes (1-90)")
	flags.Int("long-break-interval", 0, "long break after every N focus phases; 0 disables")
	flags.Bool("auto-advance", true, "start the next phase automatically")
	flags.Bool("idle-pause", false, "pause focus while the user is away")
	flags.Duration("idle-pause-after", 0, "inactivity before idle pause, e.g. 5m")

	settingsCmd.AddCommand(settingsShowCmd, settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}

func applySettingFlags(cmd *cobra.Command, settings model.Settings) (model.Settings, error) {
	flags := cmd.Flags()
	minutes := []struct {
		name   string
		target *int
	}{
		{"focus", &settings.FocusMinutes},
		{"break", &settings.BreakMinutes},
		{"long-break", &settings.LongBreakMinutes},
	}
	for _, field := range minutes {
		if !flags.Changed(field.name) {
			continue
		}
		value, _ := flags.GetInt(field.name)
		if value < model.MinSessionMinutes || value > model.MaxSessionMinutes {
			return settings, fmt.Errorf("--%s: %w: %d", field.name, model.ErrInvalidDuration, value)
		}
		*field.target = value
	}
	if flags.Changed("long-break-interval") {
		value, _ := flags.GetInt("long-break-interval")
		if value < 0 {
			return settings, fmt.Errorf("--long-break-interval must be >= 0, got %d", value)
		}
		settings.LongBreakInterval = value
	}
	if flags.Changed("auto-advance") {
		settings.AutoAdvance, _ = flags.GetBool("auto-advance")
	}
	if flags.Changed("idle-pause") {
		settings.IdlePause, _ = flags.GetBool("idle-pause")
	}
	if flags.Changed("idle-pause-after") {
		value, _ := flags.GetDuration("idle-pause-after")
		if value < time.Minute {
			return settings, fmt.Errorf("--idle-pause-after must be at least 1m, got %s", value)
		}
		settings.IdlePauseAfter = value.Truncate(time.Minute)
	}
	return settings, nil
}

func printSettings(out io.Writer, settings model.Settings) {
	fmt.Fprintf(out, "focus:               %d min\n", settings.FocusMinutes)
	fmt.Fprintf(out, "break:               %d min\n", settings.BreakMinutes)
	fmt.Fprintf(out, "long break:          %d min\n", settings.LongBreakMinutes)
	if settings.LongBreakInterval > 0 {
		fmt.Fprintf(out, "long break interval: every %d focus phases\n", settings.LongBreakInterval)
	} else {
		fmt.Fprintln(out, "long break interval: off")
	}
	fmt.Fprintf(out, "auto advance:        %t\n", settings.AutoAdvance)
	fmt.Fprintf(out, "idle pause:          %t (after %s)\n", settings.IdlePause, settings.IdlePauseAfter)
}
