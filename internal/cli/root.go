package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const appName = "pomodoro"

var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersionInfo sets the version information injected via ldflags.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

// config holds flag and environment values (POMODORO_DATA_DIR, POMODORO_LOG_LEVEL).
var config = viper.New()

var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "Queue-driven focus timer",
	Long: `pomodoro cycles you through focus and break phases while working
through a queue of planned sessions.

Run without a subcommand to open the desktop timer. Use the queue, intent
and settings commands to manage data from the terminal, and "run" for a
terminal countdown.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger(cmd.ErrOrStderr(), config.GetString("log_level"))
		if err != nil {
			return err
		}
		slog.SetDefault(logger)
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGUI(cmd.Context())
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\ncommit: %s\nbuilt:  %s\n", appName, appVersion, appCommit, appDate)
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("data-dir", "", "directory for the database and settings (default <user config dir>/pomodoro)")
	flags.String("log-level", "info", "log level: debug, info, warn, error")
	_ = config.BindPFlag("data_dir", flags.Lookup("data-dir"))
	_ = config.BindPFlag("log_level", flags.Lookup("log-level"))
	config.SetEnvPrefix("POMODORO")
	config.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	config.AutomaticEnv()

	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func newLogger(out io.Writer, level string) (*slog.Logger, error) {
	var slogLevel slog.Level
	if err := slogLevel.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: slogLevel})), nil
}

// dataDir resolves the data directory from flags, environment or the user config dir.
func dataDir() (string, error) {
	if dir := strings.TrimSpace(config.GetString("data_dir")); dir != "" {
		return dir, nil
	}
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(configDir, appName), nil
}
