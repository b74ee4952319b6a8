package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"pomodoro/internal/core/model"

	"gopkg.in/yaml.v3"
)

const settingsFileName = "settings.yaml"

type yamlSettings struct {
	FocusMinutes          int   `yaml:"focus_minutes"`
	BreakMinutes          int   `yaml:"break_minutes"`
	LongBreakMinutes      int   `yaml:"long_break_minutes"`
	LongBreakInterval     *int  `yaml:"long_break_interval"`
	AutoAdvance           *bool `yaml:"auto_advance"`
	IdlePause             *bool `yaml:"idle_pause"`
	IdlePauseAfterMinutes int   `yaml:"idle_pause_after_minutes"`
}

// DefaultSettingsPath returns <UserConfigDir>/<appName>/settings.yaml.
func DefaultSettingsPath(appName string) (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(configDir, appName, settingsFileName), nil
}

// SettingsPathIn returns the settings file location inside dir.
func SettingsPathIn(dir string) string {
	return filepath.Join(dir, settingsFileName)
}

// LoadSettings reads timing rules from YAML.
// If the file does not exist, default settings are returned.
func LoadSettings(configPath string) (model.Settings, error) {
	settings := model.DefaultSettings()

	rawData, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return settings, nil
		}
		return settings, fmt.Errorf("read settings file: %w", err)
	}

	var fileData yamlSettings
	if err := yaml.Unmarshal(rawData, &fileData); err != nil {
		return settings, fmt.Errorf("parse settings yaml: %w", err)
	}

	applyYamlSettings(&settings, fileData)
	return settings, nil
}

// SaveSettings writes timing rules to YAML.
func SaveSettings(configPath string, settings model.Settings) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	interval := settings.LongBreakInterval
	autoAdvance := settings.AutoAdvance
	idlePause := settings.IdlePause
	fileData := yamlSettings{
		FocusMinutes:          settings.FocusMinutes,
		BreakMinutes:          settings.BreakMinutes,
		LongBreakMinutes:      settings.LongBreakMinutes,
		LongBreakInterval:     &interval,
		AutoAdvance:           &autoAdvance,
		IdlePause:             &idlePause,
		IdlePauseAfterMinutes: int(settings.IdlePauseAfter / time.Minute),
	}

	serialized, err := yaml.Marshal(fileData)
	if err != nil {
		return fmt.Errorf("marshal settings yaml: %w", err)
	}

	if err := os.WriteFile(configPath, serialized, 0o644); err != nil {
		return fmt.Errorf("write settings file: %w", err)
	}

	return nil
}

func applyYamlSettings(settings *model.Settings, fileData yamlSettings) {
	if validMinutes(fileData.FocusMinutes) {
		settings.FocusMinutes = fileData.FocusMinutes
	}
	if validMinutes(fileData.BreakMinutes) {
		settings.BreakMinutes = fileData.BreakMinutes
	}
	if validMinutes(fileData.LongBreakMinutes) {
		settings.LongBreakMinutes = fileData.LongBreakMinutes
	}
	// Zero or negative disables long breaks, so only a missing key keeps the default.
	if fileData.LongBreakInterval != nil {
		settings.LongBreakInterval = *fileData.LongBreakInterval
	}
	if fileData.IdlePauseAfterMinutes > 0 {
		settings.IdlePauseAfter = time.Duration(fileData.IdlePauseAfterMinutes) * time.Minute
	}
	if fileData.AutoAdvance != nil {
		settings.AutoAdvance = *fileData.AutoAdvance
	}
	if fileData.IdlePause != nil {
		settings.IdlePause = *fileData.IdlePause
	}
}

func validMinutes(minutes int) bool {
	return minutes >= model.MinSessionMinutes && minutes <= model.MaxSessionMinutes
}
