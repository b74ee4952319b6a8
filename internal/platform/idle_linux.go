package platform

import (
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var mutterIdlePattern = regexp.MustCompile(`uint64\s+(\d+)`)

// idleProvider asks xprintidle on X11 and the GNOME Mutter idle monitor on Wayland.
type idleProvider struct {
	xprintidlePath string
	gdbusPath      string
	wayland        bool
}

func newIdleProvider() IdleProvider {
	provider := &idleProvider{
		wayland: strings.EqualFold(os.Getenv("XDG_SESSION_TYPE"), "wayland"),
	}
	if path, err := exec.LookPath("xprintidle"); err == nil {
		provider.xprintidlePath = path
	}
	if path, err := exec.LookPath("gdbus"); err == nil {
		provider.gdbusPath = path
	}
	if provider.xprintidlePath == "" && provider.gdbusPath == "" {
		return unsupportedIdleProvider{}
	}
	return provider
}

func (provider *idleProvider) IdleDuration() (time.Duration, error) {
	if provider.wayland && provider.gdbusPath != "" {
		return provider.mutterIdle()
	}
	if provider.xprintidlePath != "" && !provider.wayland {
		return provider.xprintIdle()
	}
	return unsupportedIdleProvider{}.IdleDuration()
}

func (provider *idleProvider) xprintIdle() (time.Duration, error) {
	output, err := exec.Command(provider.xprintidlePath).Output()
	if err != nil {
		return 0, fmt.Errorf("xprintidle: %w", err)
	}
	idleMillis, err := strconv.ParseInt(strings.TrimSpace(string(output)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse idle milliseconds: %w", err)
	}
	return millisToDuration(idleMillis), nil
}

func (provider *idleProvider) mutterIdle() (time.Duration, error) {
	output, err := exec.Command(provider.gdbusPath,
		"call", "--session",
		"--dest", "org.gnome.Mutter.IdleMonitor",
		"--object-path", "/org/gnome/Mutter/IdleMonitor/Core",
		"--method", "org.gnome.Mutter.IdleMonitor.GetIdletime",
	).Output()
	if err != nil {
		return 0, fmt.Errorf("mutter idle monitor: %w", err)
	}
	return parseMutterIdle(string(output))
}

// parseMutterIdle reads gdbus output of the form "(uint64 1234,)".
func parseMutterIdle(output string) (time.Duration, error) {
	match := mutterIdlePattern.FindStringSubmatch(output)
	if match == nil {
		return 0, fmt.Errorf("unexpected idle monitor output %q", strings.TrimSpace(output))
	}
	idleMillis, err := strconv.ParseInt(match[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse idle milliseconds: %w", err)
	}
	return millisToDuration(idleMillis), nil
}
