package notify

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/bashhack/autopush/internal/logger"
)

// DefaultTitle is the title of desktop notifications.
const DefaultTitle = "autopush"

// DesktopNotifier raises a native notification: osascript on macOS,
// notify-send on Linux. Other platforms are a no-op. A failed notification is
// logged and otherwise ignored.
type DesktopNotifier struct {
	title  string
	goos   string
	logger logger.Logger
	run    func(name string, args ...string) ([]byte, error)
}

// NewDesktopNotifier creates a DesktopNotifier for the running platform.
func NewDesktopNotifier(title string, log logger.Logger) *DesktopNotifier {
	return NewDesktopNotifierWithDeps(title, log, runtime.GOOS, runCombined)
}

// NewDesktopNotifierWithDeps creates a DesktopNotifier with custom dependencies
func NewDesktopNotifierWithDeps(
	title string,
	log logger.Logger,
	goos string,
	run func(name string, args ...string) ([]byte, error),
) *DesktopNotifier {
	if title == "" {
		title = DefaultTitle
	}
	if log == nil {
		log = logger.Nop()
	}
	return &DesktopNotifier{title: title, goos: goos, logger: log, run: run}
}

// Notice shows msg as a desktop notification.
func (d *DesktopNotifier) Notice(msg string) {
	name, args, ok := d.command(msg)
	if !ok {
		return
	}
	if out, err := d.run(name, args...); err != nil {
		d.logger.Warning("Desktop notification via %s failed: %v: %s", name, err, strings.TrimSpace(string(out)))
	}
}

func (d *DesktopNotifier) command(msg string) (string, []string, bool) {
	switch d.goos {
	case "darwin":
		script := fmt.Sprintf(`display notification "%s" with title "%s"`,
			escapeAppleScript(msg), escapeAppleScript(d.title))
		return "osascript", []string{"-e", script}, true
	case "linux", "freebsd", "openbsd", "netbsd":
		return "notify-send", []string{"--app-name", d.title, d.title, msg}, true
	default:
		return "", nil, false
	}
}

func escapeAppleScript(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return s
}

func runCombined(name string, args ...string) ([]byte, error) {
	return exec.Command(name, args...).CombinedOutput()
}
