// Package notify shows short user-facing notices about commit cycles.
package notify

import (
	"sync"

	"github.com/bashhack/autopush/internal/logger"
)

// Notice texts shown by the commit cycle.
const (
	MsgAlreadyRunning = "Auto commit already running."
	MsgDesktopOnly    = "Auto commit is available on desktop only."
	MsgFailedPrefix   = "Auto commit failed: "
	MsgPushed         = "Auto commit pushed."
)

// Notifier displays a notice to the user.
type Notifier interface {
	Notice(msg string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(msg string)

// Notice calls f(msg).
func (f NotifierFunc) Notice(msg string) { f(msg) }

// Multi fans a notice out to every non-nil notifier in order.
func Multi(notifiers ...Notifier) Notifier {
	var list []Notifier
	for _, n := range notifiers {
		if n != nil {
			list = append(list, n)
		}
	}
	return multi(list)
}

type multi []Notifier

func (m multi) Notice(msg string) {
	for _, n := range m {
		n.Notice(msg)
	}
}

// ConsoleNotifier writes notices to the logger's user channel.
type ConsoleNotifier struct {
	logger logger.Logger
}

// NewConsoleNotifier creates a ConsoleNotifier.
func NewConsoleNotifier(log logger.Logger) *ConsoleNotifier {
	if log == nil {
		log = logger.Nop()
	}
	return &ConsoleNotifier{logger: log}
}

// Notice prints msg.
func (c *ConsoleNotifier) Notice(msg string) {
	c.logger.StatusMessage("%s", msg)
}

// Recorder keeps every notice in memory.
type Recorder struct {
	mu       sync.Mutex
	messages []string
}

// Notice records msg.
func (r *Recorder) Notice(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
}

// Messages returns a copy of the recorded notices.
func (r *Recorder) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.messages))
	copy(out, r.messages)
	return out
}

// Reset drops recorded notices.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = nil
}
