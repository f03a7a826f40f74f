package settings

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	autopushErrors "github.com/bashhack/autopush/internal/errors"
	"github.com/bashhack/autopush/internal/logger"
)

const defaultDebounce = 300 * time.Millisecond

// Watcher reloads the settings file whenever it changes on disk and hands
// the result to onChange. Bursts of events collapse into one reload.
type Watcher struct {
	store    *Store
	logger   logger.Logger
	onChange func(Settings)

	mu       sync.Mutex
	debounce time.Duration
	timer    *time.Timer
}

// NewWatcher creates a Watcher for store.
func NewWatcher(store *Store, log logger.Logger, onChange func(Settings)) *Watcher {
	if log == nil {
		log = logger.Nop()
	}
	return &Watcher{
		store:    store,
		logger:   log,
		onChange: onChange,
		debounce: defaultDebounce,
	}
}

// SetDebounce overrides the quiet period before a reload.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if d > 0 {
		w.debounce = d
	}
}

// Run watches the settings directory until ctx is done. The directory is
// watched rather than the file so that atomic renames are observed.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return autopushErrors.Wrap(err, "create fsnotify watcher")
	}
	defer func() { _ = fw.Close() }()

	dir := filepath.Dir(w.store.Path())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return autopushErrors.Wrapf(err, "ensure dir %s", dir)
	}
	if err := fw.Add(dir); err != nil {
		return autopushErrors.Wrapf(err, "watch %s", dir)
	}

	target := filepath.Clean(w.store.Path())
	w.logger.Info("Watching settings file %s", target)

	for {
		select {
		case <-ctx.Done():
			w.stopTimer()
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
				w.schedule()
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warning("Settings watcher error: %v", err)
		}
	}
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.reload)
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}

func (w *Watcher) reload() {
	s, err := w.store.Load()
	if err != nil {
		w.logger.Warning("Ignoring settings change: %v", err)
		return
	}
	w.logger.Info("Settings reloaded: intervalMinutes=%v", s.IntervalMinutes)
	if w.onChange != nil {
		w.onChange(s)
	}
}
