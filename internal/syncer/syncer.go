package syncer

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	autopushErrors "github.com/bashhack/autopush/internal/errors"
	"github.com/bashhack/autopush/internal/git"
	"github.com/bashhack/autopush/internal/logger"
	"github.com/bashhack/autopush/internal/notify"
	"github.com/bashhack/autopush/internal/scheduler"
	"github.com/bashhack/autopush/internal/settings"
)

// Committer runs one verify, stage, commit, push cycle.
type Committer interface {
	RunCycle(ctx context.Context) (git.CycleResult, error)
}

// CommitterFactory builds a Committer for a resolved vault directory.
type CommitterFactory func(vaultPath string) (Committer, error)

// SettingsStore persists the settings blob.
type SettingsStore interface {
	Load() (settings.Settings, error)
	Save(settings.Settings) error
}

// Options contains the collaborators of a Syncer.
type Options struct {
	Vault        VaultResolver
	Store        SettingsStore
	Notifier     notify.Notifier
	Logger       logger.Logger
	NewCommitter CommitterFactory

	// GitBin is passed to the default CommitterFactory.
	GitBin string

	// NotifySuccess adds a notice after every successful cycle.
	NotifySuccess bool

	// Optional; tests use these to control time and identifiers.
	NewTicker scheduler.TickerFactory
	NewID     func() string
}

// Outcome describes the last cycle the Syncer ran.
type Outcome struct {
	ID       string
	Started  time.Time
	Result   git.CycleResult
	Err      error
	Notice   string
	Finished bool
}

// Syncer is the auto commit plugin body.
type Syncer struct {
	vault         VaultResolver
	store         SettingsStore
	notifier      notify.Notifier
	logger        logger.Logger
	newCommitter  CommitterFactory
	notifySuccess bool
	newID         func() string
	sched         *scheduler.Scheduler

	mu       sync.RWMutex
	settings settings.Settings
	last     Outcome
}

// New creates a Syncer. Vault and Store are required.
func New(opts Options) (*Syncer, error) {
	if opts.Vault == nil {
		return nil, autopushErrors.NewConfigError("vault", nil, autopushErrors.ErrInvalidConfiguration)
	}
	if opts.Store == nil {
		return nil, autopushErrors.NewConfigError("settings store", nil, autopushErrors.ErrInvalidConfiguration)
	}

	s := &Syncer{
		vault:         opts.Vault,
		store:         opts.Store,
		notifier:      opts.Notifier,
		logger:        opts.Logger,
		newCommitter:  opts.NewCommitter,
		notifySuccess: opts.NotifySuccess,
		newID:         opts.NewID,
		settings:      settings.Default(),
	}
	if s.notifier == nil {
		s.notifier = notify.NotifierFunc(func(string) {})
	}
	if s.logger == nil {
		s.logger = logger.Nop()
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	if s.newCommitter == nil {
		gitBin, log := opts.GitBin, s.logger
		s.newCommitter = func(vaultPath string) (Committer, error) {
			return git.NewCommitter(git.CommitterConfig{VaultPath: vaultPath, GitBin: gitBin}, log)
		}
	}

	s.sched = scheduler.NewWithTicker(s.intervalMinutes, s.runCycle, s.notifier, s.logger, opts.NewTicker)
	return s, nil
}

// OnLoad loads settings, starts the timer and runs one cycle immediately.
func (s *Syncer) OnLoad(ctx context.Context) error {
	loaded, err := s.store.Load()
	if err != nil {
		s.logger.Warning("Using default settings: %v", err)
	}
	s.setSettings(loaded)

	if err := s.sched.Start(ctx); err != nil {
		return err
	}

	s.RunCycle(ctx)
	return nil
}

// OnUnload stops the timer. A running cycle is left to finish.
func (s *Syncer) OnUnload() {
	s.sched.Stop()
	s.sched.Wait()
}

// RunCycle runs one cycle unless one is already running, in which case the
// already-running notice is shown instead.
func (s *Syncer) RunCycle(ctx context.Context) scheduler.TriggerOutcome {
	return s.sched.Trigger(ctx)
}

// SetInterval applies a raw value from the interval field: it is parsed,
// coerced to a finite number no less than 0, persisted, and the timer is
// rescheduled right away. The returned error only reports persistence
// failures; the new interval is in effect either way.
func (s *Syncer) SetInterval(raw string) (float64, error) {
	minutes := settings.ParseInterval(raw)

	s.mu.Lock()
	s.settings.IntervalMinutes = minutes
	current := s.settings
	s.mu.Unlock()

	var saveErr error
	if err := s.store.Save(current); err != nil {
		s.logger.Error("Failed to save settings: %v", err)
		saveErr = autopushErrors.Wrap(err, "save settings")
	}

	s.sched.Reschedule()
	return minutes, saveErr
}

// ApplySettings adopts settings loaded from elsewhere, such as an edit to
// the settings file, and reschedules when the interval changed.
func (s *Syncer) ApplySettings(next settings.Settings) {
	s.mu.Lock()
	changed := s.settings.IntervalMinutes != next.IntervalMinutes
	s.settings = next
	s.mu.Unlock()

	if changed {
		s.logger.Info("Interval changed to %v minutes", next.IntervalMinutes)
		s.sched.Reschedule()
	}
}

// Settings returns the settings currently in effect.
func (s *Syncer) Settings() settings.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// Busy reports whether a cycle is running.
func (s *Syncer) Busy() bool {
	return s.sched.Busy()
}

// Period returns the active timer period, or false when the timer is off.
func (s *Syncer) Period() (time.Duration, bool) {
	return s.sched.Period()
}

// LastOutcome returns what the most recent cycle did.
func (s *Syncer) LastOutcome() Outcome {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

func (s *Syncer) setSettings(next settings.Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = next
}

func (s *Syncer) intervalMinutes() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings.IntervalMinutes
}

// runCycle is the body admitted by the scheduler. It owns no flag state.
func (s *Syncer) runCycle(ctx context.Context) {
	out := Outcome{ID: s.newID(), Started: time.Now()}
	defer func() {
		out.Finished = true
		s.mu.Lock()
		s.last = out
		s.mu.Unlock()
	}()

	base, ok := s.vault.BasePath()
	if !ok {
		out.Err = autopushErrors.ErrNoVault
		out.Notice = notify.MsgDesktopOnly
		s.logger.Diagnostic("auto commit cycle skipped", "cycle", out.ID, "error", out.Err.Error())
		s.notifier.Notice(out.Notice)
		return
	}

	committer, err := s.newCommitter(base)
	if err == nil {
		out.Result, err = committer.RunCycle(ctx)
	}
	if err != nil {
		out.Err = err
		out.Notice = notify.MsgFailedPrefix + git.Truncate(git.Diagnostic(err), git.NoticeLimit)
		step := string(out.Result.FailedStep)
		if step == "" {
			step = "setup"
		}
		// Full detail goes to the log file only; the user sees the truncated notice.
		s.logger.Diagnostic("auto commit cycle failed", "cycle", out.ID, "step", step, "error", err.Error())
		s.notifier.Notice(out.Notice)
		return
	}

	s.logger.Info("Auto commit cycle %s finished in %s (committed=%t)", out.ID, out.Result.Duration, out.Result.Committed)
	if s.notifySuccess {
		out.Notice = notify.MsgPushed
		s.notifier.Notice(out.Notice)
	}
}
