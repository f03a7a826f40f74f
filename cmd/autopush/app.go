package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bashhack/autopush/internal/config"
	autopushErrors "github.com/bashhack/autopush/internal/errors"
	"github.com/bashhack/autopush/internal/git"
	"github.com/bashhack/autopush/internal/lock"
	"github.com/bashhack/autopush/internal/logger"
	"github.com/bashhack/autopush/internal/notify"
	"github.com/bashhack/autopush/internal/repo"
	"github.com/bashhack/autopush/internal/scheduler"
	"github.com/bashhack/autopush/internal/settings"
	"github.com/bashhack/autopush/internal/syncer"
)

// Commands understood after the flags.
const (
	cmdDaemon      = ""
	cmdOnce        = "once"
	cmdSetInterval = "set-interval"
	cmdStatus      = "status"
)

// Syncer drives commit cycles for one vault.
type Syncer interface {
	OnLoad(ctx context.Context) error
	OnUnload()
	RunCycle(ctx context.Context) scheduler.TriggerOutcome
	SetInterval(raw string) (float64, error)
	ApplySettings(s settings.Settings)
	Settings() settings.Settings
	Period() (time.Duration, bool)
	LastOutcome() syncer.Outcome
}

// Locker manages file locking
type Locker interface {
	Acquire() error
	Release() error
}

// SettingsWatcher reloads the settings file while the daemon runs.
type SettingsWatcher interface {
	Run(ctx context.Context) error
}

// AppOptions contains app configuration and dependencies.
// Nil optional fields are filled in by Initialize.
type AppOptions struct {
	// Config holds the application configuration settings (required).
	Config *config.Config

	Logger   logger.Logger
	Locker   Locker
	Syncer   Syncer
	Store    *settings.Store
	Notifier notify.Notifier

	// Watcher is the settings file watcher; NewWatcher builds one on demand.
	Watcher SettingsWatcher

	Stdout io.Writer
	Stderr io.Writer

	// Exit is the function to terminate the application (defaults to os.Exit).
	Exit func(code int)

	// IsRepository checks if a path is a git working tree (defaults to git.IsRepository with Config.GitBin).
	IsRepository func(string) (bool, error)

	// Inspect describes the vault repository (defaults to repo.Inspect).
	Inspect func(string) (repo.Info, error)

	// Triggers delivers on-demand cycle requests (defaults to SIGUSR1).
	Triggers func() (<-chan struct{}, func())
}

// App is the main autopush application.
type App struct {
	Config   *config.Config
	Logger   logger.Logger
	Locker   Locker
	Syncer   Syncer
	Store    *settings.Store
	Notifier notify.Notifier
	Watcher  SettingsWatcher

	Stdout io.Writer
	Stderr io.Writer

	exit         func(code int)
	isRepository func(string) (bool, error)
	inspect      func(string) (repo.Info, error)
	triggers     func() (<-chan struct{}, func())
}

// NewDefaultApp creates an App with standard dependencies, reading the
// environment and config file.
func NewDefaultApp(versionInfo config.VersionInfo) (*App, error) {
	cfg := config.New()
	cfg.VersionInfo = versionInfo
	if err := cfg.LoadFromEnvironment(); err != nil {
		return nil, err
	}

	return NewApp(AppOptions{
		Config: cfg,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Exit:   os.Exit,
	}), nil
}

// NewApp creates an App with custom dependencies specified in opts.
// It panics if opts.Config is nil.
func NewApp(opts AppOptions) *App {
	if opts.Config == nil {
		panic("Config is required in AppOptions")
	}

	app := &App{
		Config:       opts.Config,
		Logger:       opts.Logger,
		Locker:       opts.Locker,
		Syncer:       opts.Syncer,
		Store:        opts.Store,
		Notifier:     opts.Notifier,
		Watcher:      opts.Watcher,
		Stdout:       opts.Stdout,
		Stderr:       opts.Stderr,
		exit:         opts.Exit,
		isRepository: opts.IsRepository,
		inspect:      opts.Inspect,
		triggers:     opts.Triggers,
	}

	if app.Stdout == nil {
		app.Stdout = os.Stdout
	}
	if app.Stderr == nil {
		app.Stderr = os.Stderr
	}
	if app.exit == nil {
		app.exit = os.Exit
	}
	if app.isRepository == nil {
		// Bound late: Finalize may still resolve Config.GitBin.
		app.isRepository = func(path string) (bool, error) {
			return git.IsRepository(app.Config.GitBin, path)
		}
	}
	if app.inspect == nil {
		app.inspect = repo.Inspect
	}
	if app.triggers == nil {
		app.triggers = signalTriggers
	}

	return app
}

// Initialize sets up components not provided during construction
func (a *App) Initialize() error {
	if err := a.Config.Finalize(); err != nil {
		if autopushErrors.Is(err, autopushErrors.ErrInvalidConfiguration) {
			return err
		}
		return autopushErrors.Wrap(autopushErrors.ErrInvalidConfiguration, err.Error())
	}

	if a.Logger == nil {
		l := logger.New(a.Config.Debug, a.Config.LogFile, a.Config.Verbose)
		l.SetStdout(a.Stdout)
		l.SetStderr(a.Stderr)
		a.Logger = l
	}

	if a.Store == nil {
		a.Store = settings.NewStore(a.Config.SettingsFile)
	}

	if a.Notifier == nil {
		var desktop notify.Notifier
		if a.Config.DesktopNotify {
			desktop = notify.NewDesktopNotifier(notify.DefaultTitle, a.Logger)
		}
		a.Notifier = notify.Multi(notify.NewConsoleNotifier(a.Logger), desktop)
	}

	if a.Syncer == nil {
		s, err := syncer.New(syncer.Options{
			Vault:         syncer.DirVault{Path: a.Config.VaultPath},
			Store:         a.Store,
			Notifier:      a.Notifier,
			Logger:        a.Logger,
			GitBin:        a.Config.GitBin,
			NotifySuccess: a.Config.NotifySuccess,
		})
		if err != nil {
			return fmt.Errorf("failed to create syncer: %w", err)
		}
		a.Syncer = s
	}

	return nil
}

// Run executes the command selected by the parsed arguments.
func (a *App) Run(ctx context.Context) error {
	if a.Config.Version {
		a.ShowVersion()
		return nil
	}

	if a.Config.ShowHelp {
		a.ShowHelp()
		return nil
	}

	if err := a.Initialize(); err != nil {
		return err
	}

	defer func() {
		if err := a.Close(); err != nil {
			_, _ = fmt.Fprintf(a.Stderr, "❌ Error during cleanup: %v\n", err)
		}
	}()

	command, operands := cmdDaemon, []string(nil)
	if len(a.Config.Args) > 0 {
		command, operands = a.Config.Args[0], a.Config.Args[1:]
	}

	switch command {
	case cmdDaemon:
		return a.runDaemon(ctx)
	case cmdOnce:
		return a.runOnce(ctx)
	case cmdSetInterval:
		if len(operands) != 1 {
			return autopushErrors.NewConfigError(cmdSetInterval, strings.Join(operands, " "),
				autopushErrors.Wrap(autopushErrors.ErrInvalidFlag, "expected exactly one argument: <minutes>"))
		}
		return a.runSetInterval(operands[0])
	case cmdStatus:
		return a.runStatus()
	default:
		return autopushErrors.NewConfigError("command", command,
			autopushErrors.Wrap(autopushErrors.ErrInvalidFlag, "unknown command"))
	}
}

// runDaemon runs one cycle immediately and then keeps the timer, the
// settings watcher and the trigger signal going until ctx is done.
func (a *App) runDaemon(ctx context.Context) error {
	if err := a.acquireLock(); err != nil {
		return err
	}

	a.checkRepository()
	a.printBanner()

	if a.Watcher == nil {
		w := settings.NewWatcher(a.Store, a.Logger, a.Syncer.ApplySettings)
		a.Watcher = w
	}

	triggers, stopTriggers := a.triggers()
	defer stopTriggers()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := a.Syncer.OnLoad(gctx); err != nil {
			return err
		}
		<-gctx.Done()
		a.Syncer.OnUnload()
		return nil
	})

	g.Go(func() error {
		if err := a.Watcher.Run(gctx); err != nil {
			// The daemon keeps working with the settings it already has.
			a.Logger.WarningToUser("Settings file watcher stopped: %v", err)
		}
		return nil
	})

	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case _, ok := <-triggers:
				if !ok {
					return nil
				}
				a.Logger.Info("Cycle requested on demand")
				g.Go(func() error {
					a.Syncer.RunCycle(gctx)
					return nil
				})
			}
		}
	})

	if err := g.Wait(); err != nil {
		return err
	}
	a.Logger.InfoToUser("autopush stopped")
	return nil
}

// runOnce runs a single cycle. A failed cycle makes the command fail.
func (a *App) runOnce(ctx context.Context) error {
	if err := a.acquireLock(); err != nil {
		return err
	}

	if a.Syncer.RunCycle(ctx) == scheduler.Skipped {
		return autopushErrors.ErrCycleInProgress
	}

	out := a.Syncer.LastOutcome()
	if out.Err != nil {
		return autopushErrors.Wrapf(out.Err, "auto commit cycle %s failed", out.ID)
	}

	if out.Result.Committed {
		a.Logger.Success("Committed and pushed: %s", out.Result.Message)
	} else {
		a.Logger.Success("Nothing new to commit; pushed")
	}
	return nil
}

// runSetInterval applies the interval field rules and persists the result.
// A running daemon picks the change up through its settings watcher.
func (a *App) runSetInterval(raw string) error {
	if current, err := a.Store.Load(); err == nil {
		a.Syncer.ApplySettings(current)
	}

	minutes, err := a.Syncer.SetInterval(raw)
	if err != nil {
		return err
	}

	if period, ok := scheduler.Period(minutes); ok {
		a.Logger.Success("Interval set to %v minutes (every %s)", minutes, period)
	} else {
		a.Logger.Success("Interval set to 0; the timer is disabled")
	}
	return nil
}

// runStatus prints what autopush knows about the vault.
func (a *App) runStatus() error {
	s, err := a.Store.Load()
	if err != nil {
		a.Logger.WarningToUser("Settings file unreadable, showing defaults: %v", err)
	}

	a.Logger.StatusMessage("Vault:     %s", a.Config.VaultPath)
	a.Logger.StatusMessage("Settings:  %s", a.Config.SettingsFile)
	if period, ok := scheduler.Period(s.IntervalMinutes); ok {
		a.Logger.StatusMessage("Interval:  %v minutes (every %s)", s.IntervalMinutes, period)
	} else {
		a.Logger.StatusMessage("Interval:  %v (timer disabled)", s.IntervalMinutes)
	}

	info, err := a.inspect(a.Config.VaultPath)
	if err != nil {
		a.Logger.StatusMessage("Repository: unavailable (%v)", err)
	} else {
		a.Logger.StatusMessage("Repository: %s", info.Root)
		a.Logger.StatusMessage("Branch:    %s", describeHead(info))
		if info.Clean {
			a.Logger.StatusMessage("Worktree:  clean")
		} else {
			a.Logger.StatusMessage("Worktree:  %d changed path(s)", info.Changes)
		}
		if len(info.Remotes) == 0 {
			a.Logger.StatusMessage("Remotes:   none (push will fail)")
		} else {
			a.Logger.StatusMessage("Remotes:   %s", strings.Join(info.Remotes, ", "))
		}
	}

	a.Logger.StatusMessage("Daemon:    %s", a.daemonState())
	return nil
}

// daemonState tries the lock without keeping it.
func (a *App) daemonState() string {
	if a.Locker == nil {
		locker, err := lock.New(a.Config.VaultPath)
		if err != nil {
			return "unknown"
		}
		a.Locker = locker
	}

	err := a.Locker.Acquire()
	if err == nil {
		_ = a.Locker.Release()
		return "not running"
	}

	var lockErr *autopushErrors.LockError
	if autopushErrors.Is(err, autopushErrors.ErrAlreadyRunning) && autopushErrors.As(err, &lockErr) && lockErr.PID > 0 {
		return fmt.Sprintf("running (PID %d)", lockErr.PID)
	}
	if autopushErrors.Is(err, autopushErrors.ErrAlreadyRunning) {
		return "running"
	}
	return fmt.Sprintf("unknown (%v)", err)
}

func (a *App) acquireLock() error {
	if a.Locker == nil {
		locker, err := lock.New(a.Config.VaultPath)
		if err != nil {
			return autopushErrors.Wrap(err, "failed to initialize lock")
		}
		a.Locker = locker
	}

	if err := a.Locker.Acquire(); err != nil {
		if autopushErrors.Is(err, autopushErrors.ErrAlreadyRunning) {
			return err
		}
		return autopushErrors.Wrap(autopushErrors.ErrLockAcquisitionFailure, err.Error())
	}

	if l, ok := a.Locker.(*lock.Locker); ok && l.StalePID() > 0 {
		a.Logger.Warning("Took over lock left by PID %d", l.StalePID())
	}
	return nil
}

// checkRepository warns when the vault is not a git working tree yet. Each
// cycle reports the same problem, so this is not fatal.
func (a *App) checkRepository() {
	isRepo, err := a.isRepository(a.Config.VaultPath)
	switch {
	case err != nil:
		a.Logger.Warning("Failed to check if vault is a git repository: %v", err)
	case !isRepo:
		a.Logger.WarningToUser("%s is not a git repository; cycles will fail until it is", a.Config.VaultPath)
	default:
		a.Logger.Info("Git repository verified")
	}
}

func (a *App) printBanner() {
	s := a.Syncer.Settings()
	if loaded, err := a.Store.Load(); err == nil {
		s = loaded
	}

	interval := "timer disabled"
	if period, ok := scheduler.Period(s.IntervalMinutes); ok {
		interval = "every " + period.String()
	}

	if info, err := a.inspect(a.Config.VaultPath); err == nil {
		a.Logger.InfoToUser("autopush watching %s on %s (%s)", info.Root, describeHead(info), interval)
	} else {
		a.Logger.InfoToUser("autopush watching %s (%s)", a.Config.VaultPath, interval)
	}
}

func describeHead(info repo.Info) string {
	switch {
	case info.Unborn:
		return fmt.Sprintf("%s (no commits yet)", info.Branch)
	case info.Detached:
		return fmt.Sprintf("detached HEAD at %s", info.ShortHead())
	default:
		return fmt.Sprintf("%s at %s", info.Branch, info.ShortHead())
	}
}

// ShowVersion displays version information
func (a *App) ShowVersion() {
	_, _ = fmt.Fprintf(a.Stdout, "autopush %s (%s) built on %s\n",
		a.Config.VersionInfo.Version,
		a.Config.VersionInfo.Commit,
		a.Config.VersionInfo.Date)
}

// ShowHelp prints usage.
func (a *App) ShowHelp() {
	fs := newFlagSet()
	a.Config.SetupFlags(fs)
	a.Config.PrintUsage(fs, a.Stdout)
}

// Close releases resources held by the App
func (a *App) Close() error {
	var errs []error

	if a.Locker != nil {
		if err := a.Locker.Release(); err != nil {
			if a.Logger != nil {
				a.Logger.Error("Failed to release lock during cleanup: %v", err)
			} else {
				_, _ = fmt.Fprintf(a.Stderr, "❌ Failed to release lock during cleanup: %v\n", err)
			}
			errs = append(errs, err)
		}
	}

	if a.Logger != nil {
		if err := a.Logger.Close(); err != nil {
			_, _ = fmt.Fprintf(a.Stderr, "❌ Failed to close logger: %v\n", err)
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return autopushErrors.Join(errs...)
	}
	return nil
}
