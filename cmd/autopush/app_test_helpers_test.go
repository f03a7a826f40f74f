package main

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bashhack/autopush/internal/config"
	"github.com/bashhack/autopush/internal/git"
	"github.com/bashhack/autopush/internal/logger"
	"github.com/bashhack/autopush/internal/notify"
	"github.com/bashhack/autopush/internal/repo"
	"github.com/bashhack/autopush/internal/scheduler"
	"github.com/bashhack/autopush/internal/settings"
	"github.com/bashhack/autopush/internal/syncer"
)

// MockLogger records calls and messages.
type MockLogger struct {
	mu          sync.Mutex
	Messages    []string
	CloseCalled bool
	CloseErr    error
}

func (m *MockLogger) record(level, format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Messages = append(m.Messages, level+": "+fmt.Sprintf(format, args...))
}

func (m *MockLogger) Info(format string, args ...interface{}) { m.record("info", format, args...) }
func (m *MockLogger) Warning(format string, args ...interface{}) {
	m.record("warning", format, args...)
}
func (m *MockLogger) Error(format string, args ...interface{}) { m.record("error", format, args...) }
func (m *MockLogger) InfoToUser(format string, args ...interface{}) {
	m.record("user", format, args...)
}
func (m *MockLogger) WarningToUser(format string, args ...interface{}) {
	m.record("userwarn", format, args...)
}
func (m *MockLogger) Success(format string, args ...interface{}) {
	m.record("success", format, args...)
}
func (m *MockLogger) StatusMessage(format string, args ...interface{}) {
	m.record("status", format, args...)
}

func (m *MockLogger) Diagnostic(msg string, attrs ...any) {
	m.record("diagnostic", "%s %v", msg, attrs)
}

func (m *MockLogger) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CloseCalled = true
	return m.CloseErr
}

func (m *MockLogger) All() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.Messages...)
}

var _ logger.Logger = (*MockLogger)(nil)

// MockLocker is a Locker with canned results.
type MockLocker struct {
	AcquireErr    error
	ReleaseErr    error
	AcquireCalled bool
	ReleaseCalled bool
}

func (m *MockLocker) Acquire() error {
	m.AcquireCalled = true
	return m.AcquireErr
}

func (m *MockLocker) Release() error {
	m.ReleaseCalled = true
	return m.ReleaseErr
}

// fakeCommitter counts cycles and returns a fixed result.
type fakeCommitter struct {
	mu     sync.Mutex
	calls  int
	err    error
	result git.CycleResult
}

func (f *fakeCommitter) RunCycle(context.Context) (git.CycleResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.result, f.err
}

func (f *fakeCommitter) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// idleWatcher blocks until ctx is done.
type idleWatcher struct{}

func (idleWatcher) Run(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

type testApp struct {
	app       *App
	syncer    *syncer.Syncer
	logger    *MockLogger
	locker    *MockLocker
	committer *fakeCommitter
	notices   *notify.Recorder
	triggers  chan struct{}
	stdout    *bytes.Buffer
	stderr    *bytes.Buffer
}

// NewTestApp builds an App for a temporary vault with every external
// collaborator replaced.
func NewTestApp(t *testing.T, args ...string) *testApp {
	t.Helper()

	vault := t.TempDir()
	cfg := config.New()
	cfg.VaultPath = vault
	cfg.GitBin = fakeGitBin(t)
	cfg.LogFile = t.TempDir() + "/autopush.log"
	cfg.Args = args

	ta := &testApp{
		logger:    &MockLogger{},
		locker:    &MockLocker{},
		committer: &fakeCommitter{result: git.CycleResult{Committed: true, Message: "auto commit at 3-7-2024 9:05"}},
		notices:   &notify.Recorder{},
		triggers:  make(chan struct{}, 4),
		stdout:    &bytes.Buffer{},
		stderr:    &bytes.Buffer{},
	}

	store := settings.NewStore(vault + "/.autopush/settings.json")
	s, err := syncer.New(syncer.Options{
		Vault:        syncer.DirVault{Path: vault},
		Store:        store,
		Notifier:     ta.notices,
		Logger:       ta.logger,
		NewCommitter: func(string) (syncer.Committer, error) { return ta.committer, nil },
		NewTicker:    func(time.Duration) scheduler.Ticker { return idleTicker{} },
	})
	if err != nil {
		t.Fatalf("syncer.New failed: %v", err)
	}

	ta.syncer = s
	ta.app = NewApp(AppOptions{
		Config:       cfg,
		Logger:       ta.logger,
		Locker:       ta.locker,
		Syncer:       s,
		Store:        store,
		Notifier:     ta.notices,
		Watcher:      idleWatcher{},
		Stdout:       ta.stdout,
		Stderr:       ta.stderr,
		Exit:         func(int) {},
		IsRepository: func(string) (bool, error) { return true, nil },
		Inspect: func(path string) (repo.Info, error) {
			return repo.Info{Root: path, Branch: "main", Head: "0123456789abcdef", Clean: true, Remotes: []string{"origin"}}, nil
		},
		Triggers: func() (<-chan struct{}, func()) { return ta.triggers, func() {} },
	})
	return ta
}

type idleTicker struct{}

func (idleTicker) C() <-chan time.Time { return nil }
func (idleTicker) Stop()               {}

func fakeGitBin(t *testing.T) string {
	t.Helper()
	path := t.TempDir() + "/git"
	if err := writeExecutable(path); err != nil {
		t.Fatalf("Failed to write fake git: %v", err)
	}
	return path
}
