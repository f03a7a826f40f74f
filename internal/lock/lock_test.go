//go:build !windows

package lock

import (
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	autopushErrors "github.com/bashhack/autopush/internal/errors"
)

func newTestLocker(t *testing.T, dir, vault string) *Locker {
	t.Helper()
	locker, err := NewInDir(dir, vault)
	if err != nil {
		t.Fatalf("Failed to create locker: %v", err)
	}
	t.Cleanup(func() { _ = locker.Release() })
	return locker
}

func TestNew_LockFileNamedAfterVault(t *testing.T) {
	a, err := New("/vaults/a")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	b, err := New("/vaults/b")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if a.LockFile() == b.LockFile() {
		t.Error("Expected different lock files for different vaults")
	}
	if !strings.HasPrefix(a.LockFile(), os.TempDir()) {
		t.Errorf("Expected lock file under %s, got %s", os.TempDir(), a.LockFile())
	}
	if !strings.HasSuffix(a.LockFile(), ".lock") {
		t.Errorf("Expected .lock suffix, got %s", a.LockFile())
	}
}

func TestAcquireAndRelease(t *testing.T) {
	locker := newTestLocker(t, t.TempDir(), "/vault")

	if err := locker.Acquire(); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	data, err := os.ReadFile(locker.LockFile())
	if err != nil {
		t.Fatalf("Failed to read lock file: %v", err)
	}
	if strings.TrimSpace(string(data)) != strconv.Itoa(os.Getpid()) {
		t.Errorf("Expected PID %d in lock file, got %q", os.Getpid(), data)
	}

	// Acquire on a held Locker is a no-op.
	if err := locker.Acquire(); err != nil {
		t.Errorf("Second Acquire on same locker failed: %v", err)
	}

	if err := locker.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if _, err := os.Stat(locker.LockFile()); !os.IsNotExist(err) {
		t.Errorf("Expected lock file to be removed, stat err=%v", err)
	}
	if err := locker.Release(); err != nil {
		t.Errorf("Release must be idempotent, got %v", err)
	}
}

func TestAcquire_SecondLockerReportsAlreadyRunning(t *testing.T) {
	dir := t.TempDir()
	first := newTestLocker(t, dir, "/vault")
	second := newTestLocker(t, dir, "/vault")

	if err := first.Acquire(); err != nil {
		t.Fatalf("First Acquire failed: %v", err)
	}

	err := second.Acquire()
	if err == nil {
		t.Fatal("Expected second Acquire to fail")
	}
	if !autopushErrors.Is(err, autopushErrors.ErrAlreadyRunning) {
		t.Errorf("Expected ErrAlreadyRunning, got %v", err)
	}

	var lockErr *autopushErrors.LockError
	if !autopushErrors.As(err, &lockErr) {
		t.Fatalf("Expected LockError, got %T", err)
	}
	if lockErr.PID != os.Getpid() {
		t.Errorf("Expected owner PID %d, got %d", os.Getpid(), lockErr.PID)
	}

	if err := first.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if err := second.Acquire(); err != nil {
		t.Errorf("Expected Acquire after release to succeed, got %v", err)
	}
}

func TestAcquire_DifferentVaultsDoNotConflict(t *testing.T) {
	dir := t.TempDir()
	a := newTestLocker(t, dir, "/vaults/a")
	b := newTestLocker(t, dir, "/vaults/b")

	if err := a.Acquire(); err != nil {
		t.Fatalf("Acquire a failed: %v", err)
	}
	if err := b.Acquire(); err != nil {
		t.Fatalf("Acquire b failed: %v", err)
	}
}

func TestStaleLockRecovery(t *testing.T) {
	deadPID := findDeadPID(t)

	tests := map[string]struct {
		setupContent string
		wantStalePID int
	}{
		"DeadPID": {
			setupContent: strconv.Itoa(deadPID),
			wantStalePID: deadPID,
		},
		"InvalidPIDFormat": {
			setupContent: "not-a-pid",
		},
		"EmptyLockFile": {
			setupContent: "",
		},
		"CurrentPID": {
			setupContent: strconv.Itoa(os.Getpid()),
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			locker := newTestLocker(t, t.TempDir(), "/vault")

			if err := os.WriteFile(locker.LockFile(), []byte(test.setupContent), 0o600); err != nil {
				t.Fatalf("Failed to create lock file: %v", err)
			}

			if err := locker.Acquire(); err != nil {
				t.Fatalf("Expected to take over unlocked lock file, got error: %v", err)
			}
			if locker.StalePID() != test.wantStalePID {
				t.Errorf("Expected StalePID=%d, got %d", test.wantStalePID, locker.StalePID())
			}
		})
	}
}

func TestConcurrentLocks_EnforcesExclusivity(t *testing.T) {
	const goroutines = 5

	dir := t.TempDir()
	results := make(chan error, goroutines)
	start := make(chan struct{})

	lockers := make([]*Locker, goroutines)
	for i := range lockers {
		lockers[i] = newTestLocker(t, dir, "/vault")
	}

	for i := 0; i < goroutines; i++ {
		go func(l *Locker) {
			<-start
			results <- l.Acquire()
		}(lockers[i])
	}
	close(start)

	successes := 0
	for i := 0; i < goroutines; i++ {
		select {
		case err := <-results:
			if err == nil {
				successes++
			} else if !autopushErrors.Is(err, autopushErrors.ErrAlreadyRunning) {
				t.Errorf("Unexpected error: %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for lockers")
		}
	}

	if successes != 1 {
		t.Errorf("Expected exactly one locker to win, got %d", successes)
	}
}

func TestIsProcessRunning(t *testing.T) {
	tests := map[string]struct {
		pid      int
		expected bool
	}{
		"CurrentProcess": {os.Getpid(), true},
		"NonExistentPID": {findDeadPID(t), false},
		"NegativePID":    {-1, false},
		"ZeroPID":        {0, false},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			if got := isProcessRunning(test.pid); got != test.expected {
				t.Errorf("Expected isProcessRunning(%d) to be %v, got %v", test.pid, test.expected, got)
			}
		})
	}
}

func findDeadPID(t *testing.T) int {
	t.Helper()
	for pid := 999999; pid > 900000; pid-- {
		if !isProcessRunning(pid) {
			return pid
		}
	}
	t.Skip("could not find an unused PID")
	return 0
}
