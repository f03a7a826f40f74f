package lock

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	autopushErrors "github.com/bashhack/autopush/internal/errors"
)

// Locker prevents concurrent autopush daemons for one vault.
type Locker struct {
	lockFile string
	lockFd   *os.File
	pid      int
	stalePID int
}

// New creates a Locker for the vault in the system temporary directory.
func New(vaultPath string) (*Locker, error) {
	return NewInDir(os.TempDir(), vaultPath)
}

// NewInDir creates a Locker whose lock file lives in dir.
func NewInDir(dir, vaultPath string) (*Locker, error) {
	if err := supported(); err != nil {
		return nil, autopushErrors.NewLockError("", 0, err)
	}

	vaultHash := fmt.Sprintf("%x", sha256.Sum256([]byte(vaultPath)))[:16]
	return &Locker{
		lockFile: filepath.Join(dir, fmt.Sprintf("autopush-%s.lock", vaultHash)),
		pid:      os.Getpid(),
	}, nil
}

// LockFile returns the lock file path.
func (l *Locker) LockFile() string {
	return l.lockFile
}

// StalePID returns the PID of a dead owner whose lock file was taken over
// by the last successful Acquire, or 0.
func (l *Locker) StalePID() int {
	return l.stalePID
}

// Acquire takes the lock. If another live process holds it the error wraps
// ErrAlreadyRunning and carries that process's PID.
func (l *Locker) Acquire() error {
	if l.lockFd != nil {
		return nil
	}

	// The file can be unlinked by a releasing owner between our open and our
	// flock; a second attempt then opens the fresh file.
	for attempt := 0; attempt < 2; attempt++ {
		retry, err := l.tryAcquire()
		if !retry {
			return err
		}
	}
	return autopushErrors.NewLockError(l.lockFile, 0,
		autopushErrors.Wrap(autopushErrors.ErrLockAcquisitionFailure, "lock file kept changing underneath us"))
}

func (l *Locker) tryAcquire() (retry bool, err error) {
	fd, err := os.OpenFile(l.lockFile, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return false, autopushErrors.NewLockError(l.lockFile, 0,
			autopushErrors.Wrap(err, "failed to open lock file"))
	}

	if err := acquireFlock(fd); err != nil {
		_ = fd.Close()
		if isWouldBlock(err) {
			return false, l.handleBlockedLock()
		}
		return false, autopushErrors.NewLockError(l.lockFile, 0,
			autopushErrors.Wrap(err, "failed to acquire lock"))
	}

	if !l.stillLinked(fd) {
		_ = fd.Close()
		return true, nil
	}

	l.lockFd = fd
	l.stalePID = 0
	if previous, err := l.readLockFilePid(); err == nil && previous != l.pid && !isProcessRunning(previous) {
		l.stalePID = previous
	}

	if err := l.resetAndWritePid(); err != nil {
		if releaseErr := l.Release(); releaseErr != nil {
			return false, autopushErrors.Wrap(err, fmt.Sprintf("failed to write PID and failed to release lock: %v", releaseErr))
		}
		return false, err
	}
	return false, nil
}

// stillLinked reports whether fd is still the file at the lock path.
func (l *Locker) stillLinked(fd *os.File) bool {
	held, err := fd.Stat()
	if err != nil {
		return false
	}
	current, err := os.Stat(l.lockFile)
	if err != nil {
		return false
	}
	return os.SameFile(held, current)
}

// handleBlockedLock describes a lock held by another process.
func (l *Locker) handleBlockedLock() error {
	otherPid, pidErr := l.readLockFilePid()
	if pidErr != nil {
		return autopushErrors.NewLockError(l.lockFile, 0,
			autopushErrors.Wrap(autopushErrors.ErrAlreadyRunning, "owner PID unknown"))
	}

	if isProcessRunning(otherPid) {
		return autopushErrors.NewLockError(l.lockFile, otherPid, autopushErrors.ErrAlreadyRunning)
	}

	// A dead PID with a live flock means the lock was inherited by a child.
	return autopushErrors.NewLockError(l.lockFile, otherPid,
		autopushErrors.Wrap(autopushErrors.ErrLockAcquisitionFailure, "lock is held by a process that is not the recorded owner"))
}

// resetAndWritePid clears the file and writes the current PID
func (l *Locker) resetAndWritePid() error {
	if err := l.lockFd.Truncate(0); err != nil {
		return autopushErrors.NewLockError(l.lockFile, l.pid,
			autopushErrors.Wrap(err, "failed to truncate lock file"))
	}
	if _, err := l.lockFd.WriteAt([]byte(strconv.Itoa(l.pid)+"\n"), 0); err != nil {
		return autopushErrors.NewLockError(l.lockFile, l.pid,
			autopushErrors.Wrap(err, "failed to write PID to lock file"))
	}
	if err := l.lockFd.Sync(); err != nil {
		return autopushErrors.NewLockError(l.lockFile, l.pid,
			autopushErrors.Wrap(err, "failed to sync lock file"))
	}
	return nil
}

// readLockFilePid reads and parses the PID from the lock file
func (l *Locker) readLockFilePid() (int, error) {
	data, err := os.ReadFile(l.lockFile)
	if err != nil {
		return 0, autopushErrors.Wrap(err, "failed to read lock file")
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, autopushErrors.Wrap(err, "invalid PID in lock file")
	}
	return pid, nil
}

// Release releases the lock if it was acquired. It is safe to call more
// than once.
func (l *Locker) Release() error {
	if l.lockFd == nil {
		return nil
	}

	var err error

	// Remove before unlocking so no one can flock the file we are deleting.
	if removeErr := os.Remove(l.lockFile); removeErr != nil && !os.IsNotExist(removeErr) {
		err = autopushErrors.NewLockError(l.lockFile, l.pid,
			autopushErrors.Wrap(removeErr, "failed to remove lock file"))
	}

	if flockErr := releaseFlock(l.lockFd); flockErr != nil && err == nil {
		err = autopushErrors.NewLockError(l.lockFile, l.pid,
			autopushErrors.Wrap(flockErr, "failed to release lock"))
	}

	if closeErr := l.lockFd.Close(); closeErr != nil && err == nil {
		err = autopushErrors.NewLockError(l.lockFile, l.pid,
			autopushErrors.Wrap(closeErr, "failed to close lock file"))
	}

	l.lockFd = nil
	return err
}
