//go:build !windows

package lock

import (
	"os"

	"golang.org/x/sys/unix"

	autopushErrors "github.com/bashhack/autopush/internal/errors"
)

func supported() error { return nil }

// acquireFlock gets an exclusive non-blocking lock
func acquireFlock(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
}

func releaseFlock(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_UN)
}

// isWouldBlock checks both codes; they differ on some older systems.
func isWouldBlock(err error) bool {
	return autopushErrors.Is(err, unix.EWOULDBLOCK) || autopushErrors.Is(err, unix.EAGAIN)
}

// isProcessRunning checks if a process exists using signal 0
func isProcessRunning(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	return err == nil || autopushErrors.Is(err, unix.EPERM)
}
