//go:build windows

package lock

import (
	"os"

	autopushErrors "github.com/bashhack/autopush/internal/errors"
)

func supported() error {
	return autopushErrors.Wrap(autopushErrors.ErrLockAcquisitionFailure,
		"the autopush daemon lock is only available on Unix-like systems (Linux, macOS, BSD)")
}

func acquireFlock(*os.File) error   { return supported() }
func releaseFlock(*os.File) error   { return nil }
func isWouldBlock(error) bool       { return false }
func isProcessRunning(pid int) bool { return false }
