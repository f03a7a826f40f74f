// Package lock makes sure only one autopush daemon runs per vault.
//
// The lock is an exclusive, non-blocking flock on a file in the system's
// temporary directory:
//
//	/tmp/autopush-<vault-hash>.lock
//
// The file holds the owner's PID. The kernel drops a flock when its owner
// dies, so a lock file left behind by a crashed daemon is simply taken over;
// the dead PID is reported through StalePID so callers can mention it.
//
// The lock file never lives inside the vault because every cycle stages the
// whole working tree.
//
// # Usage
//
//	l, err := lock.New(vaultPath)
//	if err != nil {
//	    return err
//	}
//	if err := l.Acquire(); err != nil {
//	    // errors.Is(err, errors.ErrAlreadyRunning) when another daemon owns it
//	    return err
//	}
//	defer l.Release()
//
// A Locker is not safe for concurrent use by multiple goroutines.
//
// Windows is not supported; New returns a LockError there.
package lock
