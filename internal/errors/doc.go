// Package errors provides error handling utilities for autopush.
//
// It implements the sentinel errors and typed errors used across the
// application while staying compatible with the standard library: every
// type unwraps, so errors.Is and errors.As work through the whole chain.
//
// # Usage
//
//	if err != nil {
//	    return errors.Wrap(err, "failed to stage changes")
//	}
//
// # Git errors
//
// GitError records both output streams of a failed git invocation. The
// commit routine relies on this: git reports "nothing to commit" on stdout
// and authentication failures on stderr, and the diagnostic shown to the
// user is taken from whichever stream is non-empty first.
//
// # Thread Safety
//
// All types and functions in this package are safe for concurrent use
// by multiple goroutines.
package errors
