//go:build windows

package main

// signalTriggers returns a channel that never fires; there is no SIGUSR1.
func signalTriggers() (<-chan struct{}, func()) {
	return make(chan struct{}), func() {}
}
