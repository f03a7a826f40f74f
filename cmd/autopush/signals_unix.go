//go:build !windows

package main

import (
	"os"
	"os/signal"
	"syscall"
)

// signalTriggers turns SIGUSR1 into cycle requests.
func signalTriggers() (<-chan struct{}, func()) {
	sigs := make(chan os.Signal, 1)
	out := make(chan struct{}, 1)
	done := make(chan struct{})
	signal.Notify(sigs, syscall.SIGUSR1)

	go func() {
		for {
			select {
			case <-done:
				return
			case <-sigs:
				select {
				case out <- struct{}{}:
				default:
				}
			}
		}
	}()

	return out, func() {
		signal.Stop(sigs)
		close(done)
	}
}
