//go:build !windows

package git

import "os/exec"

// hideConsoleWindow is a no-op on platforms without console windows.
func hideConsoleWindow(*exec.Cmd) {}
