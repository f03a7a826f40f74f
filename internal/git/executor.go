package git

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"

	autopushErrors "github.com/bashhack/autopush/internal/errors"
)

// CommandExecutor runs external commands in a working directory.
type CommandExecutor interface {
	// ExecuteWithContext runs a command and reports only whether it succeeded.
	ExecuteWithContext(ctx context.Context, dir, name string, args ...string) error

	// ExecuteWithContextAndOutput runs a command and returns its stdout.
	// On failure the returned error is a *errors.GitError carrying both streams.
	ExecuteWithContextAndOutput(ctx context.Context, dir, name string, args ...string) (string, error)
}

// ExecExecutor is the default implementation of CommandExecutor
// that delegates to the os/exec package
type ExecExecutor struct{}

// NewExecExecutor creates a new ExecExecutor
func NewExecExecutor() *ExecExecutor {
	return &ExecExecutor{}
}

// ExecuteWithContext implements CommandExecutor.ExecuteWithContext
func (e *ExecExecutor) ExecuteWithContext(ctx context.Context, dir, name string, args ...string) error {
	_, err := e.ExecuteWithContextAndOutput(ctx, dir, name, args...)
	return err
}

// ExecuteWithContextAndOutput implements CommandExecutor.ExecuteWithContextAndOutput
func (e *ExecExecutor) ExecuteWithContextAndOutput(ctx context.Context, dir, name string, args ...string) (string, error) {
	cmd := newCommand(ctx, dir, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		operation := name
		if len(args) > 0 {
			operation = args[0]
		}

		// Keep the *exec.ExitError reachable for callers inspecting exit codes
		wrappedErr := fmt.Errorf("%w: %w", autopushErrors.ErrGitOperationFailed, err)
		return stdout.String(), autopushErrors.NewGitError(operation, args, wrappedErr, stdout.String(), stderr.String())
	}

	return stdout.String(), nil
}

// newCommand builds a command that inherits the process environment and
// never opens a console window.
func newCommand(ctx context.Context, dir, name string, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Env = os.Environ()
	hideConsoleWindow(cmd)
	return cmd
}
