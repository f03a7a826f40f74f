package git

import (
	"context"
	"fmt"
	"strings"
	"sync"

	autopushErrors "github.com/bashhack/autopush/internal/errors"
)

// MockCommandExecutor records calls and answers them from per-subcommand
// responses instead of running anything.
type MockCommandExecutor struct {
	mu sync.Mutex

	// Commands holds the argument lists of every call, in order.
	Commands [][]string
	Dirs     []string

	// Responses maps a git subcommand ("commit", "push", ...) to its result.
	Responses map[string]MockResponse

	ExecuteWithOutputFn func(ctx context.Context, dir, name string, args ...string) (string, error)
}

// MockResponse is the canned outcome of one subcommand.
type MockResponse struct {
	Stdout string
	Stderr string
	Fail   bool
}

// NewMockCommandExecutor creates a new mock executor
func NewMockCommandExecutor() *MockCommandExecutor {
	return &MockCommandExecutor{
		Responses: make(map[string]MockResponse),
	}
}

// ExecuteWithContext implements the CommandExecutor interface
func (m *MockCommandExecutor) ExecuteWithContext(ctx context.Context, dir, name string, args ...string) error {
	_, err := m.ExecuteWithContextAndOutput(ctx, dir, name, args...)
	return err
}

// ExecuteWithContextAndOutput implements the CommandExecutor interface
func (m *MockCommandExecutor) ExecuteWithContextAndOutput(ctx context.Context, dir, name string, args ...string) (string, error) {
	m.mu.Lock()
	m.Commands = append(m.Commands, append([]string{name}, args...))
	m.Dirs = append(m.Dirs, dir)
	fn := m.ExecuteWithOutputFn
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, dir, name, args...)
	}

	sub := ""
	if len(args) > 0 {
		sub = args[0]
	}

	m.mu.Lock()
	resp, ok := m.Responses[sub]
	m.mu.Unlock()
	if !ok || !resp.Fail {
		return resp.Stdout, nil
	}

	wrapped := fmt.Errorf("%w: %w", autopushErrors.ErrGitOperationFailed, fmt.Errorf("exit status 1"))
	return resp.Stdout, autopushErrors.NewGitError(sub, args, wrapped, resp.Stdout, resp.Stderr)
}

// Subcommands returns the git subcommands that were invoked, in order.
func (m *MockCommandExecutor) Subcommands() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	subs := make([]string, 0, len(m.Commands))
	for _, c := range m.Commands {
		if len(c) > 1 {
			subs = append(subs, c[1])
		}
	}
	return subs
}

// CommandLine returns call i as a single string, e.g. "git add -A".
func (m *MockCommandExecutor) CommandLine(i int) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return strings.Join(m.Commands[i], " ")
}
