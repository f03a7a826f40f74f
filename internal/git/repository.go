package git

import (
	"context"
	"os/exec"

	autopushErrors "github.com/bashhack/autopush/internal/errors"
)

// IsRepository checks if the given path is inside a git working tree, using
// gitBin ("git" when empty) so the check matches the binary cycles run.
// If git exits with code 128, returns (false, nil).
// For other errors (git not found, permission issues, etc), returns (false, err).
func IsRepository(gitBin, path string) (bool, error) {
	if gitBin == "" {
		gitBin = "git"
	}
	executor := NewExecExecutor()
	err := executor.ExecuteWithContext(context.Background(), path, gitBin, "rev-parse", "--is-inside-work-tree")
	if err != nil {
		// 128 is git's generic fatal code; for rev-parse it means "not a repository"
		var exitErr *exec.ExitError
		if autopushErrors.As(err, &exitErr) && exitErr.ExitCode() == 128 {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
