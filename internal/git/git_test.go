package git

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bashhack/autopush/internal/logger"
)

// setupTestVault creates a working tree cloned from a bare remote so that
// push has somewhere to go.
func setupTestVault(t *testing.T) (vault, remote string) {
	t.Helper()

	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}

	root := t.TempDir()
	remote = filepath.Join(root, "remote.git")
	vault = filepath.Join(root, "vault")

	run := func(dir string, args ...string) {
		t.Helper()
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v failed: %v\n%s", args, err, out)
		}
	}

	run(root, "init", "--bare", remote)
	run(root, "clone", remote, vault)
	run(vault, "config", "user.email", "test@example.com")
	run(vault, "config", "user.name", "Test User")

	if err := os.WriteFile(filepath.Join(vault, "note.md"), []byte("# first\n"), 0o644); err != nil {
		t.Fatalf("Failed to write note: %v", err)
	}
	run(vault, "add", "-A")
	run(vault, "commit", "-m", "initial")
	run(vault, "push", "-u", "origin", "HEAD")

	return vault, remote
}

func remoteLog(t *testing.T, remote string) string {
	t.Helper()
	out, err := exec.Command("git", "--git-dir", remote, "log", "--pretty=format:%s").CombinedOutput()
	if err != nil {
		t.Fatalf("Failed to read remote log: %v\n%s", err, out)
	}
	return string(out)
}

func TestIsRepository(t *testing.T) {
	vault, _ := setupTestVault(t)

	isRepo, err := IsRepository("", vault)
	if err != nil || !isRepo {
		t.Errorf("Expected %s to be a repository, got %v, %v", vault, isRepo, err)
	}

	isRepo, err = IsRepository("git", t.TempDir())
	if err != nil {
		t.Errorf("Expected no error for plain directory, got %v", err)
	}
	if isRepo {
		t.Error("Expected plain directory not to be a repository")
	}
}

func TestRunCycleAgainstRealRepository(t *testing.T) {
	vault, remote := setupTestVault(t)

	c, err := NewCommitter(CommitterConfig{VaultPath: vault}, logger.Nop())
	if err != nil {
		t.Fatalf("NewCommitter failed: %v", err)
	}

	if err := os.WriteFile(filepath.Join(vault, "note.md"), []byte("# edited\n"), 0o644); err != nil {
		t.Fatalf("Failed to edit note: %v", err)
	}
	if err := os.WriteFile(filepath.Join(vault, "new.md"), []byte("new\n"), 0o644); err != nil {
		t.Fatalf("Failed to add note: %v", err)
	}

	result, err := c.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle failed: %v", err)
	}
	if !result.Committed {
		t.Error("Expected a commit to be created")
	}
	if !strings.Contains(remoteLog(t, remote), "auto commit at ") {
		t.Errorf("Expected auto commit on remote, got:\n%s", remoteLog(t, remote))
	}

	// A second cycle with a clean tree must still succeed.
	result, err = c.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle on clean tree failed: %v", err)
	}
	if result.Committed {
		t.Error("Expected no commit on a clean tree")
	}
}

func TestRunCycleOnPlainDirectory(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}

	c, err := NewCommitter(CommitterConfig{VaultPath: t.TempDir()}, logger.Nop())
	if err != nil {
		t.Fatalf("NewCommitter failed: %v", err)
	}

	result, err := c.RunCycle(context.Background())
	if err == nil {
		t.Fatal("Expected verify to fail outside a repository")
	}
	if result.FailedStep != StepVerify {
		t.Errorf("Expected verify step to fail, got %q", result.FailedStep)
	}
	if !strings.Contains(strings.ToLower(Diagnostic(err)), "not a git repository") {
		t.Errorf("Unexpected diagnostic: %q", Diagnostic(err))
	}
}

func TestIsRepositoryUsesGivenBinary(t *testing.T) {
	dir := t.TempDir()
	script := func(name, body string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
		return path
	}

	tests := map[string]struct {
		gitBin  string
		want    bool
		wantErr bool
	}{
		"ExitZero":   {gitBin: script("git-ok", "exit 0"), want: true},
		"Exit128":    {gitBin: script("git-notrepo", "exit 128"), want: false},
		"OtherExit":  {gitBin: script("git-broken", "exit 2"), wantErr: true},
		"MissingBin": {gitBin: filepath.Join(dir, "no-such-git"), wantErr: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := IsRepository(tc.gitBin, t.TempDir())
			if tc.wantErr != (err != nil) {
				t.Fatalf("Expected error=%v, got %v", tc.wantErr, err)
			}
			if got != tc.want {
				t.Errorf("Expected %v, got %v", tc.want, got)
			}
		})
	}
}
