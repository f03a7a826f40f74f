package git

import (
	"context"
	"fmt"
	"time"

	autopushErrors "github.com/bashhack/autopush/internal/errors"
	"github.com/bashhack/autopush/internal/logger"
)

// Step names one stage of a commit cycle.
type Step string

const (
	StepNone   Step = ""
	StepVerify Step = "verify"
	StepStage  Step = "stage"
	StepCommit Step = "commit"
	StepPush   Step = "push"
)

// CommitterConfig contains configuration for a Committer.
type CommitterConfig struct {
	// VaultPath is the working directory every git command runs in.
	VaultPath string

	// GitBin is the git executable; "git" when empty.
	GitBin string
}

// Validate sanity-checks the config and returns an error if something is wrong.
func (c *CommitterConfig) Validate() error {
	if c.VaultPath == "" {
		return fmt.Errorf("VaultPath must not be empty")
	}
	return nil
}

// CycleResult describes one verify, stage, commit, push attempt.
type CycleResult struct {
	// Committed is false when git had nothing to commit.
	Committed bool

	// FailedStep is the step that aborted the cycle, StepNone on success.
	FailedStep Step

	Message  string
	Duration time.Duration
}

// Committer runs the commit routine against one vault.
type Committer struct {
	config   CommitterConfig
	logger   logger.Logger
	executor CommandExecutor
	now      func() time.Time
}

// NewCommitter creates a Committer backed by the git binary.
func NewCommitter(config CommitterConfig, log logger.Logger) (*Committer, error) {
	return NewCommitterWithDeps(config, log, NewExecExecutor(), time.Now)
}

// NewCommitterWithDeps creates a Committer with custom dependencies
func NewCommitterWithDeps(
	config CommitterConfig,
	log logger.Logger,
	executor CommandExecutor,
	now func() time.Time,
) (*Committer, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid committer configuration: %w", err)
	}
	if config.GitBin == "" {
		config.GitBin = "git"
	}
	if log == nil {
		log = logger.Nop()
	}
	if now == nil {
		now = time.Now
	}

	return &Committer{
		config:   config,
		logger:   log,
		executor: executor,
		now:      now,
	}, nil
}

// VaultPath returns the working directory the committer runs in.
func (c *Committer) VaultPath() string {
	return c.config.VaultPath
}

// RunCycle verifies the repository, stages everything, commits and pushes.
// It stops at the first step that fails; a commit with nothing to commit is
// not a failure.
func (c *Committer) RunCycle(ctx context.Context) (CycleResult, error) {
	start := c.now()
	result := CycleResult{}

	finish := func(step Step, err error) (CycleResult, error) {
		result.FailedStep = step
		result.Duration = c.now().Sub(start)
		if err != nil {
			return result, autopushErrors.Wrapf(err, "%s step failed", step)
		}
		return result, nil
	}

	if err := c.Verify(ctx); err != nil {
		return finish(StepVerify, err)
	}

	if err := c.StageAll(ctx); err != nil {
		return finish(StepStage, err)
	}

	result.Message = CommitMessage(c.now())
	committed, err := c.Commit(ctx, result.Message)
	if err != nil {
		return finish(StepCommit, err)
	}
	result.Committed = committed

	if err := c.Push(ctx); err != nil {
		return finish(StepPush, err)
	}

	return finish(StepNone, nil)
}

// Verify checks that the vault is inside a git working tree.
func (c *Committer) Verify(ctx context.Context) error {
	if _, err := c.runGitCommandWithOutput(ctx, "rev-parse", "--is-inside-work-tree"); err != nil {
		c.logger.Diagnostic("vault is not a usable git working tree", "step", string(StepVerify), "error", err.Error())
		return fmt.Errorf("%w: %w", autopushErrors.ErrNotGitRepository, err)
	}
	return nil
}

// StageAll stages every change, including deletions and untracked files.
func (c *Committer) StageAll(ctx context.Context) error {
	if _, err := c.runGitCommandWithOutput(ctx, "add", "-A"); err != nil {
		c.logger.Diagnostic("failed to stage changes", "step", string(StepStage), "error", err.Error())
		return err
	}
	return nil
}

// Commit records the staged changes with msg. It reports false, and no
// error, when git refused because there was nothing to commit.
func (c *Committer) Commit(ctx context.Context, msg string) (bool, error) {
	_, err := c.runGitCommandWithOutput(ctx, "commit", "-m", msg)
	if err == nil {
		c.logger.Info("Created commit %q", msg)
		return true, nil
	}

	if IsNothingToCommit(combinedDiagnostic(err)) {
		c.logger.Info("Nothing to commit, continuing to push")
		return false, nil
	}

	c.logger.Diagnostic("failed to create commit", "step", string(StepCommit), "error", err.Error())
	return false, err
}

// Push pushes the current branch to its upstream.
func (c *Committer) Push(ctx context.Context) error {
	if _, err := c.runGitCommandWithOutput(ctx, "push"); err != nil {
		c.logger.Diagnostic("failed to push", "step", string(StepPush), "error", err.Error())
		return err
	}
	c.logger.Info("Pushed %s", c.config.VaultPath)
	return nil
}

// runGitCommandWithOutput executes a git command in the vault and returns its output.
func (c *Committer) runGitCommandWithOutput(ctx context.Context, args ...string) (string, error) {
	return c.executor.ExecuteWithContextAndOutput(ctx, c.config.VaultPath, c.config.GitBin, args...)
}
