// Package git runs the autopush commit routine against a vault.
//
// A cycle is four git invocations in the vault directory:
//
//	git rev-parse --is-inside-work-tree
//	git add -A
//	git commit -m "auto commit at M-D-YYYY H:mm"
//	git push
//
// The first failing step ends the cycle. The one exception is a commit that
// fails because there is nothing to commit; IsNothingToCommit classifies that
// outcome as benign and the cycle still pushes, so commits made by hand
// between cycles are published too.
//
// # Core Components
//
//   - Committer: runs the cycle with an injected CommandExecutor and clock
//   - CommandExecutor: interface for running external commands
//   - Diagnostic / Truncate: extract the text shown to the user on failure
//
// Commands run without a timeout and inherit the process environment, so
// credential helpers and SSH agents configured for the user keep working.
package git
