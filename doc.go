// Package autopush keeps a notes vault backed up to its git remote.
//
// autopush is a small daemon for a directory of notes that is also a git
// working tree. On start, on a repeating timer and on request it runs one
// cycle: check the working tree, stage everything, commit with a timestamped
// message and push. A cycle never overlaps another one, and a commit that
// finds nothing to commit still pushes.
//
// # Quick Start
//
//	cd ~/notes
//	autopush                 # commit and push now, then every 5 minutes
//	autopush set-interval 15 # from another shell; the daemon reschedules at once
//	kill -USR1 <pid>         # commit and push right now
//
// # Layout
//
// The command lives in cmd/autopush. The packages under internal/ are:
//
//   - git: the verify, stage, commit, push routine run through the git binary
//   - scheduler: the repeating timer and the single running-cycle flag
//   - syncer: ties the vault, settings, notices and scheduler together
//   - settings: the persisted intervalMinutes setting and its file watcher
//   - notify: console and desktop notices
//   - repo: read-only repository inspection for the status command
//   - config, lock, logger, errors: process configuration and plumbing
//
// Failures never stop the daemon. Each one shows a notice of at most 400
// characters and is written in full to the debug log.
package autopush
