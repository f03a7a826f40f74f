// Package main implements autopush, automatic commit and push for a notes vault.
//
// autopush keeps a vault, any directory that is a git working tree, backed up
// to its remote. Every cycle runs, in order:
//
//	git rev-parse --is-inside-work-tree
//	git add -A
//	git commit -m "auto commit at M-D-YYYY H:mm"
//	git push
//
// and stops at the first failure. A commit that fails only because there is
// nothing to commit is not a failure: the push still runs. Failures are shown
// as a short notice ("Auto commit failed: ...") and written in full to the
// debug log; they never stop the daemon.
//
// # Basic Usage
//
//	autopush -vault ~/notes                  # Run the daemon
//	autopush -vault ~/notes once             # One cycle, exit status reports the result
//	autopush -vault ~/notes set-interval 10  # Commit every 10 minutes
//	autopush -vault ~/notes set-interval 0   # Disable the timer
//	autopush -vault ~/notes status           # Show repository and timer state
//	kill -USR1 <pid>                         # Ask the daemon for a cycle now
//
// # Interval
//
// The interval is kept in <vault>/.autopush/settings.json under the key
// intervalMinutes (default 5). Decimals are allowed; anything negative or not
// a number becomes 0, which disables the timer. The effective period is never
// shorter than ten seconds. Editing the file while the daemon runs takes
// effect immediately.
//
// # Configuration
//
// Process options come from flags, AUTOPUSH_* environment variables and an
// optional autopush.yaml file, in that order of precedence. Run
// autopush -help for the full list.
//
// Only one daemon runs per vault; a second instance exits with an error.
package main
