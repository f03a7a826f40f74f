package git

import (
	"fmt"
	"time"
)

// CommitMessage renders the automatic commit message for t, for example
// "auto commit at 3-7-2024 9:05". Month, day and hour are unpadded; the hour
// is on a 24-hour clock and the minute always has two digits.
func CommitMessage(t time.Time) string {
	return fmt.Sprintf("auto commit at %d-%d-%d %d:%02d",
		int(t.Month()), t.Day(), t.Year(), t.Hour(), t.Minute())
}
