package scheduler

import (
	"math"
	"time"
)

// MinPeriod is the shortest period the timer will fire at.
const MinPeriod = 10 * time.Second

const maxMillis = float64(math.MaxInt64 / int64(time.Millisecond))

// Period converts an interval in minutes to the timer period. It reports
// false when the interval disables the timer: zero, negative or non-finite.
// Otherwise the period is round(minutes*60000) milliseconds, never below
// MinPeriod.
func Period(minutes float64) (time.Duration, bool) {
	if math.IsNaN(minutes) || math.IsInf(minutes, 0) || minutes <= 0 {
		return 0, false
	}

	ms := math.Round(minutes * 60000)
	if ms > maxMillis {
		ms = maxMillis
	}

	d := time.Duration(ms) * time.Millisecond
	if d < MinPeriod {
		d = MinPeriod
	}
	return d, true
}
