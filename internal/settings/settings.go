package settings

import (
	"math"
	"strconv"
	"strings"
)

// DefaultIntervalMinutes is the interval used when nothing has been persisted.
const DefaultIntervalMinutes = 5

// Settings is the persisted settings blob.
type Settings struct {
	IntervalMinutes float64 `json:"intervalMinutes" yaml:"intervalMinutes"`
}

// Default returns the settings used before anything is persisted.
func Default() Settings {
	return Settings{IntervalMinutes: DefaultIntervalMinutes}
}

// ParseInterval turns the text of the interval field into minutes.
// Anything that does not parse, is not finite, or is negative becomes 0.
func ParseInterval(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0
	}
	return Coerce(v)
}

// Coerce clamps an interval to the field's domain: finite and at least 0.
func Coerce(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
