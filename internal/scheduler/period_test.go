package scheduler

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPeriod(t *testing.T) {
	tests := []struct {
		name    string
		minutes float64
		want    time.Duration
		enabled bool
	}{
		{name: "default five minutes", minutes: 5, want: 5 * time.Minute, enabled: true},
		{name: "half minute", minutes: 0.5, want: 30 * time.Second, enabled: true},
		{name: "clamped to ten seconds", minutes: 0.1, want: MinPeriod, enabled: true},
		{name: "tiny clamped to ten seconds", minutes: 0.0001, want: MinPeriod, enabled: true},
		{name: "just above minimum", minutes: 0.2, want: 12 * time.Second, enabled: true},
		{name: "rounded to milliseconds", minutes: 0.50000001, want: 30 * time.Second, enabled: true},
		{name: "fractional milliseconds", minutes: 0.25, want: 15 * time.Second, enabled: true},
		{name: "zero disables", minutes: 0, enabled: false},
		{name: "negative disables", minutes: -1, enabled: false},
		{name: "NaN disables", minutes: math.NaN(), enabled: false},
		{name: "positive infinity disables", minutes: math.Inf(1), enabled: false},
		{name: "negative infinity disables", minutes: math.Inf(-1), enabled: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Period(tt.minutes)
			assert.Equal(t, tt.enabled, ok)
			if tt.enabled {
				assert.Equal(t, tt.want, got)
			} else {
				assert.Zero(t, got)
			}
		})
	}
}

func TestPeriodHugeIntervalDoesNotOverflow(t *testing.T) {
	got, ok := Period(1e300)
	assert.True(t, ok)
	assert.Greater(t, got, time.Duration(0))
}
