package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// Test Remaining
func TestRemaining(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		now      time.Time
		duration time.Duration
		want     time.Duration
	}{
		{name: "full_window_at_start", now: start, duration: time.Hour, want: time.Hour},
		{name: "half_elapsed", now: start.Add(30 * time.Minute), duration: time.Hour, want: 30 * time.Minute},
		{name: "exactly_expired", now: start.Add(time.Hour), duration: time.Hour, want: 0},
		{name: "past_expiry_clamps_to_zero", now: start.Add(2 * time.Hour), duration: time.Hour, want: 0},
		{name: "before_start", now: start.Add(-10 * time.Minute), duration: time.Hour, want: 70 * time.Minute},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, Remaining(tc.now, start, tc.duration))
		})
	}
}

// Remaining must be stable for a fixed set of inputs no matter how often it is
// recomputed, since clients call it on every render tick.
func TestRemaining_Stable(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := start.Add(17 * time.Minute)

	first := Remaining(now, start, time.Hour)
	for i := 0; i < 100; i++ {
		require.Equal(t, first, Remaining(now, start, time.Hour))
	}
}
