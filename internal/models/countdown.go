package models

import "time"

// Remaining computes the time left in a position's bidding window from an
// authoritative start timestamp and fixed duration. It is a pure function so
// callers recompute it on every tick instead of accumulating local state,
// which keeps countdowns drift-free across reconnects.
func Remaining(now, startTime time.Time, duration time.Duration) time.Duration {
	left := startTime.Add(duration).Sub(now)
	if left < 0 {
		return 0
	}
	return left
}
