package queue

import (
	"math"
	"time"
)

// Backoff returns base * 2^(attempt-1) for attempt >= 1 and 0 otherwise.
// The result saturates at the largest representable duration.
func Backoff(base time.Duration, attempt int) time.Duration {
	if attempt <= 0 || base <= 0 {
		return 0
	}

	delay := float64(base) * math.Pow(2, float64(attempt-1))
	if delay >= math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(delay)
}
