package notifications

import "time"

const MaxUpdateAttempts = maxUpdateAttempts

// SetClock replaces the time source of s.
func (s *RedisStorage) SetClock(now func() time.Time) {
	s.now = now
}
