package chathub

import "time"

// SetClock replaces the matcher's time source.
func (m *MatcherService) SetClock(now func() time.Time) { m.now = now }

// Sweep runs one expiry pass at now.
func (m *MatcherService) Sweep(now time.Time) int { return m.sweep(now) }

// Queued reports whether userID has a queue entry and returns it.
func (m *MatcherService) Queued(userID string) (time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.queue[userID]
	return e.EnqueuedAt, ok
}
