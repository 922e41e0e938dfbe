package models

import "time"

// MatchQueueEntry is a user's outstanding request to be matched. Entries
// live only in the matcher's memory.
type MatchQueueEntry struct {
	UserID string
	Region string
	Campus string
	// EnqueuedAt orders waiters; re-polling does not reset it.
	EnqueuedAt time.Time
	// LastPolledAt is refreshed on every poll and drives expiry.
	LastPolledAt time.Time
}

// SameScope reports whether e and other may be paired.
func (e MatchQueueEntry) SameScope(other MatchQueueEntry) bool {
	return e.Region == other.Region && e.Campus == other.Campus
}

// Match statuses returned by the matcher.
const (
	MatchStatusMatched = "matched"
	MatchStatusWaiting = "waiting"
)

// MatchResult is the outcome of one find-match poll.
type MatchResult struct {
	Status string `json:"status"`
	RoomID string `json:"room_id,omitempty"`
}
