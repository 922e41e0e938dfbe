package models

import "time"

// ChatRoom represents a 1-on-1 chat session between two matched users.
// Rooms are never deleted, only deactivated, so history stays readable.
type ChatRoom struct {
	// RoomID is the unique identifier for the chat room (UUID).
	RoomID string `gorm:"primaryKey" json:"room_id"`
	// User1ID is the user who was already waiting in the queue.
	User1ID string `gorm:"index" json:"user1_id"`
	// User2ID is the user whose poll completed the match.
	User2ID string `gorm:"index" json:"user2_id"`
	// IsActive is false once either member ended the chat.
	IsActive bool `gorm:"index" json:"is_active"`
	// EndedBy is the member who ended the chat.
	EndedBy string `json:"ended_by,omitempty"`
	// StartedAt is the timestamp when the chat room was created.
	StartedAt time.Time `json:"started_at"`
	// EndedAt is set when the room is deactivated.
	EndedAt *time.Time `json:"ended_at,omitempty"`
}

// HasMember reports whether userID is one of the two members.
func (r *ChatRoom) HasMember(userID string) bool {
	return userID != "" && (r.User1ID == userID || r.User2ID == userID)
}

// Members returns both member IDs.
func (r *ChatRoom) Members() []string {
	return []string{r.User1ID, r.User2ID}
}
