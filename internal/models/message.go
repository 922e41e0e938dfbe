package models

import "time"

// Message is one persisted chat payload. Messages are append-only.
type Message struct {
	// ID is a ULID, so ordering by ID follows creation order.
	ID string `gorm:"primaryKey" json:"message_id"`
	// RoomID is the chat room the message was sent in.
	RoomID string `gorm:"type:text;not null;index:idx_room_msg" json:"room_id"`
	// SenderID is the user who sent the message.
	SenderID string `gorm:"type:text;not null" json:"sender_id"`
	// Content is the message body.
	Content string `gorm:"type:text;not null" json:"content"`
	// Type is the client-declared kind, "text" when omitted.
	Type string `gorm:"type:text;not null" json:"message_type"`
	// IsAnonymous snapshots the sender's anonymity at send time.
	IsAnonymous bool `json:"is_anonymous"`
	// CreatedAt is the server time the message was persisted.
	CreatedAt time.Time `gorm:"index:idx_room_msg" json:"timestamp"`
}

// MessageView is the wire representation of a message, with the sender's
// public profile resolved. Name and picture are nil for anonymous messages.
type MessageView struct {
	MessageID     string    `json:"message_id"`
	RoomID        string    `json:"room_id"`
	SenderID      string    `json:"sender_id"`
	Content       string    `json:"content"`
	MessageType   string    `json:"message_type"`
	IsAnonymous   bool      `json:"is_anonymous"`
	Timestamp     time.Time `json:"timestamp"`
	SenderName    *string   `json:"sender_name"`
	SenderPicture *string   `json:"sender_picture"`
}

// NewMessageView builds the view of msg as sent by sender. sender may be nil
// when the profile could not be loaded.
func NewMessageView(msg *Message, sender *User) MessageView {
	v := MessageView{
		MessageID:   msg.ID,
		RoomID:      msg.RoomID,
		SenderID:    msg.SenderID,
		Content:     msg.Content,
		MessageType: msg.Type,
		IsAnonymous: msg.IsAnonymous,
		Timestamp:   msg.CreatedAt,
	}
	if !msg.IsAnonymous && sender != nil {
		name, picture := sender.Name, sender.Picture
		v.SenderName = &name
		v.SenderPicture = &picture
	}
	return v
}
