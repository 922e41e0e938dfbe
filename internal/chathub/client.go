package chathub

import (
	"context"

	"unibuddy/backend/internal/models"
)

// Client is one admitted socket. It abstracts the transport so room
// sessions can be exercised without a network connection.
type Client interface {
	// GetUserID returns the unique identifier for the user associated with the client.
	GetUserID() string
	// GetRoomID returns the chat room id or video room code the client was admitted to.
	GetRoomID() string
	// GetUser returns the authenticated user's profile.
	GetUser() *models.User

	// Send queues payload for delivery. It never blocks and reports false
	// when the client is closed or its buffer is full.
	Send(payload []byte) bool

	// Run starts the client's read and write pumps.
	Run(ctx context.Context)
	// Close deregisters the client from its session and stops the write pump.
	Close()
}
