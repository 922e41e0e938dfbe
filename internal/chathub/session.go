package chathub

import (
	"context"
	"fmt"
	"strings"

	"unibuddy/backend/internal/apperr"
)

// RoomKind selects which session a socket is handed to.
type RoomKind int

const (
	RoomKindChat RoomKind = iota
	RoomKindVideo
)

func (k RoomKind) String() string {
	if k == RoomKindVideo {
		return "video"
	}
	return "chat"
}

// ParseRoomKind reads the ?type= query value. Empty means chat.
func ParseRoomKind(s string) (RoomKind, error) {
	switch strings.ToLower(s) {
	case "", "chat":
		return RoomKindChat, nil
	case "video":
		return RoomKindVideo, nil
	}
	return RoomKindChat, fmt.Errorf("unknown room type %q: %w", s, apperr.ErrInvalidInput)
}

// RoomSession owns the live connections of one kind of room.
type RoomSession interface {
	// Admit registers client in roomID or returns why it may not join.
	Admit(ctx context.Context, roomID string, client Client) error
	// HandleMessage processes one inbound frame from client.
	HandleMessage(ctx context.Context, client Client, raw []byte)
	// Disconnect removes client if it is still the registered connection.
	Disconnect(client Client)
}
