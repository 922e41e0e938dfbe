package chathub

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"unibuddy/backend/internal/apperr"
	"unibuddy/backend/internal/models"
	"unibuddy/backend/internal/storage"
)

// ManagerService is the chat session registry. It holds at most one live
// connection per (room, user) and relays messages between the two members.
type ManagerService struct {
	mu    sync.RWMutex
	rooms map[string]map[string]Client

	Storage storage.Storage
}

var _ RoomSession = (*ManagerService)(nil)

func NewManagerService(s storage.Storage) *ManagerService {
	return &ManagerService{
		rooms:   make(map[string]map[string]Client),
		Storage: s,
	}
}

// Admit registers client in the chat room. A reconnect replaces the
// previous connection without notifying it.
func (m *ManagerService) Admit(ctx context.Context, roomID string, client Client) error {
	room, err := m.Storage.GetRoomByID(ctx, roomID)
	if err != nil {
		return err
	}
	if !room.HasMember(client.GetUserID()) {
		return apperr.ErrNotAuthorized
	}

	m.mu.Lock()
	conns, ok := m.rooms[roomID]
	if !ok {
		conns = make(map[string]Client)
		m.rooms[roomID] = conns
	}
	conns[client.GetUserID()] = client
	m.mu.Unlock()

	log.Printf("INFO: chat socket admitted room=%s user=%s", roomID, client.GetUserID())
	return nil
}

// HandleMessage persists a chat message and relays it to the other open
// sockets of the room. Delivery is best-effort.
func (m *ManagerService) HandleMessage(ctx context.Context, client Client, raw []byte) {
	var in inboundChatMessage
	if err := json.Unmarshal(raw, &in); err != nil {
		log.Printf("WARN: malformed chat frame user=%s room=%s: %v", client.GetUserID(), client.GetRoomID(), err)
		return
	}
	if in.Content == "" {
		return
	}

	sender := client.GetUser()
	msg := &models.Message{
		RoomID:      client.GetRoomID(),
		SenderID:    client.GetUserID(),
		Content:     in.Content,
		Type:        in.Type,
		IsAnonymous: sender != nil && sender.IsAnonymousMode,
	}
	if err := m.Storage.SaveMessage(ctx, msg); err != nil {
		log.Printf("ERROR: failed to persist message room=%s user=%s: %v", msg.RoomID, msg.SenderID, err)
		return
	}

	payload := EncodeEvent(messageEvent{Type: EventMessage, Message: models.NewMessageView(msg, sender)})
	if payload == nil {
		return
	}
	m.broadcast(msg.RoomID, payload, msg.SenderID)
}

// EndChat deactivates the room and tells the other member.
func (m *ManagerService) EndChat(ctx context.Context, roomID, userID string) error {
	room, err := m.Storage.GetRoomByID(ctx, roomID)
	if err != nil {
		return err
	}
	if !room.HasMember(userID) {
		return apperr.ErrNotAuthorized
	}
	if err := m.Storage.CloseRoom(ctx, roomID, userID); err != nil {
		return err
	}

	m.broadcast(roomID, EncodeEvent(chatEndedEvent{Type: EventChatEnded}), userID)
	log.Printf("INFO: chat ended room=%s by=%s", roomID, userID)
	return nil
}

// Disconnect removes client only if it is still the registered connection
// for its (room, user).
func (m *ManagerService) Disconnect(client Client) {
	m.mu.Lock()
	defer m.mu.Unlock()

	conns, ok := m.rooms[client.GetRoomID()]
	if !ok {
		return
	}
	if current, ok := conns[client.GetUserID()]; ok && current == client {
		delete(conns, client.GetUserID())
	}
	if len(conns) == 0 {
		delete(m.rooms, client.GetRoomID())
	}
}

// History returns the room's messages with sender profiles resolved.
func (m *ManagerService) History(ctx context.Context, roomID, userID string) ([]models.MessageView, error) {
	room, err := m.Storage.GetRoomByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !room.HasMember(userID) {
		return nil, apperr.ErrNotAuthorized
	}

	history, err := m.Storage.GetChatHistory(ctx, roomID)
	if err != nil {
		return nil, err
	}

	senders := make(map[string]*models.User, 2)
	views := make([]models.MessageView, 0, len(history))
	for i := range history {
		msg := &history[i]
		sender, seen := senders[msg.SenderID]
		if !seen {
			sender, err = m.Storage.GetUserByID(ctx, msg.SenderID)
			if err != nil {
				log.Printf("WARN: sender %s of message %s not found: %v", msg.SenderID, msg.ID, err)
				sender = nil
			}
			senders[msg.SenderID] = sender
		}
		views = append(views, models.NewMessageView(msg, sender))
	}
	return views, nil
}

// IsConnected reports whether userID has a live socket in roomID.
func (m *ManagerService) IsConnected(roomID, userID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.rooms[roomID][userID]
	return ok
}

// ConnectionCount returns the number of live chat sockets.
func (m *ManagerService) ConnectionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, conns := range m.rooms {
		n += len(conns)
	}
	return n
}

func (m *ManagerService) broadcast(roomID string, payload []byte, exceptUserID string) {
	if payload == nil {
		return
	}
	m.mu.RLock()
	targets := make([]Client, 0, len(m.rooms[roomID]))
	for userID, c := range m.rooms[roomID] {
		if userID != exceptUserID {
			targets = append(targets, c)
		}
	}
	m.mu.RUnlock()

	for _, c := range targets {
		c.Send(payload)
	}
}
