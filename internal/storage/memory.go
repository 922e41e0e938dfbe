package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"unibuddy/backend/internal/apperr"
	"unibuddy/backend/internal/models"
)

// MemoryStore is a process-local Storage. It is used when no database is
// configured and in tests. Every value handed out is a copy.
type MemoryStore struct {
	mu         sync.RWMutex
	users      map[string]models.User
	rooms      map[string]models.ChatRoom
	messages   map[string][]models.Message
	videoRooms map[string]*models.VideoRoom
}

var _ Storage = (*MemoryStore)(nil)
var _ Storage = (*Service)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:      make(map[string]models.User),
		rooms:      make(map[string]models.ChatRoom),
		messages:   make(map[string][]models.Message),
		videoRooms: make(map[string]*models.VideoRoom),
	}
}

func (m *MemoryStore) GetUserByID(_ context.Context, userID string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[userID]
	if !ok {
		return nil, apperr.ErrUserNotFound
	}
	return &u, nil
}

func (m *MemoryStore) SaveUser(_ context.Context, user *models.User) error {
	if user.ID == "" {
		_ = user.BeforeCreate(nil)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = *user
	return nil
}

func (m *MemoryStore) SaveRoom(_ context.Context, room *models.ChatRoom) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rooms[room.RoomID] = *room
	return nil
}

func (m *MemoryStore) GetRoomByID(_ context.Context, roomID string) (*models.ChatRoom, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[roomID]
	if !ok {
		return nil, apperr.ErrRoomNotFound
	}
	return &r, nil
}

func (m *MemoryStore) GetActiveRoomIDForUser(_ context.Context, userID string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var latest *models.ChatRoom
	for _, r := range m.rooms {
		if !r.IsActive || !r.HasMember(userID) {
			continue
		}
		if latest == nil || r.StartedAt.After(latest.StartedAt) {
			r := r
			latest = &r
		}
	}
	if latest == nil {
		return "", nil
	}
	return latest.RoomID, nil
}

func (m *MemoryStore) CloseRoom(_ context.Context, roomID, endedBy string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[roomID]
	if !ok {
		return apperr.ErrRoomNotFound
	}
	now := time.Now().UTC()
	r.IsActive = false
	r.EndedBy = endedBy
	r.EndedAt = &now
	m.rooms[roomID] = r
	return nil
}

func (m *MemoryStore) SaveMessage(_ context.Context, msg *models.Message) error {
	stampMessage(msg)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages[msg.RoomID] = append(m.messages[msg.RoomID], *msg)
	return nil
}

func (m *MemoryStore) GetChatHistory(_ context.Context, roomID string) ([]models.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	history := append([]models.Message(nil), m.messages[roomID]...)
	sort.SliceStable(history, func(i, j int) bool { return history[i].ID < history[j].ID })
	return history, nil
}

func (m *MemoryStore) CreateVideoRoom(_ context.Context, room *models.VideoRoom) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, taken := m.videoRooms[room.Code]; taken {
		return apperr.ErrRoomCodeTaken
	}
	_ = room.BeforeCreate(nil)
	if room.CreatedAt.IsZero() {
		room.CreatedAt = time.Now().UTC()
	}
	m.videoRooms[room.Code] = room.Clone()
	return nil
}

func (m *MemoryStore) GetVideoRoomByCode(_ context.Context, code string) (*models.VideoRoom, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.videoRooms[code]
	if !ok {
		return nil, apperr.ErrRoomNotFound
	}
	return r.Clone(), nil
}

func (m *MemoryStore) VideoRoomCodeExists(_ context.Context, code string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.videoRooms[code]
	return ok, nil
}

func (m *MemoryStore) UpdateVideoRoom(_ context.Context, code string, fn func(room *models.VideoRoom) error) (*models.VideoRoom, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.videoRooms[code]
	if !ok {
		return nil, apperr.ErrRoomNotFound
	}
	working := r.Clone()
	if err := fn(working); err != nil {
		return nil, err
	}
	m.videoRooms[code] = working
	return working.Clone(), nil
}

func (m *MemoryStore) ListVideoRoomsForUser(_ context.Context, userID string) ([]models.VideoRoom, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var rooms []models.VideoRoom
	for _, r := range m.videoRooms {
		if r.IsActive && (r.IsHost(userID) || r.HasParticipant(userID)) {
			rooms = append(rooms, *r.Clone())
		}
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].CreatedAt.After(rooms[j].CreatedAt) })
	return rooms, nil
}
