package chathub_test

import (
	"context"
	"encoding/json"
	"sync"

	"unibuddy/backend/internal/models"

	"github.com/stretchr/testify/mock"
)

// MockStorage is a testify mock of storage.Storage.
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockStorage) SaveUser(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockStorage) SaveRoom(ctx context.Context, room *models.ChatRoom) error {
	args := m.Called(ctx, room)
	return args.Error(0)
}

func (m *MockStorage) GetRoomByID(ctx context.Context, roomID string) (*models.ChatRoom, error) {
	args := m.Called(ctx, roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ChatRoom), args.Error(1)
}

func (m *MockStorage) GetActiveRoomIDForUser(ctx context.Context, userID string) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

func (m *MockStorage) CloseRoom(ctx context.Context, roomID, endedBy string) error {
	args := m.Called(ctx, roomID, endedBy)
	return args.Error(0)
}

func (m *MockStorage) SaveMessage(ctx context.Context, msg *models.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockStorage) GetChatHistory(ctx context.Context, roomID string) ([]models.Message, error) {
	args := m.Called(ctx, roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Message), args.Error(1)
}

func (m *MockStorage) CreateVideoRoom(ctx context.Context, room *models.VideoRoom) error {
	args := m.Called(ctx, room)
	return args.Error(0)
}

func (m *MockStorage) GetVideoRoomByCode(ctx context.Context, code string) (*models.VideoRoom, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.VideoRoom), args.Error(1)
}

func (m *MockStorage) VideoRoomCodeExists(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockStorage) UpdateVideoRoom(ctx context.Context, code string, fn func(room *models.VideoRoom) error) (*models.VideoRoom, error) {
	args := m.Called(ctx, code, fn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.VideoRoom), args.Error(1)
}

func (m *MockStorage) ListVideoRoomsForUser(ctx context.Context, userID string) ([]models.VideoRoom, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.VideoRoom), args.Error(1)
}

// MockClient records every frame sent to it.
type MockClient struct {
	user   *models.User
	roomID string

	mu     sync.Mutex
	sent   [][]byte
	closed bool
}

func newMockClient(userID, roomID string) *MockClient {
	return &MockClient{user: &models.User{ID: userID, Name: "name-" + userID}, roomID: roomID}
}

func (c *MockClient) GetUserID() string     { return c.user.ID }
func (c *MockClient) GetRoomID() string     { return c.roomID }
func (c *MockClient) GetUser() *models.User { return c.user }
func (c *MockClient) Run(context.Context)   {}

func (c *MockClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *MockClient) Send(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.sent = append(c.sent, payload)
	return true
}

// Events decodes every frame received so far.
func (c *MockClient) Events() []map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]map[string]any, 0, len(c.sent))
	for _, raw := range c.sent {
		var ev map[string]any
		if err := json.Unmarshal(raw, &ev); err == nil {
			out = append(out, ev)
		}
	}
	return out
}
