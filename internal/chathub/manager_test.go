package chathub_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"unibuddy/backend/internal/apperr"
	"unibuddy/backend/internal/chathub"
	"unibuddy/backend/internal/models"
	"unibuddy/backend/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newChatFixture(t *testing.T) (*chathub.ManagerService, *storage.MemoryStore) {
	t.Helper()
	ctx := context.Background()
	store := storage.NewMemoryStore()
	require.NoError(t, store.SaveUser(ctx, &models.User{ID: "alice", Name: "Alice", Picture: "a.png"}))
	require.NoError(t, store.SaveUser(ctx, &models.User{ID: "bob", Name: "Bob", IsAnonymousMode: true}))
	require.NoError(t, store.SaveRoom(ctx, &models.ChatRoom{RoomID: "room1", User1ID: "alice", User2ID: "bob", IsActive: true, StartedAt: time.Now()}))
	return chathub.NewManagerService(store), store
}

func admitted(t *testing.T, hub *chathub.ManagerService, userID string) *MockClient {
	t.Helper()
	c := newMockClient(userID, "room1")
	require.NoError(t, hub.Admit(context.Background(), "room1", c))
	return c
}

func TestManager_AdmitChecksRoomAndMembership(t *testing.T) {
	hub, _ := newChatFixture(t)
	ctx := context.Background()

	err := hub.Admit(ctx, "missing", newMockClient("alice", "missing"))
	assert.ErrorIs(t, err, apperr.ErrRoomNotFound)

	err = hub.Admit(ctx, "room1", newMockClient("mallory", "room1"))
	assert.ErrorIs(t, err, apperr.ErrNotAuthorized)
	assert.Equal(t, 0, hub.ConnectionCount())

	admitted(t, hub, "alice")
	assert.True(t, hub.IsConnected("room1", "alice"))
	assert.Equal(t, 1, hub.ConnectionCount())
}

func TestManager_RelaysToPartnerOnly(t *testing.T) {
	hub, store := newChatFixture(t)
	alice := admitted(t, hub, "alice")
	bob := admitted(t, hub, "bob")
	alice.user = &models.User{ID: "alice", Name: "Alice", Picture: "a.png"}

	hub.HandleMessage(context.Background(), alice, []byte(`{"content":"hello","type":"text"}`))

	assert.Empty(t, alice.Events(), "sender does not get an echo")
	events := bob.Events()
	require.Len(t, events, 1)
	assert.Equal(t, chathub.EventMessage, events[0]["type"])

	msg := events[0]["message"].(map[string]any)
	assert.Equal(t, "hello", msg["content"])
	assert.Equal(t, "alice", msg["sender_id"])
	assert.Equal(t, "room1", msg["room_id"])
	assert.Equal(t, "text", msg["message_type"])
	assert.Equal(t, "Alice", msg["sender_name"])
	assert.Equal(t, "a.png", msg["sender_picture"])
	assert.NotEmpty(t, msg["message_id"])

	history, err := store.GetChatHistory(context.Background(), "room1")
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestManager_AnonymousSenderHidesProfile(t *testing.T) {
	hub, _ := newChatFixture(t)
	alice := admitted(t, hub, "alice")
	bob := admitted(t, hub, "bob")
	bob.user = &models.User{ID: "bob", Name: "Bob", IsAnonymousMode: true}

	hub.HandleMessage(context.Background(), bob, []byte(`{"content":"psst"}`))

	events := alice.Events()
	require.Len(t, events, 1)
	msg := events[0]["message"].(map[string]any)
	assert.Equal(t, true, msg["is_anonymous"])
	assert.Nil(t, msg["sender_name"])
	assert.Nil(t, msg["sender_picture"])
	assert.Equal(t, "text", msg["message_type"], "type defaults to text")
}

func TestManager_IgnoresEmptyAndMalformedFrames(t *testing.T) {
	hub, store := newChatFixture(t)
	alice := admitted(t, hub, "alice")
	bob := admitted(t, hub, "bob")

	hub.HandleMessage(context.Background(), alice, []byte(`{"content":""}`))
	hub.HandleMessage(context.Background(), alice, []byte(`not json`))

	assert.Empty(t, bob.Events())
	history, _ := store.GetChatHistory(context.Background(), "room1")
	assert.Empty(t, history)
}

func TestManager_PersistFailureDropsMessage(t *testing.T) {
	storageMock := new(MockStorage)
	hub := chathub.NewManagerService(storageMock)
	room := &models.ChatRoom{RoomID: "room1", User1ID: "alice", User2ID: "bob", IsActive: true}
	storageMock.On("GetRoomByID", mock.Anything, "room1").Return(room, nil)
	storageMock.On("SaveMessage", mock.Anything, mock.AnythingOfType("*models.Message")).Return(errors.New("db down"))

	alice := newMockClient("alice", "room1")
	bob := newMockClient("bob", "room1")
	require.NoError(t, hub.Admit(context.Background(), "room1", alice))
	require.NoError(t, hub.Admit(context.Background(), "room1", bob))

	hub.HandleMessage(context.Background(), alice, []byte(`{"content":"lost"}`))

	assert.Empty(t, bob.Events())
	storageMock.AssertExpectations(t)
}

func TestManager_ReconnectReplacesOldSocket(t *testing.T) {
	hub, _ := newChatFixture(t)
	oldBob := admitted(t, hub, "bob")
	newBob := admitted(t, hub, "bob")
	alice := admitted(t, hub, "alice")

	assert.Equal(t, 2, hub.ConnectionCount())

	// The stale socket closing must not evict its replacement.
	hub.Disconnect(oldBob)
	assert.True(t, hub.IsConnected("room1", "bob"))

	hub.HandleMessage(context.Background(), alice, []byte(`{"content":"hi"}`))
	assert.Empty(t, oldBob.Events())
	assert.Len(t, newBob.Events(), 1)

	hub.Disconnect(newBob)
	hub.Disconnect(alice)
	assert.Equal(t, 0, hub.ConnectionCount())
}

func TestManager_EndChatNotifiesPartner(t *testing.T) {
	hub, store := newChatFixture(t)
	alice := admitted(t, hub, "alice")
	bob := admitted(t, hub, "bob")
	ctx := context.Background()

	assert.ErrorIs(t, hub.EndChat(ctx, "room1", "mallory"), apperr.ErrNotAuthorized)

	require.NoError(t, hub.EndChat(ctx, "room1", "alice"))

	events := bob.Events()
	require.Len(t, events, 1)
	assert.Equal(t, chathub.EventChatEnded, events[0]["type"])
	assert.Empty(t, alice.Events())

	room, err := store.GetRoomByID(ctx, "room1")
	require.NoError(t, err)
	assert.False(t, room.IsActive)
	assert.Equal(t, "alice", room.EndedBy)
}

func TestManager_HistoryResolvesSenders(t *testing.T) {
	hub, store := newChatFixture(t)
	ctx := context.Background()
	require.NoError(t, store.SaveMessage(ctx, &models.Message{RoomID: "room1", SenderID: "alice", Content: "one"}))
	require.NoError(t, store.SaveMessage(ctx, &models.Message{RoomID: "room1", SenderID: "bob", Content: "two", IsAnonymous: true}))

	views, err := hub.History(ctx, "room1", "bob")
	require.NoError(t, err)
	require.Len(t, views, 2)
	require.NotNil(t, views[0].SenderName)
	assert.Equal(t, "Alice", *views[0].SenderName)
	assert.Nil(t, views[1].SenderName)

	_, err = hub.History(ctx, "room1", "mallory")
	assert.ErrorIs(t, err, apperr.ErrNotAuthorized)
}

func TestParseRoomKind(t *testing.T) {
	kind, err := chathub.ParseRoomKind("")
	require.NoError(t, err)
	assert.Equal(t, chathub.RoomKindChat, kind)

	kind, err = chathub.ParseRoomKind("video")
	require.NoError(t, err)
	assert.Equal(t, chathub.RoomKindVideo, kind)

	_, err = chathub.ParseRoomKind("radio")
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}
