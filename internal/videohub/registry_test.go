package videohub_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"unibuddy/backend/internal/apperr"
	"unibuddy/backend/internal/models"
	"unibuddy/backend/internal/storage"
	"unibuddy/backend/internal/videohub"
	"unibuddy/backend/internal/videoroom"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingClient struct {
	user   *models.User
	roomID string

	mu     sync.Mutex
	sent   [][]byte
	closed bool
}

func newClient(userID, roomID string) *recordingClient {
	return &recordingClient{user: &models.User{ID: userID, Name: "Name " + userID}, roomID: roomID}
}

func (c *recordingClient) GetUserID() string     { return c.user.ID }
func (c *recordingClient) GetRoomID() string     { return c.roomID }
func (c *recordingClient) GetUser() *models.User { return c.user }
func (c *recordingClient) Run(context.Context)   {}

func (c *recordingClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *recordingClient) Send(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.sent = append(c.sent, payload)
	return true
}

func (c *recordingClient) events() []map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]map[string]any, 0, len(c.sent))
	for _, raw := range c.sent {
		var ev map[string]any
		if json.Unmarshal(raw, &ev) == nil {
			out = append(out, ev)
		}
	}
	return out
}

func (c *recordingClient) ofType(typ string) []map[string]any {
	var out []map[string]any
	for _, ev := range c.events() {
		if ev["type"] == typ {
			out = append(out, ev)
		}
	}
	return out
}

func (c *recordingClient) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = nil
}

func (c *recordingClient) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

type fixture struct {
	rooms    *videoroom.Service
	registry *videohub.Registry
	code     string
}

func newFixture(t *testing.T, settings *models.VideoRoomSettings, members ...string) *fixture {
	t.Helper()
	ctx := context.Background()
	rooms := videoroom.NewService(storage.NewMemoryStore(), videoroom.NewRoomCodeGenerator())
	room, err := rooms.Create(ctx, "host", videoroom.CreateParams{Name: "call", Settings: settings})
	require.NoError(t, err)
	for _, m := range members {
		_, err := rooms.Join(ctx, room.Code, m, "")
		require.NoError(t, err)
	}
	return &fixture{rooms: rooms, registry: videohub.NewRegistry(rooms), code: room.Code}
}

func (f *fixture) admit(t *testing.T, userID string) *recordingClient {
	t.Helper()
	c := newClient(userID, f.code)
	require.NoError(t, f.registry.Admit(context.Background(), f.code, c))
	return c
}

func (f *fixture) send(from *recordingClient, frame string) {
	f.registry.HandleMessage(context.Background(), from, []byte(frame))
}

func TestAdmit_RejectsNonParticipantsAndEndedRooms(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	err := f.registry.Admit(ctx, f.code, newClient("stranger", f.code))
	assert.ErrorIs(t, err, apperr.ErrNotAuthorized)

	err = f.registry.Admit(ctx, "ZZZZZZZZ", newClient("host", "ZZZZZZZZ"))
	assert.ErrorIs(t, err, apperr.ErrRoomNotFound)

	require.NoError(t, f.rooms.End(ctx, f.code, "host"))
	err = f.registry.Admit(ctx, f.code, newClient("host", f.code))
	assert.ErrorIs(t, err, apperr.ErrRoomNotFound)
	assert.Equal(t, 0, f.registry.ConnectionCount())
}

func TestAdmit_BroadcastsRosterIncludingNewcomer(t *testing.T) {
	f := newFixture(t, nil, "a")
	host := f.admit(t, "host")
	a := f.admit(t, "a")

	updates := a.ofType(videohub.TypeParticipantsUpdate)
	require.Len(t, updates, 1, "newcomer sees its own join")
	assert.Equal(t, videohub.EventUserJoined, updates[0]["event"])
	assert.Equal(t, "a", updates[0]["odId"])
	assert.Equal(t, "Name a", updates[0]["userName"])

	roster := updates[0]["participants"].([]any)
	require.Len(t, roster, 2)
	assert.Equal(t, "host", roster[0].(map[string]any)["_id"])
	assert.Equal(t, "a", roster[1].(map[string]any)["_id"])

	assert.Len(t, host.ofType(videohub.TypeParticipantsUpdate), 2)
	assert.Equal(t, 2, f.registry.ConnectionCount())
}

func TestDisconnect_BroadcastsUserLeftAndKeepsMembership(t *testing.T) {
	f := newFixture(t, nil, "a")
	host := f.admit(t, "host")
	a := f.admit(t, "a")
	host.reset()

	f.registry.Disconnect(a)

	left := host.ofType(videohub.TypeParticipantsUpdate)
	require.Len(t, left, 1)
	assert.Equal(t, videohub.EventUserLeft, left[0]["event"])
	assert.Equal(t, "a", left[0]["odId"])
	assert.Len(t, f.registry.Roster(f.code), 1)

	room, err := f.rooms.ActiveRoom(context.Background(), f.code)
	require.NoError(t, err)
	assert.True(t, room.HasParticipant("a"), "closing a socket is not leaving")

	f.registry.Disconnect(host)
	assert.Nil(t, f.registry.Roster(f.code))
	assert.Equal(t, 0, f.registry.ConnectionCount())
}

func TestDisconnect_StaleSocketDoesNotEvictReplacement(t *testing.T) {
	f := newFixture(t, nil, "a")
	old := f.admit(t, "a")
	replacement := f.admit(t, "a")

	f.registry.Disconnect(old)

	roster := f.registry.Roster(f.code)
	require.Len(t, roster, 1)
	assert.Equal(t, "a", roster[0].ID)

	f.registry.Disconnect(replacement)
	assert.Equal(t, 0, f.registry.ConnectionCount())
}

func TestChatMessage_FansOutToEveryoneIncludingSender(t *testing.T) {
	f := newFixture(t, nil, "a")
	host := f.admit(t, "host")
	a := f.admit(t, "a")

	f.send(a, `{"type":"chat_message","content":"hello all"}`)

	for _, c := range []*recordingClient{host, a} {
		msgs := c.ofType(videohub.TypeChatMessage)
		require.Len(t, msgs, 1)
		assert.Equal(t, "hello all", msgs[0]["content"])
		sender := msgs[0]["sender"].(map[string]any)
		assert.Equal(t, "a", sender["_id"])
		assert.Equal(t, "Name a", sender["name"])
		assert.NotEmpty(t, msgs[0]["timestamp"])
	}
}

func TestMediaState_MergesLiveState(t *testing.T) {
	f := newFixture(t, nil, "a")
	host := f.admit(t, "host")
	a := f.admit(t, "a")

	f.send(a, `{"type":"media_state","state":{"video":true,"audio":true}}`)
	f.send(a, `{"type":"media_state","state":{"audio":false}}`)

	updates := host.ofType(videohub.TypeMediaStateUpdate)
	require.Len(t, updates, 2)
	state := updates[1]["state"].(map[string]any)
	assert.Equal(t, true, state["video"])
	assert.Equal(t, false, state["audio"])
	assert.Equal(t, "a", updates[1]["odId"])

	f.send(a, `{"type":"speaking","speaking":true}`)
	speaking := host.ofType(videohub.TypeSpeaking)
	require.Len(t, speaking, 1)
	assert.Equal(t, true, speaking[0]["speaking"])

	roster := f.registry.Roster(f.code)
	require.Len(t, roster, 2)
	assert.Equal(t, videohub.LiveMediaState{Video: true, Speaking: true}, roster[1].MediaState)
}

func TestHandRaiseAndScreenShare(t *testing.T) {
	f := newFixture(t, nil, "a")
	host := f.admit(t, "host")
	a := f.admit(t, "a")

	f.send(a, `{"type":"hand_raised","raised":true}`)
	f.send(a, `{"type":"screen_share_started"}`)
	f.send(a, `{"type":"screen_share_stopped"}`)

	raised := host.ofType(videohub.TypeHandRaised)
	require.Len(t, raised, 1)
	assert.Equal(t, true, raised[0]["raised"])
	assert.Equal(t, "Name a", raised[0]["userName"])

	started := host.ofType(videohub.TypeScreenShareStarted)
	require.Len(t, started, 1)
	assert.Equal(t, "a", started[0]["odId"])
	assert.Len(t, host.ofType(videohub.TypeScreenShareStopped), 1)
}

func TestSettingsAreEnforced(t *testing.T) {
	settings := models.DefaultVideoRoomSettings()
	settings.AllowChat = false
	settings.AllowHandRaise = false
	settings.HostOnlyScreenShare = true
	f := newFixture(t, &settings, "a")
	host := f.admit(t, "host")
	a := f.admit(t, "a")

	f.send(a, `{"type":"chat_message","content":"muted"}`)
	f.send(a, `{"type":"hand_raised","raised":true}`)
	f.send(a, `{"type":"screen_share_started"}`)

	assert.Empty(t, host.ofType(videohub.TypeChatMessage))
	assert.Empty(t, host.ofType(videohub.TypeHandRaised))
	assert.Empty(t, host.ofType(videohub.TypeScreenShareStarted))

	f.send(host, `{"type":"screen_share_started"}`)
	assert.Len(t, a.ofType(videohub.TypeScreenShareStarted), 1, "host may still share")
}

func TestUnknownAndMalformedFramesAreIgnored(t *testing.T) {
	f := newFixture(t, nil)
	host := f.admit(t, "host")
	host.reset()

	f.send(host, `{"type":"teleport"}`)
	f.send(host, `{{{`)

	assert.Empty(t, host.events())
	assert.Equal(t, 1, f.registry.ConnectionCount())
}

func TestRelay_UnicastsOpaquePayload(t *testing.T) {
	f := newFixture(t, nil, "a", "b")
	host := f.admit(t, "host")
	a := f.admit(t, "a")
	b := f.admit(t, "b")

	f.send(host, `{"type":"webrtc_signal","targetId":"a","signalType":"offer","sdp":{"type":"offer","sdp":"v=0\r\no=- 1 2 IN IP4 127.0.0.1"}}`)

	signals := a.ofType(videohub.TypeWebRTCSignal)
	require.Len(t, signals, 1)
	assert.Equal(t, "offer", signals[0]["signalType"])
	assert.Equal(t, "host", signals[0]["senderId"])
	sdp := signals[0]["sdp"].(map[string]any)
	assert.Equal(t, "v=0\r\no=- 1 2 IN IP4 127.0.0.1", sdp["sdp"])

	assert.Empty(t, b.ofType(videohub.TypeWebRTCSignal), "relay is unicast")
	assert.Empty(t, host.ofType(videohub.TypeWebRTCSignal))
}

func TestRelay_MissingTargetIsSilentlyDropped(t *testing.T) {
	f := newFixture(t, nil, "a")
	host := f.admit(t, "host")
	host.reset()

	ok := f.registry.Relay(f.code, "host", "a", "candidate", nil, json.RawMessage(`{"candidate":"x"}`))
	assert.False(t, ok)
	assert.Empty(t, host.events(), "sender gets no error frame")

	a := f.admit(t, "a")
	ok = f.registry.Relay(f.code, "host", "a", "candidate", nil, json.RawMessage(`{"candidate":"x"}`))
	assert.True(t, ok)
	assert.Len(t, a.ofType(videohub.TypeWebRTCSignal), 1)
}

func TestRoomEnded_HostOnlyAndExactlyOnce(t *testing.T) {
	f := newFixture(t, nil, "a")
	host := f.admit(t, "host")
	a := f.admit(t, "a")

	f.send(a, `{"type":"room_ended"}`)
	assert.Empty(t, host.ofType(videohub.TypeRoomEnded), "non-host cannot end the room")

	f.send(host, `{"type":"room_ended"}`)
	f.send(host, `{"type":"room_ended"}`)

	for _, c := range []*recordingClient{host, a} {
		ended := c.ofType(videohub.TypeRoomEnded)
		require.Len(t, ended, 1)
		assert.Equal(t, "Name host", ended[0]["by"])
	}
	assert.Equal(t, 0, f.registry.ConnectionCount())

	_, err := f.rooms.ActiveRoom(context.Background(), f.code)
	assert.ErrorIs(t, err, apperr.ErrRoomNotFound)

	// Relaying stops once the room is gone.
	f.send(a, `{"type":"chat_message","content":"anyone?"}`)
	assert.Empty(t, host.ofType(videohub.TypeChatMessage))
}

func TestLeaveRoom_HostEndsForEveryone(t *testing.T) {
	f := newFixture(t, nil, "a", "b")
	host := f.admit(t, "host")
	a := f.admit(t, "a")
	b := f.admit(t, "b")

	ended, err := f.registry.LeaveRoom(context.Background(), f.code, host.user)
	require.NoError(t, err)
	assert.True(t, ended)

	for _, c := range []*recordingClient{host, a, b} {
		assert.Len(t, c.ofType(videohub.TypeRoomEnded), 1)
	}
	assert.False(t, f.registry.EndRoom(f.code, "again"), "second end is a no-op")
}

func TestLeaveRoom_NonHostIsDetached(t *testing.T) {
	f := newFixture(t, nil, "a")
	host := f.admit(t, "host")
	a := f.admit(t, "a")
	host.reset()

	ended, err := f.registry.LeaveRoom(context.Background(), f.code, a.user)
	require.NoError(t, err)
	assert.False(t, ended)

	left := host.ofType(videohub.TypeParticipantsUpdate)
	require.Len(t, left, 1)
	assert.Equal(t, videohub.EventUserLeft, left[0]["event"])
	assert.True(t, a.isClosed())

	room, err := f.rooms.ActiveRoom(context.Background(), f.code)
	require.NoError(t, err)
	assert.False(t, room.HasParticipant("a"))
}

// endingDirectory runs onLookup once, after the first ActiveRoom lookup has
// already seen the room as active.
type endingDirectory struct {
	*videoroom.Service
	once     sync.Once
	onLookup func()
}

func (d *endingDirectory) ActiveRoom(ctx context.Context, code string) (*models.VideoRoom, error) {
	room, err := d.Service.ActiveRoom(ctx, code)
	d.once.Do(d.onLookup)
	return room, err
}

func TestAdmit_RoomEndedDuringLookupIsNotRevived(t *testing.T) {
	f := newFixture(t, nil, "guest")
	dir := &endingDirectory{Service: f.rooms}
	registry := videohub.NewRegistry(dir)
	dir.onLookup = func() {
		ended, err := registry.LeaveRoom(context.Background(), f.code, &models.User{ID: "host"})
		require.NoError(t, err)
		require.True(t, ended)
	}

	guest := newClient("guest", f.code)
	err := registry.Admit(context.Background(), f.code, guest)
	assert.ErrorIs(t, err, apperr.ErrRoomNotFound)
	assert.Empty(t, registry.Roster(f.code))
	assert.Zero(t, registry.ConnectionCount())
	assert.False(t, registry.Relay(f.code, "guest", "host", "offer", nil, nil))
}
