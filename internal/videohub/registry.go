// Package videohub is the live half of video rooms: who is connected to
// which room right now, their live media state, event fan-out and WebRTC
// signaling relay. Durable membership lives in package videoroom.
package videohub

import (
	"context"
	"encoding/json"
	"log"
	"sort"
	"sync"
	"time"

	"unibuddy/backend/internal/apperr"
	"unibuddy/backend/internal/chathub"
	"unibuddy/backend/internal/models"
	"unibuddy/backend/internal/videoroom"
)

// RoomDirectory is the durable room lookup the registry depends on.
type RoomDirectory interface {
	ActiveRoom(ctx context.Context, code string) (*models.VideoRoom, error)
	End(ctx context.Context, code, userID string) error
	Leave(ctx context.Context, code, userID string) (ended bool, err error)
}

type participant struct {
	client chathub.Client
	info   senderView
	media  LiveMediaState
	seq    uint64
}

type liveRoom struct {
	hostID       string
	settings     models.VideoRoomSettings
	participants map[string]*participant
}

type handlerFunc func(ctx context.Context, code string, from chathub.Client, msg *inboundMessage)

// Registry tracks live video connections, keyed by room code then user id.
type Registry struct {
	mu    sync.Mutex
	rooms map[string]*liveRoom
	seq   uint64

	directory RoomDirectory
	handlers  map[string]handlerFunc
	now       func() time.Time
}

var _ chathub.RoomSession = (*Registry)(nil)

func NewRegistry(directory RoomDirectory) *Registry {
	r := &Registry{
		rooms:     make(map[string]*liveRoom),
		directory: directory,
		now:       time.Now,
	}
	r.handlers = map[string]handlerFunc{
		TypeChatMessage:        r.handleChatMessage,
		TypeMediaState:         r.handleMediaState,
		TypeSpeaking:           r.handleSpeaking,
		TypeHandRaised:         r.handleHandRaised,
		TypeScreenShareStarted: r.handleScreenShareStarted,
		TypeScreenShareStopped: r.handleScreenShareStopped,
		TypeRoomEnded:          r.handleRoomEnded,
		TypeWebRTCSignal:       r.handleWebRTCSignal,
	}
	return r
}

// Admit registers client in the room and announces the new roster to
// everyone, the newcomer included. A second socket for the same user
// replaces the first.
func (r *Registry) Admit(ctx context.Context, code string, client chathub.Client) error {
	code = videoroom.NormalizeCode(code)
	room, err := r.directory.ActiveRoom(ctx, code)
	if err != nil {
		return err
	}
	userID := client.GetUserID()
	if !room.HasParticipant(userID) {
		return apperr.ErrNotAuthorized
	}

	user := client.GetUser()
	info := senderView{ID: userID}
	if user != nil {
		info.Name, info.Picture = user.Name, user.Picture
	}

	p := &participant{client: client, info: info}
	r.mu.Lock()
	lr, ok := r.rooms[code]
	if !ok {
		lr = &liveRoom{participants: make(map[string]*participant)}
		r.rooms[code] = lr
	}
	lr.hostID = room.HostID
	lr.settings = room.Settings
	r.seq++
	p.seq = r.seq
	lr.participants[userID] = p
	r.mu.Unlock()

	// The room may have ended between the lookup and the registration.
	// EndRoom has then already run, so the entry we just made is orphaned.
	if _, err := r.directory.ActiveRoom(ctx, code); err != nil {
		r.mu.Lock()
		if lr, ok := r.rooms[code]; ok && lr.participants[userID] == p {
			r.removeLocked(code, lr, userID)
		}
		r.mu.Unlock()
		return err
	}

	r.mu.Lock()
	lr, ok = r.rooms[code]
	if !ok || lr.participants[userID] != p {
		r.mu.Unlock()
		return apperr.ErrRoomNotFound
	}
	roster := lr.roster()
	targets := lr.clients()
	r.mu.Unlock()

	log.Printf("INFO: video socket admitted room=%s user=%s", code, userID)
	sendAll(targets, chathub.EncodeEvent(participantsUpdateEvent{
		Type:         TypeParticipantsUpdate,
		Participants: roster,
		Event:        EventUserJoined,
		OdID:         userID,
		UserName:     info.Name,
	}))
	return nil
}

// HandleMessage dispatches one inbound frame by its type. Unknown types
// and malformed frames are logged and dropped.
func (r *Registry) HandleMessage(ctx context.Context, client chathub.Client, raw []byte) {
	var msg inboundMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		log.Printf("WARN: malformed video frame user=%s room=%s: %v", client.GetUserID(), client.GetRoomID(), err)
		return
	}
	handler, ok := r.handlers[msg.Type]
	if !ok {
		log.Printf("WARN: unknown video frame type %q user=%s", msg.Type, client.GetUserID())
		return
	}
	handler(ctx, videoroom.NormalizeCode(client.GetRoomID()), client, &msg)
}

// Disconnect removes client if it is still the user's registered socket
// and announces the departure. Durable membership is untouched.
func (r *Registry) Disconnect(client chathub.Client) {
	code := videoroom.NormalizeCode(client.GetRoomID())
	r.mu.Lock()
	lr, ok := r.rooms[code]
	if !ok {
		r.mu.Unlock()
		return
	}
	p, ok := lr.participants[client.GetUserID()]
	if !ok || p.client != client {
		r.mu.Unlock()
		return
	}
	roster, targets := r.removeLocked(code, lr, client.GetUserID())
	r.mu.Unlock()

	r.announceLeft(targets, roster, p)
}

// LeaveRoom is the explicit leave. The host leaving ends the room for
// everyone; anyone else is removed from the roster and their socket closed.
func (r *Registry) LeaveRoom(ctx context.Context, code string, user *models.User) (ended bool, err error) {
	code = videoroom.NormalizeCode(code)
	ended, err = r.directory.Leave(ctx, code, user.ID)
	if err != nil {
		return false, err
	}
	if ended {
		r.EndRoom(code, user.Name)
		return true, nil
	}

	r.mu.Lock()
	lr, ok := r.rooms[code]
	if !ok {
		r.mu.Unlock()
		return false, nil
	}
	p, ok := lr.participants[user.ID]
	if !ok {
		r.mu.Unlock()
		return false, nil
	}
	roster, targets := r.removeLocked(code, lr, user.ID)
	r.mu.Unlock()

	r.announceLeft(targets, roster, p)
	p.client.Close()
	return false, nil
}

// EndRoom drops the live room and sends room_ended to each connected
// participant. It reports false when the room had no live entry, so the
// event goes out at most once per room.
func (r *Registry) EndRoom(code, by string) bool {
	code = videoroom.NormalizeCode(code)
	r.mu.Lock()
	lr, ok := r.rooms[code]
	if ok {
		delete(r.rooms, code)
	}
	r.mu.Unlock()
	if !ok {
		return false
	}

	sendAll(lr.clients(), chathub.EncodeEvent(roomEndedEvent{Type: TypeRoomEnded, By: by}))
	log.Printf("INFO: video room ended room=%s by=%s", code, by)
	return true
}

// Relay forwards a WebRTC signal to toUserID only. It returns false when
// either side is not connected; the sender is not told.
func (r *Registry) Relay(code, fromUserID, toUserID, signalType string, sdp, candidate json.RawMessage) bool {
	code = videoroom.NormalizeCode(code)
	r.mu.Lock()
	lr, ok := r.rooms[code]
	var target *participant
	if ok {
		if _, fromOK := lr.participants[fromUserID]; fromOK {
			target = lr.participants[toUserID]
		}
	}
	r.mu.Unlock()
	if target == nil || fromUserID == toUserID {
		return false
	}

	payload := chathub.EncodeEvent(webrtcSignalEvent{
		Type:       TypeWebRTCSignal,
		SignalType: signalType,
		SenderID:   fromUserID,
		SDP:        sdp,
		Candidate:  candidate,
	})
	if payload == nil {
		return false
	}
	return target.client.Send(payload)
}

// Roster returns the live participants of a room in join order.
func (r *Registry) Roster(code string) []ParticipantView {
	r.mu.Lock()
	defer r.mu.Unlock()
	lr, ok := r.rooms[videoroom.NormalizeCode(code)]
	if !ok {
		return nil
	}
	return lr.roster()
}

// ConnectionCount returns the number of live video sockets.
func (r *Registry) ConnectionCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, lr := range r.rooms {
		n += len(lr.participants)
	}
	return n
}

// removeLocked must be called with mu held.
func (r *Registry) removeLocked(code string, lr *liveRoom, userID string) ([]ParticipantView, []chathub.Client) {
	delete(lr.participants, userID)
	if len(lr.participants) == 0 {
		delete(r.rooms, code)
	}
	return lr.roster(), lr.clients()
}

func (r *Registry) announceLeft(targets []chathub.Client, roster []ParticipantView, p *participant) {
	if len(targets) == 0 {
		return
	}
	sendAll(targets, chathub.EncodeEvent(participantsUpdateEvent{
		Type:         TypeParticipantsUpdate,
		Participants: roster,
		Event:        EventUserLeft,
		OdID:         p.info.ID,
		UserName:     p.info.Name,
	}))
}

// lookup returns the room and the sender's participant entry. Must be
// called with mu held.
func (r *Registry) lookup(code string, from chathub.Client) (*liveRoom, *participant) {
	lr, ok := r.rooms[code]
	if !ok {
		return nil, nil
	}
	p, ok := lr.participants[from.GetUserID()]
	if !ok || p.client != from {
		return nil, nil
	}
	return lr, p
}

func (lr *liveRoom) roster() []ParticipantView {
	ps := make([]*participant, 0, len(lr.participants))
	for _, p := range lr.participants {
		ps = append(ps, p)
	}
	sort.Slice(ps, func(i, j int) bool { return ps[i].seq < ps[j].seq })

	views := make([]ParticipantView, len(ps))
	for i, p := range ps {
		views[i] = ParticipantView{ID: p.info.ID, Name: p.info.Name, Picture: p.info.Picture, MediaState: p.media}
	}
	return views
}

func (lr *liveRoom) clients() []chathub.Client {
	cs := make([]chathub.Client, 0, len(lr.participants))
	for _, p := range lr.participants {
		cs = append(cs, p.client)
	}
	return cs
}

func sendAll(targets []chathub.Client, payload []byte) {
	if payload == nil {
		return
	}
	for _, c := range targets {
		c.Send(payload)
	}
}
