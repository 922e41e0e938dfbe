package videohub

import (
	"context"
	"log"

	"unibuddy/backend/internal/chathub"
)

// Dispatch table entries. Each one mutates live state under mu, then fans
// out to every connected socket of the room, the sender included.

func (r *Registry) handleChatMessage(_ context.Context, code string, from chathub.Client, msg *inboundMessage) {
	if msg.Content == "" {
		return
	}
	r.mu.Lock()
	lr, p := r.lookup(code, from)
	if p == nil || !lr.settings.AllowChat {
		r.mu.Unlock()
		return
	}
	targets := lr.clients()
	sender := p.info
	r.mu.Unlock()

	sendAll(targets, chathub.EncodeEvent(chatMessageEvent{
		Type:      TypeChatMessage,
		Sender:    sender,
		Content:   msg.Content,
		Timestamp: r.now().UTC(),
	}))
}

func (r *Registry) handleMediaState(_ context.Context, code string, from chathub.Client, msg *inboundMessage) {
	r.mu.Lock()
	lr, p := r.lookup(code, from)
	if p == nil {
		r.mu.Unlock()
		return
	}
	p.media = msg.State.apply(p.media)
	state := p.media
	targets := lr.clients()
	r.mu.Unlock()

	sendAll(targets, chathub.EncodeEvent(mediaStateUpdateEvent{Type: TypeMediaStateUpdate, OdID: p.info.ID, State: state}))
}

func (r *Registry) handleSpeaking(_ context.Context, code string, from chathub.Client, msg *inboundMessage) {
	r.mu.Lock()
	lr, p := r.lookup(code, from)
	if p == nil {
		r.mu.Unlock()
		return
	}
	p.media.Speaking = msg.Speaking
	targets := lr.clients()
	r.mu.Unlock()

	sendAll(targets, chathub.EncodeEvent(speakingEvent{Type: TypeSpeaking, OdID: p.info.ID, Speaking: msg.Speaking}))
}

func (r *Registry) handleHandRaised(_ context.Context, code string, from chathub.Client, msg *inboundMessage) {
	r.mu.Lock()
	lr, p := r.lookup(code, from)
	if p == nil || !lr.settings.AllowHandRaise {
		r.mu.Unlock()
		return
	}
	p.media.HandRaised = msg.Raised
	targets := lr.clients()
	r.mu.Unlock()

	sendAll(targets, chathub.EncodeEvent(handRaisedEvent{Type: TypeHandRaised, OdID: p.info.ID, UserName: p.info.Name, Raised: msg.Raised}))
}

func (r *Registry) handleScreenShareStarted(_ context.Context, code string, from chathub.Client, _ *inboundMessage) {
	r.mu.Lock()
	lr, p := r.lookup(code, from)
	if p == nil || !lr.canScreenShare(p.info.ID) {
		r.mu.Unlock()
		return
	}
	p.media.ScreenSharing = true
	targets := lr.clients()
	r.mu.Unlock()

	sendAll(targets, chathub.EncodeEvent(screenShareEvent{Type: TypeScreenShareStarted, OdID: p.info.ID, UserName: p.info.Name}))
}

func (r *Registry) handleScreenShareStopped(_ context.Context, code string, from chathub.Client, _ *inboundMessage) {
	r.mu.Lock()
	lr, p := r.lookup(code, from)
	if p == nil {
		r.mu.Unlock()
		return
	}
	p.media.ScreenSharing = false
	targets := lr.clients()
	r.mu.Unlock()

	sendAll(targets, chathub.EncodeEvent(screenShareEvent{Type: TypeScreenShareStopped, OdID: p.info.ID}))
}

// handleRoomEnded ends the room when the host asks. Anyone else is ignored.
func (r *Registry) handleRoomEnded(ctx context.Context, code string, from chathub.Client, _ *inboundMessage) {
	r.mu.Lock()
	lr, p := r.lookup(code, from)
	isHost := p != nil && lr.hostID == p.info.ID
	r.mu.Unlock()
	if !isHost {
		log.Printf("WARN: ignoring room_ended from non-host user=%s room=%s", from.GetUserID(), code)
		return
	}

	if err := r.directory.End(ctx, code, p.info.ID); err != nil {
		log.Printf("ERROR: failed to end video room %s in storage: %v", code, err)
	}
	r.EndRoom(code, p.info.Name)
}

func (r *Registry) handleWebRTCSignal(_ context.Context, code string, from chathub.Client, msg *inboundMessage) {
	if msg.TargetID == "" {
		return
	}
	r.Relay(code, from.GetUserID(), msg.TargetID, msg.SignalType, msg.SDP, msg.Candidate)
}

func (lr *liveRoom) canScreenShare(userID string) bool {
	if !lr.settings.AllowScreenShare {
		return false
	}
	return !lr.settings.HostOnlyScreenShare || lr.hostID == userID
}
