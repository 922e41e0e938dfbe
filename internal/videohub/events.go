package videohub

import (
	"encoding/json"
	"time"
)

// Inbound and outbound message types.
const (
	TypeParticipantsUpdate = "participants_update"
	TypeChatMessage        = "chat_message"
	TypeMediaState         = "media_state"
	TypeMediaStateUpdate   = "media_state_update"
	TypeSpeaking           = "speaking"
	TypeHandRaised         = "hand_raised"
	TypeScreenShareStarted = "screen_share_started"
	TypeScreenShareStopped = "screen_share_stopped"
	TypeRoomEnded          = "room_ended"
	TypeWebRTCSignal       = "webrtc_signal"

	EventUserJoined = "user_joined"
	EventUserLeft   = "user_left"
)

// LiveMediaState is what a participant is doing right now. Unlike the
// stored media state it also carries speaking.
type LiveMediaState struct {
	Video         bool `json:"video"`
	Audio         bool `json:"audio"`
	Speaking      bool `json:"speaking"`
	ScreenSharing bool `json:"screenSharing"`
	HandRaised    bool `json:"handRaised"`
}

type liveMediaPatch struct {
	Video         *bool `json:"video"`
	Audio         *bool `json:"audio"`
	Speaking      *bool `json:"speaking"`
	ScreenSharing *bool `json:"screenSharing"`
	HandRaised    *bool `json:"handRaised"`
}

func (p liveMediaPatch) apply(s LiveMediaState) LiveMediaState {
	if p.Video != nil {
		s.Video = *p.Video
	}
	if p.Audio != nil {
		s.Audio = *p.Audio
	}
	if p.Speaking != nil {
		s.Speaking = *p.Speaking
	}
	if p.ScreenSharing != nil {
		s.ScreenSharing = *p.ScreenSharing
	}
	if p.HandRaised != nil {
		s.HandRaised = *p.HandRaised
	}
	return s
}

// ParticipantView is one roster entry.
type ParticipantView struct {
	ID         string         `json:"_id"`
	Name       string         `json:"name"`
	Picture    string         `json:"picture"`
	MediaState LiveMediaState `json:"mediaState"`
}

type senderView struct {
	ID      string `json:"_id"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// inboundMessage is the union of every frame a video socket may send.
type inboundMessage struct {
	Type       string          `json:"type"`
	Content    string          `json:"content"`
	State      liveMediaPatch  `json:"state"`
	Speaking   bool            `json:"speaking"`
	Raised     bool            `json:"raised"`
	TargetID   string          `json:"targetId"`
	SignalType string          `json:"signalType"`
	SDP        json.RawMessage `json:"sdp"`
	Candidate  json.RawMessage `json:"candidate"`
}

type participantsUpdateEvent struct {
	Type         string            `json:"type"`
	Participants []ParticipantView `json:"participants"`
	Event        string            `json:"event"`
	OdID         string            `json:"odId"`
	UserName     string            `json:"userName"`
}

type chatMessageEvent struct {
	Type      string     `json:"type"`
	Sender    senderView `json:"sender"`
	Content   string     `json:"content"`
	Timestamp time.Time  `json:"timestamp"`
}

type mediaStateUpdateEvent struct {
	Type  string         `json:"type"`
	OdID  string         `json:"odId"`
	State LiveMediaState `json:"state"`
}

type speakingEvent struct {
	Type     string `json:"type"`
	OdID     string `json:"odId"`
	Speaking bool   `json:"speaking"`
}

type handRaisedEvent struct {
	Type     string `json:"type"`
	OdID     string `json:"odId"`
	UserName string `json:"userName"`
	Raised   bool   `json:"raised"`
}

type screenShareEvent struct {
	Type     string `json:"type"`
	OdID     string `json:"odId"`
	UserName string `json:"userName,omitempty"`
}

type roomEndedEvent struct {
	Type string `json:"type"`
	By   string `json:"by"`
}

// webrtcSignalEvent forwards sdp and candidate byte for byte.
type webrtcSignalEvent struct {
	Type       string          `json:"type"`
	SignalType string          `json:"signalType"`
	SenderID   string          `json:"senderId"`
	SDP        json.RawMessage `json:"sdp,omitempty"`
	Candidate  json.RawMessage `json:"candidate,omitempty"`
}
