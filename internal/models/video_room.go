package models

import (
	"encoding/json"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// MediaState is the durable per-participant media flags of a video room.
type MediaState struct {
	Video         bool `json:"video"`
	Audio         bool `json:"audio"`
	ScreenSharing bool `json:"screenSharing"`
	HandRaised    bool `json:"handRaised"`
}

// MediaStatePatch carries a partial media update. Nil fields are left as is.
type MediaStatePatch struct {
	Video         *bool `json:"video,omitempty"`
	Audio         *bool `json:"audio,omitempty"`
	ScreenSharing *bool `json:"screenSharing,omitempty"`
	HandRaised    *bool `json:"handRaised,omitempty"`
}

// Apply merges p into s.
func (p MediaStatePatch) Apply(s MediaState) MediaState {
	if p.Video != nil {
		s.Video = *p.Video
	}
	if p.Audio != nil {
		s.Audio = *p.Audio
	}
	if p.ScreenSharing != nil {
		s.ScreenSharing = *p.ScreenSharing
	}
	if p.HandRaised != nil {
		s.HandRaised = *p.HandRaised
	}
	return s
}

// VideoRoomSettings are the host's choices for a room.
type VideoRoomSettings struct {
	AllowVideo          bool `json:"allowVideo"`
	AllowAudio          bool `json:"allowAudio"`
	AllowScreenShare    bool `json:"allowScreenShare"`
	AllowChat           bool `json:"allowChat"`
	AllowHandRaise      bool `json:"allowHandRaise"`
	MuteOnJoin          bool `json:"muteOnJoin"`
	HostOnlyScreenShare bool `json:"hostOnlyScreenShare"`
}

// DefaultVideoRoomSettings allows everything.
func DefaultVideoRoomSettings() VideoRoomSettings {
	return VideoRoomSettings{
		AllowVideo:       true,
		AllowAudio:       true,
		AllowScreenShare: true,
		AllowChat:        true,
		AllowHandRaise:   true,
	}
}

// UnmarshalJSON starts from DefaultVideoRoomSettings, so a partial settings
// object only changes the fields it names.
func (s *VideoRoomSettings) UnmarshalJSON(data []byte) error {
	type plain VideoRoomSettings
	v := plain(DefaultVideoRoomSettings())
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*s = VideoRoomSettings(v)
	return nil
}

// VideoRoom is a named, code-addressable multi-party call.
type VideoRoom struct {
	ID   string `gorm:"primaryKey" json:"id"`
	Name string `gorm:"not null" json:"name"`
	// Code is the human-shareable 8 character room code.
	Code   string `gorm:"size:16;uniqueIndex;not null" json:"code"`
	HostID string `gorm:"index;not null" json:"hostId"`
	// ParticipantIDs keeps join order; the host is first.
	ParticipantIDs  pq.StringArray    `gorm:"type:text[]" json:"participants"`
	PasswordHash    string            `json:"-"`
	MaxParticipants int               `json:"maxParticipants"` // 0 = unlimited
	IsActive        bool              `gorm:"index" json:"isActive"`
	Settings        VideoRoomSettings `gorm:"embedded;embeddedPrefix:setting_" json:"settings"`
	// ParticipantStates is keyed by user ID.
	ParticipantStates map[string]MediaState `gorm:"serializer:json" json:"participantStates"`
	CreatedAt         time.Time             `json:"createdAt"`
	EndedAt           *time.Time            `json:"endedAt,omitempty"`
}

// BeforeCreate generates a UUID for the room when no ID is set.
func (r *VideoRoom) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return
}

// HasParticipant reports whether userID is a durable participant.
func (r *VideoRoom) HasParticipant(userID string) bool {
	return slices.Contains(r.ParticipantIDs, userID)
}

// IsHost reports whether userID hosts the room.
func (r *VideoRoom) IsHost(userID string) bool {
	return r.HostID == userID
}

// HasPassword reports whether joining requires a password.
func (r *VideoRoom) HasPassword() bool {
	return r.PasswordHash != ""
}

// RemoveParticipant drops userID from the roster and its media state.
func (r *VideoRoom) RemoveParticipant(userID string) {
	r.ParticipantIDs = slices.DeleteFunc(r.ParticipantIDs, func(id string) bool { return id == userID })
	delete(r.ParticipantStates, userID)
}

// Clone returns a deep copy, so callers can hand rooms out of a store
// without sharing slices or maps.
func (r *VideoRoom) Clone() *VideoRoom {
	c := *r
	c.ParticipantIDs = slices.Clone(r.ParticipantIDs)
	if r.ParticipantStates != nil {
		c.ParticipantStates = make(map[string]MediaState, len(r.ParticipantStates))
		for k, v := range r.ParticipantStates {
			c.ParticipantStates[k] = v
		}
	}
	if r.EndedAt != nil {
		t := *r.EndedAt
		c.EndedAt = &t
	}
	return &c
}
