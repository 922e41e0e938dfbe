// Package videoroom owns the durable half of video rooms: creation with a
// unique shareable code, membership, host ending and per-participant media
// state.
package videoroom

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"unibuddy/backend/internal/apperr"
	"unibuddy/backend/internal/config"
	"unibuddy/backend/internal/models"
	"unibuddy/backend/internal/storage"

	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
)

// Service manages video rooms in storage.
type Service struct {
	repo       storage.VideoRoomStore
	idg        IDGenerator
	bcryptCost int
}

func NewService(repo storage.VideoRoomStore, idg IDGenerator) *Service {
	return &Service{repo: repo, idg: idg, bcryptCost: config.BcryptCost}
}

// CreateParams are the host's choices for a new room. A nil Settings means
// DefaultVideoRoomSettings.
type CreateParams struct {
	Name            string
	Password        string
	MaxParticipants int
	Settings        *models.VideoRoomSettings
}

// NormalizeCode upper-cases and trims a user-supplied room code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Create stores a new active room hosted by hostID. The code is regenerated
// when it collides, either on the existence check or on insert.
func (s *Service) Create(ctx context.Context, hostID string, p CreateParams) (*models.VideoRoom, error) {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return nil, apperr.ErrRoomNameRequired
	}
	if p.MaxParticipants < 0 {
		return nil, fmt.Errorf("maxParticipants must not be negative: %w", apperr.ErrInvalidInput)
	}

	var hash string
	if p.Password != "" {
		b, err := bcrypt.GenerateFromPassword([]byte(p.Password), s.bcryptCost)
		if err != nil {
			return nil, err
		}
		hash = string(b)
	}

	settings := models.DefaultVideoRoomSettings()
	if p.Settings != nil {
		settings = *p.Settings
	}

	for i := 0; i < config.RoomCodeMaxRetries; i++ {
		code, err := s.idg.New()
		if err != nil {
			return nil, err
		}

		exists, err := s.repo.VideoRoomCodeExists(ctx, code)
		if err != nil {
			return nil, err
		}
		if exists {
			continue
		}

		room := &models.VideoRoom{
			Name:              name,
			Code:              code,
			HostID:            hostID,
			ParticipantIDs:    pq.StringArray{hostID},
			PasswordHash:      hash,
			MaxParticipants:   p.MaxParticipants,
			IsActive:          true,
			Settings:          settings,
			ParticipantStates: map[string]models.MediaState{},
			CreatedAt:         time.Now().UTC(),
		}
		err = s.repo.CreateVideoRoom(ctx, room)
		if errors.Is(err, apperr.ErrRoomCodeTaken) {
			continue
		}
		if err != nil {
			return nil, err
		}
		log.Printf("INFO: video room created code=%s host=%s", code, hostID)
		return room, nil
	}
	return nil, apperr.ErrRoomCodeGenerationFailed
}

// Join adds userID to the room. Every check runs before the roster is
// touched, inside one atomic update. Joining twice is a no-op.
func (s *Service) Join(ctx context.Context, code, userID, password string) (*models.VideoRoom, error) {
	code = NormalizeCode(code)
	if code == "" {
		return nil, apperr.ErrRoomCodeRequired
	}

	return s.repo.UpdateVideoRoom(ctx, code, func(room *models.VideoRoom) error {
		if !room.IsActive {
			return apperr.ErrRoomNotFound
		}
		if room.HasPassword() {
			if password == "" {
				return apperr.ErrPasswordRequired
			}
			if bcrypt.CompareHashAndPassword([]byte(room.PasswordHash), []byte(password)) != nil {
				return apperr.ErrInvalidPassword
			}
		}
		if room.HasParticipant(userID) {
			return nil
		}
		if room.MaxParticipants > 0 && len(room.ParticipantIDs) >= room.MaxParticipants {
			return apperr.ErrRoomFull
		}
		room.ParticipantIDs = append(room.ParticipantIDs, userID)
		return nil
	})
}

// Leave removes userID from the room. When the host leaves the room ends
// and ended is true.
func (s *Service) Leave(ctx context.Context, code, userID string) (ended bool, err error) {
	_, err = s.repo.UpdateVideoRoom(ctx, NormalizeCode(code), func(room *models.VideoRoom) error {
		if room.IsHost(userID) {
			endRoom(room)
			ended = true
			return nil
		}
		room.RemoveParticipant(userID)
		return nil
	})
	if err != nil {
		return false, err
	}
	return ended, nil
}

// End deactivates the room. Only the host may end it.
func (s *Service) End(ctx context.Context, code, userID string) error {
	_, err := s.repo.UpdateVideoRoom(ctx, NormalizeCode(code), func(room *models.VideoRoom) error {
		if !room.IsHost(userID) {
			return apperr.ErrNotAuthorized
		}
		endRoom(room)
		return nil
	})
	return err
}

// ForceEnd deactivates the room regardless of who asks. Used by admin tooling.
func (s *Service) ForceEnd(ctx context.Context, code string) error {
	_, err := s.repo.UpdateVideoRoom(ctx, NormalizeCode(code), func(room *models.VideoRoom) error {
		endRoom(room)
		return nil
	})
	return err
}

func endRoom(room *models.VideoRoom) {
	if !room.IsActive {
		return
	}
	now := time.Now().UTC()
	room.IsActive = false
	room.EndedAt = &now
}

// UpdateMediaState merges patch into the user's stored media state.
func (s *Service) UpdateMediaState(ctx context.Context, code, userID string, patch models.MediaStatePatch) (models.MediaState, error) {
	var merged models.MediaState
	_, err := s.repo.UpdateVideoRoom(ctx, NormalizeCode(code), func(room *models.VideoRoom) error {
		if !room.IsActive {
			return apperr.ErrRoomNotFound
		}
		if room.ParticipantStates == nil {
			room.ParticipantStates = make(map[string]models.MediaState)
		}
		merged = patch.Apply(room.ParticipantStates[userID])
		room.ParticipantStates[userID] = merged
		return nil
	})
	if err != nil {
		return models.MediaState{}, err
	}
	return merged, nil
}

// MediaState returns the user's stored media state, zero when never set.
func (s *Service) MediaState(ctx context.Context, code, userID string) (models.MediaState, error) {
	room, err := s.ActiveRoom(ctx, code)
	if err != nil {
		return models.MediaState{}, err
	}
	return room.ParticipantStates[userID], nil
}

// Get returns the room whether or not it is active.
func (s *Service) Get(ctx context.Context, code string) (*models.VideoRoom, error) {
	return s.repo.GetVideoRoomByCode(ctx, NormalizeCode(code))
}

// ActiveRoom returns the room only while it is active.
func (s *Service) ActiveRoom(ctx context.Context, code string) (*models.VideoRoom, error) {
	room, err := s.Get(ctx, code)
	if err != nil {
		return nil, err
	}
	if !room.IsActive {
		return nil, apperr.ErrRoomNotFound
	}
	return room, nil
}

// ListForUser returns the active rooms userID hosts or joined.
func (s *Service) ListForUser(ctx context.Context, userID string) ([]models.VideoRoom, error) {
	return s.repo.ListVideoRoomsForUser(ctx, userID)
}
