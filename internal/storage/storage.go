// Package storage persists users, chat rooms, messages and video rooms.
// Service is the PostgreSQL implementation; MemoryStore backs local
// development and tests.
package storage

import (
	"context"
	"errors"
	"log"
	"time"

	"unibuddy/backend/internal/apperr"
	"unibuddy/backend/internal/models"

	"gorm.io/gorm"
)

// UserStore reads and writes user profiles.
type UserStore interface {
	GetUserByID(ctx context.Context, userID string) (*models.User, error)
	SaveUser(ctx context.Context, user *models.User) error
}

// ChatStore persists 1-on-1 chat rooms and their messages.
type ChatStore interface {
	SaveRoom(ctx context.Context, room *models.ChatRoom) error
	GetRoomByID(ctx context.Context, roomID string) (*models.ChatRoom, error)
	GetActiveRoomIDForUser(ctx context.Context, userID string) (string, error)
	CloseRoom(ctx context.Context, roomID, endedBy string) error
	SaveMessage(ctx context.Context, msg *models.Message) error
	GetChatHistory(ctx context.Context, roomID string) ([]models.Message, error)
}

// VideoRoomStore persists video rooms. UpdateVideoRoom runs fn on a locked
// copy of the room and saves it only when fn returns nil.
type VideoRoomStore interface {
	CreateVideoRoom(ctx context.Context, room *models.VideoRoom) error
	GetVideoRoomByCode(ctx context.Context, code string) (*models.VideoRoom, error)
	VideoRoomCodeExists(ctx context.Context, code string) (bool, error)
	UpdateVideoRoom(ctx context.Context, code string, fn func(room *models.VideoRoom) error) (*models.VideoRoom, error)
	ListVideoRoomsForUser(ctx context.Context, userID string) ([]models.VideoRoom, error)
}

// Storage is everything the backend persists.
type Storage interface {
	UserStore
	ChatStore
	VideoRoomStore
}

// Service is the gorm-backed Storage.
type Service struct {
	DB *gorm.DB
}

// NewStorageService Constructor
func NewStorageService(db *gorm.DB) *Service {
	return &Service{DB: db}
}

// AutoMigrate creates or updates every table the backend uses.
func (s *Service) AutoMigrate() error {
	return s.DB.AutoMigrate(
		&models.User{},
		&models.ChatRoom{},
		&models.Message{},
		&models.VideoRoom{},
	)
}

func (s *Service) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	err := s.DB.WithContext(ctx).Where("id = ?", userID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrUserNotFound
	}
	if err != nil {
		log.Printf("ERROR: Failed to get user %s: %v", userID, err)
		return nil, err
	}
	return &user, nil
}

func (s *Service) SaveUser(ctx context.Context, user *models.User) error {
	return s.DB.WithContext(ctx).Save(user).Error
}

func (s *Service) SaveRoom(ctx context.Context, room *models.ChatRoom) error {
	return s.DB.WithContext(ctx).Save(room).Error
}

func (s *Service) GetRoomByID(ctx context.Context, roomID string) (*models.ChatRoom, error) {
	var room models.ChatRoom
	err := s.DB.WithContext(ctx).Where("room_id = ?", roomID).First(&room).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrRoomNotFound
	}
	if err != nil {
		log.Printf("ERROR: Failed to get room %s: %v", roomID, err)
		return nil, err
	}
	return &room, nil
}

// GetActiveRoomIDForUser returns the active room the user is a member of,
// or "" when there is none.
func (s *Service) GetActiveRoomIDForUser(ctx context.Context, userID string) (string, error) {
	var room models.ChatRoom
	err := s.DB.WithContext(ctx).
		Where("is_active = ?", true).
		Where("user1_id = ? OR user2_id = ?", userID, userID).
		Order("started_at desc").
		First(&room).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		log.Printf("ERROR: Failed to find active room for user %s: %v", userID, err)
		return "", err
	}
	return room.RoomID, nil
}

// CloseRoom deactivates the room and records who ended it.
func (s *Service) CloseRoom(ctx context.Context, roomID, endedBy string) error {
	res := s.DB.WithContext(ctx).Model(&models.ChatRoom{}).
		Where("room_id = ?", roomID).
		Updates(map[string]interface{}{
			"is_active": false,
			"ended_by":  endedBy,
			"ended_at":  time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.ErrRoomNotFound
	}
	return nil
}

// SaveMessage assigns the message a ULID and a timestamp when unset and
// appends it to the room's history.
func (s *Service) SaveMessage(ctx context.Context, msg *models.Message) error {
	stampMessage(msg)
	if err := s.DB.WithContext(ctx).Create(msg).Error; err != nil {
		log.Printf("ERROR: Failed to save message for room %s: %v", msg.RoomID, err)
		return err
	}
	return nil
}

// GetChatHistory returns the room's messages oldest first.
func (s *Service) GetChatHistory(ctx context.Context, roomID string) ([]models.Message, error) {
	var history []models.Message
	if err := s.DB.WithContext(ctx).Where("room_id = ?", roomID).Order("id asc").Find(&history).Error; err != nil {
		log.Printf("ERROR: Failed to get chat history for room %s: %v", roomID, err)
		return nil, err
	}
	return history, nil
}

func stampMessage(msg *models.Message) {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	if msg.ID == "" {
		msg.ID = newMessageID(msg.CreatedAt)
	}
	if msg.Type == "" {
		msg.Type = "text"
	}
}
