package storage

import (
	"context"
	"errors"
	"log"

	"unibuddy/backend/internal/apperr"
	"unibuddy/backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Video room methods of Service.

// CreateVideoRoom inserts room. A unique-key violation on the code is
// reported as apperr.ErrRoomCodeTaken; the DB must be opened with
// TranslateError enabled.
func (s *Service) CreateVideoRoom(ctx context.Context, room *models.VideoRoom) error {
	err := s.DB.WithContext(ctx).Create(room).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.ErrRoomCodeTaken
	}
	return err
}

func (s *Service) GetVideoRoomByCode(ctx context.Context, code string) (*models.VideoRoom, error) {
	var room models.VideoRoom
	err := s.DB.WithContext(ctx).Where("code = ?", code).First(&room).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrRoomNotFound
	}
	if err != nil {
		log.Printf("ERROR: Failed to get video room %s: %v", code, err)
		return nil, err
	}
	return &room, nil
}

func (s *Service) VideoRoomCodeExists(ctx context.Context, code string) (bool, error) {
	var n int64
	if err := s.DB.WithContext(ctx).Model(&models.VideoRoom{}).Where("code = ?", code).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// UpdateVideoRoom locks the row with SELECT ... FOR UPDATE, applies fn and
// saves the result in the same transaction.
func (s *Service) UpdateVideoRoom(ctx context.Context, code string, fn func(room *models.VideoRoom) error) (*models.VideoRoom, error) {
	var room models.VideoRoom
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("code = ?", code).First(&room).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.ErrRoomNotFound
		}
		if err != nil {
			return err
		}
		if err := fn(&room); err != nil {
			return err
		}
		return tx.Save(&room).Error
	})
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// ListVideoRoomsForUser returns the active rooms the user hosts or joined,
// newest first.
func (s *Service) ListVideoRoomsForUser(ctx context.Context, userID string) ([]models.VideoRoom, error) {
	var rooms []models.VideoRoom
	err := s.DB.WithContext(ctx).
		Where("is_active = ?", true).
		Where("host_id = ? OR ? = ANY(participant_ids)", userID, userID).
		Order("created_at desc").
		Find(&rooms).Error
	if err != nil {
		log.Printf("ERROR: Failed to list video rooms for user %s: %v", userID, err)
		return nil, err
	}
	return rooms, nil
}
