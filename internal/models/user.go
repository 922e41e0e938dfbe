package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is a registered student. The coordination layer only reads it:
// region and campus scope matchmaking, IsAnonymousMode hides the sender's
// name and picture in chat.
type User struct {
	ID              string `gorm:"primaryKey" json:"user_id"`
	Email           string `gorm:"uniqueIndex" json:"email"`
	Name            string `json:"name"`
	Picture         string `json:"picture,omitempty"`
	Region          string `gorm:"index:idx_user_scope" json:"region,omitempty"`
	Campus          string `gorm:"index:idx_user_scope" json:"campus,omitempty"`
	IsAnonymousMode bool   `json:"is_anonymous_mode"`
}

// BeforeCreate generates a UUID for the user when no ID is set.
func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return
}
