package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	AuthProviderEmail = "email"
	AuthProviderLine  = "line"
)

type User struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Email        *string        `gorm:"size:255;uniqueIndex" json:"email,omitempty"`
	LineUserID   *string        `gorm:"size:64;uniqueIndex" json:"-"`
	PasswordHash string         `json:"-"`
	IsAdmin      bool           `gorm:"default:false" json:"is_admin"`
	AuthProvider string         `gorm:"size:20;default:'email'" json:"auth_provider"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	Profile      *Profile       `gorm:"foreignKey:UserID" json:"profile,omitempty"`
}

// EmailOrEmpty is used for token claims; LINE-only users have no email.
func (u *User) EmailOrEmpty() string {
	if u.Email == nil {
		return ""
	}
	return *u.Email
}

// LineID returns the LINE messaging id or "" when the user never linked LINE.
func (u *User) LineID() string {
	if u.LineUserID == nil {
		return ""
	}
	return *u.LineUserID
}
