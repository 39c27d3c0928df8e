package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	AvailabilityAvailable   = "AVAILABLE"
	AvailabilityUnavailable = "UNAVAILABLE"
	AvailabilityMeetOnly    = "MEET_ONLY"
)

type AvailabilitySlot struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"-"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_availability_user_slot,priority:1" json:"-"`
	Weekday   int       `gorm:"not null;uniqueIndex:idx_availability_user_slot,priority:2" json:"weekday"`
	TimeSlot  string    `gorm:"size:10;not null;uniqueIndex:idx_availability_user_slot,priority:3" json:"time_slot"`
	Status    string    `gorm:"size:15;not null" json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
}
