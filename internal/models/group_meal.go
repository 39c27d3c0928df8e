package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	GroupMealOpen   = "OPEN"
	GroupMealFull   = "FULL"
	GroupMealClosed = "CLOSED"

	TimeSlotDay   = "DAY"
	TimeSlotNight = "NIGHT"

	MinGroupCapacity = 3
	MaxGroupCapacity = 10
)

const (
	ParticipantInvited   = "INVITED"
	ParticipantJoined    = "JOINED"
	ParticipantDeclined  = "DECLINED"
	ParticipantCancelled = "CANCELLED"
	ParticipantLate      = "LATE"
	ParticipantGo        = "GO"
	ParticipantNotGo     = "NOT_GO"
	ParticipantPending   = "PENDING"
)

// SeatHoldingStatuses occupy a seat for capacity arithmetic and status sync.
var SeatHoldingStatuses = []string{
	ParticipantInvited,
	ParticipantJoined,
	ParticipantLate,
	ParticipantGo,
	ParticipantPending,
}

func HoldsSeat(status string) bool {
	for _, s := range SeatHoldingStatuses {
		if s == status {
			return true
		}
	}
	return false
}

type GroupMeal struct {
	ID           uuid.UUID              `gorm:"type:uuid;primaryKey" json:"id"`
	CommunityID  uuid.UUID              `gorm:"type:uuid;not null;index" json:"community_id"`
	HostID       uuid.UUID              `gorm:"type:uuid;not null;index" json:"host_id"`
	Title        string                 `gorm:"size:100" json:"title"`
	Date         time.Time              `gorm:"not null;index:idx_group_meal_slot,priority:1" json:"date"`
	Weekday      int                    `gorm:"not null" json:"weekday"`
	TimeSlot     string                 `gorm:"size:10;not null;index:idx_group_meal_slot,priority:2" json:"time_slot"`
	Capacity     int                    `gorm:"not null" json:"capacity"`
	Status       string                 `gorm:"size:10;not null;default:'OPEN';index" json:"status"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
	Participants []GroupMealParticipant `gorm:"foreignKey:GroupMealID" json:"participants,omitempty"`
}

type GroupMealParticipant struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	GroupMealID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_participant_meal_user,priority:1" json:"group_meal_id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_participant_meal_user,priority:2;index" json:"user_id"`
	Status      string    `gorm:"size:10;not null;index" json:"status"`
	IsHost      bool      `gorm:"default:false" json:"is_host"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type GroupMealMessage struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	GroupMealID uuid.UUID `gorm:"type:uuid;not null;index:idx_message_meal_created,priority:1" json:"group_meal_id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null" json:"user_id"`
	Body        string    `gorm:"size:1000;not null" json:"body"`
	CreatedAt   time.Time `gorm:"index:idx_message_meal_created,priority:2" json:"created_at"`
}
