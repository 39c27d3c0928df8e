package groupmeal

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/features/profile"
	"github.com/google/uuid"
)

const (
	ModeReal = "REAL"
	ModeMeet = "MEET"

	ActionAccept  = "ACCEPT"
	ActionDecline = "DECLINE"
)

type CreateRequest struct {
	Date     string `json:"date" validate:"required,isodate"`
	TimeSlot string `json:"timeSlot" validate:"required,oneof=DAY NIGHT"`
	Capacity int    `json:"capacity" validate:"required,min=3,max=10"`
	Title    string `json:"title" validate:"max=100"`
}

type InviteRequest struct {
	UserIDs []string `json:"userIds" validate:"required,min=1,max=9,dive,uuid"`
}

type RespondRequest struct {
	Action string `json:"action" validate:"required,oneof=ACCEPT DECLINE"`
}

type AttendanceRequest struct {
	Status string `json:"status" validate:"required,oneof=GO NOT_GO LATE"`
}

type MessageRequest struct {
	Body string `json:"body" validate:"required,max=1000"`
}

type AutoGroupRequest struct {
	CommunityID string `json:"communityId" validate:"required,uuid"`
	Date        string `json:"date" validate:"required,isodate"`
	TimeSlot    string `json:"timeSlot" validate:"required,oneof=DAY NIGHT"`
	Mode        string `json:"mode" validate:"omitempty,oneof=REAL MEET"`
}

type ParticipantResponse struct {
	profile.Summary
	Status string `json:"status"`
	IsHost bool   `json:"isHost"`
}

type MealResponse struct {
	ID           uuid.UUID             `json:"id"`
	CommunityID  uuid.UUID             `json:"communityId"`
	HostID       uuid.UUID             `json:"hostId"`
	Title        string                `json:"title"`
	Date         string                `json:"date"`
	Weekday      int                   `json:"weekday"`
	TimeSlot     string                `json:"timeSlot"`
	Capacity     int                   `json:"capacity"`
	Status       string                `json:"status"`
	SeatsTaken   int                   `json:"seatsTaken"`
	MyStatus     string                `json:"myStatus,omitempty"`
	Participants []ParticipantResponse `json:"participants,omitempty"`
}

type InviteResult struct {
	Invited   []uuid.UUID  `json:"invited"`
	Unchanged []uuid.UUID  `json:"unchanged"`
	Meal      MealResponse `json:"meal"`
}

type CandidatesResponse struct {
	Date     string              `json:"date"`
	TimeSlot string              `json:"timeSlot"`
	Mode     string              `json:"mode"`
	Pool     []profile.Summary   `json:"pool"`
	Groups   [][]profile.Summary `json:"groups"`
}

type MessageResponse struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"userId"`
	Author    string    `json:"author"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}
