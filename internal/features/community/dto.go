package community

import (
	"time"

	"github.com/google/uuid"
)

type JoinRequest struct {
	InviteCode string `json:"inviteCode" validate:"required,max=64"`
}

type MembershipResponse struct {
	CommunityID   uuid.UUID `json:"communityId"`
	CommunityName string    `json:"communityName"`
	Status        string    `json:"status"`
	JoinedAt      time.Time `json:"joinedAt"`
}

type StatusResponse struct {
	Approved    bool                 `json:"approved"`
	Memberships []MembershipResponse `json:"memberships"`
}

type MemberResponse struct {
	UserID        uuid.UUID `json:"userId"`
	Email         string    `json:"email,omitempty"`
	DisplayName   string    `json:"displayName"`
	IsAdmin       bool      `json:"isAdmin"`
	CommunityID   uuid.UUID `json:"communityId"`
	CommunityName string    `json:"communityName"`
	Status        string    `json:"status"`
	RequestedAt   time.Time `json:"requestedAt"`
}
