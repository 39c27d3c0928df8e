package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	MembershipPending  = "pending"
	MembershipApproved = "approved"
	MembershipRejected = "rejected"
)

type Community struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name       string    `gorm:"size:100;not null" json:"name"`
	InviteCode string    `gorm:"size:64;not null;uniqueIndex" json:"-"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// CommunityMembership is unique per (user, community).
type CommunityMembership struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_membership_user_community,priority:1" json:"user_id"`
	CommunityID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_membership_user_community,priority:2;index" json:"community_id"`
	Status      string    `gorm:"size:20;not null;default:'pending';index" json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	User        User      `gorm:"foreignKey:UserID" json:"-"`
	Community   Community `gorm:"foreignKey:CommunityID" json:"-"`
}
