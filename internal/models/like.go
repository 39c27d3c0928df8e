package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	AnswerYes = "YES"
	AnswerNo  = "NO"
)

// Like is a directed answer from one member about another. Rows are never
// updated once written.
type Like struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	FromUserID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_like_from_to_community,priority:1" json:"from_user_id"`
	ToUserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_like_from_to_community,priority:2;index" json:"to_user_id"`
	CommunityID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_like_from_to_community,priority:3" json:"community_id"`
	Answer      string    `gorm:"size:3;not null" json:"answer"`
	CreatedAt   time.Time `json:"created_at"`
}

// SuperLike holds a member's single outstanding super-like per community.
type SuperLike struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	FromUserID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_superlike_from_community,priority:1" json:"from_user_id"`
	CommunityID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_superlike_from_community,priority:2" json:"community_id"`
	ToUserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"to_user_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
