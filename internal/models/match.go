package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	PairMealScheduled = "SCHEDULED"
	PairMealCancelled = "CANCELLED"
)

// Match is an undirected pair; User1ID always sorts before User2ID.
type Match struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CommunityID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_match_pair,priority:1" json:"community_id"`
	User1ID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_match_pair,priority:2;index" json:"user1_id"`
	User2ID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_match_pair,priority:3;index" json:"user2_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// SortedPair orders two user ids the way Match stores them.
func SortedPair(a, b uuid.UUID) (uuid.UUID, uuid.UUID) {
	if b.String() < a.String() {
		return b, a
	}
	return a, b
}

// Partner returns the other side of the match.
func (m *Match) Partner(userID uuid.UUID) uuid.UUID {
	if m.User1ID == userID {
		return m.User2ID
	}
	return m.User1ID
}

func (m *Match) Includes(userID uuid.UUID) bool {
	return m.User1ID == userID || m.User2ID == userID
}

type PairMeal struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	MatchID     uuid.UUID `gorm:"type:uuid;not null;index" json:"match_id"`
	ProposerID  uuid.UUID `gorm:"type:uuid;not null" json:"proposer_id"`
	Date        time.Time `gorm:"not null;index" json:"date"`
	TimeBand    string    `gorm:"size:20;not null" json:"time_band"`
	Location    string    `gorm:"size:200" json:"location"`
	LocationURL string    `gorm:"type:text" json:"location_url"`
	Note        string    `gorm:"size:500" json:"note"`
	Status      string    `gorm:"size:20;not null;default:'SCHEDULED';index" json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
