package session

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ForCommunity returns a GORM scope that filters by community_id.
func ForCommunity(communityID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("community_id = ?", communityID)
	}
}
