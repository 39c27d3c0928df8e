package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const MaxFavoriteMeals = 3

type Profile struct {
	ID            uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID                   `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	DisplayName   string                      `gorm:"size:50;not null" json:"display_name"`
	FavoriteMeals datatypes.JSONSlice[string] `json:"favorite_meals"`
	Hobbies       datatypes.JSONSlice[string] `json:"hobbies"`
	Areas         datatypes.JSONSlice[string] `json:"areas"`
	Bio           string                      `gorm:"size:500" json:"bio"`
	Budget        string                      `gorm:"size:30" json:"budget"`
	Style         string                      `gorm:"size:30" json:"style"`
	ImageURL      string                      `gorm:"type:text" json:"image_url"`
	CreatedAt     time.Time                   `json:"created_at"`
	UpdatedAt     time.Time                   `json:"updated_at"`
}

// MainArea is the first area tag, used by the grouping affinity score.
func (p *Profile) MainArea() string {
	if p == nil || len(p.Areas) == 0 {
		return ""
	}
	return p.Areas[0]
}
