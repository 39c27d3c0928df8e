package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// assignID fills a zero primary key before insert so the schema stays
// portable between Postgres and the SQLite test database.
func assignID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

// All returns every model for AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Profile{},
		&Community{},
		&CommunityMembership{},
		&Like{},
		&SuperLike{},
		&Match{},
		&PairMeal{},
		&GroupMeal{},
		&GroupMealParticipant{},
		&GroupMealMessage{},
		&AvailabilitySlot{},
		&SystemLog{},
	}
}

func (u *User) BeforeCreate(tx *gorm.DB) error                 { assignID(&u.ID); return nil }
func (p *Profile) BeforeCreate(tx *gorm.DB) error              { assignID(&p.ID); return nil }
func (c *Community) BeforeCreate(tx *gorm.DB) error            { assignID(&c.ID); return nil }
func (m *CommunityMembership) BeforeCreate(tx *gorm.DB) error  { assignID(&m.ID); return nil }
func (l *Like) BeforeCreate(tx *gorm.DB) error                 { assignID(&l.ID); return nil }
func (s *SuperLike) BeforeCreate(tx *gorm.DB) error            { assignID(&s.ID); return nil }
func (m *Match) BeforeCreate(tx *gorm.DB) error                { assignID(&m.ID); return nil }
func (p *PairMeal) BeforeCreate(tx *gorm.DB) error             { assignID(&p.ID); return nil }
func (g *GroupMeal) BeforeCreate(tx *gorm.DB) error            { assignID(&g.ID); return nil }
func (p *GroupMealParticipant) BeforeCreate(tx *gorm.DB) error { assignID(&p.ID); return nil }
func (m *GroupMealMessage) BeforeCreate(tx *gorm.DB) error     { assignID(&m.ID); return nil }
func (a *AvailabilitySlot) BeforeCreate(tx *gorm.DB) error     { assignID(&a.ID); return nil }
func (s *SystemLog) BeforeCreate(tx *gorm.DB) error            { assignID(&s.ID); return nil }
