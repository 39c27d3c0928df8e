package availability

import (
	"errors"
	"fmt"
	"time"

	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/membership"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrDuplicateSlot = errors.New("duplicate weekday and time slot")
	ErrInvalidSlot   = errors.New("invalid time slot or status")
)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

func (s *Service) Get(userID uuid.UUID) ([]SlotResponse, error) {
	slots, err := load(s.db, userID)
	if err != nil {
		return nil, err
	}
	out := make([]SlotResponse, len(slots))
	for i, sl := range slots {
		out[i] = SlotResponse{Weekday: sl.Weekday, TimeSlot: sl.TimeSlot, Status: sl.Status}
	}
	return out, nil
}

// Replace swaps the user's whole weekly grid. Duplicates are rejected before
// any row is touched.
func (s *Service) Replace(userID uuid.UUID, slots []SlotInput) ([]SlotResponse, error) {
	seen := make(map[string]struct{}, len(slots))
	rows := make([]models.AvailabilitySlot, 0, len(slots))
	for _, in := range slots {
		key := fmt.Sprintf("%d:%s", *in.Weekday, in.TimeSlot)
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("%w: weekday %d %s", ErrDuplicateSlot, *in.Weekday, in.TimeSlot)
		}
		seen[key] = struct{}{}
		rows = append(rows, models.AvailabilitySlot{
			UserID:   userID,
			Weekday:  *in.Weekday,
			TimeSlot: in.TimeSlot,
			Status:   in.Status,
		})
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&models.AvailabilitySlot{}).Error; err != nil {
			return fmt.Errorf("failed to clear availability: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("failed to save availability: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(userID)
}

// Pair returns another approved member's grid.
func (s *Service) Pair(targetID, communityID uuid.UUID) ([]SlotResponse, error) {
	if err := membership.RequireTargets(s.db, communityID, targetID); err != nil {
		return nil, err
	}
	return s.Get(targetID)
}

// Overlap lists slots where both users are AVAILABLE or MEET_ONLY.
func (s *Service) Overlap(userID, targetID, communityID uuid.UUID) ([]OverlapSlot, error) {
	if err := membership.RequireTargets(s.db, communityID, targetID); err != nil {
		return nil, err
	}
	mine, err := load(s.db, userID)
	if err != nil {
		return nil, err
	}
	theirs, err := load(s.db, targetID)
	if err != nil {
		return nil, err
	}

	type key struct {
		weekday int
		slot    string
	}
	other := make(map[key]string, len(theirs))
	for _, sl := range theirs {
		other[key{sl.Weekday, sl.TimeSlot}] = sl.Status
	}

	out := []OverlapSlot{}
	for _, sl := range mine {
		theirStatus, ok := other[key{sl.Weekday, sl.TimeSlot}]
		if !ok || !Free(sl.Status) || !Free(theirStatus) {
			continue
		}
		out = append(out, OverlapSlot{Weekday: sl.Weekday, TimeSlot: sl.TimeSlot, MyStatus: sl.Status, TheirStatus: theirStatus})
	}
	return out, nil
}

// SetDailySlot upserts today's slot, today being evaluated in loc.
func (s *Service) SetDailySlot(userID uuid.UUID, now time.Time, loc *time.Location, timeSlot, status string) error {
	if timeSlot != models.TimeSlotDay && timeSlot != models.TimeSlotNight {
		return ErrInvalidSlot
	}
	switch status {
	case models.AvailabilityAvailable, models.AvailabilityUnavailable, models.AvailabilityMeetOnly:
	default:
		return ErrInvalidSlot
	}

	slot := models.AvailabilitySlot{
		UserID:   userID,
		Weekday:  int(now.In(loc).Weekday()),
		TimeSlot: timeSlot,
		Status:   status,
	}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "weekday"}, {Name: "time_slot"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "updated_at"}),
	}).Create(&slot).Error
	if err != nil {
		return fmt.Errorf("failed to set daily availability: %w", err)
	}
	return nil
}

// Free reports whether status allows meeting at all.
func Free(status string) bool {
	return status == models.AvailabilityAvailable || status == models.AvailabilityMeetOnly
}

func load(db *gorm.DB, userID uuid.UUID) ([]models.AvailabilitySlot, error) {
	var slots []models.AvailabilitySlot
	if err := db.Where("user_id = ?", userID).Order("weekday ASC").Order("time_slot ASC").Find(&slots).Error; err != nil {
		return nil, fmt.Errorf("failed to load availability: %w", err)
	}
	return slots, nil
}

// PromptRecipients returns the LINE ids of every user with at least one
// approved membership, for the daily availability prompt.
func (s *Service) PromptRecipients() ([]string, error) {
	var ids []string
	err := s.db.Model(&models.User{}).
		Distinct("users.line_user_id").
		Joins("JOIN community_memberships ON community_memberships.user_id = users.id").
		Where("community_memberships.status = ? AND users.line_user_id IS NOT NULL AND users.line_user_id <> ''", models.MembershipApproved).
		Order("users.line_user_id").
		Pluck("users.line_user_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load prompt recipients: %w", err)
	}
	return ids, nil
}
