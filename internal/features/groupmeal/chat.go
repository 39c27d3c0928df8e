package groupmeal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MessagePageSize caps one page of chat history.
const MessagePageSize = 100

// chatAccess allows seat-holding participants and admins.
func chatAccess(db *gorm.DB, userID, mealID uuid.UUID) error {
	var meal models.GroupMeal
	err := db.Select("id").First(&meal, "id = ?", mealID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrMealNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load group meal: %w", err)
	}

	p, err := participantOf(db, mealID, userID)
	if err != nil {
		return err
	}
	if p != nil && models.HoldsSeat(p.Status) {
		return nil
	}

	var u models.User
	if err := db.Select("id", "is_admin").First(&u, "id = ?", userID).Error; err == nil && u.IsAdmin {
		return nil
	}
	return ErrNotParticipant
}

// ListMessages returns messages newer than after, oldest first.
func (s *Service) ListMessages(ctx context.Context, userID, mealID uuid.UUID, after time.Time) ([]MessageResponse, error) {
	db := s.db.WithContext(ctx)
	if err := chatAccess(db, userID, mealID); err != nil {
		return nil, err
	}

	q := db.Where("group_meal_id = ?", mealID)
	if !after.IsZero() {
		q = q.Where("created_at > ?", after)
	}
	var msgs []models.GroupMealMessage
	if err := q.Order("created_at ASC").Limit(MessagePageSize).Find(&msgs).Error; err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	names, err := authorNames(db, msgs)
	if err != nil {
		return nil, err
	}
	out := make([]MessageResponse, len(msgs))
	for i, m := range msgs {
		out[i] = toMessageResponse(&m, names[m.UserID])
	}
	return out, nil
}

func (s *Service) PostMessage(ctx context.Context, userID, mealID uuid.UUID, body string) (*MessageResponse, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrEmptyMessage
	}

	db := s.db.WithContext(ctx)
	if err := chatAccess(db, userID, mealID); err != nil {
		return nil, err
	}

	msg := models.GroupMealMessage{GroupMealID: mealID, UserID: userID, Body: body}
	if err := db.Create(&msg).Error; err != nil {
		return nil, fmt.Errorf("failed to post message: %w", err)
	}

	names, err := authorNames(db, []models.GroupMealMessage{msg})
	if err != nil {
		return nil, err
	}
	resp := toMessageResponse(&msg, names[userID])
	return &resp, nil
}

func authorNames(db *gorm.DB, msgs []models.GroupMealMessage) (map[uuid.UUID]string, error) {
	out := map[uuid.UUID]string{}
	if len(msgs) == 0 {
		return out, nil
	}
	ids := make([]uuid.UUID, 0, len(msgs))
	for _, m := range msgs {
		ids = append(ids, m.UserID)
	}
	var profiles []models.Profile
	if err := db.Select("user_id", "display_name").Where("user_id IN ?", ids).Find(&profiles).Error; err != nil {
		return nil, fmt.Errorf("failed to load authors: %w", err)
	}
	for _, p := range profiles {
		out[p.UserID] = p.DisplayName
	}
	return out, nil
}

func toMessageResponse(m *models.GroupMealMessage, author string) MessageResponse {
	return MessageResponse{ID: m.ID, UserID: m.UserID, Author: author, Body: m.Body, CreatedAt: m.CreatedAt}
}
