package community

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/config"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/models"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/session"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrInvalidInviteCode  = errors.New("invalid invite code")
	ErrMembershipRejected = errors.New("membership request was rejected")
	ErrMembershipNotFound = errors.New("membership not found")
	ErrUserNotFound       = errors.New("user not found")
)

type Service struct {
	db  *gorm.DB
	cfg *config.Config
}

func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{db: db, cfg: cfg}
}

// Join creates a membership for the invite code's community. An existing
// membership is returned unchanged unless it was rejected.
func (s *Service) Join(userID uuid.UUID, inviteCode string) (*models.CommunityMembership, *models.Community, error) {
	return JoinWith(s.db, s.cfg, userID, inviteCode)
}

// JoinWith is Join on an explicit handle, for callers already inside a transaction.
func JoinWith(db *gorm.DB, cfg *config.Config, userID uuid.UUID, inviteCode string) (*models.CommunityMembership, *models.Community, error) {
	code := strings.TrimSpace(inviteCode)
	if code == "" {
		return nil, nil, ErrInvalidInviteCode
	}

	var c models.Community
	if err := db.Where("invite_code = ?", code).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrInvalidInviteCode
		}
		return nil, nil, fmt.Errorf("failed to find community: %w", err)
	}

	var existing models.CommunityMembership
	err := db.Where("user_id = ? AND community_id = ?", userID, c.ID).First(&existing).Error
	if err == nil {
		if existing.Status == models.MembershipRejected {
			return &existing, &c, ErrMembershipRejected
		}
		return &existing, &c, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, fmt.Errorf("failed to check membership: %w", err)
	}

	m := models.CommunityMembership{
		UserID:      userID,
		CommunityID: c.ID,
		Status:      models.MembershipPending,
	}
	if cfg.AutoApproveMembers {
		m.Status = models.MembershipApproved
	}
	if err := db.Create(&m).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to create membership: %w", err)
	}
	return &m, &c, nil
}

// Status lists the caller's memberships, newest first.
func (s *Service) Status(userID uuid.UUID) ([]MembershipResponse, error) {
	var rows []models.CommunityMembership
	err := s.db.Preload("Community").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load memberships: %w", err)
	}

	out := make([]MembershipResponse, len(rows))
	for i, m := range rows {
		out[i] = MembershipResponse{
			CommunityID:   m.CommunityID,
			CommunityName: m.Community.Name,
			Status:        m.Status,
			JoinedAt:      m.CreatedAt,
		}
	}
	return out, nil
}

// ListMembers returns memberships filtered by status and community (both optional).
func (s *Service) ListMembers(communityID uuid.UUID, status string) ([]MemberResponse, error) {
	q := s.db.Preload("Community").Preload("User.Profile").Order("created_at ASC")
	if communityID != uuid.Nil {
		q = q.Scopes(session.ForCommunity(communityID))
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var rows []models.CommunityMembership
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}

	out := make([]MemberResponse, 0, len(rows))
	for _, m := range rows {
		r := MemberResponse{
			UserID:        m.UserID,
			Email:         m.User.EmailOrEmpty(),
			IsAdmin:       m.User.IsAdmin,
			CommunityID:   m.CommunityID,
			CommunityName: m.Community.Name,
			Status:        m.Status,
			RequestedAt:   m.CreatedAt,
		}
		if m.User.Profile != nil {
			r.DisplayName = m.User.Profile.DisplayName
		}
		out = append(out, r)
	}
	return out, nil
}

// SetStatus approves or rejects a user's memberships. With a nil communityID
// every membership of the user is affected.
func (s *Service) SetStatus(userID, communityID uuid.UUID, status string) error {
	q := s.db.Model(&models.CommunityMembership{}).Where("user_id = ?", userID)
	if communityID != uuid.Nil {
		q = q.Scopes(session.ForCommunity(communityID))
	}
	result := q.Update("status", status)
	if result.Error != nil {
		return fmt.Errorf("failed to update membership: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrMembershipNotFound
	}
	return nil
}

// Remove deletes memberships. Likes and meals stay; the user simply loses access.
func (s *Service) Remove(userID, communityID uuid.UUID) error {
	q := s.db.Where("user_id = ?", userID)
	if communityID != uuid.Nil {
		q = q.Scopes(session.ForCommunity(communityID))
	}
	result := q.Delete(&models.CommunityMembership{})
	if result.Error != nil {
		return fmt.Errorf("failed to remove membership: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrMembershipNotFound
	}
	return nil
}

// Promote grants admin rights.
func (s *Service) Promote(userID uuid.UUID) error {
	result := s.db.Model(&models.User{}).Where("id = ?", userID).Update("is_admin", true)
	if result.Error != nil {
		return fmt.Errorf("failed to promote user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}
