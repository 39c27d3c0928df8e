// Package membership is the community gate every matching action passes
// through.
package membership

import (
	"errors"
	"fmt"

	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/models"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/session"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrJoinRequired      = errors.New("approved community membership required")
	ErrTargetNotMember   = errors.New("target user is not an approved member of this community")
	ErrNoActiveCommunity = errors.New("no approved community membership")
)

// IsApproved reports whether userID holds an approved membership in communityID.
func IsApproved(db *gorm.DB, userID, communityID uuid.UUID) (bool, error) {
	var count int64
	err := db.Model(&models.CommunityMembership{}).
		Where("user_id = ? AND community_id = ? AND status = ?", userID, communityID, models.MembershipApproved).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return count > 0, nil
}

// RequireApproved returns ErrJoinRequired unless the user is approved.
func RequireApproved(db *gorm.DB, userID, communityID uuid.UUID) error {
	ok, err := IsApproved(db, userID, communityID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrJoinRequired
	}
	return nil
}

// RequireTargets returns ErrTargetNotMember unless every id is approved in communityID.
func RequireTargets(db *gorm.DB, communityID uuid.UUID, userIDs ...uuid.UUID) error {
	if len(userIDs) == 0 {
		return nil
	}
	unique := make(map[uuid.UUID]struct{}, len(userIDs))
	for _, id := range userIDs {
		unique[id] = struct{}{}
	}
	var count int64
	err := db.Model(&models.CommunityMembership{}).
		Where("community_id = ? AND status = ? AND user_id IN ?", communityID, models.MembershipApproved, userIDs).
		Count(&count).Error
	if err != nil {
		return fmt.Errorf("failed to check members: %w", err)
	}
	if int(count) != len(unique) {
		return ErrTargetNotMember
	}
	return nil
}

// ActiveCommunity picks the community a request acts in. With a preferred id
// the user must be approved in exactly that community; there is no fallback.
// Without one it is the earliest approved membership.
func ActiveCommunity(db *gorm.DB, userID uuid.UUID, preferred uuid.UUID) (uuid.UUID, error) {
	q := db.Model(&models.CommunityMembership{}).
		Where("user_id = ? AND status = ?", userID, models.MembershipApproved)
	if preferred != uuid.Nil {
		q = q.Where("community_id = ?", preferred)
	}

	var m models.CommunityMembership
	err := q.Order("created_at ASC").First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return uuid.Nil, ErrNoActiveCommunity
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to resolve community: %w", err)
	}
	return m.CommunityID, nil
}

// LockPair row-locks both users' memberships in communityID, always in
// SortedPair order. Transactions touching the same pair queue behind each
// other and see each other's committed writes.
func LockPair(tx *gorm.DB, communityID, a, b uuid.UUID) error {
	u1, u2 := models.SortedPair(a, b)
	for _, id := range []uuid.UUID{u1, u2} {
		var rows []models.CommunityMembership
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("community_id = ? AND user_id = ?", communityID, id).
			Find(&rows).Error; err != nil {
			return fmt.Errorf("failed to lock membership: %w", err)
		}
	}
	return nil
}

// ApprovedMemberIDs lists approved members in join order.
func ApprovedMemberIDs(db *gorm.DB, communityID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := db.Model(&models.CommunityMembership{}).
		Scopes(session.ForCommunity(communityID)).
		Where("status = ?", models.MembershipApproved).
		Order("created_at ASC").
		Pluck("user_id", &ids).Error
	return ids, err
}
