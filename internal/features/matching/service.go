package matching

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/features/profile"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/membership"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/models"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/notify"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/session"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrSelfTarget        = errors.New("you cannot answer about yourself")
	ErrAlreadyAnswered   = errors.New("you already answered about this member")
	ErrInvalidAnswer     = errors.New("answer must be YES or NO")
	ErrMatchNotFound     = errors.New("match not found")
	ErrPairMealNotFound  = errors.New("pair meal not found")
	ErrPairMealCancelled = errors.New("pair meal is cancelled")
	ErrSuperLikeNotFound = errors.New("no super like to remove")
)

type Service struct {
	db       *gorm.DB
	notifier notify.Notifier
}

func NewService(db *gorm.DB, notifier notify.Notifier) *Service {
	return &Service{db: db, notifier: notifier}
}

// SubmitLike records from's answer about to. A YES that completes a mutual
// pair creates the canonical match inside the same transaction.
func (s *Service) SubmitLike(ctx context.Context, from, to, communityID uuid.UUID, answer string) (*LikeResult, error) {
	if answer != models.AnswerYes && answer != models.AnswerNo {
		return nil, ErrInvalidAnswer
	}
	if from == to {
		return nil, ErrSelfTarget
	}

	var (
		match   *models.Match
		created bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// A->B and B->A must not both miss each other's uncommitted like.
		if err := membership.LockPair(tx, communityID, from, to); err != nil {
			return err
		}
		if err := membership.RequireApproved(tx, from, communityID); err != nil {
			return err
		}
		if err := membership.RequireTargets(tx, communityID, to); err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&models.Like{}).
			Where("from_user_id = ? AND to_user_id = ? AND community_id = ?", from, to, communityID).
			Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check like: %w", err)
		}
		if count > 0 {
			return ErrAlreadyAnswered
		}

		like := models.Like{FromUserID: from, ToUserID: to, CommunityID: communityID, Answer: answer}
		if err := tx.Create(&like).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyAnswered
			}
			return fmt.Errorf("failed to save like: %w", err)
		}
		if answer != models.AnswerYes {
			return nil
		}

		if err := tx.Model(&models.Like{}).
			Where("from_user_id = ? AND to_user_id = ? AND community_id = ? AND answer = ?", to, from, communityID, models.AnswerYes).
			Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check reciprocal like: %w", err)
		}
		if count == 0 {
			return nil
		}

		m, inserted, err := upsertMatch(tx, communityID, from, to)
		if err != nil {
			return err
		}
		match, created = m, inserted
		return nil
	})
	if err != nil {
		return nil, err
	}

	if match == nil {
		return &LikeResult{Matched: false}, nil
	}

	summaries, err := profile.Summaries(s.db, []uuid.UUID{to})
	if err != nil {
		return nil, err
	}
	partner := summaries[to]
	partner.UserID = to

	if created {
		metrics.MatchCreated()
		s.notifyMatch(ctx, match, from, to)
	}

	matchID, matchedAt := match.ID, match.CreatedAt
	return &LikeResult{Matched: true, MatchID: &matchID, Partner: &partner, MatchedAt: &matchedAt}, nil
}

// upsertMatch inserts the sorted pair, doing nothing on conflict, then reads
// the stored row. inserted reports whether this call created it.
func upsertMatch(tx *gorm.DB, communityID, a, b uuid.UUID) (*models.Match, bool, error) {
	u1, u2 := models.SortedPair(a, b)
	candidate := models.Match{CommunityID: communityID, User1ID: u1, User2ID: u2}
	result := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "community_id"}, {Name: "user1_id"}, {Name: "user2_id"}},
		DoNothing: true,
	}).Create(&candidate)
	if result.Error != nil {
		return nil, false, fmt.Errorf("failed to create match: %w", result.Error)
	}

	var stored models.Match
	if err := tx.Where("community_id = ? AND user1_id = ? AND user2_id = ?", communityID, u1, u2).First(&stored).Error; err != nil {
		return nil, false, fmt.Errorf("failed to read match: %w", err)
	}
	return &stored, result.RowsAffected > 0, nil
}

func (s *Service) notifyMatch(ctx context.Context, m *models.Match, a, b uuid.UUID) {
	var users []models.User
	if err := s.db.Preload("Profile").Where("id IN ?", []uuid.UUID{a, b}).Find(&users).Error; err != nil {
		slog.Warn("match notification lookup failed", "match_id", m.ID.String(), "error", err)
		return
	}
	byID := make(map[uuid.UUID]*models.User, len(users))
	for i := range users {
		byID[users[i].ID] = &users[i]
	}

	var out []notify.Notification
	for _, pair := range [][2]uuid.UUID{{a, b}, {b, a}} {
		to, partner := byID[pair[0]], byID[pair[1]]
		if to == nil || partner == nil {
			continue
		}
		out = append(out, notify.Notification{
			To:   to.LineID(),
			Kind: notify.KindMatch,
			Params: map[string]string{
				notify.ParamPartnerName: displayName(partner),
				notify.ParamMatchID:     m.ID.String(),
			},
		})
	}
	s.notifier.Notify(ctx, out...)
}

// NextCandidate returns the earliest-joined approved member the user has not
// answered yet, or nil when everyone has been answered.
func (s *Service) NextCandidate(ctx context.Context, userID, communityID uuid.UUID) (*profile.Summary, error) {
	db := s.db.WithContext(ctx)
	answered := db.Model(&models.Like{}).Select("to_user_id").
		Scopes(session.ForCommunity(communityID)).
		Where("from_user_id = ?", userID)

	var m models.CommunityMembership
	err := db.Scopes(session.ForCommunity(communityID)).
		Where("status = ? AND user_id <> ?", models.MembershipApproved, userID).
		Where("user_id NOT IN (?)", answered).
		Order("created_at ASC").Order("id ASC").
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find next candidate: %w", err)
	}

	summaries, err := profile.Summaries(db, []uuid.UUID{m.UserID})
	if err != nil {
		return nil, err
	}
	sum := summaries[m.UserID]
	sum.UserID = m.UserID
	return &sum, nil
}

// SubmitSuperLike replaces the sender's single super-like in the community.
func (s *Service) SubmitSuperLike(ctx context.Context, from, to, communityID uuid.UUID) error {
	if from == to {
		return ErrSelfTarget
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := membership.RequireApproved(tx, from, communityID); err != nil {
			return err
		}
		if err := membership.RequireTargets(tx, communityID, to); err != nil {
			return err
		}
		sl := models.SuperLike{FromUserID: from, CommunityID: communityID, ToUserID: to}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "from_user_id"}, {Name: "community_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"to_user_id", "updated_at"}),
		}).Create(&sl).Error
	})
	if err != nil {
		return err
	}

	var target models.User
	if err := s.db.Select("id", "line_user_id").First(&target, "id = ?", to).Error; err == nil {
		s.notifier.Notify(ctx, notify.Notification{To: target.LineID(), Kind: notify.KindSuperLike})
	}
	return nil
}

func (s *Service) DeleteSuperLike(ctx context.Context, from, communityID uuid.UUID) error {
	result := s.db.WithContext(ctx).
		Scopes(session.ForCommunity(communityID)).
		Where("from_user_id = ?", from).
		Delete(&models.SuperLike{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete super like: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrSuperLikeNotFound
	}
	return nil
}

// ListMembers returns every other approved member with the caller's relation to them.
func (s *Service) ListMembers(ctx context.Context, userID, communityID uuid.UUID) ([]Member, error) {
	db := s.db.WithContext(ctx)
	ids, err := membership.ApprovedMemberIDs(db, communityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	rel, err := s.loadRelations(db, userID, communityID)
	if err != nil {
		return nil, err
	}
	summaries, err := profile.Summaries(db, ids)
	if err != nil {
		return nil, err
	}

	out := make([]Member, 0, len(ids))
	for _, id := range ids {
		if id == userID {
			continue
		}
		sum := summaries[id]
		sum.UserID = id
		out = append(out, Member{
			Summary:        sum,
			MyAnswer:       rel.answers[id],
			Matched:        rel.matched[id],
			SuperLikedMe:   rel.superLikedBy[id],
			SuperLikedByMe: rel.mySuperLike == id,
		})
	}
	return out, nil
}

// Relationships summarizes the caller's answers, matches and super-likes.
func (s *Service) Relationships(ctx context.Context, userID, communityID uuid.UUID) (*Relationships, error) {
	db := s.db.WithContext(ctx)
	rel, err := s.loadRelations(db, userID, communityID)
	if err != nil {
		return nil, err
	}
	ids, err := membership.ApprovedMemberIDs(db, communityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}

	out := &Relationships{
		Liked:        []uuid.UUID{},
		Passed:       []uuid.UUID{},
		Matched:      []uuid.UUID{},
		SuperLikedBy: []uuid.UUID{},
	}
	for _, id := range ids {
		if id == userID {
			continue
		}
		switch rel.answers[id] {
		case models.AnswerYes:
			out.Liked = append(out.Liked, id)
		case models.AnswerNo:
			out.Passed = append(out.Passed, id)
		default:
			out.RemainingToDo++
		}
		if rel.matched[id] {
			out.Matched = append(out.Matched, id)
		}
		if rel.superLikedBy[id] {
			out.SuperLikedBy = append(out.SuperLikedBy, id)
		}
	}
	if rel.mySuperLike != uuid.Nil {
		id := rel.mySuperLike
		out.MySuperLike = &id
	}
	return out, nil
}

type relations struct {
	answers      map[uuid.UUID]string
	matched      map[uuid.UUID]bool
	superLikedBy map[uuid.UUID]bool
	mySuperLike  uuid.UUID
}

func (s *Service) loadRelations(db *gorm.DB, userID, communityID uuid.UUID) (*relations, error) {
	rel := &relations{
		answers:      map[uuid.UUID]string{},
		matched:      map[uuid.UUID]bool{},
		superLikedBy: map[uuid.UUID]bool{},
	}

	var likes []models.Like
	if err := db.Scopes(session.ForCommunity(communityID)).Where("from_user_id = ?", userID).Find(&likes).Error; err != nil {
		return nil, fmt.Errorf("failed to load likes: %w", err)
	}
	for _, l := range likes {
		rel.answers[l.ToUserID] = l.Answer
	}

	var matches []models.Match
	if err := db.Scopes(session.ForCommunity(communityID)).Where("user1_id = ? OR user2_id = ?", userID, userID).Find(&matches).Error; err != nil {
		return nil, fmt.Errorf("failed to load matches: %w", err)
	}
	for i := range matches {
		rel.matched[matches[i].Partner(userID)] = true
	}

	var supers []models.SuperLike
	if err := db.Scopes(session.ForCommunity(communityID)).Where("to_user_id = ? OR from_user_id = ?", userID, userID).Find(&supers).Error; err != nil {
		return nil, fmt.Errorf("failed to load super likes: %w", err)
	}
	for _, sl := range supers {
		if sl.FromUserID == userID {
			rel.mySuperLike = sl.ToUserID
		}
		if sl.ToUserID == userID {
			rel.superLikedBy[sl.FromUserID] = true
		}
	}
	return rel, nil
}

// ListMatches returns the caller's matches in the community, newest first.
func (s *Service) ListMatches(ctx context.Context, userID, communityID uuid.UUID) ([]MatchResponse, error) {
	db := s.db.WithContext(ctx)
	var matches []models.Match
	if err := db.Scopes(session.ForCommunity(communityID)).
		Where("user1_id = ? OR user2_id = ?", userID, userID).
		Order("created_at DESC").
		Find(&matches).Error; err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}

	partners := make([]uuid.UUID, len(matches))
	for i := range matches {
		partners[i] = matches[i].Partner(userID)
	}
	summaries, err := profile.Summaries(db, partners)
	if err != nil {
		return nil, err
	}

	out := make([]MatchResponse, len(matches))
	for i := range matches {
		p := summaries[partners[i]]
		p.UserID = partners[i]
		out[i] = MatchResponse{ID: matches[i].ID, Partner: p, MatchedAt: matches[i].CreatedAt}
	}
	return out, nil
}

// GetMatch returns one match with its pair meals. Only the two matched users may read it.
func (s *Service) GetMatch(ctx context.Context, userID, matchID uuid.UUID) (*MatchResponse, error) {
	db := s.db.WithContext(ctx)
	m, err := findMatchFor(db, userID, matchID)
	if err != nil {
		return nil, err
	}

	var meals []models.PairMeal
	if err := db.Where("match_id = ?", m.ID).Order("date ASC").Find(&meals).Error; err != nil {
		return nil, fmt.Errorf("failed to load pair meals: %w", err)
	}

	partnerID := m.Partner(userID)
	summaries, err := profile.Summaries(db, []uuid.UUID{partnerID})
	if err != nil {
		return nil, err
	}
	p := summaries[partnerID]
	p.UserID = partnerID

	resp := &MatchResponse{ID: m.ID, Partner: p, MatchedAt: m.CreatedAt, PairMeals: make([]PairMealResponse, len(meals))}
	for i := range meals {
		resp.PairMeals[i] = toPairMealResponse(&meals[i])
	}
	return resp, nil
}

// CreatePairMeal schedules a 1:1 meal on a match and tells the partner.
func (s *Service) CreatePairMeal(ctx context.Context, userID, matchID uuid.UUID, in *PairMealInput) (*PairMealResponse, error) {
	db := s.db.WithContext(ctx)
	m, err := findMatchFor(db, userID, matchID)
	if err != nil {
		return nil, err
	}

	meal := models.PairMeal{
		MatchID:     m.ID,
		ProposerID:  userID,
		Date:        in.Date,
		TimeBand:    in.TimeBand,
		Location:    in.Location,
		LocationURL: in.LocationURL,
		Note:        in.Note,
		Status:      models.PairMealScheduled,
	}
	if err := db.Create(&meal).Error; err != nil {
		return nil, fmt.Errorf("failed to create pair meal: %w", err)
	}

	var users []models.User
	if err := db.Preload("Profile").Where("id IN ?", []uuid.UUID{userID, m.Partner(userID)}).Find(&users).Error; err == nil {
		var proposer, partner *models.User
		for i := range users {
			if users[i].ID == userID {
				proposer = &users[i]
			} else {
				partner = &users[i]
			}
		}
		if proposer != nil && partner != nil {
			s.notifier.Notify(ctx, notify.Notification{
				To:   partner.LineID(),
				Kind: notify.KindPairMeal,
				Params: map[string]string{
					notify.ParamPartnerName: displayName(proposer),
					notify.ParamDate:        meal.Date.Format("2006-01-02"),
					notify.ParamLocation:    meal.Location,
					notify.ParamMatchID:     m.ID.String(),
				},
			})
		}
	}

	resp := toPairMealResponse(&meal)
	return &resp, nil
}

// UpdatePairMeal rewrites the schedule of a non-cancelled pair meal.
func (s *Service) UpdatePairMeal(ctx context.Context, userID, pairMealID uuid.UUID, in *PairMealInput) (*PairMealResponse, error) {
	var meal models.PairMeal
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.loadPairMealFor(tx, userID, pairMealID, &meal); err != nil {
			return err
		}
		if meal.Status == models.PairMealCancelled {
			return ErrPairMealCancelled
		}
		meal.Date = in.Date
		meal.TimeBand = in.TimeBand
		meal.Location = in.Location
		meal.LocationURL = in.LocationURL
		meal.Note = in.Note
		return tx.Save(&meal).Error
	})
	if err != nil {
		return nil, err
	}
	resp := toPairMealResponse(&meal)
	return &resp, nil
}

// CancelPairMeal flips the status; rows are never deleted.
func (s *Service) CancelPairMeal(ctx context.Context, userID, pairMealID uuid.UUID) (*PairMealResponse, error) {
	var meal models.PairMeal
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.loadPairMealFor(tx, userID, pairMealID, &meal); err != nil {
			return err
		}
		if meal.Status == models.PairMealCancelled {
			return nil
		}
		meal.Status = models.PairMealCancelled
		return tx.Model(&meal).Update("status", models.PairMealCancelled).Error
	})
	if err != nil {
		return nil, err
	}
	resp := toPairMealResponse(&meal)
	return &resp, nil
}

func (s *Service) loadPairMealFor(tx *gorm.DB, userID, pairMealID uuid.UUID, meal *models.PairMeal) error {
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(meal, "id = ?", pairMealID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPairMealNotFound
		}
		return fmt.Errorf("failed to load pair meal: %w", err)
	}
	if _, err := findMatchFor(tx, userID, meal.MatchID); err != nil {
		if errors.Is(err, ErrMatchNotFound) {
			return ErrPairMealNotFound
		}
		return err
	}
	return nil
}

// findMatchFor hides matches the user is not part of behind ErrMatchNotFound.
func findMatchFor(db *gorm.DB, userID, matchID uuid.UUID) (*models.Match, error) {
	var m models.Match
	if err := db.First(&m, "id = ?", matchID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to load match: %w", err)
	}
	if !m.Includes(userID) {
		return nil, ErrMatchNotFound
	}
	return &m, nil
}

func toPairMealResponse(m *models.PairMeal) PairMealResponse {
	return PairMealResponse{
		ID:          m.ID,
		MatchID:     m.MatchID,
		ProposerID:  m.ProposerID,
		Date:        m.Date.UTC().Format("2006-01-02"),
		TimeBand:    m.TimeBand,
		Location:    m.Location,
		LocationURL: m.LocationURL,
		Note:        m.Note,
		Status:      m.Status,
	}
}

func displayName(u *models.User) string {
	if u.Profile != nil && u.Profile.DisplayName != "" {
		return u.Profile.DisplayName
	}
	return "A member"
}
