package groupmeal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/features/profile"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/membership"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/models"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/session"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrInvalidMode = errors.New("mode must be REAL or MEET")

// poolStatuses lists the availability states a mode accepts.
func poolStatuses(mode string) ([]string, error) {
	switch mode {
	case "", ModeReal:
		return []string{models.AvailabilityAvailable}, nil
	case ModeMeet:
		return []string{models.AvailabilityAvailable, models.AvailabilityMeetOnly}, nil
	}
	return nil, ErrInvalidMode
}

// pool returns the approved members free on date/timeSlot who do not already
// hold a seat in an open meal on that slot, in community join order.
func pool(db *gorm.DB, communityID uuid.UUID, date time.Time, timeSlot, mode string) ([]Candidate, error) {
	statuses, err := poolStatuses(mode)
	if err != nil {
		return nil, err
	}
	if !validTimeSlot(timeSlot) {
		return nil, ErrInvalidTimeSlot
	}
	date = utcMidnight(date)

	members, err := membership.ApprovedMemberIDs(db, communityID)
	if err != nil {
		return nil, fmt.Errorf("failed to load members: %w", err)
	}
	if len(members) == 0 {
		return []Candidate{}, nil
	}

	var free []uuid.UUID
	if err := db.Model(&models.AvailabilitySlot{}).
		Where("user_id IN ? AND weekday = ? AND time_slot = ? AND status IN ?", members, int(date.Weekday()), timeSlot, statuses).
		Pluck("user_id", &free).Error; err != nil {
		return nil, fmt.Errorf("failed to load availability: %w", err)
	}

	var busy []uuid.UUID
	if err := db.Model(&models.GroupMealParticipant{}).
		Joins("JOIN group_meals ON group_meals.id = group_meal_participants.group_meal_id").
		Where("group_meals.community_id = ? AND group_meals.date = ? AND group_meals.time_slot = ? AND group_meals.status <> ?",
			communityID, date, timeSlot, models.GroupMealClosed).
		Where("group_meal_participants.status IN ?", models.SeatHoldingStatuses).
		Pluck("group_meal_participants.user_id", &busy).Error; err != nil {
		return nil, fmt.Errorf("failed to load booked members: %w", err)
	}

	eligible := make(map[uuid.UUID]bool, len(free))
	for _, id := range free {
		eligible[id] = true
	}
	for _, id := range busy {
		delete(eligible, id)
	}

	var ids []uuid.UUID
	for _, id := range members {
		if eligible[id] {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return []Candidate{}, nil
	}

	var profiles []models.Profile
	if err := db.Where("user_id IN ?", ids).Find(&profiles).Error; err != nil {
		return nil, fmt.Errorf("failed to load profiles: %w", err)
	}
	byUser := make(map[uuid.UUID]*models.Profile, len(profiles))
	for i := range profiles {
		byUser[profiles[i].UserID] = &profiles[i]
	}

	out := make([]Candidate, 0, len(ids))
	for _, id := range ids {
		c := Candidate{UserID: id}
		if p := byUser[id]; p != nil {
			c.MainArea = p.MainArea()
			c.Hobbies = p.Hobbies
			c.FavoriteMeals = p.FavoriteMeals
		}
		out = append(out, c)
	}
	return out, nil
}

func yesEdges(db *gorm.DB, communityID uuid.UUID, pool []Candidate) (YesEdges, error) {
	edges := YesEdges{}
	if len(pool) < 2 {
		return edges, nil
	}
	ids := make([]uuid.UUID, len(pool))
	for i, c := range pool {
		ids[i] = c.UserID
	}
	var likes []models.Like
	if err := db.Select("from_user_id", "to_user_id").
		Where("community_id = ? AND answer = ? AND from_user_id IN ? AND to_user_id IN ?", communityID, models.AnswerYes, ids, ids).
		Find(&likes).Error; err != nil {
		return nil, fmt.Errorf("failed to load likes: %w", err)
	}
	for _, l := range likes {
		edges.Add(l.FromUserID, l.ToUserID)
	}
	return edges, nil
}

func (s *Service) propose(db *gorm.DB, communityID uuid.UUID, date time.Time, timeSlot, mode string) ([]Candidate, [][]Candidate, error) {
	candidates, err := pool(db, communityID, date, timeSlot, mode)
	if err != nil {
		return nil, nil, err
	}
	if len(candidates) == 0 {
		return candidates, [][]Candidate{}, nil
	}
	edges, err := yesEdges(db, communityID, candidates)
	if err != nil {
		return nil, nil, err
	}
	return candidates, Partition(candidates, edges), nil
}

// Candidates returns the free pool for a slot and the proposed grouping.
func (s *Service) Candidates(ctx context.Context, userID, communityID uuid.UUID, date time.Time, timeSlot, mode string) (*CandidatesResponse, error) {
	db := s.db.WithContext(ctx)
	if err := membership.RequireApproved(db, userID, communityID); err != nil {
		return nil, err
	}
	if mode == "" {
		mode = ModeReal
	}

	candidates, groups, err := s.propose(db, communityID, date, timeSlot, mode)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, len(candidates))
	for i, c := range candidates {
		ids[i] = c.UserID
	}
	summaries, err := profile.Summaries(db, ids)
	if err != nil {
		return nil, err
	}
	summary := func(id uuid.UUID) profile.Summary {
		sum := summaries[id]
		sum.UserID = id
		return sum
	}

	resp := &CandidatesResponse{
		Date:     utcMidnight(date).Format("2006-01-02"),
		TimeSlot: timeSlot,
		Mode:     mode,
		Pool:     make([]profile.Summary, 0, len(candidates)),
		Groups:   make([][]profile.Summary, 0, len(groups)),
	}
	for _, id := range ids {
		resp.Pool = append(resp.Pool, summary(id))
	}
	for _, g := range groups {
		row := make([]profile.Summary, len(g))
		for i, c := range g {
			row[i] = summary(c.UserID)
		}
		resp.Groups = append(resp.Groups, row)
	}
	return resp, nil
}

// CandidatesForMeal proposes grouping for an existing meal's date and slot.
func (s *Service) CandidatesForMeal(ctx context.Context, userID, communityID, mealID uuid.UUID, mode string) (*CandidatesResponse, error) {
	var meal models.GroupMeal
	err := s.db.WithContext(ctx).Scopes(session.ForCommunity(communityID)).First(&meal, "id = ?", mealID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMealNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load group meal: %w", err)
	}
	return s.Candidates(ctx, userID, communityID, meal.Date, meal.TimeSlot, mode)
}

// AutoGroup turns the proposal into meals. Each group of two or more becomes
// a meal hosted by its seed with the rest invited; singletons are skipped.
// Callers are admin-gated at the route.
func (s *Service) AutoGroup(ctx context.Context, communityID uuid.UUID, date time.Time, timeSlot, mode string) (created []MealResponse, err error) {
	defer func() { metrics.GroupMealOp("auto_group", err) }()

	date = utcMidnight(date)
	var (
		meals   []models.GroupMeal
		invites = map[uuid.UUID][]uuid.UUID{}
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		_, groups, err := s.propose(tx, communityID, date, timeSlot, mode)
		if err != nil {
			return err
		}

		for _, g := range groups {
			if len(g) < 2 {
				continue
			}
			m := models.GroupMeal{
				CommunityID: communityID,
				HostID:      g[0].UserID,
				Date:        date,
				Weekday:     int(date.Weekday()),
				TimeSlot:    timeSlot,
				Capacity:    max(models.MinGroupCapacity, len(g)),
				Status:      models.GroupMealOpen,
			}
			if err := tx.Create(&m).Error; err != nil {
				return fmt.Errorf("failed to create group meal: %w", err)
			}
			rows := []models.GroupMealParticipant{{GroupMealID: m.ID, UserID: g[0].UserID, Status: models.ParticipantJoined, IsHost: true}}
			for _, c := range g[1:] {
				rows = append(rows, models.GroupMealParticipant{GroupMealID: m.ID, UserID: c.UserID, Status: models.ParticipantInvited})
				invites[m.ID] = append(invites[m.ID], c.UserID)
			}
			if err := tx.Create(&rows).Error; err != nil {
				return fmt.Errorf("failed to seat group: %w", err)
			}
			if err := SyncStatus(tx, &m); err != nil {
				return err
			}
			meals = append(meals, m)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	created = make([]MealResponse, 0, len(meals))
	for i := range meals {
		s.notifyInvites(ctx, &meals[i], invites[meals[i].ID])
		resp, err := s.Get(ctx, uuid.Nil, meals[i].ID)
		if err != nil {
			return nil, err
		}
		created = append(created, *resp)
	}
	return created, nil
}
