package groupmeal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

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
	ErrMealNotFound       = errors.New("group meal not found")
	ErrMealClosed         = errors.New("group meal is closed")
	ErrNotHost            = errors.New("only the host can do this")
	ErrForbidden          = errors.New("only the host or an admin can do this")
	ErrNoCapacity         = errors.New("no remaining capacity")
	ErrSelfInvite         = errors.New("you cannot invite yourself")
	ErrAlreadyJoined      = errors.New("you already hold a seat in this meal")
	ErrNotInvited         = errors.New("you have no invitation to this meal")
	ErrNotJoined          = errors.New("you have not joined this meal")
	ErrHostCannotLeave    = errors.New("the host cannot leave or decline their own meal")
	ErrCommunityMismatch  = errors.New("this meal belongs to another community")
	ErrInvalidCapacity    = errors.New("capacity must be between 3 and 10")
	ErrInvalidTimeSlot    = errors.New("time slot must be DAY or NIGHT")
	ErrInvalidAction      = errors.New("action must be ACCEPT or DECLINE")
	ErrInvalidAttendance  = errors.New("attendance must be GO, NOT_GO or LATE")
	ErrNotParticipant     = errors.New("only participants can use the meal chat")
	ErrEmptyMessage       = errors.New("message body is empty")
)

// CreateInput describes a new meal slot. Date is truncated to UTC midnight.
type CreateInput struct {
	Date     time.Time
	TimeSlot string
	Capacity int
	Title    string
}

type Service struct {
	db       *gorm.DB
	notifier notify.Notifier
}

func NewService(db *gorm.DB, notifier notify.Notifier) *Service {
	return &Service{db: db, notifier: notifier}
}

// Create opens a meal and seats the host.
func (s *Service) Create(ctx context.Context, hostID, communityID uuid.UUID, in CreateInput) (meal *MealResponse, err error) {
	defer func() { metrics.GroupMealOp("create", err) }()

	if in.Capacity < models.MinGroupCapacity || in.Capacity > models.MaxGroupCapacity {
		return nil, ErrInvalidCapacity
	}
	if !validTimeSlot(in.TimeSlot) {
		return nil, ErrInvalidTimeSlot
	}

	date := utcMidnight(in.Date)
	m := models.GroupMeal{
		CommunityID: communityID,
		HostID:      hostID,
		Title:       strings.TrimSpace(in.Title),
		Date:        date,
		Weekday:     int(date.Weekday()),
		TimeSlot:    in.TimeSlot,
		Capacity:    in.Capacity,
		Status:      models.GroupMealOpen,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := membership.RequireApproved(tx, hostID, communityID); err != nil {
			return err
		}
		if err := tx.Create(&m).Error; err != nil {
			return fmt.Errorf("failed to create group meal: %w", err)
		}
		host := models.GroupMealParticipant{
			GroupMealID: m.ID,
			UserID:      hostID,
			Status:      models.ParticipantJoined,
			IsHost:      true,
		}
		if err := tx.Create(&host).Error; err != nil {
			return fmt.Errorf("failed to seat host: %w", err)
		}
		return SyncStatus(tx, &m)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, hostID, m.ID)
}

// Invite seats the given members as INVITED. Rows already holding a seat are
// left alone and not counted again; only the net-new invitees must fit.
func (s *Service) Invite(ctx context.Context, hostID, mealID uuid.UUID, userIDs []uuid.UUID) (result *InviteResult, err error) {
	defer func() { metrics.GroupMealOp("invite", err) }()

	ids := dedupe(userIDs)
	for _, id := range ids {
		if id == hostID {
			return nil, ErrSelfInvite
		}
	}

	var (
		meal   models.GroupMeal
		netNew []uuid.UUID
		kept   []uuid.UUID
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockMeal(tx, mealID, &meal); err != nil {
			return err
		}
		if meal.Status == models.GroupMealClosed {
			return ErrMealClosed
		}
		if meal.HostID != hostID {
			return ErrNotHost
		}
		if err := membership.RequireTargets(tx, meal.CommunityID, ids...); err != nil {
			return err
		}

		existing, err := participantsByUser(tx, meal.ID, ids)
		if err != nil {
			return err
		}
		for _, id := range ids {
			if p, ok := existing[id]; ok && models.HoldsSeat(p.Status) {
				kept = append(kept, id)
				continue
			}
			netNew = append(netNew, id)
		}

		seats, err := seatCount(tx, meal.ID)
		if err != nil {
			return err
		}
		if int(seats)+len(netNew) > meal.Capacity {
			return ErrNoCapacity
		}

		for _, id := range netNew {
			if err := setParticipant(tx, meal.ID, id, models.ParticipantInvited); err != nil {
				return err
			}
		}
		return SyncStatus(tx, &meal)
	})
	if err != nil {
		return nil, err
	}

	s.notifyInvites(ctx, &meal, netNew)

	resp, err := s.Get(ctx, hostID, meal.ID)
	if err != nil {
		return nil, err
	}
	if netNew == nil {
		netNew = []uuid.UUID{}
	}
	if kept == nil {
		kept = []uuid.UUID{}
	}
	return &InviteResult{Invited: netNew, Unchanged: kept, Meal: *resp}, nil
}

// Respond answers an invitation. ACCEPT counts the caller's own seat once, so
// an invitee can always take the seat reserved for them.
func (s *Service) Respond(ctx context.Context, userID, mealID uuid.UUID, action string) (err error) {
	defer func() { metrics.GroupMealOp("respond", err) }()

	if action != ActionAccept && action != ActionDecline {
		return ErrInvalidAction
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var meal models.GroupMeal
		if err := lockMeal(tx, mealID, &meal); err != nil {
			return err
		}
		if meal.Status == models.GroupMealClosed {
			return ErrMealClosed
		}

		row, err := participantOf(tx, meal.ID, userID)
		if err != nil {
			return err
		}

		if action == ActionDecline {
			if row == nil {
				return ErrNotInvited
			}
			if row.IsHost {
				return ErrHostCannotLeave
			}
			if err := tx.Model(row).Update("status", models.ParticipantDeclined).Error; err != nil {
				return fmt.Errorf("failed to decline: %w", err)
			}
			return SyncStatus(tx, &meal)
		}

		// Already accepted; a repeated ACCEPT must not reset GO or LATE.
		if row != nil && (row.IsHost || joined(row.Status)) {
			return nil
		}
		ok, err := membership.IsApproved(tx, userID, meal.CommunityID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrCommunityMismatch
		}

		seats, err := seatCount(tx, meal.ID)
		if err != nil {
			return err
		}
		if row != nil && models.HoldsSeat(row.Status) {
			seats--
		}
		if int(seats)+1 > meal.Capacity {
			return ErrNoCapacity
		}

		if err := setParticipant(tx, meal.ID, userID, models.ParticipantJoined); err != nil {
			return err
		}
		return SyncStatus(tx, &meal)
	})
}

// Join takes an open seat without an invitation.
func (s *Service) Join(ctx context.Context, userID, mealID uuid.UUID) (err error) {
	defer func() { metrics.GroupMealOp("join", err) }()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var meal models.GroupMeal
		if err := lockMeal(tx, mealID, &meal); err != nil {
			return err
		}
		if meal.Status == models.GroupMealClosed {
			return ErrMealClosed
		}
		if meal.HostID == userID {
			return ErrAlreadyJoined
		}

		row, err := participantOf(tx, meal.ID, userID)
		if err != nil {
			return err
		}
		if row != nil && models.HoldsSeat(row.Status) {
			return ErrAlreadyJoined
		}

		ok, err := membership.IsApproved(tx, userID, meal.CommunityID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrCommunityMismatch
		}

		seats, err := seatCount(tx, meal.ID)
		if err != nil {
			return err
		}
		if int(seats) >= meal.Capacity {
			return ErrNoCapacity
		}

		if err := setParticipant(tx, meal.ID, userID, models.ParticipantJoined); err != nil {
			return err
		}
		return SyncStatus(tx, &meal)
	})
}

// Leave gives a joined seat back. The host cannot leave.
func (s *Service) Leave(ctx context.Context, userID, mealID uuid.UUID) (err error) {
	defer func() { metrics.GroupMealOp("leave", err) }()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var meal models.GroupMeal
		if err := lockMeal(tx, mealID, &meal); err != nil {
			return err
		}
		if meal.Status == models.GroupMealClosed {
			return ErrMealClosed
		}

		row, err := participantOf(tx, meal.ID, userID)
		if err != nil {
			return err
		}
		if row == nil || !joined(row.Status) {
			return ErrNotJoined
		}
		if row.IsHost {
			return ErrHostCannotLeave
		}

		if err := tx.Model(row).Update("status", models.ParticipantCancelled).Error; err != nil {
			return fmt.Errorf("failed to leave: %w", err)
		}
		return SyncStatus(tx, &meal)
	})
}

// SetAttendance records a reminder reply. NOT_GO gives the seat back.
func (s *Service) SetAttendance(ctx context.Context, userID, mealID uuid.UUID, status string) (err error) {
	defer func() { metrics.GroupMealOp("attendance", err) }()

	switch status {
	case models.ParticipantGo, models.ParticipantNotGo, models.ParticipantLate:
	default:
		return ErrInvalidAttendance
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var meal models.GroupMeal
		if err := lockMeal(tx, mealID, &meal); err != nil {
			return err
		}
		if meal.Status == models.GroupMealClosed {
			return ErrMealClosed
		}

		row, err := participantOf(tx, meal.ID, userID)
		if err != nil {
			return err
		}
		if row == nil || !joined(row.Status) {
			return ErrNotJoined
		}
		if row.IsHost && status == models.ParticipantNotGo {
			return ErrHostCannotLeave
		}

		if err := tx.Model(row).Update("status", status).Error; err != nil {
			return fmt.Errorf("failed to set attendance: %w", err)
		}
		return SyncStatus(tx, &meal)
	})
}

// Close ends the meal for good.
func (s *Service) Close(ctx context.Context, actorID, mealID uuid.UUID) (err error) {
	defer func() { metrics.GroupMealOp("close", err) }()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var meal models.GroupMeal
		if err := lockMeal(tx, mealID, &meal); err != nil {
			return err
		}
		if err := requireHostOrAdmin(tx, actorID, &meal); err != nil {
			return err
		}
		if meal.Status == models.GroupMealClosed {
			return nil
		}
		return tx.Model(&meal).Update("status", models.GroupMealClosed).Error
	})
}

// Delete removes the meal with its participants and messages.
func (s *Service) Delete(ctx context.Context, actorID, mealID uuid.UUID) (err error) {
	defer func() { metrics.GroupMealOp("delete", err) }()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var meal models.GroupMeal
		if err := lockMeal(tx, mealID, &meal); err != nil {
			return err
		}
		if err := requireHostOrAdmin(tx, actorID, &meal); err != nil {
			return err
		}
		if err := tx.Where("group_meal_id = ?", meal.ID).Delete(&models.GroupMealParticipant{}).Error; err != nil {
			return fmt.Errorf("failed to delete participants: %w", err)
		}
		if err := tx.Where("group_meal_id = ?", meal.ID).Delete(&models.GroupMealMessage{}).Error; err != nil {
			return fmt.Errorf("failed to delete messages: %w", err)
		}
		return tx.Delete(&meal).Error
	})
}

// List returns the community's meals from `from` on, earliest first.
func (s *Service) List(ctx context.Context, userID, communityID uuid.UUID, from time.Time, mine bool) ([]MealResponse, error) {
	db := s.db.WithContext(ctx)
	q := db.Scopes(session.ForCommunity(communityID)).Where("date >= ?", utcMidnight(from))
	if mine {
		q = q.Where("id IN (?)", db.Model(&models.GroupMealParticipant{}).
			Select("group_meal_id").
			Where("user_id = ? AND status IN ?", userID, models.SeatHoldingStatuses))
	}

	var meals []models.GroupMeal
	if err := q.Preload("Participants").Order("date ASC").Order("time_slot ASC").Find(&meals).Error; err != nil {
		return nil, fmt.Errorf("failed to list group meals: %w", err)
	}

	out := make([]MealResponse, len(meals))
	for i := range meals {
		out[i] = toMealResponse(&meals[i], userID, nil)
	}
	return out, nil
}

// Get returns a meal with its participants' profiles.
func (s *Service) Get(ctx context.Context, userID, mealID uuid.UUID) (*MealResponse, error) {
	db := s.db.WithContext(ctx)
	var meal models.GroupMeal
	if err := db.Preload("Participants", func(db *gorm.DB) *gorm.DB {
		return db.Order("is_host DESC").Order("created_at ASC")
	}).First(&meal, "id = ?", mealID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMealNotFound
		}
		return nil, fmt.Errorf("failed to load group meal: %w", err)
	}

	ids := make([]uuid.UUID, len(meal.Participants))
	for i, p := range meal.Participants {
		ids[i] = p.UserID
	}
	summaries, err := profile.Summaries(db, ids)
	if err != nil {
		return nil, err
	}
	resp := toMealResponse(&meal, userID, summaries)
	return &resp, nil
}

// GetInCommunity is Get restricted to the caller's community.
func (s *Service) GetInCommunity(ctx context.Context, userID, communityID, mealID uuid.UUID) (*MealResponse, error) {
	resp, err := s.Get(ctx, userID, mealID)
	if err != nil {
		return nil, err
	}
	if resp.CommunityID != communityID {
		return nil, ErrMealNotFound
	}
	return resp, nil
}

// SendReminders pushes a reminder to every accepted participant of the
// non-closed meals on date. It returns the number of reminders queued.
func (s *Service) SendReminders(ctx context.Context, date time.Time) (int, error) {
	db := s.db.WithContext(ctx)
	var meals []models.GroupMeal
	if err := db.Preload("Participants").
		Where("date = ? AND status <> ?", utcMidnight(date), models.GroupMealClosed).
		Find(&meals).Error; err != nil {
		return 0, fmt.Errorf("failed to load meals for reminders: %w", err)
	}

	var userIDs []uuid.UUID
	for _, m := range meals {
		for _, p := range m.Participants {
			if joined(p.Status) {
				userIDs = append(userIDs, p.UserID)
			}
		}
	}
	lineIDs, err := lineIDsOf(db, userIDs)
	if err != nil {
		return 0, err
	}

	var out []notify.Notification
	for _, m := range meals {
		for _, p := range m.Participants {
			if !joined(p.Status) || lineIDs[p.UserID] == "" {
				continue
			}
			out = append(out, notify.Notification{
				To:     lineIDs[p.UserID],
				Kind:   notify.KindReminder,
				Params: mealParams(&m),
			})
		}
	}
	s.notifier.Notify(ctx, out...)
	return len(out), nil
}

func (s *Service) notifyInvites(ctx context.Context, meal *models.GroupMeal, invitees []uuid.UUID) {
	if len(invitees) == 0 {
		return
	}
	lineIDs, err := lineIDsOf(s.db.WithContext(ctx), invitees)
	if err != nil {
		slog.Warn("invite notification lookup failed", "meal_id", meal.ID.String(), "error", err)
		return
	}

	params := mealParams(meal)
	var host models.Profile
	if err := s.db.WithContext(ctx).Where("user_id = ?", meal.HostID).First(&host).Error; err == nil {
		params[notify.ParamHostName] = host.DisplayName
	}

	out := make([]notify.Notification, 0, len(invitees))
	for _, id := range invitees {
		out = append(out, notify.Notification{To: lineIDs[id], Kind: notify.KindGroupInvite, Params: params})
	}
	s.notifier.Notify(ctx, out...)
}

// SyncStatus recomputes OPEN/FULL from the seat-holding rows. CLOSED never changes.
func SyncStatus(tx *gorm.DB, meal *models.GroupMeal) error {
	if meal.Status == models.GroupMealClosed {
		return nil
	}
	seats, err := seatCount(tx, meal.ID)
	if err != nil {
		return err
	}
	next := models.GroupMealOpen
	if int(seats) >= meal.Capacity {
		next = models.GroupMealFull
	}
	if next == meal.Status {
		return nil
	}
	if err := tx.Model(meal).Update("status", next).Error; err != nil {
		return fmt.Errorf("failed to sync meal status: %w", err)
	}
	meal.Status = next
	return nil
}

// lockMeal loads the meal row with FOR UPDATE so concurrent mutations serialize.
func lockMeal(tx *gorm.DB, mealID uuid.UUID, meal *models.GroupMeal) error {
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(meal, "id = ?", mealID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrMealNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to lock group meal: %w", err)
	}
	return nil
}

func seatCount(tx *gorm.DB, mealID uuid.UUID) (int64, error) {
	var n int64
	err := tx.Model(&models.GroupMealParticipant{}).
		Where("group_meal_id = ? AND status IN ?", mealID, models.SeatHoldingStatuses).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count seats: %w", err)
	}
	return n, nil
}

func participantOf(tx *gorm.DB, mealID, userID uuid.UUID) (*models.GroupMealParticipant, error) {
	var p models.GroupMealParticipant
	err := tx.Where("group_meal_id = ? AND user_id = ?", mealID, userID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load participant: %w", err)
	}
	return &p, nil
}

func participantsByUser(tx *gorm.DB, mealID uuid.UUID, userIDs []uuid.UUID) (map[uuid.UUID]models.GroupMealParticipant, error) {
	out := make(map[uuid.UUID]models.GroupMealParticipant, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	var rows []models.GroupMealParticipant
	if err := tx.Where("group_meal_id = ? AND user_id IN ?", mealID, userIDs).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load participants: %w", err)
	}
	for _, p := range rows {
		out[p.UserID] = p
	}
	return out, nil
}

// setParticipant creates or updates a non-host row to status.
func setParticipant(tx *gorm.DB, mealID, userID uuid.UUID, status string) error {
	p := models.GroupMealParticipant{GroupMealID: mealID, UserID: userID, Status: status}
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "group_meal_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "updated_at"}),
	}).Create(&p).Error
	if err != nil {
		return fmt.Errorf("failed to save participant: %w", err)
	}
	return nil
}

func requireHostOrAdmin(tx *gorm.DB, actorID uuid.UUID, meal *models.GroupMeal) error {
	if meal.HostID == actorID {
		return nil
	}
	var u models.User
	if err := tx.Select("id", "is_admin").First(&u, "id = ?", actorID).Error; err == nil && u.IsAdmin {
		return nil
	}
	return ErrForbidden
}

func lineIDsOf(db *gorm.DB, userIDs []uuid.UUID) (map[uuid.UUID]string, error) {
	out := make(map[uuid.UUID]string, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	var users []models.User
	if err := db.Select("id", "line_user_id").Where("id IN ?", userIDs).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	for i := range users {
		out[users[i].ID] = users[i].LineID()
	}
	return out, nil
}

func mealParams(m *models.GroupMeal) map[string]string {
	return map[string]string{
		notify.ParamMealID:    m.ID.String(),
		notify.ParamMealTitle: m.Title,
		notify.ParamDate:      m.Date.UTC().Format("2006-01-02"),
		notify.ParamTimeSlot:  m.TimeSlot,
	}
}

func toMealResponse(m *models.GroupMeal, viewer uuid.UUID, summaries map[uuid.UUID]profile.Summary) MealResponse {
	resp := MealResponse{
		ID:          m.ID,
		CommunityID: m.CommunityID,
		HostID:      m.HostID,
		Title:       m.Title,
		Date:        m.Date.UTC().Format("2006-01-02"),
		Weekday:     m.Weekday,
		TimeSlot:    m.TimeSlot,
		Capacity:    m.Capacity,
		Status:      m.Status,
	}
	for _, p := range m.Participants {
		if models.HoldsSeat(p.Status) {
			resp.SeatsTaken++
		}
		if p.UserID == viewer {
			resp.MyStatus = p.Status
		}
		if summaries != nil {
			sum := summaries[p.UserID]
			sum.UserID = p.UserID
			resp.Participants = append(resp.Participants, ParticipantResponse{Summary: sum, Status: p.Status, IsHost: p.IsHost})
		}
	}
	return resp
}

// joined covers every accepted state, excluding outstanding invitations.
func joined(status string) bool {
	switch status {
	case models.ParticipantJoined, models.ParticipantGo, models.ParticipantLate:
		return true
	}
	return false
}

func validTimeSlot(s string) bool {
	return s == models.TimeSlotDay || s == models.TimeSlotNight
}

func utcMidnight(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
