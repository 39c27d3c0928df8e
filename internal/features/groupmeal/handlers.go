package groupmeal

import (
	"errors"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/dto"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/membership"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/session"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/validation"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Create handles POST /group-meals.
func (h *Handler) Create(c *fiber.Ctx) error {
	userID, err := session.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.Err("Unauthorized"))
	}

	var req CreateRequest
	if ok, err := validation.Bind(c, &req); !ok {
		return err
	}
	date, _ := time.Parse(time.DateOnly, req.Date)

	meal, err := h.service.Create(c.UserContext(), userID, session.GetCommunityID(c), CreateInput{
		Date:     date,
		TimeSlot: req.TimeSlot,
		Capacity: req.Capacity,
		Title:    req.Title,
	})
	if err != nil {
		return h.fail(c, err, "Failed to create group meal")
	}
	return c.Status(fiber.StatusCreated).JSON(meal)
}

// List handles GET /group-meals?from=YYYY-MM-DD&mine=true.
func (h *Handler) List(c *fiber.Ctx) error {
	userID, err := session.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.Err("Unauthorized"))
	}

	from := time.Now().UTC()
	if q := c.Query("from"); q != "" {
		if from, err = time.Parse(time.DateOnly, q); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.Err("from must be YYYY-MM-DD"))
		}
	}

	meals, err := h.service.List(c.UserContext(), userID, session.GetCommunityID(c), from, c.QueryBool("mine"))
	if err != nil {
		return h.fail(c, err, "Failed to list group meals")
	}
	return c.JSON(fiber.Map{"groupMeals": meals})
}

// Get handles GET /group-meals/:mealId.
func (h *Handler) Get(c *fiber.Ctx) error {
	userID, mealID, ok, err := h.target(c)
	if !ok {
		return err
	}

	meal, err := h.service.GetInCommunity(c.UserContext(), userID, session.GetCommunityID(c), mealID)
	if err != nil {
		return h.fail(c, err, "Failed to load group meal")
	}
	return c.JSON(meal)
}

// Delete handles DELETE /group-meals/:mealId.
func (h *Handler) Delete(c *fiber.Ctx) error {
	userID, mealID, ok, err := h.target(c)
	if !ok {
		return err
	}

	if err := h.service.Delete(c.UserContext(), userID, mealID); err != nil {
		return h.fail(c, err, "Failed to delete group meal")
	}
	return c.JSON(fiber.Map{"message": "Group meal deleted"})
}

// Close handles POST /group-meals/:mealId/close.
func (h *Handler) Close(c *fiber.Ctx) error {
	userID, mealID, ok, err := h.target(c)
	if !ok {
		return err
	}

	if err := h.service.Close(c.UserContext(), userID, mealID); err != nil {
		return h.fail(c, err, "Failed to close group meal")
	}
	return h.reply(c, userID, mealID)
}

// Invite handles POST /group-meals/:mealId/invite.
func (h *Handler) Invite(c *fiber.Ctx) error {
	userID, mealID, ok, err := h.target(c)
	if !ok {
		return err
	}

	var req InviteRequest
	if ok, err := validation.Bind(c, &req); !ok {
		return err
	}
	ids := make([]uuid.UUID, len(req.UserIDs))
	for i, s := range req.UserIDs {
		ids[i] = uuid.MustParse(s)
	}

	result, err := h.service.Invite(c.UserContext(), userID, mealID, ids)
	if err != nil {
		return h.fail(c, err, "Failed to invite members")
	}
	return c.JSON(result)
}

// Respond handles POST /group-meals/:mealId/respond.
func (h *Handler) Respond(c *fiber.Ctx) error {
	userID, mealID, ok, err := h.target(c)
	if !ok {
		return err
	}

	var req RespondRequest
	if ok, err := validation.Bind(c, &req); !ok {
		return err
	}

	if err := h.service.Respond(c.UserContext(), userID, mealID, req.Action); err != nil {
		return h.fail(c, err, "Failed to respond")
	}
	return h.reply(c, userID, mealID)
}

// Join handles POST /group-meals/:mealId/join.
func (h *Handler) Join(c *fiber.Ctx) error {
	userID, mealID, ok, err := h.target(c)
	if !ok {
		return err
	}

	if err := h.service.Join(c.UserContext(), userID, mealID); err != nil {
		return h.fail(c, err, "Failed to join group meal")
	}
	return h.reply(c, userID, mealID)
}

// Leave handles POST /group-meals/:mealId/leave.
func (h *Handler) Leave(c *fiber.Ctx) error {
	userID, mealID, ok, err := h.target(c)
	if !ok {
		return err
	}

	if err := h.service.Leave(c.UserContext(), userID, mealID); err != nil {
		return h.fail(c, err, "Failed to leave group meal")
	}
	return h.reply(c, userID, mealID)
}

// Attendance handles POST /group-meals/:mealId/attendance.
func (h *Handler) Attendance(c *fiber.Ctx) error {
	userID, mealID, ok, err := h.target(c)
	if !ok {
		return err
	}

	var req AttendanceRequest
	if ok, err := validation.Bind(c, &req); !ok {
		return err
	}

	if err := h.service.SetAttendance(c.UserContext(), userID, mealID, req.Status); err != nil {
		return h.fail(c, err, "Failed to save attendance")
	}
	return h.reply(c, userID, mealID)
}

// Candidates handles GET /group-meals/candidates?date=&timeSlot=&mode=.
func (h *Handler) Candidates(c *fiber.Ctx) error {
	userID, err := session.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.Err("Unauthorized"))
	}

	date, err := time.Parse(time.DateOnly, c.Query("date"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Err("date must be YYYY-MM-DD"))
	}

	resp, err := h.service.Candidates(c.UserContext(), userID, session.GetCommunityID(c), date, c.Query("timeSlot"), c.Query("mode"))
	if err != nil {
		return h.fail(c, err, "Failed to load candidates")
	}
	return c.JSON(resp)
}

// MealCandidates handles GET /group-meals/:mealId/candidates.
func (h *Handler) MealCandidates(c *fiber.Ctx) error {
	userID, mealID, ok, err := h.target(c)
	if !ok {
		return err
	}

	resp, err := h.service.CandidatesForMeal(c.UserContext(), userID, session.GetCommunityID(c), mealID, c.Query("mode"))
	if err != nil {
		return h.fail(c, err, "Failed to load candidates")
	}
	return c.JSON(resp)
}

// ListMessages handles GET /group-meals/:mealId/messages?after=RFC3339.
func (h *Handler) ListMessages(c *fiber.Ctx) error {
	userID, mealID, ok, err := h.target(c)
	if !ok {
		return err
	}

	var after time.Time
	if q := c.Query("after"); q != "" {
		if after, err = time.Parse(time.RFC3339Nano, q); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.Err("after must be an RFC 3339 timestamp"))
		}
	}

	msgs, err := h.service.ListMessages(c.UserContext(), userID, mealID, after)
	if err != nil {
		return h.fail(c, err, "Failed to load messages")
	}
	return c.JSON(fiber.Map{"messages": msgs})
}

// PostMessage handles POST /group-meals/:mealId/messages.
func (h *Handler) PostMessage(c *fiber.Ctx) error {
	userID, mealID, ok, err := h.target(c)
	if !ok {
		return err
	}

	var req MessageRequest
	if ok, err := validation.Bind(c, &req); !ok {
		return err
	}

	msg, err := h.service.PostMessage(c.UserContext(), userID, mealID, req.Body)
	if err != nil {
		return h.fail(c, err, "Failed to post message")
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}

// AutoGroup handles POST /admin/group-meals/auto-group.
func (h *Handler) AutoGroup(c *fiber.Ctx) error {
	var req AutoGroupRequest
	if ok, err := validation.Bind(c, &req); !ok {
		return err
	}
	date, _ := time.Parse(time.DateOnly, req.Date)

	meals, err := h.service.AutoGroup(c.UserContext(), uuid.MustParse(req.CommunityID), date, req.TimeSlot, req.Mode)
	if err != nil {
		return h.fail(c, err, "Failed to auto-group")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"groupMeals": meals})
}

// target resolves the caller and the :mealId param, writing the error response itself.
func (h *Handler) target(c *fiber.Ctx) (uuid.UUID, uuid.UUID, bool, error) {
	userID, err := session.GetUserID(c)
	if err != nil {
		return uuid.Nil, uuid.Nil, false, c.Status(fiber.StatusUnauthorized).JSON(dto.Err("Unauthorized"))
	}
	mealID, err := uuid.Parse(c.Params("mealId"))
	if err != nil {
		return uuid.Nil, uuid.Nil, false, c.Status(fiber.StatusBadRequest).JSON(dto.Err("Invalid group meal ID"))
	}
	return userID, mealID, true, nil
}

func (h *Handler) reply(c *fiber.Ctx, userID, mealID uuid.UUID) error {
	meal, err := h.service.Get(c.UserContext(), userID, mealID)
	if err != nil {
		return h.fail(c, err, "Failed to load group meal")
	}
	return c.JSON(meal)
}

func (h *Handler) fail(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, membership.ErrJoinRequired):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrCode("JOIN_REQUIRED", "Join an approved community first"))
	case errors.Is(err, membership.ErrTargetNotMember):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrCode("TARGET_NOT_MEMBER", err.Error()))
	case errors.Is(err, ErrMealNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.Err(err.Error()))
	case errors.Is(err, ErrNotHost), errors.Is(err, ErrForbidden), errors.Is(err, ErrNotParticipant),
		errors.Is(err, ErrCommunityMismatch):
		return c.Status(fiber.StatusForbidden).JSON(dto.Err(err.Error()))
	case errors.Is(err, ErrNoCapacity):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrCode("NO_CAPACITY", err.Error()))
	case errors.Is(err, ErrMealClosed):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrCode("MEAL_CLOSED", err.Error()))
	case errors.Is(err, ErrAlreadyJoined):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrCode("ALREADY_JOINED", err.Error()))
	case errors.Is(err, ErrSelfInvite), errors.Is(err, ErrNotInvited), errors.Is(err, ErrNotJoined),
		errors.Is(err, ErrHostCannotLeave), errors.Is(err, ErrInvalidCapacity), errors.Is(err, ErrInvalidTimeSlot),
		errors.Is(err, ErrInvalidAction), errors.Is(err, ErrInvalidAttendance), errors.Is(err, ErrInvalidMode),
		errors.Is(err, ErrEmptyMessage):
		return c.Status(fiber.StatusBadRequest).JSON(dto.Err(err.Error()))
	}
	slog.Error(fallback, "path", c.Path(), "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(dto.Err(fallback))
}
