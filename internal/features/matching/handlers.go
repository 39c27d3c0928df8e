package matching

import (
	"errors"
	"log/slog"

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

// SubmitLike handles POST /likes.
func (h *Handler) SubmitLike(c *fiber.Ctx) error {
	userID, err := session.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.Err("Unauthorized"))
	}

	var req LikeRequest
	if ok, err := validation.Bind(c, &req); !ok {
		return err
	}
	toID := uuid.MustParse(req.ToUserID)

	result, err := h.service.SubmitLike(c.UserContext(), userID, toID, session.GetCommunityID(c), req.Answer)
	if err != nil {
		return h.fail(c, err, "Failed to save answer")
	}
	return c.JSON(result)
}

// NextCandidate handles GET /likes/next.
func (h *Handler) NextCandidate(c *fiber.Ctx) error {
	userID, err := session.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.Err("Unauthorized"))
	}

	next, err := h.service.NextCandidate(c.UserContext(), userID, session.GetCommunityID(c))
	if err != nil {
		return h.fail(c, err, "Failed to load next member")
	}
	return c.JSON(fiber.Map{"candidate": next})
}

// SubmitSuperLike handles POST /super-likes.
func (h *Handler) SubmitSuperLike(c *fiber.Ctx) error {
	userID, err := session.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.Err("Unauthorized"))
	}

	var req SuperLikeRequest
	if ok, err := validation.Bind(c, &req); !ok {
		return err
	}

	if err := h.service.SubmitSuperLike(c.UserContext(), userID, uuid.MustParse(req.ToUserID), session.GetCommunityID(c)); err != nil {
		return h.fail(c, err, "Failed to send super like")
	}
	return c.JSON(fiber.Map{"message": "Super like sent"})
}

// DeleteSuperLike handles DELETE /super-likes.
func (h *Handler) DeleteSuperLike(c *fiber.Ctx) error {
	userID, err := session.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.Err("Unauthorized"))
	}

	if err := h.service.DeleteSuperLike(c.UserContext(), userID, session.GetCommunityID(c)); err != nil {
		return h.fail(c, err, "Failed to remove super like")
	}
	return c.JSON(fiber.Map{"message": "Super like removed"})
}

// ListMembers handles GET /members.
func (h *Handler) ListMembers(c *fiber.Ctx) error {
	userID, err := session.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.Err("Unauthorized"))
	}

	members, err := h.service.ListMembers(c.UserContext(), userID, session.GetCommunityID(c))
	if err != nil {
		return h.fail(c, err, "Failed to list members")
	}
	return c.JSON(fiber.Map{"members": members})
}

// Relationships handles GET /relationships.
func (h *Handler) Relationships(c *fiber.Ctx) error {
	userID, err := session.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.Err("Unauthorized"))
	}

	rel, err := h.service.Relationships(c.UserContext(), userID, session.GetCommunityID(c))
	if err != nil {
		return h.fail(c, err, "Failed to load relationships")
	}
	return c.JSON(rel)
}

// ListMatches handles GET /matches.
func (h *Handler) ListMatches(c *fiber.Ctx) error {
	userID, err := session.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.Err("Unauthorized"))
	}

	matches, err := h.service.ListMatches(c.UserContext(), userID, session.GetCommunityID(c))
	if err != nil {
		return h.fail(c, err, "Failed to list matches")
	}
	return c.JSON(fiber.Map{"matches": matches})
}

// GetMatch handles GET /matches/:matchId.
func (h *Handler) GetMatch(c *fiber.Ctx) error {
	userID, err := session.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.Err("Unauthorized"))
	}
	matchID, err := uuid.Parse(c.Params("matchId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Err("Invalid match ID"))
	}

	m, err := h.service.GetMatch(c.UserContext(), userID, matchID)
	if err != nil {
		return h.fail(c, err, "Failed to load match")
	}
	return c.JSON(m)
}

// CreatePairMeal handles POST /matches/:matchId/pair-meals.
func (h *Handler) CreatePairMeal(c *fiber.Ctx) error {
	userID, err := session.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.Err("Unauthorized"))
	}
	matchID, err := uuid.Parse(c.Params("matchId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Err("Invalid match ID"))
	}

	in, issues := DecodePairMeal(c.Body())
	if issues != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Invalid(issues))
	}

	meal, err := h.service.CreatePairMeal(c.UserContext(), userID, matchID, in)
	if err != nil {
		return h.fail(c, err, "Failed to create pair meal")
	}
	return c.Status(fiber.StatusCreated).JSON(meal)
}

// UpdatePairMeal handles PUT /pair-meals/:pairMealId.
func (h *Handler) UpdatePairMeal(c *fiber.Ctx) error {
	userID, err := session.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.Err("Unauthorized"))
	}
	id, err := uuid.Parse(c.Params("pairMealId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Err("Invalid pair meal ID"))
	}

	in, issues := DecodePairMeal(c.Body())
	if issues != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Invalid(issues))
	}

	meal, err := h.service.UpdatePairMeal(c.UserContext(), userID, id, in)
	if err != nil {
		return h.fail(c, err, "Failed to update pair meal")
	}
	return c.JSON(meal)
}

// CancelPairMeal handles POST /pair-meals/:pairMealId/cancel.
func (h *Handler) CancelPairMeal(c *fiber.Ctx) error {
	userID, err := session.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.Err("Unauthorized"))
	}
	id, err := uuid.Parse(c.Params("pairMealId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Err("Invalid pair meal ID"))
	}

	meal, err := h.service.CancelPairMeal(c.UserContext(), userID, id)
	if err != nil {
		return h.fail(c, err, "Failed to cancel pair meal")
	}
	return c.JSON(meal)
}

func (h *Handler) fail(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, membership.ErrJoinRequired):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrCode("JOIN_REQUIRED", "Join an approved community first"))
	case errors.Is(err, membership.ErrTargetNotMember):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrCode("TARGET_NOT_MEMBER", err.Error()))
	case errors.Is(err, ErrSelfTarget), errors.Is(err, ErrInvalidAnswer), errors.Is(err, ErrPairMealCancelled):
		return c.Status(fiber.StatusBadRequest).JSON(dto.Err(err.Error()))
	case errors.Is(err, ErrAlreadyAnswered):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrCode("ALREADY_ANSWERED", err.Error()))
	case errors.Is(err, ErrMatchNotFound), errors.Is(err, ErrPairMealNotFound), errors.Is(err, ErrSuperLikeNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.Err(err.Error()))
	}
	slog.Error(fallback, "path", c.Path(), "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(dto.Err(fallback))
}
