package community

import (
	"errors"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/dto"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/models"
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

// Join handles POST /community/join.
func (h *Handler) Join(c *fiber.Ctx) error {
	userID, err := session.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.Err("Unauthorized"))
	}

	var req JoinRequest
	if ok, err := validation.Bind(c, &req); !ok {
		return err
	}

	m, community, err := h.service.Join(userID, req.InviteCode)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInviteCode):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrCode("INVALID_INVITE_CODE", "Invite code not found"))
		case errors.Is(err, ErrMembershipRejected):
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrCode("MEMBERSHIP_REJECTED", "Your membership request was rejected"))
		}
		slog.Error("community join failed", "user_id", userID.String(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.Err("Failed to join community"))
	}

	return c.JSON(MembershipResponse{
		CommunityID:   community.ID,
		CommunityName: community.Name,
		Status:        m.Status,
		JoinedAt:      m.CreatedAt,
	})
}

// Status handles GET /community/status.
func (h *Handler) Status(c *fiber.Ctx) error {
	userID, err := session.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.Err("Unauthorized"))
	}

	memberships, err := h.service.Status(userID)
	if err != nil {
		slog.Error("community status failed", "user_id", userID.String(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.Err("Failed to load memberships"))
	}

	resp := StatusResponse{Memberships: memberships}
	for _, m := range memberships {
		if m.Status == models.MembershipApproved {
			resp.Approved = true
			break
		}
	}
	return c.JSON(resp)
}

// ListMembers handles GET /admin/members?status=&communityId=.
func (h *Handler) ListMembers(c *fiber.Ctx) error {
	status := c.Query("status")
	switch status {
	case "", models.MembershipPending, models.MembershipApproved, models.MembershipRejected:
	default:
		return c.Status(fiber.StatusBadRequest).JSON(dto.Err("Invalid status filter"))
	}

	communityID, err := optionalUUID(c.Query("communityId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Err("Invalid community ID"))
	}

	members, err := h.service.ListMembers(communityID, status)
	if err != nil {
		slog.Error("list members failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.Err("Failed to list members"))
	}
	return c.JSON(fiber.Map{"members": members})
}

func (h *Handler) Approve(c *fiber.Ctx) error {
	return h.setStatus(c, models.MembershipApproved)
}

func (h *Handler) Reject(c *fiber.Ctx) error {
	return h.setStatus(c, models.MembershipRejected)
}

func (h *Handler) setStatus(c *fiber.Ctx, status string) error {
	userID, communityID, err := targetOf(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Err(err.Error()))
	}

	if err := h.service.SetStatus(userID, communityID, status); err != nil {
		if errors.Is(err, ErrMembershipNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.Err("Membership not found"))
		}
		slog.Error("membership update failed", "user_id", userID.String(), "status", status, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.Err("Failed to update membership"))
	}
	return c.JSON(fiber.Map{"message": "Membership " + status, "userId": userID})
}

// Remove handles DELETE /admin/members/:userId.
func (h *Handler) Remove(c *fiber.Ctx) error {
	userID, communityID, err := targetOf(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Err(err.Error()))
	}

	if err := h.service.Remove(userID, communityID); err != nil {
		if errors.Is(err, ErrMembershipNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.Err("Membership not found"))
		}
		slog.Error("membership removal failed", "user_id", userID.String(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.Err("Failed to remove membership"))
	}
	return c.JSON(fiber.Map{"message": "Membership removed"})
}

// Promote handles POST /admin/users/:userId/promote.
func (h *Handler) Promote(c *fiber.Ctx) error {
	userID, err := uuid.Parse(c.Params("userId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Err("Invalid user ID"))
	}

	if err := h.service.Promote(userID); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.Err("User not found"))
		}
		slog.Error("promote failed", "user_id", userID.String(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.Err("Failed to promote user"))
	}
	return c.JSON(fiber.Map{"message": "User promoted to admin"})
}

func targetOf(c *fiber.Ctx) (uuid.UUID, uuid.UUID, error) {
	userID, err := uuid.Parse(c.Params("userId"))
	if err != nil {
		return uuid.Nil, uuid.Nil, errors.New("Invalid user ID")
	}
	communityID, err := optionalUUID(c.Query("communityId"))
	if err != nil {
		return uuid.Nil, uuid.Nil, errors.New("Invalid community ID")
	}
	return userID, communityID, nil
}

func optionalUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, nil
	}
	return uuid.Parse(s)
}
