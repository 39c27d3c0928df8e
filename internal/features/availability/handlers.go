package availability

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

// Get handles GET /availability.
func (h *Handler) Get(c *fiber.Ctx) error {
	userID, err := session.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.Err("Unauthorized"))
	}

	slots, err := h.service.Get(userID)
	if err != nil {
		slog.Error("get availability failed", "user_id", userID.String(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.Err("Failed to load availability"))
	}
	return c.JSON(fiber.Map{"slots": slots})
}

// Put handles PUT /availability.
func (h *Handler) Put(c *fiber.Ctx) error {
	userID, err := session.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.Err("Unauthorized"))
	}

	var req PutRequest
	if ok, err := validation.Bind(c, &req); !ok {
		return err
	}

	slots, err := h.service.Replace(userID, req.Slots)
	if err != nil {
		if errors.Is(err, ErrDuplicateSlot) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrCode("DUPLICATE_SLOT", err.Error()))
		}
		slog.Error("put availability failed", "user_id", userID.String(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.Err("Failed to save availability"))
	}
	return c.JSON(fiber.Map{"slots": slots})
}

// Pair handles GET /availability/pair/:userId.
func (h *Handler) Pair(c *fiber.Ctx) error {
	targetID, err := uuid.Parse(c.Params("userId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Err("Invalid user ID"))
	}

	slots, err := h.service.Pair(targetID, session.GetCommunityID(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"userId": targetID, "slots": slots})
}

// Overlap handles GET /availability/overlap/:userId.
func (h *Handler) Overlap(c *fiber.Ctx) error {
	userID, err := session.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.Err("Unauthorized"))
	}
	targetID, err := uuid.Parse(c.Params("userId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Err("Invalid user ID"))
	}

	slots, err := h.service.Overlap(userID, targetID, session.GetCommunityID(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"userId": targetID, "slots": slots})
}

func (h *Handler) fail(c *fiber.Ctx, err error) error {
	if errors.Is(err, membership.ErrTargetNotMember) {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrCode("TARGET_NOT_MEMBER", err.Error()))
	}
	slog.Error("availability lookup failed", "path", c.Path(), "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(dto.Err("Failed to load availability"))
}
