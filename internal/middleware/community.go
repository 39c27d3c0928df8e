package middleware

import (
	"errors"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/dto"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/membership"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/session"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RequireMembership resolves the community the request acts in and rejects
// callers without an approved membership. An X-Community-ID header selects
// among several memberships.
func RequireMembership(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := session.GetUserID(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.Err("Unauthorized"))
		}

		preferred := uuid.Nil
		if h := c.Get("X-Community-ID"); h != "" {
			id, err := uuid.Parse(h)
			if err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(dto.Err("Invalid X-Community-ID: " + h))
			}
			preferred = id
		}

		communityID, err := membership.ActiveCommunity(db, userID, preferred)
		if err != nil {
			if errors.Is(err, membership.ErrNoActiveCommunity) {
				return c.Status(fiber.StatusForbidden).JSON(dto.ErrCode("JOIN_REQUIRED", "Join an approved community first"))
			}
			slog.Error("community resolution failed", "user_id", userID.String(), "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(dto.Err("Internal server error"))
		}

		session.SetCommunityID(c, communityID)
		return c.Next()
	}
}
