package handlers

import (
	"fmt"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/dto"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/features/groupmeal"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/models"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/session"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DevHandler wipes matching state. Routes are only mounted outside production.
type DevHandler struct {
	db *gorm.DB
}

func NewDevHandler(db *gorm.DB) *DevHandler {
	return &DevHandler{db: db}
}

// Reset handles POST /dev/reset: every like, match and meal is removed.
// Users, profiles, memberships and availability are kept.
func (h *DevHandler) Reset(c *fiber.Ctx) error {
	err := h.db.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
		all := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		for _, model := range []interface{}{
			&models.GroupMealMessage{},
			&models.GroupMealParticipant{},
			&models.GroupMeal{},
			&models.PairMeal{},
			&models.Match{},
			&models.SuperLike{},
			&models.Like{},
		} {
			if err := all.Delete(model).Error; err != nil {
				return fmt.Errorf("failed to reset %T: %w", model, err)
			}
		}
		return nil
	})
	if err != nil {
		slog.Error("dev reset failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.Err("Reset failed"))
	}
	slog.Warn("dev reset executed")
	return c.JSON(fiber.Map{"message": "Reset complete"})
}

// ResetMe handles POST /dev/reset/me: only rows involving the caller go.
func (h *DevHandler) ResetMe(c *fiber.Ctx) error {
	userID, err := session.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.Err("Unauthorized"))
	}

	err = h.db.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
		return resetUser(tx, userID)
	})
	if err != nil {
		slog.Error("dev reset/me failed", "user_id", userID.String(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.Err("Reset failed"))
	}
	return c.JSON(fiber.Map{"message": "Reset complete"})
}

func resetUser(tx *gorm.DB, userID uuid.UUID) error {
	if err := tx.Where("from_user_id = ? OR to_user_id = ?", userID, userID).Delete(&models.Like{}).Error; err != nil {
		return err
	}
	if err := tx.Where("from_user_id = ? OR to_user_id = ?", userID, userID).Delete(&models.SuperLike{}).Error; err != nil {
		return err
	}

	matches := tx.Model(&models.Match{}).Select("id").Where("user1_id = ? OR user2_id = ?", userID, userID)
	if err := tx.Where("match_id IN (?)", matches).Delete(&models.PairMeal{}).Error; err != nil {
		return err
	}
	if err := tx.Where("user1_id = ? OR user2_id = ?", userID, userID).Delete(&models.Match{}).Error; err != nil {
		return err
	}

	hosted := tx.Model(&models.GroupMeal{}).Select("id").Where("host_id = ?", userID)
	if err := tx.Where("group_meal_id IN (?)", hosted).Delete(&models.GroupMealMessage{}).Error; err != nil {
		return err
	}
	if err := tx.Where("group_meal_id IN (?)", hosted).Delete(&models.GroupMealParticipant{}).Error; err != nil {
		return err
	}
	if err := tx.Where("host_id = ?", userID).Delete(&models.GroupMeal{}).Error; err != nil {
		return err
	}

	var joined []uuid.UUID
	if err := tx.Model(&models.GroupMealParticipant{}).Where("user_id = ?", userID).Pluck("group_meal_id", &joined).Error; err != nil {
		return err
	}
	if err := tx.Where("user_id = ?", userID).Delete(&models.GroupMealParticipant{}).Error; err != nil {
		return err
	}
	if err := tx.Where("user_id = ?", userID).Delete(&models.GroupMealMessage{}).Error; err != nil {
		return err
	}
	for _, id := range joined {
		var meal models.GroupMeal
		if err := tx.First(&meal, "id = ?", id).Error; err != nil {
			return err
		}
		if err := groupmeal.SyncStatus(tx, &meal); err != nil {
			return err
		}
	}
	return nil
}
