package handlers

import (
	"context"
	"time"

	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/database"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/dto"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Pinger is satisfied by cache.RedisCache.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db    *gorm.DB
	redis Pinger
}

func NewHealthHandler(db *gorm.DB, redis Pinger) *HealthHandler {
	return &HealthHandler{db: db, redis: redis}
}

// Check reports 503 when the database is down. Redis only degrades LINE
// login and webhook de-duplication, so it never fails the check.
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	resp := dto.HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		DB:        "ok",
		Redis:     "disabled",
	}
	code := fiber.StatusOK

	if err := database.Ping(h.db); err != nil {
		resp.Status = "degraded"
		resp.DB = "unhealthy: " + err.Error()
		code = fiber.StatusServiceUnavailable
	}

	if h.redis != nil {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		resp.Redis = "ok"
		if err := h.redis.Ping(ctx); err != nil {
			resp.Redis = "unhealthy: " + err.Error()
		}
	}

	return c.Status(code).JSON(resp)
}
