package handlers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/dto"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/features/availability"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/features/groupmeal"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/line"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const webhookDedupeTTL = 24 * time.Hour

// Deduper is satisfied by cache.RedisCache.
type Deduper interface {
	FirstDelivery(ctx context.Context, eventID string, ttl time.Duration) (bool, error)
}

type WebhookHandler struct {
	db           *gorm.DB
	secret       string
	loc          *time.Location
	dedupe       Deduper
	availability *availability.Service
	groupMeals   *groupmeal.Service
	now          func() time.Time
}

func NewWebhookHandler(db *gorm.DB, secret string, loc *time.Location, dedupe Deduper, av *availability.Service, gm *groupmeal.Service) *WebhookHandler {
	return &WebhookHandler{
		db:           db,
		secret:       secret,
		loc:          loc,
		dedupe:       dedupe,
		availability: av,
		groupMeals:   gm,
		now:          time.Now,
	}
}

// HandleLine handles POST /webhooks/line. Postback failures are logged and
// acknowledged so LINE does not redeliver them.
func (h *WebhookHandler) HandleLine(c *fiber.Ctx) error {
	if h.secret == "" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.Err("LINE webhook is not configured"))
	}

	body := c.Body()
	if !line.VerifySignature(h.secret, body, c.Get("X-Line-Signature")) {
		return c.Status(fiber.StatusForbidden).JSON(dto.Err("Invalid signature"))
	}

	events, err := line.ParseEvents(body)
	if err != nil {
		slog.Warn("line webhook body rejected", "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(dto.Err("Invalid webhook body"))
	}

	ctx := c.UserContext()
	handled := 0
	for _, ev := range events {
		if ev.Type != "postback" || ev.UserID == "" {
			continue
		}
		if !h.firstDelivery(ctx, ev.ID) {
			continue
		}
		if err := h.postback(ctx, ev); err != nil {
			slog.Warn("line postback rejected", "event_id", ev.ID, "data", ev.Data, "error", err)
			continue
		}
		handled++
	}

	return c.JSON(fiber.Map{"ok": true, "handled": handled})
}

func (h *WebhookHandler) firstDelivery(ctx context.Context, eventID string) bool {
	if h.dedupe == nil {
		return true
	}
	first, err := h.dedupe.FirstDelivery(ctx, eventID, webhookDedupeTTL)
	if err != nil {
		slog.Warn("webhook dedupe unavailable", "event_id", eventID, "error", err)
		return true
	}
	return first
}

func (h *WebhookHandler) postback(ctx context.Context, ev line.Event) error {
	pb, err := line.ParsePostback(ev.Data)
	if err != nil {
		return err
	}

	var user models.User
	if err := h.db.WithContext(ctx).Select("id").Where("line_user_id = ?", ev.UserID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.New("unknown LINE user")
		}
		return err
	}

	switch pb.Type {
	case line.PostbackAvailability:
		return h.availability.SetDailySlot(user.ID, h.now(), h.loc, pb.TimeSlot, pb.Status)
	case line.PostbackInvite:
		mealID, err := uuid.Parse(pb.GroupMealID)
		if err != nil {
			return groupmeal.ErrMealNotFound
		}
		return h.groupMeals.Respond(ctx, user.ID, mealID, pb.Action)
	case line.PostbackAttendance:
		mealID, err := uuid.Parse(pb.GroupMealID)
		if err != nil {
			return groupmeal.ErrMealNotFound
		}
		return h.groupMeals.SetAttendance(ctx, user.ID, mealID, pb.Status)
	}
	return line.ErrUnknownPostback
}
