package handlers

import (
	"crypto/subtle"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/dto"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/features/availability"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/features/groupmeal"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/notify"
	"github.com/gofiber/fiber/v2"
)

// CronHandler serves the endpoints the scheduler calls.
type CronHandler struct {
	secret       string
	loc          *time.Location
	notifier     notify.Notifier
	availability *availability.Service
	groupMeals   *groupmeal.Service
	now          func() time.Time
}

func NewCronHandler(secret string, loc *time.Location, notifier notify.Notifier, av *availability.Service, gm *groupmeal.Service) *CronHandler {
	return &CronHandler{
		secret:       secret,
		loc:          loc,
		notifier:     notifier,
		availability: av,
		groupMeals:   gm,
		now:          time.Now,
	}
}

// RequireSecret rejects calls without a matching X-Cron-Secret. An empty
// CRON_SECRET disables the endpoints.
func (h *CronHandler) RequireSecret(c *fiber.Ctx) error {
	if h.secret == "" {
		return c.Status(fiber.StatusNotFound).JSON(dto.Err("Not found"))
	}
	if subtle.ConstantTimeCompare([]byte(c.Get("X-Cron-Secret")), []byte(h.secret)) != 1 {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.Err("Unauthorized"))
	}
	return c.Next()
}

// DailyPrompt handles POST /internal/push/daily.
func (h *CronHandler) DailyPrompt(c *fiber.Ctx) error {
	recipients, err := h.availability.PromptRecipients()
	if err != nil {
		slog.Error("daily prompt failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.Err("Failed to load recipients"))
	}

	today := h.now().In(h.loc).Format(time.DateOnly)
	out := make([]notify.Notification, len(recipients))
	for i, to := range recipients {
		out[i] = notify.Notification{To: to, Kind: notify.KindDailyPrompt, Params: map[string]string{notify.ParamDate: today}}
	}
	h.notifier.Notify(c.UserContext(), out...)

	slog.Info("daily prompt queued", "date", today, "recipients", len(out))
	return c.JSON(fiber.Map{"queued": len(out), "date": today})
}

// Reminders handles POST /internal/push/reminders?date=YYYY-MM-DD, defaulting
// to today in the configured timezone.
func (h *CronHandler) Reminders(c *fiber.Ctx) error {
	y, m, d := h.now().In(h.loc).Date()
	date := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	if q := c.Query("date"); q != "" {
		parsed, err := time.Parse(time.DateOnly, q)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.Err("date must be YYYY-MM-DD"))
		}
		date = parsed
	}

	n, err := h.groupMeals.SendReminders(c.UserContext(), date)
	if err != nil {
		slog.Error("reminders failed", "date", date.Format(time.DateOnly), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.Err("Failed to send reminders"))
	}

	slog.Info("reminders queued", "date", date.Format(time.DateOnly), "recipients", n)
	return c.JSON(fiber.Map{"queued": n, "date": date.Format(time.DateOnly)})
}
