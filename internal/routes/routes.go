package routes

import (
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/config"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/features"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"gorm.io/gorm"
)

// Handlers groups the non-feature handlers.
type Handlers struct {
	Auth    *handlers.AuthHandler
	Health  *handlers.HealthHandler
	Webhook *handlers.WebhookHandler
	Cron    *handlers.CronHandler
	Dev     *handlers.DevHandler
}

// Setup mounts every route. Group middleware in Fiber applies to all routes
// registered after it under the same prefix, so the order below matters:
// public routes first, then JWT, then membership.
func Setup(app *fiber.App, cfg *config.Config, db *gorm.DB, h Handlers, feats []features.Feature) {
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	api := app.Group("/api", middleware.Metrics())

	// General API rate limiter: 120 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               120,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
		Next:              func(c *fiber.Ctx) bool { return c.Path() == "/api/webhooks/line" },
	}))

	api.Get("/health", h.Health.Check)

	// Auth-specific rate limit: 10 req/min per IP (stricter)
	authLimit := limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	})
	api.Post("/auth/register", authLimit, h.Auth.Register)
	api.Post("/auth/login", authLimit, h.Auth.Login)
	api.Get("/auth/line/login", authLimit, h.Auth.LineLogin)
	api.Get("/auth/line/register", authLimit, h.Auth.LineRegister)
	api.Get("/auth/line/callback", h.Auth.LineCallback)
	api.Post("/auth/logout", h.Auth.Logout)
	api.Get("/auth/me", middleware.JWTProtected(cfg), h.Auth.Me)

	// Webhooks: LINE signature instead of JWT
	api.Post("/webhooks/line", h.Webhook.HandleLine)

	// Scheduler endpoints: X-Cron-Secret instead of JWT
	internal := api.Group("/internal", h.Cron.RequireSecret)
	internal.Post("/push/daily", h.Cron.DailyPrompt)
	internal.Post("/push/reminders", h.Cron.Reminders)

	admin := api.Group("/admin", middleware.AdminTokenOrJWT(cfg), middleware.AdminRequired(db, cfg))
	for _, f := range feats {
		if af, ok := f.(features.AdminFeature); ok {
			af.RegisterAdminRoutes(admin)
		}
	}

	if !cfg.IsProduction() {
		api.Post("/dev/reset", middleware.JWTProtected(cfg), h.Dev.Reset)
		api.Post("/dev/reset/me", middleware.JWTProtected(cfg), h.Dev.ResetMe)
		slog.Warn("dev reset routes enabled", "env", cfg.AppEnv)
	}

	authed := api.Group("", middleware.JWTProtected(cfg))
	for _, f := range feats {
		f.RegisterRoutes(authed)
	}

	member := authed.Group("", middleware.RequireMembership(db))
	for _, f := range feats {
		if mf, ok := f.(features.MemberFeature); ok {
			mf.RegisterMemberRoutes(member)
		}
		slog.Debug("feature mounted", "feature", f.Name())
	}
}
