package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/joho/godotenv"

	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/cache"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/config"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/database"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/dto"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/features"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/features/availability"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/features/community"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/features/groupmeal"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/features/matching"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/features/profile"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/line"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/logging"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/notify"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/routes"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/services"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

const logRetention = 30 * 24 * time.Hour

func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	cfg := config.Load()
	stdoutOpts := logging.Setup(cfg.LogLevel)

	if cfg.JWTSecret == "" {
		slog.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}
	if cfg.IsProduction() && cfg.DBPassword == "" {
		slog.Error("DB_PASSWORD environment variable is required")
		os.Exit(1)
	}

	// Database
	db, err := database.Connect(cfg)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(db); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}
	if _, err := database.EnsureDefaults(db, cfg); err != nil {
		slog.Error("seeding defaults failed", "error", err)
		os.Exit(1)
	}

	// PostgreSQL log handler (ERROR+ async batch)
	pgLogHandler := logging.NewPGHandler(db)
	slog.SetDefault(slog.New(logging.NewMultiHandler(
		slog.NewJSONHandler(os.Stdout, stdoutOpts),
		pgLogHandler,
	)))

	// Log cleanup (30-day retention)
	cleanupDone := make(chan struct{})
	logging.StartCleanup(db, logRetention, cleanupDone)

	// Redis: OAuth state and webhook de-duplication
	redisCache := cache.NewRedisCache(cfg)
	pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	if err := redisCache.Ping(pingCtx); err != nil {
		slog.Warn("redis unavailable, LINE login and webhook dedupe will fail until it recovers", "addr", cfg.RedisAddr, "error", err)
	}
	cancel()

	// LINE + notifications
	lineClient := line.NewClient(cfg)
	var notifier notify.Notifier = notify.Nop{}
	var dispatcher *notify.Dispatcher
	if lineClient.CanPush() {
		dispatcher = notify.NewDispatcher(lineClient, cfg.NotifyRate, 4)
		notifier = dispatcher
	} else {
		slog.Warn("LINE_ACCESS_TOKEN not set, push notifications disabled")
	}

	// Features
	availabilityFeature := availability.New(db)
	groupMealFeature := groupmeal.New(db, notifier)
	feats := []features.Feature{
		community.New(db, cfg),
		profile.New(db, cfg),
		availabilityFeature,
		matching.New(db, notifier),
		groupMealFeature,
	}

	// Handlers
	authService := services.NewAuthService(db, cfg, redisCache, lineClient)
	h := routes.Handlers{
		Auth:    handlers.NewAuthHandler(authService, cfg),
		Health:  handlers.NewHealthHandler(db, redisCache),
		Webhook: handlers.NewWebhookHandler(db, cfg.LineChannelSecret, cfg.Location(), redisCache, availabilityFeature.Service(), groupMealFeature.Service()),
		Cron:    handlers.NewCronHandler(cfg.CronSecret, cfg.Location(), notifier, availabilityFeature.Service(), groupMealFeature.Service()),
		Dev:     handlers.NewDevHandler(db),
	}

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.AppEnv,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    6 * 1024 * 1024,
		ErrorHandler: customErrorHandler,
	})

	// Sentry middleware
	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		return c.Next()
	})

	app.Static("/uploads", cfg.UploadDir)

	// Routes
	routes.Setup(app, cfg, db, h, feats)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port, "env", cfg.AppEnv)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	if dispatcher != nil {
		dispatcher.Stop()
	}
	close(cleanupDone)
	pgLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if err := redisCache.Close(); err != nil {
		slog.Error("redis close error", "error", err)
	}
	if err := database.Close(db); err != nil {
		slog.Error("database close error", "error", err)
	}

	slog.Info("server stopped")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		if hub := sentryfiber.GetHubFromContext(c); hub != nil {
			hub.CaptureException(err)
		}
		message = "Internal server error"
	}

	return c.Status(code).JSON(dto.Err(message))
}
