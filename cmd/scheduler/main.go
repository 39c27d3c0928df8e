// Command scheduler triggers the daily availability prompt and meal
// reminders by calling the server's internal push endpoints.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/config"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logging.Setup(cfg.LogLevel)

	if cfg.CronSecret == "" {
		slog.Error("CRON_SECRET environment variable is required")
		os.Exit(1)
	}

	client := &http.Client{Timeout: 30 * time.Second}
	trigger := func(path string) func() {
		return func() {
			if err := call(client, cfg.SchedulerTarget+path, cfg.CronSecret); err != nil {
				slog.Error("scheduled push failed", "path", path, "error", err)
				return
			}
			slog.Info("scheduled push triggered", "path", path)
		}
	}

	c := cron.New(cron.WithLocation(cfg.Location()))
	if _, err := c.AddFunc(cfg.DailyPushSchedule, trigger("/api/internal/push/daily")); err != nil {
		slog.Error("invalid DAILY_PUSH_SCHEDULE", "spec", cfg.DailyPushSchedule, "error", err)
		os.Exit(1)
	}
	if _, err := c.AddFunc(cfg.ReminderSchedule, trigger("/api/internal/push/reminders")); err != nil {
		slog.Error("invalid REMINDER_SCHEDULE", "spec", cfg.ReminderSchedule, "error", err)
		os.Exit(1)
	}

	c.Start()
	slog.Info("scheduler started", "target", cfg.SchedulerTarget, "timezone", cfg.Timezone,
		"daily", cfg.DailyPushSchedule, "reminders", cfg.ReminderSchedule)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	<-c.Stop().Done()
	slog.Info("scheduler stopped")
}

func call(client *http.Client, url, secret string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("X-Cron-Secret", secret)

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}
