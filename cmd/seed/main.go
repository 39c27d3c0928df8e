// Command seed creates the default community, the seed admin and, with
// -users, demo members for local development.
package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/config"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/database"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/logging"
)

func main() {
	users := flag.Int("users", 12, "demo members to create when SEED_INCLUDE_USERS is set")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()
	logging.Setup(cfg.LogLevel)

	if cfg.IsProduction() && cfg.SeedIncludeUsers {
		slog.Error("refusing to seed demo users in production")
		os.Exit(1)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer database.Close(db)

	if err := database.Migrate(db); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	community, err := database.EnsureDefaults(db, cfg)
	if err != nil {
		slog.Error("seeding defaults failed", "error", err)
		os.Exit(1)
	}

	if !cfg.SeedIncludeUsers {
		slog.Info("seed complete", "demo_users", 0)
		return
	}
	if community == nil {
		slog.Error("SEED_INCLUDE_USERS requires DEFAULT_COMMUNITY_CODE")
		os.Exit(1)
	}
	if err := database.SeedUsers(db, community, *users); err != nil {
		slog.Error("seeding users failed", "error", err)
		os.Exit(1)
	}
	slog.Info("seed complete", "demo_users", *users)
}
