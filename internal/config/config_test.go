package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_EXPIRY", "")
	t.Setenv("AUTO_APPROVE_MEMBERS", "")

	cfg := Load()

	assert.Equal(t, 7*24*time.Hour, cfg.JWTExpiry)
	assert.False(t, cfg.AutoApproveMembers)
	assert.Equal(t, "token", cfg.CookieName)
	assert.False(t, cfg.IsProduction())
}

func TestLoadFlagsAndFallbacks(t *testing.T) {
	t.Setenv("AUTO_APPROVE_MEMBERS", "yes")
	t.Setenv("SEED_ADMIN_ENABLED", "1")
	t.Setenv("JWT_EXPIRY", "not-a-duration")
	t.Setenv("NOTIFY_RATE", "-3")
	t.Setenv("APP_ENV", "production")

	cfg := Load()

	assert.True(t, cfg.AutoApproveMembers)
	assert.True(t, cfg.SeedAdminEnabled)
	assert.Equal(t, 7*24*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, float64(10), cfg.NotifyRate)
	assert.True(t, cfg.IsProduction())
}

func TestLocationFallsBackToUTC(t *testing.T) {
	cfg := &Config{Timezone: "Not/AZone"}
	assert.Equal(t, time.UTC, cfg.Location())
}
