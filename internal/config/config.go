package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Environment
	AppEnv   string
	Timezone string
	LogLevel string

	// Error tracking
	SentryDSN string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// JWT / session cookie
	JWTSecret    string
	JWTExpiry    time.Duration
	CookieName   string
	CookieSecure bool

	// LINE Messaging API (push + webhook)
	LineChannelSecret string
	LineAccessToken   string

	// LINE Login (OAuth)
	LineLoginChannelID     string
	LineLoginChannelSecret string
	LineCallbackURL        string

	// Community defaults & feature flags
	DefaultCommunityName string
	DefaultCommunityCode string
	AutoApproveMembers   bool
	SeedAdminEnabled     bool
	SeedIncludeUsers     bool

	// Admin
	AdminEmail    string
	AdminPassword string
	AdminToken    string

	// Scheduled push trigger
	CronSecret        string
	SchedulerTarget   string
	DailyPushSchedule string
	ReminderSchedule  string

	// Notifications (messages per second)
	NotifyRate float64

	// Server
	Port        string
	CORSOrigins string
	FrontendURL string
	UploadDir   string
	PublicURL   string
}

func Load() *Config {
	return &Config{
		AppEnv:   getEnv("APP_ENV", "development"),
		Timezone: getEnv("TIMEZONE", "Asia/Tokyo"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		SentryDSN: getEnv("SENTRY_DSN", ""),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "mealmatch"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       parseInt(getEnv("REDIS_DB", "0"), 0),

		JWTSecret:    getEnv("JWT_SECRET", ""),
		JWTExpiry:    parseDuration(getEnv("JWT_EXPIRY", "168h"), 7*24*time.Hour),
		CookieName:   getEnv("COOKIE_NAME", "token"),
		CookieSecure: isTruthy(getEnv("COOKIE_SECURE", "false")),

		LineChannelSecret: getEnv("LINE_CHANNEL_SECRET", ""),
		LineAccessToken:   getEnv("LINE_ACCESS_TOKEN", ""),

		LineLoginChannelID:     getEnv("LINE_LOGIN_CHANNEL_ID", ""),
		LineLoginChannelSecret: getEnv("LINE_LOGIN_CHANNEL_SECRET", ""),
		LineCallbackURL:        getEnv("LINE_CALLBACK_URL", "http://localhost:8080/api/auth/line/callback"),

		DefaultCommunityName: getEnv("DEFAULT_COMMUNITY_NAME", "Default Community"),
		DefaultCommunityCode: getEnv("DEFAULT_COMMUNITY_CODE", ""),
		AutoApproveMembers:   isTruthy(getEnv("AUTO_APPROVE_MEMBERS", "false")),
		SeedAdminEnabled:     isTruthy(getEnv("SEED_ADMIN_ENABLED", "false")),
		SeedIncludeUsers:     isTruthy(getEnv("SEED_INCLUDE_USERS", "false")),

		AdminEmail:    getEnv("ADMIN_EMAIL", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
		AdminToken:    getEnv("ADMIN_TOKEN", ""),

		CronSecret:        getEnv("CRON_SECRET", ""),
		SchedulerTarget:   getEnv("SCHEDULER_TARGET", "http://localhost:8080"),
		DailyPushSchedule: getEnv("DAILY_PUSH_SCHEDULE", "0 9 * * *"),
		ReminderSchedule:  getEnv("REMINDER_SCHEDULE", "0 12 * * *"),

		NotifyRate: parseFloat(getEnv("NOTIFY_RATE", "10"), 10),

		Port:        getEnv("PORT", "8080"),
		CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:3000"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),
		UploadDir:   getEnv("UPLOAD_DIR", "./uploads"),
		PublicURL:   getEnv("PUBLIC_URL", "http://localhost:8080"),
	}
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Location resolves Timezone, falling back to UTC when the zone is unknown.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}

func parseFloat(s string, fallback float64) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f <= 0 {
		return fallback
	}
	return f
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}
