package handlers

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/cache"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/dto"
	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func mockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		DisableAutomaticPing: true,
		Logger:               logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func checkHealth(t *testing.T, h *HealthHandler) (int, dto.HealthResponse) {
	t.Helper()
	app := fiber.New()
	app.Get("/health", h.Check)
	resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
	require.NoError(t, err)

	var body dto.HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func TestHealthOK(t *testing.T) {
	db, mock := mockDB(t)
	mock.ExpectPing()
	mr := miniredis.RunT(t)
	rc := &cache.RedisCache{Client: redis.NewClient(&redis.Options{Addr: mr.Addr()})}

	code, body := checkHealth(t, NewHealthHandler(db, rc))
	assert.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "ok", body.DB)
	assert.Equal(t, "ok", body.Redis)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHealthDatabaseDown(t *testing.T) {
	db, mock := mockDB(t)
	mock.ExpectPing().WillReturnError(errors.New("connection refused"))

	code, body := checkHealth(t, NewHealthHandler(db, nil))
	assert.Equal(t, fiber.StatusServiceUnavailable, code)
	assert.Equal(t, "degraded", body.Status)
	assert.Contains(t, body.DB, "connection refused")
	assert.Equal(t, "disabled", body.Redis)
}

func TestHealthRedisDownStaysUp(t *testing.T) {
	db, mock := mockDB(t)
	mock.ExpectPing()
	mr := miniredis.RunT(t)
	rc := &cache.RedisCache{Client: redis.NewClient(&redis.Options{Addr: mr.Addr()})}
	mr.Close()

	code, body := checkHealth(t, NewHealthHandler(db, rc))
	assert.Equal(t, fiber.StatusOK, code)
	assert.Contains(t, body.Redis, "unhealthy")
}
