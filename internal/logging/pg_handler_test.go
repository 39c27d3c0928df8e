package logging

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.SystemLog{}))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

func TestPGHandlerPersistsErrorsOnly(t *testing.T) {
	db := setupTestDB(t)
	h := NewPGHandler(db)

	logger := slog.New(h).With("action", "invite")
	logger.Info("ignored")
	logger.Error("invite failed", "user_id", "u-1", "error", "boom", "meal", "m-1")

	h.Stop()

	var row models.SystemLog
	require.NoError(t, db.First(&row).Error)
	assert.Equal(t, "invite failed", row.Message)
	assert.Equal(t, "invite", row.Action)
	assert.Equal(t, "boom", row.Error)
	require.NotNil(t, row.UserID)
	assert.Equal(t, "u-1", *row.UserID)
	assert.JSONEq(t, `{"meal":"m-1"}`, string(row.Extra))
}

func TestPGHandlerMapsColumnsAndGroups(t *testing.T) {
	db := setupTestDB(t)
	h := NewPGHandler(db)

	logger := slog.New(h).With("community_id", "c-1").WithGroup("req")
	logger.Error("slow request",
		slog.Duration("latency_ms", 0),
		slog.Group("", slog.String("request_id", "r-grouped")),
		"path", "/api/meals",
		"cause", errors.New("timeout"),
	)
	slog.New(h).Error("plain", "latency_ms", int64(42), "request_id", "r-9")
	h.Stop()

	var rows []models.SystemLog
	require.NoError(t, db.Order("message ASC").Find(&rows).Error)
	require.Len(t, rows, 2)

	grouped := rows[1]
	assert.Equal(t, "slow request", grouped.Message)
	assert.Equal(t, "c-1", grouped.CommunityID)
	assert.Empty(t, grouped.RequestID)
	assert.JSONEq(t, `{"req.latency_ms":"0s","req.request_id":"r-grouped","req.path":"/api/meals","req.cause":"timeout"}`, string(grouped.Extra))

	plain := rows[0]
	assert.Equal(t, 42, plain.LatencyMs)
	assert.Equal(t, "r-9", plain.RequestID)
	assert.Empty(t, plain.Extra)
}

func TestPGHandlerWritesFullBatchBeforeTick(t *testing.T) {
	db := setupTestDB(t)
	h := NewPGHandler(db, WithBatchSize(2), WithFlushInterval(time.Hour))
	t.Cleanup(h.Stop)

	logger := slog.New(h)
	logger.Error("one")
	logger.Error("two")

	require.Eventually(t, func() bool {
		var n int64
		db.Model(&models.SystemLog{}).Count(&n)
		return n == 2
	}, 2*time.Second, 20*time.Millisecond)
}

func TestMillis(t *testing.T) {
	assert.Equal(t, 13, millis(slog.Float64Value(12.6)))
	assert.Equal(t, 7, millis(slog.Int64Value(7)))
	assert.Equal(t, 1500, millis(slog.DurationValue(1500*time.Millisecond)))
	assert.Zero(t, millis(slog.StringValue("fast")))
}

func TestPurgeBefore(t *testing.T) {
	db := setupTestDB(t)
	old := models.SystemLog{Timestamp: time.Now().Add(-48 * time.Hour), Level: "ERROR"}
	fresh := models.SystemLog{Timestamp: time.Now(), Level: "ERROR"}
	require.NoError(t, db.Create(&old).Error)
	require.NoError(t, db.Create(&fresh).Error)

	deleted, err := PurgeBefore(db, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}

func TestMultiHandlerFansOut(t *testing.T) {
	a := &countingHandler{}
	b := &countingHandler{min: slog.LevelError}
	logger := slog.New(NewMultiHandler(a, b))

	logger.Info("one")
	logger.Error("two")

	assert.Equal(t, 2, a.n)
	assert.Equal(t, 1, b.n)
}

type countingHandler struct {
	min slog.Level
	n   int
}

func (c *countingHandler) Enabled(_ context.Context, l slog.Level) bool { return l >= c.min }
func (c *countingHandler) Handle(context.Context, slog.Record) error   { c.n++; return nil }
func (c *countingHandler) WithAttrs([]slog.Attr) slog.Handler          { return c }
func (c *countingHandler) WithGroup(string) slog.Handler               { return c }
