// Package testutil builds SQLite-backed fixtures for service and handler tests.
package testutil

import (
	"strings"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/models"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/session"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a private in-memory database with every model migrated.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

// Community creates a community with a random invite code.
func Community(t *testing.T, db *gorm.DB, name string) *models.Community {
	t.Helper()
	c := &models.Community{Name: name, InviteCode: uuid.NewString()[:8]}
	require.NoError(t, db.Create(c).Error)
	return c
}

// User creates an email user with a profile.
func User(t *testing.T, db *gorm.DB, name string) *models.User {
	t.Helper()
	email := strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@example.com"
	u := &models.User{Email: &email, AuthProvider: models.AuthProviderEmail}
	require.NoError(t, db.Create(u).Error)
	p := &models.Profile{UserID: u.ID, DisplayName: name}
	require.NoError(t, db.Create(p).Error)
	u.Profile = p
	return u
}

// LineUser creates a user reachable by push.
func LineUser(t *testing.T, db *gorm.DB, name string) *models.User {
	t.Helper()
	u := User(t, db, name)
	lineID := "U" + strings.ReplaceAll(u.ID.String(), "-", "")
	require.NoError(t, db.Model(u).Update("line_user_id", lineID).Error)
	u.LineUserID = &lineID
	return u
}

// Member creates a user with an approved membership in c.
func Member(t *testing.T, db *gorm.DB, c *models.Community, name string) *models.User {
	t.Helper()
	u := LineUser(t, db, name)
	Join(t, db, u, c, models.MembershipApproved)
	return u
}

func Join(t *testing.T, db *gorm.DB, u *models.User, c *models.Community, status string) {
	t.Helper()
	require.NoError(t, db.Create(&models.CommunityMembership{UserID: u.ID, CommunityID: c.ID, Status: status}).Error)
}

// Tags replaces the profile list fields of u.
func Tags(t *testing.T, db *gorm.DB, u *models.User, areas, hobbies, meals []string) {
	t.Helper()
	require.NoError(t, db.Model(&models.Profile{}).Where("user_id = ?", u.ID).Updates(map[string]interface{}{
		"areas":          datatypes.JSONSlice[string](areas),
		"hobbies":        datatypes.JSONSlice[string](hobbies),
		"favorite_meals": datatypes.JSONSlice[string](meals),
	}).Error)
}

// Available marks u free for (weekday, timeSlot) with status.
func Available(t *testing.T, db *gorm.DB, u *models.User, weekday int, timeSlot, status string) {
	t.Helper()
	require.NoError(t, db.Create(&models.AvailabilitySlot{UserID: u.ID, Weekday: weekday, TimeSlot: timeSlot, Status: status}).Error)
}

// Date parses a YYYY-MM-DD fixture date.
func Date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return d
}

// AsUser stands in for the JWT and membership middleware in handler tests.
func AsUser(userID, communityID uuid.UUID, admin bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("user", &jwt.Token{Claims: jwt.MapClaims{"sub": userID.String(), "is_admin": admin}, Valid: true})
		if communityID != uuid.Nil {
			session.SetCommunityID(c, communityID)
		}
		return c.Next()
	}
}
