package handlers

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/features/groupmeal"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/models"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/notify"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/testutil"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func count(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

func TestDevResetMeKeepsOthersAndResyncs(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	gm := groupmeal.NewService(db, notify.Nop{})
	c := testutil.Community(t, db, "Office")
	me, host, other := testutil.Member(t, db, c, "Me"), testutil.Member(t, db, c, "Hana"), testutil.Member(t, db, c, "Ota")

	require.NoError(t, db.Create(&models.Like{FromUserID: me.ID, ToUserID: host.ID, CommunityID: c.ID, Answer: models.AnswerYes}).Error)
	require.NoError(t, db.Create(&models.Like{FromUserID: host.ID, ToUserID: other.ID, CommunityID: c.ID, Answer: models.AnswerYes}).Error)

	mine, err := gm.Create(ctx, me.ID, c.ID, groupmeal.CreateInput{Date: testutil.Date(t, "2026-10-16"), TimeSlot: models.TimeSlotDay, Capacity: 3})
	require.NoError(t, err)
	theirs, err := gm.Create(ctx, host.ID, c.ID, groupmeal.CreateInput{Date: testutil.Date(t, "2026-10-16"), TimeSlot: models.TimeSlotNight, Capacity: 3})
	require.NoError(t, err)
	_, err = gm.Invite(ctx, host.ID, theirs.ID, []uuid.UUID{me.ID, other.ID})
	require.NoError(t, err)

	app := fiber.New()
	app.Post("/dev/reset/me", testutil.AsUser(me.ID, uuid.Nil, false), NewDevHandler(db).ResetMe)
	resp, err := app.Test(httptest.NewRequest("POST", "/dev/reset/me", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	assert.Equal(t, int64(1), count(t, db, &models.Like{}))
	_, err = gm.Get(ctx, me.ID, mine.ID)
	assert.ErrorIs(t, err, groupmeal.ErrMealNotFound)

	after, err := gm.Get(ctx, host.ID, theirs.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, after.SeatsTaken)
	assert.Equal(t, models.GroupMealOpen, after.Status)
}

func TestDevResetWipesMatchingState(t *testing.T) {
	db := testutil.NewDB(t)
	c := testutil.Community(t, db, "Office")
	a, b := testutil.Member(t, db, c, "Aki"), testutil.Member(t, db, c, "Ben")
	require.NoError(t, db.Create(&models.Like{FromUserID: a.ID, ToUserID: b.ID, CommunityID: c.ID, Answer: models.AnswerYes}).Error)
	u1, u2 := models.SortedPair(a.ID, b.ID)
	require.NoError(t, db.Create(&models.Match{CommunityID: c.ID, User1ID: u1, User2ID: u2}).Error)

	app := fiber.New()
	app.Post("/dev/reset", NewDevHandler(db).Reset)
	resp, err := app.Test(httptest.NewRequest("POST", "/dev/reset", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	assert.Zero(t, count(t, db, &models.Like{}))
	assert.Zero(t, count(t, db, &models.Match{}))
	assert.Equal(t, int64(2), count(t, db, &models.User{}))
}
