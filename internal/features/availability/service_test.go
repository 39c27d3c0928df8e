package availability

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/membership"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/models"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/testutil"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intp(i int) *int { return &i }

func TestReplaceSwapsGrid(t *testing.T) {
	db := testutil.NewDB(t)
	u := testutil.User(t, db, "Aki")
	svc := NewService(db)

	_, err := svc.Replace(u.ID, []SlotInput{
		{Weekday: intp(1), TimeSlot: "DAY", Status: "AVAILABLE"},
		{Weekday: intp(1), TimeSlot: "NIGHT", Status: "MEET_ONLY"},
	})
	require.NoError(t, err)

	slots, err := svc.Replace(u.ID, []SlotInput{{Weekday: intp(5), TimeSlot: "NIGHT", Status: "AVAILABLE"}})
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, 5, slots[0].Weekday)
}

func TestReplaceDuplicateLeavesRowsUntouched(t *testing.T) {
	db := testutil.NewDB(t)
	u := testutil.User(t, db, "Aki")
	svc := NewService(db)

	_, err := svc.Replace(u.ID, []SlotInput{{Weekday: intp(2), TimeSlot: "DAY", Status: "AVAILABLE"}})
	require.NoError(t, err)

	_, err = svc.Replace(u.ID, []SlotInput{
		{Weekday: intp(3), TimeSlot: "DAY", Status: "AVAILABLE"},
		{Weekday: intp(3), TimeSlot: "DAY", Status: "UNAVAILABLE"},
	})
	assert.ErrorIs(t, err, ErrDuplicateSlot)

	slots, err := svc.Get(u.ID)
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, 2, slots[0].Weekday)
}

func TestPutDuplicateReturns400(t *testing.T) {
	db := testutil.NewDB(t)
	u := testutil.User(t, db, "Aki")
	testutil.Available(t, db, u, 4, models.TimeSlotNight, models.AvailabilityAvailable)

	app := fiber.New()
	h := NewHandler(NewService(db))
	app.Put("/availability", testutil.AsUser(u.ID, uuid.Nil, false), h.Put)

	body := `{"slots":[{"weekday":0,"timeSlot":"DAY","status":"AVAILABLE"},{"weekday":0,"timeSlot":"DAY","status":"MEET_ONLY"}]}`
	req := httptest.NewRequest("PUT", "/availability", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	raw, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(raw), "DUPLICATE_SLOT")

	var rows []models.AvailabilitySlot
	require.NoError(t, db.Where("user_id = ?", u.ID).Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, 4, rows[0].Weekday)
}

func TestPutValidation(t *testing.T) {
	db := testutil.NewDB(t)
	u := testutil.User(t, db, "Aki")

	app := fiber.New()
	h := NewHandler(NewService(db))
	app.Put("/availability", testutil.AsUser(u.ID, uuid.Nil, false), h.Put)

	req := httptest.NewRequest("PUT", "/availability", strings.NewReader(`{"slots":[{"weekday":7,"timeSlot":"LUNCH","status":"AVAILABLE"}]}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	raw, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(raw), "slots[0].weekday")
	assert.Contains(t, string(raw), "slots[0].timeSlot")
}

func TestOverlap(t *testing.T) {
	db := testutil.NewDB(t)
	c := testutil.Community(t, db, "Office")
	a, b := testutil.Member(t, db, c, "Aki"), testutil.Member(t, db, c, "Ben")
	outsider := testutil.User(t, db, "Out")
	svc := NewService(db)

	testutil.Available(t, db, a, 1, "DAY", models.AvailabilityAvailable)
	testutil.Available(t, db, a, 1, "NIGHT", models.AvailabilityMeetOnly)
	testutil.Available(t, db, a, 2, "DAY", models.AvailabilityAvailable)
	testutil.Available(t, db, b, 1, "DAY", models.AvailabilityMeetOnly)
	testutil.Available(t, db, b, 1, "NIGHT", models.AvailabilityUnavailable)

	slots, err := svc.Overlap(a.ID, b.ID, c.ID)
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, OverlapSlot{Weekday: 1, TimeSlot: "DAY", MyStatus: "AVAILABLE", TheirStatus: "MEET_ONLY"}, slots[0])

	_, err = svc.Overlap(a.ID, outsider.ID, c.ID)
	assert.ErrorIs(t, err, membership.ErrTargetNotMember)
}

func TestSetDailySlotUsesLocalWeekday(t *testing.T) {
	db := testutil.NewDB(t)
	u := testutil.User(t, db, "Aki")
	svc := NewService(db)
	tokyo := time.FixedZone("JST", 9*60*60)

	// Sunday 20:00 UTC is Monday in Tokyo
	now := time.Date(2026, 10, 18, 20, 0, 0, 0, time.UTC)
	require.NoError(t, svc.SetDailySlot(u.ID, now, tokyo, "NIGHT", "AVAILABLE"))
	require.NoError(t, svc.SetDailySlot(u.ID, now, tokyo, "NIGHT", "UNAVAILABLE"))

	slots, err := svc.Get(u.ID)
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, int(time.Monday), slots[0].Weekday)
	assert.Equal(t, "UNAVAILABLE", slots[0].Status)

	assert.ErrorIs(t, svc.SetDailySlot(u.ID, now, tokyo, "MORNING", "AVAILABLE"), ErrInvalidSlot)
}

func TestPromptRecipientsOnlyApprovedLineUsers(t *testing.T) {
	db := testutil.NewDB(t)
	c1 := testutil.Community(t, db, "North")
	c2 := testutil.Community(t, db, "South")

	both := testutil.Member(t, db, c1, "Aki")
	testutil.Join(t, db, both, c2, models.MembershipApproved)
	pending := testutil.LineUser(t, db, "Ren")
	testutil.Join(t, db, pending, c1, models.MembershipPending)
	noLine := testutil.User(t, db, "Sora")
	testutil.Join(t, db, noLine, c1, models.MembershipApproved)
	other := testutil.Member(t, db, c2, "Yui")

	ids, err := NewService(db).PromptRecipients()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{*both.LineUserID, *other.LineUserID}, ids)
}
