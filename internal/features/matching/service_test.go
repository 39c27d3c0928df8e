package matching

import (
	"context"
	"testing"

	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/membership"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/models"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/notify"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/notify/notifytest"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db        *gorm.DB
	svc       *Service
	rec       *notifytest.Recorder
	community *models.Community
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	rec := &notifytest.Recorder{}
	return &fixture{
		db:        db,
		svc:       NewService(db, rec),
		rec:       rec,
		community: testutil.Community(t, db, "Office"),
	}
}

func (f *fixture) member(t *testing.T, name string) *models.User {
	return testutil.Member(t, f.db, f.community, name)
}

func (f *fixture) countMatches(t *testing.T) int64 {
	var n int64
	require.NoError(t, f.db.Model(&models.Match{}).Count(&n).Error)
	return n
}

func TestMutualYesCreatesOneMatchEitherOrder(t *testing.T) {
	for _, order := range []string{"a-first", "b-first"} {
		t.Run(order, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			a, b := f.member(t, "Aki"), f.member(t, "Ben")
			first, second := a, b
			if order == "b-first" {
				first, second = b, a
			}

			res, err := f.svc.SubmitLike(ctx, first.ID, second.ID, f.community.ID, models.AnswerYes)
			require.NoError(t, err)
			assert.False(t, res.Matched)

			res, err = f.svc.SubmitLike(ctx, second.ID, first.ID, f.community.ID, models.AnswerYes)
			require.NoError(t, err)
			require.True(t, res.Matched)
			assert.Equal(t, first.ID, res.Partner.UserID)
			assert.NotNil(t, res.MatchID)

			assert.Equal(t, int64(1), f.countMatches(t))
			var m models.Match
			require.NoError(t, f.db.First(&m).Error)
			assert.True(t, m.User1ID.String() < m.User2ID.String())

			assert.Len(t, f.rec.OfKind(notify.KindMatch), 2)
		})
	}
}

func TestUpsertMatchIsIdempotent(t *testing.T) {
	f := newFixture(t)
	a, b := f.member(t, "Aki"), f.member(t, "Ben")

	m1, created, err := upsertMatch(f.db, f.community.ID, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, created)

	m2, created, err := upsertMatch(f.db, f.community.ID, b.ID, a.ID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, m1.ID, m2.ID)
	assert.Equal(t, int64(1), f.countMatches(t))
}

func TestNoMatchOnYesNo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, b := f.member(t, "Aki"), f.member(t, "Ben")

	_, err := f.svc.SubmitLike(ctx, a.ID, b.ID, f.community.ID, models.AnswerYes)
	require.NoError(t, err)
	res, err := f.svc.SubmitLike(ctx, b.ID, a.ID, f.community.ID, models.AnswerNo)
	require.NoError(t, err)
	assert.False(t, res.Matched)
	assert.Zero(t, f.countMatches(t))
	assert.Empty(t, f.rec.All())
}

func TestDuplicateLikeRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, b := f.member(t, "Aki"), f.member(t, "Ben")

	_, err := f.svc.SubmitLike(ctx, a.ID, b.ID, f.community.ID, models.AnswerYes)
	require.NoError(t, err)
	_, err = f.svc.SubmitLike(ctx, a.ID, b.ID, f.community.ID, models.AnswerYes)
	assert.ErrorIs(t, err, ErrAlreadyAnswered)

	var n int64
	f.db.Model(&models.Like{}).Count(&n)
	assert.Equal(t, int64(1), n)
}

func TestLikeGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.member(t, "Aki")
	pending := testutil.LineUser(t, f.db, "Pending")
	testutil.Join(t, f.db, pending, f.community, models.MembershipPending)

	_, err := f.svc.SubmitLike(ctx, a.ID, a.ID, f.community.ID, models.AnswerYes)
	assert.ErrorIs(t, err, ErrSelfTarget)

	_, err = f.svc.SubmitLike(ctx, a.ID, pending.ID, f.community.ID, models.AnswerYes)
	assert.ErrorIs(t, err, membership.ErrTargetNotMember)

	_, err = f.svc.SubmitLike(ctx, pending.ID, a.ID, f.community.ID, models.AnswerYes)
	assert.ErrorIs(t, err, membership.ErrJoinRequired)

	_, err = f.svc.SubmitLike(ctx, a.ID, uuid.New(), f.community.ID, "MAYBE")
	assert.ErrorIs(t, err, ErrInvalidAnswer)
}

func TestNextCandidateWalksUnanswered(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, b, c := f.member(t, "Aki"), f.member(t, "Ben"), f.member(t, "Chie")

	seen := map[uuid.UUID]bool{}
	for i := 0; i < 2; i++ {
		next, err := f.svc.NextCandidate(ctx, a.ID, f.community.ID)
		require.NoError(t, err)
		require.NotNil(t, next)
		assert.NotEqual(t, a.ID, next.UserID)
		assert.False(t, seen[next.UserID])
		seen[next.UserID] = true
		_, err = f.svc.SubmitLike(ctx, a.ID, next.UserID, f.community.ID, models.AnswerNo)
		require.NoError(t, err)
	}
	assert.True(t, seen[b.ID] && seen[c.ID])

	next, err := f.svc.NextCandidate(ctx, a.ID, f.community.ID)
	require.NoError(t, err)
	assert.Nil(t, next)
}

func TestSuperLikeIsReplaced(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, b, c := f.member(t, "Aki"), f.member(t, "Ben"), f.member(t, "Chie")

	require.NoError(t, f.svc.SubmitSuperLike(ctx, a.ID, b.ID, f.community.ID))
	require.NoError(t, f.svc.SubmitSuperLike(ctx, a.ID, c.ID, f.community.ID))

	var rows []models.SuperLike
	require.NoError(t, f.db.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, c.ID, rows[0].ToUserID)
	assert.Len(t, f.rec.OfKind(notify.KindSuperLike), 2)

	members, err := f.svc.ListMembers(ctx, c.ID, f.community.ID)
	require.NoError(t, err)
	for _, m := range members {
		assert.Equal(t, m.UserID == a.ID, m.SuperLikedMe)
	}

	require.NoError(t, f.svc.DeleteSuperLike(ctx, a.ID, f.community.ID))
	assert.ErrorIs(t, f.svc.DeleteSuperLike(ctx, a.ID, f.community.ID), ErrSuperLikeNotFound)
}

func TestRelationships(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, b, c, d := f.member(t, "Aki"), f.member(t, "Ben"), f.member(t, "Chie"), f.member(t, "Dai")

	_, err := f.svc.SubmitLike(ctx, a.ID, b.ID, f.community.ID, models.AnswerYes)
	require.NoError(t, err)
	_, err = f.svc.SubmitLike(ctx, b.ID, a.ID, f.community.ID, models.AnswerYes)
	require.NoError(t, err)
	_, err = f.svc.SubmitLike(ctx, a.ID, c.ID, f.community.ID, models.AnswerNo)
	require.NoError(t, err)
	require.NoError(t, f.svc.SubmitSuperLike(ctx, d.ID, a.ID, f.community.ID))

	rel, err := f.svc.Relationships(ctx, a.ID, f.community.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{b.ID}, rel.Liked)
	assert.Equal(t, []uuid.UUID{c.ID}, rel.Passed)
	assert.Equal(t, []uuid.UUID{b.ID}, rel.Matched)
	assert.Equal(t, []uuid.UUID{d.ID}, rel.SuperLikedBy)
	assert.Equal(t, 1, rel.RemainingToDo)
	assert.Nil(t, rel.MySuperLike)
}

func TestPairMealLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, b, outsider := f.member(t, "Aki"), f.member(t, "Ben"), f.member(t, "Chie")
	m, _, err := upsertMatch(f.db, f.community.ID, a.ID, b.ID)
	require.NoError(t, err)

	in, issues := DecodePairMeal([]byte(`{"schedule":{"date":"2026-11-02","timeBand":"NIGHT"},"place":{"name":"Ramen Ichi","url":"https://maps.example/1"},"note":"counter seats"}`))
	require.Nil(t, issues)

	_, err = f.svc.CreatePairMeal(ctx, outsider.ID, m.ID, in)
	assert.ErrorIs(t, err, ErrMatchNotFound)

	meal, err := f.svc.CreatePairMeal(ctx, a.ID, m.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "2026-11-02", meal.Date)
	assert.Equal(t, "Ramen Ichi", meal.Location)
	assert.Equal(t, models.PairMealScheduled, meal.Status)

	sent := f.rec.OfKind(notify.KindPairMeal)
	require.Len(t, sent, 1)
	assert.Equal(t, b.LineID(), sent[0].To)

	flat, issues := DecodePairMeal([]byte(`{"date":"2026-11-03","timeBand":"DAY","location":"Cafe"}`))
	require.Nil(t, issues)
	updated, err := f.svc.UpdatePairMeal(ctx, b.ID, meal.ID, flat)
	require.NoError(t, err)
	assert.Equal(t, "2026-11-03", updated.Date)

	_, err = f.svc.CancelPairMeal(ctx, outsider.ID, meal.ID)
	assert.ErrorIs(t, err, ErrPairMealNotFound)

	cancelled, err := f.svc.CancelPairMeal(ctx, a.ID, meal.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PairMealCancelled, cancelled.Status)

	_, err = f.svc.UpdatePairMeal(ctx, a.ID, meal.ID, flat)
	assert.ErrorIs(t, err, ErrPairMealCancelled)

	got, err := f.svc.GetMatch(ctx, b.ID, m.ID)
	require.NoError(t, err)
	require.Len(t, got.PairMeals, 1)
	assert.Equal(t, a.ID, got.Partner.UserID)
}

func TestDecodePairMealIssues(t *testing.T) {
	_, issues := DecodePairMeal([]byte(`{"date":"tomorrow","timeBand":"DAY"}`))
	require.NotEmpty(t, issues)
	assert.Equal(t, "date", issues[0].Field)

	_, issues = DecodePairMeal([]byte(`{"schedule":{"date":"2026-11-02"}}`))
	require.NotEmpty(t, issues)
	assert.Equal(t, "schedule.timeBand", issues[0].Field)

	_, issues = DecodePairMeal([]byte(`not json`))
	assert.NotEmpty(t, issues)
}
