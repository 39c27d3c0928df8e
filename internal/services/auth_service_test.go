package services

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/cache"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/config"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/dto"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/features/community"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/line"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/models"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/testutil"
	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeLine struct {
	profile *line.Profile
	err     error
}

func (f *fakeLine) CanLogin() bool { return true }

func (f *fakeLine) AuthorizeURL(state string) string {
	return "https://line.example/authorize?state=" + url.QueryEscape(state)
}

func (f *fakeLine) ExchangeCode(_ context.Context, code string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "at-" + code, nil
}

func (f *fakeLine) FetchProfile(context.Context, string) (*line.Profile, error) {
	return f.profile, nil
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:  "test-secret",
		JWTExpiry:  7 * 24 * time.Hour,
		CookieName: "token",
	}
}

func newAuth(t *testing.T, lp *line.Profile) (*AuthService, *gorm.DB, *miniredis.Miniredis) {
	t.Helper()
	db := testutil.NewDB(t)
	mr := miniredis.RunT(t)
	cfg := testConfig()
	cfg.RedisAddr = mr.Addr()
	rc := cache.NewRedisCache(cfg)
	t.Cleanup(func() { rc.Close() })
	return NewAuthService(db, cfg, rc, &fakeLine{profile: lp}), db, mr
}

func stateOf(t *testing.T, authURL string) string {
	t.Helper()
	u, err := url.Parse(authURL)
	require.NoError(t, err)
	return u.Query().Get("state")
}

func TestRegisterAndLogin(t *testing.T) {
	svc, db, _ := newAuth(t, nil)
	c := testutil.Community(t, db, "Office")

	resp, err := svc.Register(&dto.RegisterRequest{
		Email:      "Aki@Example.com",
		Password:   "password123",
		InviteCode: c.InviteCode,
	})
	require.NoError(t, err)
	assert.Equal(t, "aki@example.com", resp.User.Email)
	assert.Equal(t, "aki", resp.User.DisplayName)

	token, err := jwt.Parse(resp.Token, func(*jwt.Token) (interface{}, error) { return []byte("test-secret"), nil })
	require.NoError(t, err)
	claims := token.Claims.(jwt.MapClaims)
	assert.Equal(t, resp.User.ID.String(), claims["sub"])
	assert.Equal(t, false, claims["is_admin"])

	var m models.CommunityMembership
	require.NoError(t, db.Where("user_id = ?", resp.User.ID).First(&m).Error)
	assert.Equal(t, models.MembershipPending, m.Status)

	_, err = svc.Register(&dto.RegisterRequest{Email: "aki@example.com", Password: "password123"})
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, err = svc.Login(&dto.LoginRequest{Email: "aki@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	login, err := svc.Login(&dto.LoginRequest{Email: "AKI@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, login.User.ID)
}

func TestRegisterWithBadInviteCodeCreatesNothing(t *testing.T) {
	svc, db, _ := newAuth(t, nil)

	_, err := svc.Register(&dto.RegisterRequest{Email: "a@example.com", Password: "password123", InviteCode: "missing"})
	assert.ErrorIs(t, err, community.ErrInvalidInviteCode)

	var n int64
	db.Model(&models.User{}).Count(&n)
	assert.Zero(t, n)
}

func TestLineRegisterThenLogin(t *testing.T) {
	svc, db, _ := newAuth(t, &line.Profile{UserID: "U123", DisplayName: "Hana", PictureURL: "https://img"})
	c := testutil.Community(t, db, "Office")
	ctx := context.Background()

	_, err := svc.LineAuthURL(ctx, LineModeRegister, "missing")
	assert.ErrorIs(t, err, community.ErrInvalidInviteCode)

	authURL, err := svc.LineAuthURL(ctx, LineModeRegister, c.InviteCode)
	require.NoError(t, err)
	state := stateOf(t, authURL)

	resp, err := svc.LineCallback(ctx, "code-1", state)
	require.NoError(t, err)
	assert.True(t, resp.User.HasLine)
	assert.Equal(t, "Hana", resp.User.DisplayName)
	assert.Equal(t, models.AuthProviderLine, resp.User.AuthProvider)

	// state is single use
	_, err = svc.LineCallback(ctx, "code-1", state)
	assert.ErrorIs(t, err, ErrInvalidState)

	authURL, err = svc.LineAuthURL(ctx, LineModeLogin, "")
	require.NoError(t, err)
	again, err := svc.LineCallback(ctx, "code-2", stateOf(t, authURL))
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, again.User.ID)

	var n int64
	db.Model(&models.CommunityMembership{}).Where("user_id = ?", resp.User.ID).Count(&n)
	assert.Equal(t, int64(1), n)
}

func TestLineLoginRefusesUnknownUser(t *testing.T) {
	svc, _, _ := newAuth(t, &line.Profile{UserID: "U-new", DisplayName: "New"})
	ctx := context.Background()

	authURL, err := svc.LineAuthURL(ctx, LineModeLogin, "")
	require.NoError(t, err)

	_, err = svc.LineCallback(ctx, "code", stateOf(t, authURL))
	assert.ErrorIs(t, err, ErrLineNotRegistered)
}

func TestLineStateExpires(t *testing.T) {
	svc, _, mr := newAuth(t, &line.Profile{UserID: "U1"})
	ctx := context.Background()

	authURL, err := svc.LineAuthURL(ctx, LineModeRegister, "")
	require.NoError(t, err)
	mr.FastForward(11 * time.Minute)

	_, err = svc.LineCallback(ctx, "code", stateOf(t, authURL))
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestLineExchangeFailurePropagates(t *testing.T) {
	svc, db, _ := newAuth(t, nil)
	svc.line = &fakeLine{err: errors.New("invalid_grant")}
	ctx := context.Background()

	authURL, err := svc.LineAuthURL(ctx, LineModeRegister, "")
	require.NoError(t, err)
	_, err = svc.LineCallback(ctx, "code", stateOf(t, authURL))
	require.Error(t, err)

	var n int64
	db.Model(&models.User{}).Count(&n)
	assert.Zero(t, n)
}
