package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/cache"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/config"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/dto"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/features/community"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/line"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	oauthStateTTL = 10 * time.Minute

	LineModeLogin    = "login"
	LineModeRegister = "register"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidState       = errors.New("invalid or expired login state")
	ErrLineNotRegistered  = errors.New("no account is linked to this LINE user")
	ErrLineNotConfigured  = errors.New("LINE login is not configured")
)

// StateStore keeps single-use OAuth states.
type StateStore interface {
	SaveOAuthState(ctx context.Context, state, payload string, ttl time.Duration) error
	ConsumeOAuthState(ctx context.Context, state string) (string, error)
}

// LineLogin is the subset of the LINE client used for OAuth.
type LineLogin interface {
	CanLogin() bool
	AuthorizeURL(state string) string
	ExchangeCode(ctx context.Context, code string) (string, error)
	FetchProfile(ctx context.Context, accessToken string) (*line.Profile, error)
}

type AuthService struct {
	db     *gorm.DB
	cfg    *config.Config
	states StateStore
	line   LineLogin
}

func NewAuthService(db *gorm.DB, cfg *config.Config, states StateStore, lineLogin LineLogin) *AuthService {
	return &AuthService{
		db:     db,
		cfg:    cfg,
		states: states,
		line:   lineLogin,
	}
}

func (s *AuthService) Register(req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	email := normalizeEmail(req.Email)

	var count int64
	if err := s.db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if count > 0 {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	displayName := strings.TrimSpace(req.DisplayName)
	if displayName == "" {
		displayName = strings.Split(email, "@")[0]
	}

	user := models.User{
		Email:        &email,
		PasswordHash: string(hash),
		AuthProvider: models.AuthProviderEmail,
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrEmailTaken
			}
			return fmt.Errorf("failed to create user: %w", err)
		}
		profile := models.Profile{UserID: user.ID, DisplayName: displayName}
		if err := tx.Create(&profile).Error; err != nil {
			return fmt.Errorf("failed to create profile: %w", err)
		}
		user.Profile = &profile
		if req.InviteCode != "" {
			if _, _, err := community.JoinWith(tx, s.cfg, user.ID, req.InviteCode); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.authResponse(&user)
}

func (s *AuthService) Login(req *dto.LoginRequest) (*dto.AuthResponse, error) {
	var user models.User
	if err := s.db.Preload("Profile").Where("email = ?", normalizeEmail(req.Email)).First(&user).Error; err != nil {
		return nil, ErrInvalidCredentials
	}

	if user.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.authResponse(&user)
}

func (s *AuthService) Me(userID uuid.UUID) (*dto.UserResponse, error) {
	var user models.User
	if err := s.db.Preload("Profile").First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	resp := userResponse(&user)
	return &resp, nil
}

// LineAuthURL stores a fresh state and returns the LINE authorize URL.
// Register mode checks the invite code up front so the user is not sent
// through LINE for nothing.
func (s *AuthService) LineAuthURL(ctx context.Context, mode, inviteCode string) (string, error) {
	if !s.line.CanLogin() {
		return "", ErrLineNotConfigured
	}
	if mode == LineModeRegister && inviteCode != "" {
		var count int64
		if err := s.db.Model(&models.Community{}).Where("invite_code = ?", strings.TrimSpace(inviteCode)).Count(&count).Error; err != nil {
			return "", fmt.Errorf("failed to check invite code: %w", err)
		}
		if count == 0 {
			return "", community.ErrInvalidInviteCode
		}
	}

	state, err := randomState()
	if err != nil {
		return "", err
	}
	payload, err := json.Marshal(map[string]string{"mode": mode, "inviteCode": inviteCode})
	if err != nil {
		return "", err
	}
	if err := s.states.SaveOAuthState(ctx, state, string(payload), oauthStateTTL); err != nil {
		return "", fmt.Errorf("failed to store login state: %w", err)
	}
	return s.line.AuthorizeURL(state), nil
}

// LineCallback completes LINE Login: it consumes the state, resolves the LINE
// profile and finds or creates the user.
func (s *AuthService) LineCallback(ctx context.Context, code, state string) (*dto.AuthResponse, error) {
	payload, err := s.states.ConsumeOAuthState(ctx, state)
	if err != nil {
		if errors.Is(err, cache.ErrStateNotFound) {
			return nil, ErrInvalidState
		}
		return nil, fmt.Errorf("failed to read login state: %w", err)
	}
	mode := gjson.Get(payload, "mode").String()
	inviteCode := gjson.Get(payload, "inviteCode").String()

	accessToken, err := s.line.ExchangeCode(ctx, code)
	if err != nil {
		return nil, err
	}
	profile, err := s.line.FetchProfile(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	var user models.User
	err = s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Preload("Profile").Where("line_user_id = ?", profile.UserID).First(&user).Error
		switch {
		case err == nil:
		case errors.Is(err, gorm.ErrRecordNotFound):
			if mode != LineModeRegister {
				return ErrLineNotRegistered
			}
			lineID := profile.UserID
			user = models.User{LineUserID: &lineID, AuthProvider: models.AuthProviderLine}
			if err := tx.Create(&user).Error; err != nil {
				return fmt.Errorf("failed to create LINE user: %w", err)
			}
			p := models.Profile{UserID: user.ID, DisplayName: truncateName(profile.DisplayName), ImageURL: profile.PictureURL}
			if err := tx.Create(&p).Error; err != nil {
				return fmt.Errorf("failed to create profile: %w", err)
			}
			user.Profile = &p
		default:
			return fmt.Errorf("failed to find LINE user: %w", err)
		}

		if inviteCode != "" {
			if _, _, err := community.JoinWith(tx, s.cfg, user.ID, inviteCode); err != nil && !errors.Is(err, community.ErrMembershipRejected) {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.authResponse(&user)
}

// SessionCookie carries the JWT for browser clients.
func (s *AuthService) SessionCookie(token string) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     s.cfg.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(s.cfg.JWTExpiry),
		HTTPOnly: true,
		Secure:   s.cfg.CookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	}
}

func (s *AuthService) ClearedCookie() *fiber.Cookie {
	return &fiber.Cookie{
		Name:     s.cfg.CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   s.cfg.CookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	}
}

func (s *AuthService) authResponse(user *models.User) (*dto.AuthResponse, error) {
	token, err := s.generateAccessToken(user)
	if err != nil {
		return nil, err
	}
	return &dto.AuthResponse{
		Token: token,
		User:  userResponse(user),
	}, nil
}

func (s *AuthService) generateAccessToken(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":      user.ID.String(),
		"email":    user.EmailOrEmpty(),
		"is_admin": user.IsAdmin,
		"iat":      time.Now().Unix(),
		"exp":      time.Now().Add(s.cfg.JWTExpiry).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

func userResponse(user *models.User) dto.UserResponse {
	resp := dto.UserResponse{
		ID:           user.ID,
		Email:        user.EmailOrEmpty(),
		IsAdmin:      user.IsAdmin,
		AuthProvider: user.AuthProvider,
		HasLine:      user.LineID() != "",
	}
	if user.Profile != nil {
		resp.DisplayName = user.Profile.DisplayName
	}
	return resp
}

func randomState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func truncateName(name string) string {
	r := []rune(strings.TrimSpace(name))
	if len(r) == 0 {
		return "LINE user"
	}
	if len(r) > 50 {
		r = r[:50]
	}
	return string(r)
}
