package handlers

import (
	"errors"
	"log/slog"
	"net/url"
	"strings"

	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/config"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/dto"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/features/community"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/services"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/session"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/validation"
	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authService *services.AuthService
	cfg         *config.Config
}

func NewAuthHandler(authService *services.AuthService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{authService: authService, cfg: cfg}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if ok, err := validation.Bind(c, &req); !ok {
		return err
	}

	resp, err := h.authService.Register(&req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmailTaken):
			return c.Status(fiber.StatusConflict).JSON(dto.ErrCode("EMAIL_TAKEN", err.Error()))
		case errors.Is(err, community.ErrInvalidInviteCode):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrCode("INVALID_INVITE_CODE", "Invite code not found"))
		}
		slog.Error("register failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.Err("Internal server error"))
	}

	c.Cookie(h.authService.SessionCookie(resp.Token))
	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if ok, err := validation.Bind(c, &req); !ok {
		return err
	}

	resp, err := h.authService.Login(&req)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.Err(err.Error()))
		}
		slog.Error("login failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.Err("Internal server error"))
	}

	c.Cookie(h.authService.SessionCookie(resp.Token))
	return c.JSON(resp)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	c.Cookie(h.authService.ClearedCookie())
	return c.JSON(fiber.Map{"message": "Logged out successfully"})
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	userID, err := session.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.Err("Unauthorized"))
	}

	user, err := h.authService.Me(userID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.Err("User not found"))
		}
		slog.Error("me failed", "user_id", userID.String(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.Err("Internal server error"))
	}
	return c.JSON(user)
}

// LineLogin handles GET /auth/line/login.
func (h *AuthHandler) LineLogin(c *fiber.Ctx) error {
	return h.lineRedirect(c, services.LineModeLogin, "")
}

// LineRegister handles GET /auth/line/register?inviteCode=.
func (h *AuthHandler) LineRegister(c *fiber.Ctx) error {
	return h.lineRedirect(c, services.LineModeRegister, c.Query("inviteCode"))
}

func (h *AuthHandler) lineRedirect(c *fiber.Ctx, mode, inviteCode string) error {
	target, err := h.authService.LineAuthURL(c.UserContext(), mode, inviteCode)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrLineNotConfigured):
			return c.Status(fiber.StatusServiceUnavailable).JSON(dto.Err(err.Error()))
		case errors.Is(err, community.ErrInvalidInviteCode):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrCode("INVALID_INVITE_CODE", "Invite code not found"))
		}
		slog.Error("line auth url failed", "mode", mode, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.Err("Internal server error"))
	}
	return c.Redirect(target, fiber.StatusFound)
}

// LineCallback handles GET /auth/line/callback and always ends in a redirect
// to the frontend, with ?error= on failure.
func (h *AuthHandler) LineCallback(c *fiber.Ctx) error {
	if e := c.Query("error"); e != "" {
		return c.Redirect(h.frontendURL("/login", "error", e), fiber.StatusFound)
	}

	resp, err := h.authService.LineCallback(c.UserContext(), c.Query("code"), c.Query("state"))
	if err != nil {
		code := "line_login_failed"
		switch {
		case errors.Is(err, services.ErrInvalidState):
			code = "invalid_state"
		case errors.Is(err, services.ErrLineNotRegistered):
			code = "not_registered"
		case errors.Is(err, community.ErrInvalidInviteCode):
			code = "invalid_invite_code"
		default:
			slog.Error("line callback failed", "error", err)
		}
		return c.Redirect(h.frontendURL("/login", "error", code), fiber.StatusFound)
	}

	c.Cookie(h.authService.SessionCookie(resp.Token))
	return c.Redirect(h.frontendURL("/", "", ""), fiber.StatusFound)
}

func (h *AuthHandler) frontendURL(path, key, value string) string {
	u := strings.TrimRight(h.cfg.FrontendURL, "/") + path
	if key != "" {
		u += "?" + url.Values{key: []string{value}}.Encode()
	}
	return u
}
