package session

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	localUser      = "user"
	localCommunity = "community_id"
)

// GetUserID extracts the user UUID from JWT claims in context.
func GetUserID(c *fiber.Ctx) (uuid.UUID, error) {
	claims, err := claimsOf(c)
	if err != nil {
		return uuid.Nil, err
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return uuid.Nil, errors.New("missing sub claim")
	}

	return uuid.Parse(sub)
}

// IsAdmin reports the is_admin claim of the current token.
func IsAdmin(c *fiber.Ctx) bool {
	claims, err := claimsOf(c)
	if err != nil {
		return false
	}
	admin, _ := claims["is_admin"].(bool)
	return admin
}

// Email returns the email claim, empty for LINE-only users.
func Email(c *fiber.Ctx) string {
	claims, err := claimsOf(c)
	if err != nil {
		return ""
	}
	email, _ := claims["email"].(string)
	return email
}

// SetCommunityID stores the caller's resolved community.
func SetCommunityID(c *fiber.Ctx, id uuid.UUID) {
	c.Locals(localCommunity, id)
}

// GetCommunityID returns the community resolved by RequireMembership.
func GetCommunityID(c *fiber.Ctx) uuid.UUID {
	if id, ok := c.Locals(localCommunity).(uuid.UUID); ok {
		return id
	}
	return uuid.Nil
}

func claimsOf(c *fiber.Ctx) (jwt.MapClaims, error) {
	token, ok := c.Locals(localUser).(*jwt.Token)
	if !ok || token == nil {
		return nil, errors.New("invalid token in context")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid claims")
	}
	return claims, nil
}
