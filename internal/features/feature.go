package features

import "github.com/gofiber/fiber/v2"

// Feature defines the interface every API area must implement.
type Feature interface {
	// Name identifies the feature in logs.
	Name() string

	// RegisterRoutes mounts routes on a group with JWT applied.
	RegisterRoutes(authed fiber.Router)
}

// MemberFeature extends Feature with routes that need an approved community
// membership. The member group carries the resolved community id.
type MemberFeature interface {
	Feature

	// RegisterMemberRoutes is called after every feature's RegisterRoutes,
	// since the membership middleware applies to all routes mounted after it.
	RegisterMemberRoutes(member fiber.Router)
}

// AdminFeature extends Feature with admin-only routes.
type AdminFeature interface {
	Feature

	// RegisterAdminRoutes mounts routes on a group with the admin check applied.
	RegisterAdminRoutes(admin fiber.Router)
}
