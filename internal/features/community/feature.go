package community

import (
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/config"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type Feature struct {
	handler *Handler
}

func New(db *gorm.DB, cfg *config.Config) *Feature {
	return &Feature{handler: NewHandler(NewService(db, cfg))}
}

func (f *Feature) Name() string { return "community" }

func (f *Feature) RegisterRoutes(authed fiber.Router) {
	authed.Post("/community/join", f.handler.Join)
	authed.Get("/community/status", f.handler.Status)
}

func (f *Feature) RegisterAdminRoutes(admin fiber.Router) {
	admin.Get("/members", f.handler.ListMembers)
	admin.Post("/members/:userId/approve", f.handler.Approve)
	admin.Post("/members/:userId/reject", f.handler.Reject)
	admin.Delete("/members/:userId", f.handler.Remove)
	admin.Post("/users/:userId/promote", f.handler.Promote)
}
