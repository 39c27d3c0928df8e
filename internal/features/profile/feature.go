package profile

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

func (f *Feature) Name() string { return "profile" }

func (f *Feature) RegisterRoutes(authed fiber.Router) {
	authed.Get("/profile", f.handler.GetMine)
	authed.Put("/profile", f.handler.Update)
	authed.Post("/profile/image", f.handler.UploadImage)
}

func (f *Feature) RegisterMemberRoutes(member fiber.Router) {
	member.Get("/profile/:userId", f.handler.GetMember)
}
