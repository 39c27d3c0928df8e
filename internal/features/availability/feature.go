package availability

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type Feature struct {
	service *Service
	handler *Handler
}

func New(db *gorm.DB) *Feature {
	svc := NewService(db)
	return &Feature{service: svc, handler: NewHandler(svc)}
}

func (f *Feature) Service() *Service { return f.service }

func (f *Feature) Name() string { return "availability" }

func (f *Feature) RegisterRoutes(authed fiber.Router) {
	authed.Get("/availability", f.handler.Get)
	authed.Put("/availability", f.handler.Put)
}

func (f *Feature) RegisterMemberRoutes(member fiber.Router) {
	member.Get("/availability/pair/:userId", f.handler.Pair)
	member.Get("/availability/overlap/:userId", f.handler.Overlap)
}
