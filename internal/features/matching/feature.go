package matching

import (
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/notify"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type Feature struct {
	handler *Handler
}

func New(db *gorm.DB, notifier notify.Notifier) *Feature {
	return &Feature{handler: NewHandler(NewService(db, notifier))}
}

func (f *Feature) Name() string { return "matching" }

func (f *Feature) RegisterRoutes(fiber.Router) {}

func (f *Feature) RegisterMemberRoutes(member fiber.Router) {
	member.Post("/likes", f.handler.SubmitLike)
	member.Get("/likes/next", f.handler.NextCandidate)
	member.Post("/super-likes", f.handler.SubmitSuperLike)
	member.Delete("/super-likes", f.handler.DeleteSuperLike)
	member.Get("/members", f.handler.ListMembers)
	member.Get("/relationships", f.handler.Relationships)

	member.Get("/matches", f.handler.ListMatches)
	member.Get("/matches/:matchId", f.handler.GetMatch)
	member.Post("/matches/:matchId/pair-meals", f.handler.CreatePairMeal)
	member.Put("/pair-meals/:pairMealId", f.handler.UpdatePairMeal)
	member.Post("/pair-meals/:pairMealId/cancel", f.handler.CancelPairMeal)
}
