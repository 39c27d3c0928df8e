package groupmeal

import (
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/notify"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type Feature struct {
	service *Service
	handler *Handler
}

func New(db *gorm.DB, notifier notify.Notifier) *Feature {
	svc := NewService(db, notifier)
	return &Feature{service: svc, handler: NewHandler(svc)}
}

func (f *Feature) Name() string { return "groupmeal" }

// Service is shared with the webhook and cron handlers.
func (f *Feature) Service() *Service { return f.service }

func (f *Feature) RegisterRoutes(fiber.Router) {}

func (f *Feature) RegisterMemberRoutes(member fiber.Router) {
	g := member.Group("/group-meals")
	g.Post("/", f.handler.Create)
	g.Get("/", f.handler.List)
	g.Get("/candidates", f.handler.Candidates)
	g.Get("/:mealId", f.handler.Get)
	g.Delete("/:mealId", f.handler.Delete)
	g.Post("/:mealId/close", f.handler.Close)
	g.Get("/:mealId/candidates", f.handler.MealCandidates)
	g.Post("/:mealId/invite", f.handler.Invite)
	g.Post("/:mealId/respond", f.handler.Respond)
	g.Post("/:mealId/join", f.handler.Join)
	g.Post("/:mealId/leave", f.handler.Leave)
	g.Post("/:mealId/attendance", f.handler.Attendance)
	g.Get("/:mealId/messages", f.handler.ListMessages)
	g.Post("/:mealId/messages", f.handler.PostMessage)
}

func (f *Feature) RegisterAdminRoutes(admin fiber.Router) {
	admin.Post("/group-meals/auto-group", f.handler.AutoGroup)
}
