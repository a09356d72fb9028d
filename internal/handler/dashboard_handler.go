package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/certify-api/internal/middleware"
	"github.com/noah-isme/certify-api/internal/models"
	"github.com/noah-isme/certify-api/internal/service"
	"github.com/noah-isme/certify-api/internal/utils"
)

// DashboardHandler serves the student and verifier landing summaries.
type DashboardHandler struct {
	service service.DashboardService
	logger  zerolog.Logger
}

// NewDashboardHandler constructs a dashboard handler.
func NewDashboardHandler(service service.DashboardService, logger zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{
		service: service,
		logger:  logger.With().Str("component", "dashboard_handler").Logger(),
	}
}

// Register attaches routes to the dashboard group.
func (h *DashboardHandler) Register(router fiber.Router) {
	router.Get("/student", middleware.RequireRole(models.RoleStudent), h.student)
	router.Get("/verifier", middleware.RequireCapability(models.CapEvaluateSubmissions), h.verifier)
}

func (h *DashboardHandler) student(c *fiber.Ctx) error {
	result, err := h.service.Student(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to load student dashboard")
	}

	return utils.SendSuccess(c, "dashboard retrieved", result)
}

func (h *DashboardHandler) verifier(c *fiber.Ctx) error {
	result, err := h.service.Verifier(c.UserContext(), actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to load verifier overview")
	}

	return utils.SendSuccess(c, "overview retrieved", result)
}
