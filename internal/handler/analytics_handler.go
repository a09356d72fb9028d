package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/certify-api/internal/middleware"
	"github.com/noah-isme/certify-api/internal/models"
	"github.com/noah-isme/certify-api/internal/service"
	"github.com/noah-isme/certify-api/internal/utils"
)

// AnalyticsHandler serves admin analytics endpoints.
type AnalyticsHandler struct {
	service service.AnalyticsService
	logger  zerolog.Logger
}

// NewAnalyticsHandler constructs an analytics handler.
func NewAnalyticsHandler(service service.AnalyticsService, logger zerolog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		service: service,
		logger:  logger.With().Str("component", "analytics_handler").Logger(),
	}
}

// Register attaches routes to the analytics group.
func (h *AnalyticsHandler) Register(router fiber.Router) {
	guard := middleware.RequireCapability(models.CapViewAnalytics)
	router.Get("/overview", guard, h.overview)
	router.Get("/courses", guard, h.courses)
	router.Get("/colleges", guard, h.colleges)
}

func (h *AnalyticsHandler) overview(c *fiber.Ctx) error {
	result, err := h.service.Overview(c.UserContext())
	if err != nil {
		return respondError(c, h.logger, err, "failed to load analytics overview")
	}

	return utils.SendSuccess(c, "analytics overview retrieved", result)
}

func (h *AnalyticsHandler) courses(c *fiber.Ctx) error {
	result, err := h.service.Courses(c.UserContext())
	if err != nil {
		return respondError(c, h.logger, err, "failed to load course analytics")
	}

	return utils.OK(c, result.Items, "course analytics retrieved", fiber.Map{"count": len(result.Items), "cache_hit": result.CacheHit})
}

func (h *AnalyticsHandler) colleges(c *fiber.Ctx) error {
	result, err := h.service.Colleges(c.UserContext())
	if err != nil {
		return respondError(c, h.logger, err, "failed to load college analytics")
	}

	return utils.OK(c, result.Items, "college analytics retrieved", fiber.Map{"count": len(result.Items), "cache_hit": result.CacheHit})
}
