package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/certify-api/internal/middleware"
	"github.com/noah-isme/certify-api/internal/models"
	"github.com/noah-isme/certify-api/internal/service"
	"github.com/noah-isme/certify-api/internal/utils"
)

// ResultsHandler exposes bulk course results generation.
type ResultsHandler struct {
	service service.ScoreService
	logger  zerolog.Logger
}

// NewResultsHandler constructs a results handler.
func NewResultsHandler(service service.ScoreService, logger zerolog.Logger) *ResultsHandler {
	return &ResultsHandler{
		service: service,
		logger:  logger.With().Str("component", "results_handler").Logger(),
	}
}

// RegisterCourseRoutes attaches results routes under the courses group.
func (h *ResultsHandler) RegisterCourseRoutes(router fiber.Router) {
	guard := middleware.RequireCapability(models.CapGenerateResults)

	router.Get("/:id/results", guard, h.list)
	router.Post("/:id/results", guard, h.generate)
}

func (h *ResultsHandler) generate(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	summary, err := h.service.GenerateCourseResults(c.UserContext(), courseID)
	if err != nil {
		return respondError(c, h.logger, err, "failed to generate course results")
	}

	requestLogger(h.logger, c).Info().
		Uint("course_id", courseID).
		Int("processed", summary.Processed).
		Int("failures", len(summary.Failures)).
		Msg("course results generated")

	return utils.SendSuccess(c, "course results generated", summary)
}

func (h *ResultsHandler) list(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	results, err := h.service.CourseResults(c.UserContext(), courseID)
	if err != nil {
		return respondError(c, h.logger, err, "failed to load course results")
	}

	return utils.OK(c, results, "course results retrieved", fiber.Map{"count": len(results)})
}
