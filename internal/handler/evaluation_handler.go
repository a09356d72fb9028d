package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/certify-api/internal/dto"
	"github.com/noah-isme/certify-api/internal/middleware"
	"github.com/noah-isme/certify-api/internal/models"
	"github.com/noah-isme/certify-api/internal/service"
	"github.com/noah-isme/certify-api/internal/utils"
)

// EvaluationHandler exposes verifier grading endpoints.
type EvaluationHandler struct {
	service service.EvaluationService
	logger  zerolog.Logger
}

// NewEvaluationHandler constructs an evaluation handler.
func NewEvaluationHandler(service service.EvaluationService, logger zerolog.Logger) *EvaluationHandler {
	return &EvaluationHandler{
		service: service,
		logger:  logger.With().Str("component", "evaluation_handler").Logger(),
	}
}

// Register attaches evaluation routes under the submissions group.
func (h *EvaluationHandler) Register(router fiber.Router) {
	evaluate := middleware.RequireCapability(models.CapEvaluateSubmissions)

	router.Post("/:id/evaluate/theory", evaluate, h.evaluateTheory)
	router.Post("/:id/evaluate/practical", evaluate, h.evaluatePractical)
}

// RegisterCourseRoutes attaches the per-course submission listing.
func (h *EvaluationHandler) RegisterCourseRoutes(router fiber.Router) {
	router.Get("/:id/submissions", middleware.RequireCapability(models.CapEvaluateSubmissions), h.listCourseSubmissions)
}

func (h *EvaluationHandler) evaluateTheory(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.TheoryEvaluationRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, errInvalidBody.Error())
	}

	submission, err := h.service.EvaluateTheory(c.UserContext(), actorFromContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to evaluate theory submission")
	}

	return utils.SendSuccess(c, "submission evaluated", submission)
}

func (h *EvaluationHandler) evaluatePractical(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.PracticalEvaluationRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, errInvalidBody.Error())
	}

	submission, err := h.service.EvaluatePractical(c.UserContext(), actorFromContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to evaluate practical submission")
	}

	return utils.SendSuccess(c, "submission evaluated", submission)
}

func (h *EvaluationHandler) listCourseSubmissions(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	filter := dto.SubmissionFilter{}
	if status := strings.TrimSpace(c.Query("status")); status != "" {
		filter.Status = &status
	}
	if filter.ModuleID, err = parseQueryUint(c, "module_id"); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	if filter.StudentID, err = parseQueryUint(c, "student_id"); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	submissions, err := h.service.ListCourseSubmissions(c.UserContext(), actorFromContext(c), courseID, filter)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list course submissions")
	}

	return utils.OK(c, submissions, "submissions retrieved", fiber.Map{"count": len(submissions)})
}
