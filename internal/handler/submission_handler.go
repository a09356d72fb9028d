package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/certify-api/internal/dto"
	"github.com/noah-isme/certify-api/internal/middleware"
	"github.com/noah-isme/certify-api/internal/models"
	"github.com/noah-isme/certify-api/internal/service"
	"github.com/noah-isme/certify-api/internal/utils"
)

// SubmissionHandler manages the student side of submissions.
type SubmissionHandler struct {
	service service.SubmissionService
	logger  zerolog.Logger
}

// NewSubmissionHandler builds a submission handler instance.
func NewSubmissionHandler(service service.SubmissionService, logger zerolog.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		service: service,
		logger:  logger.With().Str("component", "submission_handler").Logger(),
	}
}

// Register attaches the read routes to the submissions group.
func (h *SubmissionHandler) Register(router fiber.Router) {
	student := middleware.RequireCapability(models.CapSubmitAssignments)

	router.Get("", student, h.listMine)
	router.Get("/:id", student, h.get)
}

// RegisterAssignmentRoutes attaches start and submit under the assignments
// group. Extra guards, such as a rate limiter, run before submit.
func (h *SubmissionHandler) RegisterAssignmentRoutes(router fiber.Router, submitGuards ...fiber.Handler) {
	student := middleware.RequireCapability(models.CapSubmitAssignments)

	submit := make([]fiber.Handler, 0, len(submitGuards)+2)
	submit = append(submit, student)
	submit = append(submit, submitGuards...)
	submit = append(submit, h.submit)

	router.Post("/:id/start", student, h.start)
	router.Post("/:id/submit", submit...)
}

func (h *SubmissionHandler) start(c *fiber.Ctx) error {
	assignmentID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	submission, err := h.service.Start(c.UserContext(), middleware.UserID(c), assignmentID)
	if err != nil {
		return respondError(c, h.logger, err, "failed to start assignment")
	}

	return utils.SendSuccess(c, "assignment started", submission)
}

func (h *SubmissionHandler) submit(c *fiber.Ctx) error {
	assignmentID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.SubmitAssignmentRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, errInvalidBody.Error())
	}

	submission, err := h.service.Submit(c.UserContext(), middleware.UserID(c), assignmentID, payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to submit assignment")
	}

	requestLogger(h.logger, c).Info().
		Uint("submission_id", submission.ID).
		Str("status", submission.Status).
		Bool("cheating_suspected", submission.Flags.CheatingSuspected).
		Msg("assignment submitted")

	return utils.SendSuccess(c, "assignment submitted", submission)
}

func (h *SubmissionHandler) listMine(c *fiber.Ctx) error {
	courseID, err := parseQueryUint(c, "course_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	submissions, err := h.service.ListMine(c.UserContext(), middleware.UserID(c), courseID)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list submissions")
	}

	return utils.OK(c, submissions, "submissions retrieved", fiber.Map{"count": len(submissions)})
}

func (h *SubmissionHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	submission, err := h.service.Get(c.UserContext(), middleware.UserID(c), id)
	if err != nil {
		return respondError(c, h.logger, err, "failed to load submission")
	}

	return utils.SendSuccess(c, "submission retrieved", submission)
}
