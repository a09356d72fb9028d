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

// EnrollmentHandler exposes enrollment lifecycle endpoints.
type EnrollmentHandler struct {
	service service.EnrollmentService
	logger  zerolog.Logger
}

// NewEnrollmentHandler constructs an enrollment handler.
func NewEnrollmentHandler(service service.EnrollmentService, logger zerolog.Logger) *EnrollmentHandler {
	return &EnrollmentHandler{
		service: service,
		logger:  logger.With().Str("component", "enrollment_handler").Logger(),
	}
}

// Register attaches routes to the enrollments group.
func (h *EnrollmentHandler) Register(router fiber.Router) {
	student := middleware.RequireCapability(models.CapEnroll)

	router.Get("", student, h.listMine)
	router.Get("/assigned", middleware.RequireCapability(models.CapEvaluateSubmissions), h.listAssigned)
	router.Get("/:id", h.get)
	router.Post("/:id/complete", student, h.complete)
	router.Post("/:id/finalize", middleware.RequireCapability(models.CapIssueCertificates), h.finalize)
}

// RegisterCourseRoutes attaches the enroll action under the courses group.
func (h *EnrollmentHandler) RegisterCourseRoutes(router fiber.Router) {
	router.Post("/:id/enroll", middleware.RequireCapability(models.CapEnroll), h.enroll)
}

func (h *EnrollmentHandler) enroll(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.EnrollRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, errInvalidBody.Error())
	}

	enrollment, err := h.service.Enroll(c.UserContext(), middleware.UserID(c), courseID, payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to enroll")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "enrolled", enrollment)
}

func (h *EnrollmentHandler) listMine(c *fiber.Ctx) error {
	enrollments, err := h.service.ListForStudent(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to list enrollments")
	}

	return utils.OK(c, enrollments, "enrollments retrieved", fiber.Map{"count": len(enrollments)})
}

func (h *EnrollmentHandler) listAssigned(c *fiber.Ctx) error {
	var status *models.EnrollmentStatus
	if raw := c.Query("status"); raw != "" {
		value := models.EnrollmentStatus(raw)
		status = &value
	}

	enrollments, err := h.service.ListForVerifier(c.UserContext(), actorFromContext(c), status)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list assigned enrollments")
	}

	return utils.OK(c, enrollments, "enrollments retrieved", fiber.Map{"count": len(enrollments)})
}

func (h *EnrollmentHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	enrollment, err := h.service.Get(c.UserContext(), actorFromContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err, "failed to load enrollment")
	}

	return utils.SendSuccess(c, "enrollment retrieved", enrollment)
}

func (h *EnrollmentHandler) complete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	enrollment, err := h.service.Complete(c.UserContext(), middleware.UserID(c), id)
	if err != nil {
		return respondError(c, h.logger, err, "failed to complete enrollment")
	}

	return utils.SendSuccess(c, "enrollment completed", enrollment)
}

func (h *EnrollmentHandler) finalize(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.FinalizeEnrollmentRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, errInvalidBody.Error())
	}

	result, err := h.service.Finalize(c.UserContext(), actorFromContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to finalize enrollment")
	}

	return utils.SendSuccess(c, "enrollment finalized", result)
}
