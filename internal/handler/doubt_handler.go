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

// DoubtHandler exposes the question and answer endpoints between students and verifiers.
type DoubtHandler struct {
	service service.DoubtService
	logger  zerolog.Logger
}

// NewDoubtHandler constructs a doubt handler.
func NewDoubtHandler(service service.DoubtService, logger zerolog.Logger) *DoubtHandler {
	return &DoubtHandler{
		service: service,
		logger:  logger.With().Str("component", "doubt_handler").Logger(),
	}
}

// Register attaches routes to the doubts group.
func (h *DoubtHandler) Register(router fiber.Router) {
	router.Get("", middleware.RequireCapability(models.CapAskDoubts), h.listMine)
	router.Get("/assigned", middleware.RequireCapability(models.CapAnswerDoubts), h.listAssigned)
	router.Get("/:id", h.get)
	router.Post("/:id/answers", h.answer)
	router.Post("/:id/close", h.close)
}

// RegisterCourseRoutes attaches doubt creation under the courses group.
func (h *DoubtHandler) RegisterCourseRoutes(router fiber.Router) {
	router.Post("/:id/doubts", middleware.RequireCapability(models.CapAskDoubts), h.create)
}

func (h *DoubtHandler) create(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.CreateDoubtRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, errInvalidBody.Error())
	}

	doubt, err := h.service.Create(c.UserContext(), middleware.UserID(c), courseID, payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to raise doubt")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "doubt raised", doubt)
}

func (h *DoubtHandler) listMine(c *fiber.Ctx) error {
	doubts, err := h.service.ListForStudent(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to list doubts")
	}

	return utils.OK(c, doubts, "doubts retrieved", fiber.Map{"count": len(doubts)})
}

func (h *DoubtHandler) listAssigned(c *fiber.Ctx) error {
	courseID, err := parseQueryUint(c, "course_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var status *models.DoubtStatus
	if raw := c.Query("status"); raw != "" {
		value := models.DoubtStatus(raw)
		status = &value
	}

	doubts, err := h.service.ListForVerifier(c.UserContext(), actorFromContext(c), courseID, status)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list doubts")
	}

	return utils.OK(c, doubts, "doubts retrieved", fiber.Map{"count": len(doubts)})
}

func (h *DoubtHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	doubt, err := h.service.Get(c.UserContext(), actorFromContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err, "failed to load doubt")
	}

	return utils.SendSuccess(c, "doubt retrieved", doubt)
}

func (h *DoubtHandler) answer(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.AnswerDoubtRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, errInvalidBody.Error())
	}

	doubt, err := h.service.Answer(c.UserContext(), actorFromContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to answer doubt")
	}

	return utils.SendSuccess(c, "doubt answered", doubt)
}

func (h *DoubtHandler) close(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	doubt, err := h.service.Close(c.UserContext(), actorFromContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err, "failed to close doubt")
	}

	return utils.SendSuccess(c, "doubt closed", doubt)
}
