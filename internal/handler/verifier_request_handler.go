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

// VerifierRequestHandler exposes the verifier application flow.
type VerifierRequestHandler struct {
	service service.VerifierRequestService
	logger  zerolog.Logger
}

// NewVerifierRequestHandler constructs a verifier request handler.
func NewVerifierRequestHandler(service service.VerifierRequestService, logger zerolog.Logger) *VerifierRequestHandler {
	return &VerifierRequestHandler{
		service: service,
		logger:  logger.With().Str("component", "verifier_request_handler").Logger(),
	}
}

// Register attaches routes to the verifier requests group. The group runs
// behind JWTOptional so applications can be filed anonymously; applyGuards
// run before the create handler.
func (h *VerifierRequestHandler) Register(router fiber.Router, applyGuards ...fiber.Handler) {
	apply := make([]fiber.Handler, 0, len(applyGuards)+1)
	apply = append(apply, applyGuards...)
	apply = append(apply, h.create)
	router.Post("", apply...)

	manage := middleware.AuthOptions{Capability: models.CapManageUsers}
	router.Get("", middleware.WithAuth(h.list, manage))
	router.Post("/:id/accept", middleware.WithAuth(h.accept, manage))
	router.Post("/:id/reject", middleware.WithAuth(h.reject, manage))
}

func (h *VerifierRequestHandler) create(c *fiber.Ctx) error {
	var payload dto.CreateVerifierRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, errInvalidBody.Error())
	}

	request, err := h.service.Create(c.UserContext(), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to file verifier request")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "verifier request received", request)
}

func (h *VerifierRequestHandler) list(c *fiber.Ctx) error {
	var status *models.VerifierRequestStatus
	if raw := c.Query("status"); raw != "" {
		value := models.VerifierRequestStatus(raw)
		status = &value
	}

	requests, err := h.service.List(c.UserContext(), actorFromContext(c), status)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list verifier requests")
	}

	return utils.OK(c, requests, "verifier requests retrieved", fiber.Map{"count": len(requests)})
}

func (h *VerifierRequestHandler) accept(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	result, err := h.service.Accept(c.UserContext(), actorFromContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err, "failed to accept verifier request")
	}

	return utils.SendSuccess(c, "verifier request accepted", result)
}

func (h *VerifierRequestHandler) reject(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	request, err := h.service.Reject(c.UserContext(), actorFromContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err, "failed to reject verifier request")
	}

	return utils.SendSuccess(c, "verifier request rejected", request)
}
