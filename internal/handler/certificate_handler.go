package handler

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/certify-api/internal/dto"
	"github.com/noah-isme/certify-api/internal/middleware"
	"github.com/noah-isme/certify-api/internal/models"
	"github.com/noah-isme/certify-api/internal/service"
	"github.com/noah-isme/certify-api/internal/utils"
)

// CertificateHandler exposes certificate issuance, retrieval and the public
// verification endpoint.
type CertificateHandler struct {
	service   service.CertificateService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewCertificateHandler constructs a certificate handler.
func NewCertificateHandler(service service.CertificateService, validate *validator.Validate, logger zerolog.Logger) *CertificateHandler {
	return &CertificateHandler{
		service:   service,
		validator: validate,
		logger:    logger.With().Str("component", "certificate_handler").Logger(),
	}
}

// Register attaches routes to the certificates group. The group is expected
// to run behind JWTOptional: verification stays anonymous, everything else
// is guarded per route. verifyGuards run before the verify handler.
func (h *CertificateHandler) Register(router fiber.Router, verifyGuards ...fiber.Handler) {
	verify := make([]fiber.Handler, 0, len(verifyGuards)+1)
	verify = append(verify, verifyGuards...)
	verify = append(verify, h.verify)
	router.Get("/verify/:hash", verify...)

	router.Get("", middleware.WithAuth(h.listMine, middleware.AuthOptions{Roles: []models.Role{models.RoleStudent}}))
	router.Get("/:id", middleware.WithAuth(h.get, middleware.AuthOptions{Capability: models.CapViewCertificates}))
	router.Get("/:id/download", middleware.WithAuth(h.download, middleware.AuthOptions{Capability: models.CapViewCertificates}))
	router.Post("/:id/revoke", middleware.WithAuth(h.revoke, middleware.AuthOptions{Capability: models.CapRevokeCertificates}))
}

// RegisterEnrollmentRoutes attaches direct issuance under the enrollments group.
func (h *CertificateHandler) RegisterEnrollmentRoutes(router fiber.Router) {
	router.Post("/:id/certificate", middleware.RequireCapability(models.CapIssueCertificates), h.issue)
}

func (h *CertificateHandler) verify(c *fiber.Ctx) error {
	hash := strings.TrimSpace(c.Params("hash"))
	if hash == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "verification hash is required")
	}

	result, err := h.service.Verify(c.UserContext(), hash)
	if err != nil {
		return respondError(c, h.logger, err, "certificate verification failed")
	}

	return c.Status(fiber.StatusOK).JSON(result)
}

func (h *CertificateHandler) issue(c *fiber.Ctx) error {
	enrollmentID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.IssueCertificateRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&payload); err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, errInvalidBody.Error())
		}
	}

	certificate, created, err := h.service.Issue(c.UserContext(), actorFromContext(c), enrollmentID, payload.PracticalScore)
	if err != nil {
		return respondError(c, h.logger, err, "failed to issue certificate")
	}

	if !created {
		return utils.SendSuccess(c, "certificate already issued", certificate)
	}

	requestLogger(h.logger, c).Info().
		Uint("enrollment_id", enrollmentID).
		Str("certificate_number", certificate.CertificateNumber).
		Msg("certificate issued")

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "certificate issued", certificate)
}

func (h *CertificateHandler) listMine(c *fiber.Ctx) error {
	certificates, err := h.service.ListForStudent(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to list certificates")
	}

	return utils.OK(c, certificates, "certificates retrieved", fiber.Map{"count": len(certificates)})
}

func (h *CertificateHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	certificate, err := h.service.Get(c.UserContext(), actorFromContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err, "failed to load certificate")
	}

	return utils.SendSuccess(c, "certificate retrieved", certificate)
}

func (h *CertificateHandler) download(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	url, err := h.service.DownloadURL(c.UserContext(), actorFromContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err, "failed to resolve certificate download")
	}

	return c.Redirect(url, fiber.StatusFound)
}

func (h *CertificateHandler) revoke(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.RevokeCertificateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, errInvalidBody.Error())
	}
	if err := h.validator.Struct(payload); err != nil {
		return respondError(c, h.logger, err, "invalid revocation payload")
	}

	certificate, err := h.service.Revoke(c.UserContext(), actorFromContext(c), id, payload.Reason)
	if err != nil {
		return respondError(c, h.logger, err, "failed to revoke certificate")
	}

	requestLogger(h.logger, c).Info().
		Uint("certificate_id", id).
		Str("certificate_number", certificate.CertificateNumber).
		Msg("certificate revoked")

	return utils.SendSuccess(c, "certificate revoked", certificate)
}
