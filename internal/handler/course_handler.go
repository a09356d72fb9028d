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

// CourseHandler exposes course catalog and structure endpoints.
type CourseHandler struct {
	service service.CourseService
	logger  zerolog.Logger
}

// NewCourseHandler constructs a course handler.
func NewCourseHandler(service service.CourseService, logger zerolog.Logger) *CourseHandler {
	return &CourseHandler{
		service: service,
		logger:  logger.With().Str("component", "course_handler").Logger(),
	}
}

// Register attaches course routes. Reads are open to every authenticated
// role; mutations need the manage_courses capability.
func (h *CourseHandler) Register(router fiber.Router) {
	manage := middleware.RequireCapability(models.CapManageCourses)

	router.Get("", h.list)
	router.Post("", manage, h.create)
	router.Post("/lessons/:lessonId/modules", manage, h.addModule)
	router.Get("/:id", h.get)
	router.Post("/:id/publish", manage, h.publish)
	router.Post("/:id/archive", manage, h.archive)
	router.Put("/:id/verifiers", manage, h.assignVerifiers)
	router.Get("/:id/lessons", h.lessons)
	router.Post("/:id/lessons", manage, h.addLesson)
}

func (h *CourseHandler) list(c *fiber.Ctx) error {
	actor := actorFromContext(c)

	var (
		courses []dto.CourseResponse
		err     error
	)
	switch actor.Role {
	case models.RoleAdmin:
		var status *models.CourseStatus
		if raw := c.Query("status"); raw != "" {
			value := models.CourseStatus(raw)
			status = &value
		}
		courses, err = h.service.List(c.UserContext(), status)
	case models.RoleVerifier:
		courses, err = h.service.ListForVerifier(c.UserContext(), actor.ID)
	default:
		published := models.CourseStatusPublished
		courses, err = h.service.List(c.UserContext(), &published)
	}
	if err != nil {
		return respondError(c, h.logger, err, "failed to list courses")
	}

	return utils.OK(c, courses, "courses retrieved", fiber.Map{"count": len(courses)})
}

func (h *CourseHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	course, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.logger, err, "failed to load course")
	}

	return utils.SendSuccess(c, "course retrieved", course)
}

func (h *CourseHandler) create(c *fiber.Ctx) error {
	var payload dto.CourseCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, errInvalidBody.Error())
	}

	course, err := h.service.Create(c.UserContext(), actorFromContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to create course")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "course created", course)
}

func (h *CourseHandler) publish(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	course, err := h.service.Publish(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.logger, err, "failed to publish course")
	}

	return utils.SendSuccess(c, "course published", course)
}

func (h *CourseHandler) archive(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	course, err := h.service.Archive(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.logger, err, "failed to archive course")
	}

	return utils.SendSuccess(c, "course archived", course)
}

func (h *CourseHandler) assignVerifiers(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.AssignVerifiersRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, errInvalidBody.Error())
	}

	course, err := h.service.AssignVerifiers(c.UserContext(), id, payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to assign verifiers")
	}

	return utils.SendSuccess(c, "verifiers assigned", course)
}

func (h *CourseHandler) lessons(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	lessons, err := h.service.ListLessons(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list lessons")
	}

	return utils.SendSuccess(c, "lessons retrieved", lessons)
}

func (h *CourseHandler) addLesson(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.LessonCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, errInvalidBody.Error())
	}

	lesson, err := h.service.AddLesson(c.UserContext(), id, payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to add lesson")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "lesson created", lesson)
}

func (h *CourseHandler) addModule(c *fiber.Ctx) error {
	lessonID, err := parseUintParam(c, "lessonId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.ModuleCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, errInvalidBody.Error())
	}

	module, err := h.service.AddModule(c.UserContext(), lessonID, payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to add module")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "module created", module)
}
