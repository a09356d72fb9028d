package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"

	"github.com/noah-isme/certify-api/internal/dto"
	"github.com/noah-isme/certify-api/internal/models"
	"github.com/noah-isme/certify-api/internal/repository"
)

// DoubtService lets enrolled students ask questions and verifiers answer them.
type DoubtService interface {
	Create(ctx context.Context, studentID, courseID uint, payload dto.CreateDoubtRequest) (dto.DoubtResponse, error)
	ListForStudent(ctx context.Context, studentID uint) ([]dto.DoubtResponse, error)
	ListForVerifier(ctx context.Context, actor Actor, courseID *uint, status *models.DoubtStatus) ([]dto.DoubtResponse, error)
	Get(ctx context.Context, actor Actor, id uint) (dto.DoubtResponse, error)
	Answer(ctx context.Context, actor Actor, id uint, payload dto.AnswerDoubtRequest) (dto.DoubtResponse, error)
	Close(ctx context.Context, actor Actor, id uint) (dto.DoubtResponse, error)
}

type doubtService struct {
	doubts      repository.DoubtRepository
	enrollments repository.EnrollmentRepository
	courses     repository.CourseRepository
	events      EventPublisher
	validator   *validator.Validate
	logger      zerolog.Logger
	tracer      trace.Tracer
	sanitizer   *bluemonday.Policy
	now         func() time.Time
}

// NewDoubtService constructs a DoubtService.
func NewDoubtService(
	doubts repository.DoubtRepository,
	enrollments repository.EnrollmentRepository,
	courses repository.CourseRepository,
	events EventPublisher,
	validate *validator.Validate,
	logger zerolog.Logger,
) DoubtService {
	policy := bluemonday.UGCPolicy()
	policy.AllowElements("br")

	return &doubtService{
		doubts:      doubts,
		enrollments: enrollments,
		courses:     courses,
		events:      events,
		validator:   validate,
		logger:      logger.With().Str("component", "doubt_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/certify-api/internal/service/doubt"),
		sanitizer:   policy,
		now:         time.Now,
	}
}

func (s *doubtService) Create(ctx context.Context, studentID, courseID uint, payload dto.CreateDoubtRequest) (dto.DoubtResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.DoubtResponse{}, err
	}

	message := strings.TrimSpace(s.sanitizer.Sanitize(payload.Message))
	if message == "" {
		return dto.DoubtResponse{}, ErrDoubtEmpty
	}

	ctx, span := s.tracer.Start(ctx, "doubt.create", trace.WithAttributes(
		attribute.Int64("doubt.student_id", int64(studentID)),
		attribute.Int64("doubt.course_id", int64(courseID)),
	))
	defer span.End()

	enrollment, err := s.enrollments.GetByStudentAndCourse(ctx, studentID, courseID)
	if err != nil {
		return dto.DoubtResponse{}, notFoundAs(err, ErrNotEnrolled)
	}

	if payload.ModuleID != nil {
		module, err := s.courses.GetModule(ctx, *payload.ModuleID)
		if err != nil {
			return dto.DoubtResponse{}, notFoundAs(err, ErrModuleNotFound)
		}
		if module.CourseID != courseID {
			return dto.DoubtResponse{}, ErrModuleNotInCourse
		}
	}

	attachments := make([]string, 0, len(payload.Attachments))
	for _, url := range payload.Attachments {
		if trimmed := strings.TrimSpace(url); trimmed != "" {
			attachments = append(attachments, trimmed)
		}
	}

	doubt := models.Doubt{
		CourseID:     courseID,
		ModuleID:     payload.ModuleID,
		StudentID:    studentID,
		EnrollmentID: enrollment.ID,
		VerifierID:   enrollment.VerifierID,
		Message:      message,
		Attachments:  datatypes.JSONSlice[string](attachments),
		Status:       models.DoubtStatusOpen,
	}

	if err := s.doubts.Create(ctx, &doubt); err != nil {
		span.RecordError(err)
		return dto.DoubtResponse{}, err
	}
	doubt.Course = enrollment.Course

	s.publish(ctx, SubjectDoubtRaised, doubt, 0)
	s.logger.Info().Uint("doubt_id", doubt.ID).Uint("course_id", courseID).Uint("student_id", studentID).Msg("doubt raised")

	return dto.NewDoubtResponse(doubt), nil
}

func (s *doubtService) ListForStudent(ctx context.Context, studentID uint) ([]dto.DoubtResponse, error) {
	doubts, err := s.doubts.List(ctx, repository.DoubtFilter{StudentID: &studentID})
	if err != nil {
		return nil, err
	}
	return dto.NewDoubtResponseSlice(doubts), nil
}

// ListForVerifier returns doubts routed to the verifier or raised in courses
// they verify. Admins see every doubt.
func (s *doubtService) ListForVerifier(ctx context.Context, actor Actor, courseID *uint, status *models.DoubtStatus) ([]dto.DoubtResponse, error) {
	if err := actor.require(models.CapAnswerDoubts); err != nil {
		return nil, err
	}

	filter := repository.DoubtFilter{CourseID: courseID, Status: status}
	if !actor.IsAdmin() {
		filter.VerifierID = &actor.ID
	}

	doubts, err := s.doubts.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return dto.NewDoubtResponseSlice(doubts), nil
}

func (s *doubtService) Get(ctx context.Context, actor Actor, id uint) (dto.DoubtResponse, error) {
	doubt, err := s.load(ctx, actor, id)
	if err != nil {
		return dto.DoubtResponse{}, err
	}
	return dto.NewDoubtResponse(doubt), nil
}

// Answer appends a reply. A verifier or admin reply marks the doubt answered;
// a follow-up from the asking student reopens it.
func (s *doubtService) Answer(ctx context.Context, actor Actor, id uint, payload dto.AnswerDoubtRequest) (dto.DoubtResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.DoubtResponse{}, err
	}

	message := strings.TrimSpace(s.sanitizer.Sanitize(payload.Message))
	if message == "" {
		return dto.DoubtResponse{}, ErrDoubtEmpty
	}

	ctx, span := s.tracer.Start(ctx, "doubt.answer", trace.WithAttributes(
		attribute.Int64("doubt.id", int64(id)),
		attribute.String("doubt.responder_role", actor.Role.String()),
	))
	defer span.End()

	doubt, err := s.load(ctx, actor, id)
	if err != nil {
		return dto.DoubtResponse{}, err
	}
	if doubt.Status == models.DoubtStatusClosed {
		return dto.DoubtResponse{}, ErrDoubtClosed
	}

	status := models.DoubtStatusAnswered
	if actor.ID == doubt.StudentID {
		status = models.DoubtStatusOpen
	}

	answer := models.DoubtAnswer{
		DoubtID:     doubt.ID,
		ResponderID: actor.ID,
		Message:     message,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.doubts.AddAnswer(ctx, &answer, status); err != nil {
		span.RecordError(err)
		return dto.DoubtResponse{}, notFoundAs(err, ErrDoubtNotFound)
	}

	doubt.Answers = append(doubt.Answers, answer)
	doubt.Status = status

	if status == models.DoubtStatusAnswered {
		s.publish(ctx, SubjectDoubtAnswered, doubt, actor.ID)
	}
	s.logger.Info().Uint("doubt_id", doubt.ID).Uint("responder_id", actor.ID).Str("status", string(status)).Msg("doubt answered")

	return dto.NewDoubtResponse(doubt), nil
}

func (s *doubtService) Close(ctx context.Context, actor Actor, id uint) (dto.DoubtResponse, error) {
	doubt, err := s.load(ctx, actor, id)
	if err != nil {
		return dto.DoubtResponse{}, err
	}
	if doubt.Status == models.DoubtStatusClosed {
		return dto.NewDoubtResponse(doubt), nil
	}

	if err := s.doubts.UpdateStatus(ctx, doubt.ID, models.DoubtStatusClosed); err != nil {
		return dto.DoubtResponse{}, notFoundAs(err, ErrDoubtNotFound)
	}
	doubt.Status = models.DoubtStatusClosed

	return dto.NewDoubtResponse(doubt), nil
}

// load fetches the doubt and checks that the actor takes part in it: the
// asking student, the enrollment's verifier, a verifier of the course, or an
// admin.
func (s *doubtService) load(ctx context.Context, actor Actor, id uint) (models.Doubt, error) {
	doubt, err := s.doubts.GetByID(ctx, id)
	if err != nil {
		return models.Doubt{}, notFoundAs(err, ErrDoubtNotFound)
	}

	switch {
	case actor.IsAdmin(), actor.ID == doubt.StudentID:
		return doubt, nil
	case !actor.Can(models.CapAnswerDoubts):
		return models.Doubt{}, ErrDoubtAccessDenied
	case doubt.VerifierID != nil && *doubt.VerifierID == actor.ID:
		return doubt, nil
	}

	course, err := s.courses.GetByID(ctx, doubt.CourseID)
	if err != nil {
		return models.Doubt{}, notFoundAs(err, ErrCourseNotFound)
	}
	if !course.HasVerifier(actor.ID) {
		return models.Doubt{}, ErrDoubtAccessDenied
	}
	return doubt, nil
}

func (s *doubtService) publish(ctx context.Context, subject string, doubt models.Doubt, responderID uint) {
	if s.events == nil {
		return
	}
	event := DoubtEvent{
		DoubtID:     doubt.ID,
		CourseID:    doubt.CourseID,
		StudentID:   doubt.StudentID,
		VerifierID:  doubt.VerifierID,
		ResponderID: responderID,
		Status:      string(doubt.Status),
	}
	if err := s.events.Publish(ctx, subject, event); err != nil {
		s.logger.Warn().Err(err).Str("subject", subject).Uint("doubt_id", doubt.ID).Msg("failed to publish doubt event")
	}
}
