package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/noah-isme/certify-api/internal/dto"
	"github.com/noah-isme/certify-api/internal/models"
	"github.com/noah-isme/certify-api/internal/repository"
)

// CourseService manages courses, their structure and verifier assignment.
type CourseService interface {
	Create(ctx context.Context, actor Actor, payload dto.CourseCreateRequest) (dto.CourseResponse, error)
	Publish(ctx context.Context, courseID uint) (dto.CourseResponse, error)
	Archive(ctx context.Context, courseID uint) (dto.CourseResponse, error)
	AssignVerifiers(ctx context.Context, courseID uint, payload dto.AssignVerifiersRequest) (dto.CourseResponse, error)
	AddLesson(ctx context.Context, courseID uint, payload dto.LessonCreateRequest) (dto.LessonResponse, error)
	AddModule(ctx context.Context, lessonID uint, payload dto.ModuleCreateRequest) (dto.ModuleResponse, error)
	ListLessons(ctx context.Context, courseID uint) ([]models.Lesson, error)
	List(ctx context.Context, status *models.CourseStatus) ([]dto.CourseResponse, error)
	ListForVerifier(ctx context.Context, verifierID uint) ([]dto.CourseResponse, error)
	Get(ctx context.Context, courseID uint) (dto.CourseResponse, error)
}

type courseService struct {
	courses   repository.CourseRepository
	users     repository.UserRepository
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
}

// NewCourseService constructs a CourseService.
func NewCourseService(courses repository.CourseRepository, users repository.UserRepository, validate *validator.Validate, logger zerolog.Logger) CourseService {
	return &courseService{
		courses:   courses,
		users:     users,
		validator: validate,
		sanitizer: bluemonday.UGCPolicy(),
		logger:    logger.With().Str("component", "course_service").Logger(),
	}
}

func (s *courseService) Create(ctx context.Context, actor Actor, payload dto.CourseCreateRequest) (dto.CourseResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CourseResponse{}, err
	}

	verifiers, err := s.loadVerifiers(ctx, payload.VerifierIDs)
	if err != nil {
		return dto.CourseResponse{}, err
	}

	course := models.Course{
		Title:               strings.TrimSpace(payload.Title),
		Code:                dto.NormalizeCourseCode(payload.Code),
		Description:         s.sanitizer.Sanitize(payload.Description),
		Category:            strings.TrimSpace(payload.Category),
		Level:               strings.TrimSpace(payload.Level),
		Status:              models.CourseStatusDraft,
		HasPracticalSession: payload.HasPracticalSession,
		StartAt:             payload.StartAt,
		EndAt:               payload.EndAt,
		CreatedBy:           actor.ID,
		Verifiers:           verifiers,
	}

	if err := s.courses.Create(ctx, &course); err != nil {
		if isDuplicateKey(err) {
			return dto.CourseResponse{}, ErrCourseCodeTaken
		}
		return dto.CourseResponse{}, err
	}

	s.logger.Info().Uint("course_id", course.ID).Str("code", course.Code).Msg("course created")
	return dto.NewCourseResponse(course), nil
}

func (s *courseService) loadVerifiers(ctx context.Context, ids []uint) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	unique := make([]uint, 0, len(ids))
	seen := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	users, err := s.users.ListByIDs(ctx, unique)
	if err != nil {
		return nil, err
	}
	if len(users) != len(unique) {
		return nil, ErrInvalidVerifier
	}
	for _, user := range users {
		if user.Role != models.RoleVerifier || !user.Active {
			return nil, ErrInvalidVerifier
		}
	}
	return users, nil
}

func (s *courseService) Publish(ctx context.Context, courseID uint) (dto.CourseResponse, error) {
	return s.transition(ctx, courseID, models.CourseStatusPublished)
}

func (s *courseService) Archive(ctx context.Context, courseID uint) (dto.CourseResponse, error) {
	return s.transition(ctx, courseID, models.CourseStatusArchived)
}

func (s *courseService) transition(ctx context.Context, courseID uint, status models.CourseStatus) (dto.CourseResponse, error) {
	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		return dto.CourseResponse{}, notFoundAs(err, ErrCourseNotFound)
	}
	if course.Status == status {
		return dto.NewCourseResponse(course), nil
	}

	course.Status = status
	if err := s.courses.Update(ctx, &course); err != nil {
		return dto.CourseResponse{}, err
	}

	s.logger.Info().Uint("course_id", course.ID).Str("status", string(status)).Msg("course status changed")
	return dto.NewCourseResponse(course), nil
}

func (s *courseService) AssignVerifiers(ctx context.Context, courseID uint, payload dto.AssignVerifiersRequest) (dto.CourseResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CourseResponse{}, err
	}

	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		return dto.CourseResponse{}, notFoundAs(err, ErrCourseNotFound)
	}

	verifiers, err := s.loadVerifiers(ctx, payload.VerifierIDs)
	if err != nil {
		return dto.CourseResponse{}, err
	}

	if err := s.courses.ReplaceVerifiers(ctx, &course, verifiers); err != nil {
		return dto.CourseResponse{}, err
	}
	course.Verifiers = verifiers

	s.logger.Info().Uint("course_id", course.ID).Int("verifiers", len(verifiers)).Msg("course verifiers replaced")
	return dto.NewCourseResponse(course), nil
}

func (s *courseService) AddLesson(ctx context.Context, courseID uint, payload dto.LessonCreateRequest) (dto.LessonResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.LessonResponse{}, err
	}
	if _, err := s.courses.GetByID(ctx, courseID); err != nil {
		return dto.LessonResponse{}, notFoundAs(err, ErrCourseNotFound)
	}

	lesson := models.Lesson{
		CourseID: courseID,
		Title:    strings.TrimSpace(payload.Title),
		Position: payload.Position,
	}
	if err := s.courses.CreateLesson(ctx, &lesson); err != nil {
		return dto.LessonResponse{}, err
	}

	return dto.LessonResponse{ID: lesson.ID, CourseID: lesson.CourseID, Title: lesson.Title, Position: lesson.Position}, nil
}

func (s *courseService) AddModule(ctx context.Context, lessonID uint, payload dto.ModuleCreateRequest) (dto.ModuleResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ModuleResponse{}, err
	}

	lesson, err := s.courses.GetLesson(ctx, lessonID)
	if err != nil {
		return dto.ModuleResponse{}, notFoundAs(err, ErrLessonNotFound)
	}

	module := models.Module{
		LessonID: lesson.ID,
		CourseID: lesson.CourseID,
		Title:    strings.TrimSpace(payload.Title),
		Content:  s.sanitizer.Sanitize(payload.Content),
		Position: payload.Position,
	}
	if err := s.courses.CreateModule(ctx, &module); err != nil {
		return dto.ModuleResponse{}, err
	}

	return dto.ModuleResponse{
		ID:       module.ID,
		LessonID: module.LessonID,
		CourseID: module.CourseID,
		Title:    module.Title,
		Content:  module.Content,
		Position: module.Position,
	}, nil
}

func (s *courseService) ListLessons(ctx context.Context, courseID uint) ([]models.Lesson, error) {
	if _, err := s.courses.GetByID(ctx, courseID); err != nil {
		return nil, notFoundAs(err, ErrCourseNotFound)
	}
	return s.courses.ListLessons(ctx, courseID)
}

func (s *courseService) List(ctx context.Context, status *models.CourseStatus) ([]dto.CourseResponse, error) {
	courses, err := s.courses.List(ctx, status)
	if err != nil {
		return nil, err
	}
	return dto.NewCourseResponseSlice(courses), nil
}

func (s *courseService) ListForVerifier(ctx context.Context, verifierID uint) ([]dto.CourseResponse, error) {
	courses, err := s.courses.ListForVerifier(ctx, verifierID)
	if err != nil {
		return nil, err
	}
	return dto.NewCourseResponseSlice(courses), nil
}

func (s *courseService) Get(ctx context.Context, courseID uint) (dto.CourseResponse, error) {
	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		return dto.CourseResponse{}, notFoundAs(err, ErrCourseNotFound)
	}
	return dto.NewCourseResponse(course), nil
}
