package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/certify-api/internal/dto"
	"github.com/noah-isme/certify-api/internal/models"
	"github.com/noah-isme/certify-api/internal/repository"
)

// EnrollmentService manages course enrollments from enrolling to finalization.
type EnrollmentService interface {
	Enroll(ctx context.Context, studentID, courseID uint, payload dto.EnrollRequest) (dto.EnrollmentResponse, error)
	Complete(ctx context.Context, studentID, enrollmentID uint) (dto.EnrollmentResponse, error)
	Finalize(ctx context.Context, actor Actor, enrollmentID uint, payload dto.FinalizeEnrollmentRequest) (dto.FinalizeEnrollmentResponse, error)
	ListForStudent(ctx context.Context, studentID uint) ([]dto.EnrollmentResponse, error)
	ListForVerifier(ctx context.Context, actor Actor, status *models.EnrollmentStatus) ([]dto.EnrollmentResponse, error)
	Get(ctx context.Context, actor Actor, enrollmentID uint) (dto.EnrollmentResponse, error)
}

type enrollmentService struct {
	enrollments  repository.EnrollmentRepository
	courses      repository.CourseRepository
	users        repository.UserRepository
	issued       repository.CertificateRepository
	certificates CertificateService
	validator    *validator.Validate
	logger       zerolog.Logger
	now          func() time.Time
}

// NewEnrollmentService constructs an EnrollmentService.
func NewEnrollmentService(
	enrollments repository.EnrollmentRepository,
	courses repository.CourseRepository,
	users repository.UserRepository,
	issued repository.CertificateRepository,
	certificates CertificateService,
	validate *validator.Validate,
	logger zerolog.Logger,
) EnrollmentService {
	return &enrollmentService{
		enrollments:  enrollments,
		courses:      courses,
		users:        users,
		issued:       issued,
		certificates: certificates,
		validator:    validate,
		logger:       logger.With().Str("component", "enrollment_service").Logger(),
		now:          time.Now,
	}
}

func (s *enrollmentService) Enroll(ctx context.Context, studentID, courseID uint, payload dto.EnrollRequest) (dto.EnrollmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.EnrollmentResponse{}, err
	}

	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		return dto.EnrollmentResponse{}, notFoundAs(err, ErrCourseNotFound)
	}
	if !course.IsPublished() {
		return dto.EnrollmentResponse{}, ErrCourseNotPublished
	}

	if _, err := s.enrollments.GetByStudentAndCourse(ctx, studentID, courseID); err == nil {
		return dto.EnrollmentResponse{}, ErrAlreadyEnrolled
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.EnrollmentResponse{}, err
	}

	student, err := s.users.GetByID(ctx, studentID)
	if err != nil {
		return dto.EnrollmentResponse{}, notFoundAs(err, ErrUserNotFound)
	}
	if !student.Active {
		return dto.EnrollmentResponse{}, ErrUserInactive
	}
	if !strings.EqualFold(strings.TrimSpace(payload.Email), student.Email) {
		return dto.EnrollmentResponse{}, ErrEnrollmentEmailMismatch
	}

	verifierID, err := pickVerifier(course, payload.VerifierID)
	if err != nil {
		return dto.EnrollmentResponse{}, err
	}

	now := s.now().UTC()
	enrollment := models.Enrollment{
		StudentID:  studentID,
		CourseID:   courseID,
		VerifierID: verifierID,
		Profile: models.ProfileSnapshot{
			Name:      strings.TrimSpace(payload.Name),
			Email:     student.Email,
			ClassYear: strings.TrimSpace(payload.ClassYear),
			College:   strings.TrimSpace(payload.College),
			Mobile:    strings.TrimSpace(payload.Mobile),
		},
		Status:       models.EnrollmentStatusOngoing,
		EnrolledAt:   now,
		LastAccessAt: now,
	}

	if err := s.enrollments.Create(ctx, &enrollment); err != nil {
		if isDuplicateKey(err) {
			return dto.EnrollmentResponse{}, ErrAlreadyEnrolled
		}
		return dto.EnrollmentResponse{}, err
	}
	enrollment.Course = course

	student.ClassYear = enrollment.Profile.ClassYear
	student.College = enrollment.Profile.College
	student.Mobile = enrollment.Profile.Mobile
	if err := s.users.Update(ctx, &student); err != nil {
		s.logger.Warn().Err(err).Uint("student_id", studentID).Msg("failed to refresh student profile")
	}

	s.logger.Info().
		Uint("enrollment_id", enrollment.ID).
		Uint("course_id", courseID).
		Uint("student_id", studentID).
		Msg("student enrolled")

	return dto.NewEnrollmentResponse(enrollment), nil
}

// pickVerifier requires a course verifier when the course has any; a course
// with a single verifier assigns it implicitly.
func pickVerifier(course models.Course, requested *uint) (*uint, error) {
	if len(course.Verifiers) == 0 {
		if requested != nil {
			return nil, ErrInvalidVerifier
		}
		return nil, nil
	}
	if requested == nil {
		if len(course.Verifiers) == 1 {
			id := course.Verifiers[0].ID
			return &id, nil
		}
		return nil, ErrInvalidVerifier
	}
	if !course.HasVerifier(*requested) {
		return nil, ErrInvalidVerifier
	}
	id := *requested
	return &id, nil
}

// Complete marks the student's own enrollment as completed. Completing twice is a no-op.
func (s *enrollmentService) Complete(ctx context.Context, studentID, enrollmentID uint) (dto.EnrollmentResponse, error) {
	enrollment, err := s.enrollments.GetByID(ctx, enrollmentID)
	if err != nil {
		return dto.EnrollmentResponse{}, notFoundAs(err, ErrEnrollmentNotFound)
	}
	if enrollment.StudentID != studentID {
		return dto.EnrollmentResponse{}, ErrEnrollmentAccessDenied
	}
	if enrollment.IsCompleted() {
		return dto.NewEnrollmentResponse(enrollment), nil
	}
	if enrollment.Status == models.EnrollmentStatusFailed {
		return dto.EnrollmentResponse{}, ErrEnrollmentClosed
	}
	if !enrollment.Course.IsPublished() {
		return dto.EnrollmentResponse{}, ErrCourseNotPublished
	}

	completedAt := s.now().UTC()
	enrollment.Status = models.EnrollmentStatusCompleted
	enrollment.CompletedAt = &completedAt
	enrollment.LastAccessAt = completedAt
	if err := s.enrollments.Update(ctx, &enrollment); err != nil {
		return dto.EnrollmentResponse{}, err
	}

	s.logger.Info().Uint("enrollment_id", enrollment.ID).Msg("enrollment completed")
	return dto.NewEnrollmentResponse(enrollment), nil
}

// Finalize records the verifier's decision. Passing issues the certificate.
func (s *enrollmentService) Finalize(ctx context.Context, actor Actor, enrollmentID uint, payload dto.FinalizeEnrollmentRequest) (dto.FinalizeEnrollmentResponse, error) {
	if err := actor.require(models.CapIssueCertificates); err != nil {
		return dto.FinalizeEnrollmentResponse{}, err
	}
	if err := s.validator.Struct(payload); err != nil {
		return dto.FinalizeEnrollmentResponse{}, err
	}

	enrollment, err := s.enrollments.GetByID(ctx, enrollmentID)
	if err != nil {
		return dto.FinalizeEnrollmentResponse{}, notFoundAs(err, ErrEnrollmentNotFound)
	}
	if enrollment.VerifierID == nil {
		return dto.FinalizeEnrollmentResponse{}, ErrNoVerifierAssigned
	}
	if !actor.IsAdmin() && *enrollment.VerifierID != actor.ID {
		return dto.FinalizeEnrollmentResponse{}, ErrNotAssignedVerifier
	}

	pass := *payload.Pass
	if !pass {
		if _, err := s.issued.GetByEnrollment(ctx, enrollmentID); err == nil {
			return dto.FinalizeEnrollmentResponse{}, ErrEnrollmentClosed
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.FinalizeEnrollmentResponse{}, err
		}
		enrollment.Status = models.EnrollmentStatusFailed
		enrollment.CompletedAt = nil
		if err := s.enrollments.Update(ctx, &enrollment); err != nil {
			return dto.FinalizeEnrollmentResponse{}, err
		}
		s.logger.Info().Uint("enrollment_id", enrollment.ID).Uint("verifier_id", actor.ID).Msg("enrollment failed")
		return dto.FinalizeEnrollmentResponse{Enrollment: dto.NewEnrollmentResponse(enrollment)}, nil
	}

	if err := issuancePreconditions(enrollment, payload.PracticalScore); err != nil {
		return dto.FinalizeEnrollmentResponse{}, err
	}

	// A passing decision also re-admits a failed enrollment.
	previous := enrollment
	if !enrollment.IsCompleted() {
		completedAt := s.now().UTC()
		enrollment.Status = models.EnrollmentStatusCompleted
		enrollment.CompletedAt = &completedAt
		if err := s.enrollments.Update(ctx, &enrollment); err != nil {
			return dto.FinalizeEnrollmentResponse{}, err
		}
	}

	certificate, _, err := s.certificates.Issue(ctx, actor, enrollment.ID, payload.PracticalScore)
	if err != nil {
		if previous.Status != enrollment.Status {
			if restoreErr := s.enrollments.Update(ctx, &previous); restoreErr != nil {
				s.logger.Error().Err(restoreErr).Uint("enrollment_id", enrollment.ID).Msg("failed to restore enrollment status")
			}
		}
		return dto.FinalizeEnrollmentResponse{}, err
	}

	refreshed, err := s.enrollments.GetByID(ctx, enrollment.ID)
	if err == nil {
		enrollment = refreshed
	}

	s.logger.Info().
		Uint("enrollment_id", enrollment.ID).
		Uint("verifier_id", actor.ID).
		Str("certificate_number", certificate.CertificateNumber).
		Msg("enrollment finalized")

	return dto.FinalizeEnrollmentResponse{
		Enrollment:  dto.NewEnrollmentResponse(enrollment),
		Certificate: &certificate,
	}, nil
}

func (s *enrollmentService) ListForStudent(ctx context.Context, studentID uint) ([]dto.EnrollmentResponse, error) {
	enrollments, err := s.enrollments.List(ctx, repository.EnrollmentFilter{StudentID: &studentID})
	if err != nil {
		return nil, err
	}
	return dto.NewEnrollmentResponseSlice(enrollments), nil
}

func (s *enrollmentService) ListForVerifier(ctx context.Context, actor Actor, status *models.EnrollmentStatus) ([]dto.EnrollmentResponse, error) {
	if err := actor.require(models.CapEvaluateSubmissions); err != nil {
		return nil, err
	}
	filter := repository.EnrollmentFilter{Status: status}
	if !actor.IsAdmin() {
		filter.VerifierID = &actor.ID
	}
	enrollments, err := s.enrollments.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return dto.NewEnrollmentResponseSlice(enrollments), nil
}

func (s *enrollmentService) Get(ctx context.Context, actor Actor, enrollmentID uint) (dto.EnrollmentResponse, error) {
	enrollment, err := s.enrollments.GetByID(ctx, enrollmentID)
	if err != nil {
		return dto.EnrollmentResponse{}, notFoundAs(err, ErrEnrollmentNotFound)
	}
	if actor.Role == models.RoleStudent && enrollment.StudentID != actor.ID {
		return dto.EnrollmentResponse{}, ErrEnrollmentAccessDenied
	}
	return dto.NewEnrollmentResponse(enrollment), nil
}

// issuancePreconditions rejects a passing decision that certificate issuance
// would refuse, before any enrollment state is written.
func issuancePreconditions(enrollment models.Enrollment, practicalScore *float64) error {
	if practicalScore != nil && *practicalScore < 0 {
		return ErrInvalidPracticalScore
	}
	if enrollment.Course.HasPracticalSession && practicalScore == nil && !enrollment.IsCompleted() {
		return ErrPracticalScoreRequired
	}
	return nil
}
