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
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/certify-api/internal/dto"
	"github.com/noah-isme/certify-api/internal/models"
	"github.com/noah-isme/certify-api/internal/observability"
	"github.com/noah-isme/certify-api/internal/repository"
	"github.com/noah-isme/certify-api/internal/scoring"
)

// EvaluationService lets verifiers grade, reject and re-admit submissions.
type EvaluationService interface {
	EvaluateTheory(ctx context.Context, actor Actor, submissionID uint, payload dto.TheoryEvaluationRequest) (dto.SubmissionResponse, error)
	EvaluatePractical(ctx context.Context, actor Actor, submissionID uint, payload dto.PracticalEvaluationRequest) (dto.SubmissionResponse, error)
	ListCourseSubmissions(ctx context.Context, actor Actor, courseID uint, filter dto.SubmissionFilter) ([]dto.SubmissionResponse, error)
}

type evaluationService struct {
	submissions repository.SubmissionRepository
	enrollments repository.EnrollmentRepository
	courses     repository.CourseRepository
	scores      ScoreService
	events      EventPublisher
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewEvaluationService constructs an EvaluationService.
func NewEvaluationService(
	submissions repository.SubmissionRepository,
	enrollments repository.EnrollmentRepository,
	courses repository.CourseRepository,
	scores ScoreService,
	events EventPublisher,
	validate *validator.Validate,
	logger zerolog.Logger,
) EvaluationService {
	if events == nil {
		events = NewLogPublisher(logger)
	}
	return &evaluationService{
		submissions: submissions,
		enrollments: enrollments,
		courses:     courses,
		scores:      scores,
		events:      events,
		validator:   validate,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "evaluation_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/certify-api/internal/service/evaluation"),
		now:         time.Now,
	}
}

func (s *evaluationService) EvaluateTheory(ctx context.Context, actor Actor, submissionID uint, payload dto.TheoryEvaluationRequest) (dto.SubmissionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "evaluation.theory")
	defer span.End()
	span.SetAttributes(attribute.Int("submission.id", int(submissionID)))

	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	submission, err := s.loadForEvaluation(ctx, actor, submissionID, models.AssignmentTypeTheory)
	if err != nil {
		span.RecordError(err)
		return dto.SubmissionResponse{}, err
	}

	if payload.Reject {
		submission.Status = models.SubmissionStatusRejected
		submission.RejectionReason = strings.TrimSpace(s.sanitizer.Sanitize(payload.RejectionReason))
		submission.TotalScore = submission.AutoScore + submission.ManualScore
	} else {
		if payload.AutoScoreOverride != nil {
			if err := checkMax(submission.Assignment, *payload.AutoScoreOverride); err != nil {
				return dto.SubmissionResponse{}, err
			}
			submission.AutoScore = *payload.AutoScoreOverride
		}
		if err := scoring.ApplyManualScore(&submission, submission.ManualScore, payload.Override); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "manual score rejected")
			return dto.SubmissionResponse{}, err
		}
	}

	return s.persist(ctx, actor, submission)
}

func (s *evaluationService) EvaluatePractical(ctx context.Context, actor Actor, submissionID uint, payload dto.PracticalEvaluationRequest) (dto.SubmissionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "evaluation.practical")
	defer span.End()
	span.SetAttributes(attribute.Int("submission.id", int(submissionID)))

	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	submission, err := s.loadForEvaluation(ctx, actor, submissionID, models.AssignmentTypePractical)
	if err != nil {
		span.RecordError(err)
		return dto.SubmissionResponse{}, err
	}

	if err := checkMax(submission.Assignment, submission.AutoScore+payload.ManualScore); err != nil {
		return dto.SubmissionResponse{}, err
	}
	if err := scoring.ApplyManualScore(&submission, payload.ManualScore, payload.Override); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "manual score rejected")
		return dto.SubmissionResponse{}, err
	}

	return s.persist(ctx, actor, submission)
}

func (s *evaluationService) loadForEvaluation(ctx context.Context, actor Actor, submissionID uint, expected models.AssignmentType) (models.Submission, error) {
	if err := actor.require(models.CapEvaluateSubmissions); err != nil {
		return models.Submission{}, err
	}

	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		return models.Submission{}, notFoundAs(err, ErrSubmissionNotFound)
	}
	if err := s.authorize(ctx, actor, submission.EnrollmentID, submission.CourseID); err != nil {
		return models.Submission{}, err
	}
	if !submission.IsSubmitted() {
		return models.Submission{}, ErrNotSubmitted
	}
	if submission.Assignment.Type != expected {
		return models.Submission{}, ErrAssignmentTypeMismatch
	}
	return submission, nil
}

// authorize admits admins, the enrollment's verifier, or any course verifier
// when the enrollment has none yet.
func (s *evaluationService) authorize(ctx context.Context, actor Actor, enrollmentID, courseID uint) error {
	if actor.IsAdmin() {
		return nil
	}

	enrollment, err := s.enrollments.GetByID(ctx, enrollmentID)
	if err != nil {
		return notFoundAs(err, ErrEnrollmentNotFound)
	}
	if enrollment.VerifierID != nil {
		if *enrollment.VerifierID == actor.ID {
			return nil
		}
		return ErrNotAssignedVerifier
	}

	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		return notFoundAs(err, ErrCourseNotFound)
	}
	if !course.HasVerifier(actor.ID) {
		return ErrNotAssignedVerifier
	}
	return nil
}

func (s *evaluationService) persist(ctx context.Context, actor Actor, submission models.Submission) (dto.SubmissionResponse, error) {
	evaluatedAt := s.now().UTC()
	evaluator := actor.ID
	submission.EvaluatedBy = &evaluator
	submission.EvaluatedAt = &evaluatedAt

	if err := s.submissions.Update(ctx, &submission); err != nil {
		return dto.SubmissionResponse{}, err
	}

	observability.SubmissionsEvaluated().WithLabelValues(string(submission.Status)).Inc()
	s.logger.Info().
		Uint("submission_id", submission.ID).
		Uint("evaluated_by", actor.ID).
		Str("status", string(submission.Status)).
		Float64("total_score", submission.TotalScore).
		Msg("submission evaluated")

	if _, err := s.scores.RecomputeEnrollment(ctx, submission.EnrollmentID, nil); err != nil {
		s.logger.Warn().Err(err).Uint("enrollment_id", submission.EnrollmentID).Msg("failed to recompute enrollment scores")
	}
	publishEvaluated(ctx, s.events, s.logger, submission)

	return dto.NewSubmissionResponse(submission), nil
}

func (s *evaluationService) ListCourseSubmissions(ctx context.Context, actor Actor, courseID uint, filter dto.SubmissionFilter) ([]dto.SubmissionResponse, error) {
	if err := actor.require(models.CapEvaluateSubmissions); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(filter); err != nil {
		return nil, err
	}

	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		return nil, notFoundAs(err, ErrCourseNotFound)
	}
	if !actor.IsAdmin() && !course.HasVerifier(actor.ID) {
		return nil, ErrNotAssignedVerifier
	}

	repoFilter := repository.SubmissionFilter{
		CourseID:  &courseID,
		ModuleID:  filter.ModuleID,
		StudentID: filter.StudentID,
	}
	if filter.Status != nil {
		status := models.SubmissionStatus(strings.ToLower(*filter.Status))
		repoFilter.Status = &status
	}

	submissions, err := s.submissions.List(ctx, repoFilter)
	if err != nil {
		return nil, err
	}
	return dto.NewSubmissionResponseSlice(submissions), nil
}

func checkMax(assignment models.Assignment, score float64) error {
	max := assignment.DerivedMaxScore()
	if max > 0 && score > max {
		return ErrScoreExceedsMax
	}
	return nil
}
