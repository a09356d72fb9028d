package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/certify-api/internal/dto"
	"github.com/noah-isme/certify-api/internal/models"
	"github.com/noah-isme/certify-api/internal/observability"
	"github.com/noah-isme/certify-api/internal/repository"
	"github.com/noah-isme/certify-api/internal/scoring"
	apperrors "github.com/noah-isme/certify-api/pkg/errors"
)

// ScoreService aggregates evaluated submissions into enrollment scores.
type ScoreService interface {
	Preview(ctx context.Context, enrollment models.Enrollment, suppliedPractical *float64) (scoring.Scores, error)
	RecomputeEnrollment(ctx context.Context, enrollmentID uint, suppliedPractical *float64) (scoring.Scores, error)
	GenerateCourseResults(ctx context.Context, courseID uint) (dto.CourseResultsSummary, error)
	CourseResults(ctx context.Context, courseID uint) ([]dto.EnrollmentResult, error)
}

type scoreService struct {
	enrollments  repository.EnrollmentRepository
	submissions  repository.SubmissionRepository
	courses      repository.CourseRepository
	certificates repository.CertificateRepository
	logger       zerolog.Logger
	tracer       trace.Tracer
}

// NewScoreService constructs a ScoreService.
func NewScoreService(
	enrollments repository.EnrollmentRepository,
	submissions repository.SubmissionRepository,
	courses repository.CourseRepository,
	certificates repository.CertificateRepository,
	logger zerolog.Logger,
) ScoreService {
	return &scoreService{
		enrollments:  enrollments,
		submissions:  submissions,
		courses:      courses,
		certificates: certificates,
		logger:       logger.With().Str("component", "score_service").Logger(),
		tracer:       otel.Tracer("github.com/noah-isme/certify-api/internal/service/score"),
	}
}

// Preview aggregates the enrollment's evaluated submissions without persisting.
func (s *scoreService) Preview(ctx context.Context, enrollment models.Enrollment, suppliedPractical *float64) (scoring.Scores, error) {
	submissions, err := s.submissions.ListEvaluatedByEnrollment(ctx, enrollment.ID)
	if err != nil {
		return scoring.Scores{}, err
	}

	items := make([]scoring.SubmissionScore, 0, len(submissions))
	for _, submission := range submissions {
		items = append(items, scoring.SubmissionScore{
			Type:       submission.Assignment.Type,
			TotalScore: submission.TotalScore,
			MaxScore:   submission.Assignment.DerivedMaxScore(),
		})
	}

	return scoring.Aggregate(items, enrollment.Course.HasPracticalSession, suppliedPractical), nil
}

// RecomputeEnrollment re-reads evaluated submissions and overwrites the
// enrollment scores. Certified enrollments keep their frozen scores.
func (s *scoreService) RecomputeEnrollment(ctx context.Context, enrollmentID uint, suppliedPractical *float64) (scoring.Scores, error) {
	ctx, span := s.tracer.Start(ctx, "score.recompute")
	defer span.End()
	span.SetAttributes(attribute.Int("enrollment.id", int(enrollmentID)))

	enrollment, err := s.enrollments.GetByID(ctx, enrollmentID)
	if err != nil {
		span.RecordError(err)
		return scoring.Scores{}, notFoundAs(err, ErrEnrollmentNotFound)
	}

	if _, err := s.certificates.GetByEnrollment(ctx, enrollmentID); err == nil {
		span.SetAttributes(attribute.Bool("score.frozen", true))
		return scoring.Scores{
			Theory:    enrollment.TheoryScore,
			Practical: enrollment.PracticalScore,
			Final:     enrollment.FinalScore,
		}, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		span.RecordError(err)
		return scoring.Scores{}, err
	}

	scores, err := s.Preview(ctx, enrollment, suppliedPractical)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "aggregation failed")
		return scoring.Scores{}, err
	}

	if err := s.enrollments.UpdateScores(ctx, enrollmentID, repository.EnrollmentScores{
		Theory:    scores.Theory,
		Practical: scores.Practical,
		Final:     scores.Final,
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist failed")
		return scoring.Scores{}, notFoundAs(err, ErrEnrollmentNotFound)
	}

	s.logger.Debug().
		Uint("enrollment_id", enrollmentID).
		Float64("theory_score", scores.Theory).
		Float64("practical_score", scores.Practical).
		Float64("final_score", scores.Final).
		Msg("enrollment scores recomputed")

	return scores, nil
}

func (s *scoreService) GenerateCourseResults(ctx context.Context, courseID uint) (dto.CourseResultsSummary, error) {
	ctx, span := s.tracer.Start(ctx, "score.generate_course_results")
	defer span.End()
	span.SetAttributes(attribute.Int("course.id", int(courseID)))

	if _, err := s.courses.GetByID(ctx, courseID); err != nil {
		return dto.CourseResultsSummary{}, notFoundAs(err, ErrCourseNotFound)
	}

	status := models.EnrollmentStatusCompleted
	enrollments, err := s.enrollments.List(ctx, repository.EnrollmentFilter{CourseID: &courseID, Status: &status})
	if err != nil {
		span.RecordError(err)
		return dto.CourseResultsSummary{}, err
	}

	summary := dto.CourseResultsSummary{
		CourseID: courseID,
		Results:  make([]dto.EnrollmentResult, 0, len(enrollments)),
		Failures: make([]dto.ResultFailure, 0),
	}

	for _, enrollment := range enrollments {
		summary.Processed++
		scores, err := s.RecomputeEnrollment(ctx, enrollment.ID, nil)
		if err != nil {
			appErr := apperrors.FromError(err)
			summary.Failures = append(summary.Failures, dto.ResultFailure{
				EnrollmentID: enrollment.ID,
				Code:         appErr.Code,
				Message:      appErr.Message,
			})
			observability.ResultsGeneration().WithLabelValues("failed").Inc()
			s.logger.Warn().Err(err).Uint("enrollment_id", enrollment.ID).Msg("failed to recompute enrollment")
			continue
		}

		enrollment.TheoryScore = scores.Theory
		enrollment.PracticalScore = scores.Practical
		enrollment.FinalScore = scores.Final
		summary.Results = append(summary.Results, newEnrollmentResult(enrollment))
		observability.ResultsGeneration().WithLabelValues("ok").Inc()
	}

	if err := s.courses.MarkResultsGenerated(ctx, courseID); err != nil {
		span.RecordError(err)
		return summary, notFoundAs(err, ErrCourseNotFound)
	}

	span.SetAttributes(
		attribute.Int("results.processed", summary.Processed),
		attribute.Int("results.failed", len(summary.Failures)),
	)
	s.logger.Info().
		Uint("course_id", courseID).
		Int("processed", summary.Processed).
		Int("failed", len(summary.Failures)).
		Msg("course results generated")

	return summary, nil
}

func (s *scoreService) CourseResults(ctx context.Context, courseID uint) ([]dto.EnrollmentResult, error) {
	if _, err := s.courses.GetByID(ctx, courseID); err != nil {
		return nil, notFoundAs(err, ErrCourseNotFound)
	}

	enrollments, err := s.enrollments.List(ctx, repository.EnrollmentFilter{CourseID: &courseID})
	if err != nil {
		return nil, err
	}

	results := make([]dto.EnrollmentResult, 0, len(enrollments))
	for _, enrollment := range enrollments {
		results = append(results, newEnrollmentResult(enrollment))
	}
	return results, nil
}

func newEnrollmentResult(enrollment models.Enrollment) dto.EnrollmentResult {
	return dto.EnrollmentResult{
		EnrollmentID:   enrollment.ID,
		StudentID:      enrollment.StudentID,
		StudentName:    enrollment.Profile.Name,
		College:        enrollment.Profile.College,
		Status:         string(enrollment.Status),
		TheoryScore:    roundScore(enrollment.TheoryScore),
		PracticalScore: roundScore(enrollment.PracticalScore),
		FinalScore:     roundScore(enrollment.FinalScore),
		Grade:          string(scoring.GradeFor(enrollment.FinalScore)),
	}
}
