package service

import (
	"context"
	"errors"
	"html"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/certify-api/internal/dto"
	"github.com/noah-isme/certify-api/internal/models"
	"github.com/noah-isme/certify-api/internal/observability"
	"github.com/noah-isme/certify-api/internal/repository"
	"github.com/noah-isme/certify-api/internal/scoring"
)

// SubmissionService runs the student side of assignment attempts.
type SubmissionService interface {
	Start(ctx context.Context, studentID, assignmentID uint) (dto.SubmissionResponse, error)
	Submit(ctx context.Context, studentID, assignmentID uint, payload dto.SubmitAssignmentRequest) (dto.SubmissionResponse, error)
	Get(ctx context.Context, studentID, submissionID uint) (dto.SubmissionResponse, error)
	ListMine(ctx context.Context, studentID uint, courseID *uint) ([]dto.SubmissionResponse, error)
}

type submissionService struct {
	submissions repository.SubmissionRepository
	assignments repository.AssignmentRepository
	enrollments repository.EnrollmentRepository
	courses     repository.CourseRepository
	scores      ScoreService
	events      EventPublisher
	engine      scoring.Engine
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewSubmissionService constructs a SubmissionService instance.
func NewSubmissionService(
	submissions repository.SubmissionRepository,
	assignments repository.AssignmentRepository,
	enrollments repository.EnrollmentRepository,
	courses repository.CourseRepository,
	scores ScoreService,
	events EventPublisher,
	validate *validator.Validate,
	logger zerolog.Logger,
) SubmissionService {
	if events == nil {
		events = NewLogPublisher(logger)
	}
	return &submissionService{
		submissions: submissions,
		assignments: assignments,
		enrollments: enrollments,
		courses:     courses,
		scores:      scores,
		events:      events,
		engine:      scoring.NewEngine(scoring.SubstringMatcher),
		validator:   validate,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "submission_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/certify-api/internal/service/submission"),
		now:         time.Now,
	}
}

// Start opens the attempt clock. Calling it again returns the existing attempt.
func (s *submissionService) Start(ctx context.Context, studentID, assignmentID uint) (dto.SubmissionResponse, error) {
	submission, err := s.start(ctx, studentID, assignmentID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}
	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) start(ctx context.Context, studentID, assignmentID uint) (models.Submission, error) {
	assignment, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		return models.Submission{}, notFoundAs(err, ErrAssignmentNotFound)
	}

	existing, err := s.submissions.GetByAssignmentAndStudent(ctx, assignmentID, studentID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Submission{}, err
	}

	enrollment, err := s.activeEnrollment(ctx, studentID, assignment.CourseID)
	if err != nil {
		return models.Submission{}, err
	}

	submission := models.Submission{
		AssignmentID: assignment.ID,
		StudentID:    studentID,
		CourseID:     assignment.CourseID,
		ModuleID:     assignment.ModuleID,
		EnrollmentID: enrollment.ID,
		StartedAt:    s.now().UTC(),
		Status:       models.SubmissionStatusPending,
	}
	if err := s.submissions.Create(ctx, &submission); err != nil {
		if isDuplicateKey(err) {
			return s.submissions.GetByAssignmentAndStudent(ctx, assignmentID, studentID)
		}
		return models.Submission{}, err
	}
	submission.Assignment = assignment

	s.logger.Info().
		Uint("submission_id", submission.ID).
		Uint("assignment_id", assignmentID).
		Uint("student_id", studentID).
		Msg("submission started")

	return submission, nil
}

func (s *submissionService) activeEnrollment(ctx context.Context, studentID, courseID uint) (models.Enrollment, error) {
	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		return models.Enrollment{}, notFoundAs(err, ErrCourseNotFound)
	}
	if !course.IsPublished() {
		return models.Enrollment{}, ErrCourseNotPublished
	}

	enrollment, err := s.enrollments.GetByStudentAndCourse(ctx, studentID, courseID)
	if err != nil {
		return models.Enrollment{}, notFoundAs(err, ErrNotEnrolled)
	}
	if enrollment.Status != models.EnrollmentStatusOngoing && enrollment.Status != models.EnrollmentStatusRetake {
		return models.Enrollment{}, ErrEnrollmentClosed
	}
	return enrollment, nil
}

// Submit hands in answers for a started attempt and grades them against the
// assignment. Elapsed time runs from the attempt's StartedAt.
func (s *submissionService) Submit(ctx context.Context, studentID, assignmentID uint, payload dto.SubmitAssignmentRequest) (dto.SubmissionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "submission.submit")
	defer span.End()
	span.SetAttributes(
		attribute.Int("assignment.id", int(assignmentID)),
		attribute.Int("student.id", int(studentID)),
	)

	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	assignment, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		return dto.SubmissionResponse{}, notFoundAs(err, ErrAssignmentNotFound)
	}
	if _, err := s.activeEnrollment(ctx, studentID, assignment.CourseID); err != nil {
		return dto.SubmissionResponse{}, err
	}

	// The attempt clock only exists once Start has run.
	submission, err := s.submissions.GetByAssignmentAndStudent(ctx, assignmentID, studentID)
	if err != nil {
		span.RecordError(err)
		return dto.SubmissionResponse{}, notFoundAs(err, ErrSubmissionNotStarted)
	}
	if submission.IsSubmitted() {
		return dto.SubmissionResponse{}, ErrAlreadySubmitted
	}
	submission.Assignment = assignment

	answers := s.normalizeAnswers(assignment, payload.Answers)
	submittedAt := s.now().UTC()
	elapsed := submittedAt.Sub(submission.StartedAt).Minutes()
	if elapsed < 0 {
		elapsed = 0
	}

	evaluation := s.engine.Evaluate(assignment, answers, payload.TabSwitchCount, elapsed, submission.ManualScore)

	submission.Answers = answers
	submission.SubmittedAt = &submittedAt
	submission.AutoScore = evaluation.AutoScore
	submission.TotalScore = evaluation.TotalScore
	submission.Flags = evaluation.Flags
	submission.Status = evaluation.Status
	if assignment.Type == models.AssignmentTypePractical && evaluation.Status == models.SubmissionStatusEvaluated {
		submission.Status = models.SubmissionStatusPending
	}
	if submission.Status == models.SubmissionStatusRejected {
		submission.RejectionReason = "anti-cheat thresholds exceeded"
	}

	if err := s.submissions.Update(ctx, &submission); err != nil {
		span.RecordError(err)
		return dto.SubmissionResponse{}, err
	}

	span.SetAttributes(
		attribute.String("submission.status", string(submission.Status)),
		attribute.Float64("submission.auto_score", submission.AutoScore),
		attribute.Bool("submission.cheating_suspected", submission.Flags.CheatingSuspected),
	)
	observability.SubmissionsEvaluated().WithLabelValues(string(submission.Status)).Inc()

	s.logger.Info().
		Uint("submission_id", submission.ID).
		Str("status", string(submission.Status)).
		Float64("auto_score", submission.AutoScore).
		Bool("cheating_suspected", submission.Flags.CheatingSuspected).
		Msg("submission handed in")

	if submission.Status == models.SubmissionStatusEvaluated {
		if _, err := s.scores.RecomputeEnrollment(ctx, submission.EnrollmentID, nil); err != nil {
			s.logger.Warn().Err(err).Uint("enrollment_id", submission.EnrollmentID).Msg("failed to recompute enrollment scores")
		}
	}
	if submission.Status != models.SubmissionStatusPending {
		publishEvaluated(ctx, s.events, s.logger, submission)
	}

	return dto.NewSubmissionResponse(submission), nil
}

// normalizeAnswers strips markup from short answers and leaves code untouched.
func (s *submissionService) normalizeAnswers(assignment models.Assignment, payload []dto.AnswerRequest) []models.Answer {
	answers := make([]models.Answer, 0, len(payload))
	for _, item := range payload {
		answer := models.Answer{
			QuestionID:          strings.TrimSpace(item.QuestionID),
			SelectedOptionIndex: item.SelectedOptionIndex,
			AnswerText:          item.AnswerText,
			CodeURL:             strings.TrimSpace(item.CodeURL),
		}
		if question, ok := assignment.Question(answer.QuestionID); ok && question.Type == models.QuestionTypeShort {
			answer.AnswerText = html.UnescapeString(s.sanitizer.Sanitize(item.AnswerText))
		}
		answers = append(answers, answer)
	}
	return answers
}

func (s *submissionService) Get(ctx context.Context, studentID, submissionID uint) (dto.SubmissionResponse, error) {
	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		return dto.SubmissionResponse{}, notFoundAs(err, ErrSubmissionNotFound)
	}
	if submission.StudentID != studentID {
		return dto.SubmissionResponse{}, ErrNotSubmissionOwner
	}
	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) ListMine(ctx context.Context, studentID uint, courseID *uint) ([]dto.SubmissionResponse, error) {
	submissions, err := s.submissions.List(ctx, repository.SubmissionFilter{StudentID: &studentID, CourseID: courseID})
	if err != nil {
		return nil, err
	}
	return dto.NewSubmissionResponseSlice(submissions), nil
}

func publishEvaluated(ctx context.Context, events EventPublisher, logger zerolog.Logger, submission models.Submission) {
	err := events.Publish(ctx, SubjectSubmissionEvaluated, SubmissionEvaluatedEvent{
		SubmissionID: submission.ID,
		EnrollmentID: submission.EnrollmentID,
		StudentID:    submission.StudentID,
		Status:       string(submission.Status),
		TotalScore:   submission.TotalScore,
	})
	if err != nil {
		logger.Warn().Err(err).Uint("submission_id", submission.ID).Msg("failed to publish evaluation event")
	}
}
