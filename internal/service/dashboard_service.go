package service

import (
	"context"
	"errors"
	"sort"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/certify-api/internal/dto"
	"github.com/noah-isme/certify-api/internal/models"
	"github.com/noah-isme/certify-api/internal/repository"
)

const upcomingCourseLimit = 5

// DashboardService builds the per-role landing summaries.
type DashboardService interface {
	Student(ctx context.Context, studentID uint) (dto.StudentDashboardResponse, error)
	Verifier(ctx context.Context, actor Actor) (dto.VerifierOverviewResponse, error)
}

type dashboardService struct {
	enrollments  repository.EnrollmentRepository
	courses      repository.CourseRepository
	certificates repository.CertificateRepository
	submissions  repository.SubmissionRepository
	doubts       repository.DoubtRepository
	logger       zerolog.Logger
}

// DashboardDependencies groups the repositories the dashboards read from.
type DashboardDependencies struct {
	Enrollments  repository.EnrollmentRepository
	Courses      repository.CourseRepository
	Certificates repository.CertificateRepository
	Submissions  repository.SubmissionRepository
	Doubts       repository.DoubtRepository
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(deps DashboardDependencies, logger zerolog.Logger) DashboardService {
	return &dashboardService{
		enrollments:  deps.Enrollments,
		courses:      deps.Courses,
		certificates: deps.Certificates,
		submissions:  deps.Submissions,
		doubts:       deps.Doubts,
		logger:       logger.With().Str("component", "dashboard_service").Logger(),
	}
}

func (s *dashboardService) Student(ctx context.Context, studentID uint) (dto.StudentDashboardResponse, error) {
	enrollments, err := s.enrollments.List(ctx, repository.EnrollmentFilter{StudentID: &studentID})
	if err != nil {
		return dto.StudentDashboardResponse{}, err
	}

	certificates, err := s.certificates.ListByStudent(ctx, studentID)
	if err != nil {
		return dto.StudentDashboardResponse{}, err
	}

	open := models.DoubtStatusOpen
	doubts, err := s.doubts.List(ctx, repository.DoubtFilter{StudentID: &studentID, Status: &open})
	if err != nil {
		return dto.StudentDashboardResponse{}, err
	}

	published := models.CourseStatusPublished
	courses, err := s.courses.List(ctx, &published)
	if err != nil {
		return dto.StudentDashboardResponse{}, err
	}

	response := dto.StudentDashboardResponse{
		OpenDoubts:      len(doubts),
		UpcomingCourses: []dto.UpcomingCourseResponse{},
	}
	for _, certificate := range certificates {
		if !certificate.IsRevoked() {
			response.CertificatesCount++
		}
	}

	enrolled := make(map[uint]struct{}, len(enrollments))
	for _, enrollment := range enrollments {
		enrolled[enrollment.CourseID] = struct{}{}
		switch enrollment.Status {
		case models.EnrollmentStatusCompleted:
			response.CompletedCourses++
		case models.EnrollmentStatusOngoing:
			response.OngoingCourses++
		case models.EnrollmentStatusFailed:
			response.FailedCourses++
		case models.EnrollmentStatusRetake:
			response.RetakeCourses++
		}
	}

	upcoming := make([]models.Course, 0, len(courses))
	for _, course := range courses {
		if _, ok := enrolled[course.ID]; !ok {
			upcoming = append(upcoming, course)
		}
	}
	sortByStart(upcoming)
	if len(upcoming) > upcomingCourseLimit {
		upcoming = upcoming[:upcomingCourseLimit]
	}
	for _, course := range upcoming {
		response.UpcomingCourses = append(response.UpcomingCourses, dto.UpcomingCourseResponse{
			ID:      course.ID,
			Title:   course.Title,
			Code:    course.Code,
			StartAt: course.StartAt,
		})
	}

	return response, nil
}

// Verifier counts the enrollments assigned to the actor, grouped by course
// with the busiest course first.
func (s *dashboardService) Verifier(ctx context.Context, actor Actor) (dto.VerifierOverviewResponse, error) {
	if err := actor.require(models.CapEvaluateSubmissions); err != nil {
		return dto.VerifierOverviewResponse{}, err
	}

	enrollments, err := s.enrollments.List(ctx, repository.EnrollmentFilter{VerifierID: &actor.ID})
	if err != nil {
		return dto.VerifierOverviewResponse{}, err
	}

	waiting := models.SubmissionStatusPending
	pending, err := s.submissions.List(ctx, repository.SubmissionFilter{VerifierID: &actor.ID, Status: &waiting})
	if err != nil {
		return dto.VerifierOverviewResponse{}, err
	}

	open := models.DoubtStatusOpen
	doubts, err := s.doubts.List(ctx, repository.DoubtFilter{VerifierID: &actor.ID, Status: &open})
	if err != nil {
		return dto.VerifierOverviewResponse{}, err
	}

	response := dto.VerifierOverviewResponse{
		TotalCandidates: len(enrollments),
		OpenDoubts:      len(doubts),
		PerCourse:       []dto.VerifierCourseLoad{},
	}

	for _, submission := range pending {
		if submission.IsSubmitted() {
			response.PendingEvaluation++
		}
	}

	loads := map[uint]*dto.VerifierCourseLoad{}
	for _, enrollment := range enrollments {
		if enrollment.IsCompleted() {
			if _, err := s.certificates.GetByEnrollment(ctx, enrollment.ID); errors.Is(err, gorm.ErrRecordNotFound) {
				response.AwaitingDecision++
			} else if err != nil {
				return dto.VerifierOverviewResponse{}, err
			}
		}

		load, ok := loads[enrollment.CourseID]
		if !ok {
			load = &dto.VerifierCourseLoad{
				CourseID: enrollment.CourseID,
				Title:    enrollment.Course.Title,
				Code:     enrollment.Course.Code,
			}
			loads[enrollment.CourseID] = load
		}
		load.Count++
	}

	for _, load := range loads {
		response.PerCourse = append(response.PerCourse, *load)
	}
	sort.Slice(response.PerCourse, func(i, j int) bool {
		if response.PerCourse[i].Count != response.PerCourse[j].Count {
			return response.PerCourse[i].Count > response.PerCourse[j].Count
		}
		return response.PerCourse[i].CourseID < response.PerCourse[j].CourseID
	})

	return response, nil
}

// sortByStart orders courses by start date; undated courses go last.
func sortByStart(courses []models.Course) {
	sort.SliceStable(courses, func(i, j int) bool {
		a, b := courses[i].StartAt, courses[j].StartAt
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.Before(*b)
		}
	})
}
