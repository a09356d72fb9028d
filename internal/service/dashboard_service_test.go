package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/certify-api/internal/models"
)

func newDashboardService(s *store) DashboardService {
	return NewDashboardService(DashboardDependencies{
		Enrollments:  &fakeEnrollmentRepo{s: s},
		Courses:      fakeCourseRepo{s: s},
		Certificates: &fakeCertificateRepo{s: s},
		Submissions:  fakeSubmissionRepo{s: s},
		Doubts:       fakeDoubtRepo{s: s},
	}, testLogger())
}

func TestStudentDashboard(t *testing.T) {
	s := newStore()
	svc := newDashboardService(s)
	student := s.addUser(models.User{Name: "Ada", Email: "ada@example.com", Role: models.RoleStudent})

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	course := func(code string, status models.CourseStatus, startIn *int) models.Course {
		c := models.Course{Title: code, Code: code, Status: status}
		if startIn != nil {
			start := base.AddDate(0, 0, *startIn)
			c.StartAt = &start
		}
		return s.addCourse(c)
	}

	done := course("DONE", models.CourseStatusPublished, ptr(-30))
	active := course("ACTIVE", models.CourseStatusPublished, ptr(-5))
	failed := course("FAILED", models.CourseStatusPublished, ptr(-60))
	course("DRAFT", models.CourseStatusDraft, ptr(1))
	for i, offset := range []int{40, 10, 20, 50, 30} {
		course(fmt.Sprintf("NEXT-%d", i), models.CourseStatusPublished, ptr(offset))
	}
	course("UNDATED", models.CourseStatusPublished, nil)

	finished := s.addEnrollment(models.Enrollment{StudentID: student.ID, CourseID: done.ID, Status: models.EnrollmentStatusCompleted})
	s.addEnrollment(models.Enrollment{StudentID: student.ID, CourseID: active.ID, Status: models.EnrollmentStatusOngoing})
	s.addEnrollment(models.Enrollment{StudentID: student.ID, CourseID: failed.ID, Status: models.EnrollmentStatusFailed})
	s.certificates[s.id()] = models.Certificate{EnrollmentID: finished.ID, StudentID: student.ID, CourseID: done.ID, Status: models.CertificateStatusIssued}
	s.doubts[s.id()] = models.Doubt{StudentID: student.ID, CourseID: active.ID, Status: models.DoubtStatusOpen}
	s.doubts[s.id()] = models.Doubt{StudentID: student.ID, CourseID: active.ID, Status: models.DoubtStatusAnswered}

	dashboard, err := svc.Student(context.Background(), student.ID)
	require.NoError(t, err)
	require.Equal(t, 1, dashboard.CompletedCourses)
	require.Equal(t, 1, dashboard.OngoingCourses)
	require.Equal(t, 1, dashboard.FailedCourses)
	require.Zero(t, dashboard.RetakeCourses)
	require.Equal(t, 1, dashboard.CertificatesCount)
	require.Equal(t, 1, dashboard.OpenDoubts)

	require.Len(t, dashboard.UpcomingCourses, upcomingCourseLimit)
	codes := make([]string, 0, len(dashboard.UpcomingCourses))
	for _, upcoming := range dashboard.UpcomingCourses {
		codes = append(codes, upcoming.Code)
	}
	require.Equal(t, []string{"NEXT-1", "NEXT-2", "NEXT-4", "NEXT-0", "NEXT-3"}, codes)
}

func TestStudentDashboardEmpty(t *testing.T) {
	s := newStore()
	student := s.addUser(models.User{Name: "New", Email: "new@example.com", Role: models.RoleStudent})

	dashboard, err := newDashboardService(s).Student(context.Background(), student.ID)
	require.NoError(t, err)
	require.Zero(t, dashboard.CompletedCourses)
	require.NotNil(t, dashboard.UpcomingCourses)
	require.Empty(t, dashboard.UpcomingCourses)
}

func TestVerifierOverview(t *testing.T) {
	s := newStore()
	svc := newDashboardService(s)
	verifier := s.addUser(models.User{Name: "Grace", Email: "grace@example.com", Role: models.RoleVerifier})
	other := s.addUser(models.User{Name: "Ken", Email: "ken@example.com", Role: models.RoleVerifier})
	small := s.addCourse(models.Course{Title: "Small", Code: "SMALL", Status: models.CourseStatusPublished})
	large := s.addCourse(models.Course{Title: "Large", Code: "LARGE", Status: models.CourseStatusPublished})

	enroll := func(course models.Course, verifierID uint, status models.EnrollmentStatus) models.Enrollment {
		student := s.addUser(models.User{Name: "Student", Email: fmt.Sprintf("s%d@example.com", len(s.users)), Role: models.RoleStudent})
		return s.addEnrollment(models.Enrollment{StudentID: student.ID, CourseID: course.ID, VerifierID: &verifierID, Status: status})
	}

	certified := enroll(small, verifier.ID, models.EnrollmentStatusCompleted)
	enroll(large, verifier.ID, models.EnrollmentStatusCompleted)
	working := enroll(large, verifier.ID, models.EnrollmentStatusOngoing)
	enroll(large, verifier.ID, models.EnrollmentStatusFailed)
	enroll(small, other.ID, models.EnrollmentStatusCompleted)

	s.certificates[s.id()] = models.Certificate{EnrollmentID: certified.ID, CourseID: small.ID, Status: models.CertificateStatusIssued}

	submittedAt := time.Now()
	s.addSubmission(models.Submission{EnrollmentID: working.ID, StudentID: working.StudentID, CourseID: large.ID, Status: models.SubmissionStatusPending, SubmittedAt: &submittedAt})
	s.addSubmission(models.Submission{EnrollmentID: working.ID, StudentID: working.StudentID, CourseID: large.ID, Status: models.SubmissionStatusPending})
	s.addSubmission(models.Submission{EnrollmentID: working.ID, StudentID: working.StudentID, CourseID: large.ID, Status: models.SubmissionStatusEvaluated, SubmittedAt: &submittedAt})
	s.doubts[s.id()] = models.Doubt{CourseID: large.ID, StudentID: working.StudentID, VerifierID: &verifier.ID, Status: models.DoubtStatusOpen}

	overview, err := svc.Verifier(context.Background(), Actor{ID: verifier.ID, Role: models.RoleVerifier})
	require.NoError(t, err)
	require.Equal(t, 4, overview.TotalCandidates)
	require.Equal(t, 1, overview.AwaitingDecision)
	require.Equal(t, 1, overview.PendingEvaluation)
	require.Equal(t, 1, overview.OpenDoubts)
	require.Len(t, overview.PerCourse, 2)
	require.Equal(t, "LARGE", overview.PerCourse[0].Code)
	require.Equal(t, 3, overview.PerCourse[0].Count)
	require.Equal(t, "SMALL", overview.PerCourse[1].Code)
	require.Equal(t, 1, overview.PerCourse[1].Count)

	_, err = svc.Verifier(context.Background(), Actor{ID: 1, Role: models.RoleStudent})
	require.ErrorIs(t, err, ErrCapabilityDenied)
}
