package dto

import "time"

// UpcomingCourseResponse is a published course the student has not joined.
type UpcomingCourseResponse struct {
	ID      uint       `json:"id"`
	Title   string     `json:"title"`
	Code    string     `json:"code"`
	StartAt *time.Time `json:"start_at"`
}

// StudentDashboardResponse summarises a student's progress.
type StudentDashboardResponse struct {
	CompletedCourses  int                      `json:"completed_courses"`
	OngoingCourses    int                      `json:"ongoing_courses"`
	FailedCourses     int                      `json:"failed_courses"`
	RetakeCourses     int                      `json:"retake_courses"`
	CertificatesCount int                      `json:"certificates_count"`
	OpenDoubts        int                      `json:"open_doubts"`
	UpcomingCourses   []UpcomingCourseResponse `json:"upcoming_courses"`
}

// VerifierCourseLoad counts the candidates a verifier holds in one course.
type VerifierCourseLoad struct {
	CourseID uint   `json:"course_id"`
	Title    string `json:"title"`
	Code     string `json:"code"`
	Count    int    `json:"count"`
}

// VerifierOverviewResponse summarises a verifier's workload.
type VerifierOverviewResponse struct {
	TotalCandidates   int                  `json:"total_candidates"`
	AwaitingDecision  int                  `json:"awaiting_decision"`
	PendingEvaluation int                  `json:"pending_evaluation"`
	OpenDoubts        int                  `json:"open_doubts"`
	PerCourse         []VerifierCourseLoad `json:"per_course"`
}
