package dto

// AnalyticsOverviewResponse summarises the whole platform.
type AnalyticsOverviewResponse struct {
	TotalStudents        int64            `json:"total_students"`
	TotalCourses         int64            `json:"total_courses"`
	TotalEnrollments     int64            `json:"total_enrollments"`
	CompletedEnrollments int64            `json:"completed_enrollments"`
	CompletionRate       float64          `json:"completion_rate"`
	TotalCertificates    int64            `json:"total_certificates"`
	GradeDistribution    map[string]int64 `json:"grade_distribution"`
	CacheHit             bool             `json:"cache_hit"`
}

// CourseAnalyticsResponse aggregates one course.
type CourseAnalyticsResponse struct {
	CourseID           uint             `json:"course_id"`
	Title              string           `json:"title"`
	Code               string           `json:"code"`
	TotalEnrollments   int64            `json:"total_enrollments"`
	Completed          int64            `json:"completed"`
	Failed             int64            `json:"failed"`
	CertificatesIssued int64            `json:"certificates_issued"`
	CompletionRate     float64          `json:"completion_rate"`
	AverageFinalScore  float64          `json:"average_final_score"`
	GradeDistribution  map[string]int64 `json:"grade_distribution"`
}

// CourseAnalyticsListResponse wraps per-course aggregates.
type CourseAnalyticsListResponse struct {
	Items    []CourseAnalyticsResponse `json:"items"`
	CacheHit bool                      `json:"cache_hit"`
}

// CollegeAnalyticsResponse aggregates enrollments from one college.
type CollegeAnalyticsResponse struct {
	College              string  `json:"college"`
	TotalStudents        int64   `json:"total_students"`
	TotalEnrollments     int64   `json:"total_enrollments"`
	CompletedEnrollments int64   `json:"completed_enrollments"`
	CompletionRate       float64 `json:"completion_rate"`
}

// CollegeAnalyticsListResponse wraps per-college aggregates.
type CollegeAnalyticsListResponse struct {
	Items    []CollegeAnalyticsResponse `json:"items"`
	CacheHit bool                       `json:"cache_hit"`
}
