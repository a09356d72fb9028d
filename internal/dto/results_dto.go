package dto

// EnrollmentResult is one row of a course results sheet.
type EnrollmentResult struct {
	EnrollmentID   uint    `json:"enrollment_id"`
	StudentID      uint    `json:"student_id"`
	StudentName    string  `json:"student_name"`
	College        string  `json:"college"`
	Status         string  `json:"status"`
	TheoryScore    float64 `json:"theory_score"`
	PracticalScore float64 `json:"practical_score"`
	FinalScore     float64 `json:"final_score"`
	Grade          string  `json:"grade"`
}

// ResultFailure reports an enrollment that could not be recomputed.
type ResultFailure struct {
	EnrollmentID uint   `json:"enrollment_id"`
	Code         string `json:"code"`
	Message      string `json:"message"`
}

// CourseResultsSummary is the outcome of a bulk results generation.
type CourseResultsSummary struct {
	CourseID  uint               `json:"course_id"`
	Processed int                `json:"processed"`
	Results   []EnrollmentResult `json:"results"`
	Failures  []ResultFailure    `json:"failures"`
}
