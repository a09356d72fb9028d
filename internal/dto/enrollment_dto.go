package dto

import (
	"time"

	"github.com/noah-isme/certify-api/internal/models"
)

// EnrollRequest captures the profile snapshot supplied at enrollment.
type EnrollRequest struct {
	Name       string `json:"name" validate:"required,max=255"`
	Email      string `json:"email" validate:"required,email"`
	ClassYear  string `json:"class_year" validate:"required,max=32"`
	College    string `json:"college" validate:"required,max=255"`
	Mobile     string `json:"mobile" validate:"required,max=32"`
	VerifierID *uint  `json:"verifier_id" validate:"omitempty,gt=0"`
}

// FinalizeEnrollmentRequest records the verifier's pass/fail decision.
type FinalizeEnrollmentRequest struct {
	Pass           *bool    `json:"pass" validate:"required"`
	PracticalScore *float64 `json:"practical_score" validate:"omitempty,gte=0"`
}

// EnrollmentResponse is the API view of an enrollment.
type EnrollmentResponse struct {
	ID             uint                   `json:"id"`
	StudentID      uint                   `json:"student_id"`
	CourseID       uint                   `json:"course_id"`
	CourseTitle    string                 `json:"course_title,omitempty"`
	VerifierID     *uint                  `json:"verifier_id"`
	Profile        models.ProfileSnapshot `json:"profile_snapshot"`
	Status         string                 `json:"status"`
	TheoryScore    float64                `json:"theory_score"`
	PracticalScore float64                `json:"practical_score"`
	FinalScore     float64                `json:"final_score"`
	EnrolledAt     time.Time              `json:"enrolled_at"`
	CompletedAt    *time.Time             `json:"completed_at"`
	RetakeOfID     *uint                  `json:"retake_of_id,omitempty"`
}

// NewEnrollmentResponse converts an Enrollment model into a DTO.
func NewEnrollmentResponse(model models.Enrollment) EnrollmentResponse {
	return EnrollmentResponse{
		ID:             model.ID,
		StudentID:      model.StudentID,
		CourseID:       model.CourseID,
		CourseTitle:    model.Course.Title,
		VerifierID:     model.VerifierID,
		Profile:        model.Profile,
		Status:         string(model.Status),
		TheoryScore:    model.TheoryScore,
		PracticalScore: model.PracticalScore,
		FinalScore:     model.FinalScore,
		EnrolledAt:     model.EnrolledAt,
		CompletedAt:    model.CompletedAt,
		RetakeOfID:     model.RetakeOfID,
	}
}

// NewEnrollmentResponseSlice converts enrollment models into DTOs.
func NewEnrollmentResponseSlice(items []models.Enrollment) []EnrollmentResponse {
	responses := make([]EnrollmentResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, NewEnrollmentResponse(item))
	}
	return responses
}

// FinalizeEnrollmentResponse reports the enrollment and any issued certificate.
type FinalizeEnrollmentResponse struct {
	Enrollment  EnrollmentResponse   `json:"enrollment"`
	Certificate *CertificateResponse `json:"certificate,omitempty"`
}
