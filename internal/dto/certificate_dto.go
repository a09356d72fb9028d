package dto

import (
	"time"

	"github.com/noah-isme/certify-api/internal/models"
)

// IssueCertificateRequest carries the verifier-supplied practical score.
type IssueCertificateRequest struct {
	PracticalScore *float64 `json:"practical_score"`
}

// RevokeCertificateRequest explains a revocation.
type RevokeCertificateRequest struct {
	Reason string `json:"reason" validate:"required,min=3,max=1000"`
}

// CertificateResponse is the authenticated view of a certificate.
type CertificateResponse struct {
	ID                uint       `json:"id"`
	EnrollmentID      uint       `json:"enrollment_id"`
	StudentID         uint       `json:"student_id"`
	StudentName       string     `json:"student_name,omitempty"`
	CourseID          uint       `json:"course_id"`
	CourseTitle       string     `json:"course_title,omitempty"`
	CertificateNumber string     `json:"certificate_number"`
	VerificationHash  string     `json:"verification_hash"`
	TheoryScore       float64    `json:"theory_score"`
	PracticalScore    float64    `json:"practical_score"`
	TotalScore        float64    `json:"total_score"`
	Grade             string     `json:"grade"`
	Status            string     `json:"status"`
	DownloadURL       string     `json:"download_url,omitempty"`
	IssueDate         time.Time  `json:"issue_date"`
	RevokedAt         *time.Time `json:"revoked_at,omitempty"`
	RevocationReason  string     `json:"revocation_reason,omitempty"`
}

// NewCertificateResponse converts a Certificate model into a DTO.
func NewCertificateResponse(model models.Certificate) CertificateResponse {
	return CertificateResponse{
		ID:                model.ID,
		EnrollmentID:      model.EnrollmentID,
		StudentID:         model.StudentID,
		StudentName:       model.Student.Name,
		CourseID:          model.CourseID,
		CourseTitle:       model.Course.Title,
		CertificateNumber: model.CertificateNumber,
		VerificationHash:  model.VerificationHash,
		TheoryScore:       model.TheoryScore,
		PracticalScore:    model.PracticalScore,
		TotalScore:        model.TotalScore,
		Grade:             string(model.Grade),
		Status:            string(model.Status),
		DownloadURL:       model.DownloadURL,
		IssueDate:         model.IssueDate,
		RevokedAt:         model.RevokedAt,
		RevocationReason:  model.RevocationReason,
	}
}

// NewCertificateResponseSlice converts certificate models into DTOs.
func NewCertificateResponseSlice(items []models.Certificate) []CertificateResponse {
	responses := make([]CertificateResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, NewCertificateResponse(item))
	}
	return responses
}

// Verification failure reasons.
const (
	VerificationReasonNotFound = "not_found"
	VerificationReasonRevoked  = "revoked"
)

// VerificationResponse is the public verification payload. It deliberately
// carries no identifiers, scores or the verification hash.
type VerificationResponse struct {
	Valid             bool   `json:"valid"`
	Reason            string `json:"reason,omitempty"`
	Message           string `json:"message,omitempty"`
	StudentName       string `json:"studentName,omitempty"`
	CourseTitle       string `json:"courseTitle,omitempty"`
	IssueDate         string `json:"issueDate,omitempty"`
	CertificateNumber string `json:"certificateNumber,omitempty"`
}
