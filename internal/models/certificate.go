package models

import "time"

// CertificateStatus is the only mutable state of an issued certificate.
type CertificateStatus string

const (
	CertificateStatusIssued  CertificateStatus = "issued"
	CertificateStatusRevoked CertificateStatus = "revoked"
)

// Grade is the letter grade frozen on a certificate.
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeF Grade = "F"
)

// Certificate is the immutable record of a certified enrollment.
type Certificate struct {
	ID                uint              `gorm:"primaryKey" json:"id"`
	EnrollmentID      uint              `gorm:"not null;uniqueIndex" json:"enrollment_id"`
	StudentID         uint              `gorm:"not null;index" json:"student_id"`
	CourseID          uint              `gorm:"not null;index" json:"course_id"`
	CertificateNumber string            `gorm:"size:64;not null;uniqueIndex" json:"certificate_number"`
	VerificationHash  string            `gorm:"size:64;not null;uniqueIndex" json:"verification_hash"`
	TheoryScore       float64           `gorm:"not null;default:0" json:"theory_score"`
	PracticalScore    float64           `gorm:"not null;default:0" json:"practical_score"`
	TotalScore        float64           `gorm:"not null" json:"total_score"`
	Grade             Grade             `gorm:"size:1;not null" json:"grade"`
	Status            CertificateStatus `gorm:"size:16;not null;default:issued" json:"status"`
	DownloadURL       string            `gorm:"size:512" json:"download_url,omitempty"`
	IssueDate         time.Time         `gorm:"not null" json:"issue_date"`
	RevokedAt         *time.Time        `json:"revoked_at,omitempty"`
	RevocationReason  string            `gorm:"type:text" json:"revocation_reason,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
	Student           User              `gorm:"foreignKey:StudentID" json:"student"`
	Course            Course            `gorm:"foreignKey:CourseID" json:"course"`
}

// IsRevoked reports whether the certificate was withdrawn.
func (c Certificate) IsRevoked() bool {
	return c.Status == CertificateStatusRevoked
}
