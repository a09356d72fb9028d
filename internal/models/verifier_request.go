package models

import "time"

// VerifierRequestStatus tracks the review of a verifier application.
type VerifierRequestStatus string

const (
	VerifierRequestPending  VerifierRequestStatus = "pending"
	VerifierRequestAccepted VerifierRequestStatus = "accepted"
	VerifierRequestRejected VerifierRequestStatus = "rejected"
)

// VerifierRequest is an application to join the platform as a verifier.
type VerifierRequest struct {
	ID            uint                  `gorm:"primaryKey" json:"id"`
	Name          string                `gorm:"size:255;not null" json:"name"`
	Email         string                `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Phone         string                `gorm:"size:32" json:"phone"`
	College       string                `gorm:"size:255;not null" json:"college"`
	Status        VerifierRequestStatus `gorm:"size:16;not null;default:pending;index" json:"status"`
	ProcessedByID *uint                 `json:"processed_by_id"`
	ProcessedAt   *time.Time            `json:"processed_at"`
	UserID        *uint                 `json:"user_id"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
}
