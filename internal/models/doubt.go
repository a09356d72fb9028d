package models

import (
	"time"

	"gorm.io/datatypes"
)

// DoubtStatus tracks whether a doubt still waits for an answer.
type DoubtStatus string

const (
	DoubtStatusOpen     DoubtStatus = "open"
	DoubtStatusAnswered DoubtStatus = "answered"
	DoubtStatusClosed   DoubtStatus = "closed"
)

// Doubt is a question a student raises inside an enrollment.
type Doubt struct {
	ID           uint                        `gorm:"primaryKey" json:"id"`
	CourseID     uint                        `gorm:"not null;index" json:"course_id"`
	ModuleID     *uint                       `gorm:"index" json:"module_id"`
	StudentID    uint                        `gorm:"not null;index" json:"student_id"`
	EnrollmentID uint                        `gorm:"not null;index" json:"enrollment_id"`
	VerifierID   *uint                       `gorm:"index" json:"verifier_id"`
	Message      string                      `gorm:"type:text;not null" json:"message"`
	Attachments  datatypes.JSONSlice[string] `json:"attachments"`
	Status       DoubtStatus                 `gorm:"size:16;not null;default:open;index" json:"status"`
	Answers      []DoubtAnswer               `gorm:"constraint:OnDelete:CASCADE" json:"answers,omitempty"`
	Course       Course                      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	CreatedAt    time.Time                   `json:"created_at"`
	UpdatedAt    time.Time                   `json:"updated_at"`
}

// DoubtAnswer is one reply in a doubt's conversation.
type DoubtAnswer struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	DoubtID     uint      `gorm:"not null;index" json:"doubt_id"`
	ResponderID uint      `gorm:"not null;index" json:"responder_id"`
	Message     string    `gorm:"type:text;not null" json:"message"`
	CreatedAt   time.Time `json:"created_at"`
}
