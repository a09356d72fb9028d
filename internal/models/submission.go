package models

import (
	"time"

	"gorm.io/datatypes"
)

// SubmissionStatus is the grading state of a submission.
type SubmissionStatus string

const (
	SubmissionStatusPending   SubmissionStatus = "pending"
	SubmissionStatusEvaluated SubmissionStatus = "evaluated"
	SubmissionStatusRejected  SubmissionStatus = "rejected"
)

// Answer holds a student's response to one question.
type Answer struct {
	QuestionID          string `json:"question_id"`
	SelectedOptionIndex *int   `json:"selected_option_index,omitempty"`
	AnswerText          string `json:"answer_text,omitempty"`
	CodeURL             string `json:"code_url,omitempty"`
}

// SubmissionFlags records anti-cheat signals observed for an attempt.
type SubmissionFlags struct {
	TabSwitchCount    int  `gorm:"not null;default:0" json:"tab_switch_count"`
	TimeExceeded      bool `gorm:"not null;default:false" json:"time_exceeded"`
	CheatingSuspected bool `gorm:"not null;default:false" json:"cheating_suspected"`
}

// Submission is one student's attempt at one assignment.
type Submission struct {
	ID              uint                        `gorm:"primaryKey" json:"id"`
	AssignmentID    uint                        `gorm:"not null;uniqueIndex:idx_submission_student_assignment" json:"assignment_id"`
	StudentID       uint                        `gorm:"not null;uniqueIndex:idx_submission_student_assignment" json:"student_id"`
	CourseID        uint                        `gorm:"not null;index" json:"course_id"`
	ModuleID        uint                        `gorm:"not null" json:"module_id"`
	EnrollmentID    uint                        `gorm:"not null;index" json:"enrollment_id"`
	StartedAt       time.Time                   `gorm:"not null" json:"started_at"`
	SubmittedAt     *time.Time                  `json:"submitted_at"`
	Answers         datatypes.JSONSlice[Answer] `json:"answers"`
	AutoScore       float64                     `gorm:"not null;default:0" json:"auto_score"`
	ManualScore     float64                     `gorm:"not null;default:0" json:"manual_score"`
	TotalScore      float64                     `gorm:"not null;default:0" json:"total_score"`
	Status          SubmissionStatus            `gorm:"size:16;not null;default:pending;index" json:"status"`
	Flags           SubmissionFlags             `gorm:"embedded;embeddedPrefix:flag_" json:"flags"`
	RejectionReason string                      `gorm:"type:text" json:"rejection_reason,omitempty"`
	EvaluatedBy     *uint                       `json:"evaluated_by"`
	EvaluatedAt     *time.Time                  `json:"evaluated_at"`
	CreatedAt       time.Time                   `json:"created_at"`
	UpdatedAt       time.Time                   `json:"updated_at"`
	Assignment      Assignment                  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
}

// IsSubmitted reports whether answers have been handed in.
func (s Submission) IsSubmitted() bool {
	return s.SubmittedAt != nil
}
