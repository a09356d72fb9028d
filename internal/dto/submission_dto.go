package dto

import (
	"time"

	"github.com/noah-isme/certify-api/internal/models"
)

// AnswerRequest is one submitted answer.
type AnswerRequest struct {
	QuestionID          string `json:"question_id" validate:"required"`
	SelectedOptionIndex *int   `json:"selected_option_index" validate:"omitempty,gte=0"`
	AnswerText          string `json:"answer_text" validate:"max=10000"`
	CodeURL             string `json:"code_url" validate:"omitempty,url"`
}

// SubmitAssignmentRequest hands in answers for a started submission.
type SubmitAssignmentRequest struct {
	Answers        []AnswerRequest `json:"answers" validate:"dive"`
	TabSwitchCount int             `json:"tab_switch_count" validate:"gte=0"`
}

// TheoryEvaluationRequest lets a verifier override, reject or accept a theory submission.
type TheoryEvaluationRequest struct {
	AutoScoreOverride *float64 `json:"auto_score_override" validate:"omitempty,gte=0"`
	Reject            bool     `json:"reject"`
	RejectionReason   string   `json:"rejection_reason" validate:"max=1000"`
	Override          bool     `json:"override"`
}

// PracticalEvaluationRequest records a manual practical score.
type PracticalEvaluationRequest struct {
	ManualScore float64 `json:"manual_score" validate:"gte=0"`
	Override    bool    `json:"override"`
}

// SubmissionFilter describes query string filters for listing submissions.
type SubmissionFilter struct {
	Status    *string `query:"status" validate:"omitempty,oneof=pending evaluated rejected"`
	ModuleID  *uint   `query:"module_id"`
	StudentID *uint   `query:"student_id"`
}

// SubmissionResponse is returned to API clients when viewing submissions.
type SubmissionResponse struct {
	ID              uint                   `json:"id"`
	AssignmentID    uint                   `json:"assignment_id"`
	StudentID       uint                   `json:"student_id"`
	CourseID        uint                   `json:"course_id"`
	ModuleID        uint                   `json:"module_id"`
	EnrollmentID    uint                   `json:"enrollment_id"`
	AssignmentType  string                 `json:"assignment_type,omitempty"`
	StartedAt       time.Time              `json:"started_at"`
	SubmittedAt     *time.Time             `json:"submitted_at"`
	Answers         []models.Answer        `json:"answers"`
	AutoScore       float64                `json:"auto_score"`
	ManualScore     float64                `json:"manual_score"`
	TotalScore      float64                `json:"total_score"`
	Status          string                 `json:"status"`
	Flags           models.SubmissionFlags `json:"flags"`
	RejectionReason string                 `json:"rejection_reason,omitempty"`
	EvaluatedBy     *uint                  `json:"evaluated_by"`
	EvaluatedAt     *time.Time             `json:"evaluated_at"`
}

// NewSubmissionResponse converts a Submission model into a DTO.
func NewSubmissionResponse(model models.Submission) SubmissionResponse {
	answers := make([]models.Answer, 0, len(model.Answers))
	answers = append(answers, model.Answers...)

	response := SubmissionResponse{
		ID:              model.ID,
		AssignmentID:    model.AssignmentID,
		StudentID:       model.StudentID,
		CourseID:        model.CourseID,
		ModuleID:        model.ModuleID,
		EnrollmentID:    model.EnrollmentID,
		StartedAt:       model.StartedAt,
		SubmittedAt:     model.SubmittedAt,
		Answers:         answers,
		AutoScore:       model.AutoScore,
		ManualScore:     model.ManualScore,
		TotalScore:      model.TotalScore,
		Status:          string(model.Status),
		Flags:           model.Flags,
		RejectionReason: model.RejectionReason,
		EvaluatedBy:     model.EvaluatedBy,
		EvaluatedAt:     model.EvaluatedAt,
	}
	if model.Assignment.ID != 0 {
		response.AssignmentType = string(model.Assignment.Type)
	}

	return response
}

// NewSubmissionResponseSlice converts submission models into DTOs.
func NewSubmissionResponseSlice(items []models.Submission) []SubmissionResponse {
	responses := make([]SubmissionResponse, 0, len(items))
	for _, submission := range items {
		responses = append(responses, NewSubmissionResponse(submission))
	}

	return responses
}

// UploadResponse returns the stored URL of an uploaded artifact.
type UploadResponse struct {
	URL      string `json:"url"`
	MimeType string `json:"mime_type"`
}
