package dto

import (
	"time"

	"github.com/noah-isme/certify-api/internal/models"
)

// CreateDoubtRequest raises a doubt inside an enrollment.
type CreateDoubtRequest struct {
	ModuleID    *uint    `json:"module_id" validate:"omitempty,gt=0"`
	Message     string   `json:"message" validate:"required,min=3,max=5000"`
	Attachments []string `json:"attachments" validate:"omitempty,max=5,dive,url"`
}

// AnswerDoubtRequest appends a reply to a doubt.
type AnswerDoubtRequest struct {
	Message string `json:"message" validate:"required,min=1,max=5000"`
}

// DoubtAnswerResponse is one reply in a doubt.
type DoubtAnswerResponse struct {
	ID          uint      `json:"id"`
	ResponderID uint      `json:"responder_id"`
	Message     string    `json:"message"`
	CreatedAt   time.Time `json:"created_at"`
}

// DoubtResponse is the API view of a doubt.
type DoubtResponse struct {
	ID           uint                  `json:"id"`
	CourseID     uint                  `json:"course_id"`
	CourseTitle  string                `json:"course_title,omitempty"`
	ModuleID     *uint                 `json:"module_id"`
	StudentID    uint                  `json:"student_id"`
	EnrollmentID uint                  `json:"enrollment_id"`
	VerifierID   *uint                 `json:"verifier_id"`
	Message      string                `json:"message"`
	Attachments  []string              `json:"attachments"`
	Status       string                `json:"status"`
	Answers      []DoubtAnswerResponse `json:"answers"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

// NewDoubtResponse converts a Doubt model into a DTO.
func NewDoubtResponse(model models.Doubt) DoubtResponse {
	attachments := []string(model.Attachments)
	if attachments == nil {
		attachments = []string{}
	}

	answers := make([]DoubtAnswerResponse, 0, len(model.Answers))
	for _, answer := range model.Answers {
		answers = append(answers, DoubtAnswerResponse{
			ID:          answer.ID,
			ResponderID: answer.ResponderID,
			Message:     answer.Message,
			CreatedAt:   answer.CreatedAt,
		})
	}

	return DoubtResponse{
		ID:           model.ID,
		CourseID:     model.CourseID,
		CourseTitle:  model.Course.Title,
		ModuleID:     model.ModuleID,
		StudentID:    model.StudentID,
		EnrollmentID: model.EnrollmentID,
		VerifierID:   model.VerifierID,
		Message:      model.Message,
		Attachments:  attachments,
		Status:       string(model.Status),
		Answers:      answers,
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	}
}

// NewDoubtResponseSlice converts doubt models into DTOs.
func NewDoubtResponseSlice(items []models.Doubt) []DoubtResponse {
	responses := make([]DoubtResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, NewDoubtResponse(item))
	}
	return responses
}
