package dto

import (
	"strings"
	"time"

	"github.com/noah-isme/certify-api/internal/models"
)

// CourseCreateRequest is the admin payload for creating a course.
type CourseCreateRequest struct {
	Title               string     `json:"title" validate:"required,max=255"`
	Code                string     `json:"code" validate:"required,max=64"`
	Description         string     `json:"description"`
	Category            string     `json:"category" validate:"max=128"`
	Level               string     `json:"level" validate:"max=64"`
	HasPracticalSession bool       `json:"has_practical_session"`
	StartAt             *time.Time `json:"start_at"`
	EndAt               *time.Time `json:"end_at" validate:"omitempty,gtfield=StartAt"`
	VerifierIDs         []uint     `json:"verifier_ids" validate:"omitempty,dive,gt=0"`
}

// AssignVerifiersRequest replaces the verifier list of a course.
type AssignVerifiersRequest struct {
	VerifierIDs []uint `json:"verifier_ids" validate:"required,min=1,dive,gt=0"`
}

// LessonCreateRequest adds a lesson to a course.
type LessonCreateRequest struct {
	Title    string `json:"title" validate:"required,max=255"`
	Position int    `json:"position" validate:"gte=0"`
}

// ModuleCreateRequest adds a module to a lesson.
type ModuleCreateRequest struct {
	Title    string `json:"title" validate:"required,max=255"`
	Content  string `json:"content"`
	Position int    `json:"position" validate:"gte=0"`
}

// VerifierLite summarizes a verifier.
type VerifierLite struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// CourseResponse is the API view of a course.
type CourseResponse struct {
	ID                  uint           `json:"id"`
	Title               string         `json:"title"`
	Code                string         `json:"code"`
	Description         string         `json:"description"`
	Category            string         `json:"category"`
	Level               string         `json:"level"`
	Status              string         `json:"status"`
	HasPracticalSession bool           `json:"has_practical_session"`
	ResultsGenerated    bool           `json:"results_generated"`
	StartAt             *time.Time     `json:"start_at"`
	EndAt               *time.Time     `json:"end_at"`
	Verifiers           []VerifierLite `json:"verifiers"`
}

// NormalizeCourseCode trims and upper-cases a course code.
func NormalizeCourseCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// NewCourseResponse converts a Course model into a DTO.
func NewCourseResponse(model models.Course) CourseResponse {
	verifiers := make([]VerifierLite, 0, len(model.Verifiers))
	for _, v := range model.Verifiers {
		verifiers = append(verifiers, VerifierLite{ID: v.ID, Name: v.Name, Email: v.Email})
	}

	return CourseResponse{
		ID:                  model.ID,
		Title:               model.Title,
		Code:                model.Code,
		Description:         model.Description,
		Category:            model.Category,
		Level:               model.Level,
		Status:              string(model.Status),
		HasPracticalSession: model.HasPracticalSession,
		ResultsGenerated:    model.ResultsGenerated,
		StartAt:             model.StartAt,
		EndAt:               model.EndAt,
		Verifiers:           verifiers,
	}
}

// NewCourseResponseSlice converts course models into DTOs.
func NewCourseResponseSlice(items []models.Course) []CourseResponse {
	responses := make([]CourseResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, NewCourseResponse(item))
	}
	return responses
}

// LessonResponse is the API view of a lesson.
type LessonResponse struct {
	ID       uint   `json:"id"`
	CourseID uint   `json:"course_id"`
	Title    string `json:"title"`
	Position int    `json:"position"`
}

// ModuleResponse is the API view of a module.
type ModuleResponse struct {
	ID       uint   `json:"id"`
	LessonID uint   `json:"lesson_id"`
	CourseID uint   `json:"course_id"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Position int    `json:"position"`
}
