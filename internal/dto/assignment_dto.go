package dto

import (
	"time"

	"github.com/noah-isme/certify-api/internal/models"
)

// QuestionRequest describes one question in an assignment payload.
type QuestionRequest struct {
	ID                 string   `json:"id"`
	Type               string   `json:"q_type" validate:"required,oneof=mcq short code"`
	Text               string   `json:"question_text" validate:"required"`
	Options            []string `json:"options" validate:"required_if=Type mcq,omitempty,min=2,dive,required"`
	CorrectOptionIndex *int     `json:"correct_option_index" validate:"omitempty,gte=0"`
	AnswerExplanation  string   `json:"answer_explanation"`
	MaxMarks           float64  `json:"max_marks" validate:"gte=0"`
}

// AntiCheatRequest configures anti-cheat thresholds.
type AntiCheatRequest struct {
	MaxTabSwitches *int  `json:"max_tab_switches" validate:"omitempty,gte=0"`
	AllowCopyPaste *bool `json:"allow_copy_paste"`
}

// AssignmentCreateRequest is the admin payload for creating an assignment.
type AssignmentCreateRequest struct {
	ModuleID         uint              `json:"module_id" validate:"required,gt=0"`
	Type             string            `json:"type" validate:"required,oneof=theory practical"`
	Description      string            `json:"description"`
	Questions        []QuestionRequest `json:"questions" validate:"omitempty,dive"`
	MaxScore         *float64          `json:"max_score" validate:"omitempty,gte=0"`
	TimeLimitMinutes *int              `json:"time_limit_minutes" validate:"omitempty,gt=0"`
	AntiCheat        *AntiCheatRequest `json:"anti_cheat_config"`
}

// AssignmentUpdateRequest is the admin payload for editing an assignment.
type AssignmentUpdateRequest struct {
	Type             *string           `json:"type" validate:"omitempty,oneof=theory practical"`
	Description      *string           `json:"description"`
	Questions        []QuestionRequest `json:"questions" validate:"omitempty,dive"`
	MaxScore         *float64          `json:"max_score" validate:"omitempty,gte=0"`
	TimeLimitMinutes *int              `json:"time_limit_minutes" validate:"omitempty,gt=0"`
	AntiCheat        *AntiCheatRequest `json:"anti_cheat_config"`
}

// QuestionView is a question as shown to a student, without the answer key.
type QuestionView struct {
	ID       string   `json:"id"`
	Type     string   `json:"q_type"`
	Text     string   `json:"question_text"`
	Options  []string `json:"options,omitempty"`
	MaxMarks float64  `json:"max_marks"`
}

// AssignmentResponse is the full assignment view for staff.
type AssignmentResponse struct {
	ID               uint                   `json:"id"`
	CourseID         uint                   `json:"course_id"`
	ModuleID         uint                   `json:"module_id"`
	Type             string                 `json:"type"`
	Description      string                 `json:"description"`
	Questions        []models.Question      `json:"questions"`
	MaxScore         float64                `json:"max_score"`
	TimeLimitMinutes int                    `json:"time_limit_minutes"`
	AntiCheat        models.AntiCheatConfig `json:"anti_cheat_config"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at"`
}

// StudentAssignmentResponse hides correct answers.
type StudentAssignmentResponse struct {
	ID               uint                   `json:"id"`
	ModuleID         uint                   `json:"module_id"`
	Type             string                 `json:"type"`
	Description      string                 `json:"description"`
	Questions        []QuestionView         `json:"questions"`
	MaxScore         float64                `json:"max_score"`
	TimeLimitMinutes int                    `json:"time_limit_minutes"`
	AntiCheat        models.AntiCheatConfig `json:"anti_cheat_config"`
}

// NewAssignmentResponse converts an Assignment model into a DTO.
func NewAssignmentResponse(model models.Assignment) AssignmentResponse {
	questions := make([]models.Question, 0, len(model.Questions))
	questions = append(questions, model.Questions...)

	return AssignmentResponse{
		ID:               model.ID,
		CourseID:         model.CourseID,
		ModuleID:         model.ModuleID,
		Type:             string(model.Type),
		Description:      model.Description,
		Questions:        questions,
		MaxScore:         model.DerivedMaxScore(),
		TimeLimitMinutes: model.TimeLimitMinutes,
		AntiCheat:        model.AntiCheat,
		CreatedAt:        model.CreatedAt,
		UpdatedAt:        model.UpdatedAt,
	}
}

// NewStudentAssignmentResponse builds the answer-free student view.
func NewStudentAssignmentResponse(model models.Assignment) StudentAssignmentResponse {
	questions := make([]QuestionView, 0, len(model.Questions))
	for _, q := range model.Questions {
		questions = append(questions, QuestionView{
			ID:       q.ID,
			Type:     string(q.Type),
			Text:     q.Text,
			Options:  q.Options,
			MaxMarks: q.MaxMarks,
		})
	}

	return StudentAssignmentResponse{
		ID:               model.ID,
		ModuleID:         model.ModuleID,
		Type:             string(model.Type),
		Description:      model.Description,
		Questions:        questions,
		MaxScore:         model.DerivedMaxScore(),
		TimeLimitMinutes: model.TimeLimitMinutes,
		AntiCheat:        model.AntiCheat,
	}
}
