package models

import (
	"time"

	"gorm.io/datatypes"
)

// AssignmentType selects the scoring track an assignment contributes to.
type AssignmentType string

const (
	AssignmentTypeTheory    AssignmentType = "theory"
	AssignmentTypePractical AssignmentType = "practical"
)

// QuestionType determines how a question is auto-graded.
type QuestionType string

const (
	QuestionTypeMCQ   QuestionType = "mcq"
	QuestionTypeShort QuestionType = "short"
	QuestionTypeCode  QuestionType = "code"
)

// Question is a single gradable item of an assignment.
type Question struct {
	ID                 string       `json:"id"`
	Type               QuestionType `json:"q_type"`
	Text               string       `json:"question_text"`
	Options            []string     `json:"options,omitempty"`
	CorrectOptionIndex *int         `json:"correct_option_index,omitempty"`
	AnswerExplanation  string       `json:"answer_explanation,omitempty"`
	MaxMarks           float64      `json:"max_marks"`
}

// AntiCheatConfig bounds the behaviour tolerated during an attempt.
type AntiCheatConfig struct {
	MaxTabSwitches int  `gorm:"not null;default:3" json:"max_tab_switches"`
	AllowCopyPaste bool `gorm:"not null;default:false" json:"allow_copy_paste"`
}

// Assignment is the graded exercise attached to a module.
type Assignment struct {
	ID               uint                          `gorm:"primaryKey" json:"id"`
	CourseID         uint                          `gorm:"not null;index" json:"course_id"`
	ModuleID         uint                          `gorm:"not null;uniqueIndex" json:"module_id"`
	Type             AssignmentType                `gorm:"size:16;not null" json:"type"`
	Description      string                        `gorm:"type:text" json:"description"`
	Questions        datatypes.JSONSlice[Question] `json:"questions"`
	MaxScore         float64                       `gorm:"not null;default:0" json:"max_score"`
	TimeLimitMinutes int                           `gorm:"not null;default:60" json:"time_limit_minutes"`
	AntiCheat        AntiCheatConfig               `gorm:"embedded;embeddedPrefix:anti_cheat_" json:"anti_cheat_config"`
	CreatedAt        time.Time                     `json:"created_at"`
	UpdatedAt        time.Time                     `json:"updated_at"`
}

// DerivedMaxScore is the authoritative cap: the sum of question marks, or the
// stored value for question-less practical tasks.
func (a Assignment) DerivedMaxScore() float64 {
	if len(a.Questions) == 0 {
		return a.MaxScore
	}
	var total float64
	for _, q := range a.Questions {
		total += q.MaxMarks
	}
	return total
}

// Question returns the question with the given id.
func (a Assignment) Question(id string) (Question, bool) {
	for _, q := range a.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}
