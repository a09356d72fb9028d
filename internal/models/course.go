package models

import "time"

// CourseStatus tracks the publication lifecycle of a course.
type CourseStatus string

const (
	CourseStatusDraft     CourseStatus = "draft"
	CourseStatusPublished CourseStatus = "published"
	CourseStatusArchived  CourseStatus = "archived"
)

// Course groups lessons, assignments and the verifiers allowed to certify it.
type Course struct {
	ID                  uint         `gorm:"primaryKey" json:"id"`
	Title               string       `gorm:"size:255;not null" json:"title"`
	Code                string       `gorm:"size:64;uniqueIndex;not null" json:"code"`
	Description         string       `gorm:"type:text" json:"description"`
	Category            string       `gorm:"size:128" json:"category"`
	Level               string       `gorm:"size:64" json:"level"`
	Status              CourseStatus `gorm:"size:16;not null;default:draft;index" json:"status"`
	HasPracticalSession bool         `gorm:"not null;default:false" json:"has_practical_session"`
	ResultsGenerated    bool         `gorm:"not null;default:false" json:"results_generated"`
	StartAt             *time.Time   `json:"start_at"`
	EndAt               *time.Time   `json:"end_at"`
	CreatedBy           uint         `gorm:"index" json:"created_by"`
	Verifiers           []User       `gorm:"many2many:course_verifiers" json:"verifiers,omitempty"`
	CreatedAt           time.Time    `json:"created_at"`
	UpdatedAt           time.Time    `json:"updated_at"`
}

// IsPublished reports whether students can complete the course.
func (c Course) IsPublished() bool {
	return c.Status == CourseStatusPublished
}

// HasVerifier reports whether the user is one of the course's verifiers.
func (c Course) HasVerifier(userID uint) bool {
	for _, v := range c.Verifiers {
		if v.ID == userID {
			return true
		}
	}
	return false
}

// Lesson is an ordered section of a course.
type Lesson struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CourseID  uint      `gorm:"not null;index" json:"course_id"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Position  int       `gorm:"not null;default:0" json:"position"`
	Modules   []Module  `json:"modules,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Module is a unit of content inside a lesson with at most one assignment.
type Module struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	LessonID  uint      `gorm:"not null;index" json:"lesson_id"`
	CourseID  uint      `gorm:"not null;index" json:"course_id"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Content   string    `gorm:"type:text" json:"content"`
	Position  int       `gorm:"not null;default:0" json:"position"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
