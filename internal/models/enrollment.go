package models

import "time"

// EnrollmentStatus tracks a student's progress through a course.
type EnrollmentStatus string

const (
	EnrollmentStatusOngoing   EnrollmentStatus = "ongoing"
	EnrollmentStatusCompleted EnrollmentStatus = "completed"
	EnrollmentStatusFailed    EnrollmentStatus = "failed"
	EnrollmentStatusRetake    EnrollmentStatus = "retake"
)

// ProfileSnapshot is the student profile captured at enrollment time.
type ProfileSnapshot struct {
	Name      string `gorm:"size:255" json:"name"`
	Email     string `gorm:"size:255" json:"email"`
	ClassYear string `gorm:"size:32" json:"class_year"`
	College   string `gorm:"size:255" json:"college"`
	Mobile    string `gorm:"size:32" json:"mobile"`
}

// Enrollment is a student's attempt at one course and the unit of certification.
type Enrollment struct {
	ID             uint             `gorm:"primaryKey" json:"id"`
	StudentID      uint             `gorm:"not null;uniqueIndex:idx_enrollment_student_course" json:"student_id"`
	CourseID       uint             `gorm:"not null;uniqueIndex:idx_enrollment_student_course;index" json:"course_id"`
	VerifierID     *uint            `gorm:"index" json:"verifier_id"`
	Profile        ProfileSnapshot  `gorm:"embedded;embeddedPrefix:profile_" json:"profile_snapshot"`
	Status         EnrollmentStatus `gorm:"size:16;not null;default:ongoing;index" json:"status"`
	TheoryScore    float64          `gorm:"not null;default:0" json:"theory_score"`
	PracticalScore float64          `gorm:"not null;default:0" json:"practical_score"`
	FinalScore     float64          `gorm:"not null;default:0" json:"final_score"`
	EnrolledAt     time.Time        `gorm:"not null" json:"enrolled_at"`
	CompletedAt    *time.Time       `json:"completed_at"`
	LastAccessAt   time.Time        `json:"last_access_at"`
	RetakeOfID     *uint            `json:"retake_of_id"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
	Course         Course           `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"course"`
	Student        User             `gorm:"foreignKey:StudentID" json:"-"`
}

// IsCompleted reports whether the enrollment is ready for certification.
func (e Enrollment) IsCompleted() bool {
	return e.Status == EnrollmentStatusCompleted
}
