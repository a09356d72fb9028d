package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/certify-api/internal/models"
)

// EnrollmentScores are the aggregate scores stored on an enrollment.
type EnrollmentScores struct {
	Theory    float64
	Practical float64
	Final     float64
}

func (s EnrollmentScores) columns() map[string]interface{} {
	return map[string]interface{}{
		"theory_score":    s.Theory,
		"practical_score": s.Practical,
		"final_score":     s.Final,
	}
}

// EnrollmentFilter narrows enrollment listings.
type EnrollmentFilter struct {
	CourseID   *uint
	StudentID  *uint
	VerifierID *uint
	Status     *models.EnrollmentStatus
}

// EnrollmentRepository defines persistence operations for enrollments.
type EnrollmentRepository interface {
	GetByID(ctx context.Context, id uint) (models.Enrollment, error)
	GetByStudentAndCourse(ctx context.Context, studentID, courseID uint) (models.Enrollment, error)
	LatestForStudent(ctx context.Context, studentID uint) (models.Enrollment, error)
	List(ctx context.Context, filter EnrollmentFilter) ([]models.Enrollment, error)
	Create(ctx context.Context, enrollment *models.Enrollment) error
	Update(ctx context.Context, enrollment *models.Enrollment) error
	UpdateScores(ctx context.Context, id uint, scores EnrollmentScores) error
}

type enrollmentRepository struct {
	db *gorm.DB
}

// NewEnrollmentRepository instantiates the repository.
func NewEnrollmentRepository(db *gorm.DB) EnrollmentRepository {
	return &enrollmentRepository{db: db}
}

func (r *enrollmentRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Enrollment{}).Preload("Course")
}

func (r *enrollmentRepository) GetByID(ctx context.Context, id uint) (models.Enrollment, error) {
	var enrollment models.Enrollment
	if err := r.baseQuery(ctx).First(&enrollment, id).Error; err != nil {
		return models.Enrollment{}, err
	}
	return enrollment, nil
}

func (r *enrollmentRepository) GetByStudentAndCourse(ctx context.Context, studentID, courseID uint) (models.Enrollment, error) {
	var enrollment models.Enrollment
	if err := r.baseQuery(ctx).
		Where("student_id = ? AND course_id = ?", studentID, courseID).
		First(&enrollment).Error; err != nil {
		return models.Enrollment{}, err
	}
	return enrollment, nil
}

func (r *enrollmentRepository) LatestForStudent(ctx context.Context, studentID uint) (models.Enrollment, error) {
	var enrollment models.Enrollment
	if err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("created_at DESC").
		First(&enrollment).Error; err != nil {
		return models.Enrollment{}, err
	}
	return enrollment, nil
}

func (r *enrollmentRepository) List(ctx context.Context, filter EnrollmentFilter) ([]models.Enrollment, error) {
	query := r.baseQuery(ctx)
	if filter.CourseID != nil {
		query = query.Where("course_id = ?", *filter.CourseID)
	}
	if filter.StudentID != nil {
		query = query.Where("student_id = ?", *filter.StudentID)
	}
	if filter.VerifierID != nil {
		query = query.Where("verifier_id = ?", *filter.VerifierID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var enrollments []models.Enrollment
	if err := query.Order("enrolled_at DESC").Find(&enrollments).Error; err != nil {
		return nil, err
	}
	return enrollments, nil
}

func (r *enrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	return r.db.WithContext(ctx).Omit("Course", "Student").Create(enrollment).Error
}

func (r *enrollmentRepository) Update(ctx context.Context, enrollment *models.Enrollment) error {
	return r.db.WithContext(ctx).Omit("Course", "Student").Save(enrollment).Error
}

func (r *enrollmentRepository) UpdateScores(ctx context.Context, id uint, scores EnrollmentScores) error {
	result := r.db.WithContext(ctx).Model(&models.Enrollment{}).Where("id = ?", id).Updates(scores.columns())
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
