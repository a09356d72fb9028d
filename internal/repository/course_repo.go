package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/certify-api/internal/models"
)

// CourseRepository defines persistence operations for courses and their structure.
type CourseRepository interface {
	GetByID(ctx context.Context, id uint) (models.Course, error)
	List(ctx context.Context, status *models.CourseStatus) ([]models.Course, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	ReplaceVerifiers(ctx context.Context, course *models.Course, verifiers []models.User) error
	ListForVerifier(ctx context.Context, verifierID uint) ([]models.Course, error)
	ListDueForResults(ctx context.Context, now time.Time) ([]models.Course, error)
	MarkResultsGenerated(ctx context.Context, id uint) error
	CreateLesson(ctx context.Context, lesson *models.Lesson) error
	GetLesson(ctx context.Context, id uint) (models.Lesson, error)
	ListLessons(ctx context.Context, courseID uint) ([]models.Lesson, error)
	CreateModule(ctx context.Context, module *models.Module) error
	GetModule(ctx context.Context, id uint) (models.Module, error)
}

type courseRepository struct {
	db *gorm.DB
}

// NewCourseRepository instantiates a GORM-backed repository.
func NewCourseRepository(db *gorm.DB) CourseRepository {
	return &courseRepository{db: db}
}

func (r *courseRepository) GetByID(ctx context.Context, id uint) (models.Course, error) {
	var course models.Course
	if err := r.db.WithContext(ctx).Preload("Verifiers").First(&course, id).Error; err != nil {
		return models.Course{}, err
	}
	return course, nil
}

func (r *courseRepository) List(ctx context.Context, status *models.CourseStatus) ([]models.Course, error) {
	query := r.db.WithContext(ctx).Preload("Verifiers").Order("created_at DESC")
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var courses []models.Course
	if err := query.Find(&courses).Error; err != nil {
		return nil, err
	}
	return courses, nil
}

func (r *courseRepository) Create(ctx context.Context, course *models.Course) error {
	return r.db.WithContext(ctx).Create(course).Error
}

func (r *courseRepository) Update(ctx context.Context, course *models.Course) error {
	return r.db.WithContext(ctx).Omit("Verifiers").Save(course).Error
}

func (r *courseRepository) ReplaceVerifiers(ctx context.Context, course *models.Course, verifiers []models.User) error {
	return r.db.WithContext(ctx).Model(course).Association("Verifiers").Replace(verifiers)
}

func (r *courseRepository) ListForVerifier(ctx context.Context, verifierID uint) ([]models.Course, error) {
	var courses []models.Course
	err := r.db.WithContext(ctx).
		Joins("JOIN course_verifiers cv ON cv.course_id = courses.id").
		Where("cv.user_id = ?", verifierID).
		Where("courses.status <> ?", models.CourseStatusArchived).
		Order("courses.created_at DESC").
		Find(&courses).Error
	if err != nil {
		return nil, err
	}
	return courses, nil
}

func (r *courseRepository) ListDueForResults(ctx context.Context, now time.Time) ([]models.Course, error) {
	var courses []models.Course
	err := r.db.WithContext(ctx).
		Where("status = ?", models.CourseStatusPublished).
		Where("results_generated = ?", false).
		Where("end_at IS NOT NULL AND end_at <= ?", now).
		Find(&courses).Error
	if err != nil {
		return nil, err
	}
	return courses, nil
}

func (r *courseRepository) MarkResultsGenerated(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Model(&models.Course{}).Where("id = ?", id).Update("results_generated", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *courseRepository) CreateLesson(ctx context.Context, lesson *models.Lesson) error {
	return r.db.WithContext(ctx).Create(lesson).Error
}

func (r *courseRepository) GetLesson(ctx context.Context, id uint) (models.Lesson, error) {
	var lesson models.Lesson
	if err := r.db.WithContext(ctx).First(&lesson, id).Error; err != nil {
		return models.Lesson{}, err
	}
	return lesson, nil
}

func (r *courseRepository) ListLessons(ctx context.Context, courseID uint) ([]models.Lesson, error) {
	var lessons []models.Lesson
	err := r.db.WithContext(ctx).
		Preload("Modules", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC, id ASC")
		}).
		Where("course_id = ?", courseID).
		Order("position ASC, id ASC").
		Find(&lessons).Error
	if err != nil {
		return nil, err
	}
	return lessons, nil
}

func (r *courseRepository) CreateModule(ctx context.Context, module *models.Module) error {
	return r.db.WithContext(ctx).Create(module).Error
}

func (r *courseRepository) GetModule(ctx context.Context, id uint) (models.Module, error) {
	var module models.Module
	if err := r.db.WithContext(ctx).First(&module, id).Error; err != nil {
		return models.Module{}, err
	}
	return module, nil
}
