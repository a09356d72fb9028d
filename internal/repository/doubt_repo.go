package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/certify-api/internal/models"
)

// DoubtFilter narrows doubt listings. VerifierID matches doubts routed to the
// verifier and doubts on courses the verifier is assigned to.
type DoubtFilter struct {
	StudentID  *uint
	VerifierID *uint
	CourseID   *uint
	Status     *models.DoubtStatus
}

// DoubtRepository persists doubts and their answers.
type DoubtRepository interface {
	Create(ctx context.Context, doubt *models.Doubt) error
	GetByID(ctx context.Context, id uint) (models.Doubt, error)
	List(ctx context.Context, filter DoubtFilter) ([]models.Doubt, error)
	AddAnswer(ctx context.Context, answer *models.DoubtAnswer, status models.DoubtStatus) error
	UpdateStatus(ctx context.Context, id uint, status models.DoubtStatus) error
}

type doubtRepository struct {
	db *gorm.DB
}

// NewDoubtRepository instantiates the repository.
func NewDoubtRepository(db *gorm.DB) DoubtRepository {
	return &doubtRepository{db: db}
}

func (r *doubtRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Doubt{}).
		Preload("Course").
		Preload("Answers", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC").Order("id ASC")
		})
}

func (r *doubtRepository) Create(ctx context.Context, doubt *models.Doubt) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(doubt).Error
}

func (r *doubtRepository) GetByID(ctx context.Context, id uint) (models.Doubt, error) {
	var doubt models.Doubt
	if err := r.baseQuery(ctx).First(&doubt, id).Error; err != nil {
		return models.Doubt{}, err
	}
	return doubt, nil
}

func (r *doubtRepository) List(ctx context.Context, filter DoubtFilter) ([]models.Doubt, error) {
	query := r.baseQuery(ctx)
	if filter.StudentID != nil {
		query = query.Where("student_id = ?", *filter.StudentID)
	}
	if filter.VerifierID != nil {
		assigned := r.db.Table("course_verifiers").Select("course_id").Where("user_id = ?", *filter.VerifierID)
		query = query.Where("(verifier_id = ? OR course_id IN (?))", *filter.VerifierID, assigned)
	}
	if filter.CourseID != nil {
		query = query.Where("course_id = ?", *filter.CourseID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var doubts []models.Doubt
	if err := query.Order("created_at DESC").Order("id DESC").Find(&doubts).Error; err != nil {
		return nil, err
	}
	return doubts, nil
}

// AddAnswer stores the answer and moves the doubt to status in one transaction.
func (r *doubtRepository) AddAnswer(ctx context.Context, answer *models.DoubtAnswer, status models.DoubtStatus) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(answer).Error; err != nil {
			return err
		}

		result := tx.Model(&models.Doubt{}).Where("id = ?", answer.DoubtID).Update("status", status)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *doubtRepository) UpdateStatus(ctx context.Context, id uint, status models.DoubtStatus) error {
	result := r.db.WithContext(ctx).Model(&models.Doubt{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
