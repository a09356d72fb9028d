package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/certify-api/internal/models"
)

// CertificateRepository persists certificates. Uniqueness of enrollment,
// certificate number and verification hash is enforced by the store and
// surfaces as gorm.ErrDuplicatedKey.
type CertificateRepository interface {
	Issue(ctx context.Context, certificate *models.Certificate, scores EnrollmentScores) error
	GetByID(ctx context.Context, id uint) (models.Certificate, error)
	GetByEnrollment(ctx context.Context, enrollmentID uint) (models.Certificate, error)
	GetByHash(ctx context.Context, hash string) (models.Certificate, error)
	ListByStudent(ctx context.Context, studentID uint) ([]models.Certificate, error)
	Update(ctx context.Context, certificate *models.Certificate) error
}

type certificateRepository struct {
	db *gorm.DB
}

// NewCertificateRepository instantiates the repository.
func NewCertificateRepository(db *gorm.DB) CertificateRepository {
	return &certificateRepository{db: db}
}

func (r *certificateRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Certificate{}).
		Preload("Student").
		Preload("Course")
}

// Issue inserts the certificate and freezes the enrollment scores in one transaction.
func (r *certificateRepository) Issue(ctx context.Context, certificate *models.Certificate, scores EnrollmentScores) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(certificate).Error; err != nil {
			return err
		}

		result := tx.Model(&models.Enrollment{}).Where("id = ?", certificate.EnrollmentID).Updates(scores.columns())
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *certificateRepository) GetByID(ctx context.Context, id uint) (models.Certificate, error) {
	var certificate models.Certificate
	if err := r.baseQuery(ctx).First(&certificate, id).Error; err != nil {
		return models.Certificate{}, err
	}
	return certificate, nil
}

func (r *certificateRepository) GetByEnrollment(ctx context.Context, enrollmentID uint) (models.Certificate, error) {
	var certificate models.Certificate
	if err := r.baseQuery(ctx).Where("enrollment_id = ?", enrollmentID).First(&certificate).Error; err != nil {
		return models.Certificate{}, err
	}
	return certificate, nil
}

func (r *certificateRepository) GetByHash(ctx context.Context, hash string) (models.Certificate, error) {
	var certificate models.Certificate
	if err := r.baseQuery(ctx).Where("verification_hash = ?", hash).First(&certificate).Error; err != nil {
		return models.Certificate{}, err
	}
	return certificate, nil
}

func (r *certificateRepository) ListByStudent(ctx context.Context, studentID uint) ([]models.Certificate, error) {
	var certificates []models.Certificate
	if err := r.baseQuery(ctx).Where("student_id = ?", studentID).Order("issue_date DESC").Find(&certificates).Error; err != nil {
		return nil, err
	}
	return certificates, nil
}

// Update writes only the mutable columns of a certificate.
func (r *certificateRepository) Update(ctx context.Context, certificate *models.Certificate) error {
	return r.db.WithContext(ctx).Model(&models.Certificate{}).
		Where("id = ?", certificate.ID).
		Updates(map[string]interface{}{
			"status":            certificate.Status,
			"download_url":      certificate.DownloadURL,
			"revoked_at":        certificate.RevokedAt,
			"revocation_reason": certificate.RevocationReason,
		}).Error
}
