package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/certify-api/internal/models"
)

// VerifierRequestRepository persists verifier applications.
type VerifierRequestRepository interface {
	Create(ctx context.Context, request *models.VerifierRequest) error
	GetByID(ctx context.Context, id uint) (models.VerifierRequest, error)
	List(ctx context.Context, status *models.VerifierRequestStatus) ([]models.VerifierRequest, error)
	Update(ctx context.Context, request *models.VerifierRequest) error
	Accept(ctx context.Context, request *models.VerifierRequest) (models.User, error)
}

type verifierRequestRepository struct {
	db *gorm.DB
}

// NewVerifierRequestRepository instantiates the repository.
func NewVerifierRequestRepository(db *gorm.DB) VerifierRequestRepository {
	return &verifierRequestRepository{db: db}
}

func (r *verifierRequestRepository) Create(ctx context.Context, request *models.VerifierRequest) error {
	return r.db.WithContext(ctx).Create(request).Error
}

func (r *verifierRequestRepository) GetByID(ctx context.Context, id uint) (models.VerifierRequest, error) {
	var request models.VerifierRequest
	if err := r.db.WithContext(ctx).First(&request, id).Error; err != nil {
		return models.VerifierRequest{}, err
	}
	return request, nil
}

func (r *verifierRequestRepository) List(ctx context.Context, status *models.VerifierRequestStatus) ([]models.VerifierRequest, error) {
	query := r.db.WithContext(ctx).Model(&models.VerifierRequest{})
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var requests []models.VerifierRequest
	if err := query.Order("created_at DESC").Order("id DESC").Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *verifierRequestRepository) Update(ctx context.Context, request *models.VerifierRequest) error {
	return r.db.WithContext(ctx).Save(request).Error
}

// Accept promotes or creates the applicant's account as a verifier and saves
// the processed request in one transaction. The caller sets the request's
// status and processing fields beforehand.
func (r *verifierRequestRepository) Accept(ctx context.Context, request *models.VerifierRequest) (models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("LOWER(email) = ?", strings.ToLower(request.Email)).First(&user).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			user = models.User{Email: request.Email}
		case err != nil:
			return err
		}

		user.Name = request.Name
		user.College = request.College
		if request.Phone != "" {
			user.Mobile = request.Phone
		}
		user.Role = models.RoleVerifier
		user.Active = true
		if err := tx.Save(&user).Error; err != nil {
			return err
		}

		request.UserID = &user.ID
		return tx.Save(request).Error
	})
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}
