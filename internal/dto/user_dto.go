package dto

import (
	"time"

	"github.com/noah-isme/certify-api/internal/models"
)

// PaginationMeta describes a page of a listing.
type PaginationMeta struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

// UserListRequest defines filters for listing users.
type UserListRequest struct {
	Role      string
	College   string
	ClassYear string
	Active    *bool
	Page      int
	PageSize  int
}

// UpdateUserRequest carries the admin-editable user fields.
type UpdateUserRequest struct {
	Role      *string `json:"role" validate:"omitempty,oneof=student verifier admin"`
	Active    *bool   `json:"active"`
	College   *string `json:"college" validate:"omitempty,max=255"`
	ClassYear *string `json:"class_year" validate:"omitempty,max=32"`
	Mobile    *string `json:"mobile" validate:"omitempty,max=32"`
}

// UserResponse is the admin view of a user.
type UserResponse struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	ClassYear string    `json:"class_year"`
	College   string    `json:"college"`
	Mobile    string    `json:"mobile"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewUserResponse converts a User model into a DTO.
func NewUserResponse(model models.User) UserResponse {
	return UserResponse{
		ID:        model.ID,
		Name:      model.Name,
		Email:     model.Email,
		Role:      string(model.Role),
		ClassYear: model.ClassYear,
		College:   model.College,
		Mobile:    model.Mobile,
		Active:    model.Active,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

// UserListResponse is a page of users.
type UserListResponse struct {
	Items      []UserResponse `json:"items"`
	Pagination PaginationMeta `json:"pagination"`
}

// CreateVerifierRequest is a public application to become a verifier.
type CreateVerifierRequest struct {
	Name    string `json:"name" validate:"required,max=255"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone" validate:"omitempty,max=32"`
	College string `json:"college" validate:"required,max=255"`
}

// VerifierRequestResponse is the API view of a verifier application.
type VerifierRequestResponse struct {
	ID            uint       `json:"id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	Phone         string     `json:"phone"`
	College       string     `json:"college"`
	Status        string     `json:"status"`
	ProcessedByID *uint      `json:"processed_by_id"`
	ProcessedAt   *time.Time `json:"processed_at"`
	UserID        *uint      `json:"user_id"`
	CreatedAt     time.Time  `json:"created_at"`
}

// NewVerifierRequestResponse converts a VerifierRequest model into a DTO.
func NewVerifierRequestResponse(model models.VerifierRequest) VerifierRequestResponse {
	return VerifierRequestResponse{
		ID:            model.ID,
		Name:          model.Name,
		Email:         model.Email,
		Phone:         model.Phone,
		College:       model.College,
		Status:        string(model.Status),
		ProcessedByID: model.ProcessedByID,
		ProcessedAt:   model.ProcessedAt,
		UserID:        model.UserID,
		CreatedAt:     model.CreatedAt,
	}
}

// AcceptVerifierResponse reports the processed request and the verifier account.
type AcceptVerifierResponse struct {
	Request VerifierRequestResponse `json:"request"`
	User    UserResponse            `json:"user"`
}
