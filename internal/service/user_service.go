package service

import (
	"context"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/certify-api/internal/dto"
	"github.com/noah-isme/certify-api/internal/models"
	"github.com/noah-isme/certify-api/internal/repository"
)

const (
	defaultUserPageSize = 20
	maxUserPageSize     = 100
)

// UserService is the admin surface over platform accounts.
type UserService interface {
	List(ctx context.Context, actor Actor, req dto.UserListRequest) (dto.UserListResponse, error)
	Update(ctx context.Context, actor Actor, id uint, payload dto.UpdateUserRequest) (dto.UserResponse, error)
	Deactivate(ctx context.Context, actor Actor, id uint) (dto.UserResponse, error)
}

type userService struct {
	users     repository.UserRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewUserService constructs a UserService.
func NewUserService(users repository.UserRepository, validate *validator.Validate, logger zerolog.Logger) UserService {
	return &userService{
		users:     users,
		validator: validate,
		logger:    logger.With().Str("component", "user_service").Logger(),
	}
}

func (s *userService) List(ctx context.Context, actor Actor, req dto.UserListRequest) (dto.UserListResponse, error) {
	if err := actor.require(models.CapManageUsers); err != nil {
		return dto.UserListResponse{}, err
	}

	page := maxInt(req.Page, 1)
	pageSize := req.PageSize
	switch {
	case pageSize <= 0:
		pageSize = defaultUserPageSize
	case pageSize > maxUserPageSize:
		pageSize = maxUserPageSize
	}

	filter := repository.UserFilter{
		College:   strings.TrimSpace(req.College),
		ClassYear: strings.TrimSpace(req.ClassYear),
		Active:    req.Active,
		Page:      page,
		PageSize:  pageSize,
	}
	if raw := strings.TrimSpace(req.Role); raw != "" {
		role, ok := models.ParseRole(raw)
		if !ok {
			return dto.UserListResponse{}, ErrInvalidRole
		}
		filter.Role = &role
	}

	users, total, err := s.users.List(ctx, filter)
	if err != nil {
		return dto.UserListResponse{}, err
	}

	items := make([]dto.UserResponse, 0, len(users))
	for _, user := range users {
		items = append(items, dto.NewUserResponse(user))
	}

	return dto.UserListResponse{
		Items: items,
		Pagination: dto.PaginationMeta{
			Page:       page,
			PageSize:   pageSize,
			TotalItems: total,
			TotalPages: int(math.Ceil(float64(total) / float64(pageSize))),
		},
	}, nil
}

func (s *userService) Update(ctx context.Context, actor Actor, id uint, payload dto.UpdateUserRequest) (dto.UserResponse, error) {
	if err := actor.require(models.CapManageUsers); err != nil {
		return dto.UserResponse{}, err
	}
	if err := s.validator.Struct(payload); err != nil {
		return dto.UserResponse{}, err
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return dto.UserResponse{}, notFoundAs(err, ErrUserNotFound)
	}

	if payload.Role != nil {
		role, ok := models.ParseRole(*payload.Role)
		if !ok {
			return dto.UserResponse{}, ErrInvalidRole
		}
		user.Role = role
	}
	if payload.Active != nil {
		if !*payload.Active && user.ID == actor.ID {
			return dto.UserResponse{}, ErrCannotDeactivateSelf
		}
		user.Active = *payload.Active
	}
	if payload.College != nil {
		user.College = strings.TrimSpace(*payload.College)
	}
	if payload.ClassYear != nil {
		user.ClassYear = strings.TrimSpace(*payload.ClassYear)
	}
	if payload.Mobile != nil {
		user.Mobile = strings.TrimSpace(*payload.Mobile)
	}

	if err := s.users.Update(ctx, &user); err != nil {
		return dto.UserResponse{}, err
	}

	s.logger.Info().Uint("user_id", user.ID).Uint("actor_id", actor.ID).Str("role", string(user.Role)).Msg("user updated")
	return dto.NewUserResponse(user), nil
}

// Deactivate disables an account without deleting it.
func (s *userService) Deactivate(ctx context.Context, actor Actor, id uint) (dto.UserResponse, error) {
	if err := actor.require(models.CapManageUsers); err != nil {
		return dto.UserResponse{}, err
	}
	if id == actor.ID {
		return dto.UserResponse{}, ErrCannotDeactivateSelf
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return dto.UserResponse{}, notFoundAs(err, ErrUserNotFound)
	}
	if !user.Active {
		return dto.NewUserResponse(user), nil
	}

	user.Active = false
	if err := s.users.Update(ctx, &user); err != nil {
		return dto.UserResponse{}, err
	}

	s.logger.Info().Uint("user_id", user.ID).Uint("actor_id", actor.ID).Msg("user deactivated")
	return dto.NewUserResponse(user), nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
