package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/certify-api/internal/dto"
	"github.com/noah-isme/certify-api/internal/models"
)

func seedUsers(s *store) (admin models.User) {
	admin = s.addUser(models.User{Name: "Admin", Email: "admin@example.com", Role: models.RoleAdmin})
	for i := 0; i < 5; i++ {
		s.addUser(models.User{
			Name:      fmt.Sprintf("North %d", i),
			Email:     fmt.Sprintf("north%d@example.com", i),
			Role:      models.RoleStudent,
			College:   "North Engineering College",
			ClassYear: "2026",
		})
	}
	s.addUser(models.User{Name: "South", Email: "south@example.com", Role: models.RoleStudent, College: "South Arts", ClassYear: "2025"})
	s.addUser(models.User{Name: "Grace", Email: "grace@example.com", Role: models.RoleVerifier, College: "North Engineering College"})
	return admin
}

func TestUserListFiltersAndPaginates(t *testing.T) {
	s := newStore()
	admin := seedUsers(s)
	svc := NewUserService(fakeUserRepo{s: s}, testValidator(), testLogger())
	actor := Actor{ID: admin.ID, Role: models.RoleAdmin}
	ctx := context.Background()

	page, err := svc.List(ctx, actor, dto.UserListRequest{Role: "student", College: "north", Page: 2, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	require.Equal(t, dto.PaginationMeta{Page: 2, PageSize: 2, TotalItems: 5, TotalPages: 3}, page.Pagination)
	for _, user := range page.Items {
		require.Equal(t, "student", user.Role)
		require.Equal(t, "North Engineering College", user.College)
	}

	last, err := svc.List(ctx, actor, dto.UserListRequest{Role: "student", College: "north", Page: 3, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, last.Items, 1)

	byYear, err := svc.List(ctx, actor, dto.UserListRequest{ClassYear: "2025"})
	require.NoError(t, err)
	require.Len(t, byYear.Items, 1)
	require.Equal(t, "south@example.com", byYear.Items[0].Email)
	require.Equal(t, defaultUserPageSize, byYear.Pagination.PageSize)
	require.Equal(t, 1, byYear.Pagination.Page)

	capped, err := svc.List(ctx, actor, dto.UserListRequest{PageSize: 1000})
	require.NoError(t, err)
	require.Equal(t, maxUserPageSize, capped.Pagination.PageSize)
	require.Equal(t, int64(8), capped.Pagination.TotalItems)

	_, err = svc.List(ctx, actor, dto.UserListRequest{Role: "janitor"})
	require.ErrorIs(t, err, ErrInvalidRole)

	_, err = svc.List(ctx, Actor{ID: 99, Role: models.RoleVerifier}, dto.UserListRequest{})
	require.ErrorIs(t, err, ErrCapabilityDenied)
}

func TestUserUpdate(t *testing.T) {
	s := newStore()
	admin := seedUsers(s)
	svc := NewUserService(fakeUserRepo{s: s}, testValidator(), testLogger())
	actor := Actor{ID: admin.ID, Role: models.RoleAdmin}
	ctx := context.Background()
	target := s.addUser(models.User{Name: "Target", Email: "target@example.com", Role: models.RoleStudent})

	updated, err := svc.Update(ctx, actor, target.ID, dto.UpdateUserRequest{
		Role:      ptr("verifier"),
		College:   ptr("  West College "),
		ClassYear: ptr("2027"),
		Mobile:    ptr("+15550123"),
	})
	require.NoError(t, err)
	require.Equal(t, "verifier", updated.Role)
	require.Equal(t, "West College", updated.College)
	require.Equal(t, models.RoleVerifier, s.users[target.ID].Role)
	require.Equal(t, "+15550123", s.users[target.ID].Mobile)
	require.True(t, s.users[target.ID].Active)

	_, err = svc.Update(ctx, actor, target.ID, dto.UpdateUserRequest{Role: ptr("janitor")})
	require.Error(t, err)

	_, err = svc.Update(ctx, actor, admin.ID, dto.UpdateUserRequest{Active: ptr(false)})
	require.ErrorIs(t, err, ErrCannotDeactivateSelf)
	require.True(t, s.users[admin.ID].Active)

	_, err = svc.Update(ctx, actor, 9999, dto.UpdateUserRequest{Mobile: ptr("1")})
	require.ErrorIs(t, err, ErrUserNotFound)

	_, err = svc.Update(ctx, Actor{ID: target.ID, Role: models.RoleStudent}, target.ID, dto.UpdateUserRequest{Role: ptr("admin")})
	require.ErrorIs(t, err, ErrCapabilityDenied)
	require.Equal(t, models.RoleVerifier, s.users[target.ID].Role)
}

func TestUserDeactivate(t *testing.T) {
	s := newStore()
	admin := seedUsers(s)
	svc := NewUserService(fakeUserRepo{s: s}, testValidator(), testLogger())
	actor := Actor{ID: admin.ID, Role: models.RoleAdmin}
	ctx := context.Background()
	target := s.addUser(models.User{Name: "Target", Email: "target@example.com", Role: models.RoleStudent})

	user, err := svc.Deactivate(ctx, actor, target.ID)
	require.NoError(t, err)
	require.False(t, user.Active)
	require.False(t, s.users[target.ID].Active)
	require.Equal(t, target.Email, s.users[target.ID].Email)

	again, err := svc.Deactivate(ctx, actor, target.ID)
	require.NoError(t, err)
	require.False(t, again.Active)

	inactive, err := svc.List(ctx, actor, dto.UserListRequest{Active: ptr(false)})
	require.NoError(t, err)
	require.Len(t, inactive.Items, 1)

	_, err = svc.Deactivate(ctx, actor, admin.ID)
	require.ErrorIs(t, err, ErrCannotDeactivateSelf)

	_, err = svc.Deactivate(ctx, actor, 9999)
	require.ErrorIs(t, err, ErrUserNotFound)
}
