package service

import (
	"context"

	"github.com/kennymark/bossman/internal/model"
	"github.com/kennymark/bossman/internal/repository"
	"github.com/kennymark/bossman/pkg/logger"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type UserService struct {
	users repository.UserRepository
	teams repository.TeamRepository
}

func NewUserService() *UserService {
	return &UserService{}
}

func (u *UserService) GetUser(ctx context.Context, userID string) (*model.User, *Error) {
	user, err := u.users.Get(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, NewError(ErrorCodeNotFound, "user not found")
	}
	if err != nil {
		logger.FromContext(ctx).Error("failed to get user", zap.String("user_id", userID), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to get user")
	}
	return mapUser(user), nil
}

func (u *UserService) ListUsers(ctx context.Context, page, perPage int, search string) (*model.UsersPage, *Error) {
	l := logger.FromContext(ctx)

	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if perPage > 100 {
		perPage = 100
	}

	users, total, err := u.users.List(ctx, search, perPage, (page-1)*perPage)
	if err != nil {
		l.Error("failed to list users", zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to list users")
	}

	result := &model.UsersPage{
		Users:   make([]*model.User, 0, len(users)),
		Page:    page,
		PerPage: perPage,
		Total:   total,
	}
	for _, user := range users {
		result.Users = append(result.Users, mapUser(user))
	}

	return result, nil
}

// DashboardSummary backs the admin dashboard page.
func (u *UserService) DashboardSummary(ctx context.Context) (*model.DashboardSummary, *Error) {
	l := logger.FromContext(ctx)

	_, usersTotal, err := u.users.List(ctx, "", 1, 0)
	if err != nil {
		l.Error("failed to count users", zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to load dashboard")
	}

	teamsTotal, err := u.teams.CountByKind(ctx, string(model.TeamKindUser))
	if err != nil {
		l.Error("failed to count teams", zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to load dashboard")
	}

	return &model.DashboardSummary{
		Users: usersTotal,
		Teams: teamsTotal,
	}, nil
}

// SyncProfile upserts the caller's user row from their verified claims and
// submitted profile fields. Invitation acceptance matches on this row's
// email, so callers must sync before redeeming an invitation.
func (u *UserService) SyncProfile(ctx context.Context, caller Caller, email, fullName string) (*model.User, *Error) {
	user := &repository.User{
		ID:       caller.ID,
		Email:    email,
		FullName: fullName,
		Role:     string(caller.Role),
	}

	if err := u.users.Upsert(ctx, user); err != nil {
		logger.FromContext(ctx).Error("failed to sync profile", zap.String("user_id", caller.ID), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to sync profile")
	}

	return mapUser(user), nil
}

func (u *UserService) WithUserRepo(r repository.UserRepository) *UserService {
	u.users = r
	return u
}

func (u *UserService) WithTeamRepo(r repository.TeamRepository) *UserService {
	u.teams = r
	return u
}

func mapUser(user *repository.User) *model.User {
	return &model.User{
		ID:       user.ID,
		Email:    user.Email,
		FullName: user.FullName,
		Role:     model.UserRole(user.Role),
	}
}
