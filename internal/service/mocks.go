package service

import (
	"context"
	"time"

	"github.com/kennymark/bossman/internal/access"
	"github.com/kennymark/bossman/internal/repository"
	"github.com/stretchr/testify/mock"
)

type MockTransactor struct {
	mock.Mock
}

func (m *MockTransactor) WithinTransaction(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

type MockTeamRepository struct {
	mock.Mock
}

func (m *MockTeamRepository) Create(ctx context.Context, team *repository.Team) error {
	args := m.Called(ctx, team)
	return args.Error(0)
}

func (m *MockTeamRepository) Get(ctx context.Context, id string) (*repository.Team, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.Team), args.Error(1)
}

func (m *MockTeamRepository) ListByUser(ctx context.Context, userID, kind string) ([]*repository.Team, error) {
	args := m.Called(ctx, userID, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*repository.Team), args.Error(1)
}

func (m *MockTeamRepository) EnsureAdminTeam(ctx context.Context, createdByUserID string) (*repository.Team, error) {
	args := m.Called(ctx, createdByUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.Team), args.Error(1)
}

func (m *MockTeamRepository) CountByKind(ctx context.Context, kind string) (int, error) {
	args := m.Called(ctx, kind)
	return args.Int(0), args.Error(1)
}

type MockMembershipRepository struct {
	mock.Mock
}

func (m *MockMembershipRepository) Create(ctx context.Context, member *repository.TeamMember) error {
	args := m.Called(ctx, member)
	return args.Error(0)
}

func (m *MockMembershipRepository) Get(ctx context.Context, id string) (*repository.TeamMember, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.TeamMember), args.Error(1)
}

func (m *MockMembershipRepository) ListByUserAndTeamKind(ctx context.Context, userID, kind string) ([]*repository.TeamMember, error) {
	args := m.Called(ctx, userID, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*repository.TeamMember), args.Error(1)
}

func (m *MockMembershipRepository) ListByTeam(ctx context.Context, teamID, search string, limit, offset int) ([]*repository.TeamMember, int, error) {
	args := m.Called(ctx, teamID, search, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*repository.TeamMember), args.Int(1), args.Error(2)
}

func (m *MockMembershipRepository) GetByTeamAndUser(ctx context.Context, teamID, userID string) (*repository.TeamMember, error) {
	args := m.Called(ctx, teamID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.TeamMember), args.Error(1)
}

func (m *MockMembershipRepository) IsMember(ctx context.Context, teamID, userID string) (bool, error) {
	args := m.Called(ctx, teamID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockMembershipRepository) SetAllowedPages(ctx context.Context, id string, pages []string) (*repository.TeamMember, error) {
	args := m.Called(ctx, id, pages)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.TeamMember), args.Error(1)
}

func (m *MockMembershipRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockInvitationRepository struct {
	mock.Mock
}

func (m *MockInvitationRepository) Create(ctx context.Context, inv *repository.TeamInvitation) error {
	args := m.Called(ctx, inv)
	return args.Error(0)
}

func (m *MockInvitationRepository) GetPendingByToken(ctx context.Context, token string) (*repository.TeamInvitation, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.TeamInvitation), args.Error(1)
}

func (m *MockInvitationRepository) ListPendingByTeam(ctx context.Context, teamID, search string) ([]*repository.TeamInvitation, error) {
	args := m.Called(ctx, teamID, search)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*repository.TeamInvitation), args.Error(1)
}

func (m *MockInvitationRepository) SetAllowedPages(ctx context.Context, teamID, id string, pages []string) (*repository.TeamInvitation, error) {
	args := m.Called(ctx, teamID, id, pages)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.TeamInvitation), args.Error(1)
}

func (m *MockInvitationRepository) MarkAccepted(ctx context.Context, id string, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Get(ctx context.Context, userID string) (*repository.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*repository.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.User), args.Error(1)
}

func (m *MockUserRepository) Upsert(ctx context.Context, user *repository.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) List(ctx context.Context, search string, limit, offset int) ([]*repository.User, int, error) {
	args := m.Called(ctx, search, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*repository.User), args.Int(1), args.Error(2)
}

type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) Create(ctx context.Context, event *repository.AuditEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockAuditRepository) ListByUser(ctx context.Context, userID, event, entityType string, limit, offset int) ([]*repository.AuditEvent, int, error) {
	args := m.Called(ctx, userID, event, entityType, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*repository.AuditEvent), args.Int(1), args.Error(2)
}

type MockAuditRecorder struct {
	mock.Mock
}

func (m *MockAuditRecorder) Record(ctx context.Context, userID, event, entityType, entityID string) {
	m.Called(ctx, userID, event, entityType, entityID)
}

type MockAccessResolver struct {
	mock.Mock
}

func (m *MockAccessResolver) Resolve(ctx context.Context, userID string) (access.Decision, *Error) {
	args := m.Called(ctx, userID)
	if args.Get(1) == nil {
		return args.Get(0).(access.Decision), nil
	}
	return args.Get(0).(access.Decision), args.Get(1).(*Error)
}
