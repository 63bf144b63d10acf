package service

import (
	"context"
	"errors"
	"testing"

	"github.com/kennymark/bossman/internal/access"
	"github.com/kennymark/bossman/internal/model"
	"github.com/kennymark/bossman/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	adminCaller = Caller{ID: "admin-1", Role: model.UserRoleAdmin}
	userCaller  = Caller{ID: "user-1", Role: model.UserRoleUser}
)

func TestTeamService_ListTeams(t *testing.T) {
	tests := []struct {
		name          string
		caller        Caller
		kind          model.TeamKind
		setupMocks    func(*MockTeamRepository, *MockAccessResolver)
		expectedError bool
		errorCode     ErrorCode
		expectedLen   int
	}{
		{
			name:   "ordinary teams listed by membership",
			caller: userCaller,
			kind:   model.TeamKindUser,
			setupMocks: func(tr *MockTeamRepository, ar *MockAccessResolver) {
				tr.On("ListByUser", mock.Anything, "user-1", "user").Return([]*repository.Team{
					{ID: "team-1", Kind: "user", Name: "backend"},
					{ID: "team-2", Kind: "user", Name: "frontend"},
				}, nil)
			},
			expectedLen: 2,
		},
		{
			name:          "admin kind requires global admin",
			caller:        userCaller,
			kind:          model.TeamKindAdmin,
			setupMocks:    func(tr *MockTeamRepository, ar *MockAccessResolver) {},
			expectedError: true,
			errorCode:     ErrorCodeForbidden,
		},
		{
			name:   "admin kind requires teams page key",
			caller: adminCaller,
			kind:   model.TeamKindAdmin,
			setupMocks: func(tr *MockTeamRepository, ar *MockAccessResolver) {
				ar.On("Resolve", mock.Anything, "admin-1").
					Return(access.RestrictedTo(access.PageKeyUsers), nil)
			},
			expectedError: true,
			errorCode:     ErrorCodeForbidden,
		},
		{
			name:   "admin team created lazily on first access",
			caller: adminCaller,
			kind:   model.TeamKindAdmin,
			setupMocks: func(tr *MockTeamRepository, ar *MockAccessResolver) {
				ar.On("Resolve", mock.Anything, "admin-1").
					Return(access.Unrestricted(), nil)
				tr.On("EnsureAdminTeam", mock.Anything, "admin-1").
					Return(&repository.Team{ID: "admin-team", Kind: "admin", Name: "Admin"}, nil)
			},
			expectedLen: 1,
		},
		{
			name:   "restricted admin with teams key is allowed",
			caller: adminCaller,
			kind:   model.TeamKindAdmin,
			setupMocks: func(tr *MockTeamRepository, ar *MockAccessResolver) {
				ar.On("Resolve", mock.Anything, "admin-1").
					Return(access.RestrictedTo(access.PageKeyTeams), nil)
				tr.On("EnsureAdminTeam", mock.Anything, "admin-1").
					Return(&repository.Team{ID: "admin-team", Kind: "admin", Name: "Admin"}, nil)
			},
			expectedLen: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockTeams := new(MockTeamRepository)
			mockResolver := new(MockAccessResolver)
			tt.setupMocks(mockTeams, mockResolver)

			service := NewTeamService(new(MockTransactor)).
				WithTeamRepo(mockTeams).
				WithAccessResolver(mockResolver)

			teams, err := service.ListTeams(context.Background(), tt.caller, tt.kind)

			if tt.expectedError {
				require.Error(t, err)
				assert.Equal(t, tt.errorCode, err.Code)
			} else {
				require.Nil(t, err)
				assert.Len(t, teams, tt.expectedLen)
			}

			mockTeams.AssertExpectations(t)
			mockResolver.AssertExpectations(t)
		})
	}
}

func TestTeamService_CreateTeam(t *testing.T) {
	tests := []struct {
		name          string
		kind          model.TeamKind
		setupMocks    func(*MockTeamRepository, *MockMembershipRepository)
		expectedError bool
		errorCode     ErrorCode
	}{
		{
			name: "success creates team and owner membership",
			kind: model.TeamKindUser,
			setupMocks: func(tr *MockTeamRepository, mr *MockMembershipRepository) {
				tr.On("Create", mock.Anything, mock.MatchedBy(func(team *repository.Team) bool {
					return team.Name == "backend" && team.Kind == "user"
				})).Run(func(args mock.Arguments) {
					args.Get(1).(*repository.Team).ID = "team-1"
				}).Return(nil)

				mr.On("Create", mock.Anything, mock.MatchedBy(func(m *repository.TeamMember) bool {
					return m.TeamID == "team-1" && m.UserID == "user-1" &&
						m.Role == "owner" && m.AllowedPages == nil
				})).Return(nil)
			},
		},
		{
			name:          "admin kind rejected",
			kind:          model.TeamKindAdmin,
			setupMocks:    func(tr *MockTeamRepository, mr *MockMembershipRepository) {},
			expectedError: true,
			errorCode:     ErrorCodeInvalidBody,
		},
		{
			name: "duplicate team",
			kind: model.TeamKindUser,
			setupMocks: func(tr *MockTeamRepository, mr *MockMembershipRepository) {
				tr.On("Create", mock.Anything, mock.Anything).Return(repository.ErrAlreadyExists)
			},
			expectedError: true,
			errorCode:     ErrorCodeTeamExists,
		},
		{
			name: "membership failure",
			kind: model.TeamKindUser,
			setupMocks: func(tr *MockTeamRepository, mr *MockMembershipRepository) {
				tr.On("Create", mock.Anything, mock.Anything).Return(nil)
				mr.On("Create", mock.Anything, mock.Anything).Return(errors.New("db error"))
			},
			expectedError: true,
			errorCode:     ErrorCodeUnspecified,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockTeams := new(MockTeamRepository)
			mockMemberships := new(MockMembershipRepository)
			tt.setupMocks(mockTeams, mockMemberships)

			service := NewTeamService(new(MockTransactor)).
				WithTeamRepo(mockTeams).
				WithMembershipRepo(mockMemberships)

			team, err := service.CreateTeam(context.Background(), userCaller, "backend", tt.kind)

			if tt.expectedError {
				require.Error(t, err)
				assert.Equal(t, tt.errorCode, err.Code)
			} else {
				require.Nil(t, err)
				require.NotNil(t, team)
				assert.Equal(t, "team-1", team.ID)
				assert.Equal(t, "backend", team.Name)
			}

			mockTeams.AssertExpectations(t)
			mockMemberships.AssertExpectations(t)
		})
	}
}

func TestTeamService_UpdateMemberPages(t *testing.T) {
	adminTeam := &repository.Team{ID: "admin-team", Kind: "admin", Name: "Admin"}

	tests := []struct {
		name          string
		caller        Caller
		pages         []access.PageKey
		setupMocks    func(*MockTeamRepository, *MockMembershipRepository, *MockAccessResolver)
		expectedError bool
		errorCode     ErrorCode
	}{
		{
			name:   "success",
			caller: adminCaller,
			pages:  []access.PageKey{access.PageKeyUsers, access.PageKeyBlog},
			setupMocks: func(tr *MockTeamRepository, mr *MockMembershipRepository, ar *MockAccessResolver) {
				tr.On("Get", mock.Anything, "admin-team").Return(adminTeam, nil)
				ar.On("Resolve", mock.Anything, "admin-1").Return(access.Unrestricted(), nil)
				mr.On("Get", mock.Anything, "member-1").
					Return(&repository.TeamMember{ID: "member-1", TeamID: "admin-team", Role: "member"}, nil)
				mr.On("SetAllowedPages", mock.Anything, "member-1", []string{"admin_users", "admin_blog"}).
					Return(&repository.TeamMember{
						ID: "member-1", TeamID: "admin-team", Role: "member",
						AllowedPages: []string{"admin_users", "admin_blog"},
					}, nil)
			},
		},
		{
			name:   "unknown page key rejected",
			caller: adminCaller,
			pages:  []access.PageKey{"admin_billing"},
			setupMocks: func(tr *MockTeamRepository, mr *MockMembershipRepository, ar *MockAccessResolver) {
				tr.On("Get", mock.Anything, "admin-team").Return(adminTeam, nil)
				ar.On("Resolve", mock.Anything, "admin-1").Return(access.Unrestricted(), nil)
			},
			expectedError: true,
			errorCode:     ErrorCodeInvalidBody,
		},
		{
			name:   "member of another team reads as not found",
			caller: adminCaller,
			pages:  []access.PageKey{access.PageKeyUsers},
			setupMocks: func(tr *MockTeamRepository, mr *MockMembershipRepository, ar *MockAccessResolver) {
				tr.On("Get", mock.Anything, "admin-team").Return(adminTeam, nil)
				ar.On("Resolve", mock.Anything, "admin-1").Return(access.Unrestricted(), nil)
				mr.On("Get", mock.Anything, "member-1").
					Return(&repository.TeamMember{ID: "member-1", TeamID: "other-team", Role: "member"}, nil)
			},
			expectedError: true,
			errorCode:     ErrorCodeNotFound,
		},
		{
			name:   "non-admin caller forbidden on admin team",
			caller: userCaller,
			pages:  []access.PageKey{access.PageKeyUsers},
			setupMocks: func(tr *MockTeamRepository, mr *MockMembershipRepository, ar *MockAccessResolver) {
				tr.On("Get", mock.Anything, "admin-team").Return(adminTeam, nil)
			},
			expectedError: true,
			errorCode:     ErrorCodeForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockTeams := new(MockTeamRepository)
			mockMemberships := new(MockMembershipRepository)
			mockResolver := new(MockAccessResolver)
			tt.setupMocks(mockTeams, mockMemberships, mockResolver)

			service := NewTeamService(new(MockTransactor)).
				WithTeamRepo(mockTeams).
				WithMembershipRepo(mockMemberships).
				WithAccessResolver(mockResolver)

			member, err := service.UpdateMemberPages(context.Background(), tt.caller, "admin-team", "member-1", tt.pages)

			if tt.expectedError {
				require.Error(t, err)
				assert.Equal(t, tt.errorCode, err.Code)
			} else {
				require.Nil(t, err)
				require.NotNil(t, member)
				assert.Equal(t, tt.pages, member.AllowedPages)
			}

			mockTeams.AssertExpectations(t)
			mockMemberships.AssertExpectations(t)
			mockResolver.AssertExpectations(t)
		})
	}
}

func TestTeamService_ListMembers(t *testing.T) {
	ordinaryTeam := &repository.Team{ID: "team-1", Kind: "user", Name: "backend"}

	tests := []struct {
		name          string
		caller        Caller
		setupMocks    func(*MockTeamRepository, *MockMembershipRepository, *MockInvitationRepository)
		expectedError bool
		errorCode     ErrorCode
		expectedTotal int
	}{
		{
			name:   "member sees members and pending invitations",
			caller: userCaller,
			setupMocks: func(tr *MockTeamRepository, mr *MockMembershipRepository, ir *MockInvitationRepository) {
				tr.On("Get", mock.Anything, "team-1").Return(ordinaryTeam, nil)
				mr.On("IsMember", mock.Anything, "team-1", "user-1").Return(true, nil)
				mr.On("ListByTeam", mock.Anything, "team-1", "", 10, 0).Return([]*repository.TeamMember{
					{ID: "member-1", TeamID: "team-1", UserID: "user-1", Role: "owner", Email: "john@example.com"},
				}, 1, nil)
				ir.On("ListPendingByTeam", mock.Anything, "team-1", "").Return([]*repository.TeamInvitation{
					{ID: "inv-1", TeamID: "team-1", Email: "jane@example.com", Role: "member"},
				}, nil)
			},
			expectedTotal: 1,
		},
		{
			name:   "non-member forbidden",
			caller: userCaller,
			setupMocks: func(tr *MockTeamRepository, mr *MockMembershipRepository, ir *MockInvitationRepository) {
				tr.On("Get", mock.Anything, "team-1").Return(ordinaryTeam, nil)
				mr.On("IsMember", mock.Anything, "team-1", "user-1").Return(false, nil)
			},
			expectedError: true,
			errorCode:     ErrorCodeForbidden,
		},
		{
			name:   "unknown team",
			caller: userCaller,
			setupMocks: func(tr *MockTeamRepository, mr *MockMembershipRepository, ir *MockInvitationRepository) {
				tr.On("Get", mock.Anything, "team-1").Return(nil, repository.ErrNotFound)
			},
			expectedError: true,
			errorCode:     ErrorCodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockTeams := new(MockTeamRepository)
			mockMemberships := new(MockMembershipRepository)
			mockInvitations := new(MockInvitationRepository)
			tt.setupMocks(mockTeams, mockMemberships, mockInvitations)

			service := NewTeamService(new(MockTransactor)).
				WithTeamRepo(mockTeams).
				WithMembershipRepo(mockMemberships).
				WithInvitationRepo(mockInvitations)

			page, err := service.ListMembers(context.Background(), tt.caller, "team-1", 1, 10, "")

			if tt.expectedError {
				require.Error(t, err)
				assert.Equal(t, tt.errorCode, err.Code)
			} else {
				require.Nil(t, err)
				assert.Equal(t, tt.expectedTotal, page.Total)
				assert.Len(t, page.Members, 1)
				assert.Len(t, page.Invitations, 1)
			}

			mockTeams.AssertExpectations(t)
			mockMemberships.AssertExpectations(t)
			mockInvitations.AssertExpectations(t)
		})
	}
}

func TestTeamService_Invite(t *testing.T) {
	ordinaryTeam := &repository.Team{ID: "team-1", Kind: "user", Name: "backend"}
	ownerMember := &repository.TeamMember{ID: "member-1", TeamID: "team-1", UserID: "user-1", Role: "owner"}

	tests := []struct {
		name          string
		setupMocks    func(*MockTeamRepository, *MockMembershipRepository, *MockInvitationRepository, *MockUserRepository, *MockAuditRecorder)
		expectedError bool
		errorCode     ErrorCode
	}{
		{
			name: "success for an unknown email records an audit event",
			setupMocks: func(tr *MockTeamRepository, mr *MockMembershipRepository, ir *MockInvitationRepository, ur *MockUserRepository, rec *MockAuditRecorder) {
				tr.On("Get", mock.Anything, "team-1").Return(ordinaryTeam, nil)
				mr.On("GetByTeamAndUser", mock.Anything, "team-1", "user-1").Return(ownerMember, nil)
				ur.On("GetByEmail", mock.Anything, "jane@example.com").Return(nil, repository.ErrNotFound)
				ir.On("Create", mock.Anything, mock.MatchedBy(func(inv *repository.TeamInvitation) bool {
					return inv.TeamID == "team-1" && inv.Email == "jane@example.com" &&
						inv.Role == "member" && inv.Token != ""
				})).Run(func(args mock.Arguments) {
					args.Get(1).(*repository.TeamInvitation).ID = "inv-1"
				}).Return(nil)
				rec.On("Record", mock.Anything, "user-1", model.AuditInvitationCreated, "invitation", "inv-1")
			},
		},
		{
			name: "invited email already belongs to a member",
			setupMocks: func(tr *MockTeamRepository, mr *MockMembershipRepository, ir *MockInvitationRepository, ur *MockUserRepository, rec *MockAuditRecorder) {
				tr.On("Get", mock.Anything, "team-1").Return(ordinaryTeam, nil)
				mr.On("GetByTeamAndUser", mock.Anything, "team-1", "user-1").Return(ownerMember, nil)
				ur.On("GetByEmail", mock.Anything, "jane@example.com").
					Return(&repository.User{ID: "user-2", Email: "jane@example.com"}, nil)
				mr.On("IsMember", mock.Anything, "team-1", "user-2").Return(true, nil)
			},
			expectedError: true,
			errorCode:     ErrorCodeAlreadyMember,
		},
		{
			name: "pending invitation already exists",
			setupMocks: func(tr *MockTeamRepository, mr *MockMembershipRepository, ir *MockInvitationRepository, ur *MockUserRepository, rec *MockAuditRecorder) {
				tr.On("Get", mock.Anything, "team-1").Return(ordinaryTeam, nil)
				mr.On("GetByTeamAndUser", mock.Anything, "team-1", "user-1").Return(ownerMember, nil)
				ur.On("GetByEmail", mock.Anything, "jane@example.com").Return(nil, repository.ErrNotFound)
				ir.On("Create", mock.Anything, mock.Anything).Return(repository.ErrAlreadyExists)
			},
			expectedError: true,
			errorCode:     ErrorCodeInviteExists,
		},
		{
			name: "non-owner cannot invite",
			setupMocks: func(tr *MockTeamRepository, mr *MockMembershipRepository, ir *MockInvitationRepository, ur *MockUserRepository, rec *MockAuditRecorder) {
				tr.On("Get", mock.Anything, "team-1").Return(ordinaryTeam, nil)
				mr.On("GetByTeamAndUser", mock.Anything, "team-1", "user-1").
					Return(&repository.TeamMember{ID: "member-1", TeamID: "team-1", UserID: "user-1", Role: "member"}, nil)
			},
			expectedError: true,
			errorCode:     ErrorCodeForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockTeams := new(MockTeamRepository)
			mockMemberships := new(MockMembershipRepository)
			mockInvitations := new(MockInvitationRepository)
			mockUsers := new(MockUserRepository)
			mockRecorder := new(MockAuditRecorder)
			tt.setupMocks(mockTeams, mockMemberships, mockInvitations, mockUsers, mockRecorder)

			service := NewTeamService(new(MockTransactor)).
				WithTeamRepo(mockTeams).
				WithMembershipRepo(mockMemberships).
				WithInvitationRepo(mockInvitations).
				WithUserRepo(mockUsers).
				WithAuditRecorder(mockRecorder)

			inv, err := service.Invite(context.Background(), userCaller, "team-1", "jane@example.com",
				model.TeamRoleMember, nil)

			if tt.expectedError {
				require.Error(t, err)
				assert.Equal(t, tt.errorCode, err.Code)
			} else {
				require.Nil(t, err)
				require.NotNil(t, inv)
				assert.Equal(t, "inv-1", inv.ID)
			}

			mockTeams.AssertExpectations(t)
			mockMemberships.AssertExpectations(t)
			mockInvitations.AssertExpectations(t)
			mockUsers.AssertExpectations(t)
			mockRecorder.AssertExpectations(t)
		})
	}
}

func TestTeamService_RemoveMember(t *testing.T) {
	ordinaryTeam := &repository.Team{ID: "team-1", Kind: "user", Name: "backend"}
	ownerMember := &repository.TeamMember{ID: "member-1", TeamID: "team-1", UserID: "user-1", Role: "owner"}

	t.Run("removal records an audit event", func(t *testing.T) {
		mockTeams := new(MockTeamRepository)
		mockMemberships := new(MockMembershipRepository)
		mockRecorder := new(MockAuditRecorder)

		mockTeams.On("Get", mock.Anything, "team-1").Return(ordinaryTeam, nil)
		mockMemberships.On("GetByTeamAndUser", mock.Anything, "team-1", "user-1").Return(ownerMember, nil)
		mockMemberships.On("Get", mock.Anything, "member-2").
			Return(&repository.TeamMember{ID: "member-2", TeamID: "team-1", UserID: "user-2", Role: "member"}, nil)
		mockMemberships.On("Delete", mock.Anything, "member-2").Return(nil)
		mockRecorder.On("Record", mock.Anything, "user-1", model.AuditMemberRemoved, "member", "member-2")

		service := NewTeamService(new(MockTransactor)).
			WithTeamRepo(mockTeams).
			WithMembershipRepo(mockMemberships).
			WithAuditRecorder(mockRecorder)

		err := service.RemoveMember(context.Background(), userCaller, "team-1", "member-2")

		require.Nil(t, err)
		mockTeams.AssertExpectations(t)
		mockMemberships.AssertExpectations(t)
		mockRecorder.AssertExpectations(t)
	})

	t.Run("owners cannot be removed", func(t *testing.T) {
		mockTeams := new(MockTeamRepository)
		mockMemberships := new(MockMembershipRepository)

		mockTeams.On("Get", mock.Anything, "team-1").Return(ordinaryTeam, nil)
		mockMemberships.On("GetByTeamAndUser", mock.Anything, "team-1", "user-1").Return(ownerMember, nil)
		mockMemberships.On("Get", mock.Anything, "member-1").Return(ownerMember, nil)

		service := NewTeamService(new(MockTransactor)).
			WithTeamRepo(mockTeams).
			WithMembershipRepo(mockMemberships)

		err := service.RemoveMember(context.Background(), userCaller, "team-1", "member-1")

		require.Error(t, err)
		assert.Equal(t, ErrorCodeForbidden, err.Code)
	})
}

func TestTeamService_UpdateInvitationPages(t *testing.T) {
	adminTeam := &repository.Team{ID: "admin-team", Kind: "admin", Name: "Admin"}

	mockTeams := new(MockTeamRepository)
	mockInvitations := new(MockInvitationRepository)
	mockResolver := new(MockAccessResolver)

	mockTeams.On("Get", mock.Anything, "admin-team").Return(adminTeam, nil)
	mockResolver.On("Resolve", mock.Anything, "admin-1").Return(access.Unrestricted(), nil)
	mockInvitations.On("SetAllowedPages", mock.Anything, "admin-team", "inv-1", []string{"admin_blog"}).
		Return(&repository.TeamInvitation{
			ID: "inv-1", TeamID: "admin-team", Email: "jane@example.com",
			Role: "member", AllowedPages: []string{"admin_blog"},
		}, nil)

	service := NewTeamService(new(MockTransactor)).
		WithTeamRepo(mockTeams).
		WithInvitationRepo(mockInvitations).
		WithAccessResolver(mockResolver)

	inv, err := service.UpdateInvitationPages(context.Background(), adminCaller, "admin-team", "inv-1",
		[]access.PageKey{access.PageKeyBlog})

	require.Nil(t, err)
	assert.Equal(t, []access.PageKey{access.PageKeyBlog}, inv.AllowedPages)

	mockTeams.AssertExpectations(t)
	mockInvitations.AssertExpectations(t)
	mockResolver.AssertExpectations(t)
}

func TestTeamService_AcceptInvitation(t *testing.T) {
	pending := &repository.TeamInvitation{
		ID:           "inv-1",
		TeamID:       "team-1",
		Email:        "john@example.com",
		Role:         "member",
		AllowedPages: []string{"admin_users"},
		Token:        "tok-1",
	}

	tests := []struct {
		name          string
		setupMocks    func(*MockInvitationRepository, *MockMembershipRepository, *MockUserRepository)
		expectedError bool
		errorCode     ErrorCode
	}{
		{
			name: "success copies role and pages onto membership",
			setupMocks: func(ir *MockInvitationRepository, mr *MockMembershipRepository, ur *MockUserRepository) {
				ir.On("GetPendingByToken", mock.Anything, "tok-1").Return(pending, nil)
				ur.On("Get", mock.Anything, "user-1").
					Return(&repository.User{ID: "user-1", Email: "john@example.com"}, nil)
				mr.On("Create", mock.Anything, mock.MatchedBy(func(m *repository.TeamMember) bool {
					return m.TeamID == "team-1" && m.UserID == "user-1" &&
						m.Role == "member" && len(m.AllowedPages) == 1
				})).Return(nil)
				ir.On("MarkAccepted", mock.Anything, "inv-1", mock.Anything).Return(nil)
			},
		},
		{
			name: "unknown token",
			setupMocks: func(ir *MockInvitationRepository, mr *MockMembershipRepository, ur *MockUserRepository) {
				ir.On("GetPendingByToken", mock.Anything, "tok-1").Return(nil, repository.ErrNotFound)
			},
			expectedError: true,
			errorCode:     ErrorCodeNotFound,
		},
		{
			name: "email mismatch",
			setupMocks: func(ir *MockInvitationRepository, mr *MockMembershipRepository, ur *MockUserRepository) {
				ir.On("GetPendingByToken", mock.Anything, "tok-1").Return(pending, nil)
				ur.On("Get", mock.Anything, "user-1").
					Return(&repository.User{ID: "user-1", Email: "jane@example.com"}, nil)
			},
			expectedError: true,
			errorCode:     ErrorCodeForbidden,
		},
		{
			name: "already a member",
			setupMocks: func(ir *MockInvitationRepository, mr *MockMembershipRepository, ur *MockUserRepository) {
				ir.On("GetPendingByToken", mock.Anything, "tok-1").Return(pending, nil)
				ur.On("Get", mock.Anything, "user-1").
					Return(&repository.User{ID: "user-1", Email: "john@example.com"}, nil)
				mr.On("Create", mock.Anything, mock.Anything).Return(repository.ErrAlreadyExists)
			},
			expectedError: true,
			errorCode:     ErrorCodeAlreadyMember,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockInvitations := new(MockInvitationRepository)
			mockMemberships := new(MockMembershipRepository)
			mockUsers := new(MockUserRepository)
			tt.setupMocks(mockInvitations, mockMemberships, mockUsers)

			service := NewTeamService(new(MockTransactor)).
				WithInvitationRepo(mockInvitations).
				WithMembershipRepo(mockMemberships).
				WithUserRepo(mockUsers)

			member, err := service.AcceptInvitation(context.Background(), userCaller, "tok-1")

			if tt.expectedError {
				require.Error(t, err)
				assert.Equal(t, tt.errorCode, err.Code)
			} else {
				require.Nil(t, err)
				require.NotNil(t, member)
				assert.Equal(t, []access.PageKey{access.PageKeyUsers}, member.AllowedPages)
			}

			mockInvitations.AssertExpectations(t)
			mockMemberships.AssertExpectations(t)
			mockUsers.AssertExpectations(t)
		})
	}
}
