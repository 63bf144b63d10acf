package service

import (
	"context"
	"errors"
	"testing"

	"github.com/kennymark/bossman/internal/model"
	"github.com/kennymark/bossman/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAuditService_Record(t *testing.T) {
	t.Run("appends an event", func(t *testing.T) {
		mockAudits := new(MockAuditRepository)
		mockAudits.On("Create", mock.Anything, mock.MatchedBy(func(e *repository.AuditEvent) bool {
			return e.UserID == "user-1" && e.Event == model.AuditTeamCreated &&
				e.EntityType == "team" && e.EntityID == "team-1"
		})).Return(nil)

		service := NewAuditService().WithAuditRepo(mockAudits)
		service.Record(context.Background(), "user-1", model.AuditTeamCreated, "team", "team-1")

		mockAudits.AssertExpectations(t)
	})

	t.Run("a failed write is swallowed", func(t *testing.T) {
		mockAudits := new(MockAuditRepository)
		mockAudits.On("Create", mock.Anything, mock.Anything).Return(errors.New("db error"))

		service := NewAuditService().WithAuditRepo(mockAudits)
		service.Record(context.Background(), "user-1", model.AuditTeamCreated, "team", "team-1")

		mockAudits.AssertExpectations(t)
	})
}

func TestAuditService_ListEvents(t *testing.T) {
	tests := []struct {
		name          string
		page          int
		perPage       int
		event         string
		entityType    string
		setupMocks    func(*MockAuditRepository)
		expectedError bool
		expectedPage  int
		expectedPer   int
	}{
		{
			name:       "events are scoped to the caller",
			page:       1,
			perPage:    20,
			event:      model.AuditMemberRemoved,
			entityType: "member",
			setupMocks: func(ar *MockAuditRepository) {
				ar.On("ListByUser", mock.Anything, "admin-1", model.AuditMemberRemoved, "member", 20, 0).
					Return([]*repository.AuditEvent{
						{ID: "audit-1", UserID: "admin-1", Event: model.AuditMemberRemoved, EntityType: "member", EntityID: "member-1"},
					}, 1, nil)
			},
			expectedPage: 1,
			expectedPer:  20,
		},
		{
			name:    "page and size are clamped",
			page:    -3,
			perPage: 500,
			setupMocks: func(ar *MockAuditRepository) {
				ar.On("ListByUser", mock.Anything, "admin-1", "", "", 100, 0).
					Return([]*repository.AuditEvent{}, 0, nil)
			},
			expectedPage: 1,
			expectedPer:  100,
		},
		{
			name:    "store failure",
			page:    1,
			perPage: 20,
			setupMocks: func(ar *MockAuditRepository) {
				ar.On("ListByUser", mock.Anything, "admin-1", "", "", 20, 0).
					Return(nil, 0, errors.New("db error"))
			},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockAudits := new(MockAuditRepository)
			tt.setupMocks(mockAudits)

			service := NewAuditService().WithAuditRepo(mockAudits)

			page, err := service.ListEvents(context.Background(), adminCaller, tt.event, tt.entityType, tt.page, tt.perPage)

			if tt.expectedError {
				require.Error(t, err)
				assert.Equal(t, ErrorCodeUnspecified, err.Code)
			} else {
				require.Nil(t, err)
				assert.Equal(t, tt.expectedPage, page.Page)
				assert.Equal(t, tt.expectedPer, page.PerPage)
			}

			mockAudits.AssertExpectations(t)
		})
	}
}
