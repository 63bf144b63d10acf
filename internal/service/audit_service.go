package service

import (
	"context"

	"github.com/kennymark/bossman/internal/model"
	"github.com/kennymark/bossman/internal/repository"
	"github.com/kennymark/bossman/pkg/logger"
	"go.uber.org/zap"
)

// AuditRecorder appends an event to the audit trail. Recording is
// best-effort: a failed write must never fail the operation being audited.
type AuditRecorder interface {
	Record(ctx context.Context, userID, event, entityType, entityID string)
}

type AuditService struct {
	audits repository.AuditRepository
}

func NewAuditService() *AuditService {
	return &AuditService{}
}

func (s *AuditService) Record(ctx context.Context, userID, event, entityType, entityID string) {
	err := s.audits.Create(ctx, &repository.AuditEvent{
		UserID:     userID,
		Event:      event,
		EntityType: entityType,
		EntityID:   entityID,
	})
	if err != nil {
		logger.FromContext(ctx).Error("failed to record audit event",
			zap.String("event", event),
			zap.String("entity_id", entityID),
			zap.Error(err))
	}
}

// ListEvents returns the caller's own audit trail, newest first, optionally
// filtered by event name and entity type.
func (s *AuditService) ListEvents(ctx context.Context, caller Caller, event, entityType string, page, perPage int) (*model.AuditEventsPage, *Error) {
	l := logger.FromContext(ctx)

	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}
	if perPage > 100 {
		perPage = 100
	}

	events, total, err := s.audits.ListByUser(ctx, caller.ID, event, entityType, perPage, (page-1)*perPage)
	if err != nil {
		l.Error("failed to list audit events", zap.String("user_id", caller.ID), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to list audit events")
	}

	result := &model.AuditEventsPage{
		Events:  make([]*model.AuditEvent, 0, len(events)),
		Page:    page,
		PerPage: perPage,
		Total:   total,
	}
	for _, e := range events {
		result.Events = append(result.Events, mapAuditEvent(e))
	}

	return result, nil
}

func (s *AuditService) WithAuditRepo(r repository.AuditRepository) *AuditService {
	s.audits = r
	return s
}

func mapAuditEvent(e *repository.AuditEvent) *model.AuditEvent {
	return &model.AuditEvent{
		ID:         e.ID,
		UserID:     e.UserID,
		Event:      e.Event,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		CreatedAt:  e.CreatedAt,
	}
}
