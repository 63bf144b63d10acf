package model

import "time"

// Audit event names follow "<entity>.<action>".
const (
	AuditTeamCreated        = "team.created"
	AuditInvitationCreated  = "invitation.created"
	AuditInvitationUpdated  = "invitation.updated"
	AuditInvitationAccepted = "invitation.accepted"
	AuditMemberUpdated      = "member.updated"
	AuditMemberRemoved      = "member.removed"
)

type AuditEvent struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Event      string    `json:"event"`
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id"`
	CreatedAt  time.Time `json:"created_at"`
}

type AuditEventsPage struct {
	Events  []*AuditEvent `json:"events"`
	Page    int           `json:"page"`
	PerPage int           `json:"per_page"`
	Total   int           `json:"total"`
}
