package model

import (
	"time"

	"github.com/kennymark/bossman/internal/access"
)

type TeamKind string

const (
	TeamKindUser  TeamKind = "user"
	TeamKindAdmin TeamKind = "admin"
)

type TeamRole string

const (
	TeamRoleOwner  TeamRole = "owner"
	TeamRoleAdmin  TeamRole = "admin"
	TeamRoleMember TeamRole = "member"
)

type Team struct {
	ID              string    `json:"id"`
	Kind            TeamKind  `json:"kind"`
	Name            string    `json:"name"`
	CreatedByUserID string    `json:"created_by_user_id"`
	CreatedAt       time.Time `json:"created_at"`
}

// TeamMember links a user to a team. AllowedPages is only meaningful on
// admin-kind teams: nil or empty means the membership contributes no page
// restriction.
type TeamMember struct {
	ID           string           `json:"id"`
	TeamID       string           `json:"team_id"`
	UserID       string           `json:"user_id"`
	Role         TeamRole         `json:"role"`
	AllowedPages []access.PageKey `json:"allowed_pages,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`

	FullName string `json:"full_name,omitempty"`
	Email    string `json:"email,omitempty"`
}

// TeamInvitation is a pending membership. Role and AllowedPages are copied
// onto the membership when the invite is accepted.
type TeamInvitation struct {
	ID              string           `json:"id"`
	TeamID          string           `json:"team_id"`
	Email           string           `json:"email"`
	Role            TeamRole         `json:"role"`
	AllowedPages    []access.PageKey `json:"allowed_pages,omitempty"`
	InvitedByUserID string           `json:"invited_by_user_id"`
	CreatedAt       time.Time        `json:"created_at"`
}

type TeamMembersPage struct {
	Members     []*TeamMember     `json:"members"`
	Invitations []*TeamInvitation `json:"invitations"`
	Page        int               `json:"page"`
	PerPage     int               `json:"per_page"`
	Total       int               `json:"total"`
}
