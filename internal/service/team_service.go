package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/kennymark/bossman/internal/access"
	"github.com/kennymark/bossman/internal/db"
	"github.com/kennymark/bossman/internal/model"
	"github.com/kennymark/bossman/internal/repository"
	"github.com/kennymark/bossman/pkg/logger"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Caller identifies the authenticated user behind a service call, as taken
// from the verified token claims.
type Caller struct {
	ID   string
	Role model.UserRole
}

type TeamService struct {
	tx db.Transactor

	teams       repository.TeamRepository
	memberships repository.MembershipRepository
	invitations repository.InvitationRepository
	users       repository.UserRepository

	resolver AccessResolver
	audits   AuditRecorder
}

func NewTeamService(tx db.Transactor) *TeamService {
	return &TeamService{
		tx: tx,
	}
}

// ListTeams returns the caller's teams of the given kind. The admin kind is
// the implicit canonical team: it requires the global admin role plus the
// teams page key, and is created lazily on first access.
func (t *TeamService) ListTeams(ctx context.Context, caller Caller, kind model.TeamKind) ([]*model.Team, *Error) {
	l := logger.FromContext(ctx)

	if kind != model.TeamKindAdmin {
		teams, err := t.teams.ListByUser(ctx, caller.ID, string(kind))
		if err != nil {
			l.Error("failed to list teams", zap.String("user_id", caller.ID), zap.Error(err))
			return nil, NewError(ErrorCodeUnspecified, "failed to list teams")
		}
		return mapTeams(teams), nil
	}

	if !caller.Role.IsAdmin() {
		return nil, NewError(ErrorCodeForbidden, "Admin team access required.")
	}

	decision, serviceErr := t.resolver.Resolve(ctx, caller.ID)
	if serviceErr != nil {
		return nil, serviceErr
	}
	if !decision.Permits(access.PageKeyTeams) {
		return nil, NewError(ErrorCodeForbidden, "You do not have access to admin teams.")
	}

	adminTeam, err := t.teams.EnsureAdminTeam(ctx, caller.ID)
	if err != nil {
		l.Error("failed to ensure admin team", zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to load admin team")
	}

	return mapTeams([]*repository.Team{adminTeam}), nil
}

// CreateTeam creates an ordinary team with the caller as its owner. The
// canonical admin team is never created through this path.
func (t *TeamService) CreateTeam(ctx context.Context, caller Caller, name string, kind model.TeamKind) (*model.Team, *Error) {
	l := logger.FromContext(ctx)

	if kind == model.TeamKindAdmin {
		return nil, NewError(ErrorCodeInvalidBody, "the admin team is managed from the teams page")
	}

	team := &repository.Team{
		Kind:            string(model.TeamKindUser),
		Name:            name,
		CreatedByUserID: caller.ID,
	}

	err := t.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := t.teams.Create(txCtx, team); err != nil {
			return err
		}

		return t.memberships.Create(txCtx, &repository.TeamMember{
			TeamID: team.ID,
			UserID: caller.ID,
			Role:   string(model.TeamRoleOwner),
		})
	})
	if errors.Is(err, repository.ErrAlreadyExists) {
		l.Warn("team already exists", zap.String("team_name", name))
		return nil, NewError(ErrorCodeTeamExists, "team already exists")
	}
	if err != nil {
		l.Error("failed to create team", zap.String("team_name", name), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to create team")
	}

	l.Debug("team created", zap.String("team_id", team.ID), zap.String("team_name", name))
	t.audit(ctx, caller.ID, model.AuditTeamCreated, "team", team.ID)

	return mapTeam(team), nil
}

// ListMembers returns a page of team members plus pending invitations.
// Admin-kind teams are readable by any allowed global admin; ordinary teams
// require membership.
func (t *TeamService) ListMembers(ctx context.Context, caller Caller, teamID string, page, perPage int, search string) (*model.TeamMembersPage, *Error) {
	l := logger.FromContext(ctx)

	team, serviceErr := t.getTeam(ctx, teamID)
	if serviceErr != nil {
		return nil, serviceErr
	}

	if serviceErr = t.authorizeTeamRead(ctx, caller, team); serviceErr != nil {
		return nil, serviceErr
	}

	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if perPage > 100 {
		perPage = 100
	}

	members, total, err := t.memberships.ListByTeam(ctx, teamID, search, perPage, (page-1)*perPage)
	if err != nil {
		l.Error("failed to list team members", zap.String("team_id", teamID), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to list team members")
	}

	invitations, err := t.invitations.ListPendingByTeam(ctx, teamID, search)
	if err != nil {
		l.Error("failed to list pending invitations", zap.String("team_id", teamID), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to list pending invitations")
	}

	result := &model.TeamMembersPage{
		Members:     make([]*model.TeamMember, 0, len(members)),
		Invitations: make([]*model.TeamInvitation, 0, len(invitations)),
		Page:        page,
		PerPage:     perPage,
		Total:       total,
	}
	for _, m := range members {
		result.Members = append(result.Members, mapMember(m))
	}
	for _, inv := range invitations {
		result.Invitations = append(result.Invitations, mapInvitation(inv))
	}

	return result, nil
}

// Invite creates a pending invitation carrying the role and allowed pages
// that will be copied onto the membership on acceptance.
func (t *TeamService) Invite(ctx context.Context, caller Caller, teamID, email string, role model.TeamRole, pages []access.PageKey) (*model.TeamInvitation, *Error) {
	l := logger.FromContext(ctx)

	team, serviceErr := t.getTeam(ctx, teamID)
	if serviceErr != nil {
		return nil, serviceErr
	}

	if serviceErr = t.authorizeTeamManage(ctx, caller, team); serviceErr != nil {
		return nil, serviceErr
	}

	if serviceErr = validatePageKeys(pages); serviceErr != nil {
		return nil, serviceErr
	}

	invitee, err := t.users.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		l.Error("failed to look up invitee", zap.String("team_id", teamID), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to create invitation")
	}
	if invitee != nil {
		isMember, err := t.memberships.IsMember(ctx, teamID, invitee.ID)
		if err != nil {
			l.Error("failed to check membership", zap.String("team_id", teamID), zap.Error(err))
			return nil, NewError(ErrorCodeUnspecified, "failed to create invitation")
		}
		if isMember {
			return nil, NewError(ErrorCodeAlreadyMember, "this user is already a member of the team")
		}
	}

	token, err := inviteToken()
	if err != nil {
		return nil, NewError(ErrorCodeUnspecified, "failed to create invitation")
	}

	inv := &repository.TeamInvitation{
		TeamID:          teamID,
		Email:           email,
		Role:            string(role),
		AllowedPages:    pageKeysToStrings(pages),
		Token:           token,
		InvitedByUserID: caller.ID,
	}

	err = t.invitations.Create(ctx, inv)
	if errors.Is(err, repository.ErrAlreadyExists) {
		return nil, NewError(ErrorCodeInviteExists, "an invitation for this email is already pending")
	}
	if err != nil {
		l.Error("failed to create invitation", zap.String("team_id", teamID), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to create invitation")
	}

	l.Info("invitation created",
		zap.String("team_id", teamID),
		zap.String("invitation_id", inv.ID))
	t.audit(ctx, caller.ID, model.AuditInvitationCreated, "invitation", inv.ID)

	return mapInvitation(inv), nil
}

// AcceptInvitation redeems a pending invitation token for the caller. The
// membership and the acceptance mark are written in one transaction.
func (t *TeamService) AcceptInvitation(ctx context.Context, caller Caller, token string) (*model.TeamMember, *Error) {
	l := logger.FromContext(ctx)

	inv, err := t.invitations.GetPendingByToken(ctx, token)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, NewError(ErrorCodeNotFound, "invitation not found")
	}
	if err != nil {
		l.Error("failed to load invitation", zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to load invitation")
	}

	user, err := t.users.Get(ctx, caller.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, NewError(ErrorCodeNotFound, "user not found")
	}
	if err != nil {
		l.Error("failed to load user", zap.String("user_id", caller.ID), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to load user")
	}

	if user.Email != inv.Email {
		return nil, NewError(ErrorCodeForbidden, "this invitation was issued for a different email")
	}

	member := &repository.TeamMember{
		TeamID:       inv.TeamID,
		UserID:       caller.ID,
		Role:         inv.Role,
		AllowedPages: inv.AllowedPages,
	}

	err = t.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := t.memberships.Create(txCtx, member); err != nil {
			return err
		}
		return t.invitations.MarkAccepted(txCtx, inv.ID, time.Now().UTC())
	})
	if errors.Is(err, repository.ErrAlreadyExists) {
		return nil, NewError(ErrorCodeAlreadyMember, "user is already a member of this team")
	}
	if err != nil {
		l.Error("failed to accept invitation", zap.String("invitation_id", inv.ID), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to accept invitation")
	}

	l.Info("invitation accepted",
		zap.String("invitation_id", inv.ID),
		zap.String("team_id", inv.TeamID),
		zap.String("user_id", caller.ID))
	t.audit(ctx, caller.ID, model.AuditInvitationAccepted, "invitation", inv.ID)

	return mapMember(member), nil
}

// UpdateMemberPages replaces a member's allowed pages. Passing an empty list
// clears the restriction this membership contributes.
func (t *TeamService) UpdateMemberPages(ctx context.Context, caller Caller, teamID, memberID string, pages []access.PageKey) (*model.TeamMember, *Error) {
	l := logger.FromContext(ctx)

	team, serviceErr := t.getTeam(ctx, teamID)
	if serviceErr != nil {
		return nil, serviceErr
	}

	if serviceErr = t.authorizeTeamManage(ctx, caller, team); serviceErr != nil {
		return nil, serviceErr
	}

	if serviceErr = validatePageKeys(pages); serviceErr != nil {
		return nil, serviceErr
	}

	member, err := t.memberships.Get(ctx, memberID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, NewError(ErrorCodeNotFound, "member not found")
	}
	if err != nil {
		l.Error("failed to load member", zap.String("member_id", memberID), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to load member")
	}
	if member.TeamID != teamID {
		return nil, NewError(ErrorCodeNotFound, "member not found")
	}

	updated, err := t.memberships.SetAllowedPages(ctx, memberID, pageKeysToStrings(pages))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, NewError(ErrorCodeNotFound, "member not found")
	}
	if err != nil {
		l.Error("failed to update member pages", zap.String("member_id", memberID), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to update member")
	}

	l.Info("member pages updated",
		zap.String("team_id", teamID),
		zap.String("member_id", memberID),
		zap.Strings("allowed_pages", pageKeysToStrings(pages)))
	t.audit(ctx, caller.ID, model.AuditMemberUpdated, "member", memberID)

	return mapMember(updated), nil
}

// UpdateInvitationPages is UpdateMemberPages for a pending invitation.
func (t *TeamService) UpdateInvitationPages(ctx context.Context, caller Caller, teamID, invitationID string, pages []access.PageKey) (*model.TeamInvitation, *Error) {
	l := logger.FromContext(ctx)

	team, serviceErr := t.getTeam(ctx, teamID)
	if serviceErr != nil {
		return nil, serviceErr
	}

	if serviceErr = t.authorizeTeamManage(ctx, caller, team); serviceErr != nil {
		return nil, serviceErr
	}

	if serviceErr = validatePageKeys(pages); serviceErr != nil {
		return nil, serviceErr
	}

	updated, err := t.invitations.SetAllowedPages(ctx, teamID, invitationID, pageKeysToStrings(pages))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, NewError(ErrorCodeNotFound, "invitation not found")
	}
	if err != nil {
		l.Error("failed to update invitation pages", zap.String("invitation_id", invitationID), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to update invitation")
	}

	t.audit(ctx, caller.ID, model.AuditInvitationUpdated, "invitation", invitationID)

	return mapInvitation(updated), nil
}

// RemoveMember deletes a membership. Owners cannot be removed.
func (t *TeamService) RemoveMember(ctx context.Context, caller Caller, teamID, memberID string) *Error {
	l := logger.FromContext(ctx)

	team, serviceErr := t.getTeam(ctx, teamID)
	if serviceErr != nil {
		return serviceErr
	}

	if serviceErr = t.authorizeTeamManage(ctx, caller, team); serviceErr != nil {
		return serviceErr
	}

	member, err := t.memberships.Get(ctx, memberID)
	if errors.Is(err, repository.ErrNotFound) {
		return NewError(ErrorCodeNotFound, "member not found")
	}
	if err != nil {
		l.Error("failed to load member", zap.String("member_id", memberID), zap.Error(err))
		return NewError(ErrorCodeUnspecified, "failed to load member")
	}
	if member.TeamID != teamID {
		return NewError(ErrorCodeNotFound, "member not found")
	}
	if member.Role == string(model.TeamRoleOwner) {
		return NewError(ErrorCodeForbidden, "owners cannot be removed from a team")
	}

	if err = t.memberships.Delete(ctx, memberID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return NewError(ErrorCodeNotFound, "member not found")
		}
		l.Error("failed to remove member", zap.String("member_id", memberID), zap.Error(err))
		return NewError(ErrorCodeUnspecified, "failed to remove member")
	}

	l.Info("member removed", zap.String("team_id", teamID), zap.String("member_id", memberID))
	t.audit(ctx, caller.ID, model.AuditMemberRemoved, "member", memberID)

	return nil
}

func (t *TeamService) audit(ctx context.Context, userID, event, entityType, entityID string) {
	if t.audits == nil {
		return
	}
	t.audits.Record(ctx, userID, event, entityType, entityID)
}

func (t *TeamService) getTeam(ctx context.Context, teamID string) (*repository.Team, *Error) {
	team, err := t.teams.Get(ctx, teamID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, NewError(ErrorCodeNotFound, "team not found")
	}
	if err != nil {
		logger.FromContext(ctx).Error("failed to load team", zap.String("team_id", teamID), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to load team")
	}
	return team, nil
}

// authorizeTeamRead gates member listing: allowed global admins for the
// admin team, plain membership for ordinary teams.
func (t *TeamService) authorizeTeamRead(ctx context.Context, caller Caller, team *repository.Team) *Error {
	if team.Kind == string(model.TeamKindAdmin) {
		return t.authorizeAdminTeam(ctx, caller)
	}

	isMember, err := t.memberships.IsMember(ctx, team.ID, caller.ID)
	if err != nil {
		logger.FromContext(ctx).Error("failed to check membership", zap.String("team_id", team.ID), zap.Error(err))
		return NewError(ErrorCodeUnspecified, "failed to check membership")
	}
	if !isMember {
		return NewError(ErrorCodeForbidden, "You do not have access to this team.")
	}
	return nil
}

// authorizeTeamManage gates mutating membership operations: allowed global
// admins for the admin team, the owner for ordinary teams.
func (t *TeamService) authorizeTeamManage(ctx context.Context, caller Caller, team *repository.Team) *Error {
	if team.Kind == string(model.TeamKindAdmin) {
		return t.authorizeAdminTeam(ctx, caller)
	}

	member, err := t.memberships.GetByTeamAndUser(ctx, team.ID, caller.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return NewError(ErrorCodeForbidden, "You do not have access to this team.")
	}
	if err != nil {
		logger.FromContext(ctx).Error("failed to check membership", zap.String("team_id", team.ID), zap.Error(err))
		return NewError(ErrorCodeUnspecified, "failed to check membership")
	}
	if member.Role != string(model.TeamRoleOwner) {
		return NewError(ErrorCodeForbidden, "Only the team owner can manage members.")
	}
	return nil
}

func (t *TeamService) authorizeAdminTeam(ctx context.Context, caller Caller) *Error {
	if !caller.Role.IsAdmin() {
		return NewError(ErrorCodeForbidden, "Admin team access required.")
	}

	decision, serviceErr := t.resolver.Resolve(ctx, caller.ID)
	if serviceErr != nil {
		return serviceErr
	}
	if !decision.Permits(access.PageKeyTeams) {
		return NewError(ErrorCodeForbidden, "You do not have access to admin teams.")
	}
	return nil
}

func (t *TeamService) WithTeamRepo(r repository.TeamRepository) *TeamService {
	t.teams = r
	return t
}

func (t *TeamService) WithMembershipRepo(r repository.MembershipRepository) *TeamService {
	t.memberships = r
	return t
}

func (t *TeamService) WithInvitationRepo(r repository.InvitationRepository) *TeamService {
	t.invitations = r
	return t
}

func (t *TeamService) WithUserRepo(r repository.UserRepository) *TeamService {
	t.users = r
	return t
}

func (t *TeamService) WithAccessResolver(r AccessResolver) *TeamService {
	t.resolver = r
	return t
}

func (t *TeamService) WithAuditRecorder(r AuditRecorder) *TeamService {
	t.audits = r
	return t
}

func validatePageKeys(pages []access.PageKey) *Error {
	for _, key := range pages {
		if !access.IsValidPageKey(key) {
			return NewError(ErrorCodeInvalidBody, "unknown admin page key: "+string(key))
		}
	}
	return nil
}

func pageKeysToStrings(pages []access.PageKey) []string {
	if len(pages) == 0 {
		return nil
	}
	out := make([]string, 0, len(pages))
	for _, key := range pages {
		out = append(out, string(key))
	}
	return out
}

func stringsToPageKeys(pages []string) []access.PageKey {
	if len(pages) == 0 {
		return nil
	}
	out := make([]access.PageKey, 0, len(pages))
	for _, key := range pages {
		out = append(out, access.PageKey(key))
	}
	return out
}

func inviteToken() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func mapTeam(team *repository.Team) *model.Team {
	return &model.Team{
		ID:              team.ID,
		Kind:            model.TeamKind(team.Kind),
		Name:            team.Name,
		CreatedByUserID: team.CreatedByUserID,
		CreatedAt:       team.CreatedAt,
	}
}

func mapTeams(teams []*repository.Team) []*model.Team {
	out := make([]*model.Team, 0, len(teams))
	for _, team := range teams {
		out = append(out, mapTeam(team))
	}
	return out
}

func mapMember(m *repository.TeamMember) *model.TeamMember {
	return &model.TeamMember{
		ID:           m.ID,
		TeamID:       m.TeamID,
		UserID:       m.UserID,
		Role:         model.TeamRole(m.Role),
		AllowedPages: stringsToPageKeys(m.AllowedPages),
		CreatedAt:    m.CreatedAt,
		FullName:     m.FullName,
		Email:        m.Email,
	}
}

func mapInvitation(inv *repository.TeamInvitation) *model.TeamInvitation {
	return &model.TeamInvitation{
		ID:              inv.ID,
		TeamID:          inv.TeamID,
		Email:           inv.Email,
		Role:            model.TeamRole(inv.Role),
		AllowedPages:    stringsToPageKeys(inv.AllowedPages),
		InvitedByUserID: inv.InvitedByUserID,
		CreatedAt:       inv.CreatedAt,
	}
}
