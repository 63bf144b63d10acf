package api

import (
	"net/http"
	"strconv"

	"github.com/kennymark/bossman/internal/access"
	"github.com/kennymark/bossman/internal/model"
	"github.com/kennymark/bossman/internal/service"
	"github.com/kennymark/bossman/pkg/logger"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

type Handler struct {
	team   *service.TeamService
	user   *service.UserService
	audit  *service.AuditService
	access service.AccessResolver

	healthChecker HealthChecker

	logger *zap.Logger
}

func NewHandler(logger *zap.Logger) *Handler {
	return &Handler{
		logger: logger,
	}
}

func (h *Handler) WithHealthChecker(c HealthChecker) *Handler {
	h.healthChecker = c
	return h
}

func (h *Handler) WithTeamService(team *service.TeamService) *Handler {
	h.team = team
	return h
}

func (h *Handler) WithUserService(user *service.UserService) *Handler {
	h.user = user
	return h
}

func (h *Handler) WithAuditService(audit *service.AuditService) *Handler {
	h.audit = audit
	return h
}

func (h *Handler) WithAccessResolver(r service.AccessResolver) *Handler {
	h.access = r
	return h
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.Validator = NewValidator()
	e.Use(middleware.RequestID())
	e.Use(ZapLoggerMiddleware(h.logger))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	e.GET("/health", h.healthChecker.HealthCheck())

	// Team management: ordinary teams are open to any authenticated user;
	// admin-kind access is checked inside the services, which is why these
	// routes do not carry the page-access gate.
	authed := e.Group("/api", AuthMiddleware(model.UserRoleUser, model.UserRoleAdmin))

	authed.GET("/teams", h.ListTeams)
	authed.POST("/teams", h.CreateTeam)
	authed.GET("/teams/:teamId/members", h.ListMembers)
	authed.POST("/teams/:teamId/invitations", h.InviteMember)
	authed.PATCH("/teams/:teamId/members/:memberId", h.UpdateMemberPages)
	authed.PATCH("/teams/:teamId/invitations/:invitationId", h.UpdateInvitationPages)
	authed.DELETE("/teams/:teamId/members/:memberId", h.RemoveMember)
	authed.POST("/invitations/accept", h.AcceptInvitation)
	authed.PUT("/users/me", h.SyncProfile)

	// The admin area: page navigations and their data endpoints, both behind
	// the page-access gate.
	pages := e.Group("", AuthMiddleware(model.UserRoleAdmin), PageAccessMiddleware(h.access))

	pages.GET("/dashboard", h.Dashboard)
	pages.GET("/users", h.Users)
	pages.GET("/users/:userId", h.User)
	pages.GET("/teams", h.AdminTeams)

	adminData := e.Group("/api", AuthMiddleware(model.UserRoleAdmin), PageAccessMiddleware(h.access))

	adminData.GET("/dashboard", h.Dashboard)
	adminData.GET("/users", h.Users)
	adminData.GET("/audits", h.Audits)
}

func (h *Handler) ListTeams(e echo.Context) error {
	caller, ok := callerFromContext(e)
	if !ok {
		return h.transportError(e, service.NewError(service.ErrorCodeForbidden, "authentication required"))
	}

	kind := model.TeamKind(e.QueryParam("kind"))
	if kind != model.TeamKindAdmin {
		kind = model.TeamKindUser
	}

	teams, err := h.team.ListTeams(e.Request().Context(), caller, kind)
	if err != nil {
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, teams)
}

func (h *Handler) CreateTeam(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	caller, ok := callerFromContext(e)
	if !ok {
		return h.transportError(e, service.NewError(service.ErrorCodeForbidden, "authentication required"))
	}

	var req struct {
		Name string `json:"name" validate:"required,min=2,max=255"`
		Kind string `json:"kind" validate:"omitempty,oneof=user admin"`
	}

	if err := decodeRequest(e, &req); err != nil {
		l.Error("invalid request", zap.Any("error", err))
		return h.transportError(e, err)
	}

	l.Info("creating team", zap.String("team_name", req.Name))

	team, err := h.team.CreateTeam(e.Request().Context(), caller, req.Name, model.TeamKind(req.Kind))
	if err != nil {
		l.Error("failed to create team", zap.String("team_name", req.Name), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusCreated, team)
}

func (h *Handler) ListMembers(e echo.Context) error {
	caller, ok := callerFromContext(e)
	if !ok {
		return h.transportError(e, service.NewError(service.ErrorCodeForbidden, "authentication required"))
	}

	teamID := e.Param("teamId")
	page := queryInt(e, "page", 1)
	perPage := queryInt(e, "perPage", 10)
	search := e.QueryParam("search")

	members, err := h.team.ListMembers(e.Request().Context(), caller, teamID, page, perPage, search)
	if err != nil {
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, members)
}

func (h *Handler) InviteMember(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	caller, ok := callerFromContext(e)
	if !ok {
		return h.transportError(e, service.NewError(service.ErrorCodeForbidden, "authentication required"))
	}

	var req struct {
		Email        string   `json:"email" validate:"required,email"`
		Role         string   `json:"role" validate:"omitempty,oneof=owner admin member"`
		AllowedPages []string `json:"allowed_pages"`
	}

	if err := decodeRequest(e, &req); err != nil {
		l.Error("invalid request", zap.Any("error", err))
		return h.transportError(e, err)
	}

	role := model.TeamRole(req.Role)
	if role == "" {
		role = model.TeamRoleMember
	}

	teamID := e.Param("teamId")

	l.Info("inviting member", zap.String("team_id", teamID), zap.String("email", req.Email))

	inv, err := h.team.Invite(e.Request().Context(), caller, teamID, req.Email, role, toPageKeys(req.AllowedPages))
	if err != nil {
		l.Error("failed to invite member", zap.String("team_id", teamID), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusCreated, inv)
}

func (h *Handler) UpdateMemberPages(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	caller, ok := callerFromContext(e)
	if !ok {
		return h.transportError(e, service.NewError(service.ErrorCodeForbidden, "authentication required"))
	}

	var req struct {
		AllowedPages []string `json:"allowed_pages"`
	}

	if err := decodeRequest(e, &req); err != nil {
		l.Error("invalid request", zap.Any("error", err))
		return h.transportError(e, err)
	}

	teamID := e.Param("teamId")
	memberID := e.Param("memberId")

	l.Info("updating member pages",
		zap.String("team_id", teamID),
		zap.String("member_id", memberID),
		zap.Strings("allowed_pages", req.AllowedPages))

	member, err := h.team.UpdateMemberPages(e.Request().Context(), caller, teamID, memberID, toPageKeys(req.AllowedPages))
	if err != nil {
		l.Error("failed to update member pages", zap.String("member_id", memberID), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, member)
}

func (h *Handler) UpdateInvitationPages(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	caller, ok := callerFromContext(e)
	if !ok {
		return h.transportError(e, service.NewError(service.ErrorCodeForbidden, "authentication required"))
	}

	var req struct {
		AllowedPages []string `json:"allowed_pages"`
	}

	if err := decodeRequest(e, &req); err != nil {
		l.Error("invalid request", zap.Any("error", err))
		return h.transportError(e, err)
	}

	teamID := e.Param("teamId")
	invitationID := e.Param("invitationId")

	inv, err := h.team.UpdateInvitationPages(e.Request().Context(), caller, teamID, invitationID, toPageKeys(req.AllowedPages))
	if err != nil {
		l.Error("failed to update invitation pages", zap.String("invitation_id", invitationID), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, inv)
}

func (h *Handler) RemoveMember(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	caller, ok := callerFromContext(e)
	if !ok {
		return h.transportError(e, service.NewError(service.ErrorCodeForbidden, "authentication required"))
	}

	teamID := e.Param("teamId")
	memberID := e.Param("memberId")

	l.Info("removing member", zap.String("team_id", teamID), zap.String("member_id", memberID))

	if err := h.team.RemoveMember(e.Request().Context(), caller, teamID, memberID); err != nil {
		l.Error("failed to remove member", zap.String("member_id", memberID), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.NoContent(http.StatusNoContent)
}

func (h *Handler) AcceptInvitation(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	caller, ok := callerFromContext(e)
	if !ok {
		return h.transportError(e, service.NewError(service.ErrorCodeForbidden, "authentication required"))
	}

	var req struct {
		Token string `json:"token" validate:"required"`
	}

	if err := decodeRequest(e, &req); err != nil {
		l.Error("invalid request", zap.Any("error", err))
		return h.transportError(e, err)
	}

	member, err := h.team.AcceptInvitation(e.Request().Context(), caller, req.Token)
	if err != nil {
		l.Error("failed to accept invitation", zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, member)
}

func (h *Handler) Dashboard(e echo.Context) error {
	summary, err := h.user.DashboardSummary(e.Request().Context())
	if err != nil {
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, summary)
}

func (h *Handler) Users(e echo.Context) error {
	page := queryInt(e, "page", 1)
	perPage := queryInt(e, "perPage", 10)
	search := e.QueryParam("search")

	users, err := h.user.ListUsers(e.Request().Context(), page, perPage, search)
	if err != nil {
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, users)
}

func (h *Handler) User(e echo.Context) error {
	user, err := h.user.GetUser(e.Request().Context(), e.Param("userId"))
	if err != nil {
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, user)
}

func (h *Handler) SyncProfile(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	caller, ok := callerFromContext(e)
	if !ok {
		return h.transportError(e, service.NewError(service.ErrorCodeForbidden, "authentication required"))
	}

	var req struct {
		Email    string `json:"email" validate:"required,email"`
		FullName string `json:"full_name" validate:"required,min=1,max=255"`
	}

	if err := decodeRequest(e, &req); err != nil {
		l.Error("invalid request", zap.Any("error", err))
		return h.transportError(e, err)
	}

	user, err := h.user.SyncProfile(e.Request().Context(), caller, req.Email, req.FullName)
	if err != nil {
		l.Error("failed to sync profile", zap.String("user_id", caller.ID), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, user)
}

func (h *Handler) Audits(e echo.Context) error {
	caller, ok := callerFromContext(e)
	if !ok {
		return h.transportError(e, service.NewError(service.ErrorCodeForbidden, "authentication required"))
	}

	page := queryInt(e, "page", 1)
	perPage := queryInt(e, "perPage", 20)
	event := e.QueryParam("event")
	entityType := e.QueryParam("entityType")

	events, err := h.audit.ListEvents(e.Request().Context(), caller, event, entityType, page, perPage)
	if err != nil {
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, events)
}

func (h *Handler) AdminTeams(e echo.Context) error {
	caller, ok := callerFromContext(e)
	if !ok {
		return h.transportError(e, service.NewError(service.ErrorCodeForbidden, "authentication required"))
	}

	teams, err := h.team.ListTeams(e.Request().Context(), caller, model.TeamKindAdmin)
	if err != nil {
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, teams)
}

func (h *Handler) transportError(e echo.Context, err *service.Error) error {
	response := errorResponse(err)

	switch err.Code {
	case service.ErrorCodeNotFound:
		return e.JSON(http.StatusNotFound, response)
	case service.ErrorCodeForbidden:
		return e.JSON(http.StatusForbidden, response)
	case service.ErrorCodeUnauthorized:
		return e.JSON(http.StatusUnauthorized, response)
	case service.ErrorCodeTeamExists, service.ErrorCodeAlreadyMember, service.ErrorCodeInviteExists:
		return e.JSON(http.StatusConflict, response)
	case service.ErrorCodeInvalidBody:
		return e.JSON(http.StatusBadRequest, response)
	default:
		return e.JSON(http.StatusInternalServerError, response)
	}
}

func errorResponse(err *service.Error) any {
	return struct {
		Error *service.Error `json:"error"`
	}{Error: err}
}

func queryInt(e echo.Context, name string, defaultValue int) int {
	value, err := strconv.Atoi(e.QueryParam(name))
	if err != nil {
		return defaultValue
	}
	return value
}

func toPageKeys(pages []string) []access.PageKey {
	if len(pages) == 0 {
		return nil
	}
	out := make([]access.PageKey, 0, len(pages))
	for _, key := range pages {
		out = append(out, access.PageKey(key))
	}
	return out
}
