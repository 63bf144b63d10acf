package service

import (
	"context"

	"github.com/kennymark/bossman/internal/access"
	"github.com/kennymark/bossman/internal/model"
	"github.com/kennymark/bossman/internal/repository"
	"github.com/kennymark/bossman/pkg/logger"
	"go.uber.org/zap"
)

// AccessResolver computes a user's effective admin page access. Decisions are
// resolved per request and never cached, so membership edits take effect on
// the next request.
type AccessResolver interface {
	Resolve(ctx context.Context, userID string) (access.Decision, *Error)
}

type AccessService struct {
	memberships repository.MembershipRepository
}

func NewAccessService() *AccessService {
	return &AccessService{}
}

// Resolve returns Unrestricted when the user has no admin-team memberships
// (access resolution does not apply — callers must still check the global
// admin role), when any membership is an owner, or when no membership lists
// explicit pages. Otherwise it returns the union of allowed pages across all
// admin-team memberships.
//
// Absence of data is never an error; a store failure propagates so it cannot
// silently widen or narrow access.
func (s *AccessService) Resolve(ctx context.Context, userID string) (access.Decision, *Error) {
	l := logger.FromContext(ctx)

	memberships, err := s.memberships.ListByUserAndTeamKind(ctx, userID, string(model.TeamKindAdmin))
	if err != nil {
		l.Error("failed to list admin memberships", zap.String("user_id", userID), zap.Error(err))
		return access.Unrestricted(), NewError(ErrorCodeUnspecified, "failed to resolve page access")
	}

	if len(memberships) == 0 {
		return access.Unrestricted(), nil
	}

	keys := make([]access.PageKey, 0, 4)
	for _, m := range memberships {
		// Owners bypass all page restrictions.
		if m.Role == string(model.TeamRoleOwner) {
			return access.Unrestricted(), nil
		}
		for _, page := range m.AllowedPages {
			keys = append(keys, access.PageKey(page))
		}
	}

	// The union is empty when no membership lists explicit pages: restriction
	// is opt-in, so this resolves to Unrestricted.
	return access.RestrictedTo(keys...), nil
}

func (s *AccessService) WithMembershipRepo(r repository.MembershipRepository) *AccessService {
	s.memberships = r
	return s
}
