package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kennymark/bossman/internal/db"
	"github.com/pkg/errors"
	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/dialect"
	"github.com/stephenafamo/bob/dialect/psql/im"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/stephenafamo/bob/dialect/psql/um"
)

type TeamInvitation struct {
	ID              string     `db:"id"`
	TeamID          string     `db:"team_id"`
	Email           string     `db:"email"`
	Role            string     `db:"role"`
	AllowedPages    []string   `db:"allowed_pages"`
	Token           string     `db:"token"`
	InvitedByUserID string     `db:"invited_by_user_id"`
	CreatedAt       time.Time  `db:"created_at"`
	AcceptedAt      *time.Time `db:"accepted_at"`
}

type InvitationRepository interface {
	Create(ctx context.Context, inv *TeamInvitation) error
	// GetPendingByToken only returns invitations not yet accepted.
	GetPendingByToken(ctx context.Context, token string) (*TeamInvitation, error)
	ListPendingByTeam(ctx context.Context, teamID, search string) ([]*TeamInvitation, error)
	SetAllowedPages(ctx context.Context, teamID, id string, pages []string) (*TeamInvitation, error)
	MarkAccepted(ctx context.Context, id string, at time.Time) error
}

type pgxInvitationRepository struct {
	pool *pgxpool.Pool
}

func NewPgxInvitationRepository(pool *pgxpool.Pool) InvitationRepository {
	return &pgxInvitationRepository{pool: pool}
}

const invitationColumns = "id, team_id, email, role, allowed_pages, token, invited_by_user_id, created_at, accepted_at"

func scanInvitation(row pgx.Row) (*TeamInvitation, error) {
	inv := &TeamInvitation{}
	err := row.Scan(
		&inv.ID,
		&inv.TeamID,
		&inv.Email,
		&inv.Role,
		&inv.AllowedPages,
		&inv.Token,
		&inv.InvitedByUserID,
		&inv.CreatedAt,
		&inv.AcceptedAt,
	)
	if err != nil {
		return nil, err
	}
	return inv, nil
}

func (p *pgxInvitationRepository) Create(ctx context.Context, inv *TeamInvitation) error {
	e := db.ExecutorFromContext(ctx, p.pool)

	q := psql.Insert(
		im.Into("team_invitations", "team_id", "email", "role", "allowed_pages", "token", "invited_by_user_id"),
		im.Values(
			psql.Arg(inv.TeamID),
			psql.Arg(inv.Email),
			psql.Arg(inv.Role),
			psql.Arg(inv.AllowedPages),
			psql.Arg(inv.Token),
			psql.Arg(inv.InvitedByUserID),
		),
		im.Returning("id", "created_at"),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return err
	}

	err = e.QueryRow(ctx, sql, args...).Scan(&inv.ID, &inv.CreatedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrAlreadyExists
	}

	return err
}

func (p *pgxInvitationRepository) GetPendingByToken(ctx context.Context, token string) (*TeamInvitation, error) {
	e := db.ExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns(invitationColumns),
		sm.From("team_invitations"),
		sm.Where(psql.Quote("token").EQ(psql.Arg(token))),
		sm.Where(psql.Quote("accepted_at").IsNull()),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	inv, err := scanInvitation(e.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return inv, err
}

func (p *pgxInvitationRepository) ListPendingByTeam(ctx context.Context, teamID, search string) ([]*TeamInvitation, error) {
	e := db.ExecutorFromContext(ctx, p.pool)

	mods := []bob.Mod[*dialect.SelectQuery]{
		sm.Columns(invitationColumns),
		sm.From("team_invitations"),
		sm.Where(psql.Quote("team_id").EQ(psql.Arg(teamID))),
		sm.Where(psql.Quote("accepted_at").IsNull()),
		sm.OrderBy("created_at").Desc(),
	}
	if search != "" {
		mods = append(mods, sm.Where(psql.Raw("email ILIKE ?", "%"+search+"%")))
	}

	q := psql.Select(mods...)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := e.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*TeamInvitation, error) {
		return scanInvitation(row)
	})
}

func (p *pgxInvitationRepository) SetAllowedPages(ctx context.Context, teamID, id string, pages []string) (*TeamInvitation, error) {
	e := db.ExecutorFromContext(ctx, p.pool)

	q := psql.Update(
		um.Table("team_invitations"),
		um.SetCol("allowed_pages").ToArg(pages),
		um.Where(psql.Quote("id").EQ(psql.Arg(id))),
		um.Where(psql.Quote("team_id").EQ(psql.Arg(teamID))),
		um.Where(psql.Quote("accepted_at").IsNull()),
		um.Returning(invitationColumns),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	inv, err := scanInvitation(e.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return inv, err
}

func (p *pgxInvitationRepository) MarkAccepted(ctx context.Context, id string, at time.Time) error {
	e := db.ExecutorFromContext(ctx, p.pool)

	q := psql.Update(
		um.Table("team_invitations"),
		um.SetCol("accepted_at").ToArg(at),
		um.Where(psql.Quote("id").EQ(psql.Arg(id))),
		um.Where(psql.Quote("accepted_at").IsNull()),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return err
	}

	tag, err := e.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
