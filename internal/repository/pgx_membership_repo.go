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
	"github.com/stephenafamo/bob/dialect/psql/dm"
	"github.com/stephenafamo/bob/dialect/psql/im"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/stephenafamo/bob/dialect/psql/um"
)

// TeamMember is a membership row. AllowedPages maps to a nullable text[]
// column; nil means the membership contributes no page restriction.
type TeamMember struct {
	ID           string    `db:"id"`
	TeamID       string    `db:"team_id"`
	UserID       string    `db:"user_id"`
	Role         string    `db:"role"`
	AllowedPages []string  `db:"allowed_pages"`
	CreatedAt    time.Time `db:"created_at"`

	// Joined user columns, populated by ListByTeam.
	Email    string `db:"email"`
	FullName string `db:"full_name"`
}

type MembershipRepository interface {
	Create(ctx context.Context, member *TeamMember) error
	Get(ctx context.Context, id string) (*TeamMember, error)
	// ListByUserAndTeamKind returns the user's memberships in teams of the
	// given kind. The access resolver runs on kind "admin".
	ListByUserAndTeamKind(ctx context.Context, userID, kind string) ([]*TeamMember, error)
	ListByTeam(ctx context.Context, teamID, search string, limit, offset int) ([]*TeamMember, int, error)
	GetByTeamAndUser(ctx context.Context, teamID, userID string) (*TeamMember, error)
	IsMember(ctx context.Context, teamID, userID string) (bool, error)
	SetAllowedPages(ctx context.Context, id string, pages []string) (*TeamMember, error)
	Delete(ctx context.Context, id string) error
}

type pgxMembershipRepository struct {
	pool *pgxpool.Pool
}

func NewPgxMembershipRepository(pool *pgxpool.Pool) MembershipRepository {
	return &pgxMembershipRepository{pool: pool}
}

func scanMember(row pgx.Row) (*TeamMember, error) {
	m := &TeamMember{}
	if err := row.Scan(&m.ID, &m.TeamID, &m.UserID, &m.Role, &m.AllowedPages, &m.CreatedAt); err != nil {
		return nil, err
	}
	return m, nil
}

func (p *pgxMembershipRepository) Create(ctx context.Context, member *TeamMember) error {
	e := db.ExecutorFromContext(ctx, p.pool)

	q := psql.Insert(
		im.Into("team_members", "team_id", "user_id", "role", "allowed_pages"),
		im.Values(psql.Arg(member.TeamID), psql.Arg(member.UserID), psql.Arg(member.Role), psql.Arg(member.AllowedPages)),
		im.Returning("id", "created_at"),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return err
	}

	err = e.QueryRow(ctx, sql, args...).Scan(&member.ID, &member.CreatedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrAlreadyExists
	}

	return err
}

func (p *pgxMembershipRepository) Get(ctx context.Context, id string) (*TeamMember, error) {
	e := db.ExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns("id", "team_id", "user_id", "role", "allowed_pages", "created_at"),
		sm.From("team_members"),
		sm.Where(psql.Quote("id").EQ(psql.Arg(id))),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	member, err := scanMember(e.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return member, err
}

func (p *pgxMembershipRepository) ListByUserAndTeamKind(ctx context.Context, userID, kind string) ([]*TeamMember, error) {
	e := db.ExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns("tm.id", "tm.team_id", "tm.user_id", "tm.role", "tm.allowed_pages", "tm.created_at"),
		sm.From("team_members").As("tm"),
		sm.InnerJoin("teams").As("t").On(psql.Quote("t", "id").EQ(psql.Quote("tm", "team_id"))),
		sm.Where(psql.Quote("tm", "user_id").EQ(psql.Arg(userID))),
		sm.Where(psql.Quote("t", "kind").EQ(psql.Arg(kind))),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := e.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*TeamMember, error) {
		return scanMember(row)
	})
}

func (p *pgxMembershipRepository) ListByTeam(ctx context.Context, teamID, search string, limit, offset int) ([]*TeamMember, int, error) {
	e := db.ExecutorFromContext(ctx, p.pool)

	mods := []bob.Mod[*dialect.SelectQuery]{
		sm.From("team_members").As("tm"),
		sm.InnerJoin("users").As("u").On(psql.Quote("u", "id").EQ(psql.Quote("tm", "user_id"))),
		sm.Where(psql.Quote("tm", "team_id").EQ(psql.Arg(teamID))),
	}
	if search != "" {
		pattern := "%" + search + "%"
		mods = append(mods, sm.Where(psql.Raw("(u.email ILIKE ? OR u.full_name ILIKE ?)", pattern, pattern)))
	}

	countQuery := psql.Select(sm.Columns("count(*)"))
	countQuery.Apply(mods...)

	sql, args, err := countQuery.Build(ctx)
	if err != nil {
		return nil, 0, err
	}

	var total int
	if err = e.QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	listQuery := psql.Select(
		sm.Columns("tm.id", "tm.team_id", "tm.user_id", "tm.role", "tm.allowed_pages", "tm.created_at", "u.email", "u.full_name"),
		sm.OrderBy("tm.created_at").Asc(),
		sm.Limit(limit),
		sm.Offset(offset),
	)
	listQuery.Apply(mods...)

	sql, args, err = listQuery.Build(ctx)
	if err != nil {
		return nil, 0, err
	}

	rows, err := e.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	members, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*TeamMember, error) {
		m := &TeamMember{}
		if err = row.Scan(&m.ID, &m.TeamID, &m.UserID, &m.Role, &m.AllowedPages, &m.CreatedAt, &m.Email, &m.FullName); err != nil {
			return nil, err
		}
		return m, nil
	})
	if err != nil {
		return nil, 0, err
	}

	return members, total, nil
}

func (p *pgxMembershipRepository) GetByTeamAndUser(ctx context.Context, teamID, userID string) (*TeamMember, error) {
	e := db.ExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns("id", "team_id", "user_id", "role", "allowed_pages", "created_at"),
		sm.From("team_members"),
		sm.Where(psql.Quote("team_id").EQ(psql.Arg(teamID))),
		sm.Where(psql.Quote("user_id").EQ(psql.Arg(userID))),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	member, err := scanMember(e.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return member, err
}

func (p *pgxMembershipRepository) IsMember(ctx context.Context, teamID, userID string) (bool, error) {
	e := db.ExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns("1"),
		sm.From("team_members"),
		sm.Where(psql.Quote("team_id").EQ(psql.Arg(teamID))),
		sm.Where(psql.Quote("user_id").EQ(psql.Arg(userID))),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return false, err
	}

	var one int
	err = e.QueryRow(ctx, sql, args...).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (p *pgxMembershipRepository) SetAllowedPages(ctx context.Context, id string, pages []string) (*TeamMember, error) {
	e := db.ExecutorFromContext(ctx, p.pool)

	q := psql.Update(
		um.Table("team_members"),
		um.SetCol("allowed_pages").ToArg(pages),
		um.Where(psql.Quote("id").EQ(psql.Arg(id))),
		um.Returning("id", "team_id", "user_id", "role", "allowed_pages", "created_at"),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	member, err := scanMember(e.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return member, err
}

func (p *pgxMembershipRepository) Delete(ctx context.Context, id string) error {
	e := db.ExecutorFromContext(ctx, p.pool)

	q := psql.Delete(
		dm.From("team_members"),
		dm.Where(psql.Quote("id").EQ(psql.Arg(id))),
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
