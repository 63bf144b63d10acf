package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kennymark/bossman/internal/db"
	"github.com/pkg/errors"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/im"
	"github.com/stephenafamo/bob/dialect/psql/sm"
)

type Team struct {
	ID              string    `db:"id"`
	Kind            string    `db:"kind"`
	Name            string    `db:"name"`
	CreatedByUserID string    `db:"created_by_user_id"`
	CreatedAt       time.Time `db:"created_at"`
}

type TeamRepository interface {
	Create(ctx context.Context, team *Team) error
	Get(ctx context.Context, id string) (*Team, error)
	ListByUser(ctx context.Context, userID, kind string) ([]*Team, error)
	// EnsureAdminTeam returns the canonical admin team, creating it when
	// absent. The partial unique index on teams(kind) makes concurrent
	// first-time creation safe.
	EnsureAdminTeam(ctx context.Context, createdByUserID string) (*Team, error)
	CountByKind(ctx context.Context, kind string) (int, error)
}

type pgxTeamRepository struct {
	pool *pgxpool.Pool
}

func NewPgxTeamRepository(pool *pgxpool.Pool) TeamRepository {
	return &pgxTeamRepository{pool: pool}
}

const teamColumns = "id, kind, name, created_by_user_id, created_at"

func scanTeam(row pgx.Row) (*Team, error) {
	team := &Team{}
	if err := row.Scan(&team.ID, &team.Kind, &team.Name, &team.CreatedByUserID, &team.CreatedAt); err != nil {
		return nil, err
	}
	return team, nil
}

func (p *pgxTeamRepository) Create(ctx context.Context, team *Team) error {
	e := db.ExecutorFromContext(ctx, p.pool)

	q := psql.Insert(
		im.Into("teams", "kind", "name", "created_by_user_id"),
		im.Values(psql.Arg(team.Kind), psql.Arg(team.Name), psql.Arg(team.CreatedByUserID)),
		im.Returning("id", "created_at"),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return err
	}

	err = e.QueryRow(ctx, sql, args...).Scan(&team.ID, &team.CreatedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrAlreadyExists
	}

	return err
}

func (p *pgxTeamRepository) Get(ctx context.Context, id string) (*Team, error) {
	e := db.ExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns(teamColumns),
		sm.From("teams"),
		sm.Where(psql.Quote("id").EQ(psql.Arg(id))),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	team, err := scanTeam(e.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return team, err
}

func (p *pgxTeamRepository) ListByUser(ctx context.Context, userID, kind string) ([]*Team, error) {
	e := db.ExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns(teamColumns),
		sm.From("teams"),
		sm.Where(psql.Quote("kind").EQ(psql.Arg(kind))),
		sm.Where(psql.Quote("id").In(
			psql.Select(
				sm.Columns("team_id"),
				sm.From("team_members"),
				sm.Where(psql.Quote("user_id").EQ(psql.Arg(userID))),
			),
		)),
		sm.OrderBy("created_at").Desc(),
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

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*Team, error) {
		return scanTeam(row)
	})
}

func (p *pgxTeamRepository) EnsureAdminTeam(ctx context.Context, createdByUserID string) (*Team, error) {
	team, err := p.getAdminTeam(ctx)
	if err == nil {
		return team, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	e := db.ExecutorFromContext(ctx, p.pool)

	// A concurrent request may create the team first; DO NOTHING and
	// re-select so both callers agree on the earliest row.
	q := psql.Insert(
		im.Into("teams", "kind", "name", "created_by_user_id"),
		im.Values(psql.Arg("admin"), psql.Arg("Admin"), psql.Arg(createdByUserID)),
		im.OnConflict().DoNothing(),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	if _, err = e.Exec(ctx, sql, args...); err != nil {
		return nil, err
	}

	return p.getAdminTeam(ctx)
}

func (p *pgxTeamRepository) getAdminTeam(ctx context.Context) (*Team, error) {
	e := db.ExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns(teamColumns),
		sm.From("teams"),
		sm.Where(psql.Quote("kind").EQ(psql.Arg("admin"))),
		sm.OrderBy("created_at").Asc(),
		sm.Limit(1),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	team, err := scanTeam(e.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return team, err
}

func (p *pgxTeamRepository) CountByKind(ctx context.Context, kind string) (int, error) {
	e := db.ExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns("count(*)"),
		sm.From("teams"),
		sm.Where(psql.Quote("kind").EQ(psql.Arg(kind))),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return 0, err
	}

	var count int
	if err = e.QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
