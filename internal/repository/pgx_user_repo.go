package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kennymark/bossman/internal/db"
	"github.com/pkg/errors"
	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/dialect"
	"github.com/stephenafamo/bob/dialect/psql/im"
	"github.com/stephenafamo/bob/dialect/psql/sm"
)

type User struct {
	ID       string `db:"id"`
	Email    string `db:"email"`
	FullName string `db:"full_name"`
	Role     string `db:"role"`
}

type UserRepository interface {
	Get(ctx context.Context, userID string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Upsert(ctx context.Context, user *User) error
	List(ctx context.Context, search string, limit, offset int) ([]*User, int, error)
}

type pgxUserRepository struct {
	pool *pgxpool.Pool
}

func NewPgxUserRepository(pool *pgxpool.Pool) UserRepository {
	return &pgxUserRepository{pool: pool}
}

func scanUser(row pgx.Row) (*User, error) {
	u := &User{}
	if err := row.Scan(&u.ID, &u.Email, &u.FullName, &u.Role); err != nil {
		return nil, err
	}
	return u, nil
}

func (p *pgxUserRepository) Get(ctx context.Context, userID string) (*User, error) {
	e := db.ExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns("id", "email", "full_name", "role"),
		sm.From("users"),
		sm.Where(psql.Quote("id").EQ(psql.Arg(userID))),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	user, err := scanUser(e.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return user, err
}

func (p *pgxUserRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	e := db.ExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns("id", "email", "full_name", "role"),
		sm.From("users"),
		sm.Where(psql.Quote("email").EQ(psql.Arg(email))),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	user, err := scanUser(e.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return user, err
}

func (p *pgxUserRepository) Upsert(ctx context.Context, user *User) error {
	e := db.ExecutorFromContext(ctx, p.pool)

	q := psql.Insert(
		im.Into("users", "id", "email", "full_name", "role"),
		im.Values(psql.Arg(user.ID), psql.Arg(user.Email), psql.Arg(user.FullName), psql.Arg(user.Role)),
		im.OnConflict(psql.Quote("id")).DoUpdate(
			im.SetCol("email").ToArg(user.Email),
			im.SetCol("full_name").ToArg(user.FullName),
			im.SetCol("role").ToArg(user.Role),
		),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return err
	}

	if _, err = e.Exec(ctx, sql, args...); err != nil {
		return err
	}

	return nil
}

func (p *pgxUserRepository) List(ctx context.Context, search string, limit, offset int) ([]*User, int, error) {
	e := db.ExecutorFromContext(ctx, p.pool)

	mods := []bob.Mod[*dialect.SelectQuery]{
		sm.From("users"),
	}
	if search != "" {
		pattern := "%" + search + "%"
		mods = append(mods, sm.Where(psql.Raw("(email ILIKE ? OR full_name ILIKE ?)", pattern, pattern)))
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
		sm.Columns("id", "email", "full_name", "role"),
		sm.OrderBy("email").Asc(),
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

	users, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*User, error) {
		return scanUser(row)
	})
	if err != nil {
		return nil, 0, err
	}

	return users, total, nil
}
