package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kennymark/bossman/internal/db"
	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/dialect"
	"github.com/stephenafamo/bob/dialect/psql/im"
	"github.com/stephenafamo/bob/dialect/psql/sm"
)

type AuditEvent struct {
	ID         string    `db:"id"`
	UserID     string    `db:"user_id"`
	Event      string    `db:"event"`
	EntityType string    `db:"entity_type"`
	EntityID   string    `db:"entity_id"`
	CreatedAt  time.Time `db:"created_at"`
}

// AuditRepository is append-only: events are never updated or deleted.
type AuditRepository interface {
	Create(ctx context.Context, event *AuditEvent) error
	ListByUser(ctx context.Context, userID, event, entityType string, limit, offset int) ([]*AuditEvent, int, error)
}

type pgxAuditRepository struct {
	pool *pgxpool.Pool
}

func NewPgxAuditRepository(pool *pgxpool.Pool) AuditRepository {
	return &pgxAuditRepository{pool: pool}
}

func scanAuditEvent(row pgx.Row) (*AuditEvent, error) {
	e := &AuditEvent{}
	err := row.Scan(&e.ID, &e.UserID, &e.Event, &e.EntityType, &e.EntityID, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (p *pgxAuditRepository) Create(ctx context.Context, event *AuditEvent) error {
	e := db.ExecutorFromContext(ctx, p.pool)

	q := psql.Insert(
		im.Into("audit_events", "user_id", "event", "entity_type", "entity_id"),
		im.Values(
			psql.Arg(event.UserID),
			psql.Arg(event.Event),
			psql.Arg(event.EntityType),
			psql.Arg(event.EntityID),
		),
		im.Returning("id", "created_at"),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return err
	}

	return e.QueryRow(ctx, sql, args...).Scan(&event.ID, &event.CreatedAt)
}

func (p *pgxAuditRepository) ListByUser(ctx context.Context, userID, event, entityType string, limit, offset int) ([]*AuditEvent, int, error) {
	e := db.ExecutorFromContext(ctx, p.pool)

	mods := []bob.Mod[*dialect.SelectQuery]{
		sm.From("audit_events"),
		sm.Where(psql.Quote("user_id").EQ(psql.Arg(userID))),
	}
	if event != "" {
		mods = append(mods, sm.Where(psql.Quote("event").EQ(psql.Arg(event))))
	}
	if entityType != "" {
		mods = append(mods, sm.Where(psql.Quote("entity_type").EQ(psql.Arg(entityType))))
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
		sm.Columns("id", "user_id", "event", "entity_type", "entity_id", "created_at"),
		sm.OrderBy("created_at").Desc(),
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

	events, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*AuditEvent, error) {
		return scanAuditEvent(row)
	})
	if err != nil {
		return nil, 0, err
	}

	return events, total, nil
}
