package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"
)

// Postgres is a Store backed by one table per namespace. Listing uses keyset
// pagination: the cursor is the last key of the previous page.
type Postgres struct {
	db    *sql.DB
	table string
	sb    sq.StatementBuilderType
	now   func() time.Time
}

// OpenPostgres opens a pgx-backed *sql.DB and verifies the connection.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres connection failed: %w", err)
	}
	return db, nil
}

// NewPostgres returns a Store for namespace, creating its table if needed.
func NewPostgres(ctx context.Context, db *sql.DB, namespace string) (*Postgres, error) {
	p := &Postgres{
		db:    db,
		table: pq.QuoteIdentifier("kv_" + namespace),
		sb:    sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		now:   time.Now,
	}
	if err := p.migrate(ctx); err != nil {
		return nil, fmt.Errorf("migrate %s: %w", p.table, err)
	}
	return p, nil
}

func (p *Postgres) migrate(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS `+p.table+` (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		expires_at TIMESTAMPTZ
	)`)
	return err
}

func (p *Postgres) live() sq.Sqlizer {
	return sq.Or{sq.Eq{"expires_at": nil}, sq.Expr("expires_at > ?", p.now())}
}

func (p *Postgres) Get(ctx context.Context, key string) ([]byte, error) {
	query, args, err := p.sb.Select("value").From(p.table).
		Where(sq.Eq{"key": key}).
		Where(p.live()).
		ToSql()
	if err != nil {
		return nil, err
	}
	var value string
	err = p.db.QueryRowContext(ctx, query, args...).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(value), nil
}

func (p *Postgres) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	var expires sql.NullTime
	if ttl > 0 {
		expires = sql.NullTime{Time: p.now().Add(ttl), Valid: true}
	}
	query, args, err := p.sb.Insert(p.table).
		Columns("key", "value", "expires_at").
		Values(key, string(value), expires).
		Suffix("ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at").
		ToSql()
	if err != nil {
		return err
	}
	_, err = p.db.ExecContext(ctx, query, args...)
	return err
}

func (p *Postgres) Delete(ctx context.Context, key string) error {
	query, args, err := p.sb.Delete(p.table).Where(sq.Eq{"key": key}).ToSql()
	if err != nil {
		return err
	}
	_, err = p.db.ExecContext(ctx, query, args...)
	return err
}

func (p *Postgres) List(ctx context.Context, prefix, cursor string, limit int) (Page, error) {
	q := p.sb.Select("key").From(p.table).
		Where(sq.Like{"key": escapeLike(prefix) + "%"}).
		Where(p.live()).
		OrderBy("key")
	if cursor != "" {
		q = q.Where(sq.Gt{"key": cursor})
	}
	if limit > 0 {
		// One extra row tells us whether another page exists.
		q = q.Limit(uint64(limit) + 1)
	}
	query, args, err := q.ToSql()
	if err != nil {
		return Page{}, err
	}

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return Page{}, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return Page{}, err
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return Page{}, err
	}

	if limit > 0 && len(keys) > limit {
		keys = keys[:limit]
		return Page{Keys: keys, Cursor: keys[len(keys)-1]}, nil
	}
	return Page{Keys: keys}, nil
}

// Incr is a single upsert statement, so concurrent increments are not lost.
func (p *Postgres) Incr(ctx context.Context, key string) (int64, error) {
	query, args, err := p.sb.Insert(p.table).
		Columns("key", "value").
		Values(key, "1").
		Suffix("ON CONFLICT (key) DO UPDATE SET value = ((" + p.table + ".value)::bigint + 1)::text, expires_at = NULL RETURNING value").
		ToSql()
	if err != nil {
		return 0, err
	}
	var value string
	if err := p.db.QueryRowContext(ctx, query, args...).Scan(&value); err != nil {
		return 0, err
	}
	return strconv.ParseInt(value, 10, 64)
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
