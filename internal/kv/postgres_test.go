package kv

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPostgres(t *testing.T) (*Postgres, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS "kv_deals"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	p, err := NewPostgres(context.Background(), db, NamespaceDeals)
	require.NoError(t, err)
	p.now = func() time.Time { return time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC) }
	return p, mock
}

func TestPostgresGet(t *testing.T) {
	ctx := context.Background()
	p, mock := newTestPostgres(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT value FROM "kv_deals" WHERE key = $1 AND (expires_at IS NULL OR expires_at > $2)`)).
		WithArgs("u1:d1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(`{"title":"x"}`))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT value FROM "kv_deals"`)).
		WithArgs("u1:missing", sqlmock.AnyArg()).
		WillReturnError(sql.ErrNoRows)

	got, err := p.Get(ctx, "u1:d1")
	require.NoError(t, err)
	assert.Equal(t, `{"title":"x"}`, string(got))

	_, err = p.Get(ctx, "u1:missing")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresPutUpserts(t *testing.T) {
	ctx := context.Background()
	p, mock := newTestPostgres(t)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "kv_deals" (key,value,expires_at) VALUES ($1,$2,$3) ON CONFLICT (key) DO UPDATE`)).
		WithArgs("u1:d1", "{}", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, p.Put(ctx, "u1:d1", []byte("{}"), time.Hour))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDelete(t *testing.T) {
	p, mock := newTestPostgres(t)
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "kv_deals" WHERE key = $1`)).
		WithArgs("u1:d1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, p.Delete(context.Background(), "u1:d1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresListKeysetPagination(t *testing.T) {
	ctx := context.Background()
	p, mock := newTestPostgres(t)

	mock.ExpectQuery(`SELECT key FROM "kv_deals" WHERE key LIKE \$1 .* ORDER BY key LIMIT 3`).
		WithArgs(`u\_1:%`, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"key"}).AddRow("u_1:a").AddRow("u_1:b").AddRow("u_1:c"))
	mock.ExpectQuery(`SELECT key FROM "kv_deals" WHERE key LIKE \$1 .* AND key > \$3 ORDER BY key LIMIT 3`).
		WithArgs(`u\_1:%`, sqlmock.AnyArg(), "u_1:b").
		WillReturnRows(sqlmock.NewRows([]string{"key"}).AddRow("u_1:c"))

	first, err := p.List(ctx, "u_1:", "", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"u_1:a", "u_1:b"}, first.Keys)
	assert.Equal(t, "u_1:b", first.Cursor)

	second, err := p.List(ctx, "u_1:", first.Cursor, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"u_1:c"}, second.Keys)
	assert.Empty(t, second.Cursor)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresIncr(t *testing.T) {
	p, mock := newTestPostgres(t)
	mock.ExpectQuery(regexp.QuoteMeta(`ON CONFLICT (key) DO UPDATE SET value = (("kv_deals".value)::bigint + 1)::text`)).
		WithArgs("2026-10", "1").
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow("7"))

	n, err := p.Incr(context.Background(), "2026-10")
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
