package kv

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := NewRedisClient(context.Background(), mr.Addr(), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisGetPutDelete(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestRedis(t)
	deals := NewRedis(client, NamespaceDeals)

	_, err := deals.Get(ctx, "u1:d1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, deals.Put(ctx, "u1:d1", []byte(`{"title":"x"}`), 0))
	assert.True(t, mr.Exists("deals:u1:d1"))

	got, err := deals.Get(ctx, "u1:d1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"x"}`, string(got))

	require.NoError(t, deals.Delete(ctx, "u1:d1"))
	assert.False(t, mr.Exists("deals:u1:d1"))
}

func TestRedisPutTTL(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestRedis(t)
	sessions := NewRedis(client, NamespaceSessions)

	require.NoError(t, sessions.Put(ctx, "abc", []byte("{}"), time.Minute))
	assert.Equal(t, time.Minute, mr.TTL("sessions:abc"))

	mr.FastForward(2 * time.Minute)
	_, err := sessions.Get(ctx, "abc")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisListPagesWithinNamespace(t *testing.T) {
	ctx := context.Background()
	_, client := newTestRedis(t)
	deals := NewRedis(client, NamespaceDeals)
	other := NewRedis(client, NamespaceAssessments)

	for i := 0; i < 250; i++ {
		require.NoError(t, deals.Put(ctx, fmt.Sprintf("u1:%03d", i), []byte("{}"), 0))
	}
	require.NoError(t, deals.Put(ctx, "u2:000", []byte("{}"), 0))
	require.NoError(t, other.Put(ctx, "u1:999:1", []byte("{}"), 0))

	seen := map[string]bool{}
	cursor := ""
	pages := 0
	for {
		page, err := deals.List(ctx, "u1:", cursor, 100)
		require.NoError(t, err)
		pages++
		for _, k := range page.Keys {
			assert.Regexp(t, `^u1:\d{3}$`, k)
			seen[k] = true
		}
		if page.Cursor == "" {
			break
		}
		cursor = page.Cursor
	}

	assert.Equal(t, 3, pages)
	assert.Len(t, seen, 250)
}

func TestRedisListRejectsBadCursor(t *testing.T) {
	_, client := newTestRedis(t)
	_, err := NewRedis(client, NamespaceDeals).List(context.Background(), "u1:", "not-a-number", 10)
	assert.Error(t, err)
}

func TestRedisIncr(t *testing.T) {
	ctx := context.Background()
	_, client := newTestRedis(t)
	usage := NewRedis(client, NamespaceUsage)

	n, err := usage.Incr(ctx, "2026-10")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	n, err = usage.Incr(ctx, "2026-10")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	got, err := usage.Get(ctx, "2026-10")
	require.NoError(t, err)
	assert.Equal(t, "2", string(got))
}

func TestEscapeGlob(t *testing.T) {
	assert.Equal(t, `deals:a\*b\?c\[d\]`, escapeGlob("deals:a*b?c[d]"))
}
