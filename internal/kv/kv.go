// Package kv defines the key-value contract the deal store is built on and
// ships memory, Redis and Postgres backends for it.
package kv

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when the key is absent or expired.
var ErrNotFound = errors.New("kv: key not found")

// Page is one slice of a prefix listing. An empty Cursor means the listing is exhausted.
type Page struct {
	Keys   []string
	Cursor string
}

// Store is an opaque get/put/list/delete service with prefix iteration.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	// Put writes value under key; a zero ttl means no expiry.
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// List returns up to limit keys starting with prefix, continuing from cursor.
	// Backends may return short or empty pages before the end and may repeat keys
	// across pages; callers loop until Cursor is empty.
	List(ctx context.Context, prefix, cursor string, limit int) (Page, error)
}

// Counter is implemented by backends that can increment a decimal counter atomically.
type Counter interface {
	Incr(ctx context.Context, key string) (int64, error)
}

// Namespaces used by the application. Each is an independent store.
const (
	NamespaceDeals       = "deals"
	NamespaceAssessments = "assessments"
	NamespaceUsage       = "usage"
	NamespaceSessions    = "sessions"
)

// Stores bundles the independent namespaces.
type Stores struct {
	Deals       Store
	Assessments Store
	Usage       Store
	Sessions    Store
}
