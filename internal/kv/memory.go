package kv

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

type memItem struct {
	value   []byte
	expires time.Time
}

// Memory is an in-process Store for local development and tests.
// The cursor is the last key of the previous page.
type Memory struct {
	mu    sync.Mutex
	items map[string]memItem
	now   func() time.Time
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{items: make(map[string]memItem), now: time.Now}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.live(key)
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), item.value...), nil
}

func (m *Memory) Put(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	item := memItem{value: append([]byte(nil), value...)}
	if ttl > 0 {
		item.expires = m.now().Add(ttl)
	}
	m.items[key] = item
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}

func (m *Memory) List(_ context.Context, prefix, cursor string, limit int) (Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var keys []string
	for k := range m.items {
		if !strings.HasPrefix(k, prefix) || k <= cursor {
			continue
		}
		if _, ok := m.live(k); ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	if limit <= 0 || len(keys) <= limit {
		return Page{Keys: keys}, nil
	}
	keys = keys[:limit]
	return Page{Keys: keys, Cursor: keys[len(keys)-1]}, nil
}

// Incr increments the decimal counter stored at key, treating absent as zero.
func (m *Memory) Incr(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	if item, ok := m.live(key); ok {
		parsed, err := strconv.ParseInt(string(item.value), 10, 64)
		if err != nil {
			return 0, err
		}
		n = parsed
	}
	n++
	m.items[key] = memItem{value: []byte(strconv.FormatInt(n, 10))}
	return n, nil
}

// live must be called with mu held; it drops expired entries lazily.
func (m *Memory) live(key string) (memItem, bool) {
	item, ok := m.items[key]
	if !ok {
		return memItem{}, false
	}
	if !item.expires.IsZero() && !m.now().Before(item.expires) {
		delete(m.items, key)
		return memItem{}, false
	}
	return item, true
}
