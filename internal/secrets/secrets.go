// Package secrets resolves named secrets such as provider API keys.
package secrets

import (
	"context"
	"errors"
	"os"
	"strings"
)

var ErrNotFound = errors.New("secret not found")

// Secret is an opaque secret value.
type Secret struct {
	value string
}

// NewSecret wraps a raw value.
func NewSecret(value string) Secret {
	return Secret{value: value}
}

// Text exposes the secret value.
func (s Secret) Text() string {
	return s.value
}

// String keeps secrets out of logs and fmt output.
func (s Secret) String() string {
	return "[redacted]"
}

// Store looks secrets up by name. Blank values are reported as ErrNotFound.
type Store interface {
	Get(ctx context.Context, name string) (Secret, error)
}

// Env reads secrets from the process environment (.env is loaded at startup).
type Env struct{}

func (Env) Get(_ context.Context, name string) (Secret, error) {
	v, ok := os.LookupEnv(name)
	if !ok || strings.TrimSpace(v) == "" {
		return Secret{}, ErrNotFound
	}
	return NewSecret(strings.TrimSpace(v)), nil
}

// Static serves secrets from a fixed map.
type Static map[string]string

func (s Static) Get(_ context.Context, name string) (Secret, error) {
	v, ok := s[name]
	if !ok || strings.TrimSpace(v) == "" {
		return Secret{}, ErrNotFound
	}
	return NewSecret(v), nil
}
