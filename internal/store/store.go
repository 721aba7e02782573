package store

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned by Get when no value is stored under the key.
// Callers that treat a missing value as "empty" should check for it with errors.Is.
var ErrKeyNotFound = errors.New("store: key not found")

// Store is the persistent key-value substrate behind the cart ledger and the
// order composer. Values are opaque to the store; the callers own serialization.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
}

// Scoped wraps a Store and prefixes every key, giving each user an isolated
// namespace over a shared backend.
type Scoped struct {
	inner Store
	scope string
}

func NewScoped(inner Store, scope string) *Scoped {
	return &Scoped{inner: inner, scope: scope}
}

func (s *Scoped) key(key string) string {
	return s.scope + ":" + key
}

func (s *Scoped) Get(ctx context.Context, key string) ([]byte, error) {
	return s.inner.Get(ctx, s.key(key))
}

func (s *Scoped) Set(ctx context.Context, key string, value []byte) error {
	return s.inner.Set(ctx, s.key(key), value)
}

func (s *Scoped) Remove(ctx context.Context, key string) error {
	return s.inner.Remove(ctx, s.key(key))
}
