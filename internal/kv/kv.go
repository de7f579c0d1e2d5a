// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package kv provides the durable key-value store behind the history
// stores and the persisted layout. Payloads are opaque bytes; callers
// encode JSON.
package kv

import (
	"context"
	"errors"
	"fmt"

	"github.com/pdiddy/annotation-browser/pkg/types"
)

// ErrNotFound is returned by Get when the key has never been set or was removed.
var ErrNotFound = errors.New("kv: key not found")

// Store is a durable string-keyed byte store.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
	Close() error
}

var (
	_ Store = (*Memory)(nil)
	_ Store = (*SQLite)(nil)
	_ Store = (*Redis)(nil)
)

// Open builds the store selected by cfg.Backend and wraps it with
// cfg.KeyPrefix.
func Open(cfg types.StorageConfig) (Store, error) {
	var (
		s   Store
		err error
	)
	switch cfg.Backend {
	case types.StorageSQLite, "":
		s, err = NewSQLite(cfg.Path)
	case types.StorageRedis:
		s, err = NewRedis(RedisConfig{Addrs: cfg.RedisAddrs, Password: cfg.RedisPassword})
	case types.StorageMemory:
		s = NewMemory()
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	return WithPrefix(s, cfg.KeyPrefix), nil
}

type prefixed struct {
	Store
	prefix string
}

// WithPrefix namespaces every key of s with prefix. An empty prefix
// returns s unchanged.
func WithPrefix(s Store, prefix string) Store {
	if prefix == "" {
		return s
	}
	return &prefixed{Store: s, prefix: prefix}
}

func (p *prefixed) Get(ctx context.Context, key string) ([]byte, error) {
	return p.Store.Get(ctx, p.prefix+key)
}

func (p *prefixed) Set(ctx context.Context, key string, value []byte) error {
	return p.Store.Set(ctx, p.prefix+key, value)
}

func (p *prefixed) Remove(ctx context.Context, key string) error {
	return p.Store.Remove(ctx, p.prefix+key)
}
