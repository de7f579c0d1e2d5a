// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package kv

import (
	"context"
	"fmt"

	"github.com/redis/rueidis"
)

// RedisConfig holds connection parameters for a Redis store.
type RedisConfig struct {
	Addrs    []string
	Username string
	Password string
	DB       int
}

// Redis persists keys as plain Redis strings via rueidis.
type Redis struct {
	client rueidis.Client
}

// NewRedis connects to the configured Redis endpoints.
func NewRedis(cfg RedisConfig) (*Redis, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("redis addrs is required")
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		SelectDB:     cfg.DB,
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return &Redis{client: client}, nil
}

func newRedisWithClient(c rueidis.Client) *Redis {
	return &Redis{client: c}
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	cmd := r.client.B().Get().Key(key).Build()
	data, err := r.client.Do(ctx, cmd).AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("GET %s: %w", key, err)
	}
	return data, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	cmd := r.client.B().Set().Key(key).Value(rueidis.BinaryString(value)).Build()
	if err := r.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("SET %s: %w", key, err)
	}
	return nil
}

func (r *Redis) Remove(ctx context.Context, key string) error {
	cmd := r.client.B().Del().Key(key).Build()
	if err := r.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("DEL %s: %w", key, err)
	}
	return nil
}

// Close shuts down the client.
func (r *Redis) Close() error {
	r.client.Close()
	return nil
}
