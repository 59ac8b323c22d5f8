// Package redis is a KeyValue backend on top of go-redis.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Ami2490/armeria/pkg/database"
)

// Store persists records as plain Redis strings under Prefix+key.
type Store struct {
	client goredis.Cmdable
	prefix string
	ttl    time.Duration
	tracer database.QueryTracer
}

// Option configures a Store.
type Option func(*Store)

// WithPrefix namespaces every key, e.g. "armeria:".
func WithPrefix(p string) Option {
	return func(s *Store) { s.prefix = p }
}

// WithTTL expires records ttl after their last write. Zero keeps them forever.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) { s.ttl = ttl }
}

// WithTracer traces and slow-logs each command.
func WithTracer(q database.QueryTracer) Option {
	return func(s *Store) { s.tracer = q }
}

// New wraps client.
func New(client goredis.Cmdable, opts ...Option) *Store {
	s := &Store{client: client, tracer: database.QueryTracer{System: "redis"}}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Get returns the string stored under key.
func (s *Store) Get(ctx context.Context, key string) (value string, ok bool, err error) {
	ctx, end := s.tracer.Start(ctx, "kv.get", "GET")
	defer func() { end(err) }()

	v, err := s.client.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return v, true, nil
}

// Set writes value under key, refreshing the TTL.
func (s *Store) Set(ctx context.Context, key, value string) (err error) {
	ctx, end := s.tracer.Start(ctx, "kv.set", "SET")
	defer func() { end(err) }()

	if err = s.client.Set(ctx, s.prefix+key, value, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Ping checks the server is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
