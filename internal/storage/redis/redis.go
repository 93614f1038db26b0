// Package redis stores snapshots as plain redis string values.
package redis

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"

	"github.com/kastkar/krushi/internal/storage"
)

var _ storage.Store = (*Store)(nil)

type cmdable interface {
	Ping(context.Context) *redis.StatusCmd
	Get(context.Context, string) *redis.StringCmd
	Set(context.Context, string, any, time.Duration) *redis.StatusCmd
}

// Store is a storage.Store over a redis connection.
type Store struct {
	store cmdable
	raw   *redis.Client
}

// Options tunes the connection parsed from the URL.
type Options struct {
	URL          string
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// New parses opts.URL, connects and verifies connectivity.
func New(ctx context.Context, opts Options) (*Store, error) {
	if opts.URL == "" {
		return nil, errors.New("redis url is required")
	}
	parsed, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, errors.Wrap(err, "parse redis url")
	}
	if opts.DialTimeout > 0 {
		parsed.DialTimeout = opts.DialTimeout
	}
	if opts.ReadTimeout > 0 {
		parsed.ReadTimeout = opts.ReadTimeout
	}
	if opts.WriteTimeout > 0 {
		parsed.WriteTimeout = opts.WriteTimeout
	}

	raw := redis.NewClient(parsed)
	if err := raw.Ping(ctx).Err(); err != nil {
		_ = raw.Close()
		return nil, errors.Wrap(err, "ping redis")
	}
	return &Store{store: raw, raw: raw}, nil
}

// Get returns the value stored at key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.store.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, storage.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get %s", key)
	}
	return data, nil
}

// Put stores data at key without expiry.
func (s *Store) Put(ctx context.Context, key string, data []byte) error {
	if err := s.store.Set(ctx, key, data, 0).Err(); err != nil {
		return errors.Wrapf(err, "set %s", key)
	}
	return nil
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.store.Ping(ctx).Err()
}

// Close releases the connection pool.
func (s *Store) Close() error {
	if s.raw == nil {
		return nil
	}
	return s.raw.Close()
}
