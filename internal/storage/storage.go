// Package storage defines the key/value snapshot store shared by the file,
// redis and postgres backends.
package storage

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned by Get when the key holds no snapshot.
var ErrNotFound = errors.New("snapshot not found")

// Store persists whole JSON snapshots under string keys. Put replaces the
// previous value atomically.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
	Ping(ctx context.Context) error
	Close() error
}
