package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kastkar/krushi/internal/storage"
)

const (
	getSnapshotSQL = `SELECT data FROM snapshots WHERE key = $1`

	putSnapshotSQL = `INSERT INTO snapshots (key, data, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`
)

var _ storage.Store = (*SnapshotStore)(nil)

// SnapshotStore implements storage.Store backed by PostgreSQL.
type SnapshotStore struct {
	pool *pgxpool.Pool
}

// NewSnapshotStore returns a SnapshotStore that uses the given pool. The
// caller runs migrations first.
func NewSnapshotStore(pool *pgxpool.Pool) *SnapshotStore {
	return &SnapshotStore{pool: pool}
}

// Get returns the document stored under key.
func (s *SnapshotStore) Get(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	if err := s.pool.QueryRow(ctx, getSnapshotSQL, key).Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get snapshot %q", key)
	}
	return data, nil
}

// Put upserts the document stored under key.
func (s *SnapshotStore) Put(ctx context.Context, key string, data []byte) error {
	if _, err := s.pool.Exec(ctx, putSnapshotSQL, key, data); err != nil {
		return errors.Wrapf(err, "put snapshot %q", key)
	}
	return nil
}

// Ping checks a pooled connection.
func (s *SnapshotStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the pool.
func (s *SnapshotStore) Close() error {
	s.pool.Close()
	return nil
}
