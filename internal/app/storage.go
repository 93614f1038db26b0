package app

import (
	"context"
	"flag"
	"os"

	"github.com/go-faster/errors"

	"github.com/kastkar/krushi/internal/storage"
	"github.com/kastkar/krushi/internal/storage/file"
	"github.com/kastkar/krushi/internal/storage/postgres"
	"github.com/kastkar/krushi/internal/storage/redis"
)

// OpenStorage connects the snapshot store selected by cfg.Driver. Postgres
// migrations run before the store is returned.
func OpenStorage(ctx context.Context, cfg StorageConfig) (storage.Store, error) {
	switch cfg.Driver {
	case DriverFile:
		s, err := file.New(cfg.Path, cfg.Gzip)
		if err != nil {
			return nil, errors.Wrap(err, "open file storage")
		}
		return s, nil
	case DriverRedis:
		s, err := redis.New(ctx, redis.Options{URL: cfg.RedisURL})
		if err != nil {
			return nil, errors.Wrap(err, "open redis storage")
		}
		return s, nil
	case DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, errors.Wrap(err, "create db pool")
		}
		if err := postgres.RunMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, errors.Wrap(err, "run migrations")
		}
		return postgres.NewSnapshotStore(pool), nil
	default:
		return nil, errors.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// StorageFlags binds the storage settings to fs for command line tools.
// Unset URLs fall back to DATABASE_URL and REDIS_URL after parsing, see
// StorageConfig.ApplyEnv.
func StorageFlags(fs *flag.FlagSet) *StorageConfig {
	var cfg StorageConfig
	fs.StringVar(&cfg.Driver, "storage", DriverFile, "snapshot storage driver: file, redis or postgres")
	fs.StringVar(&cfg.Path, "path", "data", "snapshot directory (file driver)")
	fs.BoolVar(&cfg.Gzip, "gzip", false, "gzip snapshot files (file driver)")
	fs.StringVar(&cfg.RedisURL, "redis-url", "", "Redis connection URL (or REDIS_URL env)")
	fs.StringVar(&cfg.DatabaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	return &cfg
}

// ApplyEnv fills empty connection URLs from the platform environment.
func (c *StorageConfig) ApplyEnv() {
	if c.DatabaseURL == "" {
		c.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if c.RedisURL == "" {
		c.RedisURL = os.Getenv("REDIS_URL")
	}
}
