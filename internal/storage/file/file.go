// Package file stores snapshots as files in a directory, optionally
// compressed with pgzip.
package file

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-faster/errors"
	"github.com/klauspost/pgzip"

	"github.com/kastkar/krushi/internal/storage"
)

var _ storage.Store = (*Store)(nil)

// Store keeps one file per key under Dir.
type Store struct {
	dir  string
	gzip bool
	mu   sync.Mutex
}

// New creates dir if needed and returns a Store rooted there.
func New(dir string, gzip bool) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create %s", dir)
	}
	return &Store{dir: dir, gzip: gzip}, nil
}

func (s *Store) path(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || strings.HasPrefix(key, ".") {
		return "", errors.Errorf("invalid key %q", key)
	}
	name := key + ".json"
	if s.gzip {
		name += ".gz"
	}
	return filepath.Join(s.dir, name), nil
}

// Get reads the snapshot stored under key.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, storage.ErrNotFound
		}
		return nil, errors.Wrapf(err, "open %s", p)
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if s.gzip {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrapf(err, "gzip reader %s", p)
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", p)
	}
	return data, nil
}

// Put writes data to a temp file in the same directory and renames it over
// the previous snapshot.
func (s *Store) Put(_ context.Context, key string, data []byte) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}

	payload := data
	if s.gzip {
		var buf bytes.Buffer
		gz := pgzip.NewWriter(&buf)
		if _, err := gz.Write(data); err != nil {
			return errors.Wrap(err, "gzip write")
		}
		if err := gz.Close(); err != nil {
			return errors.Wrap(err, "gzip close")
		}
		payload = buf.Bytes()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, "."+key+".*")
	if err != nil {
		return errors.Wrap(err, "create temp")
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		return errors.Wrapf(err, "write %s", tmpName)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return errors.Wrapf(err, "sync %s", tmpName)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "close %s", tmpName)
	}
	if err := os.Rename(tmpName, p); err != nil {
		return errors.Wrapf(err, "rename to %s", p)
	}
	return nil
}

// Ping checks that the directory is still reachable.
func (s *Store) Ping(context.Context) error {
	info, err := os.Stat(s.dir)
	if err != nil {
		return errors.Wrap(err, "stat data dir")
	}
	if !info.IsDir() {
		return errors.Errorf("%s is not a directory", s.dir)
	}
	return nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }
