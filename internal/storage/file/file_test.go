package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kastkar/krushi/internal/storage"
)

func TestStore(t *testing.T) {
	tests := []struct {
		name string
		gzip bool
		file string
	}{
		{name: "plain", gzip: false, file: "kastkar_products.json"},
		{name: "gzip", gzip: true, file: "kastkar_products.json.gz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			dir := t.TempDir()
			s, err := New(dir, tt.gzip)
			require.NoError(t, err)

			_, err = s.Get(ctx, "kastkar_products")
			require.ErrorIs(t, err, storage.ErrNotFound)

			require.NoError(t, s.Put(ctx, "kastkar_products", []byte(`[{"id":1}]`)))
			require.NoError(t, s.Put(ctx, "kastkar_products", []byte(`[{"id":2}]`)))

			got, err := s.Get(ctx, "kastkar_products")
			require.NoError(t, err)
			assert.Equal(t, `[{"id":2}]`, string(got))

			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			require.Len(t, entries, 1, "temp files must not be left behind")
			assert.Equal(t, tt.file, entries[0].Name())

			require.NoError(t, s.Ping(ctx))
		})
	}
}

func TestStore_InvalidKey(t *testing.T) {
	s, err := New(t.TempDir(), false)
	require.NoError(t, err)

	for _, key := range []string{"", "../etc", "a/b", ".hidden"} {
		err := s.Put(context.Background(), key, []byte("{}"))
		assert.Error(t, err, key)
	}
}

func TestStore_PingMissingDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	s, err := New(dir, false)
	require.NoError(t, err)
	require.NoError(t, os.RemoveAll(dir))

	assert.Error(t, s.Ping(context.Background()))
}
