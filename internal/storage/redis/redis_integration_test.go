//go:build integration

package redis

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kastkar/krushi/internal/storage"
)

func TestStore_Container(t *testing.T) {
	ctx := context.Background()

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, err := c.Host(ctx)
	require.NoError(t, err)
	port, err := c.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)

	s, err := New(ctx, Options{URL: fmt.Sprintf("redis://%s:%s/0", host, port.Port())})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	_, err = s.Get(ctx, "kastkar_visitors")
	require.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, s.Put(ctx, "kastkar_visitors", []byte(`[]`)))
	got, err := s.Get(ctx, "kastkar_visitors")
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(got))
}
