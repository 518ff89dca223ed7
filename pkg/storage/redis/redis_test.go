package redis

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs against a live server only when REDIS_ADDR is set.
func TestStore_RoundTrip(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	ctx := context.Background()
	prefix := "document_client_test:" + uuid.NewString() + ":"
	s, err := NewStore(Config{Addr: addr, KeyPrefix: prefix}, nil)
	require.NoError(t, err)
	defer s.Close()

	_, ok, err := s.Get(ctx, "user")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "user", "u-1"))
	v, ok, err := s.Get(ctx, "user")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "u-1", v)

	require.NoError(t, s.Delete(ctx, "user"))
	require.NoError(t, s.Delete(ctx, "user"))
	_, ok, err = s.Get(ctx, "user")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewStore_Unreachable(t *testing.T) {
	_, err := NewStore(Config{Addr: "127.0.0.1:1"}, nil)

	assert.ErrorContains(t, err, "failed to connect to redis")
}
