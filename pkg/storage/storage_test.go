package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feichai0017/document-client/pkg/logger"
)

func TestNewStorage_Backends(t *testing.T) {
	ctx := context.Background()
	log := logger.NewTestLogger()

	for _, typ := range []StorageType{StorageTypeMemory, StorageTypeFile} {
		t.Run(string(typ), func(t *testing.T) {
			s, err := NewStorage(typ, Options{Path: t.TempDir()}, log)
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
			_, ok, _ = s.Get(ctx, "user")
			assert.False(t, ok)
		})
	}
}

func TestNewStorage_Unsupported(t *testing.T) {
	_, err := NewStorage("s3", Options{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported storage type")
}

func TestNewStorage_RedisUnreachable(t *testing.T) {
	_, err := NewStorage(StorageTypeRedis, Options{RedisAddr: "127.0.0.1:1"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to redis")
}
