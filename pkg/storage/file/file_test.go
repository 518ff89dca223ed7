package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feichai0017/document-client/pkg/logger"
)

func TestNewStore_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "state")

	s, err := NewStore(dir, nil)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "state.toml"), s.Path())
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := NewStore(dir, nil)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "user", "5b0a3f4e-user"))

	reopened, err := NewStore(dir, nil)
	require.NoError(t, err)
	v, ok, err := reopened.Get(ctx, "user")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "5b0a3f4e-user", v)

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "5b0a3f4e-user")

	info, err := os.Stat(s.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestStore_IgnoresNonStringValues(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "state.toml"), []byte("user = \"u-1\"\ncount = 3\n"), 0600))
	log := logger.NewTestLogger()

	s, err := NewStore(dir, log)
	require.NoError(t, err)

	v, ok, _ := s.Get(context.Background(), "user")
	assert.True(t, ok)
	assert.Equal(t, "u-1", v)
	_, ok, _ = s.Get(context.Background(), "count")
	assert.False(t, ok)
	assert.Equal(t, 1, log.Count("WARN", "ignoring non-string state value"))
}

func TestNewStore_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "state.toml"), []byte("user = [unterminated"), 0600))

	_, err := NewStore(dir, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode state file")
}
