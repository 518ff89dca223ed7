package identity

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feichai0017/document-client/config"
	"github.com/feichai0017/document-client/pkg/logger"
	"github.com/feichai0017/document-client/pkg/storage/file"
	"github.com/feichai0017/document-client/pkg/storage/memory"
)

type failingStorage struct {
	*memory.Store
	getErr error
	setErr error
}

func (f *failingStorage) Get(ctx context.Context, key string) (string, bool, error) {
	if f.getErr != nil {
		return "", false, f.getErr
	}
	return f.Store.Get(ctx, key)
}

func (f *failingStorage) Set(ctx context.Context, key, value string) error {
	if f.setErr != nil {
		return f.setErr
	}
	return f.Store.Set(ctx, key, value)
}

func TestStore_GetUser_CreatesAndPersists(t *testing.T) {
	ctx := context.Background()
	st := memory.NewStore()
	s := NewStore(st, logger.NewTestLogger())

	id, err := s.GetUser(ctx)
	require.NoError(t, err)
	_, err = uuid.Parse(id)
	assert.NoError(t, err, "generated id should be a uuid")

	stored, ok, err := st.Get(ctx, DefaultKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, id, stored)

	again, err := s.GetUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, id, again)
}

func TestStore_GetUser_SurvivesRestart(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	st, err := file.NewStore(dir, nil)
	require.NoError(t, err)
	first, err := NewStore(st, nil).GetUser(ctx)
	require.NoError(t, err)

	// cache empty, storage populated
	reopened, err := file.NewStore(dir, nil)
	require.NoError(t, err)
	s := NewStore(reopened, nil)

	second, err := s.GetUser(ctx)
	require.NoError(t, err)
	third, err := s.GetUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, second, third)
}

func TestStore_GetUser_AdoptsPersisted(t *testing.T) {
	ctx := context.Background()
	st := memory.NewStore()
	require.NoError(t, st.Set(ctx, "owner", "persisted-user"))

	s := NewStore(st, nil, WithKey("owner"), WithIDGenerator(func() string {
		t.Fatal("must not generate when an id is persisted")
		return ""
	}))

	id, err := s.GetUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, "persisted-user", id)
}

func TestStore_SetUser(t *testing.T) {
	ctx := context.Background()
	st := memory.NewStore()
	s := NewStore(st, nil, WithIDGenerator(func() string { return "generated" }))

	_, err := s.GetUser(ctx)
	require.NoError(t, err)

	require.NoError(t, s.SetUser(ctx, "explicit"))
	id, err := s.GetUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, "explicit", id)

	stored, _, _ := st.Get(ctx, DefaultKey)
	assert.Equal(t, "explicit", stored)

	assert.True(t, errors.Is(s.SetUser(ctx, ""), ErrEmptyUser))
}

func TestStore_StorageErrors(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("disk full")

	readFail := NewStore(&failingStorage{Store: memory.NewStore(), getErr: boom}, nil)
	_, err := readFail.GetUser(ctx)
	assert.True(t, errors.Is(err, boom))

	log := logger.NewTestLogger()
	writeFail := NewStore(&failingStorage{Store: memory.NewStore(), setErr: boom}, log)
	err = writeFail.SetUser(ctx, "u-1")
	assert.True(t, errors.Is(err, boom))
	assert.Equal(t, 1, log.Count("ERROR", "Failed to persist user id"))
}

func TestStore_GetUser_Concurrent(t *testing.T) {
	ctx := context.Background()
	s := NewStore(memory.NewStore(), nil)

	const n = 16
	ids := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := s.GetUser(ctx)
			assert.NoError(t, err)
			ids[i] = id
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
}

func TestGetStore(t *testing.T) {
	cfg := config.Default()
	cfg.Identity.Path = t.TempDir()
	cfg.Identity.Key = "active_user"

	store, err := GetStore(cfg, logger.NewNop())
	require.NoError(t, err)
	id, err := store.GetUser(context.Background())
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := GetStore(cfg, logger.NewNop())
	require.NoError(t, err)
	defer reopened.Close()
	again, err := reopened.GetUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, id, again)

	cfg.Identity.Backend = "s3"
	_, err = GetStore(cfg, logger.NewNop())
	assert.ErrorContains(t, err, "unsupported storage type")
}
