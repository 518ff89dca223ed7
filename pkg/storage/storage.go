package storage

import (
	"context"
	"fmt"

	"github.com/feichai0017/document-client/pkg/logger"
	"github.com/feichai0017/document-client/pkg/storage/file"
	"github.com/feichai0017/document-client/pkg/storage/memory"
	"github.com/feichai0017/document-client/pkg/storage/redis"
)

// StorageType selects a durable client storage backend.
type StorageType string

const (
	StorageTypeFile   StorageType = "file"
	StorageTypeRedis  StorageType = "redis"
	StorageTypeMemory StorageType = "memory"
)

// Storage is durable client-side key/value storage.
type Storage interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set writes value under key, persisting immediately.
	Set(ctx context.Context, key, value string) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	Close() error
}

// Options carries backend specific settings; unused fields are ignored.
type Options struct {
	Path          string // file: directory holding state.toml
	RedisAddr     string
	RedisDB       int
	RedisPassword string
	KeyPrefix     string // redis: prepended to every key
}

var (
	_ Storage = (*file.Store)(nil)
	_ Storage = (*memory.Store)(nil)
	_ Storage = (*redis.Store)(nil)
)

// NewStorage 创建存储实例的工厂方法
func NewStorage(storageType StorageType, opts Options, log logger.Logger) (Storage, error) {
	switch storageType {
	case StorageTypeFile, "":
		return file.NewStore(opts.Path, log)
	case StorageTypeRedis:
		return redis.NewStore(redis.Config{
			Addr:      opts.RedisAddr,
			DB:        opts.RedisDB,
			Password:  opts.RedisPassword,
			KeyPrefix: opts.KeyPrefix,
		}, log)
	case StorageTypeMemory:
		return memory.NewStore(), nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}
