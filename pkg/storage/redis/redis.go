// Package redis keeps durable client state in Redis, so several client
// processes on one host can share an identity.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/feichai0017/document-client/pkg/logger"
)

const defaultKeyPrefix = "document_client:"

type Config struct {
	Addr      string
	DB        int
	Password  string
	KeyPrefix string
	// DialTimeout bounds the initial ping.
	DialTimeout time.Duration
}

type Store struct {
	client *goredis.Client
	prefix string
	logger logger.Logger
}

// NewStore connects and pings the server.
func NewStore(cfg Config, log logger.Logger) (*Store, error) {
	if cfg.Addr == "" {
		cfg.Addr = "localhost:6379"
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = defaultKeyPrefix
	}
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = 3 * time.Second
	}
	if log == nil {
		log = logger.NewNop()
	}

	client := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		DB:          cfg.DB,
		Password:    cfg.Password,
		DialTimeout: cfg.DialTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}

	return &Store{
		client: client,
		prefix: cfg.KeyPrefix,
		logger: log.Named("storage.redis"),
	}, nil
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		s.logger.Error("Failed to read key", logger.String("key", key), logger.Error(err))
		return "", false, fmt.Errorf("failed to get %s from redis: %w", key, err)
	}
	return v, true, nil
}

// Set stores value without expiry.
func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		s.logger.Error("Failed to write key", logger.String("key", key), logger.Error(err))
		return fmt.Errorf("failed to set %s in redis: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("failed to delete %s from redis: %w", key, err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.client.Close()
}
