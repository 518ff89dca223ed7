package identity

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/feichai0017/document-client/config"
	"github.com/feichai0017/document-client/pkg/logger"
	"github.com/feichai0017/document-client/pkg/storage"
)

// DefaultKey is the storage key holding the user identifier.
const DefaultKey = "user"

var ErrEmptyUser = errors.New("user id is empty")

// UserProvider supplies the active user identifier.
type UserProvider interface {
	GetUser(ctx context.Context) (string, error)
	SetUser(ctx context.Context, id string) error
}

// Store owns the single active user of a client instance. The identifier is
// created lazily on first access and persisted to durable storage.
type Store struct {
	mu      sync.Mutex
	user    string
	key     string
	storage storage.Storage
	newID   func() string
	logger  logger.Logger
}

var _ UserProvider = (*Store)(nil)

type Option func(*Store)

// WithKey overrides the storage key.
func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// WithIDGenerator overrides uuid generation.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) {
		s.newID = fn
	}
}

func NewStore(st storage.Storage, log logger.Logger, opts ...Option) *Store {
	if log == nil {
		log = logger.NewNop()
	}
	s := &Store{
		key:     DefaultKey,
		storage: st,
		newID:   func() string { return uuid.New().String() },
		logger:  log.Named("identity"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetStore opens the configured identity backend and wraps it in a Store.
// The caller owns the returned Store and must Close it.
func GetStore(cfg *config.Config, log logger.Logger) (*Store, error) {
	st, err := storage.NewStorage(storage.StorageType(cfg.Identity.Backend), storage.Options{
		Path:          cfg.Identity.Path,
		RedisAddr:     cfg.Identity.RedisAddr,
		RedisDB:       cfg.Identity.RedisDB,
		RedisPassword: cfg.Identity.RedisPassword,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("failed to open identity storage: %w", err)
	}
	return NewStore(st, log, WithKey(cfg.Identity.Key)), nil
}

// GetUser returns the cached identifier, else the persisted one, else a new
// one that is persisted before it is returned.
func (s *Store) GetUser(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.user != "" {
		return s.user, nil
	}

	stored, ok, err := s.storage.Get(ctx, s.key)
	if err != nil {
		return "", fmt.Errorf("failed to read user id: %w", err)
	}
	if ok && stored != "" {
		s.user = stored
		return s.user, nil
	}

	id := s.newID()
	if err := s.set(ctx, id); err != nil {
		return "", err
	}
	s.logger.Info("Created user id", logger.String("userId", id))
	return id, nil
}

// SetUser writes id to the cache and durable storage unconditionally.
func (s *Store) SetUser(ctx context.Context, id string) error {
	if id == "" {
		return ErrEmptyUser
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set(ctx, id)
}

func (s *Store) set(ctx context.Context, id string) error {
	s.user = id
	if err := s.storage.Set(ctx, s.key, id); err != nil {
		s.logger.Error("Failed to persist user id", logger.Error(err))
		return fmt.Errorf("failed to persist user id: %w", err)
	}
	return nil
}

// Close releases the underlying storage.
func (s *Store) Close() error {
	return s.storage.Close()
}
