// Package file keeps durable client state in a TOML file.
package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/feichai0017/document-client/pkg/logger"
)

const fileName = "state.toml"

// Store is a file-backed key/value store. Every write rewrites the file.
type Store struct {
	mu       sync.RWMutex
	filePath string
	data     map[string]string
	logger   logger.Logger
}

// NewStore opens (or creates) dir/state.toml. An empty dir defaults to
// ~/.document-client.
func NewStore(dir string, log logger.Logger) (*Store, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve home directory: %w", err)
		}
		dir = filepath.Join(home, ".document-client")
	}
	if log == nil {
		log = logger.NewNop()
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	s := &Store{
		filePath: filepath.Join(dir, fileName),
		data:     make(map[string]string),
		logger:   log.Named("storage.file"),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *Store) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, had := s.data[key]
	s.data[key] = value
	if err := s.save(); err != nil {
		if had {
			s.data[key] = prev
		} else {
			delete(s.data, key)
		}
		return err
	}
	return nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data[key]; !ok {
		return nil
	}
	delete(s.data, key)
	return s.save()
}

func (s *Store) Close() error {
	return nil
}

// Path returns the state file path.
func (s *Store) Path() string {
	return s.filePath
}

// save writes the state file (caller must hold lock).
func (s *Store) save() error {
	data, err := toml.Marshal(s.data)
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}

	tmp := s.filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err := os.Rename(tmp, s.filePath); err != nil {
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read state file: %w", err)
	}

	var loaded map[string]any
	if err := toml.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("failed to decode state file %s: %w", s.filePath, err)
	}

	for k, v := range loaded {
		str, ok := v.(string)
		if !ok {
			s.logger.Warn("ignoring non-string state value", logger.String("key", k))
			continue
		}
		s.data[k] = str
	}
	return nil
}
