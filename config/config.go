package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var (
	configOnce sync.Once
	config     *Config
	configErr  error
)

type Config struct {
	API      APIConfig      `yaml:"api"`
	Push     PushConfig     `yaml:"push"`
	Store    StoreConfig    `yaml:"store"`
	Identity IdentityConfig `yaml:"identity"`
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
}

type APIConfig struct {
	BaseURL        string        `yaml:"base_url"`
	Timeout        time.Duration `yaml:"timeout"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

type PushConfig struct {
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
}

type StoreConfig struct {
	// MaxDocuments caps the document collection; 0 means unbounded.
	MaxDocuments         int `yaml:"max_documents"`
	MaxConcurrentFetches int `yaml:"max_concurrent_fetches"`
}

type IdentityConfig struct {
	Backend       string `yaml:"backend"` // file, redis or memory
	Path          string `yaml:"path"`
	Key           string `yaml:"key"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisDB       int    `yaml:"redis_db"`
	RedisPassword string `yaml:"redis_password"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
	// AllowOrigins restricts CORS; empty allows any origin.
	AllowOrigins []string `yaml:"allow_origins"`
}

type LogConfig struct {
	Level       string   `yaml:"level"`
	Encoding    string   `yaml:"encoding"`
	OutputPaths []string `yaml:"output_paths"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:        "http://localhost:8000",
			Timeout:        60 * time.Second,
			ConnectTimeout: 5 * time.Second,
		},
		Push: PushConfig{
			HandshakeTimeout: 5 * time.Second,
		},
		Store: StoreConfig{
			MaxConcurrentFetches: 4,
		},
		Identity: IdentityConfig{
			Backend: "file",
			Key:     "user",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Log: LogConfig{
			Level:       "info",
			Encoding:    "json",
			OutputPaths: []string{"stderr"},
		},
	}
}

// Get loads the process configuration once. The YAML file is taken from
// DOCUMENT_CLIENT_CONFIG; a .env file in the working directory is loaded
// first if present.
func Get() (*Config, error) {
	configOnce.Do(func() {
		if err := godotenv.Load(); err != nil {
			log.Printf("Warning: .env file not found, falling back to environment variables")
		}
		config, configErr = Load(os.Getenv("DOCUMENT_CLIENT_CONFIG"))
	})
	return config, configErr
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty) and environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("DOCUMENT_API_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("IDENTITY_BACKEND"); v != "" {
		cfg.Identity.Backend = v
	}
	if v := os.Getenv("IDENTITY_PATH"); v != "" {
		cfg.Identity.Path = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Identity.RedisAddr = v
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid REDIS_DB %q: %w", v, err)
		}
		cfg.Identity.RedisDB = db
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Identity.RedisPassword = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	return nil
}

// Validate rejects settings no component can run with.
func (c *Config) Validate() error {
	var errs []error
	if c.API.BaseURL == "" {
		errs = append(errs, errors.New("api.base_url is required"))
	}
	if c.API.Timeout < 0 || c.API.ConnectTimeout < 0 {
		errs = append(errs, errors.New("api timeouts must not be negative"))
	}
	if c.Push.HandshakeTimeout < 0 || c.Push.ReadTimeout < 0 {
		errs = append(errs, errors.New("push timeouts must not be negative"))
	}
	if c.Store.MaxDocuments < 0 {
		errs = append(errs, errors.New("store.max_documents must not be negative"))
	}
	if c.Store.MaxConcurrentFetches < 1 {
		errs = append(errs, errors.New("store.max_concurrent_fetches must be at least 1"))
	}
	switch c.Identity.Backend {
	case "file", "redis", "memory":
	default:
		errs = append(errs, fmt.Errorf("unsupported identity.backend %q", c.Identity.Backend))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
