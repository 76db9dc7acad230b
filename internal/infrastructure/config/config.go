package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Sandbox   SandboxConfig
	Store     StoreConfig
	NATS      NATSConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
}

// SandboxConfig holds execution limits.
type SandboxConfig struct {
	Timeout        time.Duration `envconfig:"SANDBOX_TIMEOUT" default:"5s"`
	MaxIterations  int64         `envconfig:"SANDBOX_MAX_ITERATIONS" default:"1000000"`
	MaxCallStack   int           `envconfig:"SANDBOX_MAX_CALL_STACK" default:"1024"`
	Parallel       int           `envconfig:"SANDBOX_PARALLEL" default:"4"`
	AcquireTimeout time.Duration `envconfig:"SANDBOX_ACQUIRE_TIMEOUT" default:"5s"`
	MaxSourceBytes int           `envconfig:"SANDBOX_MAX_SOURCE_BYTES" default:"262144"`
	HistorySize    int           `envconfig:"SANDBOX_HISTORY_SIZE" default:"500"`
}

// StoreConfig holds snippet storage configuration.
type StoreConfig struct {
	Path string `envconfig:"STORE_PATH" default:"testrunner.db"`
}

// NATSConfig holds message bus configuration.
type NATSConfig struct {
	Enabled bool   `envconfig:"NATS_ENABLED" default:"false"`
	URL     string `envconfig:"NATS_URL" default:"nats://127.0.0.1:4222"`
	Subject string `envconfig:"NATS_SUBJECT" default:"harness.run"`
	Queue   string `envconfig:"NATS_QUEUE" default:"harness"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"20"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"40"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// CORSConfig holds allowed origins.
type CORSConfig struct {
	Origins []string `envconfig:"CORS_ORIGINS" default:"*"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadWithDotenv reads the given .env files into the environment, then loads.
// Missing files are skipped; variables already set win over the files.
func LoadWithDotenv(files ...string) (*Config, error) {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read %s: %w", f, err)
		}
	}
	return Load()
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8000",
			Host: "0.0.0.0",
		},
		Sandbox: SandboxConfig{
			Timeout:        5 * time.Second,
			MaxIterations:  1_000_000,
			MaxCallStack:   1024,
			Parallel:       4,
			AcquireTimeout: 5 * time.Second,
			MaxSourceBytes: 256 * 1024,
			HistorySize:    500,
		},
		Store: StoreConfig{
			Path: "testrunner.db",
		},
		NATS: NATSConfig{
			Enabled: false,
			URL:     "nats://127.0.0.1:4222",
			Subject: "harness.run",
			Queue:   "harness",
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 20,
			Burst:             40,
			Enabled:           true,
		},
		CORS: CORSConfig{
			Origins: []string{"*"},
		},
	}
}
