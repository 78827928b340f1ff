// Package config loads the backoffice configuration from YAML with environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"
	"github.com/therealutkarshpriyadarshi/backoffice/internal/logging"
	"github.com/therealutkarshpriyadarshi/backoffice/internal/session"
	"github.com/therealutkarshpriyadarshi/backoffice/pkg/models"
)

// Session store kinds
const (
	StoreMemory   = "memory"
	StoreFile     = "file"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

// Config is the full configuration of the CLI and the dev server
type Config struct {
	API     APIConfig      `yaml:"api"`
	Table   TableConfig    `yaml:"table"`
	Session SessionConfig  `yaml:"session"`
	Notify  NotifyConfig   `yaml:"notify"`
	Log     logging.Config `yaml:"log"`
	Server  ServerConfig   `yaml:"server"`
}

// APIConfig configures the request client
type APIConfig struct {
	BaseURL   string        `yaml:"base_url" validate:"required,url"`
	Timeout   time.Duration `yaml:"timeout" validate:"gte=0"`
	RateLimit float64       `yaml:"rate_limit" validate:"gte=0"`
	Burst     int           `yaml:"burst" validate:"gte=0"`
	Retries   int           `yaml:"retries" validate:"gte=0,lte=10"`
	Breaker   BreakerConfig `yaml:"breaker"`
}

// BreakerConfig configures the circuit breaker in front of the API
type BreakerConfig struct {
	Enabled          bool          `yaml:"enabled"`
	FailureThreshold int           `yaml:"failure_threshold" validate:"gte=0"`
	Cooldown         time.Duration `yaml:"cooldown" validate:"gte=0"`
}

// TableConfig configures list views
type TableConfig struct {
	PageSize     int    `yaml:"page_size" validate:"oneof=10 20 50 100"`
	RefreshEvery string `yaml:"refresh_every"`
}

// SessionConfig selects and configures the session store
type SessionConfig struct {
	Store      string           `yaml:"store" validate:"oneof=memory file redis postgres"`
	File       string           `yaml:"file" validate:"required_if=Store file"`
	Namespace  string           `yaml:"namespace"`
	Redis      RedisConfig      `yaml:"redis"`
	Postgres   session.DBConfig `yaml:"postgres"`
	Migrations string           `yaml:"migrations"`
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Addr     string        `yaml:"addr" validate:"omitempty,hostname_port"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db" validate:"gte=0"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl" validate:"gte=0"`
}

// NotifyConfig selects extra notification transports
type NotifyConfig struct {
	RedisAddr string `yaml:"redis_addr" validate:"omitempty,hostname_port"`
	NATSURL   string `yaml:"nats_url" validate:"omitempty,url"`
}

// ServerConfig configures the local stand-in API
type ServerConfig struct {
	Addr          string        `yaml:"addr" validate:"required"`
	JWTSecret     string        `yaml:"jwt_secret" validate:"required,min=16"`
	AccessTTL     time.Duration `yaml:"access_ttl" validate:"gt=0"`
	RefreshTTL    time.Duration `yaml:"refresh_ttl" validate:"gtfield=AccessTTL"`
	RateLimit     float64       `yaml:"rate_limit" validate:"gte=0"`
	Burst         int           `yaml:"burst" validate:"gte=0"`
	AdminUser     string        `yaml:"admin_user" validate:"required"`
	AdminPassword string        `yaml:"admin_password" validate:"required"`
	Seed          bool          `yaml:"seed"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: "http://localhost:8000",
			Timeout: 30 * time.Second,
			Breaker: BreakerConfig{FailureThreshold: 5, Cooldown: 30 * time.Second},
		},
		Table: TableConfig{PageSize: models.DefaultPageSize},
		Session: SessionConfig{
			Store:      StoreFile,
			File:       defaultSessionFile(),
			Namespace:  "default",
			Redis:      RedisConfig{Addr: "localhost:6379", Prefix: "backoffice:session:"},
			Postgres:   session.DefaultDBConfig(),
			Migrations: "migrations",
		},
		Log: logging.Config{Level: "info", Format: "text"},
		Server: ServerConfig{
			Addr:          ":8000",
			JWTSecret:     "backoffice-dev-secret-change-me",
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    24 * time.Hour,
			RateLimit:     20,
			Burst:         40,
			AdminUser:     "admin",
			AdminPassword: "admin123",
			Seed:          true,
		},
	}
}

// Load reads path (optional), applies environment overrides and validates the result
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := Parse(data, cfg); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML onto cfg; keys missing from data keep their current values
func Parse(data []byte, cfg *Config) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	return nil
}

var validate = validator.New()

// Validate checks every field constraint
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed on '%s'", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

func (c *Config) applyEnv() {
	c.API.BaseURL = getEnv("BACKOFFICE_API_URL", c.API.BaseURL)
	c.API.Timeout = getEnvDuration("BACKOFFICE_API_TIMEOUT", c.API.Timeout)

	c.Session.Store = getEnv("BACKOFFICE_SESSION_STORE", c.Session.Store)
	c.Session.File = getEnv("BACKOFFICE_SESSION_FILE", c.Session.File)
	c.Session.Redis.Addr = getEnv("REDIS_ADDR", c.Session.Redis.Addr)
	c.Session.Postgres.Host = getEnv("DB_HOST", c.Session.Postgres.Host)
	c.Session.Postgres.Port = getEnv("DB_PORT", c.Session.Postgres.Port)
	c.Session.Postgres.User = getEnv("DB_USER", c.Session.Postgres.User)
	c.Session.Postgres.Password = getEnv("DB_PASSWORD", c.Session.Postgres.Password)
	c.Session.Postgres.DBName = getEnv("DB_NAME", c.Session.Postgres.DBName)

	c.Notify.NATSURL = getEnv("NATS_URL", c.Notify.NATSURL)

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)

	if port := os.Getenv("PORT"); port != "" {
		c.Server.Addr = ":" + port
	}
	c.Server.JWTSecret = getEnv("JWT_SECRET", c.Server.JWTSecret)

	if size, err := strconv.Atoi(os.Getenv("BACKOFFICE_PAGE_SIZE")); err == nil {
		c.Table.PageSize = size
	}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "backoffice", "session.yaml")
}
