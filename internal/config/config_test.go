package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backoffice.yaml")
	content := `
api:
  base_url: https://admin.example.com
  timeout: 10s
  retries: 2
table:
  page_size: 20
  refresh_every: "@every 30s"
session:
  store: memory
log:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("BACKOFFICE_API_URL", "http://localhost:9000")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9000", cfg.API.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.API.Timeout)
	assert.Equal(t, 2, cfg.API.Retries)
	assert.Equal(t, 20, cfg.Table.PageSize)
	assert.Equal(t, "@every 30s", cfg.Table.RefreshEvery)
	assert.Equal(t, StoreMemory, cfg.Session.Store)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)

	// untouched sections keep their defaults
	assert.Equal(t, "localhost:6379", cfg.Session.Redis.Addr)
	assert.Equal(t, 15*time.Minute, cfg.Server.AccessTTL)
}

func TestLoad_NoFile(t *testing.T) {
	t.Setenv("PORT", "9100")
	t.Setenv("BACKOFFICE_PAGE_SIZE", "50")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":9100", cfg.Server.Addr)
	assert.Equal(t, 50, cfg.Table.PageSize)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"bad base url", func(c *Config) { c.API.BaseURL = "not a url" }},
		{"odd page size", func(c *Config) { c.Table.PageSize = 15 }},
		{"unknown store", func(c *Config) { c.Session.Store = "etcd" }},
		{"file store without path", func(c *Config) { c.Session.Store = StoreFile; c.Session.File = "" }},
		{"too many retries", func(c *Config) { c.API.Retries = 11 }},
		{"bad log level", func(c *Config) { c.Log.Level = "verbose" }},
		{"short jwt secret", func(c *Config) { c.Server.JWTSecret = "short" }},
		{"refresh shorter than access", func(c *Config) { c.Server.RefreshTTL = time.Minute }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	err := Parse([]byte("api: [unclosed"), Default())
	assert.Error(t, err)
}
