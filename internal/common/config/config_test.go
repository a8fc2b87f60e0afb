package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "perfume-studio/internal/common/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func setSecrets(t *testing.T) {
	t.Setenv(EnvSearchAPIKey, "search-key")
	t.Setenv(EnvSearchEngineID, "engine-id")
	t.Setenv(EnvGenAIAPIKey, "gemini-key")
}

func TestLoadFromFile_Defaults(t *testing.T) {
	setSecrets(t)
	path := writeConfig(t, "app:\n  name: perfume-studio\n")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "search-key", cfg.APIs.Search.APIKey)
	assert.Equal(t, "engine-id", cfg.APIs.Search.EngineID)
	assert.Equal(t, "gemini-key", cfg.APIs.GenAI.APIKey)

	assert.Equal(t, time.Hour, GetDuration(cfg.Cache.SearchTTL))
	assert.Equal(t, 10*time.Minute, GetDuration(cfg.Cache.ScrapeTTL))
	assert.Equal(t, 10*time.Second, GetDuration(cfg.Scraper.Timeout))
	assert.Equal(t, 20000, cfg.Scraper.MaxChars)
	assert.Equal(t, 3, cfg.APIs.GenAI.MaxAttempts)
	assert.Equal(t, "gemini-1.5-flash", cfg.APIs.GenAI.DefaultModel)
	assert.Equal(t, "gemini-1.5-flash", cfg.APIs.GenAI.Downgrades["gemini-1.5-pro"])
	assert.Contains(t, cfg.Scraper.UserAgent, "Chrome/120.0.0.0")
	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.Equal(t, "perfume_session", cfg.Server.SessionCookie)
}

func TestLoadFromFile_ExpandsPlaceholders(t *testing.T) {
	setSecrets(t)
	t.Setenv("TEST_REDIS_ADDR", "redis.internal:6379")

	path := writeConfig(t, `
cache:
  backend: redis
  search_ttl: 1000
database:
  redis:
    address: "${TEST_REDIS_ADDR}"
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "redis.internal:6379", cfg.Database.Redis.Address)
	assert.Equal(t, time.Second, GetDuration(cfg.Cache.SearchTTL))
}

func TestLoadFromFile_MissingCredentials(t *testing.T) {
	tests := []struct {
		name     string
		unset    string
		expected string
	}{
		{"search key", EnvSearchAPIKey, "GOOGLE_API_KEY"},
		{"engine id", EnvSearchEngineID, "SEARCH_ENGINE_ID"},
		{"gemini key", EnvGenAIAPIKey, "GEMINI_API_KEY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setSecrets(t)
			t.Setenv(tt.unset, "")

			_, err := LoadFromFile(writeConfig(t, "app:\n  name: x\n"))
			require.Error(t, err)

			var stdErr *apperrors.StandardError
			require.True(t, errors.As(err, &stdErr))
			assert.Equal(t, apperrors.ErrCodeConfigurationMissing, stdErr.Code)
			assert.Equal(t, tt.expected, stdErr.Details)
		})
	}
}

func TestValidate_Backends(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "unknown cache backend",
			mutate:  func(c *Config) { c.Cache.Backend = "memcached" },
			wantErr: "cache.backend",
		},
		{
			name:    "redis session without address",
			mutate:  func(c *Config) { c.Session.Backend = "redis" },
			wantErr: "database.redis.address",
		},
		{
			name:    "archive without postgres",
			mutate:  func(c *Config) { c.Archive.Enabled = true },
			wantErr: "database.postgres.host",
		},
		{
			name:    "default model outside options",
			mutate:  func(c *Config) { c.APIs.GenAI.DefaultModel = "gpt-4" },
			wantErr: "default_model",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			cfg.APIs.Search.APIKey = "k"
			cfg.APIs.Search.EngineID = "cx"
			cfg.APIs.GenAI.APIKey = "g"
			applyDefaults(cfg)
			tt.mutate(cfg)

			err := Validate(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGetWorkerConfig(t *testing.T) {
	cfg := &Config{
		Workers: map[string]WorkerConfig{
			"perfume-draft-description": {Enabled: false},
		},
	}
	applyDefaults(cfg)

	draft := GetWorkerConfig(cfg, "perfume-draft-description")
	assert.False(t, draft.Enabled)
	assert.Equal(t, 5, draft.MaxJobsActive)
	assert.Equal(t, 30000, draft.Timeout)

	other := GetWorkerConfig(cfg, "perfume-optimize-seo")
	assert.True(t, other.Enabled)
	assert.True(t, IsWorkerEnabled(cfg, "perfume-optimize-seo"))
	assert.False(t, IsWorkerEnabled(cfg, "perfume-draft-description"))

	assert.Error(t, ValidateWorkerManager(cfg))
}
