package app

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"perfume-studio/internal/common/config"
	"perfume-studio/internal/common/logger"
	"perfume-studio/internal/services/search"
	"perfume-studio/internal/session"
)

type nopSearch struct{}

func (nopSearch) Search(context.Context, string, int) ([]search.Item, error) { return nil, nil }

type nopFetcher struct{}

func (nopFetcher) Get(context.Context, string) (*http.Response, error) { return nil, nil }

type nopBackend struct{}

func (nopBackend) Generate(context.Context, string, string, bool) (string, error) { return "", nil }

func loadConfig(t *testing.T, body string) *config.Config {
	t.Helper()
	t.Setenv(config.EnvSearchAPIKey, "k")
	t.Setenv(config.EnvSearchEngineID, "cx")
	t.Setenv(config.EnvGenAIAPIKey, "g")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	cfg, err := config.LoadFromFile(path)
	require.NoError(t, err)
	return cfg
}

func fakes() []Option {
	return []Option{WithSearchClient(nopSearch{}), WithFetcher(nopFetcher{}), WithBackend(nopBackend{})}
}

func TestNew_MemoryBackends(t *testing.T) {
	cfg := loadConfig(t, "app:\n  name: perfume-studio-test\n")

	a, err := New(context.Background(), cfg, logger.NewTestLogger(t), fakes()...)
	require.NoError(t, err)
	defer a.Close()

	assert.IsType(t, &session.MemoryStore{}, a.Sessions)
	assert.Nil(t, a.Archive)
	assert.NotNil(t, a.Pipeline)
	assert.NoError(t, a.Ready(context.Background()))
}

func TestNew_RedisBackends(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := loadConfig(t, `
cache:
  backend: redis
session:
  backend: redis
database:
  redis:
    address: "`+mr.Addr()+`"
`)

	a, err := New(context.Background(), cfg, logger.NewTestLogger(t), fakes()...)
	require.NoError(t, err)
	defer a.Close()

	assert.IsType(t, &session.RedisStore{}, a.Sessions)
	require.NoError(t, a.Ready(context.Background()))

	mr.Close()
	assert.Error(t, a.Ready(context.Background()))
}

func TestNew_RedisUnreachable(t *testing.T) {
	cfg := loadConfig(t, `
cache:
  backend: redis
database:
  redis:
    address: "127.0.0.1:1"
`)

	_, err := New(context.Background(), cfg, logger.NewTestLogger(t), fakes()...)
	assert.ErrorContains(t, err, "redis ping")
}
