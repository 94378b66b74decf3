package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("YATUBE_AUTH_ACCESS_SECRET", "a-real-deployment-secret")
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, 10, cfg.Feed.PageSize)
	assert.Equal(t, 20*time.Second, cfg.Feed.IndexCacheTTL)
	assert.Equal(t, "memory", cfg.Feed.CacheBackend)
}

func TestLoad_FileThenEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  driver: sqlite
  dsn: file:yatube.db
feed:
  page_size: 5
kafka:
  brokers:
    - a:9092
`), 0o600))
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("YATUBE_AUTH_ACCESS_SECRET", "a-real-deployment-secret")
	t.Setenv("YATUBE_FEED_PAGE_SIZE", "7")
	t.Setenv("YATUBE_KAFKA_BROKERS", "b:9092, c:9092")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "file:yatube.db", cfg.Database.DSN)
	assert.Equal(t, 7, cfg.Feed.PageSize)
	assert.Equal(t, []string{"b:9092", "c:9092"}, cfg.Kafka.Brokers)
}

func TestLoad_InvalidDriver(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(ConfigPathEnvVar, "")
	t.Setenv("YATUBE_DATABASE_DRIVER", "oracle")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate_RedisCacheNeedsAddr(t *testing.T) {
	cfg := defaultConfig()
	cfg.Redis.Enabled = true
	cfg.Redis.Addr = ""
	assert.Error(t, cfg.Validate())
}

func TestValidate_DefaultSecretOnlyOutsideRelease(t *testing.T) {
	cfg := defaultConfig()
	assert.ErrorIs(t, cfg.Validate(), ErrDefaultSecret)

	cfg.Server.Mode = "debug"
	assert.NoError(t, cfg.Validate())

	cfg.Server.Mode = "release"
	cfg.Auth.AccessSecret = "a-real-deployment-secret"
	assert.NoError(t, cfg.Validate())
}

func TestLoad_RejectsDefaultSecretInRelease(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(ConfigPathEnvVar, "")

	_, err := Load()
	assert.ErrorIs(t, err, ErrDefaultSecret)
}

func TestEnvTransform(t *testing.T) {
	assert.Equal(t, "database.dsn", envTransform("YATUBE_DATABASE_DSN"))
	assert.Equal(t, "auth.access_secret", envTransform("YATUBE_AUTH_ACCESS_SECRET"))
	assert.Equal(t, "feed.index_cache_ttl", envTransform("YATUBE_FEED_INDEX_CACHE_TTL"))
}
