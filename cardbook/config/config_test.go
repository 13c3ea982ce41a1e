package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohammaddehghani/TelegBotCardNum/core/telegram/state"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func botEnv(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("ADMIN_ID", "42")
}

func TestLoadFileWithDefaults(t *testing.T) {
	path := writeYAML(t, `
telegram:
  token: file-token
  admin_id: 7
database:
  host: db
  name: cardbook
  user: bot
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "file-token", cfg.Telegram.Token)
	assert.Equal(t, int64(7), cfg.CoreConfig().Telegram.AdminID)
	assert.Equal(t, StoragePostgres, cfg.Storage)
	assert.Equal(t, "db", cfg.Database.Host)
	assert.Equal(t, 10*time.Minute, cfg.Session.Timeout)
	assert.Equal(t, 24*time.Hour, cfg.Session.TTL)
	assert.Equal(t, state.BackendMemory, cfg.Session.Backend)
}

func TestLoadEnvOnly(t *testing.T) {
	botEnv(t)
	t.Setenv("DATABASE_URL", "postgres://bot:pw@db:5432/cardbook?sslmode=disable")
	t.Setenv("SESSION_TIMEOUT", "5m")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, int64(42), cfg.Telegram.AdminID)
	assert.Equal(t, "postgres://bot:pw@db:5432/cardbook?sslmode=disable", cfg.Database.DSN())
	assert.Equal(t, 5*time.Minute, cfg.Session.Timeout)
}

func TestPostgresNeedsDatabase(t *testing.T) {
	botEnv(t)

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database")
}

func TestMemoryStorageNeedsNoDatabase(t *testing.T) {
	botEnv(t)
	t.Setenv("STORAGE", "Memory")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, StorageMemory, cfg.Storage)
}

func TestRejectsUnknownStorage(t *testing.T) {
	botEnv(t)
	t.Setenv("STORAGE", "sqlite")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage")
}

func TestRedisBackendNeedsAddress(t *testing.T) {
	botEnv(t)
	t.Setenv("STORAGE", "memory")
	t.Setenv("SESSION_BACKEND", "redis")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session.redis_addr")

	t.Setenv("REDIS_ADDR", "localhost:6379")
	cfg, err := Load("")
	require.NoError(t, err)
	opts := cfg.StateOptions()
	assert.Equal(t, state.BackendRedis, opts.Backend)
	assert.Equal(t, "localhost:6379", opts.RedisAddr)
	assert.Equal(t, 24*time.Hour, opts.TTL)
}

func TestTTLShorterThanTimeout(t *testing.T) {
	botEnv(t)
	t.Setenv("STORAGE", "memory")
	t.Setenv("SESSION_TIMEOUT", "2h")
	t.Setenv("SESSION_TTL", "1h")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session.ttl")
}
