package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeYAML(t, `
telegram:
  token: file-token
  admin_id: 10
  run_mode: polling
logging:
  level: debug
`)
	t.Setenv("BOT_TOKEN", "env-token")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env-token", cfg.Telegram.Token)
	assert.Equal(t, int64(10), cfg.Telegram.AdminID)
	assert.Equal(t, RunModeLongpoll, cfg.Telegram.RunMode)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadEnvOnly(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("ADMIN_ID", "42")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "123:abc", cfg.Telegram.Token)
	assert.Equal(t, int64(42), cfg.Telegram.AdminID)
}

func TestLoadRejectsMissingAdmin(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "telegram.admin_id")
}

func TestLoadRejectsBadAdminID(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("ADMIN_ID", "not-a-number")

	_, err := Load("")
	require.Error(t, err)
}

func TestNormalizeWebhookRequiresURL(t *testing.T) {
	cfg := &Config{Telegram: TelegramConfig{Token: "t", AdminID: 1, RunMode: "WebHook"}}
	err := Normalize(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "webhook.url")
}

func TestNormalizeExcludeUpdates(t *testing.T) {
	cfg := &Config{RateLimit: RateLimitConfig{ExcludeUpdates: []string{" Callback ", "", "MESSAGE"}}}
	require.NoError(t, Normalize(cfg))
	assert.Equal(t, []string{UpdateCallback, UpdateMessage}, cfg.RateLimit.ExcludeUpdates)

	cfg.RateLimit.ExcludeUpdates = []string{"inline_query"}
	assert.Error(t, Normalize(cfg))
}
