package config

import (
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "live-data-all", cfg.FeedChannel)
	assert.Equal(t, "config:emission", cfg.EmissionChannel)
	assert.Equal(t, 500*time.Millisecond, cfg.RenderInterval)
	assert.False(t, cfg.EnforceAccess)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("FEED_CHANNEL", "feed:test")
	t.Setenv("RENDER_INTERVAL", "2s")
	t.Setenv("ENFORCE_ACCESS", "true")
	t.Setenv("REDIS_DB", "3")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "feed:test", cfg.FeedChannel)
	assert.Equal(t, 2*time.Second, cfg.RenderInterval)
	assert.True(t, cfg.EnforceAccess)
	assert.Equal(t, 3, cfg.RedisDB)
}

func TestLoad_RejectsTinyRenderInterval(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("RENDER_INTERVAL", "1ms")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_TelegramNeedsBothSettings(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_CHAT_ID", "")

	_, err := Load()
	assert.ErrorContains(t, err, "TELEGRAM_CHAT_ID")

	t.Setenv("TELEGRAM_CHAT_ID", "-100")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "-100", cfg.TelegramChatID)
}

func TestSlogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		c := &Config{LogLevel: in}
		assert.Equal(t, want, c.SlogLevel(), "level %q", in)
	}
}
