package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "pebble", cfg.Store.Backend)
	assert.Equal(t, 120, cfg.Notification.BodyMaxRunes)
	assert.True(t, cfg.Notification.ConfirmOnSubscribe)
	assert.Contains(t, cfg.AllowedOrigins, "https://mision-vida-app.web.app")
	require.NoError(t, cfg.Validate())
}

func TestLoadJSON(t *testing.T) {
	file := filepath.Join(t.TempDir(), "palabra.json")
	data := []byte(`{"httpAddr":":9000","store":{"backend":"sqlite","fsync":"never"},"push":{"maxInFlight":8}}`)
	require.NoError(t, os.WriteFile(file, data, 0o644))

	cfg, err := Load(file)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.HTTPAddr)
	assert.Equal(t, "sqlite", cfg.Store.Backend)
	assert.Equal(t, 8, cfg.Push.MaxInFlight)
	// untouched sections keep defaults
	assert.Equal(t, ".daily-content", cfg.Devotional.ContentSelector)
}

func TestLoadYAML(t *testing.T) {
	file := filepath.Join(t.TempDir(), "palabra.yaml")
	data := []byte("httpAddr: \":8081\"\nschedule:\n  dailyAt: \"06:30\"\n  timezone: UTC\nallowedOrigins:\n  - \"*\"\n")
	require.NoError(t, os.WriteFile(file, data, 0o644))

	cfg, err := Load(file)
	require.NoError(t, err)
	assert.Equal(t, ":8081", cfg.HTTPAddr)
	assert.Equal(t, "06:30", cfg.Schedule.DailyAt)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	require.NoError(t, cfg.Validate())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

func TestFromEnv(t *testing.T) {
	t.Setenv("PORT", "4000")
	t.Setenv("VAPID_PUBLIC_KEY", "legacy-pub")
	t.Setenv("PALABRA_VAPID_PRIVATE_KEY", "priv")
	t.Setenv("PALABRA_STORE_BACKEND", "SQLITE")
	t.Setenv("PALABRA_PUSH_MAX_IN_FLIGHT", "16")
	t.Setenv("PALABRA_CONFIRM_ON_SUBSCRIBE", "false")
	t.Setenv("PALABRA_ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("PALABRA_JOURNAL_MAX_AGE_DAYS", "30")

	cfg := Default()
	FromEnv(&cfg)
	assert.Equal(t, ":4000", cfg.HTTPAddr)
	assert.Equal(t, "legacy-pub", cfg.VAPID.PublicKey)
	assert.Equal(t, "priv", cfg.VAPID.PrivateKey)
	assert.Equal(t, "sqlite", cfg.Store.Backend)
	assert.Equal(t, 16, cfg.Push.MaxInFlight)
	assert.False(t, cfg.Notification.ConfirmOnSubscribe)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, 30*24*time.Hour, cfg.JournalMaxAge())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown backend", func(c *Config) { c.Store.Backend = "redis" }},
		{"unknown fsync", func(c *Config) { c.Store.Fsync = "sometimes" }},
		{"bad daily time", func(c *Config) { c.Schedule.DailyAt = "25:00" }},
		{"bad timezone", func(c *Config) { c.Schedule.DailyAt = "07:00"; c.Schedule.Timezone = "Mars/Olympus" }},
		{"zero body", func(c *Config) { c.Notification.BodyMaxRunes = 0 }},
		{"negative in-flight", func(c *Config) { c.Push.MaxInFlight = -1 }},
		{"negative journal age", func(c *Config) { c.JournalMaxAgeDays = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
