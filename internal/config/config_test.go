package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "release", cfg.GinMode)
	assert.Equal(t, defaultCamaraBaseURL, cfg.CamaraBaseURL)
	assert.Equal(t, defaultSenadoBaseURL, cfg.SenadoBaseURL)
	assert.Equal(t, 10*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 60, cfg.RateLimitPerMin)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.False(t, cfg.EnableHSTS)
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("GIN_MODE", "test")
	t.Setenv("CAMARA_BASE_URL", "http://localhost:1234/api/v2")
	t.Setenv("CACHE_TTL", "1m")
	t.Setenv("RATE_LIMIT_PER_MIN", "5")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "test", cfg.GinMode)
	assert.Equal(t, "http://localhost:1234/api/v2", cfg.CamaraBaseURL)
	assert.Equal(t, time.Minute, cfg.CacheTTL)
	assert.Equal(t, 5, cfg.RateLimitPerMin)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("CAMARA_BASE_URL", "not a url")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsUnknownGinMode(t *testing.T) {
	t.Setenv("GIN_MODE", "production")

	_, err := Load()
	assert.Error(t, err)
}

func TestInvalidNumbersFallBackToDefaults(t *testing.T) {
	t.Setenv("RATE_LIMIT_PER_MIN", "many")
	t.Setenv("CACHE_TTL", "soon")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 60, cfg.RateLimitPerMin)
	assert.Equal(t, 10*time.Minute, cfg.CacheTTL)
}
