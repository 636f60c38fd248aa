// Package config loads server settings from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds every tunable the server reads at startup. The two base
// URLs are the only required external inputs; everything else has a
// working default.
type Config struct {
	Port    string `validate:"required,numeric"`
	GinMode string `validate:"oneof=debug release test"`

	CamaraBaseURL string `validate:"required,url"`
	SenadoBaseURL string `validate:"required,url"`

	CacheTTL           time.Duration `validate:"min=0"`
	RequestTimeout     time.Duration `validate:"required,min=1s"`
	UpstreamTimeout    time.Duration `validate:"required,min=1s"`
	RateLimitPerMin    int           `validate:"min=1"`
	ProfileLimitPerMin int           `validate:"min=1"`

	AllowedOrigins []string `validate:"min=1,dive,required"`
	EnableHSTS     bool
	LogLevel       slog.Level
}

const (
	defaultCamaraBaseURL = "https://dadosabertos.camara.leg.br/api/v2"
	defaultSenadoBaseURL = "https://legis.senado.leg.br/dadosabertos"
)

// Load reads the environment into a validated Config. A missing .env
// file is not an error.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("could not read .env file", "error", err)
	}

	cfg := &Config{
		Port:               envOrDefault("PORT", "8080"),
		GinMode:            envOrDefault("GIN_MODE", "release"),
		CamaraBaseURL:      envOrDefault("CAMARA_BASE_URL", defaultCamaraBaseURL),
		SenadoBaseURL:      envOrDefault("SENADO_BASE_URL", defaultSenadoBaseURL),
		CacheTTL:           envDuration("CACHE_TTL", 10*time.Minute),
		RequestTimeout:     envDuration("REQUEST_TIMEOUT", 30*time.Second),
		UpstreamTimeout:    envDuration("UPSTREAM_TIMEOUT", 15*time.Second),
		RateLimitPerMin:    envInt("RATE_LIMIT_PER_MIN", 60),
		ProfileLimitPerMin: envInt("PROFILE_LIMIT_PER_MIN", 10),
		AllowedOrigins:     envList("ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
		EnableHSTS:         envOrDefault("ENABLE_HSTS", "false") == "true",
		LogLevel:           parseLogLevel(envOrDefault("LOG_LEVEL", "info")),
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		slog.Warn("invalid integer in environment, using default", "key", key, "value", value)
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		slog.Warn("invalid duration in environment, using default", "key", key, "value", value)
		return fallback
	}
	return d
}

func envList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

func parseLogLevel(value string) slog.Level {
	switch strings.ToLower(value) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
