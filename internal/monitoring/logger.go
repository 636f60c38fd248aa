package monitoring

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog with helpers for the events this service emits.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a JSON logger writing to stdout.
func NewLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{
					Key:   "timestamp",
					Value: slog.StringValue(a.Value.Time().Format(time.RFC3339)),
				}
			}
			return a
		},
	})
	return &Logger{Logger: slog.New(handler)}
}

// RequestLogger logs one handled HTTP request.
func (l *Logger) RequestLogger(method, path, ip string, statusCode int, duration time.Duration) {
	l.Info("http request",
		"method", method,
		"path", path,
		"ip", ip,
		"status_code", statusCode,
		"duration_ms", duration.Milliseconds(),
	)
}

// UpstreamLogger logs a call to one of the legislative APIs.
func (l *Logger) UpstreamLogger(apiName, endpoint string, statusCode int, duration time.Duration, success bool) {
	level := slog.LevelInfo
	if !success {
		level = slog.LevelWarn
	}
	l.Log(context.Background(), level, "upstream call",
		"api", apiName,
		"endpoint", endpoint,
		"status_code", statusCode,
		"duration_ms", duration.Milliseconds(),
		"success", success,
	)
}

// ProfileLogger logs a completed profile assembly.
func (l *Logger) ProfileLogger(chamber string, memberID int, years []int, duration time.Duration) {
	l.Info("profile assembled",
		"chamber", chamber,
		"member_id", memberID,
		"years", years,
		"duration_ms", duration.Milliseconds(),
	)
}

// SystemLogger logs lifecycle events (startup, shutdown, degradation).
func (l *Logger) SystemLogger(event, details string) {
	l.Info("system event", "event", event, "details", details)
}
