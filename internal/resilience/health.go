package resilience

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DegradationLevel describes how unhealthy an upstream currently is.
type DegradationLevel int

const (
	LevelNormal DegradationLevel = iota
	LevelDegraded
	LevelCritical
	LevelEmergency
)

func (l DegradationLevel) String() string {
	switch l {
	case LevelDegraded:
		return "degraded"
	case LevelCritical:
		return "critical"
	case LevelEmergency:
		return "emergency"
	default:
		return "normal"
	}
}

// HealthConfig holds thresholds for upstream degradation tracking.
type HealthConfig struct {
	HealthCheckInterval time.Duration `json:"health_check_interval"`
	HealthCheckTimeout  time.Duration `json:"health_check_timeout"`
	DegradedThreshold   float64       `json:"degraded_threshold"`
	CriticalThreshold   float64       `json:"critical_threshold"`
	EmergencyThreshold  float64       `json:"emergency_threshold"`
}

// DefaultHealthConfig returns thresholds tuned for the government APIs,
// which routinely return errors even when "up".
func DefaultHealthConfig() HealthConfig {
	return HealthConfig{
		HealthCheckInterval: 30 * time.Second,
		HealthCheckTimeout:  5 * time.Second,
		DegradedThreshold:   0.1,
		CriticalThreshold:   0.25,
		EmergencyThreshold:  0.5,
	}
}

// ServiceHealth is a snapshot of one upstream's health.
type ServiceHealth struct {
	ServiceName   string           `json:"service_name"`
	Level         DegradationLevel `json:"level"`
	Status        string           `json:"status"`
	ErrorRate     float64          `json:"error_rate"`
	TotalRequests int64            `json:"total_requests"`
	ErrorCount    int64            `json:"error_count"`
	LastErrorTime time.Time        `json:"last_error_time,omitempty"`
}

// HealthCheckFunc probes an upstream.
type HealthCheckFunc func(ctx context.Context) error

// HealthTracker tracks error rates per upstream and derives a degradation
// level from them.
type HealthTracker struct {
	config HealthConfig
	mu     sync.RWMutex
	states map[string]*ServiceHealth
	checks map[string]HealthCheckFunc
}

// NewHealthTracker creates a tracker with the given thresholds.
func NewHealthTracker(config HealthConfig) *HealthTracker {
	return &HealthTracker{
		config: config,
		states: make(map[string]*ServiceHealth),
		checks: make(map[string]HealthCheckFunc),
	}
}

// Register adds an upstream with an optional health check probe.
func (t *HealthTracker) Register(name string, check HealthCheckFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.states[name] = &ServiceHealth{
		ServiceName: name,
		Level:       LevelNormal,
		Status:      "healthy",
	}
	if check != nil {
		t.checks[name] = check
	}

	slog.Info("registered upstream for health tracking", "service", name)
}

// RecordSuccess records a successful upstream call.
func (t *HealthTracker) RecordSuccess(name string) {
	t.record(name, false)
}

// RecordError records a failed upstream call.
func (t *HealthTracker) RecordError(name string) {
	t.record(name, true)
}

func (t *HealthTracker) record(name string, failed bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.states[name]
	if !ok {
		return
	}

	s.TotalRequests++
	if failed {
		s.ErrorCount++
		s.LastErrorTime = time.Now()
	}
	s.ErrorRate = float64(s.ErrorCount) / float64(s.TotalRequests)

	old := s.Level
	switch {
	case s.ErrorRate >= t.config.EmergencyThreshold:
		s.Level = LevelEmergency
	case s.ErrorRate >= t.config.CriticalThreshold:
		s.Level = LevelCritical
	case s.ErrorRate >= t.config.DegradedThreshold:
		s.Level = LevelDegraded
	default:
		s.Level = LevelNormal
	}
	s.Status = s.Level.String()

	if old != s.Level {
		slog.Warn("upstream degradation level changed",
			"service", name,
			"old_level", old.String(),
			"new_level", s.Level.String(),
			"error_rate", s.ErrorRate,
			"total_requests", s.TotalRequests)
	}
}

// IsAvailable reports whether an upstream should still be called. Only the
// emergency level takes a service out of rotation.
func (t *HealthTracker) IsAvailable(name string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s, ok := t.states[name]
	if !ok {
		return false
	}
	return s.Level != LevelEmergency
}

// Snapshot returns a copy of every upstream's health.
func (t *HealthTracker) Snapshot() map[string]ServiceHealth {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[string]ServiceHealth, len(t.states))
	for name, s := range t.states {
		out[name] = *s
	}
	return out
}

// Reset clears one upstream's counters.
func (t *HealthTracker) Reset(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if s, ok := t.states[name]; ok {
		*s = ServiceHealth{ServiceName: name, Level: LevelNormal, Status: "healthy"}
	}
}

// StartHealthChecks probes registered upstreams periodically until ctx is
// cancelled.
func (t *HealthTracker) StartHealthChecks(ctx context.Context) {
	ticker := time.NewTicker(t.config.HealthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.runChecks(ctx)
		}
	}
}

func (t *HealthTracker) runChecks(ctx context.Context) {
	t.mu.RLock()
	checks := make(map[string]HealthCheckFunc, len(t.checks))
	for name, check := range t.checks {
		checks[name] = check
	}
	t.mu.RUnlock()

	for name, check := range checks {
		go func(name string, check HealthCheckFunc) {
			checkCtx, cancel := context.WithTimeout(ctx, t.config.HealthCheckTimeout)
			defer cancel()

			if err := check(checkCtx); err != nil {
				slog.Debug("health check failed", "service", name, "error", err)
				t.RecordError(name)
			} else {
				t.RecordSuccess(name)
			}
		}(name, check)
	}
}

var globalTracker = NewHealthTracker(DefaultHealthConfig())

// RegisterService registers an upstream on the global tracker.
func RegisterService(name string, check HealthCheckFunc) {
	globalTracker.Register(name, check)
}

// RecordSuccess records a successful call on the global tracker.
func RecordSuccess(name string) {
	globalTracker.RecordSuccess(name)
}

// RecordError records a failed call on the global tracker.
func RecordError(name string) {
	globalTracker.RecordError(name)
}

// IsServiceAvailable checks availability on the global tracker.
func IsServiceAvailable(name string) bool {
	return globalTracker.IsAvailable(name)
}

// AllServiceHealth snapshots every upstream on the global tracker.
func AllServiceHealth() map[string]ServiceHealth {
	return globalTracker.Snapshot()
}

// StartHealthChecks starts the global tracker's periodic probes.
func StartHealthChecks(ctx context.Context) {
	go globalTracker.StartHealthChecks(ctx)
}
