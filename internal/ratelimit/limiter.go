// Package ratelimit provides per-IP token-bucket limiting for the HTTP
// API. Limits live in process memory; the service is a single instance
// fronting public upstream APIs, so distributed counters are not
// needed.
package ratelimit

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Config holds rate limiter configuration.
type Config struct {
	RequestsPerMinute int
	BurstMultiplier   int
}

// DefaultConfig allows 60 requests per minute per IP with double burst.
func DefaultConfig() Config {
	return Config{
		RequestsPerMinute: 60,
		BurstMultiplier:   2,
	}
}

// Result is the outcome of a rate limit check.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

// Limiter tracks one token bucket per client key.
type Limiter struct {
	config   Config
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func NewLimiter(config Config) *Limiter {
	l := &Limiter{
		config:   config,
		limiters: make(map[string]*rate.Limiter),
	}
	go l.cleanup()
	return l
}

// AllowIP checks whether an IP may make another request.
func (l *Limiter) AllowIP(ip string) *Result {
	return l.allow(fmt.Sprintf("ip:%s", ip), l.config.RequestsPerMinute, time.Minute)
}

// AllowEndpoint checks an endpoint-specific per-minute limit for an IP.
// Profile assembly fans out to a dozen upstream calls, so those routes
// carry a tighter limit than the listing routes.
func (l *Limiter) AllowEndpoint(endpoint, ip string, limit int) *Result {
	return l.allow(fmt.Sprintf("endpoint:%s:%s", endpoint, ip), limit, time.Minute)
}

func (l *Limiter) allow(key string, limit int, period time.Duration) *Result {
	l.mu.Lock()
	limiter, exists := l.limiters[key]
	if !exists {
		rps := rate.Limit(float64(limit) / period.Seconds())
		burst := limit * l.config.BurstMultiplier
		if burst < 5 {
			burst = 5
		}
		limiter = rate.NewLimiter(rps, burst)
		l.limiters[key] = limiter
	}
	l.mu.Unlock()

	allowed := limiter.Allow()

	remaining := int(limiter.Tokens())
	if remaining < 0 {
		remaining = 0
	}

	result := &Result{
		Allowed:   allowed,
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   time.Now().Add(period),
	}
	if !allowed {
		result.RetryAfter = time.Until(result.ResetAt)
	}
	return result
}

// cleanup bounds the limiter map; stale buckets refill on their own,
// the map just needs an occasional flush.
func (l *Limiter) cleanup() {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		l.mu.Lock()
		if len(l.limiters) > 1000 {
			l.limiters = make(map[string]*rate.Limiter)
		}
		l.mu.Unlock()
	}
}

// Stats reports the number of tracked buckets.
func (l *Limiter) Stats() map[string]interface{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	return map[string]interface{}{
		"tracked_clients":     len(l.limiters),
		"requests_per_minute": l.config.RequestsPerMinute,
	}
}
