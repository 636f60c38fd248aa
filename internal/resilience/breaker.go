// Package resilience guards calls to the two government upstreams. Both APIs
// fail often enough that the adapters route every request through a circuit
// breaker and record outcomes for the health endpoint.
package resilience

import (
	"sync"
	"sync/atomic"
	"time"
)

// Upstream service names used across the breaker and health registries.
const (
	ServiceCamara = "camara-api"
	ServiceSenado = "senado-api"
)

// BreakerState is the circuit breaker state.
type BreakerState int32

const (
	StateClosed BreakerState = iota
	StateOpen
	StateHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

// BreakerConfig tunes a circuit breaker.
type BreakerConfig struct {
	FailureThreshold int           `json:"failure_threshold"`
	RecoveryTimeout  time.Duration `json:"recovery_timeout"`
	SuccessThreshold int           `json:"success_threshold"`
}

// Breaker is a circuit breaker for one upstream service.
type Breaker struct {
	config      BreakerConfig
	state       int32
	failures    int32
	successes   int32
	nextAttempt atomic.Value // time.Time
}

// NewBreaker creates a circuit breaker, filling zero config fields with
// defaults.
func NewBreaker(config BreakerConfig) *Breaker {
	if config.FailureThreshold == 0 {
		config.FailureThreshold = 5
	}
	if config.RecoveryTimeout == 0 {
		config.RecoveryTimeout = 30 * time.Second
	}
	if config.SuccessThreshold == 0 {
		config.SuccessThreshold = 2
	}

	b := &Breaker{config: config, state: int32(StateClosed)}
	b.nextAttempt.Store(time.Time{})
	return b
}

// Call runs fn under breaker protection. When the breaker is open and the
// recovery timeout has not elapsed, fn is not invoked at all.
func (b *Breaker) Call(fn func() error) error {
	state := BreakerState(atomic.LoadInt32(&b.state))

	if state == StateOpen {
		next, _ := b.nextAttempt.Load().(time.Time)
		if time.Now().Before(next) {
			return &BreakerOpenError{State: state}
		}
		atomic.StoreInt32(&b.state, int32(StateHalfOpen))
		atomic.StoreInt32(&b.successes, 0)
	}

	if err := fn(); err != nil {
		b.onFailure()
		return err
	}
	b.onSuccess()
	return nil
}

func (b *Breaker) onFailure() {
	failures := atomic.AddInt32(&b.failures, 1)
	atomic.StoreInt32(&b.successes, 0)

	if failures >= int32(b.config.FailureThreshold) {
		atomic.StoreInt32(&b.state, int32(StateOpen))
		b.nextAttempt.Store(time.Now().Add(b.config.RecoveryTimeout))
	}
}

func (b *Breaker) onSuccess() {
	atomic.StoreInt32(&b.failures, 0)

	if BreakerState(atomic.LoadInt32(&b.state)) == StateHalfOpen {
		if atomic.AddInt32(&b.successes, 1) >= int32(b.config.SuccessThreshold) {
			atomic.StoreInt32(&b.state, int32(StateClosed))
		}
	}
}

// State returns the current breaker state.
func (b *Breaker) State() BreakerState {
	return BreakerState(atomic.LoadInt32(&b.state))
}

// Failures returns the consecutive failure count.
func (b *Breaker) Failures() int {
	return int(atomic.LoadInt32(&b.failures))
}

// Reset closes the breaker and clears counters.
func (b *Breaker) Reset() {
	atomic.StoreInt32(&b.state, int32(StateClosed))
	atomic.StoreInt32(&b.failures, 0)
	atomic.StoreInt32(&b.successes, 0)
}

// BreakerOpenError is returned when a call is rejected without reaching the
// upstream.
type BreakerOpenError struct {
	State BreakerState
}

func (e *BreakerOpenError) Error() string {
	return "circuit breaker is " + e.State.String()
}

// breakerRegistry holds one breaker per upstream service.
type breakerRegistry struct {
	mu       sync.Mutex
	breakers map[string]*Breaker
}

var registry = &breakerRegistry{breakers: make(map[string]*Breaker)}

// GetBreaker returns the named breaker, creating it on first use.
func GetBreaker(name string, config BreakerConfig) *Breaker {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	if b, ok := registry.breakers[name]; ok {
		return b
	}
	b := NewBreaker(config)
	registry.breakers[name] = b
	return b
}

// BreakerStats reports per-service breaker state for diagnostics.
func BreakerStats() map[string]map[string]any {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	stats := make(map[string]map[string]any, len(registry.breakers))
	for name, b := range registry.breakers {
		stats[name] = map[string]any{
			"state":    b.State().String(),
			"failures": b.Failures(),
		}
	}
	return stats
}
