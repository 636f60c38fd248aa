package monitoring

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics holds application counters. Upstream call counters track the
// two legislative APIs separately.
type Metrics struct {
	RequestCount   int64
	ErrorCount     int64
	CacheHits      int64
	CacheMisses    int64
	CamaraAPICalls int64
	SenadoAPICalls int64
	StartTime      time.Time

	responseTimes   []time.Duration
	responseTimesMu sync.RWMutex

	requestsByStatus map[int]int64
	statusMu         sync.RWMutex

	upstreamRequests map[string]int64
	upstreamErrors   map[string]int64
	upstreamMu       sync.RWMutex
}

const responseTimeSamples = 1000

func NewMetrics() *Metrics {
	return &Metrics{
		StartTime:        time.Now(),
		responseTimes:    make([]time.Duration, 0, responseTimeSamples),
		requestsByStatus: make(map[int]int64),
		upstreamRequests: make(map[string]int64),
		upstreamErrors:   make(map[string]int64),
	}
}

func (m *Metrics) IncrementRequest() {
	atomic.AddInt64(&m.RequestCount, 1)
}

func (m *Metrics) IncrementError() {
	atomic.AddInt64(&m.ErrorCount, 1)
}

func (m *Metrics) IncrementCacheHit() {
	atomic.AddInt64(&m.CacheHits, 1)
}

func (m *Metrics) IncrementCacheMiss() {
	atomic.AddInt64(&m.CacheMisses, 1)
}

func (m *Metrics) IncrementCamaraCalls() {
	atomic.AddInt64(&m.CamaraAPICalls, 1)
}

func (m *Metrics) IncrementSenadoCalls() {
	atomic.AddInt64(&m.SenadoAPICalls, 1)
}

// RecordResponseTime keeps the last 1000 samples for percentiles.
func (m *Metrics) RecordResponseTime(duration time.Duration) {
	m.responseTimesMu.Lock()
	m.responseTimes = append(m.responseTimes, duration)
	if len(m.responseTimes) > responseTimeSamples {
		m.responseTimes = m.responseTimes[1:]
	}
	m.responseTimesMu.Unlock()
}

func (m *Metrics) RecordRequestByStatus(statusCode int) {
	m.statusMu.Lock()
	defer m.statusMu.Unlock()
	m.requestsByStatus[statusCode]++
}

// RecordUpstreamRequest records one call against a named upstream API.
func (m *Metrics) RecordUpstreamRequest(apiName string, success bool) {
	m.upstreamMu.Lock()
	defer m.upstreamMu.Unlock()

	m.upstreamRequests[apiName]++
	if !success {
		m.upstreamErrors[apiName]++
	}
}

// PercentileResponseTime computes the given percentile over the
// retained samples.
func (m *Metrics) PercentileResponseTime(percentile float64) time.Duration {
	m.responseTimesMu.RLock()
	defer m.responseTimesMu.RUnlock()

	if len(m.responseTimes) == 0 {
		return 0
	}

	times := make([]time.Duration, len(m.responseTimes))
	copy(times, m.responseTimes)
	sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })

	index := int(float64(len(times)-1) * percentile / 100.0)
	if index >= len(times) {
		index = len(times) - 1
	}
	return times[index]
}

func (m *Metrics) StatusCodeDistribution() map[int]int64 {
	m.statusMu.RLock()
	defer m.statusMu.RUnlock()

	distribution := make(map[int]int64, len(m.requestsByStatus))
	for code, count := range m.requestsByStatus {
		distribution[code] = count
	}
	return distribution
}

func (m *Metrics) UpstreamStats() map[string]interface{} {
	m.upstreamMu.RLock()
	defer m.upstreamMu.RUnlock()

	stats := make(map[string]interface{}, len(m.upstreamRequests))
	for api, requests := range m.upstreamRequests {
		errors := m.upstreamErrors[api]
		errorRate := float64(0)
		if requests > 0 {
			errorRate = float64(errors) / float64(requests) * 100
		}
		stats[api] = map[string]interface{}{
			"requests":   requests,
			"errors":     errors,
			"error_rate": errorRate,
		}
	}
	return stats
}

// GetStats returns the full metrics snapshot served at /metrics.
func (m *Metrics) GetStats() map[string]interface{} {
	requests := atomic.LoadInt64(&m.RequestCount)
	errors := atomic.LoadInt64(&m.ErrorCount)
	cacheHits := atomic.LoadInt64(&m.CacheHits)
	cacheMisses := atomic.LoadInt64(&m.CacheMisses)

	errorRate := float64(0)
	if requests > 0 {
		errorRate = float64(errors) / float64(requests) * 100
	}

	cacheHitRate := float64(0)
	if total := cacheHits + cacheMisses; total > 0 {
		cacheHitRate = float64(cacheHits) / float64(total) * 100
	}

	return map[string]interface{}{
		"uptime_seconds":           time.Since(m.StartTime).Seconds(),
		"total_requests":           requests,
		"error_count":              errors,
		"error_rate_percent":       errorRate,
		"cache_hits":               cacheHits,
		"cache_misses":             cacheMisses,
		"cache_hit_rate_percent":   cacheHitRate,
		"camara_api_calls":         atomic.LoadInt64(&m.CamaraAPICalls),
		"senado_api_calls":         atomic.LoadInt64(&m.SenadoAPICalls),
		"start_time":               m.StartTime.Format(time.RFC3339),
		"p50_response_time_ms":     float64(m.PercentileResponseTime(50)) / 1e6,
		"p95_response_time_ms":     float64(m.PercentileResponseTime(95)) / 1e6,
		"p99_response_time_ms":     float64(m.PercentileResponseTime(99)) / 1e6,
		"status_code_distribution": m.StatusCodeDistribution(),
		"upstream_api_stats":       m.UpstreamStats(),
	}
}

// Reset clears all counters. Useful for tests.
func (m *Metrics) Reset() {
	atomic.StoreInt64(&m.RequestCount, 0)
	atomic.StoreInt64(&m.ErrorCount, 0)
	atomic.StoreInt64(&m.CacheHits, 0)
	atomic.StoreInt64(&m.CacheMisses, 0)
	atomic.StoreInt64(&m.CamaraAPICalls, 0)
	atomic.StoreInt64(&m.SenadoAPICalls, 0)

	m.responseTimesMu.Lock()
	m.responseTimes = m.responseTimes[:0]
	m.responseTimesMu.Unlock()

	m.statusMu.Lock()
	m.requestsByStatus = make(map[int]int64)
	m.statusMu.Unlock()

	m.upstreamMu.Lock()
	m.upstreamRequests = make(map[string]int64)
	m.upstreamErrors = make(map[string]int64)
	m.upstreamMu.Unlock()

	m.StartTime = time.Now()
}
