package cache

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingMetrics struct {
	hits   int64
	misses int64
}

func (m *countingMetrics) IncrementCacheHit()  { atomic.AddInt64(&m.hits, 1) }
func (m *countingMetrics) IncrementCacheMiss() { atomic.AddInt64(&m.misses, 1) }

func TestGetSetAndExpiry(t *testing.T) {
	c := NewCache(50 * time.Millisecond)

	c.Set("k", []byte("v"))
	got, found := c.Get("k")
	require.True(t, found)
	assert.Equal(t, []byte("v"), got)

	time.Sleep(80 * time.Millisecond)
	_, found = c.Get("k")
	assert.False(t, found, "entry must expire after the TTL")
	assert.Equal(t, 0, c.Size(), "expired entry dropped on access")
}

func TestClearAndStats(t *testing.T) {
	c := NewCache(time.Minute)
	c.Set("a", []byte("1"))
	c.Set("b", []byte("2"))

	stats := c.Stats()
	assert.Equal(t, 2, stats["total_items"])
	assert.Equal(t, 2, stats["active_items"])
	assert.Equal(t, float64(60), stats["ttl_seconds"])

	c.Clear()
	assert.Equal(t, 0, c.Size())
}

func newCachedRouter(c *Cache, metrics CacheMetrics, handlerCalls *int64) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(c.Middleware("/api", metrics))
	r.GET("/api/deputados", func(ctx *gin.Context) {
		atomic.AddInt64(handlerCalls, 1)
		ctx.JSON(http.StatusOK, gin.H{"ok": true})
	})
	r.GET("/health", func(ctx *gin.Context) {
		atomic.AddInt64(handlerCalls, 1)
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return r
}

func TestMiddlewareServesSecondRequestFromCache(t *testing.T) {
	c := NewCache(time.Minute)
	metrics := &countingMetrics{}
	var handlerCalls int64
	r := newCachedRouter(c, metrics, &handlerCalls)

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/deputados", nil)
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"ok":true}`, w.Body.String())
	}

	assert.Equal(t, int64(1), atomic.LoadInt64(&handlerCalls))
	assert.Equal(t, int64(1), atomic.LoadInt64(&metrics.hits))
	assert.Equal(t, int64(1), atomic.LoadInt64(&metrics.misses))
}

func TestMiddlewareKeysIncludeQueryString(t *testing.T) {
	c := NewCache(time.Minute)
	metrics := &countingMetrics{}
	var handlerCalls int64
	r := newCachedRouter(c, metrics, &handlerCalls)

	for _, target := range []string{"/api/deputados?uf=SP", "/api/deputados?uf=RJ"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
		require.Equal(t, http.StatusOK, w.Code)
	}

	assert.Equal(t, int64(2), atomic.LoadInt64(&handlerCalls), "different queries are distinct entries")
}

func TestMiddlewareSkipsPathsOutsidePrefix(t *testing.T) {
	c := NewCache(time.Minute)
	metrics := &countingMetrics{}
	var handlerCalls int64
	r := newCachedRouter(c, metrics, &handlerCalls)

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}

	assert.Equal(t, int64(2), atomic.LoadInt64(&handlerCalls))
	assert.Equal(t, 0, c.Size())
}

func TestMiddlewareDoesNotCacheErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c := NewCache(time.Minute)
	metrics := &countingMetrics{}
	var handlerCalls int64

	r := gin.New()
	r.Use(c.Middleware("/api", metrics))
	r.GET("/api/deputados/0/perfil", func(ctx *gin.Context) {
		atomic.AddInt64(&handlerCalls, 1)
		ctx.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/deputados/0/perfil", nil))
		require.Equal(t, http.StatusNotFound, w.Code)
	}

	assert.Equal(t, int64(2), atomic.LoadInt64(&handlerCalls), "error responses bypass the cache")
}
