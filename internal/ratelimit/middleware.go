package ratelimit

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// IPMiddleware enforces the global per-IP limit and injects the
// standard X-RateLimit headers.
func (l *Limiter) IPMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		result := l.AllowIP(c.ClientIP())

		c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

		if !result.Allowed {
			c.Header("Retry-After", strconv.Itoa(int(result.RetryAfter.Seconds())))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"message":     fmt.Sprintf("limite de %d requisições por minuto excedido", result.Limit),
				"retry_after": int(result.RetryAfter.Seconds()),
				"reset_at":    result.ResetAt.Unix(),
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// EndpointMiddleware enforces a tighter per-minute limit on a named
// route group.
func (l *Limiter) EndpointMiddleware(endpoint string, limit int) gin.HandlerFunc {
	return func(c *gin.Context) {
		result := l.AllowEndpoint(endpoint, c.ClientIP(), limit)

		c.Header("X-RateLimit-Endpoint-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Endpoint-Remaining", strconv.Itoa(result.Remaining))

		if !result.Allowed {
			c.Header("Retry-After", strconv.Itoa(int(result.RetryAfter.Seconds())))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       fmt.Sprintf("rate limit exceeded for %s", endpoint),
				"retry_after": int(result.RetryAfter.Seconds()),
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
