// Package security carries the outer-edge middleware: response
// headers, request timeouts and query input validation.
package security

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
)

// Config holds the edge middleware settings.
type Config struct {
	MaxQueryLength int           `json:"max_query_length"`
	RequestTimeout time.Duration `json:"request_timeout"`
	EnableHSTS     bool          `json:"enable_hsts"`
}

func DefaultConfig() Config {
	return Config{
		MaxQueryLength: 200,
		RequestTimeout: 30 * time.Second,
	}
}

// Middleware bundles the edge handlers.
type Middleware struct {
	config Config
}

func NewMiddleware(config Config) *Middleware {
	return &Middleware{config: config}
}

// Headers adds the standard security headers to every response.
func (m *Middleware) Headers() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Permissions-Policy", "geolocation=(), microphone=(), camera=()")

		if m.config.EnableHSTS {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains; preload")
		}

		c.Next()
	}
}

// Timeout bounds each request's context. Profile assembly fans out to
// slow upstreams; the bound keeps a stuck upstream from pinning the
// handler forever.
func (m *Middleware) Timeout() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), m.config.RequestTimeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Header("X-Timeout", strconv.Itoa(int(m.config.RequestTimeout.Seconds())))
		c.Next()
	}
}

// ValidateQuery checks a user-supplied search term.
func (m *Middleware) ValidateQuery(input string) error {
	if len(input) > m.config.MaxQueryLength {
		return fmt.Errorf("query exceeds maximum length of %d characters", m.config.MaxQueryLength)
	}
	if strings.Contains(input, "\x00") {
		return fmt.Errorf("query contains invalid characters")
	}
	if !utf8.ValidString(input) {
		return fmt.Errorf("query contains invalid UTF-8 encoding")
	}

	suspiciousPatterns := []string{
		"<script", "</script", "javascript:",
		"union select", "drop table", "--", "/*",
	}
	inputLower := strings.ToLower(input)
	for _, pattern := range suspiciousPatterns {
		if strings.Contains(inputLower, pattern) {
			return fmt.Errorf("query contains suspicious patterns")
		}
	}
	return nil
}

// QueryGuard rejects requests whose q parameter fails validation.
func (m *Middleware) QueryGuard(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		value := c.Query(param)
		if value == "" {
			c.Next()
			return
		}
		if err := m.ValidateQuery(value); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			c.Abort()
			return
		}
		c.Next()
	}
}
