package security

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeadersAreSet(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMiddleware(DefaultConfig())

	r := gin.New()
	r.Use(m.Headers())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"), "HSTS off by default")
}

func TestHeadersHSTSWhenEnabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := DefaultConfig()
	cfg.EnableHSTS = true
	m := NewMiddleware(cfg)

	r := gin.New()
	r.Use(m.Headers())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Contains(t, w.Header().Get("Strict-Transport-Security"), "max-age=31536000")
}

func TestTimeoutBoundsRequestContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := DefaultConfig()
	cfg.RequestTimeout = 50 * time.Millisecond
	m := NewMiddleware(cfg)

	r := gin.New()
	r.Use(m.Timeout())
	r.GET("/", func(c *gin.Context) {
		deadline, ok := c.Request.Context().Deadline()
		require.True(t, ok, "handler context must carry a deadline")
		assert.WithinDuration(t, time.Now().Add(cfg.RequestTimeout), deadline, 20*time.Millisecond)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestValidateQuery(t *testing.T) {
	m := NewMiddleware(DefaultConfig())

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"plain name", "maria souza", false},
		{"accented name", "José Antônio", false},
		{"empty", "", false},
		{"script tag", "<script>alert(1)</script>", true},
		{"sql comment", "maria--", true},
		{"null byte", "maria\x00", true},
		{"too long", string(make([]byte, 300)), true},
		{"invalid utf8", string([]byte{0xff, 0xfe}), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := m.ValidateQuery(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestQueryGuardRejectsBadInput(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMiddleware(DefaultConfig())

	r := gin.New()
	r.Use(m.QueryGuard("q"))
	r.GET("/api/busca", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/busca?q=%3Cscript%3E", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/busca?q=maria", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
