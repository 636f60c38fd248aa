package resilience

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// CallObserver receives the outcome of every upstream HTTP attempt,
// including retried ones.
type CallObserver func(service, url string, statusCode int, duration time.Duration, success bool)

// UpstreamClient is the transport both source adapters share: a tuned HTTP
// client wrapped with a circuit breaker, retry, and health recording for one
// upstream service.
type UpstreamClient struct {
	service string
	client  *http.Client
	breaker *Breaker
	retry   RetryConfig
	headers map[string]string
	observe CallObserver
}

// NewUpstreamClient builds the gateway for one named upstream. The transport
// keeps a small idle pool because profile views burst many requests to the
// same host.
func NewUpstreamClient(service string, timeout time.Duration) *UpstreamClient {
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	transport := &http.Transport{
		MaxIdleConns:          20,
		MaxConnsPerHost:       20,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &UpstreamClient{
		service: service,
		client:  &http.Client{Transport: transport, Timeout: timeout},
		breaker: GetBreaker(service, BreakerConfig{}),
		retry:   DefaultRetryConfig(),
		headers: map[string]string{"Accept": "application/json"},
	}
}

// Service returns the upstream service name.
func (c *UpstreamClient) Service() string {
	return c.service
}

// OnResult registers an observer invoked after every HTTP attempt. Must be
// set before the client is shared across goroutines.
func (c *UpstreamClient) OnResult(fn CallObserver) {
	c.observe = fn
}

// Get performs a GET with breaker protection and retry, and records the
// outcome in the global health tracker.
func (c *UpstreamClient) Get(ctx context.Context, url string) (*http.Response, error) {
	var resp *http.Response

	err := c.breaker.Call(func() error {
		var callErr error
		resp, callErr = RetryHTTP(ctx, c.retry, func() (*http.Response, error) {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if err != nil {
				return nil, err
			}
			for k, v := range c.headers {
				req.Header.Set(k, v)
			}

			start := time.Now()
			r, err := c.client.Do(req)
			elapsed := time.Since(start)
			if err != nil {
				slog.Debug("upstream request failed",
					"service", c.service, "url", url, "error", err,
					"duration_ms", elapsed.Milliseconds())
				if c.observe != nil {
					c.observe(c.service, url, 0, elapsed, false)
				}
				return nil, err
			}
			slog.Debug("upstream request completed",
				"service", c.service, "url", url, "status", r.StatusCode,
				"duration_ms", elapsed.Milliseconds())
			if c.observe != nil {
				c.observe(c.service, url, r.StatusCode, elapsed, r.StatusCode < 400)
			}
			return r, nil
		})
		return callErr
	})

	if err != nil {
		RecordError(c.service)
		return nil, err
	}

	RecordSuccess(c.service)
	return resp, nil
}

// Close releases idle transport connections.
func (c *UpstreamClient) Close() {
	if transport, ok := c.client.Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
}
