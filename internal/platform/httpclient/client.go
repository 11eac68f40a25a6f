// internal/platform/httpclient/client.go
// Package httpclient provides an HTTP client with retry, rate limiting and timeout support.
package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"domscout/internal/platform/errors"
	"domscout/internal/platform/logx"
	"domscout/internal/platform/resilience"
)

// maxBody caps how much of a response body is read.
const maxBody = 64 << 20

// Config holds the configuration for the HTTP client.
type Config struct {
	// Timeout is the per-request timeout. Default: 30 seconds
	Timeout time.Duration

	// MaxRetries is the maximum number of retry attempts. Default: 0
	MaxRetries int

	// RetryBackoff is the initial backoff, doubled on every retry. Default: 1 second
	RetryBackoff    time.Duration
	MaxRetryBackoff time.Duration

	UserAgent string

	// RateLimit is the maximum requests per second. 0 means no limit.
	RateLimit      float64
	RateLimitBurst int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Timeout:         30 * time.Second,
		MaxRetries:      3,
		RetryBackoff:    time.Second,
		MaxRetryBackoff: 30 * time.Second,
		UserAgent:       "domscout/1.0",
		RateLimitBurst:  1,
	}
}

// Client is an HTTP client with retry logic and rate limiting.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	retrier    *resilience.Retrier
	logger     logx.Logger
	config     Config
}

// New creates a new HTTP client with the given configuration.
func New(config Config, logger logx.Logger) *Client {
	def := DefaultConfig()
	if config.Timeout <= 0 {
		config.Timeout = def.Timeout
	}
	if config.RetryBackoff <= 0 {
		config.RetryBackoff = def.RetryBackoff
	}
	if config.MaxRetryBackoff <= 0 {
		config.MaxRetryBackoff = def.MaxRetryBackoff
	}
	if config.UserAgent == "" {
		config.UserAgent = def.UserAgent
	}
	if config.RateLimitBurst <= 0 {
		config.RateLimitBurst = 1
	}
	if logger == nil {
		logger = logx.NewNop()
	}

	var limiter *rate.Limiter
	if config.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.RateLimit), config.RateLimitBurst)
	}

	return &Client{
		httpClient: &http.Client{Timeout: config.Timeout},
		limiter:    limiter,
		retrier: resilience.NewRetrier(resilience.RetryConfig{
			MaxRetries:  config.MaxRetries,
			BackoffBase: config.RetryBackoff,
			MaxBackoff:  config.MaxRetryBackoff,
		}, logger),
		logger: logger.With("component", "httpclient"),
		config: config,
	}
}

// Fetch performs a GET request and returns the body of a 2xx response.
// Network errors and 429/502/503/504 are retried; other statuses are not.
func (c *Client) Fetch(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	var body []byte
	err := c.retrier.Do(ctx, "GET "+url, func(ctx context.Context) error {
		b, err := c.fetchOnce(ctx, url, headers)
		if err != nil {
			return err
		}
		body = b
		return nil
	})
	return body, err
}

// FetchJSON is Fetch with an Accept: application/json header.
func (c *Client) FetchJSON(ctx context.Context, url string) ([]byte, error) {
	return c.Fetch(ctx, url, map[string]string{"Accept": "application/json"})
}

func (c *Client) fetchOnce(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, resilience.Permanent(errors.Wrap(err, "rate limit wait failed"))
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, resilience.Permanent(errors.Wrapf(err, "create request for %s", url))
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	c.logger.Debug("HTTP response received",
		"url", url,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if err := CheckStatus(resp); err != nil {
		if IsRetryableStatus(resp.StatusCode) {
			return nil, err
		}
		return nil, resilience.Permanent(err)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, errors.Wrap(err, "read response body")
	}
	return body, nil
}

// IsRetryableStatus reports whether an HTTP status code should trigger a retry.
func IsRetryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// CheckStatus returns an error for non-2xx responses.
func CheckStatus(resp *http.Response) error {
	if resp == nil {
		return errors.New("response is nil")
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	switch resp.StatusCode {
	case http.StatusNotFound:
		return errors.Wrap(errors.ErrNotFound, resp.Status)
	case http.StatusTooManyRequests, http.StatusServiceUnavailable, http.StatusGatewayTimeout, http.StatusBadGateway:
		return errors.Wrap(errors.ErrUnavailable, resp.Status)
	default:
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}
}

// String returns a human-readable representation of the client configuration.
func (c *Client) String() string {
	return fmt.Sprintf("HTTPClient{timeout=%s, max_retries=%d, rate_limit=%.1f/s}",
		c.config.Timeout, c.config.MaxRetries, c.config.RateLimit)
}
