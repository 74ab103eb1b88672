package fetch

import (
	"context"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/rickgao/tickersense/internal/clock"
)

// Default client settings.
const (
	DefaultMaxConcurrent = 50
	DefaultRateLimit     = 100
	DefaultWindow        = time.Minute
	DefaultTimeout       = 30 * time.Second
	DefaultMaxAttempts   = 3
	DefaultBaseDelay     = time.Second
	DefaultMaxDelay      = 60 * time.Second
)

// Authorizer decorates outgoing requests with credentials.
type Authorizer interface {
	Authorize(ctx context.Context, req *http.Request) error
}

// QuotaDetector reports whether a response means the source quota is exhausted.
type QuotaDetector func(statusCode int, body []byte) bool

// Client is a rate-limited, retrying HTTP client for one external source.
type Client struct {
	source     string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	clock      clock.Clock

	sem         *semaphore.Weighted
	limiter     *Limiter
	timeout     time.Duration
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration

	header     http.Header
	authorizer Authorizer
	isQuota    QuotaDetector

	maxConcurrent int
	rateLimit     int
	window        time.Duration

	quotaExceeded atomic.Bool

	requests     atomic.Int64
	retries      atomic.Int64
	failures     atomic.Int64
	rateLimited  atomic.Int64
	throttleWait atomic.Int64
	inFlight     atomic.Int64
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates a client for the named source rooted at baseURL.
func NewClient(source, baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		source:        source,
		baseURL:       baseURL,
		httpClient:    &http.Client{},
		logger:        slog.Default(),
		clock:         clock.New(),
		timeout:       DefaultTimeout,
		maxAttempts:   DefaultMaxAttempts,
		baseDelay:     DefaultBaseDelay,
		maxDelay:      DefaultMaxDelay,
		header:        make(http.Header),
		isQuota:       func(code int, _ []byte) bool { return code == http.StatusTooManyRequests },
		maxConcurrent: DefaultMaxConcurrent,
		rateLimit:     DefaultRateLimit,
		window:        DefaultWindow,
	}

	for _, opt := range opts {
		opt(c)
	}

	c.sem = semaphore.NewWeighted(int64(c.maxConcurrent))
	c.limiter = NewLimiter(c.rateLimit, c.window, c.clock)
	c.logger = c.logger.With("source", source)

	return c
}

// WithConcurrency sets the maximum number of in-flight calls.
func WithConcurrency(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.maxConcurrent = n
		}
	}
}

// WithRateLimit sets the sliding-window quota.
func WithRateLimit(limit int, window time.Duration) ClientOption {
	return func(c *Client) {
		if limit > 0 && window > 0 {
			c.rateLimit = limit
			c.window = window
		}
	}
}

// WithTimeout sets the per-attempt hard timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithRetries sets the attempt budget and backoff bounds.
func WithRetries(maxAttempts int, base, max time.Duration) ClientOption {
	return func(c *Client) {
		c.maxAttempts = maxAttempts
		c.baseDelay = base
		c.maxDelay = max
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithClock sets the clock used for rate limiting and backoff sleeps.
func WithClock(clk clock.Clock) ClientOption {
	return func(c *Client) {
		c.clock = clk
	}
}

// WithHeader adds a header sent on every request.
func WithHeader(key, value string) ClientOption {
	return func(c *Client) {
		c.header.Set(key, value)
	}
}

// WithAuthorizer sets the request authorizer.
func WithAuthorizer(a Authorizer) ClientOption {
	return func(c *Client) {
		c.authorizer = a
	}
}

// WithQuotaDetector overrides how quota exhaustion is recognised.
func WithQuotaDetector(d QuotaDetector) ClientOption {
	return func(c *Client) {
		c.isQuota = d
	}
}

// Source returns the source name.
func (c *Client) Source() string { return c.source }

// QuotaExceeded reports whether the client-level sticky quota flag is set.
// It is set only by calls made without a Cycle and is never cleared.
func (c *Client) QuotaExceeded() bool { return c.quotaExceeded.Load() }

// Stats is a snapshot of client counters.
type Stats struct {
	Requests     int64
	Retries      int64
	Failures     int64
	RateLimited  int64
	ThrottleWait time.Duration
	InFlight     int64
}

// Stats returns current counters.
func (c *Client) Stats() Stats {
	return Stats{
		Requests:     c.requests.Load(),
		Retries:      c.retries.Load(),
		Failures:     c.failures.Load(),
		RateLimited:  c.rateLimited.Load(),
		ThrottleWait: time.Duration(c.throttleWait.Load()),
		InFlight:     c.inFlight.Load(),
	}
}
