package httprpc

import (
	"net/http"
	"time"
)

// Attempt describes a single request attempt, reported to the attempt hook.
type Attempt struct {
	Number     int
	StatusCode int
	Err        error
}

type options struct {
	timeout    time.Duration
	maxRetries int
	backoff    Backoff
	breaker    *CircuitBreaker
	httpClient *http.Client
	userAgent  string
	onAttempt  func(Attempt)
}

func defaultOptions() options {
	return options{
		timeout:    10 * time.Second,
		maxRetries: 3,
		backoff:    DefaultBackoff(),
		userAgent:  "botfleet-rpc/1.0",
	}
}

// Option configures a Client.
type Option func(*options)

// WithTimeout sets the per-attempt timeout. Default 10s.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithMaxRetries sets how many times a failed call is retried. Default 3; 0 disables retries.
func WithMaxRetries(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.maxRetries = n
		}
	}
}

// WithBackoff sets the delay strategy between retries.
func WithBackoff(b Backoff) Option {
	return func(o *options) {
		if b != nil {
			o.backoff = b
		}
	}
}

// WithCircuitBreaker guards the endpoint with cb.
func WithCircuitBreaker(cb *CircuitBreaker) Option {
	return func(o *options) {
		o.breaker = cb
	}
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		if c != nil {
			o.httpClient = c
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(o *options) {
		o.userAgent = ua
	}
}

// WithOnAttempt registers a hook invoked after every attempt, e.g. for logging.
func WithOnAttempt(fn func(Attempt)) Option {
	return func(o *options) {
		o.onAttempt = fn
	}
}
