package httprpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// maxResponseSize caps how much of a response body is read.
const maxResponseSize = 1 << 20

// Client posts form-encoded requests to a single endpoint and decodes JSON
// responses. Failed calls are retried with backoff; an optional circuit
// breaker short-circuits calls while the endpoint is failing.
// Safe for concurrent use.
type Client struct {
	endpoint string
	http     *http.Client
	opts     options
}

// New creates a client for endpoint, which must be an absolute http(s) URL.
func New(endpoint string, opts ...Option) (*Client, error) {
	if err := validateURL(endpoint); err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	client := o.httpClient
	if client == nil {
		client = &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}

	return &Client{endpoint: endpoint, http: client, opts: o}, nil
}

// Call posts form to the endpoint and decodes the JSON response into out.
// out may be nil when the response body is irrelevant.
func (c *Client) Call(ctx context.Context, form url.Values, out any) error {
	if c.opts.breaker != nil && !c.opts.breaker.Allow() {
		return ErrCircuitOpen
	}

	body := form.Encode()

	var lastErr error
	for attempt := 0; attempt <= c.opts.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return errors.Join(ErrRequestFailed, ctx.Err())
			case <-time.After(c.opts.backoff.NextInterval(attempt)):
			}
		}

		status, payload, err := c.attempt(ctx, body)
		if c.opts.onAttempt != nil {
			c.opts.onAttempt(Attempt{Number: attempt + 1, StatusCode: status, Err: err})
		}
		if c.opts.breaker != nil {
			if err == nil {
				c.opts.breaker.RecordSuccess()
			} else {
				c.opts.breaker.RecordFailure()
			}
		}

		if err == nil {
			if out == nil || len(payload) == 0 {
				return nil
			}
			if err := json.Unmarshal(payload, out); err != nil {
				return errors.Join(ErrDecode, err)
			}
			return nil
		}

		lastErr = err
		if isPermanent(status) {
			return fmt.Errorf("%w: %w", ErrPermanentFailure, err)
		}
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrRequestFailed, c.opts.maxRetries+1, lastErr)
}

func (c *Client) attempt(ctx context.Context, body string) (int, []byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.opts.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.endpoint, strings.NewReader(body))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	if c.opts.userAgent != "" {
		req.Header.Set("User-Agent", c.opts.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return 0, nil, fmt.Errorf("%w: %w", ErrTimeout, err)
		}
		return 0, nil, fmt.Errorf("%w: %w", ErrTemporaryFailure, err)
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("%w: reading body: %w", ErrTemporaryFailure, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.ReplaceAll(string(payload), "\n", " ")
		if len(msg) > 200 {
			msg = msg[:200] + "..."
		}
		return resp.StatusCode, nil, fmt.Errorf("endpoint returned status %d: %s", resp.StatusCode, msg)
	}

	return resp.StatusCode, payload, nil
}

// isPermanent reports whether a status code will not change on retry.
// 408, 425 and 429 are 4xx codes that may resolve on their own.
func isPermanent(status int) bool {
	if status < 400 || status >= 500 {
		return false
	}
	switch status {
	case http.StatusRequestTimeout, http.StatusTooEarly, http.StatusTooManyRequests:
		return false
	default:
		return true
	}
}

func validateURL(endpoint string) error {
	if endpoint == "" {
		return fmt.Errorf("%w: URL is required", ErrInvalidURL)
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: only http and https schemes are supported", ErrInvalidURL)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: host is required", ErrInvalidURL)
	}
	return nil
}
