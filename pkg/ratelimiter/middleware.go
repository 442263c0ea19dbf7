package ratelimiter

import (
	"hash/fnv"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const maxKeyLength = 64

// KeyFunc extracts the rate limit key from a request. An empty key skips
// limiting.
type KeyFunc func(r *http.Request) string

// ByRemoteAddr keys by client IP. Run it after a real-IP middleware when the
// service sits behind a proxy.
func ByRemoteAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// ByPath keys by the request path.
func ByPath(r *http.Request) string {
	return r.URL.Path
}

// Composite joins the non-empty keys of fns. Keys longer than 64 bytes are
// hashed with FNV-1a.
func Composite(fns ...KeyFunc) KeyFunc {
	return func(r *http.Request) string {
		parts := make([]string, 0, len(fns))
		for _, fn := range fns {
			if key := fn(r); key != "" {
				parts = append(parts, key)
			}
		}
		if len(parts) == 0 {
			return ""
		}

		combined := strings.Join(parts, ":")
		if len(combined) <= maxKeyLength {
			return combined
		}
		h := fnv.New64a()
		_, _ = h.Write([]byte(combined))
		return strconv.FormatUint(h.Sum64(), 36)
	}
}

type middlewareOptions struct {
	logger *slog.Logger
	denied http.Handler
	now    func() time.Time
}

type MiddlewareOption func(*middlewareOptions)

func WithMiddlewareLogger(l *slog.Logger) MiddlewareOption {
	return func(o *middlewareOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithDeniedHandler replaces the plain-text 429 response. Rate limit headers
// are already set when h runs.
func WithDeniedHandler(h http.Handler) MiddlewareOption {
	return func(o *middlewareOptions) {
		if h != nil {
			o.denied = h
		}
	}
}

// Middleware limits requests per key. Store failures let the request through
// and are logged.
func Middleware(limiter Limiter, key KeyFunc, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	o := middlewareOptions{
		logger: slog.Default(),
		denied: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		}),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			k := key(r)
			if k == "" {
				next.ServeHTTP(w, r)
				return
			}

			res, err := limiter.Allow(r.Context(), k)
			if err != nil {
				o.logger.WarnContext(r.Context(), "rate limit check failed",
					slog.String("key", k),
					slog.String("error", err.Error()),
				)
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(max(0, res.Remaining)))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))

			if !res.Allowed() {
				if wait := res.RetryAfter(o.now()); wait > 0 {
					h.Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
				}
				o.denied.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
