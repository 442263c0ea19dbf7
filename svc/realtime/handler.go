package realtime

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/botfleet/pkg/httpserver"
	"github.com/dmitrymomot/botfleet/pkg/ratelimiter"
	"github.com/dmitrymomot/botfleet/svc/auth"
	"github.com/dmitrymomot/botfleet/svc/notify"
	"github.com/dmitrymomot/botfleet/svc/persistence"
	"github.com/dmitrymomot/botfleet/svc/session"
)

// Sessions is the registry surface used by the handler. *session.Registry
// satisfies it.
type Sessions interface {
	Request(ctx context.Context, tenant string) (session.Info, error)
	Create(ctx context.Context, tenant string) (*session.Handle, error)
	Destroy(ctx context.Context, tenant string) error
	Logout(ctx context.Context, tenant string) error
	PurgeCredentials(ctx context.Context, tenant string) error
	List() []session.Info
}

// Events is the notification source. *notify.Channel satisfies it.
type Events interface {
	Subscribe(ctx context.Context, tenant string) *notify.Subscription
	SubscribeAll(ctx context.Context) *notify.Subscription
}

// Tokens issues and verifies access tokens. *auth.Service satisfies it.
type Tokens interface {
	Login(ctx context.Context, email, password string) (string, *persistence.UserProfile, error)
	Verify(token string) (*auth.Claims, error)
}

type Handler struct {
	sessions    Sessions
	events      Events
	tokens      Tokens
	logger      *slog.Logger
	origins     []string
	requireAuth bool
	checks      []httpserver.Check
	extra       []func(chi.Router)
	limiter     ratelimiter.Limiter
}

type Option func(*Handler)

func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithAllowedOrigins sets the CORS allowlist. "*" allows any origin.
func WithAllowedOrigins(origins ...string) Option {
	return func(h *Handler) {
		for _, o := range origins {
			if o = strings.TrimSpace(o); o != "" {
				h.origins = append(h.origins, o)
			}
		}
	}
}

// WithTokenAuth requires a valid token on session and event routes.
func WithTokenAuth(required bool) Option {
	return func(h *Handler) {
		h.requireAuth = required
	}
}

// WithReadinessChecks adds checks served on /readyz.
func WithReadinessChecks(checks ...httpserver.Check) Option {
	return func(h *Handler) {
		h.checks = append(h.checks, checks...)
	}
}

// WithRateLimiter throttles login and session creation per client IP.
func WithRateLimiter(l ratelimiter.Limiter) Option {
	return func(h *Handler) {
		h.limiter = l
	}
}

// WithRoutes mounts additional routes next to the session routes, behind the
// same authentication.
func WithRoutes(fn func(r chi.Router)) Option {
	return func(h *Handler) {
		if fn != nil {
			h.extra = append(h.extra, fn)
		}
	}
}

// New builds a handler. tokens may be nil, which disables the auth routes
// and token checks.
func New(sessions Sessions, events Events, tokens Tokens, opts ...Option) *Handler {
	h := &Handler{
		sessions: sessions,
		events:   events,
		tokens:   tokens,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes returns the HTTP router.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.RequestID)
	r.Use(chimw.RequestLogger(requestLogFormatter{logger: h.logger}))
	r.Use(chimw.Recoverer)
	r.Use(h.cors)

	r.Get("/healthz", httpserver.HealthCheckHandler(h.logger))
	r.Get("/readyz", httpserver.HealthCheckHandler(h.logger, h.checks...))

	limit := h.rateLimit()

	if h.tokens != nil {
		r.With(limit).Post("/login", h.login)
		r.Post("/verify-token", h.verifyToken)
	}

	r.Group(func(r chi.Router) {
		if h.requireAuth && h.tokens != nil {
			r.Use(h.authenticate)
		}

		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", h.listSessions)
			r.Route("/{tenant}", func(r chi.Router) {
				r.With(limit).Post("/", h.createSession)
				r.Get("/", h.getSession)
				r.Delete("/", h.destroySession)
				r.Post("/logout", h.logoutSession)
				r.Delete("/credentials", h.purgeCredentials)
			})
		})

		r.Get("/events", h.streamAll)
		r.Get("/events/{tenant}", h.streamTenant)

		for _, fn := range h.extra {
			fn(r)
		}
	})

	return r
}

func (h *Handler) rateLimit() func(http.Handler) http.Handler {
	if h.limiter == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return ratelimiter.Middleware(h.limiter, ratelimiter.ByRemoteAddr,
		ratelimiter.WithMiddlewareLogger(h.logger),
		ratelimiter.WithDeniedHandler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			writeError(w, http.StatusTooManyRequests, ErrRateLimited)
		})),
	)
}
