package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/dmitrymomot/botfleet/pkg/logger"
)

type config struct {
	addr              string
	readHeaderTimeout time.Duration
	readTimeout       time.Duration
	writeTimeout      time.Duration
	idleTimeout       time.Duration
	shutdownTimeout   time.Duration
	logger            *slog.Logger
	startHooks        []Hook
	drainHooks        []Hook
	stopHooks         []Hook
}

func defaultConfig() *config {
	return &config{
		addr:            ":8080",
		shutdownTimeout: 10 * time.Second,
		logger:          slog.Default(),
	}
}

// Server runs an http.Server until its context is cancelled, then shuts it
// down gracefully and runs the stop hooks.
type Server struct {
	cfg *config

	mu   sync.Mutex
	srv  *http.Server
	once sync.Once
}

func New(opts ...Option) *Server {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return &Server{cfg: cfg}
}

// Run listens on the configured address and serves handler until ctx is done.
func (s *Server) Run(ctx context.Context, handler http.Handler) error {
	ln, err := net.Listen("tcp", s.cfg.addr)
	if err != nil {
		return errors.Join(ErrStart, err)
	}
	return s.Serve(ctx, ln, handler)
}

// Serve is like Run but accepts connections on ln.
func (s *Server) Serve(ctx context.Context, ln net.Listener, handler http.Handler) error {
	if handler == nil {
		handler = http.NotFoundHandler()
	}

	s.mu.Lock()
	if s.srv != nil {
		s.mu.Unlock()
		_ = ln.Close()
		return errors.Join(ErrStart, ErrAlreadyRunning)
	}
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: s.cfg.readHeaderTimeout,
		ReadTimeout:       s.cfg.readTimeout,
		WriteTimeout:      s.cfg.writeTimeout,
		IdleTimeout:       s.cfg.idleTimeout,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}
	s.srv = srv
	s.mu.Unlock()

	for _, h := range s.cfg.startHooks {
		if err := h(ctx); err != nil {
			_ = ln.Close()
			return errors.Join(ErrStart, err)
		}
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	s.cfg.logger.InfoContext(ctx, "http server started", slog.String("addr", ln.Addr().String()))

	var runErr error
	select {
	case <-ctx.Done():
		runErr = s.Shutdown(context.WithoutCancel(ctx))
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			runErr = errors.Join(runErr, err)
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			runErr = errors.Join(ErrStart, err)
		}
		runErr = errors.Join(runErr, s.Shutdown(context.WithoutCancel(ctx)))
	}

	return runErr
}

// Shutdown runs the drain hooks, stops accepting requests, waits for in-flight
// ones and runs the stop hooks. Each phase gets its own shutdown timeout.
// Repeated calls are no-ops.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.once.Do(func() {
		s.mu.Lock()
		srv := s.srv
		s.mu.Unlock()

		err = s.runHooks(ctx, "drain", s.cfg.drainHooks)

		if srv != nil {
			shutdownCtx, cancel := context.WithTimeout(ctx, s.cfg.shutdownTimeout)
			if serr := srv.Shutdown(shutdownCtx); serr != nil && !errors.Is(serr, http.ErrServerClosed) {
				err = errors.Join(err, ErrShutdown, serr)
			}
			cancel()
		}

		err = errors.Join(err, s.runHooks(ctx, "stop", s.cfg.stopHooks))
		s.cfg.logger.InfoContext(ctx, "http server stopped")
	})
	return err
}

func (s *Server) runHooks(ctx context.Context, phase string, hooks []Hook) error {
	if len(hooks) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.shutdownTimeout)
	defer cancel()

	var err error
	for _, h := range hooks {
		if herr := h(ctx); herr != nil {
			s.cfg.logger.ErrorContext(ctx, "shutdown hook failed", slog.String("phase", phase), logger.Error(herr))
			err = errors.Join(err, herr)
		}
	}
	return err
}
