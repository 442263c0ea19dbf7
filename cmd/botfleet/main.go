package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrymomot/botfleet/pkg/config"
	"github.com/dmitrymomot/botfleet/pkg/environment"
	"github.com/dmitrymomot/botfleet/pkg/httpserver"
	"github.com/dmitrymomot/botfleet/pkg/logger"
	"github.com/dmitrymomot/botfleet/pkg/media"
	"github.com/dmitrymomot/botfleet/pkg/ratelimiter"
	"github.com/dmitrymomot/botfleet/pkg/redis"
	"github.com/dmitrymomot/botfleet/svc/auth"
	"github.com/dmitrymomot/botfleet/svc/autoreply"
	"github.com/dmitrymomot/botfleet/svc/client"
	"github.com/dmitrymomot/botfleet/svc/client/simulator"
	"github.com/dmitrymomot/botfleet/svc/notify"
	"github.com/dmitrymomot/botfleet/svc/persistence"
	"github.com/dmitrymomot/botfleet/svc/realtime"
	"github.com/dmitrymomot/botfleet/svc/session"
)

type appConfig struct {
	Env                  string        `env:"APP_ENV" envDefault:"development"`
	ServiceName          string        `env:"SERVICE_NAME" envDefault:"botfleet"`
	CORSOrigins          []string      `env:"CORS_ORIGIN" envSeparator:"," envDefault:"*"`
	AuthRequired         bool          `env:"AUTH_REQUIRED" envDefault:"false"`
	MediaDir             string        `env:"MEDIA_DIR" envDefault:"imagenes"`
	AuthDir              string        `env:"AUTH_DIR" envDefault:".botfleet_auth"`
	Triggers             []string      `env:"AUTOREPLY_TRIGGERS" envSeparator:","`
	ChallengeTimeout     time.Duration `env:"CHALLENGE_TIMEOUT" envDefault:"0s"`
	BootstrapConcurrency int           `env:"BOOTSTRAP_CONCURRENCY" envDefault:"4"`
	SimulatorRoutes      bool          `env:"SIMULATOR_ROUTES" envDefault:"true"`

	HTTP        httpserver.Config
	Persistence persistence.Config
	Auth        auth.Config
	Media       media.S3Config
	Redis       redis.Config
	RateLimit   ratelimiter.Config
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "botfleet: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var cfg appConfig
	if err := config.Load(&cfg); err != nil {
		return err
	}

	env := environment.Parse(cfg.Env)
	log := logger.New(logger.WithEnvironment(env, cfg.ServiceName))
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gateway, err := newGateway(cfg, log)
	if err != nil {
		return fmt.Errorf("persistence gateway: %w", err)
	}

	var (
		checks      []httpserver.Check
		channelOpts = []notify.Option{notify.WithLogger(log)}
		relay       *notify.RedisRelay
		limitStore  ratelimiter.Store
	)
	if cfg.Redis.Enabled() {
		rdb, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer rdb.Close()

		relay = notify.NewRedisRelay(rdb, notify.WithRelayChannel(cfg.Redis.Channel), notify.WithRelayLogger(log))
		channelOpts = append(channelOpts, notify.WithRelay(relay))
		checks = append(checks, httpserver.Check{Name: "redis", Fn: redis.Healthcheck(rdb)})
		limitStore = ratelimiter.NewRedisStore(rdb)
	} else {
		mem := ratelimiter.NewMemoryStore()
		defer mem.Close()
		limitStore = mem
	}

	limiter, err := ratelimiter.NewBucket(limitStore, cfg.RateLimit)
	if err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	channel := notify.New(channelOpts...)
	if relay != nil {
		go func() {
			if err := relay.Run(ctx, channel); err != nil && !errors.Is(err, context.Canceled) {
				log.ErrorContext(ctx, "notification relay stopped", logger.Error(err))
			}
		}()
	}

	source, err := newMediaSource(ctx, cfg)
	if err != nil {
		return fmt.Errorf("media source: %w", err)
	}
	responder, err := autoreply.New(source, autoreply.WithTriggers(cfg.Triggers...), autoreply.WithLogger(log))
	if err != nil {
		return fmt.Errorf("auto-reply: %w", err)
	}

	store := client.NewLocalCredentialStore(nil, cfg.AuthDir)
	fleet := simulator.NewFleet(store)

	registry, err := session.NewRegistry(fleet.Factory(), gateway, channel,
		session.WithResponder(responder),
		session.WithCredentialStore(store),
		session.WithChallengeTimeout(cfg.ChallengeTimeout),
		session.WithLogger(log),
	)
	if err != nil {
		return fmt.Errorf("session registry: %w", err)
	}

	handlerOpts := []realtime.Option{
		realtime.WithLogger(log),
		realtime.WithAllowedOrigins(cfg.CORSOrigins...),
		realtime.WithReadinessChecks(checks...),
		realtime.WithRateLimiter(limiter),
	}
	if cfg.SimulatorRoutes {
		handlerOpts = append(handlerOpts, realtime.WithRoutes(simulatorRoutes(fleet, log)))
	}

	var tokens realtime.Tokens
	if cfg.Auth.Secret != "" {
		svc, err := auth.New(gateway, cfg.Auth, auth.WithLogger(log))
		if err != nil {
			return fmt.Errorf("auth: %w", err)
		}
		tokens = svc
		handlerOpts = append(handlerOpts, realtime.WithTokenAuth(cfg.AuthRequired))
	} else {
		if cfg.AuthRequired {
			return fmt.Errorf("auth: %w", auth.ErrMissingSecret)
		}
		log.WarnContext(ctx, "JWT_SECRET is not set, login routes are disabled")
	}

	handler := realtime.New(registry, channel, tokens, handlerOpts...)

	go func() {
		report, err := session.Bootstrap(ctx, gateway, registry,
			session.WithConcurrency(cfg.BootstrapConcurrency),
			session.WithBootstrapLogger(log),
		)
		if err != nil {
			log.ErrorContext(ctx, "bootstrap failed", logger.Error(err))
			return
		}
		log.InfoContext(ctx, "bootstrap finished",
			slog.Int("started", len(report.Started)),
			slog.Int("failed", len(report.Failed)),
		)
	}()

	server := httpserver.NewFromConfig(cfg.HTTP,
		httpserver.WithLogger(log),
		httpserver.WithDrainHook(func(context.Context) error { return channel.Close() }),
		httpserver.WithStopHook(registry.Close),
	)

	log.InfoContext(ctx, "starting botfleet",
		slog.String("addr", cfg.HTTP.Addr),
		slog.String("env", env.String()),
		slog.Bool("redis", cfg.Redis.Enabled()),
	)
	return server.Run(ctx, handler.Routes())
}

// newGateway returns the HTTP gateway, or an in-memory one when no backend URL
// is configured outside production.
func newGateway(cfg appConfig, log *slog.Logger) (persistence.Gateway, error) {
	if cfg.Persistence.URL == "" && !environment.Parse(cfg.Env).IsProduction() {
		log.Warn("API_URL is not set, session records are kept in memory")
		return persistence.NewMemory(), nil
	}
	return persistence.NewClient(cfg.Persistence, []persistence.ClientOption{persistence.WithLogger(log)})
}

func newMediaSource(ctx context.Context, cfg appConfig) (media.Source, error) {
	if cfg.Media.Bucket != "" {
		return media.NewS3Source(ctx, cfg.Media)
	}
	return media.NewLocalSource(nil, cfg.MediaDir), nil
}
