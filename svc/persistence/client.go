package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrymomot/botfleet/pkg/httprpc"
	"github.com/dmitrymomot/botfleet/pkg/logger"
)

const (
	opListActive = "buscar_sesiones"
	opAdd        = "add_session"
	opRemove     = "desconectar_session"
	opLogin      = "login"
)

// Config holds the backend connection settings.
type Config struct {
	URL              string        `env:"API_URL"`
	Timeout          time.Duration `env:"PERSISTENCE_TIMEOUT" envDefault:"10s"`
	MaxRetries       int           `env:"PERSISTENCE_MAX_RETRIES" envDefault:"3"`
	BreakerFailures  int           `env:"PERSISTENCE_BREAKER_FAILURES" envDefault:"5"`
	BreakerRecovery  time.Duration `env:"PERSISTENCE_BREAKER_RECOVERY" envDefault:"30s"`
	BackoffInitial   time.Duration `env:"PERSISTENCE_BACKOFF_INITIAL" envDefault:"500ms"`
	BackoffMaxPeriod time.Duration `env:"PERSISTENCE_BACKOFF_MAX" envDefault:"10s"`
}

// Client is the HTTP Gateway implementation.
type Client struct {
	rpc    *httprpc.Client
	logger *slog.Logger
	now    func() time.Time
}

type ClientOption func(*Client)

func WithLogger(l *slog.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithClock overrides the time source used for record timestamps in tests.
func WithClock(now func() time.Time) ClientOption {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// NewClient builds a Client from cfg. Extra httprpc options are applied after
// the ones derived from cfg.
func NewClient(cfg Config, opts []ClientOption, rpcOpts ...httprpc.Option) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("%w: URL is required", ErrInvalidConfig)
	}

	c := &Client{
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	base := []httprpc.Option{
		httprpc.WithTimeout(cfg.Timeout),
		httprpc.WithMaxRetries(cfg.MaxRetries),
		httprpc.WithCircuitBreaker(httprpc.NewCircuitBreaker(cfg.BreakerFailures, 1, cfg.BreakerRecovery)),
		httprpc.WithOnAttempt(c.logAttempt),
	}
	if cfg.BackoffInitial > 0 {
		base = append(base, httprpc.WithBackoff(httprpc.ExponentialBackoff{
			InitialInterval: cfg.BackoffInitial,
			MaxInterval:     cfg.BackoffMaxPeriod,
			Multiplier:      2,
			JitterFactor:    0.1,
		}))
	}

	rpc, err := httprpc.New(cfg.URL, append(base, rpcOpts...)...)
	if err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}
	c.rpc = rpc

	return c, nil
}

type envelope struct {
	Data json.RawMessage `json:"data"`
}

type activeRow struct {
	ClientID FlexString `json:"clientid"`
}

func (c *Client) ListActive(ctx context.Context) ([]string, error) {
	var resp envelope
	if err := c.call(ctx, url.Values{"funcion": {opListActive}}, &resp); err != nil {
		return nil, err
	}

	if isEmpty(resp.Data) {
		return []string{}, nil
	}

	var rows []activeRow
	if err := json.Unmarshal(resp.Data, &rows); err != nil {
		return nil, errors.Join(ErrInvalidResponse, err)
	}

	tenants := make([]string, 0, len(rows))
	for _, row := range rows {
		if id := strings.TrimSpace(row.ClientID.String()); id != "" {
			tenants = append(tenants, id)
		}
	}
	return tenants, nil
}

func (c *Client) AddRecord(ctx context.Context, tenant string, lastConnected time.Time) error {
	if lastConnected.IsZero() {
		lastConnected = c.now()
	}
	return c.call(ctx, url.Values{
		"funcion":        {opAdd},
		"cliente_id":     {tenant},
		"last_connected": {lastConnected.Format(TimeLayout)},
	}, nil)
}

func (c *Client) RemoveRecord(ctx context.Context, tenant string) error {
	return c.call(ctx, url.Values{
		"funcion":    {opRemove},
		"cliente_id": {tenant},
	}, nil)
}

func (c *Client) Authenticate(ctx context.Context, email, password string) (*UserProfile, error) {
	var resp envelope
	err := c.call(ctx, url.Values{
		"funcion":  {opLogin},
		"email":    {email},
		"password": {password},
	}, &resp)
	if err != nil {
		return nil, err
	}

	if isEmpty(resp.Data) {
		return nil, ErrInvalidCredentials
	}

	var profile UserProfile
	if err := json.Unmarshal(resp.Data, &profile); err != nil {
		return nil, errors.Join(ErrInvalidResponse, err)
	}
	if profile.Email == "" {
		profile.Email = email
	}
	return &profile, nil
}

func (c *Client) call(ctx context.Context, form url.Values, out any) error {
	if err := c.rpc.Call(ctx, form, out); err != nil {
		if errors.Is(err, httprpc.ErrDecode) {
			return errors.Join(ErrInvalidResponse, err)
		}
		return errors.Join(ErrUnavailable, err)
	}
	return nil
}

func (c *Client) logAttempt(a httprpc.Attempt) {
	if a.Err == nil {
		return
	}
	c.logger.Warn("persistence call attempt failed",
		slog.Int("attempt", a.Number),
		slog.Int("status", a.StatusCode),
		logger.Error(a.Err),
	)
}

// isEmpty reports whether data is absent, null or false, which the backend
// uses for "nothing found".
func isEmpty(data json.RawMessage) bool {
	s := strings.TrimSpace(string(data))
	return s == "" || s == "null" || s == "false"
}
