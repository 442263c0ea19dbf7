package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dmitrymomot/botfleet/pkg/logger"
	"github.com/dmitrymomot/botfleet/svc/persistence"
)

const DefaultTTL = time.Hour

// Authenticator checks user credentials. persistence.Gateway satisfies it.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (*persistence.UserProfile, error)
}

// Claims is the token payload.
type Claims struct {
	UserID string `json:"id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// Config holds token settings.
type Config struct {
	Secret string        `env:"JWT_SECRET"`
	TTL    time.Duration `env:"JWT_TTL" envDefault:"1h"`
	Issuer string        `env:"JWT_ISSUER" envDefault:"botfleet"`
}

type Service struct {
	authn  Authenticator
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
	logger *slog.Logger
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

func New(authn Authenticator, cfg Config, opts ...Option) (*Service, error) {
	if cfg.Secret == "" {
		return nil, ErrMissingSecret
	}
	s := &Service{
		authn:  authn,
		secret: []byte(cfg.Secret),
		ttl:    cfg.TTL,
		issuer: cfg.Issuer,
		now:    time.Now,
		logger: slog.Default(),
	}
	if s.ttl <= 0 {
		s.ttl = DefaultTTL
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Login checks the credentials and returns a signed token with the profile.
func (s *Service) Login(ctx context.Context, email, password string) (string, *persistence.UserProfile, error) {
	if email == "" || password == "" {
		return "", nil, ErrInvalidCredentials
	}

	profile, err := s.authn.Authenticate(ctx, email, password)
	if err != nil {
		if errors.Is(err, persistence.ErrInvalidCredentials) {
			return "", nil, ErrInvalidCredentials
		}
		s.logger.ErrorContext(ctx, "credential check failed", logger.Error(err))
		return "", nil, err
	}

	token, err := s.Sign(profile.ID.String(), profile.Email)
	if err != nil {
		return "", nil, err
	}
	return token, profile, nil
}

// Sign issues a token for the given user.
func (s *Service) Sign(userID, email string) (string, error) {
	now := s.now()
	claims := Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", errors.Join(ErrSigningFailed, err)
	}
	return signed, nil
}

// Verify parses token and returns its claims when the signature, issuer and
// expiry are valid.
func (s *Service) Verify(token string) (*Claims, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, opts...)
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
