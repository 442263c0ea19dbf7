package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var dotenvOnce sync.Once

type loadOptions struct {
	files  []string
	prefix string
}

// Option adjusts how Load reads the environment.
type Option func(*loadOptions)

// WithEnvFiles loads the given dotenv files instead of ./.env.
// Variables already present in the environment are never overridden.
func WithEnvFiles(files ...string) Option {
	return func(o *loadOptions) { o.files = files }
}

// WithPrefix reads variables named PREFIX + tag, e.g. "BOT_" + "API_URL".
func WithPrefix(prefix string) Option {
	return func(o *loadOptions) { o.prefix = prefix }
}

// Load fills v from environment variables according to its `env` tags.
//
// Without WithEnvFiles the default .env file is loaded once per process; a
// missing file is not an error. Explicit files must exist.
//
//	type Config struct {
//		APIURL string `env:"API_URL,required"`
//		Port   int    `env:"PORT" envDefault:"3001"`
//	}
//
//	var cfg Config
//	if err := config.Load(&cfg); err != nil { ... }
func Load[T any](v *T, opts ...Option) error {
	if v == nil {
		return ErrNilPointer
	}

	o := loadOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	if len(o.files) > 0 {
		if err := godotenv.Load(o.files...); err != nil {
			return errors.Join(ErrEnvFile, err)
		}
	} else {
		dotenvOnce.Do(func() {
			_ = godotenv.Load()
		})
	}

	if err := env.ParseWithOptions(v, env.Options{Prefix: o.prefix}); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}
	return nil
}

// MustLoad is like Load but panics on failure. Use it for configuration the
// process cannot start without.
func MustLoad[T any](v *T, opts ...Option) {
	if err := Load(v, opts...); err != nil {
		panic(fmt.Sprintf("failed to load required configuration: %v", err))
	}
}
