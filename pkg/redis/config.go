package redis

import "time"

// Config describes the optional Redis connection used to relay notifications
// between replicas. An empty URL disables Redis.
type Config struct {
	URL            string        `env:"REDIS_URL"`
	Channel        string        `env:"REDIS_CHANNEL" envDefault:"botfleet:notifications"`
	RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"2s"`
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"15s"`
}

// Enabled reports whether a connection URL is configured.
func (c Config) Enabled() bool {
	return c.URL != ""
}
