package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
)

// Config holds the cloud function module configuration. An empty RedisAddr
// disables the code cache.
type Config struct {
	ExecutionTimeout time.Duration `env:"FUNCTION_TIMEOUT" envDefault:"5s"`
	CoreDatabaseName string        `env:"CORE_DB_NAME" envDefault:"core"`
	RedisAddr        string        `env:"REDIS_ADDR" envDefault:""`
	RedisPassword    string        `env:"REDIS_PASSWORD" envDefault:""`
	CacheTTL         time.Duration `env:"FUNCTION_CACHE_TTL" envDefault:"10m"`
}

// LoadConfig loads function configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse function config: %w", err)
	}
	return cfg, nil
}
