package config

import (
	"errors"
	"time"

	"github.com/caarlos0/env/v6"
)

// Config holds the auth module configuration.
type Config struct {
	JWTSecretKey   string        `env:"JWT_SECRET_KEY"`
	JWTIssuer      string        `env:"JWT_ISSUER" envDefault:"docbase"`
	AccessTokenTTL time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"720h"`
	AllowRegister  bool          `env:"ALLOW_REGISTER" envDefault:"true"`
}

// LoadConfig loads the auth configuration from environment variables.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.New("failed to load auth configuration from environment: " + err.Error())
	}
	if cfg.JWTSecretKey == "" {
		return nil, errors.New("JWT_SECRET_KEY environment variable is not set")
	}
	if cfg.AccessTokenTTL <= 0 {
		return nil, errors.New("ACCESS_TOKEN_TTL must be positive")
	}
	return cfg, nil
}
