package config

import (
	"fmt"

	"github.com/caarlos0/env/v6"
)

// Config holds the collection module configuration. RestrictedTables names
// collections the operator has closed to API access on top of the built-in
// reserved set.
type Config struct {
	RestrictedTables []string `env:"RESTRICTED_TABLES" envSeparator:"," envDefault:""`
	DatabaseName     string   `env:"DATA_DB_NAME" envDefault:"content"`
}

// LoadConfig loads collection configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse collection config: %w", err)
	}
	return cfg, nil
}

// IsRestricted reports whether the operator denylist covers the collection.
func (c *Config) IsRestricted(name string) bool {
	for _, restricted := range c.RestrictedTables {
		if restricted == name {
			return true
		}
	}
	return false
}
