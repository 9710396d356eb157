package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds runtime settings for the gophauth CLI.
type Config struct {
	ServerEndpointAddr string        `env:"GOPHAUTH_SERVER_ADDR"`
	RequestTimeout     time.Duration `env:"GOPHAUTH_REQUEST_TIMEOUT"`
}

// LoadDefaults points the client at a local server.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.RequestTimeout = 5 * time.Second
}

// LoadConfig applies defaults, the JSON file, GOPHAUTH_* variables and flags,
// in that order, and validates the result.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg); err != nil {
		return nil, err
	}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}
	if err := parseFlags(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects an empty server address and a non-positive timeout.
func (c *Config) Validate() error {
	var errs []error
	if c.ServerEndpointAddr == "" {
		errs = append(errs, errors.New("server address is required"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("request timeout must be positive, got %s", c.RequestTimeout))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
