package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

var knownWeakSecrets = []string{
	"change-me", "dev-secret-change-me", "secret", "admin", "password",
}

type Config struct {
	Port              int    `env:"PORT" envDefault:"8080"`
	DatabaseURL       string `env:"DATABASE_URL,required"`
	RedisURL          string `env:"REDIS_URL,required"`
	GameSessionSecret string `env:"GAME_SESSION_SECRET,required"`
	CooldownHours     int    `env:"GAME_COOLDOWN_HOURS" envDefault:"24"`
	SessionTTLSeconds int    `env:"GAME_SESSION_TTL_SECONDS" envDefault:"300"`
	LogLevel          string `env:"LOG_LEVEL" envDefault:"info"`
}

func (c *Config) Cooldown() time.Duration {
	return time.Duration(c.CooldownHours) * time.Hour
}

func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLSeconds) * time.Second
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) Validate(isProduction bool) error {
	if c.CooldownHours <= 0 {
		return fmt.Errorf("GAME_COOLDOWN_HOURS must be positive")
	}
	if c.SessionTTLSeconds <= 0 {
		return fmt.Errorf("GAME_SESSION_TTL_SECONDS must be positive")
	}

	if isProduction {
		if err := validateSecret("GAME_SESSION_SECRET", c.GameSessionSecret); err != nil {
			return err
		}
	}

	return nil
}

func validateSecret(name, value string) error {
	if len(value) < 32 {
		return fmt.Errorf("%s must be at least 32 characters in production (generate with: openssl rand -base64 32)", name)
	}
	for _, weak := range knownWeakSecrets {
		if value == weak {
			return fmt.Errorf("%s is a known weak default; set a strong secret in production", name)
		}
	}
	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
