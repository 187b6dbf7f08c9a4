package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigMethods(t *testing.T) {
	t.Run("Addr returns formatted port", func(t *testing.T) {
		cfg := &Config{Port: 3000}
		assert.Equal(t, ":3000", cfg.Addr())
	})

	t.Run("Cooldown converts hours to duration", func(t *testing.T) {
		cfg := &Config{CooldownHours: 24}
		assert.Equal(t, 24*time.Hour, cfg.Cooldown())
	})

	t.Run("SessionTTL converts seconds to duration", func(t *testing.T) {
		cfg := &Config{SessionTTLSeconds: 300}
		assert.Equal(t, 5*time.Minute, cfg.SessionTTL())
	})
}

func TestServerTimeouts(t *testing.T) {
	// No endpoint streams, so every server-side window must be finite.
	assert.Greater(t, int64(ServerReadTimeout), int64(0))
	assert.Greater(t, int64(ServerWriteTimeout), int64(0))
	assert.Greater(t, int64(ServerIdleTimeout), int64(0))
}

func TestLoad(t *testing.T) {
	t.Run("loads config with defaults", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/test")
		t.Setenv("REDIS_URL", "redis://localhost:6379")
		t.Setenv("GAME_SESSION_SECRET", "dev-only-secret")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 8080, cfg.Port)
		assert.Equal(t, "postgres://localhost/test", cfg.DatabaseURL)
		assert.Equal(t, "redis://localhost:6379", cfg.RedisURL)
		assert.Equal(t, 24, cfg.CooldownHours)
		assert.Equal(t, 300, cfg.SessionTTLSeconds)
		assert.Equal(t, "info", cfg.LogLevel)
	})

	t.Run("loads custom values", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/test")
		t.Setenv("REDIS_URL", "redis://localhost:6379")
		t.Setenv("GAME_SESSION_SECRET", "dev-only-secret")
		t.Setenv("PORT", "9000")
		t.Setenv("GAME_COOLDOWN_HOURS", "12")
		t.Setenv("GAME_SESSION_TTL_SECONDS", "120")
		t.Setenv("LOG_LEVEL", "debug")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 9000, cfg.Port)
		assert.Equal(t, 12, cfg.CooldownHours)
		assert.Equal(t, 120, cfg.SessionTTLSeconds)
		assert.Equal(t, "debug", cfg.LogLevel)
	})
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			GameSessionSecret: "a-long-enough-secret-for-production-use",
			CooldownHours:     24,
			SessionTTLSeconds: 300,
		}
	}

	t.Run("valid production config", func(t *testing.T) {
		assert.NoError(t, base().Validate(true))
	})

	t.Run("short secret rejected in production", func(t *testing.T) {
		cfg := base()
		cfg.GameSessionSecret = "short"
		assert.Error(t, cfg.Validate(true))
	})

	t.Run("short secret allowed outside production", func(t *testing.T) {
		cfg := base()
		cfg.GameSessionSecret = "short"
		assert.NoError(t, cfg.Validate(false))
	})

	t.Run("known weak secret rejected in production", func(t *testing.T) {
		cfg := base()
		cfg.GameSessionSecret = "change-me-change-me-change-me-yes"
		require.NoError(t, cfg.Validate(true))

		cfg.GameSessionSecret = "change-me"
		assert.Error(t, cfg.Validate(true))
	})

	t.Run("non-positive game windows rejected", func(t *testing.T) {
		cfg := base()
		cfg.CooldownHours = 0
		assert.Error(t, cfg.Validate(false))

		cfg = base()
		cfg.SessionTTLSeconds = -1
		assert.Error(t, cfg.Validate(false))
	})
}
