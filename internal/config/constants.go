package config

import "time"

// Game session rules
const (
	// PairCount is the number of symbol pairs in a generated deck (9 pairs = 18 cards).
	PairCount = 9

	// RewardPoints is awarded for every verified win.
	RewardPoints = 10

	// MaxElapsedSeconds is the plausibility ceiling for a claimed completion time.
	// Anything above it is a loss, not an error.
	MaxElapsedSeconds = 60
)

// Database connection pool settings
const (
	DBMaxOpenConns    = 25
	DBMaxIdleConns    = 5
	DBConnMaxLifetime = 5 * time.Minute
)

// HTTP server timeouts
const (
	ServerRequestTimeout  = 60 * time.Second
	ServerReadTimeout     = 15 * time.Second
	ServerWriteTimeout    = 30 * time.Second
	ServerIdleTimeout     = 120 * time.Second
	ServerShutdownTimeout = 30 * time.Second
)

// Database ping timeout for health checks
const DBPingTimeout = 5 * time.Second

// Background job settings
const (
	CleanupJobInterval = 1 * time.Hour
	EventRetention     = 30 * 24 * time.Hour
)

// Rate limiting
const (
	DefaultRateLimitPerMin = 60
	StartIPRateLimit       = 10
	StartIPRateWindow      = 1 * time.Minute
)
