// Package config provides centralized configuration loaded from environment
// variables. Shared by both cmd/api and cmd/ops.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Sport registry
// --------------------------------------------------------------------------

// Sports supported by the API. Unknown sports fall back to DefaultDuration
// when computing match-finish times.
const (
	SportFootball   = "football"
	SportBasketball = "basketball"
	SportUFC        = "ufc"
)

// SportDurations maps a sport to its nominal match duration, used to derive
// the instant a match's content is considered final.
var SportDurations = map[string]time.Duration{
	SportFootball:   120 * time.Minute,
	SportBasketball: 120 * time.Minute,
	SportUFC:        180 * time.Minute,
}

// DefaultDuration applies to sports missing from SportDurations.
const DefaultDuration = 120 * time.Minute

// CategoriesForSport returns the vote categories a sport accepts.
func CategoriesForSport(sport string) []string {
	switch sport {
	case SportFootball:
		return []string{"mvp", "scorer", "assist", "defender", "goalkeeper"}
	case SportBasketball:
		return []string{"mvp", "scorer", "assist", "defender"}
	case SportUFC:
		return []string{"fight_of_the_night", "performance_of_the_night"}
	}
	return []string{"mvp"}
}

// --------------------------------------------------------------------------
// Config struct — populated from environment variables
// --------------------------------------------------------------------------

type Config struct {
	// Database
	DatabaseURL    string
	DBPoolMinConns int
	DBPoolMaxConns int
	DBPoolMaxLife  time.Duration

	// API server
	APIHost     string
	APIPort     int
	Environment string // development, staging, production
	Debug       bool

	// CORS
	CORSAllowOrigins []string

	// Rate limiting
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Auth
	JWTSecret string

	// Cache
	CacheEnabled bool
	RedisURL     string

	// Notifications
	VotingWindowHours   int
	ReminderOffsetHours int
	DispatchInterval    time.Duration
	PushGatewayURL      string
	PushTimeout         time.Duration

	// Provider sync
	SportsDBKey  string
	SyncCron     string // cron spec for the periodic provider re-sync
	SyncDays     int
	SyncDisabled bool
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	dbURL := envOr("DATABASE_URL", "")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL must be set")
	}
	jwtSecret := envOr("JWT_SECRET", "")
	if jwtSecret == "" {
		// An empty HS256 key would make every bearer token forgeable.
		return nil, fmt.Errorf("JWT_SECRET must be set")
	}

	return &Config{
		DatabaseURL:    dbURL,
		DBPoolMinConns: envInt("DB_POOL_MIN_CONNS", 2),
		DBPoolMaxConns: envInt("DB_POOL_MAX_CONNS", 10),
		DBPoolMaxLife:  time.Duration(envInt("DB_POOL_MAX_LIFE_MINUTES", 30)) * time.Minute,

		APIHost:     envOr("API_HOST", "0.0.0.0"),
		APIPort:     envInt("API_PORT", envInt("PORT", 8000)),
		Environment: envOr("ENVIRONMENT", "development"),
		Debug:       envBool("DEBUG", false),

		CORSAllowOrigins: envList("CORS_ALLOW_ORIGINS", []string{"*"}),

		RateLimitEnabled:  envBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequests: envInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:   time.Duration(envInt("RATE_LIMIT_WINDOW", 60)) * time.Second,

		JWTSecret: jwtSecret,

		CacheEnabled: envBool("CACHE_ENABLED", true),
		RedisURL:     envOr("REDIS_URL", ""),

		VotingWindowHours:   envInt("VOTING_WINDOW_HOURS", 24),
		ReminderOffsetHours: envInt("REMINDER_OFFSET_HOURS", 12),
		DispatchInterval:    time.Duration(envInt("DISPATCH_INTERVAL_SECONDS", 90)) * time.Second,
		PushGatewayURL:      envOr("EXPO_PUSH_URL", "https://exp.host/--/api/v2/push/send"),
		PushTimeout:         time.Duration(envInt("PUSH_TIMEOUT_SECONDS", 20)) * time.Second,

		SportsDBKey:  envOr("THESPORTSDB_KEY", "3"),
		SyncCron:     envOr("SYNC_CRON", "0 */6 * * *"),
		SyncDays:     envInt("SYNC_DAYS", 2),
		SyncDisabled: envBool("SYNC_DISABLED", false),
	}, nil
}

// IsProduction returns true if running in production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// --------------------------------------------------------------------------
// Env helpers
// --------------------------------------------------------------------------

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}
