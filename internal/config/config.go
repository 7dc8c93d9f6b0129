package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Session backends accepted by SESSION_BACKEND.
const (
	SessionBackendPostgres = "postgres"
	SessionBackendRedis    = "redis"
)

// Config captures all runtime configuration derived from environment variables.
type Config struct {
	Port                string
	DBURL               string
	SessionBackend      string
	RedisURL            string
	SessionTTLHours     int
	SessionCookieSecure bool
	ReadTimeoutSecs     int
	WriteTimeoutSecs    int
	IdleTimeoutSecs     int
	DBMaxConns          int
	DBMinConns          int
	DBMaxIdleSecs       int
	DBMaxLifeSecs       int
	DBConnTimeoutSecs   int
	DBStatementCache    int
	RateLimitRPS        float64
	RateLimitBurst      int
	PageSize            int
	MigrateOnStart      bool
}

// Load reads configuration from environment variables, applying defaults and validation.
func Load() (Config, error) {
	cfg := Config{
		Port:                getEnv("PORT", "8080"),
		DBURL:               os.Getenv("DB_URL"),
		SessionBackend:      strings.ToLower(getEnv("SESSION_BACKEND", SessionBackendPostgres)),
		RedisURL:            os.Getenv("REDIS_URL"),
		SessionTTLHours:     getEnvInt("SESSION_TTL_HOURS", 336),
		SessionCookieSecure: getEnvBool("SESSION_COOKIE_SECURE", false),
		ReadTimeoutSecs:     getEnvInt("SERVER_READ_TIMEOUT", 15),
		WriteTimeoutSecs:    getEnvInt("SERVER_WRITE_TIMEOUT", 15),
		IdleTimeoutSecs:     getEnvInt("SERVER_IDLE_TIMEOUT", 60),
		DBMaxConns:          getEnvInt("DB_MAX_CONNS", 20),
		DBMinConns:          getEnvInt("DB_MIN_CONNS", 2),
		DBMaxIdleSecs:       getEnvInt("DB_MAX_CONN_IDLE_SECS", 300),
		DBMaxLifeSecs:       getEnvInt("DB_MAX_CONN_LIFETIME_SECS", 3600),
		DBConnTimeoutSecs:   getEnvInt("DB_CONN_TIMEOUT_SECS", 10),
		DBStatementCache:    getEnvInt("DB_STATEMENT_CACHE_CAPACITY", 256),
		RateLimitRPS:        getEnvFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst:      getEnvInt("RATE_LIMIT_BURST", 10),
		PageSize:            getEnvInt("PAGE_SIZE", 5),
		MigrateOnStart:      getEnvBool("MIGRATE_ON_START", true),
	}

	if cfg.DBURL == "" {
		return Config{}, fmt.Errorf("DB_URL is required")
	}
	switch cfg.SessionBackend {
	case SessionBackendPostgres:
	case SessionBackendRedis:
		if cfg.RedisURL == "" {
			return Config{}, fmt.Errorf("REDIS_URL is required when SESSION_BACKEND=redis")
		}
	default:
		return Config{}, fmt.Errorf("SESSION_BACKEND must be %q or %q, got %q", SessionBackendPostgres, SessionBackendRedis, cfg.SessionBackend)
	}
	if cfg.SessionTTLHours <= 0 {
		return Config{}, fmt.Errorf("SESSION_TTL_HOURS must be positive")
	}
	if cfg.DBMaxConns <= 0 {
		return Config{}, fmt.Errorf("DB_MAX_CONNS must be positive")
	}
	if cfg.DBMinConns < 0 {
		return Config{}, fmt.Errorf("DB_MIN_CONNS must be non-negative")
	}
	if cfg.DBMaxConns > 0 && cfg.DBMinConns > cfg.DBMaxConns {
		return Config{}, fmt.Errorf("DB_MIN_CONNS cannot exceed DB_MAX_CONNS")
	}
	if cfg.DBStatementCache < 0 {
		return Config{}, fmt.Errorf("DB_STATEMENT_CACHE_CAPACITY must be non-negative")
	}
	if cfg.RateLimitRPS <= 0 {
		return Config{}, fmt.Errorf("RATE_LIMIT_RPS must be positive")
	}
	if cfg.RateLimitBurst <= 0 {
		return Config{}, fmt.Errorf("RATE_LIMIT_BURST must be positive")
	}
	if cfg.PageSize <= 0 {
		return Config{}, fmt.Errorf("PAGE_SIZE must be positive")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}
