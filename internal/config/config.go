// Package config loads service settings from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level

	JWT JWTConfig

	// Persistence
	StoreBackend string
	DatabaseURL  string
	Mongo        MongoConfig

	RedisURL     string
	KafkaBrokers []string

	RateLimit RateLimitConfig

	CORSAllowedOrigins []string
	CookieSecure       bool
	// Proxies whose X-Forwarded-For is believed. Empty means the peer
	// address is the client IP.
	TrustedProxies []string
}

type JWTConfig struct {
	Secret string
	Expiry time.Duration
	Issuer string
}

type MongoConfig struct {
	URI      string
	Database string
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	MaxKeys  int
}

var (
	ErrMissingJWTSecret   = errors.New("JWT_SECRET is required")
	ErrUnknownBackend     = errors.New("STORE_BACKEND must be postgres or mongo")
	ErrMissingDatabaseURL = errors.New("DATABASE_URL is required for the postgres backend")
	ErrMissingMongoURI    = errors.New("MONGO_URI is required for the mongo backend")
)

// LoadConfig reads .env (when present) and the process environment.
func LoadConfig() (*Config, error) {
	// A missing .env is normal outside local development
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    parseLogLevel(getEnv("LOG_LEVEL", "info")),
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", ""),
			Expiry: getEnvDuration("JWT_EXPIRY", 7*24*time.Hour),
			Issuer: getEnv("JWT_ISSUER", "lms-service"),
		},
		StoreBackend: strings.ToLower(getEnv("STORE_BACKEND", BackendPostgres)),
		DatabaseURL:  getEnv("DATABASE_URL", ""),
		Mongo: MongoConfig{
			URI:      getEnv("MONGO_URI", ""),
			Database: getEnv("MONGO_DATABASE", "lms"),
		},
		RedisURL:     getEnv("REDIS_URL", ""),
		KafkaBrokers: splitList(getEnv("KAFKA_BROKERS", "")),
		RateLimit: RateLimitConfig{
			Requests: getEnvInt("RATE_LIMIT_REQUESTS", 10),
			Window:   getEnvDuration("RATE_LIMIT_WINDOW", 5*time.Minute),
			MaxKeys:  getEnvInt("RATE_LIMIT_MAX_KEYS", 500),
		},
		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		CookieSecure:       getEnvBool("COOKIE_SECURE", false),
		TrustedProxies:     splitList(getEnv("TRUSTED_PROXIES", "")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required settings for the selected backend
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return ErrMissingJWTSecret
	}
	switch c.StoreBackend {
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return ErrMissingDatabaseURL
		}
	case BackendMongo:
		if c.Mongo.URI == "" {
			return ErrMissingMongoURI
		}
	default:
		return fmt.Errorf("%w: got %q", ErrUnknownBackend, c.StoreBackend)
	}
	if c.RateLimit.Requests <= 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be positive, got %d", c.RateLimit.Requests)
	}
	if c.RateLimit.MaxKeys <= 0 {
		return fmt.Errorf("RATE_LIMIT_MAX_KEYS must be positive, got %d", c.RateLimit.MaxKeys)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseLogLevel(v string) slog.Level {
	switch strings.ToLower(v) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
