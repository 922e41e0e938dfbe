// Package config loads the server settings from the environment.
// A .env file, when present, is read first so local development does not
// need exported variables.
package config

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultHTTPAddr        = ":5000"
	defaultRedisAddr       = "localhost:6379"
	defaultJWTSecret       = "dev-secret-key"
	defaultTokenTTL        = 7 * 24 * time.Hour
	defaultFrontendURL     = "http://localhost:3000"
	defaultPresenceBackend = PresenceBackendMemory
)

// Presence backends.
const (
	PresenceBackendMemory = "memory"
	PresenceBackendRedis  = "redis"
)

// Config holds the process settings.
type Config struct {
	HTTPAddr        string
	DatabaseDSN     string // empty selects the in-memory store
	RedisAddr       string
	RedisPassword   string
	PresenceBackend string
	JWTSecret       string
	TokenTTL        time.Duration
	FrontendURL     string
	AllowedOrigins  []string
}

// Load reads .env (if any) and then the environment, falling back to the
// defaults above.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("WARN: no .env file loaded, using process environment")
	}

	frontend := envOr("FRONTEND_URL", defaultFrontendURL)
	return Config{
		HTTPAddr:        envOr("HTTP_ADDR", defaultHTTPAddr),
		DatabaseDSN:     os.Getenv("DATABASE_DSN"),
		RedisAddr:       envOr("REDIS_ADDR", defaultRedisAddr),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		PresenceBackend: envOr("PRESENCE_BACKEND", defaultPresenceBackend),
		JWTSecret:       envOr("JWT_SECRET", defaultJWTSecret),
		TokenTTL:        envDuration("TOKEN_TTL", defaultTokenTTL),
		FrontendURL:     frontend,
		AllowedOrigins:  envCSV("CORS_ALLOWED_ORIGINS", []string{frontend}),
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			log.Printf("WARN: invalid %s=%s, fallback to default (%s)", key, v, def)
			return def
		}
		return d
	}
	return def
}

// envCSV splits a comma-separated variable, dropping empty items.
func envCSV(key string, def []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return def
}
