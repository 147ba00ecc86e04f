package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server (bakeryd)
	Port     int
	LogLevel string

	// External services
	APIBaseURL       string // REST backend, e.g. http://localhost:3000/api
	IdentityBaseURL  string // auth provider (or local emulator)
	FirestoreBaseURL string // document store REST endpoint
	FirestoreProject string

	// HTTP client
	HTTPTimeout time.Duration

	// Session
	SessionLoadingTimeout time.Duration

	// Resilience
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int

	// Cache
	CacheTTL time.Duration

	// Observability
	OTLPEndpoint string

	// JWT / identity emulator
	JWTSecret    string
	JWTAccessTTL time.Duration
	AuthRequired bool // bakeryd: require bearer tokens on product mutations
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:     getEnvInt("PORT", 3000),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		APIBaseURL:       getEnv("API_BASE_URL", "http://localhost:3000/api"),
		IdentityBaseURL:  getEnv("IDENTITY_BASE_URL", "http://localhost:3000/identity"),
		FirestoreBaseURL: getEnv("FIRESTORE_BASE_URL", "https://firestore.googleapis.com"),
		FirestoreProject: getEnv("FIRESTORE_PROJECT", "doce-encanto-dev"),

		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 10*time.Second),

		SessionLoadingTimeout: getEnvDuration("SESSION_LOADING_TIMEOUT", 10*time.Second),

		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		InitialBackoff: getEnvDuration("INITIAL_BACKOFF", 100*time.Millisecond),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 50),

		CacheTTL: getEnvDuration("CACHE_TTL", 5*time.Minute),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),

		JWTSecret:    getEnv("JWT_SECRET", "doce-encanto-dev-secret-change-me"),
		JWTAccessTTL: getEnvDuration("JWT_ACCESS_TTL", time.Hour),
		AuthRequired: getEnv("AUTH_REQUIRED", "false") == "true",
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
