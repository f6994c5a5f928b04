// Package config loads the process-wide Config from environment variables
// (optionally backed by a .env file), following the env-or-default idiom
// used throughout the teacher codebase's configuration helpers.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every environment-tunable value named in spec.md §6.
type Config struct {
	ListenAddr string

	TokenSigningSecret []byte
	TokenTTL           time.Duration

	CatalogPath string

	CacheRoot        string
	CacheCeilingByte int64
	CacheSweepEvery  time.Duration
	ServeStaleOnErr  bool

	FilesRoot   string
	MaxUserFile int64

	UpstreamTimeout time.Duration
	UpstreamRetries int
	UpstreamBaseDelay time.Duration
	ResultMaxBytes    int64

	LLMEndpoint string
	LLMAPIKey   string
	LLMModel    string
	LLMMaxTurns int
	LLMMaxWall  time.Duration
	LLMTimeout  time.Duration

	DatabaseDSN string

	LogLevel  string
	LogFormat string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	MetricsEnabled bool

	CORSAllowedOrigins []string
}

// Load reads Config from the process environment, loading a .env file first
// when one is present (godotenv.Load silently no-ops otherwise).
func Load() (*Config, error) {
	_ = godotenv.Load()

	secretRaw := GetEnv("TOKEN_SIGNING_SECRET", "")
	if len(secretRaw) < 32 {
		return nil, fmt.Errorf("TOKEN_SIGNING_SECRET is required and must be at least 32 bytes")
	}

	cfg := &Config{
		ListenAddr: GetEnv("LISTEN_ADDR", ":8080"),

		TokenSigningSecret: []byte(secretRaw),
		TokenTTL:           GetEnvDuration("TOKEN_TTL", 30*time.Minute),

		CatalogPath: GetEnv("CATALOG_PATH", "configs/catalog.json"),

		CacheRoot:        GetEnv("CACHE_ROOT", "./data/cache"),
		CacheCeilingByte: GetEnvInt64("CACHE_CEILING_BYTES", 1<<30),
		CacheSweepEvery:  GetEnvDuration("CACHE_SWEEP_INTERVAL", time.Minute),
		ServeStaleOnErr:  GetEnvBool("CACHE_SERVE_STALE_ON_ERROR", true),

		FilesRoot:   GetEnv("FILES_ROOT", "./data/files"),
		MaxUserFile: GetEnvInt64("MAX_USER_FILE_BYTES", 10<<20),

		UpstreamTimeout:   GetEnvDuration("UPSTREAM_TIMEOUT", 30*time.Second),
		UpstreamRetries:   GetEnvInt("UPSTREAM_MAX_ATTEMPTS", 3),
		UpstreamBaseDelay: GetEnvDuration("UPSTREAM_RETRY_BASE_DELAY", 200*time.Millisecond),
		ResultMaxBytes:    GetEnvInt64("UPSTREAM_RESULT_MAX_BYTES", 10<<20),

		LLMEndpoint: GetEnv("LLM_ENDPOINT", ""),
		LLMAPIKey:   GetEnv("LLM_API_KEY", ""),
		LLMModel:    GetEnv("LLM_MODEL", "gpt-4o-mini"),
		LLMMaxTurns: GetEnvInt("LLM_MAX_TURNS", 6),
		LLMMaxWall:  GetEnvDuration("LLM_MAX_WALL_TIME", 60*time.Second),
		LLMTimeout:  GetEnvDuration("LLM_REQUEST_TIMEOUT", 20*time.Second),

		DatabaseDSN: GetEnv("DATABASE_DSN", ""),

		LogLevel:  GetEnv("LOG_LEVEL", "info"),
		LogFormat: GetEnv("LOG_FORMAT", "json"),

		RateLimitRequests: GetEnvInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:   GetEnvDuration("RATE_LIMIT_WINDOW", time.Minute),

		MetricsEnabled: GetEnvBool("METRICS_ENABLED", true),

		CORSAllowedOrigins: GetEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
	}

	if cfg.DatabaseDSN == "" {
		return nil, fmt.Errorf("DATABASE_DSN is required")
	}
	return cfg, nil
}

// GetEnv retrieves an environment variable with an optional default.
func GetEnv(key, defaultValue string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return defaultValue
}

// GetEnvBool retrieves a boolean environment variable. Accepts
// "true"/"1"/"yes"/"y" (case-insensitive) as true.
func GetEnvBool(key string, defaultValue bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if v == "" {
		return defaultValue
	}
	return v == "true" || v == "1" || v == "yes" || v == "y"
}

// GetEnvList retrieves a comma-separated list environment variable,
// returning defaultValue when unset.
func GetEnvList(key string, defaultValue []string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultValue
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// GetEnvInt retrieves an integer environment variable, returning
// defaultValue when unset or unparsable.
func GetEnvInt(key string, defaultValue int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// GetEnvInt64 retrieves an int64 environment variable, returning
// defaultValue when unset or unparsable.
func GetEnvInt64(key string, defaultValue int64) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// GetEnvDuration retrieves a duration environment variable, returning
// defaultValue when unset or unparsable.
func GetEnvDuration(key string, defaultValue time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return defaultValue
	}
	return parsed
}
