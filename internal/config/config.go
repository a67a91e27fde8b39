// Package config loads environment-derived settings (A1). CLI flags
// (config file path, static root, tick period) are parsed separately in
// cmd/dogwalkserver, since they are not environment concerns.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server
	Port int
	Env  string

	// CORS
	AllowedOrigins []string

	// Database URLs
	GameDBURL     string // GAME_DB_URL, required (§6.4)
	ClickHouseURL string // optional: telemetry is disabled without it
	RedisURL      string // optional: join rate limiting is disabled without it

	// Telemetry worker pool
	TelemetryWorkerCount   int
	TelemetryQueueSize     int
	TelemetryBatchSize     int
	TelemetryFlushInterval time.Duration

	// Join rate limiting
	JoinRateLimitPerWindow int
	JoinRateLimitWindow    time.Duration
}

// Load loads configuration from environment variables. GAME_DB_URL is the
// only variable whose absence is fatal (§6.4); everything else about
// ClickHouse/Redis is optional, degrading the relevant subsystem to a
// no-op rather than failing startup.
func Load() (*Config, error) {
	cfg := &Config{
		Port: getEnvInt("PORT", 8080),
		Env:  getEnv("ENV", "development"),

		ClickHouseURL: getEnv("CLICKHOUSE_URL", ""),
		RedisURL:      getEnv("REDIS_URL", ""),

		TelemetryWorkerCount:   getEnvInt("TELEMETRY_WORKER_COUNT", 2),
		TelemetryQueueSize:     getEnvInt("TELEMETRY_QUEUE_SIZE", 5000),
		TelemetryBatchSize:     getEnvInt("TELEMETRY_BATCH_SIZE", 200),
		TelemetryFlushInterval: getEnvDuration("TELEMETRY_FLUSH_INTERVAL", 1*time.Second),

		JoinRateLimitPerWindow: getEnvInt("JOIN_RATE_LIMIT_PER_WINDOW", 10),
		JoinRateLimitWindow:    getEnvDuration("JOIN_RATE_LIMIT_WINDOW", 10*time.Second),
	}

	origins := getEnv("ALLOWED_ORIGINS", "*")
	for _, o := range strings.Split(origins, ",") {
		if trimmed := strings.TrimSpace(o); trimmed != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
		}
	}

	var err error
	if cfg.GameDBURL, err = getEnvRequired("GAME_DB_URL"); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvRequired(key string) (string, error) {
	if value := os.Getenv(key); value != "" {
		return value, nil
	}
	return "", fmt.Errorf("missing required environment variable: %s", key)
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
