package config

import (
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"PORT", "ENV", "ALLOWED_ORIGINS", "GAME_DB_URL", "CLICKHOUSE_URL", "REDIS_URL",
		"TELEMETRY_WORKER_COUNT", "TELEMETRY_QUEUE_SIZE", "TELEMETRY_BATCH_SIZE",
		"TELEMETRY_FLUSH_INTERVAL", "JOIN_RATE_LIMIT_PER_WINDOW", "JOIN_RATE_LIMIT_WINDOW",
	}
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoadFailsWithoutGameDBURL(t *testing.T) {
	clearEnv(t)
	if _, err := Load(); err == nil {
		t.Error("Load without GAME_DB_URL = nil error, want error")
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("GAME_DB_URL", "postgres://example/db")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Errorf("Env = %q, want development", cfg.Env)
	}
	if cfg.ClickHouseURL != "" || cfg.RedisURL != "" {
		t.Errorf("optional URLs = (%q, %q), want both empty", cfg.ClickHouseURL, cfg.RedisURL)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "*" {
		t.Errorf("AllowedOrigins = %v, want [*]", cfg.AllowedOrigins)
	}
	if cfg.JoinRateLimitWindow != 10*time.Second {
		t.Errorf("JoinRateLimitWindow = %v, want 10s", cfg.JoinRateLimitWindow)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("GAME_DB_URL", "postgres://example/db")
	t.Setenv("PORT", "9000")
	t.Setenv("ENV", "production")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("JOIN_RATE_LIMIT_PER_WINDOW", "25")
	t.Setenv("JOIN_RATE_LIMIT_WINDOW", "30s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 9000 {
		t.Errorf("Port = %d, want 9000", cfg.Port)
	}
	if cfg.Env != "production" {
		t.Errorf("Env = %q, want production", cfg.Env)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[0] != "https://a.example" || cfg.AllowedOrigins[1] != "https://b.example" {
		t.Errorf("AllowedOrigins = %v, want [https://a.example https://b.example]", cfg.AllowedOrigins)
	}
	if cfg.JoinRateLimitPerWindow != 25 {
		t.Errorf("JoinRateLimitPerWindow = %d, want 25", cfg.JoinRateLimitPerWindow)
	}
	if cfg.JoinRateLimitWindow != 30*time.Second {
		t.Errorf("JoinRateLimitWindow = %v, want 30s", cfg.JoinRateLimitWindow)
	}
}

func TestGetEnvIntIgnoresUnparseableValue(t *testing.T) {
	clearEnv(t)
	t.Setenv("GAME_DB_URL", "postgres://example/db")
	t.Setenv("PORT", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 8080 {
		t.Errorf("Port with garbage PORT = %d, want fallback 8080", cfg.Port)
	}
}
