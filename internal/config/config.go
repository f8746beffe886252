package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime settings for the support assistant.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string
	AllowAnyOrigin   bool

	MemoryFile    string
	DatabaseURL   string
	CataloguePath string

	FallbackMode    string
	OpenAIAPIKey    string
	OpenAIModel     string
	FallbackTimeout time.Duration

	HistoryContextTurns int
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:            envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace:    envOrDefault("APP_METRICS_NAMESPACE", "supportline"),
		MemoryFile:          envOrDefault("MEMORY_FILE", "client_memories.json"),
		DatabaseURL:         envTrimmed("DATABASE_URL"),
		CataloguePath:       envTrimmed("CATALOGUE_PATH"),
		FallbackMode:        envOrDefault("FALLBACK_MODE", "auto"),
		OpenAIAPIKey:        envTrimmed("OPENAI_API_KEY"),
		OpenAIModel:         envTrimmed("OPENAI_MODEL"),
		ShutdownTimeout:     15 * time.Second,
		FallbackTimeout:     15 * time.Second,
		HistoryContextTurns: 3,
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.FallbackTimeout, err = durationFromEnv("FALLBACK_TIMEOUT", cfg.FallbackTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.HistoryContextTurns, err = intFromEnv("HISTORY_CONTEXT_TURNS", cfg.HistoryContextTurns)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}

	if strings.TrimSpace(cfg.MemoryFile) == "" {
		return Config{}, fmt.Errorf("MEMORY_FILE must not be empty")
	}
	if cfg.FallbackTimeout < time.Second {
		return Config{}, fmt.Errorf("FALLBACK_TIMEOUT must be at least 1s")
	}
	if cfg.HistoryContextTurns < 0 {
		return Config{}, fmt.Errorf("HISTORY_CONTEXT_TURNS must be >= 0")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func envTrimmed(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := envTrimmed(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := envTrimmed(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(envTrimmed(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
