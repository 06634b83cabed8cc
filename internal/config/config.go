package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Env         string
	HTTPPort    string
	RedisAddr   string
	JWTSecret   string
	SessionTTL  time.Duration
	SubmitDelay time.Duration
	RateLimit   int
	RateWindow  time.Duration
	LogLevel    slog.Level
}

func NewConfig() (*Config, error) {
	cfg := &Config{
		Env:        getEnv("ENV", "development"),
		HTTPPort:   getEnv("HTTP_PORT", "8080"),
		RedisAddr:  getEnv("REDIS_ADDR", ""),
		JWTSecret:  getEnv("JWT_SECRET", "jarvis-dev-secret"),
		RateWindow: time.Minute,
	}

	var err error
	if cfg.SessionTTL, err = getDuration("SESSION_TTL", 30*time.Minute); err != nil {
		return nil, err
	}
	if cfg.SubmitDelay, err = getDuration("SUBMIT_DELAY", 3*time.Second); err != nil {
		return nil, err
	}
	if cfg.RateLimit, err = getInt("RATE_LIMIT", 60); err != nil {
		return nil, err
	}
	if cfg.LogLevel, err = getLevel("LOG_LEVEL", slog.LevelInfo); err != nil {
		return nil, err
	}
	if cfg.IsProduction() && cfg.JWTSecret == "jarvis-dev-secret" {
		return nil, fmt.Errorf("JWT_SECRET must be set in production")
	}
	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := getEnv(key, "")
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid %s %q: expected a non-negative duration", key, v)
	}
	return d, nil
}

func getInt(key string, fallback int) (int, error) {
	v := getEnv(key, "")
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s %q: expected a positive integer", key, v)
	}
	return n, nil
}

func getLevel(key string, fallback slog.Level) (slog.Level, error) {
	v := getEnv(key, "")
	if v == "" {
		return fallback, nil
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(v)); err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return lvl, nil
}
