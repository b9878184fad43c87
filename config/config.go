package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Listeners
	HTTPAddr    string
	MetricsAddr string

	// Storage
	SQLitePath  string
	PostgresURL string // empty disables the Postgres source

	// Response cache (empty RedisAddr disables it)
	RedisAddr     string
	RedisPassword string
	CacheTTL      time.Duration

	// Run notices (all empty disables them)
	NotifyWebhookURL string
	TelegramToken    string
	TelegramChatID   string

	LogLevel     string
	SweepWorkers int
}

// Load reads configuration from environment variables with sensible
// defaults. A .env file in the working directory is applied first; values
// already present in the environment win over it.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("[config] ignoring unreadable .env", slog.Any("err", err))
	}

	return &Config{
		HTTPAddr:    getEnv("ANALYTICS_HTTP_ADDR", ":8080"),
		MetricsAddr: getEnv("ANALYTICS_METRICS_ADDR", ":9090"),

		SQLitePath:  getEnv("ANALYTICS_SQLITE_PATH", "data/analytics.db"),
		PostgresURL: getEnv("ANALYTICS_POSTGRES_URL", ""),

		RedisAddr:     getEnv("ANALYTICS_REDIS_ADDR", ""),
		RedisPassword: getEnv("ANALYTICS_REDIS_PASSWORD", ""),
		CacheTTL:      getDuration("ANALYTICS_CACHE_TTL", 10*time.Minute),

		NotifyWebhookURL: getEnv("ANALYTICS_NOTIFY_WEBHOOK", ""),
		TelegramToken:    getEnv("ANALYTICS_TELEGRAM_TOKEN", ""),
		TelegramChatID:   getEnv("ANALYTICS_TELEGRAM_CHAT_ID", ""),

		LogLevel:     getEnv("ANALYTICS_LOG_LEVEL", "info"),
		SweepWorkers: getInt("ANALYTICS_SWEEP_WORKERS", 4),
	}
}

// CacheEnabled reports whether a Redis address is configured.
func (c *Config) CacheEnabled() bool { return c.RedisAddr != "" }

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		slog.Warn("[config] invalid integer, using default", slog.String("key", key), slog.String("value", v))
		return fallback
	}
	return n
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		slog.Warn("[config] invalid duration, using default", slog.String("key", key), slog.String("value", v))
		return fallback
	}
	return d
}
