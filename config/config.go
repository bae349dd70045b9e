package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// HTTP
	ListenAddr  string
	MetricsAddr string

	// Infrastructure
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	SQLitePath    string

	// Redis Pub/Sub channels
	FeedChannel     string // live indicator feed, e.g. "live-data-all"
	EmissionChannel string // emission settings published for the upstream feed

	// Dashboard
	CatalogPath    string        // optional YAML override of the indicator catalog
	RenderInterval time.Duration // how often dirty sessions are re-rendered

	// Level-crossing alerts; both sinks are optional, alerts are always logged.
	AlertWebhookURL  string
	TelegramBotToken string
	TelegramChatID   string

	// Auth
	EnforceAccess bool
	SessionTTL    time.Duration

	LogLevel string
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory (or ENV_FILE) is loaded first if present;
// variables already set in the process environment win.
func Load() (*Config, error) {
	envFile := getEnv("ENV_FILE", ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	cfg := &Config{
		ListenAddr:  getEnv("LISTEN_ADDR", ":8080"),
		MetricsAddr: getEnv("METRICS_ADDR", ":9091"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getInt("REDIS_DB", 0),
		SQLitePath:    getEnv("SQLITE_PATH", "data/dashboard.db"),

		FeedChannel:     getEnv("FEED_CHANNEL", "live-data-all"),
		EmissionChannel: getEnv("EMISSION_CHANNEL", "config:emission"),

		CatalogPath:    getEnv("CATALOG_PATH", ""),
		RenderInterval: getDuration("RENDER_INTERVAL", 500*time.Millisecond),

		AlertWebhookURL:  getEnv("ALERT_WEBHOOK_URL", ""),
		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:   getEnv("TELEGRAM_CHAT_ID", ""),

		EnforceAccess: getBool("ENFORCE_ACCESS", false),
		SessionTTL:    getDuration("SESSION_TTL", 12*time.Hour),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate performs basic configuration validation.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return errors.New("listen address cannot be empty")
	}
	if c.FeedChannel == "" {
		return errors.New("feed channel cannot be empty")
	}
	if c.SQLitePath == "" {
		return errors.New("sqlite path cannot be empty")
	}
	if c.RenderInterval < 50*time.Millisecond {
		return fmt.Errorf("render interval %s is too small (min 50ms)", c.RenderInterval)
	}
	if c.SessionTTL <= 0 {
		return errors.New("session ttl must be positive")
	}
	if (c.TelegramBotToken == "") != (c.TelegramChatID == "") {
		return errors.New("telegram alerts need both TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID")
	}
	return nil
}

// SlogLevel maps LogLevel onto a slog.Level. Unknown values fall back to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
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
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		log.Printf("[config] invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		log.Printf("[config] invalid %s=%q, using %v", key, v, fallback)
		return fallback
	}
	return b
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		log.Printf("[config] invalid %s=%q, using %s", key, v, fallback)
		return fallback
	}
	return d
}
