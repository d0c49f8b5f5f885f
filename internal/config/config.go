// Package config reads runtime settings from the environment, loading a
// .env file first when one exists.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var (
	// ErrMissingToken is returned when serving without a bot token
	ErrMissingToken = errors.New("TELEGRAM_BOT_TOKEN environment variable is not set")
	// ErrInvalidValue wraps every malformed variable
	ErrInvalidValue = errors.New("invalid configuration value")
)

// Config holds every runtime setting
type Config struct {
	TelegramToken string

	DBType      string
	DBPath      string
	DatabaseURL string
	DBTimeout   time.Duration

	SessionStore         string
	RedisAddr            string
	RedisPassword        string
	RedisDB              int
	SessionTTL           time.Duration
	SessionSweepInterval time.Duration

	LogLevel  string
	LogFormat string
}

// Default returns the settings used when nothing is configured
func Default() Config {
	return Config{
		DBType:               "sqlite",
		DBPath:               "data/wordcards.db",
		DBTimeout:            5 * time.Second,
		SessionStore:         "memory",
		RedisAddr:            "localhost:6379",
		SessionTTL:           24 * time.Hour,
		SessionSweepInterval: 10 * time.Minute,
		LogLevel:             "info",
		LogFormat:            "console",
	}
}

// Load reads the environment. Files are loaded in order; a missing file is
// skipped and variables already set in the environment win.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", file, err)
		}
	}

	cfg := Default()
	cfg.TelegramToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	cfg.DBType = strings.ToLower(getString("DB_TYPE", cfg.DBType))
	cfg.DBPath = getString("DB_PATH", cfg.DBPath)
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.SessionStore = strings.ToLower(getString("SESSION_STORE", cfg.SessionStore))
	cfg.RedisAddr = getString("REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	cfg.LogLevel = strings.ToLower(getString("LOG_LEVEL", cfg.LogLevel))
	cfg.LogFormat = strings.ToLower(getString("LOG_FORMAT", cfg.LogFormat))

	var err error
	if cfg.DBTimeout, err = getDuration("DB_TIMEOUT", cfg.DBTimeout); err != nil {
		return Config{}, err
	}
	if cfg.SessionTTL, err = getDuration("SESSION_TTL", cfg.SessionTTL); err != nil {
		return Config{}, err
	}
	if cfg.SessionSweepInterval, err = getDuration("SESSION_SWEEP_INTERVAL", cfg.SessionSweepInterval); err != nil {
		return Config{}, err
	}
	if cfg.RedisDB, err = getInt("REDIS_DB", cfg.RedisDB); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the settings that every command depends on
func (c Config) Validate() error {
	switch c.DBType {
	case "sqlite":
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("%w: DATABASE_URL is required when DB_TYPE=postgres", ErrInvalidValue)
		}
	default:
		return fmt.Errorf("%w: DB_TYPE=%q", ErrInvalidValue, c.DBType)
	}

	switch c.SessionStore {
	case "memory", "redis":
	default:
		return fmt.Errorf("%w: SESSION_STORE=%q", ErrInvalidValue, c.SessionStore)
	}

	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("%w: LOG_FORMAT=%q", ErrInvalidValue, c.LogFormat)
	}

	return nil
}

// RequireToken fails when the bot token is missing
func (c Config) RequireToken() error {
	if c.TelegramToken == "" {
		return ErrMissingToken
	}
	return nil
}

func getString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%w: %s=%q", ErrInvalidValue, key, v)
	}
	return d, nil
}

func getInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s=%q", ErrInvalidValue, key, v)
	}
	return n, nil
}
