package bot

import (
	"time"
)

// Config represents the configuration for the Telegram adapter
type Config struct {
	// Long polling timeout in seconds
	UpdateTimeout int
	// How long Stop waits for in-flight updates
	ShutdownTimeout time.Duration
	// Log raw Telegram API traffic
	Debug bool
}

// DefaultConfig returns the default adapter configuration
func DefaultConfig() Config {
	return Config{
		UpdateTimeout:   60,
		ShutdownTimeout: 5 * time.Second,
	}
}
