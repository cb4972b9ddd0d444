package config

import (
	"os"
	"strconv"
	"time"
)

// ServerConfig holds configuration for the reel server.
type ServerConfig struct {
	Addr      string // Listen address (default ":8080")
	LogLevel  string // Log level: debug, info, warn, error
	LogFormat string // Log format: text, json
	DBPath    string // SQLite database path (default ~/.reel/reel.db, ":memory:" for testing)
	FrameRate int    // Session tick rate in frames per second (default 60)
}

// DefaultServerConfig returns sensible defaults.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:      ":8080",
		LogLevel:  "info",
		LogFormat: "text",
		FrameRate: 60,
	}
}

// FromEnv returns the default config with any REEL_* environment
// overrides applied. Flag values take precedence over both.
func FromEnv() ServerConfig {
	cfg := DefaultServerConfig()
	if v := os.Getenv("REEL_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("REEL_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("REEL_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := os.Getenv("REEL_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("REEL_FPS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.FrameRate = n
		}
	}
	return cfg
}

// FrameInterval converts the configured frame rate into a tick spacing.
// Non-positive rates fall back to 60fps.
func (c ServerConfig) FrameInterval() time.Duration {
	rate := c.FrameRate
	if rate <= 0 {
		rate = 60
	}
	return time.Second / time.Duration(rate)
}
