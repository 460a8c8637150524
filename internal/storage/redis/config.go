package redis

import (
	"time"

	"github.com/mcoot/guestdesk/internal/storage"
)

// Config holds Redis connection and behavior settings
type Config struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379)
	URL string `yaml:"url"`

	// Pool settings
	PoolSize     int `yaml:"pool_size"`
	MinIdleConns int `yaml:"min_idle_conns"`

	// DraftTTL bounds how long an abandoned confirmation draft survives (one browser session)
	DraftTTL time.Duration `yaml:"draft_ttl"`

	// MaxTxRetries is how many times an optimistic attendance transaction is retried
	// after a concurrent write to the same event before giving up
	MaxTxRetries int `yaml:"max_tx_retries"`
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		URL:          "redis://localhost:6379",
		PoolSize:     10,
		MinIdleConns: 2,
		DraftTTL:     storage.DefaultDraftTTL,
		MaxTxRetries: 10,
	}
}
