// Package config provides centralized configuration management for rowrelay.
// It loads configuration from environment variables with defaults and
// validates every setting on startup to fail fast on misconfiguration.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Batch    BatchConfig
	Sender   SenderConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	CORS     CORSConfig
	Logging  LoggingConfig
	History  HistoryConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`
	Port int    `env:"SERVER_PORT" default:"8080"`

	ReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" default:"30s"`
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"0s"`
	IdleTimeout  time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout bounds graceful shutdown, including waiting for
	// running batches.
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"60s"`

	// RequestTimeout is applied to read-only routes. Registration requests
	// are not cut short since a batch always runs to completion.
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"30s"`
}

// DatabaseConfig holds the batch history database settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string. When empty, batch history is
	// kept in memory.
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	MaxConns        int           `env:"DB_MAX_CONNS" default:"10"`
	MinConns        int           `env:"DB_MIN_CONNS" default:"1"`
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// BatchConfig holds registration batch limits.
type BatchConfig struct {
	// MaxBodySize caps the JSON request body, base64 spreadsheet included (default: 32MB)
	MaxBodySize int64 `env:"BATCH_MAX_BODY_SIZE" default:"33554432"`

	// MaxConcurrent is the number of batches allowed to run at once (default: 4)
	MaxConcurrent int `env:"BATCH_MAX_CONCURRENT" default:"4"`

	// MaxWaitTime is how long a request waits for a batch slot (default: 30s)
	MaxWaitTime time.Duration `env:"BATCH_MAX_WAIT_TIME" default:"30s"`

	// MaxRows rejects spreadsheets with more data rows (default: 100000)
	MaxRows int `env:"BATCH_MAX_ROWS" default:"100000"`
}

// SenderConfig holds settings for the outbound per-row POST.
type SenderConfig struct {
	Timeout   time.Duration `env:"SENDER_TIMEOUT" default:"30s"`
	UserAgent string        `env:"SENDER_USER_AGENT" default:"rowrelay/1.0"`
}

// RateLimitConfig holds per-IP rate limiting settings.
type RateLimitConfig struct {
	Enabled           bool `env:"RATE_LIMIT_ENABLED" default:"true"`
	RequestsPerMinute int  `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"60"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of proxy CIDRs whose
	// X-Real-IP / X-Forwarded-For headers are honoured.
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	RequireAPIKey bool     `env:"REQUIRE_API_KEY" default:"false"`
	APIKeys       []string `env:"API_KEYS"`
}

// CORSConfig mirrors the headers the service sends to a local frontend.
type CORSConfig struct {
	// Local enables CORS headers (IS_LOCAL in the deployment environment).
	Local         bool   `env:"IS_LOCAL" default:"false"`
	AllowedOrigin string `env:"CORS_ALLOWED_ORIGIN" default:"http://localhost:4200"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL" default:"info"`
	Format string `env:"LOG_FORMAT" default:"text"`

	// File enables a rotating log file next to stdout.
	File       string `env:"LOG_FILE"`
	MaxSizeMB  int    `env:"LOG_MAX_SIZE_MB" default:"100"`
	MaxBackups int    `env:"LOG_MAX_BACKUPS" default:"5"`
	MaxAgeDays int    `env:"LOG_MAX_AGE_DAYS" default:"30"`
}

// HistoryConfig holds batch history settings.
type HistoryConfig struct {
	// RecentLimit is how many reports the listing endpoint returns and how
	// many the in-memory store keeps (default: 20)
	RecentLimit int `env:"HISTORY_RECENT_LIMIT" default:"20"`

	// Retention deletes reports older than this; 0 keeps them forever (default: 30 days)
	Retention     time.Duration `env:"HISTORY_RETENTION" default:"720h"`
	PruneInterval time.Duration `env:"HISTORY_PRUNE_INTERVAL" default:"1h"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
