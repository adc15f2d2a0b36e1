// Package config provides centralized configuration management for the server.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Data     DataConfig
	Load     LoadConfig
	Database DatabaseConfig
	Census   CensusConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 3434)
	Port int `env:"SERVER_PORT" envAlt:"PORT" default:"3434"`

	// ReadTimeout is the maximum duration for reading a request (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing a response (default: 2m)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"2m"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`

	// CORSOrigins are the allowed origins; "*" allows any (default: *)
	CORSOrigins []string `env:"CORS_ALLOWED_ORIGINS" default:"*"`
}

// DataConfig controls where and how CSV files are read.
type DataConfig struct {
	// Root is the directory load paths are resolved against (default: data)
	Root string `env:"DATA_ROOT" default:"data"`

	// Encoding is the default source charset; empty means UTF-8
	Encoding string `env:"DATA_ENCODING"`

	// Sanitize replaces invalid UTF-8 bytes with '?' (default: false)
	Sanitize bool `env:"DATA_SANITIZE" default:"false"`

	// MaxFileSize is the largest file accepted in bytes (default: 100MB)
	MaxFileSize int64 `env:"DATA_MAX_FILE_SIZE" default:"104857600"`

	// MaxDatasets is how many datasets stay loaded at once (default: 16)
	MaxDatasets int `env:"DATA_MAX_DATASETS" default:"16"`
}

// LoadConfig bounds concurrent loading.
type LoadConfig struct {
	// MaxConcurrent is the maximum number of parallel loads (default: 4)
	MaxConcurrent int `env:"LOAD_MAX_CONCURRENT" default:"4"`

	// MaxWaitTime is how long to wait for a load slot (default: 30s)
	MaxWaitTime time.Duration `env:"LOAD_MAX_WAIT_TIME" default:"30s"`

	// Timeout is the maximum duration of a single load (default: 2m)
	Timeout time.Duration `env:"LOAD_TIMEOUT" default:"2m"`

	// HistorySize is how many load records the in-memory store keeps (default: 200)
	HistorySize int `env:"LOAD_HISTORY_SIZE" default:"200"`

	// HistoryRetention is how long load records are kept; 0 keeps them forever (default: 720h)
	HistoryRetention time.Duration `env:"LOAD_HISTORY_RETENTION" default:"720h"`

	// PruneInterval is how often old load records are deleted (default: 1h)
	PruneInterval time.Duration `env:"LOAD_PRUNE_INTERVAL" default:"1h"`
}

// DatabaseConfig holds database connection settings. The database only
// stores load history and is optional.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string; empty keeps history in memory
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 1)
	MinConns int `env:"DB_MIN_CONNS" default:"1"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// Enabled reports whether a database is configured.
func (c *DatabaseConfig) Enabled() bool { return c.URL != "" }

// CensusConfig holds settings for the broadband datasource.
type CensusConfig struct {
	// BaseURL is the Census Data API root (default: https://api.census.gov)
	BaseURL string `env:"CENSUS_BASE_URL" default:"https://api.census.gov"`

	// Timeout bounds each API request (default: 10s)
	Timeout time.Duration `env:"CENSUS_TIMEOUT" default:"10s"`

	// CacheTTL is how long state and county code tables are cached (default: 24h)
	CacheTTL time.Duration `env:"CENSUS_CACHE_TTL" default:"24h"`

	// Mock serves fixed Orange County data instead of calling the API (default: false)
	Mock bool `env:"CENSUS_MOCK" default:"false"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 120)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"120"`

	// LoadLimit is requests per minute for /loadcsv (default: 20)
	LoadLimit int `env:"RATE_LIMIT_LOAD" default:"20"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// RequireAPIKey guards the /api routes with an X-API-Key header (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted keys
	APIKeys []string `env:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
