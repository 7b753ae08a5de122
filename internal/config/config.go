// Package config loads ttparse settings from environment variables.
// Every field has a default except where noted, and Load validates the whole
// set at once so a bad deployment fails on startup with every problem listed.
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
	Upload   UploadConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Parser   ParserConfig
	Lookups  LookupConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	ReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"2m"`
	IdleTimeout  time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout also bounds the wait for in-flight parses (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 90s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"90s"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string. When empty, runs and lookup
	// snapshots are kept in memory and lost on restart.
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	MaxConns        int           `env:"DB_MAX_CONNS" default:"10"`
	MinConns        int           `env:"DB_MIN_CONNS" default:"1"`
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`

	// MemoryRuns caps the runs kept by the in-memory store (default: 100)
	MemoryRuns int `env:"STORE_MEMORY_RUNS" default:"100"`
}

// Enabled reports whether a database is configured.
func (c DatabaseConfig) Enabled() bool {
	return c.URL != ""
}

// UploadConfig holds workbook upload and parse settings.
type UploadConfig struct {
	// MaxFileSize is the maximum workbook size in bytes (default: 20MB)
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" default:"20971520"`

	// MaxConcurrent is the number of workbooks parsed at once (default: 4)
	MaxConcurrent int `env:"UPLOAD_MAX_CONCURRENT" default:"4"`

	// MaxWaitTime is how long a request waits for a parse slot (default: 10s)
	MaxWaitTime time.Duration `env:"UPLOAD_MAX_WAIT_TIME" default:"10s"`

	// Timeout bounds a single workbook parse (default: 2m)
	Timeout time.Duration `env:"UPLOAD_TIMEOUT" default:"2m"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// UploadLimit is requests per minute for workbook endpoints (default: 10)
	UploadLimit int `env:"RATE_LIMIT_UPLOAD" default:"10"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of proxy CIDRs whose
	// X-Real-IP and X-Forwarded-For headers are believed.
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// RequireAPIKey guards the lookup-table write endpoints (default: false)
	RequireAPIKey bool     `env:"REQUIRE_API_KEY" default:"false"`
	APIKeys       []string `env:"API_KEYS"`

	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`
}

// ParserConfig holds timetable parsing settings.
type ParserConfig struct {
	// Profile is the document profile used when a request names none.
	Profile string `env:"PARSER_PROFILE" default:"jiit"`

	// StartPMHour and EndPMHour override the profile's PM thresholds when
	// both are set. A start hour below StartPMHour is read as PM.
	StartPMHour int `env:"PARSER_START_PM_HOUR" default:"0"`
	EndPMHour   int `env:"PARSER_END_PM_HOUR" default:"0"`

	// Workers is the number of day bands parsed at once (default: 1)
	Workers int `env:"PARSER_WORKERS" default:"1"`

	// CorrectionsFile is a YAML correction table merged into every profile.
	CorrectionsFile string `env:"PARSER_CORRECTIONS_FILE"`

	// SentinelFills are hex fill colors that close an irregular day band.
	SentinelFills []string `env:"PARSER_SENTINEL_FILLS" default:"000000"`
}

// HasThresholds reports whether both PM thresholds were configured.
func (c ParserConfig) HasThresholds() bool {
	return c.StartPMHour > 0 && c.EndPMHour > 0
}

// LookupConfig names the JSON snapshot files loaded at startup.
type LookupConfig struct {
	CoursesPath   string `env:"LOOKUP_COURSES_PATH"`
	FacultyPath   string `env:"LOOKUP_FACULTY_PATH"`
	ElectivesPath string `env:"LOOKUP_ELECTIVES_PATH"`
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
