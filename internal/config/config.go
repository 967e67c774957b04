// Package config provides centralized configuration management for csv2json.
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
	Convert  ConvertConfig
	Server   ServerConfig
	Upload   UploadConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ConvertConfig holds the file conversion settings used by the CLI.
type ConvertConfig struct {
	// InputPath is the CSV file converted when no path is given on the command line
	InputPath string `env:"CSV2JSON_INPUT" envAlt:"CSV_PATH" default:"./src/data/TX_County_Year_CrashSeve.csv"`

	// OutputPath is the JSON file written when no path is given on the command line
	OutputPath string `env:"CSV2JSON_OUTPUT" envAlt:"JSON_PATH" default:"./src/data/crash-data.json"`

	// ExtraFields is the policy for values past the last header column: drop or strict
	ExtraFields string `env:"CONVERT_EXTRA_FIELDS" default:"drop"`
}

// ServerConfig holds HTTP server settings for `csv2json serve`.
type ServerConfig struct {
	// Host is the interface to bind to (default: 127.0.0.1)
	Host string `env:"SERVER_HOST" default:"127.0.0.1"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading the request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing the response (default: 30s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"30s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 10s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"10s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// UploadConfig holds limits for CSV bodies posted to the server.
type UploadConfig struct {
	// MaxFileSize is the maximum accepted body size in bytes (default: 100MB)
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" default:"104857600"`

	// PreviewRows is how many records the HTML preview renders (default: 50)
	PreviewRows int `env:"PREVIEW_ROWS" default:"50"`

	// MaxConcurrent is the maximum number of conversions running at once (default: 5)
	MaxConcurrent int `env:"UPLOAD_MAX_CONCURRENT" default:"5"`

	// MaxWait is how long a request waits for a free slot (default: 30s)
	MaxWait time.Duration `env:"UPLOAD_MAX_WAIT" default:"30s"`
}

// SecurityConfig guards the JSON API.
type SecurityConfig struct {
	// RequireAPIKey rejects /api requests without a valid X-API-Key (default: false)
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
