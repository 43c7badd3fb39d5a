// Package config provides configuration loading and management using koanf.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Default configuration values.
const (
	// DefaultServerPort is the default HTTP server port.
	DefaultServerPort = 8080

	// DefaultMaxRequestSize is the default maximum request body size (1MB).
	DefaultMaxRequestSize = 1 << 20

	// DefaultClientRetryMaxAttempts is the default number of retry attempts.
	DefaultClientRetryMaxAttempts = 3

	// DefaultClientRetryMultiplier is the default exponential backoff multiplier.
	DefaultClientRetryMultiplier = 2.0

	// DefaultClientCircuitMaxFailures is the default failures before circuit opens.
	DefaultClientCircuitMaxFailures = 5

	// DefaultClientCircuitHalfOpenLimit is the default probes allowed while half-open.
	DefaultClientCircuitHalfOpenLimit = 1

	// DefaultQuoteRateLimit is the default request budget per second to the quote API.
	DefaultQuoteRateLimit = 2.0

	// DefaultLogFileMaxSizeMB is the default max log file size in megabytes.
	DefaultLogFileMaxSizeMB = 100

	// DefaultLogFileMaxBackups is the default number of old log files to retain.
	DefaultLogFileMaxBackups = 3

	// DefaultLogFileMaxAgeDays is the default max days to retain old log files.
	DefaultLogFileMaxAgeDays = 28

	// DefaultRemoteLimit is how many quotes the remote source asks for.
	DefaultRemoteLimit = 50

	// DefaultPageSize is the default page size of the quote listing.
	DefaultPageSize = 20
)

// Quote source names accepted in session.sources.
const (
	SourceCache    = "cache"
	SourceRemote   = "remote"
	SourceBundled  = "bundled"
	SourceAuthored = "authored"
)

// Config is the root configuration structure.
type Config struct {
	App       AppConfig       `koanf:"app"       validate:"required"`
	Server    ServerConfig    `koanf:"server"    validate:"required"`
	Log       LogConfig       `koanf:"log"       validate:"required"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	Services  ServicesConfig  `koanf:"services"  validate:"required"`
	Store     StoreConfig     `koanf:"store"     validate:"required"`
	Session   SessionConfig   `koanf:"session"   validate:"required"`
	Identity  IdentityConfig  `koanf:"identity"`
	Features  map[string]any  `koanf:"features"`

	// Files lists the YAML files that were applied, in order.
	Files []string `koanf:"-"`
}

// AppConfig contains application-level settings.
type AppConfig struct {
	Name        string `koanf:"name"        validate:"required"`
	Version     string `koanf:"version"     validate:"required"`
	Environment string `koanf:"environment" validate:"required,oneof=local dev qa prod test"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port            int           `koanf:"port"             validate:"required,min=1,max=65535"`
	Host            string        `koanf:"host"             validate:"required"`
	ReadTimeout     time.Duration `koanf:"read_timeout"     validate:"required,min=1s"`
	WriteTimeout    time.Duration `koanf:"write_timeout"    validate:"required,min=1s"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"     validate:"required,min=1s"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"required,min=1s"`
	MaxRequestSize  int64         `koanf:"max_request_size" validate:"required,min=1"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string        `koanf:"level"  validate:"required,oneof=trace debug info warn error"`
	Format string        `koanf:"format" validate:"required,oneof=json text pretty"`
	File   LogFileConfig `koanf:"file"`
}

// LogFileConfig contains rolling log file settings.
type LogFileConfig struct {
	Enabled    bool   `koanf:"enabled"`
	Path       string `koanf:"path"        validate:"required_if=Enabled true"`
	MaxSizeMB  int    `koanf:"max_size"    validate:"omitempty,min=1,max=1024"`
	MaxBackups int    `koanf:"max_backups" validate:"omitempty,min=0,max=100"`
	MaxAgeDays int    `koanf:"max_age"     validate:"omitempty,min=0,max=365"`
	Compress   bool   `koanf:"compress"`
}

// TelemetryConfig contains OpenTelemetry settings.
type TelemetryConfig struct {
	Enabled      bool    `koanf:"enabled"`
	Endpoint     string  `koanf:"endpoint"      validate:"required_if=Enabled true"`
	ServiceName  string  `koanf:"service_name"  validate:"required_if=Enabled true"`
	SamplingRate float64 `koanf:"sampling_rate" validate:"min=0,max=1"`
	Insecure     bool    `koanf:"insecure"`
}

// ServicesConfig contains configuration for downstream services.
type ServicesConfig struct {
	Quote QuoteAPIConfig `koanf:"quote" validate:"required"`
}

// QuoteAPIConfig configures the upstream quote API client.
type QuoteAPIConfig struct {
	Enabled        bool                 `koanf:"enabled"`
	BaseURL        string               `koanf:"base_url"        validate:"required_if=Enabled true,omitempty,url"`
	Name           string               `koanf:"name"            validate:"required"`
	ListPath       string               `koanf:"list_path"`
	UserAgent      string               `koanf:"user_agent"`
	Timeout        time.Duration        `koanf:"timeout"         validate:"required,min=100ms"`
	RateLimit      float64              `koanf:"rate_limit"      validate:"min=0"`
	RateBurst      int                  `koanf:"rate_burst"      validate:"min=0"`
	Retry          RetryConfig          `koanf:"retry"           validate:"required"`
	CircuitBreaker CircuitBreakerConfig `koanf:"circuit_breaker" validate:"required"`
}

// RetryConfig contains retry settings for HTTP clients.
type RetryConfig struct {
	MaxAttempts     int           `koanf:"max_attempts"     validate:"required,min=1,max=10"`
	InitialInterval time.Duration `koanf:"initial_interval" validate:"required,min=1ms"`
	MaxInterval     time.Duration `koanf:"max_interval"     validate:"required,min=1ms"`
	Multiplier      float64       `koanf:"multiplier"       validate:"required,min=1.1,max=10"`
}

// CircuitBreakerConfig contains circuit breaker settings for HTTP clients.
type CircuitBreakerConfig struct {
	MaxFailures   int           `koanf:"max_failures"    validate:"required,min=1"`
	Timeout       time.Duration `koanf:"timeout"         validate:"required,min=1s"`
	HalfOpenLimit int           `koanf:"half_open_limit" validate:"required,min=1"`
}

// StoreConfig selects and configures the durable key-value store.
type StoreConfig struct {
	Driver string `koanf:"driver" validate:"required,oneof=bolt sqlite memory"`
	Path   string `koanf:"path"   validate:"required_unless=Driver memory"`
	Bucket string `koanf:"bucket"`
}

// SessionConfig configures the quote session service.
type SessionConfig struct {
	// LoadTimeout bounds one initial-quotes load.
	LoadTimeout time.Duration `koanf:"load_timeout" validate:"required,min=100ms"`

	// Sources lists quote sources in fallback order.
	Sources []string `koanf:"sources" validate:"required,min=1,unique,dive,oneof=cache remote bundled authored"`

	// RemoteLimit is how many quotes the remote source asks for.
	RemoteLimit int `koanf:"remote_limit" validate:"min=1,max=500"`

	// PageSize is the default page size of GET /quotes.
	PageSize int `koanf:"page_size" validate:"min=1,max=100"`

	// AutoLoad starts a load when a session is first opened.
	AutoLoad bool `koanf:"auto_load"`
}

// IdentityConfig configures how callers are identified.
type IdentityConfig struct {
	UserHeader  string `koanf:"user_header"  validate:"required"`
	EmailHeader string `koanf:"email_header"`

	// Required rejects anonymous callers on session routes.
	Required bool `koanf:"required"`
}

// defaults returns the default configuration values.
func defaults() map[string]any {
	return map[string]any{
		"app.name":        "quote-session",
		"app.version":     "dev",
		"app.environment": "local",

		"server.port":             DefaultServerPort,
		"server.host":             "0.0.0.0",
		"server.read_timeout":     "30s",
		"server.write_timeout":    "30s",
		"server.idle_timeout":     "120s",
		"server.shutdown_timeout": "10s",
		"server.max_request_size": DefaultMaxRequestSize,

		"log.level":            "info",
		"log.format":           "json",
		"log.file.enabled":     false,
		"log.file.path":        "./logs/quote-session.log",
		"log.file.max_size":    DefaultLogFileMaxSizeMB,
		"log.file.max_backups": DefaultLogFileMaxBackups,
		"log.file.max_age":     DefaultLogFileMaxAgeDays,
		"log.file.compress":    true,

		"telemetry.enabled":       false,
		"telemetry.endpoint":      "",
		"telemetry.service_name":  "quote-session",
		"telemetry.sampling_rate": 1.0,
		"telemetry.insecure":      false,

		"services.quote.enabled":                         true,
		"services.quote.base_url":                        "https://api.quotable.io",
		"services.quote.name":                            "quote-api",
		"services.quote.list_path":                       "/quotes",
		"services.quote.timeout":                         "10s",
		"services.quote.rate_limit":                      DefaultQuoteRateLimit,
		"services.quote.rate_burst":                      1,
		"services.quote.retry.max_attempts":              DefaultClientRetryMaxAttempts,
		"services.quote.retry.initial_interval":          "100ms",
		"services.quote.retry.max_interval":              "5s",
		"services.quote.retry.multiplier":                DefaultClientRetryMultiplier,
		"services.quote.circuit_breaker.max_failures":    DefaultClientCircuitMaxFailures,
		"services.quote.circuit_breaker.timeout":         "30s",
		"services.quote.circuit_breaker.half_open_limit": DefaultClientCircuitHalfOpenLimit,

		"store.driver": "bolt",
		"store.path":   "./data/quote-session.db",
		"store.bucket": "session",

		"session.load_timeout": "30s",
		"session.sources":      []string{SourceCache, SourceRemote, SourceBundled},
		"session.remote_limit": DefaultRemoteLimit,
		"session.page_size":    DefaultPageSize,
		"session.auto_load":    false,

		"identity.user_header":  "X-User-ID",
		"identity.email_header": "X-User-Email",
		"identity.required":     false,
	}
}

// DefaultDir is where Load looks for YAML files.
const DefaultDir = "configs"

// Load reads configuration from DefaultDir. See LoadDir.
func Load(profile string) (*Config, error) {
	return LoadDir(DefaultDir, profile)
}

// LoadDir layers configuration, later layers winning:
//
//	built-in defaults
//	<dir>/base.yaml
//	<dir>/<profile>.yaml
//	APP_* environment variables
//
// Missing files are skipped. In variable names a single underscore
// separates path segments and a double underscore stands for a literal
// one, so APP_SESSION_LOAD__TIMEOUT sets session.load_timeout.
func LoadDir(dir, profile string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	files := []string{filepath.Join(dir, "base.yaml")}
	if profile != "" {
		files = append(files, filepath.Join(dir, profile+".yaml"))
	}

	var loaded []string

	for _, path := range files {
		ok, err := loadOptionalFile(k, path)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", path, err)
		}

		if ok {
			loaded = append(loaded, path)
		}
	}

	if err := k.Load(env.Provider("APP_", ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	cfg.Files = loaded

	return &cfg, nil
}

// envKey maps APP_SERVER_PORT to server.port.
func envKey(s string) string {
	parts := strings.Split(strings.ToLower(strings.TrimPrefix(s, "APP_")), "__")
	for i, p := range parts {
		parts[i] = strings.ReplaceAll(p, "_", ".")
	}

	return strings.Join(parts, "_")
}

func loadOptionalFile(k *koanf.Koanf, path string) (bool, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return false, nil
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return false, err
	}

	return true, nil
}
