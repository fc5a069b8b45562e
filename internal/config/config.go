// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as server timeouts, logging, storage, submission limits, and observability.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// DBConfig selects the storage backend.
type DBConfig struct {
	Driver string // DB_DRIVER: sqlite|postgres
	Path   string // DB_PATH, SQLite file
	URL    string // DATABASE_URL, Postgres DSN
}

// DSN returns the connection string for the selected driver.
func (d DBConfig) DSN() string {
	if d.Driver == "postgres" {
		return d.URL
	}
	return d.Path
}

// RateLimitConfig sizes the per-address submission window.
type RateLimitConfig struct {
	Limit  int           // RATE_LIMIT, submissions per window
	Window time.Duration // RATE_WINDOW
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "go-entries-backend")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	ShutdownTimeout   time.Duration // grace period for in-flight requests
	MaxHeaderBytes    int           // bytes
	MaxBodyBytes      int64         // request body cap
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route

	// Storage
	DB DBConfig

	// Entries
	RateLimit RateLimitConfig
	ListLimit int // max entries returned by GET /entries

	// Web protection
	Security SecurityConfig

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables. Unset or empty keys
// take their defaults; set keys that do not parse are reported alongside any
// validation failure, all in one joined error.
func Load() (Config, error) {
	var env envReader
	cfg := Config{
		Port:              env.text("PORT", "8080"),
		ReadTimeout:       env.duration("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: env.duration("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      env.duration("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       env.duration("IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout:   env.duration("SHUTDOWN_TIMEOUT", 10*time.Second),
		MaxHeaderBytes:    env.integer("MAX_HEADER_BYTES", 1<<20),
		MaxBodyBytes:      int64(env.integer("MAX_BODY_BYTES", 64<<10)),
		GinMode:           env.lowered("GIN_MODE", "release"),

		LogLevel:       env.lowered("LOG_LEVEL", "info"),
		LogPretty:      env.flag("LOG_PRETTY", false),
		SwaggerEnabled: env.flag("SWAGGER_ENABLED", false),

		DB: DBConfig{
			Driver: env.lowered("DB_DRIVER", "sqlite"),
			Path:   env.text("DB_PATH", "entries.db"),
			URL:    env.text("DATABASE_URL", ""),
		},

		RateLimit: RateLimitConfig{
			Limit:  env.integer("RATE_LIMIT", 5),
			Window: env.duration("RATE_WINDOW", 60*time.Second),
		},
		ListLimit: env.integer("LIST_LIMIT", 500),

		Security: SecurityConfig{
			EnableHSTS: env.flag("ENABLE_HSTS", false),
			HSTSMaxAge: env.duration("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		OTEL: OTELConfig{
			Enabled:     env.flag("OTEL_ENABLED", false),
			Endpoint:    env.text("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    env.flag("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: env.text("OTEL_SERVICE_NAME", "go-entries-backend"),
			SampleRatio: env.number("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}
	cfg.normalize()
	return cfg, errors.Join(append(env.errs, cfg.validate()...)...)
}

// normalize maps accepted aliases onto canonical values. An unknown GIN_MODE
// silently becomes release so a typo never enables debug output.
func (c *Config) normalize() {
	if c.LogLevel == "warning" {
		c.LogLevel = "warn"
	}
	if c.DB.Driver == "sqlite3" {
		c.DB.Driver = "sqlite"
	}
	switch c.GinMode {
	case "debug", "release", "test":
	default:
		c.GinMode = "release"
	}
}

func (c Config) validate() []error {
	var errs []error
	check := func(ok bool, msg string) {
		if !ok {
			errs = append(errs, errors.New(msg))
		}
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		errs = append(errs, fmt.Errorf("LOG_LEVEL %q is not one of debug, info, warn, error, fatal, panic", c.LogLevel))
	}
	check(strings.TrimSpace(c.Port) != "", "PORT must not be empty")
	for name, d := range map[string]time.Duration{
		"READ_TIMEOUT":        c.ReadTimeout,
		"READ_HEADER_TIMEOUT": c.ReadHeaderTimeout,
		"WRITE_TIMEOUT":       c.WriteTimeout,
		"IDLE_TIMEOUT":        c.IdleTimeout,
		"SHUTDOWN_TIMEOUT":    c.ShutdownTimeout,
	} {
		check(d > 0, name+" must be a positive duration")
	}
	check(c.MaxHeaderBytes > 0, "MAX_HEADER_BYTES must be > 0")
	check(c.MaxBodyBytes > 0, "MAX_BODY_BYTES must be > 0")

	switch c.DB.Driver {
	case "sqlite":
		check(strings.TrimSpace(c.DB.Path) != "", "DB_PATH must not be empty")
	case "postgres":
		check(strings.TrimSpace(c.DB.URL) != "", "DATABASE_URL is required when DB_DRIVER=postgres")
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER must be sqlite or postgres, got %q", c.DB.Driver))
	}

	check(c.RateLimit.Limit >= 1, "RATE_LIMIT must be >= 1")
	check(c.RateLimit.Window >= time.Second, "RATE_WINDOW must be at least 1s")
	check(c.ListLimit >= 1, "LIST_LIMIT must be >= 1")
	check(c.Security.HSTSMaxAge >= 0, "HSTS_MAX_AGE must be >= 0")
	check(c.OTEL.SampleRatio >= 0 && c.OTEL.SampleRatio <= 1, "OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	return errs
}

// envReader looks up environment keys and remembers every set value that
// failed to parse; the default is used in its place.
type envReader struct {
	errs []error
}

func (e *envReader) lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func (e *envReader) bad(key, val, want string) {
	e.errs = append(e.errs, fmt.Errorf("%s=%q is not a valid %s", key, val, want))
}

func (e *envReader) text(key, def string) string {
	if v, ok := e.lookup(key); ok {
		return v
	}
	return def
}

func (e *envReader) lowered(key, def string) string {
	return strings.ToLower(e.text(key, def))
}

func (e *envReader) integer(key string, def int) int {
	v, ok := e.lookup(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.bad(key, v, "integer")
		return def
	}
	return n
}

func (e *envReader) number(key string, def float64) float64 {
	v, ok := e.lookup(key)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		e.bad(key, v, "number")
		return def
	}
	return f
}

func (e *envReader) duration(key string, def time.Duration) time.Duration {
	v, ok := e.lookup(key)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.bad(key, v, "duration")
		return def
	}
	return d
}

func (e *envReader) flag(key string, def bool) bool {
	v, ok := e.lookup(key)
	if !ok {
		return def
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	}
	e.bad(key, v, "boolean")
	return def
}
