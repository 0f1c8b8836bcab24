// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes server timeouts,
// logging, database selection, authentication, rate limiting, the work-log
// ledger rules, and observability settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tbourn/go-intranet-backend/internal/sysutil"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// DBConfig selects the storage driver. SQLite uses Path; Postgres and MySQL
// use DSN.
type DBConfig struct {
	Driver string // sqlite|postgres|mysql
	Path   string // DB_PATH (sqlite file)
	DSN    string // DB_DSN
}

// AuthConfig defines session token and login throttling settings.
type AuthConfig struct {
	JWTSecret     string        // JWT_SECRET (HS256)
	SessionTTL    time.Duration // SESSION_TTL
	LoginRPS      float64       // attempts per second per email
	LoginBurst    int
	RedisAddr     string // REDIS_ADDR; empty keeps sessions in the database
	RedisPassword string
	RedisDB       int
}

// LedgerConfig holds work-log rules.
type LedgerConfig struct {
	TariffFile          string // TARIFF_FILE (YAML override of the built-in table)
	UnlockConfirmations int    // WORKLOG_UNLOCK_CONFIRMATIONS
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "go-intranet-backend")
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
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// Storage / domain
	DB     DBConfig
	Auth   AuthConfig
	Ledger LedgerConfig

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency
	IdempotencyTTL time.Duration // how long a given Idempotency-Key is valid

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

// Load reads configuration from environment variables, applies defaults,
// normalizes values and validates the result. Every validation failure is
// reported, joined into one error.
func Load() (Config, error) {
	cfg := Config{
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           getenv("GIN_MODE", "release"),

		LogLevel:       getenv("LOG_LEVEL", "info"),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    getenv("API_BASE_PATH", "/api/v1"),

		DB:     dbFromEnv(),
		Auth:   authFromEnv(),
		Ledger: LedgerConfig{
			TariffFile:          getenv("TARIFF_FILE", ""),
			UnlockConfirmations: getint("WORKLOG_UNLOCK_CONFIRMATIONS", 8),
		},

		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		CORS: CORSConfig{AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", ""))},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		IdempotencyTTL: getdur("IDEMPOTENCY_TTL", 24*time.Hour),
		OTEL:           otelFromEnv(),
	}
	cfg.normalize()
	return cfg, cfg.Validate()
}

func dbFromEnv() DBConfig {
	return DBConfig{
		Driver: getenv("DB_DRIVER", "sqlite"),
		Path:   getenv("DB_PATH", "intranet.db"),
		DSN:    getenv("DB_DSN", ""),
	}
}

func authFromEnv() AuthConfig {
	return AuthConfig{
		JWTSecret:     getenv("JWT_SECRET", ""),
		SessionTTL:    getdur("SESSION_TTL", 12*time.Hour),
		LoginRPS:      getfloat("LOGIN_RPS", 0.2),
		LoginBurst:    getint("LOGIN_BURST", 5),
		RedisAddr:     getenv("REDIS_ADDR", ""),
		RedisPassword: getenv("REDIS_PASSWORD", ""),
		RedisDB:       getint("REDIS_DB", 0),
	}
}

func otelFromEnv() OTELConfig {
	return OTELConfig{
		Enabled:     getbool("OTEL_ENABLED", false),
		Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
		ServiceName: getenv("OTEL_SERVICE_NAME", "go-intranet-backend"),
		SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
	}
}

func (c *Config) normalize() {
	c.GinMode = strings.ToLower(strings.TrimSpace(c.GinMode))
	switch c.GinMode {
	case "debug", "release", "test":
	default:
		c.GinMode = "release"
	}
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.LogLevel == "warning" {
		c.LogLevel = "warn"
	}
	c.APIBasePath = normalizeBasePath(c.APIBasePath)
	c.DB.Driver = strings.ToLower(strings.TrimSpace(c.DB.Driver))
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string { return ":" + strings.TrimSpace(c.Port) }

// Validate checks every section and joins the failures.
func (c Config) Validate() error {
	var errs []error
	check := func(bad bool, format string, args ...any) {
		if bad {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	switch c.LogLevel {
	case "trace", "debug", "info", "warn", "error", "fatal", "panic":
	default:
		errs = append(errs, errors.New("LOG_LEVEL must be one of: trace, debug, info, warn, error, fatal, panic"))
	}
	check(strings.TrimSpace(c.Port) == "", "PORT must not be empty")
	check(c.ReadTimeout <= 0 || c.ReadHeaderTimeout <= 0 || c.WriteTimeout <= 0 || c.IdleTimeout <= 0,
		"timeouts must be positive durations")
	check(c.MaxHeaderBytes <= 0, "MAX_HEADER_BYTES must be > 0")

	errs = append(errs, c.DB.validate()...)

	check(len(c.Auth.JWTSecret) < 16, "JWT_SECRET must be at least 16 bytes")
	check(c.Auth.SessionTTL <= 0, "SESSION_TTL must be > 0")
	check(c.Auth.LoginRPS <= 0 || c.Auth.LoginBurst < 1, "LOGIN_RPS must be > 0 and LOGIN_BURST >= 1")
	check(c.Ledger.UnlockConfirmations < 1, "WORKLOG_UNLOCK_CONFIRMATIONS must be >= 1")

	check(c.RateRPS < 0, "RATE_RPS must be >= 0")
	check(c.RateBurst < 1, "RATE_BURST must be >= 1")
	check(c.Security.HSTSMaxAge < 0, "HSTS_MAX_AGE must be >= 0")
	check(c.IdempotencyTTL <= 0, "IDEMPOTENCY_TTL must be > 0")
	check(c.OTEL.SampleRatio < 0 || c.OTEL.SampleRatio > 1, "OTEL_TRACES_SAMPLER_ARG must be in [0,1]")

	return errors.Join(errs...)
}

func (d DBConfig) validate() []error {
	switch d.Driver {
	case "sqlite":
		if strings.TrimSpace(d.Path) == "" {
			return []error{errors.New("DB_PATH must not be empty")}
		}
	case "postgres", "mysql":
		if strings.TrimSpace(d.DSN) == "" {
			return []error{fmt.Errorf("DB_DSN is required for DB_DRIVER=%s", d.Driver)}
		}
	default:
		return []error{errors.New("DB_DRIVER must be one of: sqlite, postgres, mysql")}
	}
	return nil
}

// ---- environment lookups; unset, empty and unparsable values yield def ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func lookup[T any](k string, def T, parse func(string) (T, error)) T {
	v, ok := os.LookupEnv(k)
	if !ok || v == "" {
		return def
	}
	out, err := parse(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return out
}

func getfloat(k string, def float64) float64 {
	return lookup(k, def, func(s string) (float64, error) { return strconv.ParseFloat(s, 64) })
}

func getint(k string, def int) int { return lookup(k, def, strconv.Atoi) }

func getdur(k string, def time.Duration) time.Duration { return lookup(k, def, time.ParseDuration) }

func getbool(k string, def bool) bool {
	return lookup(k, def, func(s string) (bool, error) {
		switch {
		case sysutil.IsTruthy(s):
			return true, nil
		case sysutil.IsFalsy(s):
			return false, nil
		}
		return false, errors.New("not a boolean")
	})
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures a leading '/' and strips trailing ones ("/" stays).
func normalizeBasePath(p string) string {
	p = strings.Trim(strings.TrimSpace(p), "/")
	return "/" + p
}
