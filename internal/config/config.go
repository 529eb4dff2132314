// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as server timeouts, logging, the database DSN, rate limiting, JWT
// issuance, and the payment provider credentials.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// passwordPlaceholder is the token inside the DATABASE template that gets
// substituted with DATABASE_PASSWORD at load time.
const passwordPlaceholder = "<PASSWORD>"

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// JWTConfig defines token issuance settings for the auth flows.
type JWTConfig struct {
	Secret        string        // JWT_SECRET (HMAC signing key)
	ExpiresIn     time.Duration // JWT_EXPIRES_IN token lifetime
	CookieExpires time.Duration // JWT_COOKIE_EXPIRES_IN cookie lifetime
}

// StripeConfig defines the payment provider credentials.
type StripeConfig struct {
	SecretKey     string // STRIPE_SECRET_KEY
	WebhookSecret string // STRIPE_WEBHOOK_SECRET
}

// RateLimitConfig defines the per-IP request quota applied to /api routes.
type RateLimitConfig struct {
	Max    int           // requests allowed per window
	Window time.Duration // rolling window length
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	Env               string        // development|production
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	MaxBodyBytes      int64         // JSON body cap applied by middleware

	// Logging
	LogLevel  string // debug|info|warn|error|fatal|panic
	LogPretty bool   // pretty console logs in dev

	// Database
	Database         string // resolved DSN (password placeholder substituted)
	DatabaseRedacted string // DSN with the password masked, safe to log

	// Assets / views
	PublicDir   string // static asset directory served under /public
	TemplateDir string // directory holding HTML templates

	// Rate limiting
	RateLimit RateLimitConfig

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Auth
	JWT JWTConfig

	// Payments
	Stripe StripeConfig

	// Observability
	OTEL OTELConfig
}

// IsDevelopment reports whether the app runs with the development profile
// (verbose request logs, error detail exposure).
func (c Config) IsDevelopment() bool { return c.Env == "development" }

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "3000"),
		Env:               strings.ToLower(getenv("APP_ENV", "development")),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		MaxBodyBytes:      int64(getint("MAX_BODY_BYTES", 10<<10)),

		// Logging
		LogLevel:  strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty: getbool("LOG_PRETTY", false),

		// Database
		Database:         resolveDSN(getenv("DATABASE", "tours.db"), os.Getenv("DATABASE_PASSWORD")),
		DatabaseRedacted: resolveDSN(getenv("DATABASE", "tours.db"), "****"),

		// Assets / views
		PublicDir:   getenv("PUBLIC_DIR", "public"),
		TemplateDir: getenv("TEMPLATE_DIR", "web/templates"),

		// Rate limiting
		RateLimit: RateLimitConfig{
			Max:    getint("RATE_LIMIT_MAX", 100),
			Window: getdur("RATE_LIMIT_WINDOW", time.Hour),
		},

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Auth
		JWT: JWTConfig{
			Secret:        os.Getenv("JWT_SECRET"),
			ExpiresIn:     getdur("JWT_EXPIRES_IN", 90*24*time.Hour),
			CookieExpires: getdur("JWT_COOKIE_EXPIRES_IN", 90*24*time.Hour),
		},

		// Payments
		Stripe: StripeConfig{
			SecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
			WebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		},

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-tours-backend"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.Env {
	case "development", "production":
	default:
		cfg.Env = "production"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if cfg.MaxBodyBytes <= 0 {
		return cfg, errors.New("MAX_BODY_BYTES must be > 0")
	}
	if strings.TrimSpace(cfg.Database) == "" {
		return cfg, errors.New("DATABASE must not be empty")
	}
	if strings.Contains(cfg.Database, passwordPlaceholder) {
		return cfg, errors.New("DATABASE contains <PASSWORD> but DATABASE_PASSWORD is not set")
	}
	if cfg.RateLimit.Max < 1 {
		return cfg, errors.New("RATE_LIMIT_MAX must be >= 1")
	}
	if cfg.RateLimit.Window <= 0 {
		return cfg, errors.New("RATE_LIMIT_WINDOW must be > 0")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.JWT.Secret == "" {
		return cfg, errors.New("JWT_SECRET must be set")
	}
	if len(cfg.JWT.Secret) < 32 {
		return cfg, errors.New("JWT_SECRET must be at least 32 characters")
	}
	if cfg.JWT.ExpiresIn <= 0 || cfg.JWT.CookieExpires <= 0 {
		return cfg, errors.New("JWT lifetimes must be > 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// resolveDSN substitutes the <PASSWORD> placeholder in the DSN template with
// the real secret. Templates without the placeholder pass through unchanged.
func resolveDSN(template, password string) string {
	if password == "" {
		return template
	}
	return strings.ReplaceAll(template, passwordPlaceholder, password)
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
