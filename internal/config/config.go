// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes settings for the
// HTTP server, storage driver, cache, event sink, fee rounding, rate limiting,
// and observability.
package config

import (
	"strings"
	"time"
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

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "agency-backoffice")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// DBConfig selects the storage driver and its connection string.
type DBConfig struct {
	Driver string // sqlite|postgres|mysql
	DSN    string // DB_DSN, required for postgres/mysql
	Path   string // DB_PATH, used by sqlite when DSN is empty
}

// EventsConfig selects where matching lifecycle events are published.
type EventsConfig struct {
	Backend      string   // none|redis|kafka
	Channel      string   // redis channel or kafka topic
	KafkaBrokers []string // KAFKA_BROKERS
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

	// Storage
	DB DBConfig

	// Cache
	RedisURL          string        // empty disables the dashboard cache
	DashboardCacheTTL time.Duration // how long dashboard stats may be served stale

	// Events
	Events EventsConfig

	// Matching / fees
	CurrencyScale          int32 // decimal places kept on computed fees
	MarkPostingsInProgress bool  // default for the create flag of the same name

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

// Supported storage drivers and event backends.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"

	EventsNone  = "none"
	EventsRedis = "redis"
	EventsKafka = "kafka"
)

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables, applies defaults,
// normalizes values and validates the result. Malformed values (a duration
// that does not parse, say) are reported together with validation problems
// instead of silently falling back to the default.
func Load() (Config, error) {
	var e env
	cfg := Config{
		Port:              e.str("PORT", "8080"),
		ReadTimeout:       e.dur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: e.dur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      e.dur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       e.dur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    e.int("MAX_HEADER_BYTES", 1<<20),
		GinMode:           e.lower("GIN_MODE", "release"),

		LogLevel:       e.lower("LOG_LEVEL", "info"),
		LogPretty:      e.bool("LOG_PRETTY", false),
		SwaggerEnabled: e.bool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(e.str("API_BASE_PATH", "/api/v1")),

		DB: DBConfig{
			Driver: e.lower("DB_DRIVER", DriverSQLite),
			DSN:    e.str("DB_DSN", ""),
			Path:   e.str("DB_PATH", "backoffice.db"),
		},

		RedisURL:          strings.TrimSpace(e.str("REDIS_URL", "")),
		DashboardCacheTTL: e.dur("DASHBOARD_CACHE_TTL", 30*time.Second),

		Events: EventsConfig{
			Backend:      e.lower("EVENTS_BACKEND", EventsNone),
			Channel:      e.str("EVENTS_CHANNEL", "backoffice.matchings"),
			KafkaBrokers: splitCSV(e.str("KAFKA_BROKERS", "")),
		},

		CurrencyScale:          int32(e.int("CURRENCY_SCALE", 0)),
		MarkPostingsInProgress: e.bool("MARK_POSTINGS_IN_PROGRESS", false),

		RateRPS:   e.float("RATE_RPS", 5.0),
		RateBurst: e.int("RATE_BURST", 10),

		CORS: CORSConfig{
			AllowedOrigins: splitCSV(e.str("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: e.bool("ENABLE_HSTS", false),
			HSTSMaxAge: e.dur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		IdempotencyTTL: e.dur("IDEMPOTENCY_TTL", 24*time.Hour),

		OTEL: OTELConfig{
			Enabled:     e.bool("OTEL_ENABLED", false),
			Endpoint:    e.str("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    e.bool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: e.str("OTEL_SERVICE_NAME", "agency-backoffice"),
			SampleRatio: e.float("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}
	cfg.normalize()

	if err := e.err(); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// normalize maps accepted aliases onto their canonical spelling.
func (c *Config) normalize() {
	if c.LogLevel == "warning" {
		c.LogLevel = "warn"
	}
	switch c.GinMode {
	case "debug", "release", "test":
	default:
		c.GinMode = "release"
	}
	switch c.DB.Driver {
	case "postgresql", "pg":
		c.DB.Driver = DriverPostgres
	case "sqlite3":
		c.DB.Driver = DriverSQLite
	}
	if c.Events.Backend == "" {
		c.Events.Backend = EventsNone
	}
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.Trim(strings.TrimSpace(p), "/")
	return "/" + p
}
