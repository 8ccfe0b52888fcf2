package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tbourn/go-agency-backoffice/internal/fee"
)

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		errs = append(errs, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic"))
	}
	check(strings.TrimSpace(c.Port) != "", "PORT must not be empty")
	check(c.ReadTimeout > 0 && c.ReadHeaderTimeout > 0 && c.WriteTimeout > 0 && c.IdleTimeout > 0,
		"timeouts must be positive durations")
	check(c.MaxHeaderBytes > 0, "MAX_HEADER_BYTES must be > 0")

	switch c.DB.Driver {
	case DriverSQLite:
		check(strings.TrimSpace(c.DB.Path) != "" || strings.TrimSpace(c.DB.DSN) != "", "DB_PATH must not be empty")
	case DriverPostgres, DriverMySQL:
		check(strings.TrimSpace(c.DB.DSN) != "", "DB_DSN is required for DB_DRIVER=%s", c.DB.Driver)
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER %q must be one of: sqlite, postgres, mysql", c.DB.Driver))
	}
	check(c.DashboardCacheTTL >= 0, "DASHBOARD_CACHE_TTL must be >= 0")

	switch c.Events.Backend {
	case EventsNone:
	case EventsRedis:
		check(c.RedisURL != "", "EVENTS_BACKEND=redis requires REDIS_URL")
	case EventsKafka:
		check(len(c.Events.KafkaBrokers) > 0, "EVENTS_BACKEND=kafka requires KAFKA_BROKERS")
	default:
		errs = append(errs, fmt.Errorf("EVENTS_BACKEND %q must be one of: none, redis, kafka", c.Events.Backend))
	}
	if c.Events.Backend != EventsNone {
		check(strings.TrimSpace(c.Events.Channel) != "", "EVENTS_CHANNEL must not be empty")
	}

	check(c.CurrencyScale >= 0 && c.CurrencyScale <= fee.MaxScale, "CURRENCY_SCALE must be between 0 and %d", fee.MaxScale)
	check(c.RateRPS >= 0, "RATE_RPS must be >= 0")
	check(c.RateBurst >= 1, "RATE_BURST must be >= 1")
	check(c.Security.HSTSMaxAge >= 0, "HSTS_MAX_AGE must be >= 0")
	check(c.IdempotencyTTL > 0, "IDEMPOTENCY_TTL must be > 0")
	check(c.OTEL.SampleRatio >= 0 && c.OTEL.SampleRatio <= 1, "OTEL_TRACES_SAMPLER_ARG must be in [0,1]")

	return errors.Join(errs...)
}
