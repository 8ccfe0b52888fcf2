package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-agency-backoffice/internal/cache"
	"github.com/tbourn/go-agency-backoffice/internal/config"
	"github.com/tbourn/go-agency-backoffice/internal/events"
	httpapi "github.com/tbourn/go-agency-backoffice/internal/http"
)

const cachePrefix = "backoffice:"

// openBackends connects the optional Redis cache and the event sink named by
// cfg. The returned close function releases whatever was opened.
func openBackends(ctx context.Context, cfg config.Config) (httpapi.Backends, func() error, error) {
	var (
		b       httpapi.Backends
		closers []func() error
		rdb     *redis.Client
	)
	closeAll := func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i]())
		}
		return errors.Join(errs...)
	}

	if cfg.RedisURL != "" {
		var err error
		rdb, err = events.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return b, closeAll, fmt.Errorf("redis: %w", err)
		}
		closers = append(closers, rdb.Close)
		b.Cache = cache.NewRedis(rdb, cachePrefix)
		log.Info().Dur("ttl", cfg.DashboardCacheTTL).Msg("dashboard cache enabled")
	}

	var pub events.Publisher
	switch cfg.Events.Backend {
	case config.EventsRedis:
		if rdb == nil {
			return b, closeAll, errors.New("events backend redis requires REDIS_URL")
		}
		pub = events.NewRedisPublisher(rdb, cfg.Events.Channel)
	case config.EventsKafka:
		pub = events.NewKafkaPublisher(cfg.Events.KafkaBrokers, cfg.Events.Channel)
	default:
		return b, closeAll, nil
	}
	closers = append(closers, pub.Close)
	b.Events = pub
	log.Info().Str("backend", cfg.Events.Backend).Str("channel", cfg.Events.Channel).Msg("event publishing enabled")
	return b, closeAll, nil
}
