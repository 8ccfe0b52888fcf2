package services

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/unicode/norm"

	"github.com/tbourn/go-agency-backoffice/internal/events"
	"github.com/tbourn/go-agency-backoffice/internal/metrics"
)

// DashboardCacheKey is the cache entry holding the last dashboard snapshot.
const DashboardCacheKey = "dashboard:stats"

// StatsCache stores aggregate snapshots. Implementations must treat a
// missing key as a miss, not an error.
type StatsCache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// afterCommit runs the best-effort side effects of a committed write:
// the event is published and cached aggregates are dropped. Failures are
// logged and counted; they never reach the caller.
func afterCommit(ctx context.Context, pub events.Publisher, cache StatsCache, e events.Event) {
	if pub != nil && e.Type != "" {
		if err := pub.Publish(ctx, e); err != nil {
			metrics.EventPublishFailures.WithLabelValues(e.Type).Inc()
			log.Warn().Err(err).Str("event", e.Type).Str("key", e.Key()).Msg("event publish failed")
		}
	}
	if cache != nil {
		if err := cache.Delete(ctx, DashboardCacheKey); err != nil {
			log.Warn().Err(err).Msg("dashboard cache invalidation failed")
		}
	}
}

// normalizeText trims s and converts it to Unicode NFC so that text typed
// on different input methods compares and counts the same.
func normalizeText(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

func utcNow() time.Time { return time.Now().UTC() }
