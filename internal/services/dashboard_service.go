// Package services – DashboardService
//
// DashboardService computes the back-office headline numbers. Each
// collection is read with exactly one statement: three COUNTs over
// customers and the two posting tables, and one grouped aggregate over
// matchings that is folded here with decimal arithmetic.
//
// Results may be served from a StatsCache for a short TTL; writes in the
// matching and settlement services drop the cached entry.
package services

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tbourn/go-agency-backoffice/internal/domain"
	"github.com/tbourn/go-agency-backoffice/internal/metrics"
	"github.com/tbourn/go-agency-backoffice/internal/repo"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// DashboardStats are the headline counters shown on the dashboard.
//
// TotalRevenue is the sum of employer and employee fees of completed
// matchings. PendingAmount is the part of that revenue whose posting side is
// still unsettled.
type DashboardStats struct {
	TotalCustomers   int64           `json:"total_customers"`
	TotalJobPostings int64           `json:"total_job_postings"`
	TotalJobSeekers  int64           `json:"total_job_seekers"`
	ActiveMatches    int64           `json:"active_matches"`
	TotalRevenue     decimal.Decimal `json:"total_revenue"`
	TotalMatchings   int64           `json:"total_matchings"`
	CompletedMatches int64           `json:"completed_matches"`
	CancelledMatches int64           `json:"cancelled_matches"`
	PendingAmount    decimal.Decimal `json:"pending_amount"`
	GeneratedAt      time.Time       `json:"generated_at"`
}

// DashboardService aggregates dashboard statistics.
type DashboardService struct {
	DB *gorm.DB

	// Cache is optional; CacheTTL <= 0 disables it.
	Cache    StatsCache
	CacheTTL time.Duration

	Now func() time.Time
}

// Stats returns the dashboard counters, from cache when a fresh snapshot
// exists.
func (s *DashboardService) Stats(ctx context.Context) (*DashboardStats, error) {
	tr := otel.Tracer("services/DashboardService")
	ctx, span := tr.Start(ctx, "Stats")
	defer span.End()

	useCache := s.Cache != nil && s.CacheTTL > 0
	if useCache {
		var cached DashboardStats
		hit, err := s.Cache.Get(ctx, DashboardCacheKey, &cached)
		switch {
		case err != nil:
			metrics.DashboardCache.WithLabelValues("error").Inc()
			log.Warn().Err(err).Msg("dashboard cache read failed")
		case hit:
			metrics.DashboardCache.WithLabelValues("hit").Inc()
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return &cached, nil
		default:
			metrics.DashboardCache.WithLabelValues("miss").Inc()
		}
	}

	out, err := s.compute(ctx)
	if err != nil {
		return nil, err
	}
	span.AddEvent("computed", trace.WithAttributes(attribute.Int64("matchings", out.TotalMatchings)))

	if useCache {
		if err := s.Cache.Set(ctx, DashboardCacheKey, out, s.CacheTTL); err != nil {
			log.Warn().Err(err).Msg("dashboard cache write failed")
		}
	}
	return out, nil
}

func (s *DashboardService) compute(ctx context.Context) (*DashboardStats, error) {
	now := utcNow
	if s.Now != nil {
		now = s.Now
	}
	out := &DashboardStats{
		TotalRevenue:  decimal.Zero,
		PendingAmount: decimal.Zero,
		GeneratedAt:   now(),
	}

	var err error
	if out.TotalCustomers, err = repo.CountLive(ctx, s.DB, &domain.Customer{}); err != nil {
		return nil, err
	}
	if out.TotalJobPostings, err = repo.CountLive(ctx, s.DB, &domain.JobPosting{}); err != nil {
		return nil, err
	}
	if out.TotalJobSeekers, err = repo.CountLive(ctx, s.DB, &domain.JobSeekingPosting{}); err != nil {
		return nil, err
	}

	rows, err := repo.MatchingTotals(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		out.TotalMatchings += r.Count
		switch r.Status {
		case domain.MatchingInProgress:
			out.ActiveMatches += r.Count
		case domain.MatchingCompleted:
			out.CompletedMatches += r.Count
			out.TotalRevenue = out.TotalRevenue.Add(r.EmployerFees.Decimal).Add(r.EmployeeFees.Decimal)
			out.PendingAmount = out.PendingAmount.Add(r.PendingEmployer.Decimal).Add(r.PendingEmployee.Decimal)
		case domain.MatchingCancelled:
			out.CancelledMatches += r.Count
		}
	}
	return out, nil
}
