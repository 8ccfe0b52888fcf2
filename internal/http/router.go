// Package httpapi wires the HTTP transport (Gin) to the back-office services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// compression, CORS, security headers, idempotency, and rate limiting.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/go-agency-backoffice/internal/config"
	"github.com/tbourn/go-agency-backoffice/internal/domain"
	"github.com/tbourn/go-agency-backoffice/internal/events"
	"github.com/tbourn/go-agency-backoffice/internal/fee"
	"github.com/tbourn/go-agency-backoffice/internal/http/handlers"
	"github.com/tbourn/go-agency-backoffice/internal/http/middleware"
	"github.com/tbourn/go-agency-backoffice/internal/repo"
	"github.com/tbourn/go-agency-backoffice/internal/services"
)

const maxBodyBytes = 1 << 20

// Backends are the optional infrastructure clients behind the services. A
// nil Events publishes nothing; a nil Cache disables dashboard caching.
type Backends struct {
	Events events.Publisher
	Cache  services.StatsCache
}

// idemStore adapts the idempotency repository to the middleware lookup and
// the handlers' store.
type idemStore struct {
	db  *gorm.DB
	ttl time.Duration
}

func (s idemStore) Lookup(ctx context.Context, operator, scope, key string, now time.Time) (int64, bool, error) {
	rec, err := repo.GetIdempotency(ctx, s.db, operator, scope, key, now)
	if errors.Is(err, repo.ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return rec.ResourceID, true, nil
}

// Save ignores duplicates: a concurrent retry already recorded the same key.
func (s idemStore) Save(ctx context.Context, operator, scope, key string, resourceID int64, status int) error {
	_, err := repo.CreateIdempotency(ctx, s.db, operator, scope, key, resourceID, status, s.ttl)
	if errors.Is(err, repo.ErrDuplicate) {
		return nil
	}
	return err
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine and mounts the versioned API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Gzip
//  8. Idempotency validator (before rate limiter to allow bypass on replay)
//  9. Rate limiter (per operator/IP, bypass on replay)
//  10. CORS and Security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, b Backends, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders:   []string{"X-API-Key"},
		NumericParams: []string{"amount", "employer_rate", "employee_rate", "page", "page_size"},
	}))
	r.Use(middleware.Recovery())
	r.Use(limitBody(maxBodyBytes))

	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	idem := idemStore{db: db, ttl: cfg.IdempotencyTTL}
	r.Use(middleware.IdempotencyValidator(middleware.IdempotencyOptions{MaxLen: 128}, idem.Lookup))

	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByOperatorOrIP())
	r.Use(rl.Handler())

	r.Use(corsPolicy(cfg.CORS.AllowedOrigins))
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      true,
		EnablePolicy: true,
	}))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Dependency injection: services <- db/backends
	fees := fee.Calculator{Scale: cfg.CurrencyScale}

	matchSvc := services.NewMatchingService(db)
	matchSvc.Fees = fees
	matchSvc.MarkPostingsInProgress = cfg.MarkPostingsInProgress
	matchSvc.Cache = b.Cache

	settleSvc := services.NewSettlementService(db)
	settleSvc.Cache = b.Cache

	if b.Events != nil {
		matchSvc.Events = b.Events
		settleSvc.Events = b.Events
	}

	dashSvc := &services.DashboardService{DB: db, Cache: b.Cache, CacheTTL: cfg.DashboardCacheTTL}

	deps := handlers.Deps{
		Matchings:   matchSvc,
		Settlements: settleSvc,
		Dashboard:   dashSvc,
		Memos:       services.NewMemoService(db),
		Fees:        fees,
		Idempotency: idem,
	}
	if sqlDB, err := db.DB(); err == nil {
		deps.Health = sqlDB
	}
	h := handlers.New(deps)

	r.GET("/health", h.Health)
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		// Matchings
		api.POST("/matchings", h.CreateMatching)
		api.GET("/matchings", h.ListMatchings)
		api.GET("/matchings/:id", h.GetMatching)
		api.PUT("/matchings/:id", h.UpdateMatching)
		api.POST("/matchings/:id/complete", h.CompleteMatching)
		api.POST("/matchings/:id/cancel", h.CancelMatching)

		// Fees
		api.GET("/fees/preview", h.FeePreview)

		// Settlements
		for path, kind := range map[string]domain.PostingKind{
			"/job-postings": domain.KindJobPosting,
			"/job-seekings": domain.KindJobSeeking,
		} {
			api.PUT(path+"/:id", h.UpdateSettlement(kind))
			api.PUT(path+"/:id/settlement", h.UpdateSettlement(kind))
		}
		api.GET("/settlements/stats", h.SettlementStats)

		// Dashboard
		api.GET("/dashboard/stats", h.DashboardStats)

		// Memos
		api.POST("/matchings/:id/memos", h.AddMemo(domain.SubjectMatching))
		api.GET("/matchings/:id/memos", h.ListMemos(domain.SubjectMatching))
		api.POST("/customers/:id/memos", h.AddMemo(domain.SubjectCustomer))
		api.GET("/customers/:id/memos", h.ListMemos(domain.SubjectCustomer))
		api.PUT("/memos/:memoId", h.UpdateMemo)
		api.DELETE("/memos/:memoId", h.DeleteMemo)
	}
}

// corsPolicy allows any origin when none is configured, otherwise only the
// listed ones. Credentials are never allowed.
func corsPolicy(origins []string) gin.HandlerFunc {
	cc := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Accept", "Authorization",
			middleware.OperatorHeader, middleware.HeaderIdempotencyKey, "If-None-Match",
		},
		ExposeHeaders:    []string{"X-Request-ID", "ETag", "Location", "Idempotent-Replayed"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		cc.AllowAllOrigins = true
	} else {
		cc.AllowOrigins = origins
	}
	return cors.New(cc)
}

// limitBody caps the request body size for all endpoints using
// http.MaxBytesReader. Oversized bodies fail to decode and answer 400.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
