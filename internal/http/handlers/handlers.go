// Package handlers exposes the back-office REST API.
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses. They depend on the service
// contracts below so tests can substitute stubs.
package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/tbourn/go-agency-backoffice/internal/domain"
	"github.com/tbourn/go-agency-backoffice/internal/fee"
	"github.com/tbourn/go-agency-backoffice/internal/http/middleware"
	"github.com/tbourn/go-agency-backoffice/internal/services"
)

//
// Service contracts (context-aware)
//

// MatchingService defines the matching lifecycle consumed by the handlers.
type MatchingService interface {
	Create(ctx context.Context, userID string, in services.CreateMatchingInput) (*domain.Matching, error)
	Get(ctx context.Context, id int64) (*domain.Matching, error)
	ListPage(ctx context.Context, status *domain.MatchingStatus, page, pageSize int) ([]domain.Matching, int64, error)
	Update(ctx context.Context, userID string, id int64, in services.UpdateMatchingInput) (*domain.Matching, error)
	Complete(ctx context.Context, userID string, id int64) (*domain.Matching, error)
	Cancel(ctx context.Context, userID string, id int64, reason *string) (*domain.Matching, error)
}

// SettlementService records fee collection on postings.
type SettlementService interface {
	Apply(ctx context.Context, userID string, kind domain.PostingKind, id int64, in services.SettlementInput) (domain.SettleablePosting, error)
	Stats(ctx context.Context) (*services.SettlementStats, error)
}

// DashboardService returns the dashboard counters.
type DashboardService interface {
	Stats(ctx context.Context) (*services.DashboardStats, error)
}

// FeeCalculator previews a fee split without persisting anything.
type FeeCalculator interface {
	Breakdown(amount, employerRate, employeeRate decimal.Decimal) (fee.Breakdown, error)
}

// IdempotencyStore records the resource produced by a write so a retry with
// the same Idempotency-Key can be answered without repeating it.
type IdempotencyStore interface {
	Save(ctx context.Context, operator, scope, key string, resourceID int64, status int) error
}

// Pinger reports storage health.
type Pinger interface {
	PingContext(ctx context.Context) error
}

//
// Handler wiring
//

// Deps lists the collaborators of Handlers. Idempotency and Health are
// optional.
type Deps struct {
	Matchings   MatchingService
	Settlements SettlementService
	Dashboard   DashboardService
	Memos       services.Annotatable
	Fees        FeeCalculator
	Idempotency IdempotencyStore
	Health      Pinger
}

// Handlers groups the HTTP endpoints of the back office.
type Handlers struct {
	matchSvc  MatchingService
	settleSvc SettlementService
	dashSvc   DashboardService
	memoSvc   services.Annotatable
	fees      FeeCalculator
	idem      IdempotencyStore
	health    Pinger
}

// New constructs Handlers from d. A nil fee calculator falls back to
// whole-unit rounding.
func New(d Deps) *Handlers {
	h := &Handlers{
		matchSvc:  d.Matchings,
		settleSvc: d.Settlements,
		dashSvc:   d.Dashboard,
		memoSvc:   d.Memos,
		fees:      d.Fees,
		idem:      d.Idempotency,
		health:    d.Health,
	}
	if h.fees == nil {
		h.fees = fee.Calculator{Scale: fee.DefaultScale}
	}
	return h
}

// remember stores the outcome of a successful idempotent write. Failures are
// logged; the write itself already succeeded.
func (h *Handlers) remember(c *gin.Context, resourceID int64, status int) {
	if h.idem == nil {
		return
	}
	key, ok := middleware.GetIdempotencyKey(c)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), 2*time.Second)
	defer cancel()
	if err := h.idem.Save(ctx, middleware.OperatorID(c), middleware.IdempotencyScope(c), key, resourceID, status); err != nil {
		middleware.LoggerFrom(c).Warn().Err(err).Str("idempotency_key", key).Msg("idempotency record not saved")
	}
}

// replayMatching answers a retried write with the current state of the
// matching it produced. It reports false when the request is not a replay.
func (h *Handlers) replayMatching(c *gin.Context, status int) bool {
	id, replay := middleware.ReplayedResource(c)
	if !replay {
		return false
	}
	m, err := h.matchSvc.Get(c.Request.Context(), id)
	if err != nil {
		failErr(c, err)
		return true
	}
	c.Header("Idempotent-Replayed", "true")
	ok(c, status, m)
	return true
}
